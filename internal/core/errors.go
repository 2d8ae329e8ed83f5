package core

import "errors"

// Sentinel errors shared by every service. Layers add context with
// fmt.Errorf("...: %w", err) and callers dispatch with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrAccessDenied    = errors.New("access denied")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
)
