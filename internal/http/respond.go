package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"banchee/internal/core"
)

// ownerID extracts the authenticated owner from the request. Session issuance
// lives outside this service; the upstream proxy is trusted to set the
// header.
func ownerID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

func requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := ownerID(r)
	if owner == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing X-User-ID header"})
		return "", false
	}
	return owner, true
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError translates the core error taxonomy into HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrAccessDenied), errors.Is(err, core.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, core.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrConflict):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"url", r.URL.Path,
			"error", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// intQuery parses an optional integer query parameter, nil when absent.
func intQuery(r *http.Request, key string) (*int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// requiredIntQuery parses a mandatory integer query parameter.
func requiredIntQuery(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	v := r.URL.Query().Get(key)
	n, err := strconv.Atoi(v)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "query parameter " + key + " must be an integer"})
		return 0, false
	}
	return n, true
}

const dateLayout = "2006-01-02"

// JSON shapes for the wire. Amounts travel as decimal strings; dates as
// YYYY-MM-DD.

type accountJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	SortOrder int       `json:"sortOrder"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

func toAccountJSON(a core.Account) accountJSON {
	return accountJSON{
		ID:        a.ID,
		Name:      a.Name,
		Type:      string(a.Type),
		SortOrder: a.SortOrder,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
	}
}

func toAccountListJSON(accounts []core.Account) []accountJSON {
	out := make([]accountJSON, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountJSON(a))
	}
	return out
}

type entryJSON struct {
	ID                 string          `json:"id"`
	AccountID          string          `json:"accountId"`
	TxDate             string          `json:"txDate"`
	PostedYear         int             `json:"postedYear"`
	PostedMonth        int             `json:"postedMonth"`
	Amount             decimal.Decimal `json:"amount"`
	Description        string          `json:"description"`
	InstallmentGroupID string          `json:"installmentGroupId,omitempty"`
	InstallmentIndex   int             `json:"installmentIndex,omitempty"`
	InstallmentTotal   int             `json:"installmentTotal,omitempty"`
	IsCarryOver        bool            `json:"isCarryOver"`
	CarryFromYear      int             `json:"carryFromYear,omitempty"`
	CarryFromMonth     int             `json:"carryFromMonth,omitempty"`
	IsPartiallyPaid    bool            `json:"isPartiallyPaid"`
	CreatedAt          time.Time       `json:"createdAt"`
	Account            *accountJSON    `json:"account,omitempty"`
}

func toEntryJSON(e core.Entry) entryJSON {
	out := entryJSON{
		ID:                 e.ID,
		AccountID:          e.AccountID,
		TxDate:             e.TxDate.Format(dateLayout),
		PostedYear:         e.PostedYear,
		PostedMonth:        e.PostedMonth,
		Amount:             e.Amount,
		Description:        e.Description,
		InstallmentGroupID: e.InstallmentGroupID,
		InstallmentIndex:   e.InstallmentIndex,
		InstallmentTotal:   e.InstallmentTotal,
		IsCarryOver:        e.IsCarryOver,
		CarryFromYear:      e.CarryFromYear,
		CarryFromMonth:     e.CarryFromMonth,
		IsPartiallyPaid:    e.IsPartiallyPaid,
		CreatedAt:          e.CreatedAt,
	}
	if e.Account != nil {
		a := toAccountJSON(*e.Account)
		out.Account = &a
	}
	return out
}

func toEntryListJSON(entries []core.Entry) []entryJSON {
	out := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryJSON(e))
	}
	return out
}
