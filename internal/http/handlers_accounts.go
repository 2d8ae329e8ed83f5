package http

import (
	"net/http"

	"banchee/internal/core"
	"banchee/internal/services"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	accounts, err := s.accounts.ListActive(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountListJSON(accounts))
}

type createAccountRequest struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	SortOrder *int   `json:"sortOrder"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req createAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	account, err := s.accounts.Create(r.Context(), owner, services.CreateAccountParams{
		Name:      req.Name,
		Type:      core.AccountType(req.Type),
		SortOrder: req.SortOrder,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountJSON(account))
}

func (s *Server) handleSeedAccounts(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	created, err := s.accounts.Seed(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountListJSON(created))
}

type reorderAccountsRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleReorderAccounts(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req reorderAccountsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	accounts, err := s.accounts.Reorder(r.Context(), owner, req.IDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountListJSON(accounts))
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	account, err := s.accounts.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountJSON(account))
}

type updateAccountRequest struct {
	Name      *string `json:"name"`
	Type      *string `json:"type"`
	SortOrder *int    `json:"sortOrder"`
	IsActive  *bool   `json:"isActive"`
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req updateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params := services.UpdateAccountParams{
		Name:      req.Name,
		SortOrder: req.SortOrder,
		IsActive:  req.IsActive,
	}
	if req.Type != nil {
		t := core.AccountType(*req.Type)
		params.Type = &t
	}
	account, err := s.accounts.Update(r.Context(), owner, r.PathValue("id"), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountJSON(account))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	if err := s.accounts.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
