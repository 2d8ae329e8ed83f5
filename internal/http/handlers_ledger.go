package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"banchee/internal/services"
)

type createEntryRequest struct {
	AccountID   string          `json:"accountId"`
	TxDate      string          `json:"txDate"`
	PostedYear  int             `json:"postedYear"`
	PostedMonth int             `json:"postedMonth"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

func (req createEntryRequest) toParams(w http.ResponseWriter) (services.CreateEntryParams, bool) {
	txDate, err := time.Parse(dateLayout, req.TxDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "txDate must be formatted as YYYY-MM-DD"})
		return services.CreateEntryParams{}, false
	}
	return services.CreateEntryParams{
		AccountID:   req.AccountID,
		TxDate:      txDate,
		PostedYear:  req.PostedYear,
		PostedMonth: req.PostedMonth,
		Amount:      req.Amount,
		Description: req.Description,
	}, true
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req createEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params, ok := req.toParams(w)
	if !ok {
		return
	}
	entry, err := s.ledger.Create(r.Context(), owner, params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryJSON(entry))
}

type createInstallmentRequest struct {
	createEntryRequest
	Total int `json:"total"`
}

func (s *Server) handleCreateInstallment(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req createInstallmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params, ok := req.toParams(w)
	if !ok {
		return
	}
	entries, err := s.ledger.CreateInstallmentPlan(r.Context(), owner, services.InstallmentParams{
		CreateEntryParams: params,
		Total:             req.Total,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryListJSON(entries))
}

type carryOverRequest struct {
	FromYear  int             `json:"fromYear"`
	FromMonth int             `json:"fromMonth"`
	Amount    decimal.Decimal `json:"amount"`
}

func (s *Server) handleCarryOver(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req carryOverRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	entry, err := s.ledger.CarryOver(r.Context(), owner, req.FromYear, req.FromMonth, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryJSON(entry))
}

type partialPaymentRequest struct {
	EntryID        string          `json:"entryId"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	InterestAmount decimal.Decimal `json:"interestAmount"`
}

type partialPaymentResponse struct {
	OriginalAmount  decimal.Decimal `json:"originalAmount"`
	PaidAmount      decimal.Decimal `json:"paidAmount"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
	InterestAmount  decimal.Decimal `json:"interestAmount"`
	TotalNextMonth  decimal.Decimal `json:"totalNextMonth"`
	NextYear        int             `json:"nextYear"`
	NextMonth       int             `json:"nextMonth"`
}

func (s *Server) handlePartialPayment(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req partialPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := s.ledger.PartialPayment(r.Context(), owner, req.EntryID, req.PaidAmount, req.InterestAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, partialPaymentResponse{
		OriginalAmount:  result.OriginalAmount,
		PaidAmount:      result.PaidAmount,
		RemainingAmount: result.RemainingAmount,
		InterestAmount:  result.InterestAmount,
		TotalNextMonth:  result.TotalNextMonth,
		NextYear:        result.NextPeriod.Year,
		NextMonth:       result.NextPeriod.Month,
	})
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	year, err := intQuery(r, "year")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "query parameter year must be an integer"})
		return
	}
	month, err := intQuery(r, "month")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "query parameter month must be an integer"})
		return
	}
	entries, err := s.ledger.List(r.Context(), owner, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryListJSON(entries))
}

func (s *Server) handleListEntriesByAccount(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	year, err := intQuery(r, "year")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "query parameter year must be an integer"})
		return
	}
	month, err := intQuery(r, "month")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "query parameter month must be an integer"})
		return
	}
	entries, err := s.ledger.ListByAccount(r.Context(), owner, r.PathValue("id"), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryListJSON(entries))
}

func (s *Server) handleListEntriesByDateRange(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	start, err := time.Parse(dateLayout, r.URL.Query().Get("start"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "query parameter start must be formatted as YYYY-MM-DD"})
		return
	}
	end, err := time.Parse(dateLayout, r.URL.Query().Get("end"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "query parameter end must be formatted as YYYY-MM-DD"})
		return
	}
	entries, err := s.ledger.ListByDateRange(r.Context(), owner, start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryListJSON(entries))
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	entry, err := s.ledger.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryJSON(entry))
}

type updateEntryRequest struct {
	AccountID   *string          `json:"accountId"`
	TxDate      *string          `json:"txDate"`
	PostedYear  *int             `json:"postedYear"`
	PostedMonth *int             `json:"postedMonth"`
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description"`
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req updateEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params := services.UpdateEntryParams{
		AccountID:   req.AccountID,
		PostedYear:  req.PostedYear,
		PostedMonth: req.PostedMonth,
		Amount:      req.Amount,
		Description: req.Description,
	}
	if req.TxDate != nil {
		txDate, err := time.Parse(dateLayout, *req.TxDate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "txDate must be formatted as YYYY-MM-DD"})
			return
		}
		params.TxDate = &txDate
	}
	entry, err := s.ledger.Update(r.Context(), owner, r.PathValue("id"), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryJSON(entry))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	if err := s.ledger.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	if err := s.ledger.DeleteGroup(r.Context(), owner, r.PathValue("groupId")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
