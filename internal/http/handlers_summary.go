package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"banchee/internal/core"
)

type monthlySummaryJSON struct {
	Year           int             `json:"year"`
	Month          int             `json:"month"`
	Income         decimal.Decimal `json:"income"`
	Expense        decimal.Decimal `json:"expense"`
	Net            decimal.Decimal `json:"net"`
	HasCarriedOver bool            `json:"hasCarriedOver"`
}

func toMonthlySummaryJSON(s core.MonthlySummary) monthlySummaryJSON {
	return monthlySummaryJSON{
		Year:           s.Year,
		Month:          s.Month,
		Income:         s.Income,
		Expense:        s.Expense,
		Net:            s.Net,
		HasCarriedOver: s.HasCarriedOver,
	}
}

type accountSummaryJSON struct {
	Account accountJSON     `json:"account"`
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Total   decimal.Decimal `json:"total"`
	Entries []entryJSON     `json:"entries"`
}

func toAccountSummaryJSON(s core.AccountSummary) accountSummaryJSON {
	return accountSummaryJSON{
		Account: toAccountJSON(s.Account),
		Year:    s.Year,
		Month:   s.Month,
		Total:   s.Total,
		Entries: toEntryListJSON(s.Entries),
	}
}

type scheduledPaymentJSON struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Index int `json:"index"`
}

type installmentProjectionJSON struct {
	GroupID        string                 `json:"groupId"`
	Description    string                 `json:"description"`
	AccountName    string                 `json:"accountName"`
	AmountPerMonth decimal.Decimal        `json:"amountPerMonth"`
	Remaining      int                    `json:"remaining"`
	Total          int                    `json:"total"`
	NextPayments   []scheduledPaymentJSON `json:"nextPayments"`
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	year, ok := requiredIntQuery(w, r, "year")
	if !ok {
		return
	}
	month, ok := requiredIntQuery(w, r, "month")
	if !ok {
		return
	}
	summary, err := s.summary.Monthly(r.Context(), owner, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthlySummaryJSON(summary))
}

func (s *Server) handleYearSummary(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	year, ok := requiredIntQuery(w, r, "year")
	if !ok {
		return
	}
	summaries, err := s.summary.Year(r.Context(), owner, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]monthlySummaryJSON, 0, len(summaries))
	for _, sm := range summaries {
		out = append(out, toMonthlySummaryJSON(sm))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAllAccountsSummary(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	year, ok := requiredIntQuery(w, r, "year")
	if !ok {
		return
	}
	month, ok := requiredIntQuery(w, r, "month")
	if !ok {
		return
	}
	summaries, err := s.summary.AllAccounts(r.Context(), owner, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]accountSummaryJSON, 0, len(summaries))
	for _, sm := range summaries {
		out = append(out, toAccountSummaryJSON(sm))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAccountSummary(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	year, ok := requiredIntQuery(w, r, "year")
	if !ok {
		return
	}
	month, ok := requiredIntQuery(w, r, "month")
	if !ok {
		return
	}
	summary, err := s.summary.Account(r.Context(), owner, r.PathValue("id"), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountSummaryJSON(summary))
}

func (s *Server) handleUpcomingInstallments(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	months := s.upcomingMonths
	if override, err := intQuery(r, "months"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "query parameter months must be an integer"})
		return
	} else if override != nil {
		months = *override
	}
	projections, err := s.summary.UpcomingInstallments(r.Context(), owner, months)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]installmentProjectionJSON, 0, len(projections))
	for _, p := range projections {
		next := make([]scheduledPaymentJSON, 0, len(p.NextPayments))
		for _, sp := range p.NextPayments {
			next = append(next, scheduledPaymentJSON{Year: sp.Year, Month: sp.Month, Index: sp.Index})
		}
		out = append(out, installmentProjectionJSON{
			GroupID:        p.GroupID,
			Description:    p.Description,
			AccountName:    p.AccountName,
			AmountPerMonth: p.AmountPerMonth,
			Remaining:      p.Remaining,
			Total:          p.Total,
			NextPayments:   next,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
