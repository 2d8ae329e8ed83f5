// Package http is the JSON calling layer over the ledger services. It owns
// request parsing, owner scoping and error-to-status translation; all domain
// rules live in the services.
package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"banchee/internal/services"
)

type Server struct {
	http.Server
	accounts       *services.AccountService
	ledger         *services.LedgerService
	summary        *services.SummaryService
	upcomingMonths int
	limiter        *rateLimiter
}

// NewServer configures routes and returns a ready-to-run server. A
// rateLimitPerMinute of 0 disables rate limiting.
func NewServer(addr string, accounts *services.AccountService, ledger *services.LedgerService, summary *services.SummaryService, upcomingMonths, rateLimitPerMinute int) *Server {
	s := &Server{
		accounts:       accounts,
		ledger:         ledger,
		summary:        summary,
		upcomingMonths: upcomingMonths,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /accounts", s.handleListAccounts)
	mux.HandleFunc("POST /accounts", s.handleCreateAccount)
	mux.HandleFunc("POST /accounts/seed", s.handleSeedAccounts)
	mux.HandleFunc("POST /accounts/reorder", s.handleReorderAccounts)
	mux.HandleFunc("GET /accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("PATCH /accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("DELETE /accounts/{id}", s.handleDeleteAccount)
	mux.HandleFunc("GET /accounts/{id}/entries", s.handleListEntriesByAccount)

	mux.HandleFunc("GET /entries", s.handleListEntries)
	mux.HandleFunc("POST /entries", s.handleCreateEntry)
	mux.HandleFunc("POST /entries/installments", s.handleCreateInstallment)
	mux.HandleFunc("POST /entries/carry-over", s.handleCarryOver)
	mux.HandleFunc("POST /entries/partial-payment", s.handlePartialPayment)
	mux.HandleFunc("GET /entries/range", s.handleListEntriesByDateRange)
	mux.HandleFunc("GET /entries/{id}", s.handleGetEntry)
	mux.HandleFunc("PATCH /entries/{id}", s.handleUpdateEntry)
	mux.HandleFunc("DELETE /entries/{id}", s.handleDeleteEntry)
	mux.HandleFunc("DELETE /entries/groups/{groupId}", s.handleDeleteGroup)

	mux.HandleFunc("GET /summary/monthly", s.handleMonthlySummary)
	mux.HandleFunc("GET /summary/year", s.handleYearSummary)
	mux.HandleFunc("GET /summary/accounts", s.handleAllAccountsSummary)
	mux.HandleFunc("GET /summary/accounts/{id}", s.handleAccountSummary)
	mux.HandleFunc("GET /summary/installments", s.handleUpcomingInstallments)

	var handler http.Handler = mux
	if rateLimitPerMinute > 0 {
		s.limiter = newRateLimiter(rateLimitPerMinute)
		handler = s.limiter.middleware(handler)
	}

	s.Server = http.Server{
		Addr:           addr,
		Handler:        withRequestLogging(handler),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}
	if s.limiter != nil {
		s.RegisterOnShutdown(s.limiter.Stop)
	}
	return s
}

// withRequestLogging tags every request with a generated id, sets baseline
// security headers and logs completion with status and duration.
func withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()

		w.Header().Set("X-Request-ID", requestID)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		slog.InfoContext(r.Context(), "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
