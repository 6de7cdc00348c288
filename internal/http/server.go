// Package http exposes the MyMoney JSON API consumed by the mobile and
// web frontends.
package http

import (
	"net/http"
	"sync/atomic"
	"time"

	"mymoney/internal/middleware"
	"mymoney/internal/services"
)

// rateLimitPerMinute bounds requests per client; the frontends poll at
// most a few times a second.
const rateLimitPerMinute = 300

type appMetrics struct {
	totalRequests     int64
	totalTransactions int64
	totalBackups      int64
}

type api struct {
	svc     *services.FinanceService
	metrics *appMetrics
}

// NewServer builds the API server; timeouts are applied by the caller.
func NewServer(addr string, svc *services.FinanceService) *http.Server {
	a := &api{svc: svc, metrics: &appMetrics{}}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", a.handleHealth)
	mux.HandleFunc("GET /api/summary", a.handleSummary)

	mux.HandleFunc("GET /api/transactions", a.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", a.handleCreateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", a.handleDeleteTransaction)

	mux.HandleFunc("GET /api/budgets", a.handleListBudgets)
	mux.HandleFunc("POST /api/budgets", a.handleCreateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", a.handleDeleteBudget)

	mux.HandleFunc("GET /api/savings", a.handleListSavings)
	mux.HandleFunc("POST /api/savings", a.handleCreateSavings)
	mux.HandleFunc("DELETE /api/savings/{id}", a.handleDeleteSavings)
	mux.HandleFunc("POST /api/savings/{id}/deposit", a.handleDeposit)
	mux.HandleFunc("POST /api/savings/{id}/withdraw", a.handleWithdraw)
	mux.HandleFunc("GET /api/savings/{id}/history", a.handleSavingsHistory)

	mux.HandleFunc("GET /api/notes", a.handleListNotes)
	mux.HandleFunc("POST /api/notes", a.handleCreateNote)
	mux.HandleFunc("DELETE /api/notes/{id}", a.handleDeleteNote)

	mux.HandleFunc("GET /api/backups", a.handleListBackups)
	mux.HandleFunc("POST /api/backups", a.handleExportBackup)
	mux.HandleFunc("POST /api/backups/restore", a.handleRestore)
	mux.HandleFunc("POST /api/backups/{name}/import", a.handleImportBackup)
	mux.HandleFunc("POST /api/backups/{name}/share", a.handleShareBackup)
	mux.HandleFunc("DELETE /api/backups/{name}", a.handleDeleteBackup)

	limiter := middleware.NewLimiter(rateLimitPerMinute)
	handler := middleware.SecurityHeaders(limiter.Middleware(a.withRequestLog(mux)))

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}
	srv.RegisterOnShutdown(limiter.Stop)
	return srv
}

// withRequestLog tags each request with an ID and logs method, path,
// status and duration.
func (a *api) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		atomic.AddInt64(&a.metrics.totalRequests, 1)

		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		r = withRequestID(r, generateRequestID())
		next.ServeHTTP(rw, r)

		logRequest(r, rw.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
