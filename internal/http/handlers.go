package http

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"mymoney/internal/core"
)

func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) handleSummary(w http.ResponseWriter, r *http.Request) {
	totals, err := a.svc.Summary(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to compute summary", "error", err)
		writeError(w, http.StatusInternalServerError, "could not compute summary")
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (a *api) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := a.svc.Transactions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list transactions")
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (a *api) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in core.Transaction
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := a.svc.CreateTransaction(r.Context(), in)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	atomic.AddInt64(&a.metrics.totalTransactions, 1)
	slog.InfoContext(r.Context(), "Transaction created",
		"id", tx.ID,
		"type", tx.Type,
		"amount", tx.Amount,
		"category", tx.Category)
	writeJSON(w, http.StatusCreated, tx)
}

func (a *api) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := a.svc.Budgets(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list budgets", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list budgets")
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (a *api) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var in core.Budget
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b, err := a.svc.CreateBudget(r.Context(), in)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (a *api) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteBudget(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleListSavings(w http.ResponseWriter, r *http.Request) {
	savings, err := a.svc.Savings(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list savings", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list savings")
		return
	}
	writeJSON(w, http.StatusOK, savings)
}

func (a *api) handleCreateSavings(w http.ResponseWriter, r *http.Request) {
	var in core.Savings
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	goal, err := a.svc.CreateSavings(r.Context(), in)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

func (a *api) handleDeleteSavings(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteSavings(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type movementRequest struct {
	Amount float64 `json:"amount"`
	Note   string  `json:"note"`
}

func (a *api) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var in movementRequest
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st, err := a.svc.Deposit(r.Context(), r.PathValue("id"), in.Amount, in.Note)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (a *api) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var in movementRequest
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st, err := a.svc.Withdraw(r.Context(), r.PathValue("id"), in.Amount, in.Note)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (a *api) handleSavingsHistory(w http.ResponseWriter, r *http.Request) {
	history, err := a.svc.SavingsHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list savings history", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list savings history")
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (a *api) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := a.svc.Notes(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list notes", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list notes")
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (a *api) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var in core.Note
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n, err := a.svc.CreateNote(r.Context(), in)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (a *api) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteNote(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
