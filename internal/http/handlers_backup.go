package http

import (
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"mymoney/internal/backup"
)

func (a *api) handleListBackups(w http.ResponseWriter, r *http.Request) {
	names, err := a.svc.ListBackups()
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list backups", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list backups")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"backups": names})
}

func (a *api) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	path, err := a.svc.ExportBackup(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to export backup", "error", err)
		writeError(w, errorStatus(err), err.Error())
		return
	}

	atomic.AddInt64(&a.metrics.totalBackups, 1)
	slog.InfoContext(r.Context(), "Backup exported", "path", path)
	writeJSON(w, http.StatusCreated, map[string]string{"path": path})
}

func (a *api) handleRestore(w http.ResponseWriter, r *http.Request) {
	var raw any
	if err := readJSON(r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := a.svc.RestoreRaw(r.Context(), raw)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	slog.InfoContext(r.Context(), "State restored from raw payload",
		"transactions", len(state.Transactions),
		"budgets", len(state.Budgets),
		"savings", len(state.Savings),
		"notes", len(state.Notes))
	writeJSON(w, http.StatusOK, state)
}

func (a *api) handleImportBackup(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	state, err := a.svc.ImportBackup(r.Context(), name)
	if err != nil {
		slog.WarnContext(r.Context(), "Backup import failed", "name", name, "error", err)
		writeError(w, errorStatus(err), err.Error())
		return
	}

	slog.InfoContext(r.Context(), "Backup imported", "name", name,
		"transactions", len(state.Transactions))
	writeJSON(w, http.StatusOK, state)
}

func (a *api) handleShareBackup(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := a.svc.ShareBackup(r.Context(), name); err != nil {
		if errors.Is(err, backup.ErrShare) {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "shared"})
}

func (a *api) handleDeleteBackup(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if !a.svc.DeleteBackup(name) {
		writeError(w, http.StatusNotFound, "backup not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
