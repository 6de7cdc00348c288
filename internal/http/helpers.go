package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"mymoney/internal/backup"
	"mymoney/internal/core"
	"mymoney/internal/storage"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// maxBodySize bounds request bodies; backup restores carry full state, so
// the limit is generous.
const maxBodySize = 8 << 20 // 8MB

func withRequestID(r *http.Request, id string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), requestIDKey, id))
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func logRequest(r *http.Request, status int, elapsed time.Duration) {
	slog.InfoContext(r.Context(), "Request handled",
		"request_id", requestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"duration_ms", elapsed.Milliseconds())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// readJSON decodes a bounded request body into dst.
func readJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// errorStatus maps domain and backup errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, core.ErrUnknownSavings),
		errors.Is(err, backup.ErrRead):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrInvalidPeriod),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyTitle),
		errors.Is(err, core.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, backup.ErrParse),
		errors.Is(err, backup.ErrFormat),
		errors.Is(err, backup.ErrProvenance),
		errors.Is(err, backup.ErrVersion):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
