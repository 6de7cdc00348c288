package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"mymoney/internal/backup"
	"mymoney/internal/core"
	"mymoney/internal/services"
	"mymoney/internal/storage"
)

func testHandler(t *testing.T) http.Handler {
	t.Helper()

	dir := t.TempDir()
	repo, err := storage.NewRepository(filepath.Join(dir, "mymoney.db"))
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	docsDir, err := backup.ResolveDocumentsDir(filepath.Join(dir, "documents"))
	if err != nil {
		t.Fatalf("ResolveDocumentsDir failed: %v", err)
	}

	codec := backup.New(backup.DiskStore{}, docsDir)
	codec.Now = func() time.Time {
		return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	}
	svc := services.NewFinanceService(repo, codec, nil, nil, docsDir)

	return NewServer(":0", svc).Handler
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	h := testHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	h := testHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/transactions", map[string]any{
		"amount": 42.5, "type": "expense", "category": "Food",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body)
	}

	var created core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created transaction: %v", err)
	}
	if created.ID == "" {
		t.Error("expected a minted ID")
	}

	rec = doJSON(t, h, http.MethodGet, "/api/transactions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listed []core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || listed[0].Amount != 42.5 {
		t.Errorf("listed = %+v", listed)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/transactions/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	h := testHandler(t)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"negative amount", map[string]any{"amount": -5, "type": "expense", "category": "Food"}, http.StatusUnprocessableEntity},
		{"unknown type", map[string]any{"amount": 5, "type": "transfer", "category": "Food"}, http.StatusUnprocessableEntity},
		{"missing category", map[string]any{"amount": 5, "type": "expense"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/api/transactions", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestCreateTransactionRejectsMalformedBody(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSavingsMovementsOverHTTP(t *testing.T) {
	h := testHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/savings", map[string]any{
		"name": "Vacation", "target": 1000, "current": 100,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body)
	}
	var goal core.Savings
	if err := json.Unmarshal(rec.Body.Bytes(), &goal); err != nil {
		t.Fatalf("decode goal: %v", err)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/savings/"+goal.ID+"/deposit", map[string]any{"amount": 50})
	if rec.Code != http.StatusCreated {
		t.Fatalf("deposit status = %d, body = %s", rec.Code, rec.Body)
	}
	var dep core.SavingsTransaction
	if err := json.Unmarshal(rec.Body.Bytes(), &dep); err != nil {
		t.Fatalf("decode deposit: %v", err)
	}
	if dep.NewBalance != 150 {
		t.Errorf("new balance = %v, want 150", dep.NewBalance)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/savings/"+goal.ID+"/withdraw", map[string]any{"amount": 500})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("overdraw status = %d, want 422", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/savings/missing/deposit", map[string]any{"amount": 10})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown goal status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/savings/"+goal.ID+"/history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	var history []core.SavingsTransaction
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("history = %+v, want initial + deposit", history)
	}
}

func TestBackupEndpoints(t *testing.T) {
	h := testHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/transactions", map[string]any{
		"amount": 900, "type": "income", "category": "Salary",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/backups", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("export status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/backups", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listing struct {
		Backups []string `json:"backups"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing.Backups) != 1 {
		t.Fatalf("backups = %v, want one", listing.Backups)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/backups/"+listing.Backups[0]+"/import", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d, body = %s", rec.Code, rec.Body)
	}
	var state core.AppState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.TotalIncome != 900 {
		t.Errorf("totalIncome = %v, want 900", state.TotalIncome)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/backups/missing.json/import", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing import status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/backups/"+listing.Backups[0], nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	rec = doJSON(t, h, http.MethodDelete, "/api/backups/"+listing.Backups[0], nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestRestoreEndpoint(t *testing.T) {
	h := testHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/backups/restore", map[string]any{
		"transactions": []map[string]any{
			{"id": "t1", "amount": -50, "type": "expense", "category": "Food"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("restore status = %d, body = %s", rec.Code, rec.Body)
	}
	var state core.AppState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if len(state.Transactions) != 1 || state.Transactions[0].Amount != 0 {
		t.Errorf("restored transactions = %+v, want clamped amount", state.Transactions)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/backups/restore", "not an object")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-object restore status = %d, want 400", rec.Code)
	}
}

func TestShareBackupWithoutSharer(t *testing.T) {
	h := testHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/backups", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("export status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/backups/mymoney_backup_2024-03-15_10-30-00.json/share", nil)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("share status = %d, want 502", rec.Code)
	}
}
