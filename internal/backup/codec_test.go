package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"mymoney/internal/core"
)

// memStore is an in-memory FileStore for tests.
type memStore struct {
	files    map[string]string
	writeErr error
	readErr  error
	listErr  error
	delErr   error
}

func newMemStore() *memStore {
	return &memStore{files: make(map[string]string)}
}

func (m *memStore) WriteText(path, content string) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.files[path] = content
	return nil
}

func (m *memStore) ReadText(path string) (string, error) {
	if m.readErr != nil {
		return "", m.readErr
	}
	content, ok := m.files[path]
	if !ok {
		return "", fmt.Errorf("no such file: %s", path)
	}
	return content, nil
}

func (m *memStore) ListDirectory(dir string) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var names []string
	for path := range m.files {
		if filepath.Dir(path) == dir {
			names = append(names, filepath.Base(path))
		}
	}
	return names, nil
}

func (m *memStore) DeleteFile(path string) error {
	if m.delErr != nil {
		return m.delErr
	}
	if _, ok := m.files[path]; !ok {
		return fmt.Errorf("no such file: %s", path)
	}
	delete(m.files, path)
	return nil
}

const docsDir = "/docs"

func fixedCodec(fs FileStore) *Codec {
	c := New(fs, docsDir)
	c.Now = func() time.Time {
		return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	}
	return c
}

func sampleState() core.AppState {
	return core.AppState{
		Transactions: []core.Transaction{
			{ID: "t1", Amount: 1000, Type: core.Income, Category: "Salary", Date: "2024-03-01", CreatedAt: "2024-03-01T09:00:00Z"},
			{ID: "t2", Amount: 50, Type: core.Expense, Category: "Food", Date: "2024-03-02", CreatedAt: "2024-03-02T12:00:00Z"},
			{ID: "t3", Amount: 20, Type: core.Expense, Category: "Transport", Date: "2024-03-03", CreatedAt: "2024-03-03T08:00:00Z"},
		},
		Savings: []core.Savings{
			{ID: "s1", Name: "Vacation", Target: 2000, Current: 300, Priority: "high", Category: "travel", CreatedAt: "2024-01-01T00:00:00Z"},
		},
		Notes: []core.Note{
			{ID: "n1", Title: "groceries", Type: core.NoteShopping, Tags: []string{"food"}, RelatedTransactionIDs: []string{"t2"}, RelatedSavingsIDs: []string{}, RelatedBudgetIDs: []string{}, Date: "2024-03-02", CreatedAt: "2024-03-02T12:00:00Z", UpdatedAt: "2024-03-02T12:00:00Z"},
			{ID: "n2", Title: "idea", Type: core.NoteIdea, Tags: []string{}, RelatedTransactionIDs: []string{}, RelatedSavingsIDs: []string{}, RelatedBudgetIDs: []string{}, Date: "2024-03-03", CreatedAt: "2024-03-03T12:00:00Z", UpdatedAt: "2024-03-03T12:00:00Z"},
		},
	}
}

func TestExportWritesEnvelope(t *testing.T) {
	fs := newMemStore()
	c := fixedCodec(fs)

	path, err := c.Export(sampleState())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	wantPath := filepath.Join(docsDir, "mymoney_backup_2024-03-15_10-30-00.json")
	if path != wantPath {
		t.Errorf("path = %q, want %q", path, wantPath)
	}

	raw, ok := fs.files[path]
	if !ok {
		t.Fatal("no file written")
	}
	if !strings.HasPrefix(raw, "{\n  \"metadata\"") {
		t.Error("document should be 2-space indented with metadata first")
	}

	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("written document is not valid JSON: %v", err)
	}
	if env.Metadata.AppName != "MyMoney" || env.Metadata.Version != "1.0.0" {
		t.Errorf("metadata = %+v", env.Metadata)
	}
	if env.Metadata.DataVersion != 5 {
		t.Errorf("dataVersion = %d, want 5", env.Metadata.DataVersion)
	}
	if env.Metadata.ExportDate != "2024-03-15T10:30:00Z" {
		t.Errorf("exportDate = %q", env.Metadata.ExportDate)
	}

	// 3 transactions, 0 budgets, 1 saving, 2 notes, 0 savings transactions.
	want := ItemCounts{Transactions: 3, Budgets: 0, Savings: 1, Notes: 2, SavingsTransactions: 0}
	if env.Metadata.ItemCounts != want {
		t.Errorf("itemCounts = %+v, want %+v", env.Metadata.ItemCounts, want)
	}
}

func TestExportFailures(t *testing.T) {
	t.Run("missing documents directory", func(t *testing.T) {
		c := New(newMemStore(), "")
		if _, err := c.Export(core.AppState{}); !errors.Is(err, ErrWrite) {
			t.Errorf("want ErrWrite, got %v", err)
		}
	})

	t.Run("write failure", func(t *testing.T) {
		fs := newMemStore()
		fs.writeErr = errors.New("disk full")
		c := fixedCodec(fs)
		if _, err := c.Export(core.AppState{}); !errors.Is(err, ErrWrite) {
			t.Errorf("want ErrWrite, got %v", err)
		}
	})
}

func TestExportImportRoundTrip(t *testing.T) {
	fs := newMemStore()
	c := fixedCodec(fs)
	original := sampleState()

	path, err := c.Export(original)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	restored, err := c.Import(path)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if !reflect.DeepEqual(restored.Transactions, original.Transactions) {
		t.Errorf("transactions differ:\n got %+v\nwant %+v", restored.Transactions, original.Transactions)
	}
	if !reflect.DeepEqual(restored.Savings, original.Savings) {
		t.Errorf("savings differ:\n got %+v\nwant %+v", restored.Savings, original.Savings)
	}
	if !reflect.DeepEqual(restored.Notes, original.Notes) {
		t.Errorf("notes differ:\n got %+v\nwant %+v", restored.Notes, original.Notes)
	}

	// Totals come from the fold over transactions, not from the file.
	if restored.TotalIncome != 1000 || restored.TotalExpense != 70 || restored.Balance != 930 {
		t.Errorf("totals = %v/%v/%v, want 1000/70/930",
			restored.TotalIncome, restored.TotalExpense, restored.Balance)
	}
}

func TestImportDiscardsStoredTotals(t *testing.T) {
	fs := newMemStore()
	c := fixedCodec(fs)

	doc := `{
  "metadata": {"appName": "MyMoney", "dataVersion": 5},
  "data": {
    "transactions": [{"id": "t1", "amount": 100, "type": "income", "category": "Salary"}],
    "totalIncome": 5555,
    "totalExpense": 4444,
    "balance": -1
  }
}`
	fs.files["/docs/b.json"] = doc

	state, err := c.Import("/docs/b.json")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if state.TotalIncome != 100 || state.TotalExpense != 0 || state.Balance != 100 {
		t.Errorf("totals = %v/%v/%v, want 100/0/100",
			state.TotalIncome, state.TotalExpense, state.Balance)
	}
}

func TestImportClampsNegativeAmounts(t *testing.T) {
	fs := newMemStore()
	c := fixedCodec(fs)
	fs.files["/docs/b.json"] = `{"metadata":{"appName":"MyMoney","dataVersion":5},"data":{"transactions":[{"id":"t1","amount":-50,"type":"expense","category":"Food"}]}}`

	state, err := c.Import("/docs/b.json")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(state.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(state.Transactions))
	}
	if state.Transactions[0].Amount != 0 {
		t.Errorf("amount = %v, want 0 (clamped)", state.Transactions[0].Amount)
	}
	if state.TotalExpense != 0 {
		t.Errorf("totalExpense = %v, want 0", state.TotalExpense)
	}
}

func TestImportDropsInvalidRecordsOnly(t *testing.T) {
	fs := newMemStore()
	c := fixedCodec(fs)
	fs.files["/docs/b.json"] = `{
  "metadata": {"appName": "MyMoney", "dataVersion": 5},
  "data": {"transactions": [
    {"id": "good", "amount": 10, "type": "expense", "category": "Food"},
    {"id": "bad", "amount": 10, "type": "foo", "category": "Food"}
  ]}
}`

	state, err := c.Import("/docs/b.json")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(state.Transactions) != 1 || state.Transactions[0].ID != "good" {
		t.Errorf("transactions = %+v, want only the valid record", state.Transactions)
	}
}

func TestImportTreatsNonArrayCollectionsAsEmpty(t *testing.T) {
	fs := newMemStore()
	c := fixedCodec(fs)
	fs.files["/docs/b.json"] = `{
  "metadata": {"appName": "MyMoney", "dataVersion": 3},
  "data": {"transactions": {"oops": true}, "budgets": 42, "notes": null}
}`

	state, err := c.Import("/docs/b.json")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(state.Transactions) != 0 || len(state.Budgets) != 0 || len(state.Notes) != 0 {
		t.Errorf("collections should be empty, got %+v", state)
	}
}

func TestImportStructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{"malformed json", `{not json`, ErrParse},
		{"missing metadata", `{"data":{}}`, ErrFormat},
		{"missing data", `{"metadata":{"appName":"MyMoney"}}`, ErrFormat},
		{"metadata not an object", `{"metadata":"x","data":{}}`, ErrFormat},
		{"foreign app", `{"metadata":{"appName":"OtherApp","dataVersion":5},"data":{}}`, ErrProvenance},
		{"missing appName", `{"metadata":{"dataVersion":5},"data":{}}`, ErrProvenance},
		{"version zero", `{"metadata":{"appName":"MyMoney","dataVersion":0},"data":{}}`, ErrVersion},
		{"version too new", `{"metadata":{"appName":"MyMoney","dataVersion":6},"data":{}}`, ErrVersion},
		{"version not a number", `{"metadata":{"appName":"MyMoney","dataVersion":"five"},"data":{}}`, ErrVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newMemStore()
			fs.files["/docs/b.json"] = tt.doc
			c := fixedCodec(fs)

			_, err := c.Import("/docs/b.json")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Import error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("unreadable file", func(t *testing.T) {
		c := fixedCodec(newMemStore())
		if _, err := c.Import("/docs/missing.json"); !errors.Is(err, ErrRead) {
			t.Errorf("want ErrRead, got %v", err)
		}
	})
}

func TestImportAcceptsOlderDataVersions(t *testing.T) {
	// Versions 1 through 5 are accepted as-is; absence defaults to 1.
	for _, meta := range []string{
		`{"appName":"MyMoney","dataVersion":1}`,
		`{"appName":"MyMoney","dataVersion":4}`,
		`{"appName":"MyMoney"}`,
	} {
		fs := newMemStore()
		fs.files["/docs/b.json"] = `{"metadata":` + meta + `,"data":{}}`
		c := fixedCodec(fs)

		if _, err := c.Import("/docs/b.json"); err != nil {
			t.Errorf("metadata %s: unexpected error %v", meta, err)
		}
	}
}

func TestValidateBackupData(t *testing.T) {
	c := fixedCodec(newMemStore())

	t.Run("non-object rejected", func(t *testing.T) {
		for _, raw := range []any{nil, "state", 3.0, []any{}} {
			if _, err := c.ValidateBackupData(raw); !errors.Is(err, ErrFormat) {
				t.Errorf("ValidateBackupData(%v): want ErrFormat, got %v", raw, err)
			}
		}
	})

	t.Run("sanitizes and recomputes", func(t *testing.T) {
		state, err := c.ValidateBackupData(map[string]any{
			"transactions": []any{
				map[string]any{"id": "t1", "amount": 30.0, "type": "income", "category": "x"},
				map[string]any{"amount": 99.0, "type": "income", "category": "x"},
			},
			"totalIncome": 12345.0,
		})
		if err != nil {
			t.Fatalf("ValidateBackupData failed: %v", err)
		}
		if len(state.Transactions) != 1 {
			t.Fatalf("got %d transactions, want 1", len(state.Transactions))
		}
		if state.TotalIncome != 30 {
			t.Errorf("totalIncome = %v, want 30", state.TotalIncome)
		}
	})
}

func TestListBackups(t *testing.T) {
	fs := newMemStore()
	fs.files[filepath.Join(docsDir, "mymoney_backup_2024-01-01_00-00-00.json")] = "{}"
	fs.files[filepath.Join(docsDir, "notes.txt")] = "x"
	fs.files[filepath.Join(docsDir, "mymoney_backup_2024-02-01_00-00-00.json")] = "{}"
	c := fixedCodec(fs)

	names, err := c.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}

	want := []string{
		"mymoney_backup_2024-02-01_00-00-00.json",
		"mymoney_backup_2024-01-01_00-00-00.json",
	}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
}

func TestListBackupsIncludesReports(t *testing.T) {
	fs := newMemStore()
	fs.files[filepath.Join(docsDir, "mymoney_report_2024-01-05_00-00-00.pdf")] = "x"
	fs.files[filepath.Join(docsDir, "mymoney_backup_2024-01-01_00-00-00.json")] = "{}"
	c := fixedCodec(fs)

	names, err := c.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("names = %v, want both prefixed files", names)
	}
}

func TestDeleteBackup(t *testing.T) {
	fs := newMemStore()
	path := filepath.Join(docsDir, "mymoney_backup_2024-01-01_00-00-00.json")
	fs.files[path] = "{}"
	c := fixedCodec(fs)

	if !c.DeleteBackup("mymoney_backup_2024-01-01_00-00-00.json") {
		t.Error("delete of existing file should succeed")
	}
	if c.DeleteBackup("mymoney_backup_2024-01-01_00-00-00.json") {
		t.Error("delete of missing file should report false, not panic")
	}
}

type fakeSharer struct {
	err      error
	path     string
	mimeType string
}

func (f *fakeSharer) Share(_ context.Context, path, mimeType string) error {
	f.path, f.mimeType = path, mimeType
	return f.err
}

func TestShare(t *testing.T) {
	c := fixedCodec(newMemStore())

	t.Run("passes path and mime type", func(t *testing.T) {
		sharer := &fakeSharer{}
		if err := c.Share(context.Background(), sharer, "/docs/b.json"); err != nil {
			t.Fatalf("Share failed: %v", err)
		}
		if sharer.path != "/docs/b.json" || sharer.mimeType != "application/json" {
			t.Errorf("shared %q as %q", sharer.path, sharer.mimeType)
		}
	})

	t.Run("failure wrapped as ErrShare", func(t *testing.T) {
		sharer := &fakeSharer{err: errors.New("no share sheet")}
		if err := c.Share(context.Background(), sharer, "/docs/b.json"); !errors.Is(err, ErrShare) {
			t.Errorf("want ErrShare, got %v", err)
		}
	})

	t.Run("nil sharer", func(t *testing.T) {
		if err := c.Share(context.Background(), nil, "/docs/b.json"); !errors.Is(err, ErrShare) {
			t.Errorf("want ErrShare, got %v", err)
		}
	})
}

func TestExportReportPDFDisabled(t *testing.T) {
	c := fixedCodec(newMemStore())
	if _, err := c.ExportReportPDF(core.AppState{}); !errors.Is(err, ErrPDFDisabled) {
		t.Errorf("want ErrPDFDisabled, got %v", err)
	}
}
