// Package storage persists the MyMoney collections in a local SQLite
// database. Derived totals are never stored; LoadState recomputes them on
// every read.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"mymoney/internal/core"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("record not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// execer lets the insert helpers run against either the pool or an open
// transaction (ReplaceState).
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTransaction(ctx context.Context, e execer, tx core.Transaction) error {
	_, err := e.ExecContext(ctx,
		`INSERT INTO transactions (id, amount, type, category, description, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.Amount, string(tx.Type), tx.Category, tx.Description, tx.Date, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *Repository) InsertTransaction(ctx context.Context, tx core.Transaction) error {
	return insertTransaction(ctx, r.db, tx)
}

func (r *Repository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount, type, category, description, date, created_at
		 FROM transactions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var tx core.Transaction
		if err := rows.Scan(&tx.ID, &tx.Amount, &tx.Type, &tx.Category,
			&tx.Description, &tx.Date, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "transactions", id)
}

func insertBudget(ctx context.Context, e execer, b core.Budget) error {
	_, err := e.ExecContext(ctx,
		`INSERT INTO budgets (id, category, limit_amount, spent, period, start_date, end_date, last_reset_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Category, b.Limit, b.Spent, string(b.Period),
		b.StartDate, b.EndDate, b.LastResetDate, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (r *Repository) InsertBudget(ctx context.Context, b core.Budget) error {
	return insertBudget(ctx, r.db, b)
}

func (r *Repository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category, limit_amount, spent, period, start_date, end_date, last_reset_date, created_at
		 FROM budgets ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	out := []core.Budget{}
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.Category, &b.Limit, &b.Spent, &b.Period,
			&b.StartDate, &b.EndDate, &b.LastResetDate, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteBudget(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "budgets", id)
}

func insertSavings(ctx context.Context, e execer, s core.Savings) error {
	_, err := e.ExecContext(ctx,
		`INSERT INTO savings (id, name, target, current, deadline, description, category, priority, icon, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.Target, s.Current, s.Deadline,
		s.Description, s.Category, s.Priority, s.Icon, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert savings: %w", err)
	}
	return nil
}

func (r *Repository) InsertSavings(ctx context.Context, s core.Savings) error {
	return insertSavings(ctx, r.db, s)
}

func (r *Repository) GetSavings(ctx context.Context, id string) (core.Savings, error) {
	var s core.Savings
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, target, current, deadline, description, category, priority, icon, created_at
		 FROM savings WHERE id = ?`, id).
		Scan(&s.ID, &s.Name, &s.Target, &s.Current, &s.Deadline,
			&s.Description, &s.Category, &s.Priority, &s.Icon, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Savings{}, ErrNotFound
	}
	if err != nil {
		return core.Savings{}, fmt.Errorf("get savings: %w", err)
	}
	return s, nil
}

func (r *Repository) ListSavings(ctx context.Context) ([]core.Savings, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, target, current, deadline, description, category, priority, icon, created_at
		 FROM savings ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list savings: %w", err)
	}
	defer rows.Close()

	out := []core.Savings{}
	for rows.Next() {
		var s core.Savings
		if err := rows.Scan(&s.ID, &s.Name, &s.Target, &s.Current, &s.Deadline,
			&s.Description, &s.Category, &s.Priority, &s.Icon, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan savings: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateSavingsCurrent(ctx context.Context, id string, current float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE savings SET current = ? WHERE id = ?`, current, id)
	if err != nil {
		return fmt.Errorf("update savings balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteSavings(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "savings", id)
}

func insertSavingsTransaction(ctx context.Context, e execer, st core.SavingsTransaction) error {
	_, err := e.ExecContext(ctx,
		`INSERT INTO savings_transactions (id, savings_id, type, amount, date, note, previous_balance, new_balance, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.SavingsID, string(st.Type), st.Amount, st.Date,
		st.Note, st.PreviousBalance, st.NewBalance, st.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert savings transaction: %w", err)
	}
	return nil
}

func (r *Repository) InsertSavingsTransaction(ctx context.Context, st core.SavingsTransaction) error {
	return insertSavingsTransaction(ctx, r.db, st)
}

// ListSavingsTransactions returns the movement history, optionally limited
// to one savings goal when savingsID is non-empty.
func (r *Repository) ListSavingsTransactions(ctx context.Context, savingsID string) ([]core.SavingsTransaction, error) {
	query := `SELECT id, savings_id, type, amount, date, note, previous_balance, new_balance, created_at
		 FROM savings_transactions`
	args := []any{}
	if savingsID != "" {
		query += ` WHERE savings_id = ?`
		args = append(args, savingsID)
	}
	query += ` ORDER BY rowid`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list savings transactions: %w", err)
	}
	defer rows.Close()

	out := []core.SavingsTransaction{}
	for rows.Next() {
		var st core.SavingsTransaction
		if err := rows.Scan(&st.ID, &st.SavingsID, &st.Type, &st.Amount, &st.Date,
			&st.Note, &st.PreviousBalance, &st.NewBalance, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan savings transaction: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func insertNote(ctx context.Context, e execer, n core.Note) error {
	tags, err := marshalList(n.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	relTx, _ := marshalList(n.RelatedTransactionIDs)
	relSav, _ := marshalList(n.RelatedSavingsIDs)
	relBud, _ := marshalList(n.RelatedBudgetIDs)

	_, err = e.ExecContext(ctx,
		`INSERT INTO notes (id, title, content, type, mood, financial_impact, amount, category,
		                    tags, related_transaction_ids, related_savings_ids, related_budget_ids,
		                    date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Title, n.Content, string(n.Type), n.Mood, n.FinancialImpact, n.Amount, n.Category,
		tags, relTx, relSav, relBud, n.Date, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (r *Repository) InsertNote(ctx context.Context, n core.Note) error {
	return insertNote(ctx, r.db, n)
}

func (r *Repository) ListNotes(ctx context.Context) ([]core.Note, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, content, type, mood, financial_impact, amount, category,
		        tags, related_transaction_ids, related_savings_ids, related_budget_ids,
		        date, created_at, updated_at
		 FROM notes ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	out := []core.Note{}
	for rows.Next() {
		var n core.Note
		var tags, relTx, relSav, relBud string
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.Type, &n.Mood,
			&n.FinancialImpact, &n.Amount, &n.Category,
			&tags, &relTx, &relSav, &relBud,
			&n.Date, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		n.Tags = unmarshalList(tags)
		n.RelatedTransactionIDs = unmarshalList(relTx)
		n.RelatedSavingsIDs = unmarshalList(relSav)
		n.RelatedBudgetIDs = unmarshalList(relBud)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteNote(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "notes", id)
}

// LoadState assembles the full application state. Totals are recomputed
// from the transaction collection; nothing derived is read back.
func (r *Repository) LoadState(ctx context.Context) (core.AppState, error) {
	var state core.AppState
	var err error

	if state.Transactions, err = r.ListTransactions(ctx); err != nil {
		return core.AppState{}, err
	}
	if state.Budgets, err = r.ListBudgets(ctx); err != nil {
		return core.AppState{}, err
	}
	if state.Savings, err = r.ListSavings(ctx); err != nil {
		return core.AppState{}, err
	}
	if state.SavingsTransactions, err = r.ListSavingsTransactions(ctx, ""); err != nil {
		return core.AppState{}, err
	}
	if state.Notes, err = r.ListNotes(ctx); err != nil {
		return core.AppState{}, err
	}

	state.RecomputeTotals()
	return state, nil
}

// ReplaceState wipes every collection and loads the given state in a
// single transaction. Used by backup restore; either the whole restore
// lands or none of it does.
func (r *Repository) ReplaceState(ctx context.Context, state core.AppState) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace state: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"transactions", "budgets", "savings", "savings_transactions", "notes"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, t := range state.Transactions {
		if err := insertTransaction(ctx, tx, t); err != nil {
			return err
		}
	}
	for _, b := range state.Budgets {
		if err := insertBudget(ctx, tx, b); err != nil {
			return err
		}
	}
	for _, s := range state.Savings {
		if err := insertSavings(ctx, tx, s); err != nil {
			return err
		}
	}
	for _, st := range state.SavingsTransactions {
		if err := insertSavingsTransaction(ctx, tx, st); err != nil {
			return err
		}
	}
	for _, n := range state.Notes {
		if err := insertNote(ctx, tx, n); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace state: %w", err)
	}
	return nil
}

// BackupRecord tracks an exported backup file and whether the sync worker
// has uploaded it yet.
type BackupRecord struct {
	ID        int64
	Path      string
	CreatedAt string
	Synced    bool
}

func (r *Repository) RecordBackup(ctx context.Context, path, createdAt string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO backups (path, created_at, synced) VALUES (?, ?, 0)`, path, createdAt)
	if err != nil {
		return 0, fmt.Errorf("record backup: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record backup id: %w", err)
	}
	return id, nil
}

func (r *Repository) ListUnsyncedBackups(ctx context.Context, limit int) ([]BackupRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, path, created_at, synced FROM backups WHERE synced = 0 ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unsynced backups: %w", err)
	}
	defer rows.Close()

	out := []BackupRecord{}
	for rows.Next() {
		var b BackupRecord
		if err := rows.Scan(&b.ID, &b.Path, &b.CreatedAt, &b.Synced); err != nil {
			return nil, fmt.Errorf("scan backup record: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) MarkBackupSynced(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE backups SET synced = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark backup synced: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) deleteByID(ctx context.Context, table, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalList(raw string) []string {
	out := []string{}
	if raw == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return []string{}
	}
	return out
}
