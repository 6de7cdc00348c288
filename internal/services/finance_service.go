// Package services orchestrates the domain operations behind the HTTP
// API: entity creation with minted IDs, savings movements with history,
// and backup export/restore wired to storage and the sync queue.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"mymoney/internal/amqp"
	"mymoney/internal/backup"
	"mymoney/internal/core"
	"mymoney/internal/storage"
)

const (
	dateLayout = "2006-01-02"
)

// FinanceService coordinates storage, the backup codec and the optional
// AMQP sync queue. IDs are minted here, at the user-action boundary; the
// validation path never synthesizes them.
type FinanceService struct {
	storage    *storage.Repository
	codec      *backup.Codec
	amqpClient *amqp.Client
	sharer     backup.Sharer
	docsDir    string
	now        func() time.Time
}

func NewFinanceService(repo *storage.Repository, codec *backup.Codec, amqpClient *amqp.Client, sharer backup.Sharer, docsDir string) *FinanceService {
	return &FinanceService{
		storage:    repo,
		codec:      codec,
		amqpClient: amqpClient,
		sharer:     sharer,
		docsDir:    docsDir,
		now:        time.Now,
	}
}

func (s *FinanceService) today() string {
	return s.now().Format(dateLayout)
}

func (s *FinanceService) instant() string {
	return s.now().Format(time.RFC3339)
}

// CreateTransaction validates user input strictly (errors, not clamping:
// silent normalization is reserved for backup restoration) and persists it.
func (s *FinanceService) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Date == "" {
		tx.Date = s.today()
	}
	if tx.CreatedAt == "" {
		tx.CreatedAt = s.instant()
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.storage.InsertTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	return tx, nil
}

func (s *FinanceService) Transactions(ctx context.Context) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx)
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, id string) error {
	return s.storage.DeleteTransaction(ctx, id)
}

func (s *FinanceService) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Period == "" {
		b.Period = core.Monthly
	}
	if b.StartDate == "" {
		b.StartDate = s.today()
	}
	if b.CreatedAt == "" {
		b.CreatedAt = s.instant()
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.storage.InsertBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	return b, nil
}

func (s *FinanceService) Budgets(ctx context.Context) ([]core.Budget, error) {
	return s.storage.ListBudgets(ctx)
}

func (s *FinanceService) DeleteBudget(ctx context.Context, id string) error {
	return s.storage.DeleteBudget(ctx, id)
}

// CreateSavings persists a new goal. A non-zero opening balance is
// recorded as an "initial" movement so the history starts consistent.
func (s *FinanceService) CreateSavings(ctx context.Context, goal core.Savings) (core.Savings, error) {
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	if goal.Priority == "" {
		goal.Priority = core.PriorityMedium
	}
	if goal.Category == "" {
		goal.Category = "general"
	}
	if goal.CreatedAt == "" {
		goal.CreatedAt = s.instant()
	}
	if err := goal.Validate(); err != nil {
		return core.Savings{}, err
	}
	if err := s.storage.InsertSavings(ctx, goal); err != nil {
		return core.Savings{}, fmt.Errorf("save savings goal: %w", err)
	}

	if goal.Current > 0 {
		initial := core.SavingsTransaction{
			ID:              uuid.NewString(),
			SavingsID:       goal.ID,
			Type:            core.Initial,
			Amount:          goal.Current,
			Date:            s.today(),
			Note:            "opening balance",
			PreviousBalance: 0,
			NewBalance:      goal.Current,
			CreatedAt:       s.instant(),
		}
		if err := s.storage.InsertSavingsTransaction(ctx, initial); err != nil {
			return core.Savings{}, fmt.Errorf("record opening balance: %w", err)
		}
	}
	return goal, nil
}

func (s *FinanceService) Savings(ctx context.Context) ([]core.Savings, error) {
	return s.storage.ListSavings(ctx)
}

func (s *FinanceService) DeleteSavings(ctx context.Context, id string) error {
	return s.storage.DeleteSavings(ctx, id)
}

// Deposit adds to a goal's balance and appends the movement to its
// history.
func (s *FinanceService) Deposit(ctx context.Context, savingsID string, amount float64, note string) (core.SavingsTransaction, error) {
	return s.move(ctx, savingsID, core.Deposit, amount, note)
}

// Withdraw removes from a goal's balance; the balance never goes
// negative.
func (s *FinanceService) Withdraw(ctx context.Context, savingsID string, amount float64, note string) (core.SavingsTransaction, error) {
	return s.move(ctx, savingsID, core.Withdrawal, amount, note)
}

func (s *FinanceService) move(ctx context.Context, savingsID string, kind core.SavingsTxType, amount float64, note string) (core.SavingsTransaction, error) {
	if amount <= 0 {
		return core.SavingsTransaction{}, core.ErrInvalidAmount
	}

	goal, err := s.storage.GetSavings(ctx, savingsID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.SavingsTransaction{}, core.ErrUnknownSavings
	}
	if err != nil {
		return core.SavingsTransaction{}, err
	}

	newBalance := goal.Current + amount
	if kind == core.Withdrawal {
		if amount > goal.Current {
			return core.SavingsTransaction{}, core.ErrInsufficientFunds
		}
		newBalance = goal.Current - amount
	}

	st := core.SavingsTransaction{
		ID:              uuid.NewString(),
		SavingsID:       savingsID,
		Type:            kind,
		Amount:          amount,
		Date:            s.today(),
		Note:            note,
		PreviousBalance: goal.Current,
		NewBalance:      newBalance,
		CreatedAt:       s.instant(),
	}
	if err := s.storage.InsertSavingsTransaction(ctx, st); err != nil {
		return core.SavingsTransaction{}, fmt.Errorf("record savings movement: %w", err)
	}
	if err := s.storage.UpdateSavingsCurrent(ctx, savingsID, newBalance); err != nil {
		return core.SavingsTransaction{}, fmt.Errorf("update savings balance: %w", err)
	}
	return st, nil
}

func (s *FinanceService) SavingsHistory(ctx context.Context, savingsID string) ([]core.SavingsTransaction, error) {
	return s.storage.ListSavingsTransactions(ctx, savingsID)
}

func (s *FinanceService) CreateNote(ctx context.Context, n core.Note) (core.Note, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Type == "" {
		n.Type = core.NotePersonal
	}
	if n.Date == "" {
		n.Date = s.today()
	}
	if n.CreatedAt == "" {
		n.CreatedAt = s.instant()
	}
	if n.UpdatedAt == "" {
		n.UpdatedAt = n.CreatedAt
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	if n.RelatedTransactionIDs == nil {
		n.RelatedTransactionIDs = []string{}
	}
	if n.RelatedSavingsIDs == nil {
		n.RelatedSavingsIDs = []string{}
	}
	if n.RelatedBudgetIDs == nil {
		n.RelatedBudgetIDs = []string{}
	}
	if err := n.Validate(); err != nil {
		return core.Note{}, err
	}
	if err := s.storage.InsertNote(ctx, n); err != nil {
		return core.Note{}, fmt.Errorf("save note: %w", err)
	}
	return n, nil
}

func (s *FinanceService) Notes(ctx context.Context) ([]core.Note, error) {
	return s.storage.ListNotes(ctx)
}

func (s *FinanceService) DeleteNote(ctx context.Context, id string) error {
	return s.storage.DeleteNote(ctx, id)
}

// Summary recomputes the derived totals from stored transactions.
func (s *FinanceService) Summary(ctx context.Context) (core.Totals, error) {
	transactions, err := s.storage.ListTransactions(ctx)
	if err != nil {
		return core.Totals{}, err
	}
	return core.ComputeTotals(transactions), nil
}

// ExportBackup writes the current state to a backup file, records it for
// the sync worker and publishes a backup-created event. Publish failures
// never fail the export; the file is already safe on disk.
func (s *FinanceService) ExportBackup(ctx context.Context) (string, error) {
	state, err := s.storage.LoadState(ctx)
	if err != nil {
		return "", fmt.Errorf("load state: %w", err)
	}

	path, err := s.codec.Export(state)
	if err != nil {
		return "", err
	}

	recordID, err := s.storage.RecordBackup(ctx, path, s.instant())
	if err != nil {
		slog.ErrorContext(ctx, "Failed to record backup for sync", "path", path, "error", err)
		return path, nil
	}

	if s.amqpClient == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping backup event")
		return path, nil
	}
	if err := s.amqpClient.PublishBackupCreated(ctx, recordID, path, s.now()); err != nil {
		slog.ErrorContext(ctx, "Failed to publish backup created event",
			"path", path, "error", err)
	}
	return path, nil
}

// ImportBackup restores state from a named backup file and replaces the
// stored collections atomically.
func (s *FinanceService) ImportBackup(ctx context.Context, name string) (core.AppState, error) {
	path := filepath.Join(s.docsDir, filepath.Base(name))
	state, err := s.codec.Import(path)
	if err != nil {
		return core.AppState{}, err
	}
	if err := s.storage.ReplaceState(ctx, state); err != nil {
		return core.AppState{}, fmt.Errorf("replace state: %w", err)
	}
	return state, nil
}

// RestoreRaw sanitizes already-decoded state (for example pasted JSON)
// and replaces the stored collections with it.
func (s *FinanceService) RestoreRaw(ctx context.Context, raw any) (core.AppState, error) {
	state, err := s.codec.ValidateBackupData(raw)
	if err != nil {
		return core.AppState{}, err
	}
	if err := s.storage.ReplaceState(ctx, state); err != nil {
		return core.AppState{}, fmt.Errorf("replace state: %w", err)
	}
	return state, nil
}

func (s *FinanceService) ListBackups() ([]string, error) {
	return s.codec.ListBackups()
}

func (s *FinanceService) DeleteBackup(name string) bool {
	return s.codec.DeleteBackup(name)
}

// ShareBackup hands a backup file to the platform share mechanism.
// Failure does not affect the file.
func (s *FinanceService) ShareBackup(ctx context.Context, name string) error {
	path := filepath.Join(s.docsDir, filepath.Base(name))
	return s.codec.Share(ctx, s.sharer, path)
}

// Close releases the service's resources.
func (s *FinanceService) Close() error {
	var err error
	if s.storage != nil {
		err = s.storage.Close()
	}
	if s.amqpClient != nil {
		if cerr := s.amqpClient.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
