package core

import (
	"errors"
	"strings"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Monthly BudgetPeriod = "monthly"
	Weekly  BudgetPeriod = "weekly"
	Yearly  BudgetPeriod = "yearly"
	Custom  BudgetPeriod = "custom"
)

const (
	Deposit    SavingsTxType = "deposit"
	Withdrawal SavingsTxType = "withdrawal"
	Initial    SavingsTxType = "initial"
	Adjustment SavingsTxType = "adjustment"
)

const (
	NotePersonal  NoteType = "personal"
	NoteFinancial NoteType = "financial"
	NoteReminder  NoteType = "reminder"
	NoteIdea      NoteType = "idea"
	NoteGoal      NoteType = "goal"
	NoteShopping  NoteType = "shopping"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type (
	TransactionType string
	BudgetPeriod    string
	SavingsTxType   string
	NoteType        string

	// Transaction is a single income or expense record.
	Transaction struct {
		ID          string          `json:"id"`
		Amount      float64         `json:"amount"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Date        string          `json:"date"`
		CreatedAt   string          `json:"createdAt"`
	}

	// Budget tracks spending against a limit for one category and period.
	Budget struct {
		ID            string       `json:"id"`
		Category      string       `json:"category"`
		Limit         float64      `json:"limit"`
		Spent         float64      `json:"spent"`
		Period        BudgetPeriod `json:"period"`
		StartDate     string       `json:"startDate"`
		EndDate       string       `json:"endDate"`
		LastResetDate string       `json:"lastResetDate,omitempty"`
		CreatedAt     string       `json:"createdAt"`
	}

	// Savings is a savings goal with a target amount and running balance.
	Savings struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		Target      float64 `json:"target"`
		Current     float64 `json:"current"`
		Deadline    string  `json:"deadline,omitempty"`
		Description string  `json:"description"`
		Category    string  `json:"category"`
		Priority    string  `json:"priority"`
		Icon        string  `json:"icon"`
		CreatedAt   string  `json:"createdAt"`
	}

	// SavingsTransaction is one movement in a savings goal's history.
	// PreviousBalance and NewBalance are stored as provided by the caller;
	// they are not re-derived from the parent Savings.
	SavingsTransaction struct {
		ID              string        `json:"id"`
		SavingsID       string        `json:"savingsId"`
		Type            SavingsTxType `json:"type"`
		Amount          float64       `json:"amount"`
		Date            string        `json:"date"`
		Note            string        `json:"note"`
		PreviousBalance float64       `json:"previousBalance"`
		NewBalance      float64       `json:"newBalance"`
		CreatedAt       string        `json:"createdAt"`
	}

	// Note is a free-form note, optionally linked to other records.
	// Related ID lists are not checked for referential integrity.
	Note struct {
		ID                    string   `json:"id"`
		Title                 string   `json:"title"`
		Content               string   `json:"content"`
		Type                  NoteType `json:"type"`
		Mood                  string   `json:"mood,omitempty"`
		FinancialImpact       string   `json:"financialImpact,omitempty"`
		Amount                float64  `json:"amount"`
		Category              string   `json:"category,omitempty"`
		Tags                  []string `json:"tags"`
		RelatedTransactionIDs []string `json:"relatedTransactionIds"`
		RelatedSavingsIDs     []string `json:"relatedSavingsIds"`
		RelatedBudgetIDs      []string `json:"relatedBudgetIds"`
		Date                  string   `json:"date"`
		CreatedAt             string   `json:"createdAt"`
		UpdatedAt             string   `json:"updatedAt"`
	}

	// AppState aggregates every collection plus derived totals. The totals
	// are never authoritative: RecomputeTotals overwrites them from the
	// transaction collection.
	AppState struct {
		Transactions        []Transaction        `json:"transactions"`
		Budgets             []Budget             `json:"budgets"`
		Savings             []Savings            `json:"savings"`
		SavingsTransactions []SavingsTransaction `json:"savingsTransactions"`
		Notes               []Note               `json:"notes"`
		TotalIncome         float64              `json:"totalIncome"`
		TotalExpense        float64              `json:"totalExpense"`
		Balance             float64              `json:"balance"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidType       = errors.New("invalid type")
	ErrEmptyCategory     = errors.New("empty category")
	ErrEmptyName         = errors.New("empty name")
	ErrEmptyTitle        = errors.New("empty title")
	ErrInvalidPeriod     = errors.New("invalid period")
	ErrUnknownSavings    = errors.New("unknown savings goal")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Clamp replaces a negative monetary value with zero. Negative amounts are
// normalized, never rejected.
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Valid reports whether t is one of the two transaction types.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Valid reports whether p is a recognized budget period.
func (p BudgetPeriod) Valid() bool {
	switch p {
	case Monthly, Weekly, Yearly, Custom:
		return true
	}
	return false
}

// Valid reports whether t is a recognized savings movement type.
func (t SavingsTxType) Valid() bool {
	switch t {
	case Deposit, Withdrawal, Initial, Adjustment:
		return true
	}
	return false
}

// Valid reports whether t is one of the six note categories.
func (t NoteType) Valid() bool {
	switch t {
	case NotePersonal, NoteFinancial, NoteReminder, NoteIdea, NoteGoal, NoteShopping:
		return true
	}
	return false
}

// Validate checks a transaction built from user input on the API path.
// Backup restoration uses the validate package instead, which drops bad
// records silently rather than returning errors.
func (t Transaction) Validate() error {
	if t.Amount < 0 {
		return ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.Limit < 0 || b.Spent < 0 {
		return ErrInvalidAmount
	}
	if !b.Period.Valid() {
		return ErrInvalidPeriod
	}
	return nil
}

func (s Savings) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if s.Target < 0 || s.Current < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (n Note) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return ErrEmptyTitle
	}
	if !n.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}
