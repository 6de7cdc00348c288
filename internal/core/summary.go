package core

// Totals is the derived income/expense aggregate for a transaction set.
type Totals struct {
	TotalIncome  float64 `json:"totalIncome"`
	TotalExpense float64 `json:"totalExpense"`
	Balance      float64 `json:"balance"`
}

// ComputeTotals folds a transaction collection into its totals. Loaded or
// stored totals are never trusted; this is the single source of truth.
func ComputeTotals(transactions []Transaction) Totals {
	var t Totals
	for _, tx := range transactions {
		switch tx.Type {
		case Income:
			t.TotalIncome += tx.Amount
		case Expense:
			t.TotalExpense += tx.Amount
		}
	}
	t.Balance = t.TotalIncome - t.TotalExpense
	return t
}

// RecomputeTotals overwrites the state's derived totals from its own
// transaction collection.
func (s *AppState) RecomputeTotals() {
	t := ComputeTotals(s.Transactions)
	s.TotalIncome = t.TotalIncome
	s.TotalExpense = t.TotalExpense
	s.Balance = t.Balance
}

// Normalize replaces nil collections with empty ones so that serialized
// state always carries arrays, and recomputes totals.
func (s *AppState) Normalize() {
	if s.Transactions == nil {
		s.Transactions = []Transaction{}
	}
	if s.Budgets == nil {
		s.Budgets = []Budget{}
	}
	if s.Savings == nil {
		s.Savings = []Savings{}
	}
	if s.SavingsTransactions == nil {
		s.SavingsTransactions = []SavingsTransaction{}
	}
	if s.Notes == nil {
		s.Notes = []Note{}
	}
	s.RecomputeTotals()
}
