package validate

import (
	"mymoney/internal/core"
)

// Transaction validates one transaction-shaped value. Required: id and
// category as text, amount as a number, type in {income, expense}. The
// amount is clamped to zero from below even when negative in the input.
func (v *Validator) Transaction(raw any) (tx core.Transaction, ok bool) {
	defer recovered("transaction", &ok)

	obj, isObj := asObject(raw)
	if !isObj {
		reject("transaction", "not an object")
		return core.Transaction{}, false
	}

	id, hasID := reqString(obj, "id")
	if !hasID {
		reject("transaction", "missing id")
		return core.Transaction{}, false
	}
	amount, hasAmount := reqNumber(obj, "amount")
	if !hasAmount {
		reject("transaction", "missing amount")
		return core.Transaction{}, false
	}
	typ := core.TransactionType(optString(obj, "type", ""))
	if !typ.Valid() {
		reject("transaction", "invalid type")
		return core.Transaction{}, false
	}
	category, hasCategory := reqString(obj, "category")
	if !hasCategory {
		reject("transaction", "missing category")
		return core.Transaction{}, false
	}

	return core.Transaction{
		ID:          id,
		Amount:      core.Clamp(amount),
		Type:        typ,
		Category:    category,
		Description: optString(obj, "description", ""),
		Date:        optString(obj, "date", v.today()),
		CreatedAt:   optString(obj, "createdAt", v.instant()),
	}, true
}

// Budget validates one budget-shaped value. Required: id and category as
// text, limit as a number. An unrecognized period falls back to monthly.
func (v *Validator) Budget(raw any) (b core.Budget, ok bool) {
	defer recovered("budget", &ok)

	obj, isObj := asObject(raw)
	if !isObj {
		reject("budget", "not an object")
		return core.Budget{}, false
	}

	id, hasID := reqString(obj, "id")
	if !hasID {
		reject("budget", "missing id")
		return core.Budget{}, false
	}
	category, hasCategory := reqString(obj, "category")
	if !hasCategory {
		reject("budget", "missing category")
		return core.Budget{}, false
	}
	limit, hasLimit := reqNumber(obj, "limit")
	if !hasLimit {
		reject("budget", "missing limit")
		return core.Budget{}, false
	}

	period := core.BudgetPeriod(optString(obj, "period", string(core.Monthly)))
	if !period.Valid() {
		period = core.Monthly
	}

	return core.Budget{
		ID:            id,
		Category:      category,
		Limit:         core.Clamp(limit),
		Spent:         core.Clamp(optNumber(obj, "spent", 0)),
		Period:        period,
		StartDate:     optString(obj, "startDate", v.today()),
		EndDate:       optString(obj, "endDate", ""),
		LastResetDate: optString(obj, "lastResetDate", ""),
		CreatedAt:     optString(obj, "createdAt", v.instant()),
	}, true
}

// Savings validates one savings-goal-shaped value. Required: id and name
// as text, target as a number. An unrecognized priority falls back to
// medium.
func (v *Validator) Savings(raw any) (s core.Savings, ok bool) {
	defer recovered("savings", &ok)

	obj, isObj := asObject(raw)
	if !isObj {
		reject("savings", "not an object")
		return core.Savings{}, false
	}

	id, hasID := reqString(obj, "id")
	if !hasID {
		reject("savings", "missing id")
		return core.Savings{}, false
	}
	name, hasName := reqString(obj, "name")
	if !hasName {
		reject("savings", "missing name")
		return core.Savings{}, false
	}
	target, hasTarget := reqNumber(obj, "target")
	if !hasTarget {
		reject("savings", "missing target")
		return core.Savings{}, false
	}

	priority := optString(obj, "priority", core.PriorityMedium)
	switch priority {
	case core.PriorityLow, core.PriorityMedium, core.PriorityHigh:
	default:
		priority = core.PriorityMedium
	}

	return core.Savings{
		ID:          id,
		Name:        name,
		Target:      core.Clamp(target),
		Current:     core.Clamp(optNumber(obj, "current", 0)),
		Deadline:    optString(obj, "deadline", ""),
		Description: optString(obj, "description", ""),
		Category:    optString(obj, "category", "general"),
		Priority:    priority,
		Icon:        optString(obj, "icon", ""),
		CreatedAt:   optString(obj, "createdAt", v.instant()),
	}, true
}

// SavingsTransaction validates one savings-history-shaped value. Required:
// id and savingsId as text, amount as a number, type in {deposit,
// withdrawal, initial, adjustment}. Balance fields are clamped but kept as
// provided; they are never checked against the parent goal.
func (v *Validator) SavingsTransaction(raw any) (st core.SavingsTransaction, ok bool) {
	defer recovered("savingsTransaction", &ok)

	obj, isObj := asObject(raw)
	if !isObj {
		reject("savingsTransaction", "not an object")
		return core.SavingsTransaction{}, false
	}

	id, hasID := reqString(obj, "id")
	if !hasID {
		reject("savingsTransaction", "missing id")
		return core.SavingsTransaction{}, false
	}
	savingsID, hasSavingsID := reqString(obj, "savingsId")
	if !hasSavingsID {
		reject("savingsTransaction", "missing savingsId")
		return core.SavingsTransaction{}, false
	}
	typ := core.SavingsTxType(optString(obj, "type", ""))
	if !typ.Valid() {
		reject("savingsTransaction", "invalid type")
		return core.SavingsTransaction{}, false
	}
	amount, hasAmount := reqNumber(obj, "amount")
	if !hasAmount {
		reject("savingsTransaction", "missing amount")
		return core.SavingsTransaction{}, false
	}

	return core.SavingsTransaction{
		ID:              id,
		SavingsID:       savingsID,
		Type:            typ,
		Amount:          core.Clamp(amount),
		Date:            optString(obj, "date", v.today()),
		Note:            optString(obj, "note", ""),
		PreviousBalance: core.Clamp(optNumber(obj, "previousBalance", 0)),
		NewBalance:      core.Clamp(optNumber(obj, "newBalance", 0)),
		CreatedAt:       optString(obj, "createdAt", v.instant()),
	}, true
}

// Note validates one note-shaped value. Required: id and title as text.
// An unrecognized note type falls back to personal; mood and
// financialImpact are optional and dropped to empty when out of set.
func (v *Validator) Note(raw any) (n core.Note, ok bool) {
	defer recovered("note", &ok)

	obj, isObj := asObject(raw)
	if !isObj {
		reject("note", "not an object")
		return core.Note{}, false
	}

	id, hasID := reqString(obj, "id")
	if !hasID {
		reject("note", "missing id")
		return core.Note{}, false
	}
	title, hasTitle := reqString(obj, "title")
	if !hasTitle {
		reject("note", "missing title")
		return core.Note{}, false
	}

	typ := core.NoteType(optString(obj, "type", string(core.NotePersonal)))
	if !typ.Valid() {
		typ = core.NotePersonal
	}

	mood := optString(obj, "mood", "")
	switch mood {
	case "", "happy", "neutral", "worried", "stressed", "excited":
	default:
		mood = ""
	}

	impact := optString(obj, "financialImpact", "")
	switch impact {
	case "", "positive", "negative", "neutral":
	default:
		impact = ""
	}

	now := v.instant()
	return core.Note{
		ID:                    id,
		Title:                 title,
		Content:               optString(obj, "content", ""),
		Type:                  typ,
		Mood:                  mood,
		FinancialImpact:       impact,
		Amount:                core.Clamp(optNumber(obj, "amount", 0)),
		Category:              optString(obj, "category", ""),
		Tags:                  optStringSlice(obj, "tags"),
		RelatedTransactionIDs: optStringSlice(obj, "relatedTransactionIds"),
		RelatedSavingsIDs:     optStringSlice(obj, "relatedSavingsIds"),
		RelatedBudgetIDs:      optStringSlice(obj, "relatedBudgetIds"),
		Date:                  optString(obj, "date", v.today()),
		CreatedAt:             optString(obj, "createdAt", now),
		UpdatedAt:             optString(obj, "updatedAt", now),
	}, true
}
