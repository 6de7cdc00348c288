package backup

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"mymoney/internal/core"
)

// Import reads and restores a backup document. Structural checks run in
// order (read, parse, format, provenance, version) and any failure aborts
// the whole import with the matching sentinel error. Record validation
// never aborts: invalid records are dropped, non-array collections become
// empty, and totals are recomputed from the surviving transactions.
func (c *Codec) Import(path string) (core.AppState, error) {
	text, err := c.fs.ReadText(path)
	if err != nil {
		return core.AppState{}, fmt.Errorf("%w: %v", ErrRead, err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return core.AppState{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	metaRaw, hasMeta := doc["metadata"]
	dataRaw, hasData := doc["data"]
	if !hasMeta || !hasData {
		return core.AppState{}, ErrFormat
	}
	meta, ok := metaRaw.(map[string]any)
	if !ok {
		return core.AppState{}, ErrFormat
	}

	if name, _ := meta["appName"].(string); name != AppName {
		return core.AppState{}, fmt.Errorf("%w: appName %q", ErrProvenance, name)
	}

	version := float64(MinDataVersion)
	if raw, present := meta["dataVersion"]; present {
		v, isNum := raw.(float64)
		if !isNum {
			return core.AppState{}, fmt.Errorf("%w: dataVersion is not a number", ErrVersion)
		}
		version = v
	}
	if version < MinDataVersion || version > DataVersion {
		return core.AppState{}, fmt.Errorf("%w: %v (supported %d-%d)",
			ErrVersion, version, MinDataVersion, DataVersion)
	}

	state := c.sanitize(dataRaw)

	slog.Info("Backup imported",
		"path", path,
		"data_version", int(version),
		"transactions", len(state.Transactions),
		"budgets", len(state.Budgets),
		"savings", len(state.Savings),
		"savings_transactions", len(state.SavingsTransactions),
		"notes", len(state.Notes))

	return state, nil
}

// ValidateBackupData runs the same per-collection validation and total
// recomputation as Import, but on an already-decoded value (for example
// pasted JSON). It rejects only a non-object top level.
func (c *Codec) ValidateBackupData(raw any) (core.AppState, error) {
	if _, ok := raw.(map[string]any); !ok {
		return core.AppState{}, fmt.Errorf("%w: state is not an object", ErrFormat)
	}
	return c.sanitize(raw), nil
}

// sanitize maps every collection element through the matching validator,
// keeping only accepted records in their original order. A collection that
// is not an array at all is treated as empty rather than failing the
// import. Loaded totals are discarded and recomputed.
func (c *Codec) sanitize(raw any) core.AppState {
	obj, _ := raw.(map[string]any)

	state := core.AppState{
		Transactions:        keepValid(obj["transactions"], c.validator.Transaction),
		Budgets:             keepValid(obj["budgets"], c.validator.Budget),
		Savings:             keepValid(obj["savings"], c.validator.Savings),
		SavingsTransactions: keepValid(obj["savingsTransactions"], c.validator.SavingsTransaction),
		Notes:               keepValid(obj["notes"], c.validator.Note),
	}
	state.RecomputeTotals()
	return state
}

// keepValid filters one raw collection through a record validator,
// preserving order. Indexing a nil map above yields nil, which fails the
// array assertion here and produces an empty collection.
func keepValid[T any](raw any, valid func(any) (T, bool)) []T {
	out := []T{}
	items, ok := raw.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		if rec, accepted := valid(item); accepted {
			out = append(out, rec)
		}
	}
	return out
}
