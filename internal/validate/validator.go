// Package validate sanitizes untrusted records before they enter the
// application state. Inputs come from decoded JSON and can be any shape;
// each entity validator either produces a normalized record or rejects it.
// Rejections are silent from the caller's point of view: one bad record
// never aborts validation of its siblings.
package validate

import (
	"log/slog"
	"time"
)

const dateLayout = "2006-01-02"

// Validator holds the injected clock used for default timestamps. Tests
// supply a fixed Now to get deterministic output.
type Validator struct {
	Now func() time.Time
}

// New returns a Validator backed by the wall clock.
func New() *Validator {
	return &Validator{Now: time.Now}
}

func (v *Validator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// today returns the default calendar date for records missing one.
func (v *Validator) today() string {
	return v.now().Format(dateLayout)
}

// instant returns the default creation timestamp for records missing one.
func (v *Validator) instant() string {
	return v.now().Format(time.RFC3339)
}

// reject logs a dropped record at debug level. No detail escapes to the
// caller; the record simply does not appear in the output.
func reject(kind, reason string) {
	slog.Debug("Dropping invalid record", "kind", kind, "reason", reason)
}

// recovered converts a panic during single-record validation into a
// rejection of that record only.
func recovered(kind string, ok *bool) {
	if r := recover(); r != nil {
		slog.Debug("Recovered panic during record validation", "kind", kind, "panic", r)
		*ok = false
	}
}

func asObject(raw any) (map[string]any, bool) {
	obj, ok := raw.(map[string]any)
	return obj, ok
}

// reqString returns the field as a string, or false if absent or not text.
func reqString(obj map[string]any, key string) (string, bool) {
	s, ok := obj[key].(string)
	return s, ok
}

// optString returns the field as a string, falling back to def when the
// field is absent or not text.
func optString(obj map[string]any, key, def string) string {
	if s, ok := obj[key].(string); ok {
		return s
	}
	return def
}

// reqNumber returns the field as a float64, or false if absent or not
// numeric. Decoded JSON numbers arrive as float64; integer Go values are
// accepted too so that hand-built maps behave the same way.
func reqNumber(obj map[string]any, key string) (float64, bool) {
	return asNumber(obj[key])
}

// optNumber returns the field as a float64, falling back to def.
func optNumber(obj map[string]any, key string, def float64) float64 {
	if n, ok := asNumber(obj[key]); ok {
		return n
	}
	return def
}

func asNumber(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// optStringSlice returns the field as a list of strings. A missing or
// mis-shaped field yields an empty list rather than rejecting the record;
// non-string elements are skipped.
func optStringSlice(obj map[string]any, key string) []string {
	out := []string{}
	items, ok := obj[key].([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
