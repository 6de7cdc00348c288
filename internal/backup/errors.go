package backup

import "errors"

// Structural import failures abort the whole operation and surface to the
// caller. Per-record failures never do; those are handled silently inside
// the validate package.
var (
	ErrRead        = errors.New("backup file could not be read")
	ErrParse       = errors.New("backup file is not valid JSON")
	ErrFormat      = errors.New("backup file is missing metadata or data")
	ErrProvenance  = errors.New("backup was not produced by MyMoney")
	ErrVersion     = errors.New("backup data version is not supported")
	ErrWrite       = errors.New("backup could not be written")
	ErrShare       = errors.New("backup could not be shared")
	ErrPDFDisabled = errors.New("pdf report export is disabled")
)
