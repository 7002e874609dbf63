package pagereader

import "errors"

var (
	// ErrConfiguration is returned by Open when the reader cannot be set up.
	ErrConfiguration = errors.New("invalid reader configuration")
	// ErrDataAccess wraps every failure of the store executor during a page fetch.
	// The executor's error is wrapped, not returned as is: match it with errors.Is
	// or errors.As.
	ErrDataAccess = errors.New("data access failure")
	// ErrMapping wraps row mapper and sort key extraction failures.
	ErrMapping = errors.New("row mapping failure")
	// ErrInvalidCheckpoint is returned by Open for a cursor that cannot be restored.
	ErrInvalidCheckpoint = errors.New("invalid checkpoint")
	// ErrJumpUnsupported is returned by JumpToItem: only forward resume via
	// cursor is possible, a page index means nothing across restarts.
	ErrJumpUnsupported = errors.New("jump to item is not supported by a keyset reader")
	ErrNotOpen         = errors.New("reader is not open")
	ErrClosed          = errors.New("reader is closed")
)
