package pagereader

import "context"

// Row is one raw result row keyed by column name.
type Row map[string]any

// Query is one page query as handed to the store.
type Query struct {
	// Page is the reader-wide page index, for logging and tracing only.
	Page int
	SQL  string
	Args []any
	// FetchSize is a driver hint passed through unchanged. Zero means unset.
	FetchSize int
	// MaxRows caps the number of rows materialized. Zero means no cap.
	MaxRows int
}

// Executor runs page queries against the backing store.
type Executor interface {
	Query(ctx context.Context, q Query) ([]Row, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, q Query) ([]Row, error)

// Query - implements Executor.
func (f ExecutorFunc) Query(ctx context.Context, q Query) ([]Row, error) {
	return f(ctx, q)
}
