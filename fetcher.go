package pagereader

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// pageFetcher runs one page query and maps its rows. It never touches the
// shared reader position: the caller commits the returned cursor.
type pageFetcher[T any] struct {
	name              string
	executor          Executor
	mapper            RowMapper[T]
	sortKeys          SortKeys
	firstPageSQL      string
	remainingPagesSQL string
	parameters        map[string]any
	pageSize          int
	fetchSize         int
	queryTimeout      time.Duration
	logger            zerolog.Logger
	metrics           *Metrics
}

// fetch reads the page after cursor. With an empty cursor it runs the first
// page query, whatever pageIndex is: a restored cursor must be honoured on the
// first fetch after a restart. The returned cursor is taken from the last row,
// or is cursor itself when the page is empty.
func (f *pageFetcher[T]) fetch(ctx context.Context, pageIndex int, cursor *Cursor) ([]T, *Cursor, error) {
	q := Query{
		Page:      pageIndex,
		SQL:       f.remainingPagesSQL,
		Args:      BuildParameters(f.parameters, cursor),
		FetchSize: f.fetchSize,
		MaxRows:   f.pageSize,
	}
	if cursor.IsEmpty() {
		q.SQL = f.firstPageSQL
	}

	f.logger.Debug().
		Int("page", pageIndex).
		Str("sql", q.SQL).
		Interface("params", q.Args).
		Msg("Reading page")

	if f.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := f.executor.Query(ctx, q)
	if err != nil {
		f.metrics.observeFetchError(f.name, "data_access")
		return nil, cursor, fmt.Errorf("%w: page %d: %w", ErrDataAccess, pageIndex, err)
	}

	items := make([]T, 0, len(rows))
	next := cursor
	for i, row := range rows {
		item, values, err := f.mapper(row, i)
		if err == nil && len(values) != len(f.sortKeys) {
			err = fmt.Errorf("expected %d sort key values, got %d", len(f.sortKeys), len(values))
		}
		if err != nil {
			f.metrics.observeFetchError(f.name, "mapping")
			return nil, cursor, fmt.Errorf("%w: page %d row %d: %w", ErrMapping, pageIndex, i, err)
		}

		if i == len(rows)-1 {
			// Arity was checked above, this cannot fail.
			next, _ = cursorFromValues(f.sortKeys, values)
		}

		items = append(items, item)
	}

	took := time.Since(start)
	f.metrics.observeFetch(f.name, took)
	f.logger.Info().
		Int("page", pageIndex).
		Int("rows", len(items)).
		Dur("duration", took).
		Msg("Page read")

	return items, next, nil
}
