package pagereader

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultName is the reader name used to scope checkpoint keys when none is set.
	DefaultName     = "pagingReader"
	DefaultPageSize = 10
)

const (
	statusUnopened int32 = iota
	statusOpen
	statusClosed
)

// Reader streams the rows of a query page by page, ordered by the sort keys of
// its QueryProvider, and resumes after a checkpointed cursor on restart.
//
// One Reader is shared by any number of workers (see NewWorker). Page fetches
// are serialized by the reader: a worker that runs out of rows fetches the
// next global page under the reader lock and drains it alone.
//
// Configuration methods must be called before Open.
type Reader[T any] struct {
	name         string
	executor     Executor
	provider     QueryProvider
	mapper       RowMapper[T]
	pageSize     int
	fetchSize    int
	parameters   map[string]any
	saveState    bool
	queryTimeout time.Duration
	logger       zerolog.Logger
	metrics      *Metrics

	lifecycle sync.Mutex
	status    atomic.Int32
	state     sharedState[T]
	read      atomic.Int64
}

func NewReader[T any](executor Executor, provider QueryProvider, mapper RowMapper[T]) *Reader[T] {
	return &Reader[T]{
		name:      DefaultName,
		pageSize:  DefaultPageSize,
		executor:  executor,
		provider:  provider,
		mapper:    mapper,
		saveState: true,
		logger:    zerolog.Nop(),
	}
}

// WithName sets the name checkpoint keys are scoped by. Readers sharing an
// ExecutionContext need distinct names.
func (r *Reader[T]) WithName(name string) *Reader[T] {
	if r == nil {
		r = NewReader[T](nil, nil, nil)
	}

	r.name = name

	return r
}

// WithPageSize sets the number of rows per page, DefaultPageSize if unset.
func (r *Reader[T]) WithPageSize(pageSize int) *Reader[T] {
	if r == nil {
		r = NewReader[T](nil, nil, nil)
	}

	r.pageSize = pageSize

	return r
}

// WithFetchSize sets the driver fetch size hint passed with every query.
func (r *Reader[T]) WithFetchSize(fetchSize int) *Reader[T] {
	if r == nil {
		r = NewReader[T](nil, nil, nil)
	}

	r.fetchSize = fetchSize

	return r
}

// WithParameters sets the named filter parameters. They are bound in the
// order of their sorted names.
func (r *Reader[T]) WithParameters(parameters map[string]any) *Reader[T] {
	if r == nil {
		r = NewReader[T](nil, nil, nil)
	}

	r.parameters = maps.Clone(parameters)

	return r
}

// WithSaveState toggles checkpointing. Without it Update writes nothing and
// Open ignores any stored cursor.
func (r *Reader[T]) WithSaveState(saveState bool) *Reader[T] {
	if r == nil {
		r = NewReader[T](nil, nil, nil)
	}

	r.saveState = saveState

	return r
}

// WithQueryTimeout bounds every page query. A timeout fails the read with
// ErrDataAccess.
func (r *Reader[T]) WithQueryTimeout(timeout time.Duration) *Reader[T] {
	if r == nil {
		r = NewReader[T](nil, nil, nil)
	}

	r.queryTimeout = timeout

	return r
}

func (r *Reader[T]) WithLogger(logger zerolog.Logger) *Reader[T] {
	if r == nil {
		r = NewReader[T](nil, nil, nil)
	}

	r.logger = logger

	return r
}

func (r *Reader[T]) WithMetrics(metrics *Metrics) *Reader[T] {
	if r == nil {
		r = NewReader[T](nil, nil, nil)
	}

	r.metrics = metrics

	return r
}

// Name returns the reader name.
func (r *Reader[T]) Name() string {
	return r.name
}

// ReadCount returns the number of items handed out by all workers since Open.
func (r *Reader[T]) ReadCount() int64 {
	return r.read.Load()
}

// PageIndex returns the number of pages fetched since Open.
func (r *Reader[T]) PageIndex() int {
	return r.state.pageIndex()
}

// Open prepares the page queries and restores the cursor stored in ec, if
// any. After a restart the first fetch reads the rows strictly after the
// restored cursor.
func (r *Reader[T]) Open(ec ExecutionContext) error {
	if r == nil {
		return fmt.Errorf("%w: reader is nil", ErrConfiguration)
	}

	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	if r.status.Load() == statusOpen {
		return fmt.Errorf("reader '%s' is already open", r.name)
	}

	fetcher, err := r.newFetcher()
	if err != nil {
		return err
	}

	var current *Cursor
	if r.saveState {
		current, err = r.restore(ec, fetcher.sortKeys)
		if err != nil {
			return err
		}
	}

	r.state.reset(fetcher, current)
	r.read.Store(0)
	r.status.Store(statusOpen)

	fetcher.logger.Info().
		Bool("restart", !current.IsEmpty()).
		Int("page_size", r.pageSize).
		Msg("Reader opened")

	return nil
}

func (r *Reader[T]) newFetcher() (*pageFetcher[T], error) {
	switch {
	case r.executor == nil:
		return nil, fmt.Errorf("%w: executor is required", ErrConfiguration)
	case r.provider == nil:
		return nil, fmt.Errorf("%w: query provider is required", ErrConfiguration)
	case r.mapper == nil:
		return nil, fmt.Errorf("%w: row mapper is required", ErrConfiguration)
	case r.pageSize <= 0:
		return nil, fmt.Errorf("%w: page size must be positive, got %d", ErrConfiguration, r.pageSize)
	case r.name == "":
		return nil, fmt.Errorf("%w: reader name is required", ErrConfiguration)
	}

	sortKeys := r.provider.SortKeys()
	if err := sortKeys.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	firstPageSQL, err := r.provider.FirstPageQuery(r.pageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	remainingPagesSQL, err := r.provider.RemainingPagesQuery(r.pageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	return &pageFetcher[T]{
		name:              r.name,
		executor:          r.executor,
		mapper:            r.mapper,
		sortKeys:          sortKeys,
		firstPageSQL:      firstPageSQL,
		remainingPagesSQL: remainingPagesSQL,
		parameters:        r.parameters,
		pageSize:          r.pageSize,
		fetchSize:         r.fetchSize,
		queryTimeout:      r.queryTimeout,
		logger:            r.logger.With().Str("reader", r.name).Logger(),
		metrics:           r.metrics,
	}, nil
}

func (r *Reader[T]) restore(ec ExecutionContext, sortKeys SortKeys) (*Cursor, error) {
	raw := ec[Key(r.name, startAfterKey)]
	if raw == "" {
		return nil, nil
	}

	cursor, err := DecodeCursor(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCheckpoint, err)
	}

	if err = cursor.validate(sortKeys); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCheckpoint, err)
	}

	return cursor, nil
}

// Update stores the restart position in ec.
//
// On a page boundary (the read count is a multiple of the page size) the
// cursor after the last fetched page is stored. Otherwise the cursor before
// the page in progress is stored, so a restart re-reads that whole page
// rather than guessing how much of it was processed.
//
// With several workers, pages are drained out of order: while any fetched page
// still holds rows no worker has returned, the cursor before the oldest such
// page is stored. A restart then re-delivers the rows read since that page,
// and never skips one.
func (r *Reader[T]) Update(ec ExecutionContext) error {
	if err := r.checkOpen(); err != nil {
		return err
	}

	if !r.saveState {
		return nil
	}

	if ec == nil {
		return fmt.Errorf("cannot update nil execution context")
	}

	current, pending, oldest := r.state.checkpoint()
	atBoundary := r.read.Load()%int64(r.pageSize) == 0

	switch {
	case oldest != nil:
		if !oldest.start.IsEmpty() {
			ec[Key(r.name, startAfterKey)] = oldest.start.String()
			r.metrics.observeCheckpoint(r.name, "pending")
		}
	case atBoundary && !current.IsEmpty():
		ec[Key(r.name, startAfterKey)] = current.String()
		r.metrics.observeCheckpoint(r.name, "current")
	case !pending.IsEmpty():
		ec[Key(r.name, startAfterKey)] = pending.String()
		r.metrics.observeCheckpoint(r.name, "pending")
	}

	return nil
}

// JumpToItem always fails: a keyset reader only resumes after a cursor.
func (r *Reader[T]) JumpToItem(itemIndex int) error {
	return fmt.Errorf("%w: item %d", ErrJumpUnsupported, itemIndex)
}

// Close marks the reader closed. Workers fail with ErrClosed afterwards.
func (r *Reader[T]) Close() error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.status.Store(statusClosed)

	return nil
}

func (r *Reader[T]) checkOpen() error {
	switch r.status.Load() {
	case statusOpen:
		return nil
	case statusClosed:
		return ErrClosed
	default:
		return ErrNotOpen
	}
}

// Drain reads the stream to its end with the given number of workers, calling
// fn for every item. The first error stops all workers and is returned.
func (r *Reader[T]) Drain(ctx context.Context, workers int, fn func(ctx context.Context, item T) error) error {
	if workers <= 0 {
		return fmt.Errorf("%w: worker count must be positive, got %d", ErrConfiguration, workers)
	}

	g, gctx := errgroup.WithContext(ctx)
	for range workers {
		w := r.NewWorker()
		g.Go(func() error {
			for {
				if err := gctx.Err(); err != nil {
					return err
				}

				item, ok, err := w.Read(gctx)
				if err != nil || !ok {
					return err
				}

				if err = fn(gctx, item); err != nil {
					return err
				}
			}
		})
	}

	return g.Wait()
}
