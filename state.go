package pagereader

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
)

// pageLease tracks a fetched page until a worker has returned all of its rows.
type pageLease struct {
	start  *Cursor
	unread atomic.Int64
}

// sharedState is the reader-wide position: the page index and the cursor pair.
// The fields only change together, inside advance, while mu is held.
//
//   - current is the cursor after the last fetched page;
//   - pending is the cursor the last fetched page was read after, i.e. the
//     start of the page workers are still draining;
//   - leases are the fetched pages that still hold unread rows, oldest first.
type sharedState[T any] struct {
	mu      sync.Mutex
	fetcher *pageFetcher[T]
	page    int
	current *Cursor
	pending *Cursor
	drained bool
	leases  []*pageLease
}

func (s *sharedState[T]) reset(fetcher *pageFetcher[T], current *Cursor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetcher = fetcher
	s.page = 0
	s.current = current
	s.pending = nil
	s.drained = false
	s.leases = nil
}

// advance fetches the next page and commits the new position. The store round
// trip happens under the lock, so at most one fetch runs at a time and no page
// is fetched twice. A failed fetch commits nothing: the next caller retries
// the same page. An empty page marks the stream drained.
//
// A non-empty page comes with a lease: the caller releases one row of it per
// item handed out.
func (s *sharedState[T]) advance(ctx context.Context) ([]T, *pageLease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drained {
		return nil, nil, nil
	}

	items, next, err := s.fetcher.fetch(ctx, s.page, s.current)
	if err != nil {
		return nil, nil, err
	}

	var lease *pageLease
	if len(items) > 0 {
		lease = &pageLease{start: s.current}
		lease.unread.Store(int64(len(items)))
		s.leases = append(s.pruneLeases(), lease)
	}

	s.pending = s.current
	s.current = next
	s.page++
	s.drained = len(items) == 0

	return items, lease, nil
}

// pruneLeases drops fully read pages, keeping fetch order. Must be called
// with mu held.
func (s *sharedState[T]) pruneLeases() []*pageLease {
	s.leases = slices.DeleteFunc(s.leases, func(l *pageLease) bool {
		return l.unread.Load() <= 0
	})

	return s.leases
}

// checkpoint returns the cursor pair and the oldest fetched page that still
// holds unread rows, nil when every fetched row was handed out.
func (s *sharedState[T]) checkpoint() (current, pending *Cursor, oldest *pageLease) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if leases := s.pruneLeases(); len(leases) > 0 {
		oldest = leases[0]
	}

	return s.current, s.pending, oldest
}

func (s *sharedState[T]) pageIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.page
}
