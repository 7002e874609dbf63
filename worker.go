package pagereader

import (
	"context"

	"github.com/samber/lo"
)

// Worker is one consumer of a shared Reader. It owns the page it is draining
// and its offset into that page, so it must not be used by more than one
// goroutine at a time. Create one Worker per goroutine.
type Worker[T any] struct {
	reader *Reader[T]
	page   []T
	lease  *pageLease
	offset int
	read   int64
}

func (r *Reader[T]) NewWorker() *Worker[T] {
	return &Worker[T]{reader: r}
}

// Read returns the next item. ok is false at the end of the stream.
//
// When its page is exhausted the worker fetches the next page of the shared
// stream, blocking while another worker's fetch is in flight.
func (w *Worker[T]) Read(ctx context.Context) (item T, ok bool, err error) {
	if err = w.reader.checkOpen(); err != nil {
		return lo.Empty[T](), false, err
	}

	if w.offset >= len(w.page) {
		page, lease, err := w.reader.state.advance(ctx)
		if err != nil {
			return lo.Empty[T](), false, err
		}

		w.page, w.lease, w.offset = page, lease, 0
		if len(page) == 0 {
			return lo.Empty[T](), false, nil
		}
	}

	item = w.page[w.offset]
	w.offset++
	w.lease.unread.Add(-1)
	w.read++
	w.reader.read.Add(1)
	w.reader.metrics.observeRead(w.reader.name)

	return item, true, nil
}

// ReadCount returns the number of items this worker returned.
func (w *Worker[T]) ReadCount() int64 {
	return w.read
}
