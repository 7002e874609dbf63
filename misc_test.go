package pagereader

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newGORMMySQLMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return "", nil, nil, err
	}

	return "mysql", db, mock, nil
}

func newGORMPostgresMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return "", nil, nil, err
	}

	return "postgres", db, mock, nil
}

func newGORMSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "pagereader.db")), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// fakeStore serves one sorted column the way a keyset query would: the first
// page query (no cursor arguments) starts at the top, a remaining pages query
// starts strictly after the last argument.
type fakeStore struct {
	column  string
	values  []any
	greater func(a, b any) bool
	delay   time.Duration

	mu      sync.Mutex
	queries []Query
	calls   int
	fail    map[int]error // by call number, starting at 1

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newStringStore(values ...string) *fakeStore {
	return &fakeStore{
		column: "user_id",
		values: toAny(values),
		greater: func(a, b any) bool {
			return a.(string) > b.(string)
		},
	}
}

func newIntStore(n int) *fakeStore {
	values := make([]any, 0, n)
	for i := 1; i <= n; i++ {
		values = append(values, int64(i))
	}

	return &fakeStore{
		column: "id",
		values: values,
		greater: func(a, b any) bool {
			return a.(int64) > b.(int64)
		},
	}
}

func toAny[T any](values []T) []any {
	ret := make([]any, 0, len(values))
	for _, v := range values {
		ret = append(ret, v)
	}

	return ret
}

func (s *fakeStore) failOn(call int, err error) *fakeStore {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail == nil {
		s.fail = make(map[int]error)
	}
	s.fail[call] = err

	return s
}

// Query - implements Executor.
func (s *fakeStore) Query(ctx context.Context, q Query) ([]Row, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		seen := s.maxInFlight.Load()
		if n <= seen || s.maxInFlight.CompareAndSwap(seen, n) {
			break
		}
	}

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	s.queries = append(s.queries, q)
	if err, ok := s.fail[s.calls]; ok {
		return nil, err
	}

	start := 0
	if len(q.Args) > 0 && q.SQL == remainingSQL {
		last := q.Args[len(q.Args)-1]
		start = len(s.values)
		for i, v := range s.values {
			if s.greater(v, last) {
				start = i
				break
			}
		}
	}

	end := min(start+q.MaxRows, len(s.values))
	rows := make([]Row, 0, end-start)
	for _, v := range s.values[start:end] {
		rows = append(rows, Row{s.column: v})
	}

	return rows, nil
}

func (s *fakeStore) recorded() []Query {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.queries)
}

const (
	firstSQL     = "first"
	remainingSQL = "remaining"
)

// staticProvider hands out fixed query texts.
type staticProvider struct {
	keys SortKeys
	err  error
}

func (p staticProvider) SortKeys() SortKeys { return p.keys }

func (p staticProvider) FirstPageQuery(int) (string, error) { return firstSQL, p.err }

func (p staticProvider) RemainingPagesQuery(int) (string, error) { return remainingSQL, p.err }

func newStringReader(store *fakeStore, pageSize int) *Reader[string] {
	keys := MustSortKeys(SortKey{Column: store.column, Direction: DirectionASC})
	mapper := ColumnMapper(keys, func(row Row) (string, error) {
		v, ok := row[store.column].(string)
		if !ok {
			return "", fmt.Errorf("unexpected %T", row[store.column])
		}
		return v, nil
	})

	return NewReader(store, staticProvider{keys: keys}, mapper).
		WithPageSize(pageSize)
}

func newIntReader(store *fakeStore, pageSize int) *Reader[int64] {
	keys := MustSortKeys(SortKey{Column: store.column, Direction: DirectionASC})
	mapper := ColumnMapper(keys, func(row Row) (int64, error) {
		return row[store.column].(int64), nil
	})

	return NewReader(store, staticProvider{keys: keys}, mapper).
		WithPageSize(pageSize)
}

func readAll[T any](t *testing.T, w *Worker[T]) []T {
	t.Helper()

	var ret []T
	for {
		item, ok, err := w.Read(context.Background())
		require.NoError(t, err)
		if !ok {
			return ret
		}
		ret = append(ret, item)
	}
}

func readN[T any](t *testing.T, w *Worker[T], n int) []T {
	t.Helper()

	ret := make([]T, 0, n)
	for range n {
		item, ok, err := w.Read(context.Background())
		require.NoError(t, err)
		require.True(t, ok)
		ret = append(ret, item)
	}

	return ret
}

func cursorOf(column string, value any) string {
	return NewCursor(CursorElement{Column: column, Value: value}).String()
}
