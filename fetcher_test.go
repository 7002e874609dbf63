package pagereader

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(store *fakeStore, pageSize int, logger zerolog.Logger) *pageFetcher[string] {
	keys := MustSortKeys(SortKey{Column: store.column, Direction: DirectionASC})

	return &pageFetcher[string]{
		name:     "test",
		executor: store,
		mapper: ColumnMapper(keys, func(row Row) (string, error) {
			return row[store.column].(string), nil
		}),
		sortKeys:          keys,
		firstPageSQL:      firstSQL,
		remainingPagesSQL: remainingSQL,
		parameters:        map[string]any{"tenant": "t1"},
		pageSize:          pageSize,
		logger:            logger,
	}
}

func Test_pageFetcher_fetch(t *testing.T) {
	store := newStringStore("1", "2", "3")
	fetcher := newTestFetcher(store, 2, zerolog.Nop())

	items, next, err := fetcher.fetch(context.Background(), 0, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, items)
	require.Equal(t, cursorOf("user_id", "2"), next.String())

	items, next, err = fetcher.fetch(context.Background(), 1, next)
	require.NoError(t, err)
	require.Equal(t, []string{"3"}, items)
	require.Equal(t, cursorOf("user_id", "3"), next.String())

	// An empty page keeps the cursor it was read after.
	items, after, err := fetcher.fetch(context.Background(), 2, next)
	require.NoError(t, err)
	require.Empty(t, items)
	require.Same(t, next, after)

	queries := store.recorded()
	require.Equal(t, []any{"t1"}, queries[0].Args)
	require.Equal(t, []any{"t1", "2"}, queries[1].Args)
	require.Equal(t, []any{"t1", "3"}, queries[2].Args)
}

func Test_pageFetcher_fetch_EmptyCursorUsesFirstPageQuery(t *testing.T) {
	store := newStringStore("1", "2", "3")
	fetcher := newTestFetcher(store, 2, zerolog.Nop())

	// The page index does not matter: an empty cursor reads from the top.
	_, _, err := fetcher.fetch(context.Background(), 5, NewCursor())
	require.NoError(t, err)
	require.Equal(t, firstSQL, store.recorded()[0].SQL)
}

func Test_pageFetcher_fetch_Logs(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	fetcher := newTestFetcher(newStringStore("1"), 2, logger)
	_, _, err := fetcher.fetch(context.Background(), 0, nil)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var debug, info map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &debug))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &info))

	require.Equal(t, "debug", debug["level"])
	require.Equal(t, firstSQL, debug["sql"])
	require.Equal(t, []any{"t1"}, debug["params"])
	require.Equal(t, "info", info["level"])
	require.Equal(t, float64(1), info["rows"])
}
