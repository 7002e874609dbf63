package pagereader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_ColumnMapper(t *testing.T) {
	keys := MustSortKeys(
		SortKey{Column: "o.created_at", Direction: DirectionDESC},
		SortKey{Column: "`id`", Direction: DirectionASC},
	)

	mapper := ColumnMapper(keys, func(row Row) (string, error) {
		return row["name"].(string), nil
	})

	item, values, err := mapper(Row{"id": int64(3), "created_at": "2024-01-01", "name": "bob"}, 0)
	require.NoError(t, err)
	require.Equal(t, "bob", item)
	require.Equal(t, []any{"2024-01-01", int64(3)}, values)

	_, _, err = mapper(Row{"id": int64(3), "name": "bob"}, 1)
	require.ErrorContains(t, err, "created_at")
}

func Test_ColumnMapper_ItemError(t *testing.T) {
	keys := MustSortKeys(SortKey{Column: "id", Direction: DirectionASC})
	boom := errors.New("boom")

	mapper := ColumnMapper(keys, func(Row) (int, error) { return 0, boom })

	_, _, err := mapper(Row{"id": 1}, 0)
	require.ErrorIs(t, err, boom)
}

func Test_resultColumnName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"id", "id"},
		{"t.id", "id"},
		{"schema.t.id", "id"},
		{"`t`.`id`", "id"},
		{`"id"`, "id"},
	}
	for _, tt := range tests {
		if got := resultColumnName(tt.in); got != tt.want {
			t.Errorf("resultColumnName(%q)=%q want %q", tt.in, got, tt.want)
		}
	}
}
