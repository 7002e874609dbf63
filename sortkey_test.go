package pagereader

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Direction_Valid_And_ForOperator(t *testing.T) {
	tests := []struct {
		name     string
		in       Direction
		valid    bool
		operator Operator
	}{
		{"ASC valid maps to GT", DirectionASC, true, OperatorGT},
		{"DESC valid maps to LT", DirectionDESC, true, OperatorLT},
	}
	for _, tt := range tests {
		if got := tt.in.Valid(); got != tt.valid {
			t.Errorf("%s: Valid=%v want %v", tt.name, got, tt.valid)
		}
		if got := tt.in.ForOperator(); got != tt.operator {
			t.Errorf("%s: ForOperator=%v want %v", tt.name, got, tt.operator)
		}
	}
}

func Test_SortKeys_validate(t *testing.T) {
	tests := []struct {
		name string
		keys SortKeys
		ok   bool
	}{
		{"empty returns error", SortKeys{}, false},
		{"invalid direction", SortKeys{{Column: "id", Direction: "bad"}}, false},
		{"empty column", SortKeys{{Column: "", Direction: DirectionASC}}, false},
		{"forbidden symbols", SortKeys{{Column: "id; DROP TABLE users", Direction: DirectionASC}}, false},
		{"duplicate column", SortKeys{{Column: "id", Direction: DirectionASC}, {Column: "id", Direction: DirectionDESC}}, false},
		{"valid list", SortKeys{{Column: "id", Direction: DirectionASC}}, true},
		{"qualified columns", SortKeys{{Column: "t.created_at", Direction: DirectionDESC}, {Column: "t.id", Direction: DirectionASC}}, true},
	}
	for _, tt := range tests {
		if err := tt.keys.validate(); (err == nil) != tt.ok {
			t.Errorf("%s: ok=%v err=%v", tt.name, tt.ok, err)
		}
	}
}

func Test_NewSortKeys_CopiesInput(t *testing.T) {
	in := []SortKey{{Column: "id", Direction: DirectionASC}}

	keys, err := NewSortKeys(in...)
	require.NoError(t, err)

	in[0].Column = "mutated"
	require.Equal(t, "id", keys[0].Column)
}

func Test_SortKeys_ToSQL(t *testing.T) {
	keys := MustSortKeys(
		SortKey{Column: "a", Direction: DirectionASC},
		SortKey{Column: "b", Direction: DirectionDESC},
	)

	require.Equal(t, []string{"a ASC", "b DESC"}, keys.ToSQLSlice())
	require.Equal(t, "a ASC, b DESC", keys.ToSQL())
	require.Equal(t, []string{"a", "b"}, keys.Columns())
}

func Test_ParseSortKeys(t *testing.T) {
	mapping := ColumnMapping{
		"id":   "t.id",
		"name": "t.name",
	}

	tests := []struct {
		name  string
		in    []string
		ok    bool
		first SortKey
	}{
		{"invalid format", []string{"id"}, false, SortKey{}},
		{"unknown alias", []string{"idx asc"}, false, SortKey{}},
		{"bad direction", []string{"id sideways"}, false, SortKey{}},
		{"valid asc", []string{"id asc"}, true, SortKey{Column: "t.id", Direction: DirectionASC}},
		{"valid desc", []string{"name desc"}, true, SortKey{Column: "t.name", Direction: DirectionDESC}},
		{"extra spaces", []string{"  name   DESC "}, true, SortKey{Column: "t.name", Direction: DirectionDESC}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSortKeys(tt.in, mapping)
			if (err == nil) != tt.ok {
				t.Errorf("%s: ok=%v err=%v", tt.name, tt.ok, err)
				return
			}
			if tt.ok {
				if len(got) == 0 || got[0] != tt.first {
					t.Errorf("%s: first=%v want %v", tt.name, got, tt.first)
				}
			}
		})
	}
}

func Test_ParseSortKeys_NilMapping(t *testing.T) {
	got, err := ParseSortKeys([]string{"user_id asc", "created_at desc"}, nil)
	require.NoError(t, err)
	require.Equal(t, SortKeys{
		{Column: "user_id", Direction: DirectionASC},
		{Column: "created_at", Direction: DirectionDESC},
	}, got)
}

func Test_closestAlias(t *testing.T) {
	aliases := []ColumnAlias{"id", "name", "created_at"}
	tests := []struct {
		name string
		in   ColumnAlias
		out  ColumnAlias
	}{
		{"closest to id", "idx", "id"},
		{"closest to name", "nme", "name"},
		{"closest to created_at", "createdat", "created_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := closestAlias(tt.in, aliases); got != tt.out {
				t.Errorf("%s: got %s want %s", tt.name, got, tt.out)
			}
		})
	}
}
