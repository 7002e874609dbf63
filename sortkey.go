package pagereader

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Direction defines the order rows are streamed in for one sort key.
type Direction string

const (
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

func (d Direction) Valid() bool {
	return d == DirectionASC || d == DirectionDESC
}

// ForOperator returns the comparison that selects rows after the cursor.
func (d Direction) ForOperator() Operator {
	switch d {
	case DirectionASC:
		return OperatorGT
	case DirectionDESC:
		return OperatorLT
	default:
		panic(fmt.Errorf("cannot map direction '%s' to operator", d))
	}
}

type (
	// SortKey is one column of the total order the reader streams in.
	SortKey struct {
		Column    string
		Direction Direction
	}

	// SortKeys is the ordered, non-empty list of sort columns. Both the
	// ORDER BY of every page query and the tuple predicate of the remaining
	// pages are derived from it, in declaration order.
	//
	// IMPORTANT:
	// The last key (or the combination of all keys) MUST be unique, otherwise
	// rows sharing a boundary tuple are skipped between pages.
	SortKeys []SortKey

	ColumnAlias = string

	// ColumnMapping maps external column aliases to fully qualified column names.
	// Key is an external alias, value is an internal column name.
	ColumnMapping = map[ColumnAlias]string
)

var _availableColumnNameSymbols = append([]rune("_.'`\""), lo.AlphanumericCharset...)

// NewSortKeys validates keys and returns a private copy of them.
func NewSortKeys(keys ...SortKey) (SortKeys, error) {
	ret := SortKeys(slices.Clone(keys))
	if err := ret.validate(); err != nil {
		return nil, err
	}

	return ret, nil
}

// MustSortKeys is like NewSortKeys but panics on invalid input.
func MustSortKeys(keys ...SortKey) SortKeys {
	ret, err := NewSortKeys(keys...)
	if err != nil {
		panic(err)
	}

	return ret
}

func (k SortKey) validate() error {
	if k.Column == "" {
		return fmt.Errorf("empty sort key column")
	}

	if !k.Direction.Valid() {
		return fmt.Errorf("invalid sort direction '%s'", k.Direction)
	}

	// Guard against SQL injection by restricting allowed characters in column names.
	if !lo.Every(_availableColumnNameSymbols, []rune(k.Column)) {
		return fmt.Errorf("sort key column name contains forbidden symbols '%s'", k.Column)
	}

	return nil
}

// Columns returns the sort key column names in declaration order.
func (s SortKeys) Columns() []string {
	return lo.Map(s, func(k SortKey, _ int) string { return k.Column })
}

// ToSQLSlice converts SortKeys to "<column> <direction>" strings.
//
// Example: for [{"a", "ASC"}, {"b", "DESC"}] returns ["a ASC", "b DESC"].
func (s SortKeys) ToSQLSlice() []string {
	ret := make([]string, 0, len(s))
	for _, key := range s {
		ret = append(ret, fmt.Sprintf("%s %s", key.Column, key.Direction))
	}

	return ret
}

// ToSQL renders the ORDER BY list.
// Example: for [{"a", "ASC"}, {"b", "DESC"}] returns "a ASC, b DESC".
func (s SortKeys) ToSQL() string {
	return strings.Join(s.ToSQLSlice(), ", ")
}

func (s SortKeys) validate() error {
	if len(s) == 0 {
		return fmt.Errorf("empty sort key list")
	}

	seen := make(map[string]struct{}, len(s))
	for _, key := range s {
		if err := key.validate(); err != nil {
			return err
		}

		if _, ok := seen[key.Column]; ok {
			return fmt.Errorf("duplicate sort key column '%s'", key.Column)
		}
		seen[key.Column] = struct{}{}
	}

	return nil
}

// ParseSortKeys builds SortKeys from strings of the form "column asc|desc".
// Column aliases are resolved via ColumnMapping; a nil mapping takes column
// names as they are.
func ParseSortKeys(rawKeys []string, columnMapping ColumnMapping) (SortKeys, error) {
	ret := make(SortKeys, 0, len(rawKeys))
	aliases := lo.Keys(columnMapping)
	slices.Sort(aliases)

	for _, rawKey := range rawKeys {
		parts := strings.Fields(rawKey)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid sort key format '%s'", rawKey)
		}

		columnAlias := parts[0]
		columnName := columnMapping[columnAlias]
		if columnMapping == nil {
			columnName = columnAlias
		}
		if columnName == "" {
			return nil, fmt.Errorf("invalid column alias '%s'. closest: '%s'", columnAlias, closestAlias(columnAlias, aliases))
		}

		ret = append(ret, SortKey{
			Column:    columnName,
			Direction: Direction(strings.ToUpper(parts[1])),
		})
	}

	return NewSortKeys(ret...)
}

func closestAlias(input ColumnAlias, dataSet []ColumnAlias) ColumnAlias {
	minDist := math.MaxInt
	closest := ""

	for _, dataSetAlias := range dataSet {
		dist := levenshtein([]rune(dataSetAlias), []rune(input))
		if dist < minDist {
			minDist = dist
			closest = dataSetAlias
		}
	}

	return closest
}
