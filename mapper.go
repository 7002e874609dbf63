package pagereader

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// RowMapper maps one row to an item and returns the row's sort key values in
// SortKeys order. The reader builds the next cursor from the values of the
// last row of a page.
type RowMapper[T any] func(row Row, rowNum int) (item T, sortKeyValues []any, err error)

// ColumnMapper builds a RowMapper that maps items with fn and reads the sort
// key values from the row by column name. A qualified column ("t.id") is
// looked up by its last segment, the way drivers label result columns.
func ColumnMapper[T any](sortKeys SortKeys, fn func(row Row) (T, error)) RowMapper[T] {
	columns := lo.Map(sortKeys, func(k SortKey, _ int) string { return resultColumnName(k.Column) })

	return func(row Row, rowNum int) (T, []any, error) {
		values := make([]any, 0, len(columns))
		for _, column := range columns {
			v, ok := row[column]
			if !ok {
				return lo.Empty[T](), nil, fmt.Errorf("row %d has no sort key column '%s'", rowNum, column)
			}
			values = append(values, v)
		}

		item, err := fn(row)
		if err != nil {
			return lo.Empty[T](), nil, err
		}

		return item, values, nil
	}
}

func resultColumnName(column string) string {
	if idx := strings.LastIndex(column, "."); idx != -1 {
		column = column[idx+1:]
	}

	return strings.Trim(column, "`'\"")
}
