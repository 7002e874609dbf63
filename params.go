package pagereader

import (
	"slices"

	"github.com/samber/lo"
)

// BuildParameters returns the positional bind values of a page query.
//
// Filter parameters come first, ordered by parameter name so the placeholder
// order does not depend on map iteration. When cursor is not empty the tuple
// predicate values follow: for the i-th sort key, the values of keys 0..i-1
// and then the value of key i. For N sort keys that is N(N+1)/2 values, in the
// placeholder order of the predicate rendered by toDNF:
//
//	(k0 > v0) OR (k0 = v0 AND k1 > v1) OR (k0 = v0 AND k1 = v1 AND k2 > v2)
//	-> [v0, v0, v1, v0, v1, v2]
func BuildParameters(filter map[string]any, cursor *Cursor) []any {
	names := lo.Keys(filter)
	slices.Sort(names)

	values := cursor.Values()
	ret := make([]any, 0, len(names)+len(values)*(len(values)+1)/2)
	for _, name := range names {
		ret = append(ret, filter[name])
	}

	for i := range values {
		ret = append(ret, values[:i+1]...)
	}

	return ret
}
