package pagereader

import (
	"fmt"
	"strings"
)

type (
	tConjunct struct {
		Column   string
		Value    any
		Operator Operator
	}

	tDisjunct []tConjunct

	// tDNF represents the disjunctive normal form (DNF) of the "row is after
	// the cursor" predicate. Each disjunct is joined by OR, and each disjunct
	// consists of conjuncts joined by AND. A conjunct is Operator(Column, Value).
	//
	// Thus:
	//
	//	DNF = X1 OR X2 ... OR Xn, where Xi = Ai1 AND Ai2 ... AND Aim.
	tDNF []tDisjunct
)

// toDNF expands sort keys into the tuple comparison
//
//	(C1 O1 V1) OR (C1 = V1 AND C2 O2 V2) OR (C1 = V1 AND C2 = V2 AND C3 O3 V3) ...
//
// where Oi is the seek operator of the i-th key direction. values may be nil,
// in which case the DNF only describes the predicate shape.
func toDNF(keys SortKeys, values []any) tDNF {
	valueAt := func(i int) any {
		if i < len(values) {
			return values[i]
		}

		return nil
	}

	dnf := make(tDNF, 0, len(keys))
	for i := range keys {
		disjunct := make(tDisjunct, 0, i+1)
		for j := range keys[:i] {
			disjunct = append(disjunct, tConjunct{
				Column:   keys[j].Column,
				Value:    valueAt(j),
				Operator: operatorEq,
			})
		}

		disjunct = append(disjunct, tConjunct{
			Column:   keys[i].Column,
			Value:    valueAt(i),
			Operator: keys[i].Direction.ForOperator(),
		})

		dnf = append(dnf, disjunct)
	}

	return dnf
}

// toSQLClause converts a conjunct of the form Operator(Column, Value) to
// an SQL condition of the form "Column Operator ?" with a corresponding value.
//
// Example:
//
//	tConjunct = { Column: "id", Operator: ">", Value: 123}
//
// Result:
//
//	("id > ?", 123)
func (c tConjunct) toSQLClause() (string, any) {
	return fmt.Sprintf("%s %s ?", c.Column, c.Operator), c.Value
}

// toSQLClause converts a disjunct (K1, K2, K3) into "(K1 AND K2 AND K3)" with
// the placeholder values in order.
//
// Example:
//
//	tDisjunct = {
//		{Column: "id", Operator: "=", Value: 5},
//		{Column: "name", Operator: "<", Value: "abc"}
//	}
//
// Result:
//
//	("(id = ? AND name < ?)", [5, "abc"])
func (d tDisjunct) toSQLClause() (string, []any) {
	andClauses := make([]string, 0, len(d))
	andValues := make([]any, 0, len(d))

	for _, conjunct := range d {
		andClause, andValue := conjunct.toSQLClause()
		andClauses = append(andClauses, andClause)
		andValues = append(andValues, andValue)
	}

	if len(andClauses) >= 1 {
		return fmt.Sprintf("(%s)", strings.Join(andClauses, " AND ")), andValues
	}

	return "", nil
}

// toSQLClause joins the disjuncts with OR. The returned values are in the
// exact placeholder order of the returned SQL.
//
// Example:
//
//	tDNF = {
//		{{Column: "id", Operator: "<", Value: 10}},
//		{{Column: "id", Operator: "=", Value: 10}, {Column: "name", Operator: "<", Value: "abc"}},
//	}
//
// Result:
//
//	("((id < ?) OR (id = ? AND name < ?))", [10, 10, "abc"])
func (d tDNF) toSQLClause() (string, []any) {
	orClauses := make([]string, 0, len(d))
	values := make([]any, 0, len(d))

	for _, disjunct := range d {
		orClause, orValues := disjunct.toSQLClause()
		if orClause == "" {
			continue
		}

		orClauses = append(orClauses, orClause)
		values = append(values, orValues...)
	}

	if len(orClauses) >= 1 {
		return fmt.Sprintf("(%s)", strings.Join(orClauses, " OR ")), values
	}

	return "TRUE", nil
}
