package pagereader

import "fmt"

// Operator is the strict comparison a sort key uses to step past the cursor.
type Operator string

func (o Operator) Valid() bool {
	return o == OperatorLT || o == OperatorGT
}

// ForDirection maps the operator back to the sort direction it seeks along.
func (o Operator) ForDirection() Direction {
	switch o {
	case OperatorGT:
		return DirectionASC
	case OperatorLT:
		return DirectionDESC
	default:
		panic(fmt.Errorf("cannot map operator '%s' to direction", o))
	}
}

const (
	OperatorGT Operator = ">"
	OperatorLT Operator = "<"

	// operatorEq is private: it only appears in the equality prefix of a
	// tuple predicate disjunct.
	operatorEq Operator = "="
)
