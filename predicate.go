package relkit

// PredOp is a comparison operator usable in a List filter.
type PredOp uint8

const (
	// EQ is the equality operator.
	EQ PredOp = iota + 1
	// GT is the greater-than operator.
	GT
	// GTE is the greater-than-or-equal operator.
	GTE
	// LT is the less-than operator.
	LT
	// LTE is the less-than-or-equal operator.
	LTE
)

var predOps = [...]string{
	EQ:  "=",
	GT:  ">",
	GTE: ">=",
	LT:  "<",
	LTE: "<=",
}

// String returns the SQL rendering of the operator.
func (o PredOp) String() string {
	if o.valid() {
		return predOps[o]
	}
	return "<invalid>"
}

func (o PredOp) valid() bool {
	return o >= EQ && o <= LTE
}

// Predicate is one constraint in a List filter conjunction. Predicates may
// reference declared columns only; the value is always bound, never
// rendered into statement text.
type Predicate struct {
	Column string
	Op     PredOp
	Value  any
}

// FieldEQ returns an equality predicate on the given column.
func FieldEQ(column string, v any) Predicate {
	return Predicate{Column: column, Op: EQ, Value: v}
}

// FieldGT returns a greater-than predicate on the given column.
func FieldGT(column string, v any) Predicate {
	return Predicate{Column: column, Op: GT, Value: v}
}

// FieldGTE returns a greater-than-or-equal predicate on the given column.
func FieldGTE(column string, v any) Predicate {
	return Predicate{Column: column, Op: GTE, Value: v}
}

// FieldLT returns a less-than predicate on the given column.
func FieldLT(column string, v any) Predicate {
	return Predicate{Column: column, Op: LT, Value: v}
}

// FieldLTE returns a less-than-or-equal predicate on the given column.
func FieldLTE(column string, v any) Predicate {
	return Predicate{Column: column, Op: LTE, Value: v}
}
