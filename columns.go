package relkit

import (
	"time"

	"github.com/google/uuid"
)

// Typed column handles provide type-safe predicate construction for List
// filters. They are usually declared by generated code:
//
//	var (
//	    UserEmail  = relkit.StringColumn("email")
//	    UserActive = relkit.BoolColumn("active")
//	)
//
//	users.List(ctx, relkit.ListQuery{
//	    Predicates: []relkit.Predicate{UserActive.EQ(true)},
//	})

// StringColumn is a text column handle.
type StringColumn string

// Name returns the column name.
func (c StringColumn) Name() string { return string(c) }

// EQ returns an equality predicate on the column.
func (c StringColumn) EQ(v string) Predicate { return FieldEQ(string(c), v) }

// GT returns a greater-than predicate on the column.
func (c StringColumn) GT(v string) Predicate { return FieldGT(string(c), v) }

// GTE returns a greater-than-or-equal predicate on the column.
func (c StringColumn) GTE(v string) Predicate { return FieldGTE(string(c), v) }

// LT returns a less-than predicate on the column.
func (c StringColumn) LT(v string) Predicate { return FieldLT(string(c), v) }

// LTE returns a less-than-or-equal predicate on the column.
func (c StringColumn) LTE(v string) Predicate { return FieldLTE(string(c), v) }

// IntColumn is an integer column handle.
type IntColumn string

// Name returns the column name.
func (c IntColumn) Name() string { return string(c) }

// EQ returns an equality predicate on the column.
func (c IntColumn) EQ(v int64) Predicate { return FieldEQ(string(c), v) }

// GT returns a greater-than predicate on the column.
func (c IntColumn) GT(v int64) Predicate { return FieldGT(string(c), v) }

// GTE returns a greater-than-or-equal predicate on the column.
func (c IntColumn) GTE(v int64) Predicate { return FieldGTE(string(c), v) }

// LT returns a less-than predicate on the column.
func (c IntColumn) LT(v int64) Predicate { return FieldLT(string(c), v) }

// LTE returns a less-than-or-equal predicate on the column.
func (c IntColumn) LTE(v int64) Predicate { return FieldLTE(string(c), v) }

// FloatColumn is a float column handle.
type FloatColumn string

// Name returns the column name.
func (c FloatColumn) Name() string { return string(c) }

// EQ returns an equality predicate on the column.
func (c FloatColumn) EQ(v float64) Predicate { return FieldEQ(string(c), v) }

// GT returns a greater-than predicate on the column.
func (c FloatColumn) GT(v float64) Predicate { return FieldGT(string(c), v) }

// GTE returns a greater-than-or-equal predicate on the column.
func (c FloatColumn) GTE(v float64) Predicate { return FieldGTE(string(c), v) }

// LT returns a less-than predicate on the column.
func (c FloatColumn) LT(v float64) Predicate { return FieldLT(string(c), v) }

// LTE returns a less-than-or-equal predicate on the column.
func (c FloatColumn) LTE(v float64) Predicate { return FieldLTE(string(c), v) }

// BoolColumn is a boolean column handle.
type BoolColumn string

// Name returns the column name.
func (c BoolColumn) Name() string { return string(c) }

// EQ returns an equality predicate on the column.
func (c BoolColumn) EQ(v bool) Predicate { return FieldEQ(string(c), v) }

// TimeColumn is a timestamp column handle.
type TimeColumn string

// Name returns the column name.
func (c TimeColumn) Name() string { return string(c) }

// EQ returns an equality predicate on the column.
func (c TimeColumn) EQ(v time.Time) Predicate { return FieldEQ(string(c), v) }

// GT returns a greater-than predicate on the column.
func (c TimeColumn) GT(v time.Time) Predicate { return FieldGT(string(c), v) }

// GTE returns a greater-than-or-equal predicate on the column.
func (c TimeColumn) GTE(v time.Time) Predicate { return FieldGTE(string(c), v) }

// LT returns a less-than predicate on the column.
func (c TimeColumn) LT(v time.Time) Predicate { return FieldLT(string(c), v) }

// LTE returns a less-than-or-equal predicate on the column.
func (c TimeColumn) LTE(v time.Time) Predicate { return FieldLTE(string(c), v) }

// UUIDColumn is a uuid column handle.
type UUIDColumn string

// Name returns the column name.
func (c UUIDColumn) Name() string { return string(c) }

// EQ returns an equality predicate on the column.
func (c UUIDColumn) EQ(v uuid.UUID) Predicate { return FieldEQ(string(c), v) }

// BytesColumn is a binary column handle.
type BytesColumn string

// Name returns the column name.
func (c BytesColumn) Name() string { return string(c) }

// EQ returns an equality predicate on the column.
func (c BytesColumn) EQ(v []byte) Predicate { return FieldEQ(string(c), v) }
