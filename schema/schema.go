// Package schema holds the static relational metadata derived from record
// types: the relation descriptor, its ordered columns, and the fixed scalar
// kind enumeration.
//
// Descriptors are built once per record type at registration time and are
// read-only afterwards, so they can be shared across concurrently executing
// handlers without locking.
package schema

// Kind is the fixed enumeration of scalar column types.
type Kind uint8

const (
	// KindInvalid is the zero Kind. It never appears in a valid descriptor.
	KindInvalid Kind = iota
	// KindInt covers all Go integer types.
	KindInt
	// KindFloat covers float32 and float64.
	KindFloat
	// KindString covers string.
	KindString
	// KindBool covers bool.
	KindBool
	// KindTime covers time.Time.
	KindTime
	// KindUUID covers uuid.UUID.
	KindUUID
	// KindBytes covers []byte.
	KindBytes
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindInt:     "integer",
	KindFloat:   "float",
	KindString:  "text",
	KindBool:    "boolean",
	KindTime:    "timestamp",
	KindUUID:    "uuid",
	KindBytes:   "binary",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Valid reports whether k is one of the supported scalar kinds.
func (k Kind) Valid() bool {
	return k > KindInvalid && int(k) < len(kindNames)
}

// Column describes one column of a relation.
type Column struct {
	// Name is the column name in the database.
	Name string
	// Kind is the scalar type of the column.
	Kind Kind
	// Nullable reports whether the column accepts NULL. Nullable columns
	// map to pointer fields on the record type.
	Nullable bool
	// Auto reports whether the column is populated by the server, such as
	// an auto-increment primary key. Auto columns are excluded from
	// inserts and updates.
	Auto bool
	// PrimaryKey reports whether the column is part of the primary key.
	PrimaryKey bool
	// FieldIndex locates the backing struct field, as used by
	// reflect.Value.FieldByIndex.
	FieldIndex []int
	// FieldName is the Go name of the backing struct field.
	FieldName string
}

// Descriptor is the immutable metadata for one table or view: its name, its
// ordered column list, and its primary key. Column order matches the record
// type's field declaration order and is used for positional parameter
// binding.
type Descriptor struct {
	// Schema is the optional namespace the relation lives in. Empty means
	// the connection's default schema.
	Schema string
	// Name is the relation name.
	Name string
	// Columns is the ordered column list, unique by name.
	Columns []Column
}

// QualifiedName returns the relation name, prefixed by its schema namespace
// when one is set.
func (d *Descriptor) QualifiedName() string {
	if d.Schema != "" {
		return d.Schema + "." + d.Name
	}
	return d.Name
}

// Column returns the column with the given name.
func (d *Descriptor) Column(name string) (Column, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Names returns the ordered column names.
func (d *Descriptor) Names() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryKey returns the primary-key columns in declaration order.
// A valid descriptor always has at least one.
func (d *Descriptor) PrimaryKey() []Column {
	var pk []Column
	for _, c := range d.Columns {
		if c.PrimaryKey {
			pk = append(pk, c)
		}
	}
	return pk
}

// Insertable returns the columns named by an INSERT, in declaration order.
// Server-generated columns are excluded.
func (d *Descriptor) Insertable() []Column {
	cols := make([]Column, 0, len(d.Columns))
	for _, c := range d.Columns {
		if !c.Auto {
			cols = append(cols, c)
		}
	}
	return cols
}

// Updatable returns the columns an UPDATE may touch, in declaration order.
// Primary-key and server-generated columns are excluded.
func (d *Descriptor) Updatable() []Column {
	cols := make([]Column, 0, len(d.Columns))
	for _, c := range d.Columns {
		if !c.Auto && !c.PrimaryKey {
			cols = append(cols, c)
		}
	}
	return cols
}
