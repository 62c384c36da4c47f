package relkit

import (
	"strconv"
	"strings"

	"github.com/relkit/relkit/dialect"
	"github.com/relkit/relkit/schema"
)

// Op identifies the operation a Request asks the builder to render.
type Op uint8

const (
	// OpCreate inserts one record.
	OpCreate Op = iota + 1
	// OpRead selects one record by primary key.
	OpRead
	// OpList selects records with optional predicates and pagination.
	OpList
	// OpUpdate updates an explicit field subset, keyed by primary key.
	OpUpdate
	// OpDelete deletes one record by primary key.
	OpDelete
)

// Shape describes the result a statement is expected to produce.
type Shape uint8

const (
	// ShapeNone means the statement reports an affected-row count only.
	ShapeNone Shape = iota
	// ShapeSingle means the statement returns at most one row.
	ShapeSingle
	// ShapeMulti means the statement returns any number of rows.
	ShapeMulti
)

// Statement is one parameterized command: its text, its ordered bound
// values, and the result shape the executor should expect. Statements are
// built per request and never cached or mutated after construction.
type Statement struct {
	Text  string
	Args  []any
	Shape Shape
}

// Request carries the data needed to build exactly one statement.
// Only the fields relevant to the Op are consulted.
type Request struct {
	Op Op

	// Values are the insert values for OpCreate, ordered to match the
	// descriptor's insertable columns.
	Values []any

	// Key holds the primary-key values, in primary-key column order, for
	// OpRead, OpUpdate, and OpDelete. For OpList it is optional; when
	// present, the key equalities always precede the predicates in the
	// rendered WHERE clause.
	Key []any

	// Fields is the explicit column subset for OpUpdate.
	Fields map[string]any

	// Predicates are the filter conjunction for OpList.
	Predicates []Predicate

	// Limit and Offset paginate OpList. Nil means absent; absent
	// pagination returns the full result set.
	Limit  *int
	Offset *int
}

// Build renders the statement for req against the given descriptor and
// dialect. Caller-supplied values appear only in Statement.Args, never in
// Statement.Text.
func Build(d *schema.Descriptor, dialectName string, req Request) (*Statement, error) {
	b := &builder{desc: d, postgres: dialectName == dialect.Postgres, returning: dialectName != dialect.MySQL}
	switch req.Op {
	case OpCreate:
		return b.insert(req)
	case OpRead:
		return b.read(req)
	case OpList:
		return b.list(req)
	case OpUpdate:
		return b.update(req)
	case OpDelete:
		return b.delete(req)
	default:
		return nil, NewInvalidFilterError("", "unknown operation %d", req.Op)
	}
}

type builder struct {
	desc      *schema.Descriptor
	postgres  bool
	returning bool // dialect supports INSERT/UPDATE ... RETURNING
	sb        strings.Builder
	args      []any
}

// arg appends a bound value and writes its placeholder.
func (b *builder) arg(v any) {
	b.args = append(b.args, v)
	if b.postgres {
		b.sb.WriteByte('$')
		b.sb.WriteString(strconv.Itoa(len(b.args)))
	} else {
		b.sb.WriteByte('?')
	}
}

func (b *builder) ident(name string) {
	b.sb.WriteString(name)
}

func (b *builder) idents(cols []schema.Column) {
	for i, c := range cols {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.ident(c.Name)
	}
}

func (b *builder) stmt(shape Shape) *Statement {
	return &Statement{Text: b.sb.String(), Args: b.args, Shape: shape}
}

func (b *builder) insert(req Request) (*Statement, error) {
	cols := b.desc.Insertable()
	if len(req.Values) != len(cols) {
		return nil, NewInvalidFilterError("", "insert expects %d values, got %d", len(cols), len(req.Values))
	}
	b.sb.WriteString("INSERT INTO ")
	b.ident(b.desc.QualifiedName())
	b.sb.WriteString(" (")
	b.idents(cols)
	b.sb.WriteString(") VALUES (")
	for i, v := range req.Values {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.arg(v)
	}
	b.sb.WriteByte(')')
	if b.returning {
		b.sb.WriteString(" RETURNING ")
		b.idents(b.desc.Columns)
		return b.stmt(ShapeSingle), nil
	}
	return b.stmt(ShapeNone), nil
}

func (b *builder) read(req Request) (*Statement, error) {
	b.sb.WriteString("SELECT ")
	b.idents(b.desc.Columns)
	b.sb.WriteString(" FROM ")
	b.ident(b.desc.QualifiedName())
	if err := b.whereKey(req.Key); err != nil {
		return nil, err
	}
	return b.stmt(ShapeSingle), nil
}

func (b *builder) list(req Request) (*Statement, error) {
	if err := validPage(req.Limit, "limit"); err != nil {
		return nil, err
	}
	if err := validPage(req.Offset, "offset"); err != nil {
		return nil, err
	}
	for _, p := range req.Predicates {
		col, ok := b.desc.Column(p.Column)
		if !ok {
			return nil, NewInvalidFilterError(p.Column, "column not declared on relation %s", b.desc.Name)
		}
		if !p.Op.valid() {
			return nil, NewInvalidFilterError(col.Name, "unknown predicate operator")
		}
	}
	b.sb.WriteString("SELECT ")
	b.idents(b.desc.Columns)
	b.sb.WriteString(" FROM ")
	b.ident(b.desc.QualifiedName())
	// The primary-key filter always precedes additional predicates, for
	// stable query-plan caching on the database side.
	written := 0
	if req.Key != nil {
		pk := b.desc.PrimaryKey()
		if len(req.Key) != len(pk) {
			return nil, NewInvalidFilterError("", "key expects %d values, got %d", len(pk), len(req.Key))
		}
		for i, c := range pk {
			b.sep(&written)
			b.ident(c.Name)
			b.sb.WriteString(" = ")
			b.arg(req.Key[i])
		}
	}
	for _, p := range req.Predicates {
		b.sep(&written)
		b.ident(p.Column)
		b.sb.WriteByte(' ')
		b.sb.WriteString(p.Op.String())
		b.sb.WriteByte(' ')
		b.arg(p.Value)
	}
	b.sb.WriteString(" ORDER BY ")
	b.idents(b.desc.PrimaryKey())
	if req.Limit != nil {
		b.sb.WriteString(" LIMIT ")
		b.arg(*req.Limit)
	}
	if req.Offset != nil {
		b.sb.WriteString(" OFFSET ")
		b.arg(*req.Offset)
	}
	return b.stmt(ShapeMulti), nil
}

func (b *builder) update(req Request) (*Statement, error) {
	if len(req.Fields) == 0 {
		return nil, NewEmptyUpdateError(b.desc.Name)
	}
	for name := range req.Fields {
		col, ok := b.desc.Column(name)
		switch {
		case !ok:
			return nil, NewInvalidFilterError(name, "column not declared on relation %s", b.desc.Name)
		case col.PrimaryKey:
			return nil, NewInvalidFilterError(name, "primary-key column is not updatable")
		case col.Auto:
			return nil, NewInvalidFilterError(name, "server-generated column is not updatable")
		}
	}
	b.sb.WriteString("UPDATE ")
	b.ident(b.desc.QualifiedName())
	b.sb.WriteString(" SET ")
	// Iterate updatable columns in declaration order so the rendered
	// statement is deterministic regardless of map iteration.
	written := 0
	for _, c := range b.desc.Updatable() {
		v, ok := req.Fields[c.Name]
		if !ok {
			continue
		}
		if written > 0 {
			b.sb.WriteString(", ")
		}
		written++
		b.ident(c.Name)
		b.sb.WriteString(" = ")
		b.arg(v)
	}
	if err := b.whereKey(req.Key); err != nil {
		return nil, err
	}
	if b.returning {
		b.sb.WriteString(" RETURNING ")
		b.idents(b.desc.Columns)
		return b.stmt(ShapeSingle), nil
	}
	return b.stmt(ShapeNone), nil
}

func (b *builder) delete(req Request) (*Statement, error) {
	b.sb.WriteString("DELETE FROM ")
	b.ident(b.desc.QualifiedName())
	if err := b.whereKey(req.Key); err != nil {
		return nil, err
	}
	return b.stmt(ShapeNone), nil
}

func (b *builder) whereKey(key []any) error {
	pk := b.desc.PrimaryKey()
	if len(key) != len(pk) {
		return NewInvalidFilterError("", "key expects %d values, got %d", len(pk), len(key))
	}
	written := 0
	for i, c := range pk {
		b.sep(&written)
		b.ident(c.Name)
		b.sb.WriteString(" = ")
		b.arg(key[i])
	}
	return nil
}

// sep writes " WHERE " before the first condition and " AND " after.
func (b *builder) sep(written *int) {
	if *written == 0 {
		b.sb.WriteString(" WHERE ")
	} else {
		b.sb.WriteString(" AND ")
	}
	*written++
}

// buildBulkInsert renders one multi-row INSERT. Rows are ordered value
// tuples matching the descriptor's insertable columns; the caller chunks
// them below the parameter bind limit.
func buildBulkInsert(d *schema.Descriptor, dialectName string, rows [][]any) (*Statement, error) {
	b := &builder{desc: d, postgres: dialectName == dialect.Postgres}
	cols := d.Insertable()
	b.sb.WriteString("INSERT INTO ")
	b.ident(d.QualifiedName())
	b.sb.WriteString(" (")
	b.idents(cols)
	b.sb.WriteString(") VALUES ")
	for i, row := range rows {
		if len(row) != len(cols) {
			return nil, NewInvalidFilterError("", "insert expects %d values, got %d", len(cols), len(row))
		}
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.sb.WriteByte('(')
		for j, v := range row {
			if j > 0 {
				b.sb.WriteString(", ")
			}
			b.arg(v)
		}
		b.sb.WriteByte(')')
	}
	return b.stmt(ShapeNone), nil
}

// buildDeleteAll renders an unfiltered DELETE for the relation.
func buildDeleteAll(d *schema.Descriptor) *Statement {
	return &Statement{Text: "DELETE FROM " + d.QualifiedName(), Args: []any{}, Shape: ShapeNone}
}

func validPage(v *int, name string) error {
	if v != nil && *v < 0 {
		return NewInvalidFilterError("", "%s must be non-negative, got %d", name, *v)
	}
	return nil
}
