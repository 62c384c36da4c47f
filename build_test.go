package relkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relkit/relkit/dialect"
)

type buildRecord struct {
	CRUD

	ID    int64   `rel:"id,pk,auto"`
	Email string  `rel:"email"`
	Age   int     `rel:"age"`
	Bio   *string `rel:"bio"`
}

func TestBuildInsert(t *testing.T) {
	d, err := Describe(buildRecord{})
	require.NoError(t, err)
	req := Request{Op: OpCreate, Values: []any{"a@b.c", 30, nil}}

	stmt, err := Build(d, dialect.Postgres, req)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO build_records (email, age, bio) VALUES ($1, $2, $3) RETURNING id, email, age, bio", stmt.Text)
	assert.Equal(t, []any{"a@b.c", 30, nil}, stmt.Args)
	assert.Equal(t, ShapeSingle, stmt.Shape)

	stmt, err = Build(d, dialect.SQLite, req)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO build_records (email, age, bio) VALUES (?, ?, ?) RETURNING id, email, age, bio", stmt.Text)
	assert.Equal(t, ShapeSingle, stmt.Shape)

	stmt, err = Build(d, dialect.MySQL, req)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO build_records (email, age, bio) VALUES (?, ?, ?)", stmt.Text)
	assert.Equal(t, ShapeNone, stmt.Shape)

	_, err = Build(d, dialect.Postgres, Request{Op: OpCreate, Values: []any{"too", "few"}})
	assert.True(t, IsInvalidFilter(err))
}

func TestBuildRead(t *testing.T) {
	d, err := Describe(buildRecord{})
	require.NoError(t, err)

	stmt, err := Build(d, dialect.Postgres, Request{Op: OpRead, Key: []any{int64(7)}})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, email, age, bio FROM build_records WHERE id = $1", stmt.Text)
	assert.Equal(t, []any{int64(7)}, stmt.Args)
	assert.Equal(t, ShapeSingle, stmt.Shape)

	_, err = Build(d, dialect.Postgres, Request{Op: OpRead})
	assert.True(t, IsInvalidFilter(err))
	_, err = Build(d, dialect.Postgres, Request{Op: OpRead, Key: []any{1, 2}})
	assert.True(t, IsInvalidFilter(err))
}

func TestBuildList(t *testing.T) {
	d, err := Describe(buildRecord{})
	require.NoError(t, err)

	stmt, err := Build(d, dialect.Postgres, Request{Op: OpList})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, email, age, bio FROM build_records ORDER BY id", stmt.Text)
	assert.Empty(t, stmt.Args)
	assert.Equal(t, ShapeMulti, stmt.Shape)

	limit, offset := 10, 20
	stmt, err = Build(d, dialect.Postgres, Request{
		Op:         OpList,
		Predicates: []Predicate{FieldGTE("age", 21), FieldEQ("email", "a@b.c")},
		Limit:      &limit,
		Offset:     &offset,
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, email, age, bio FROM build_records WHERE age >= $1 AND email = $2 ORDER BY id LIMIT $3 OFFSET $4", stmt.Text)
	assert.Equal(t, []any{21, "a@b.c", 10, 20}, stmt.Args)

	// A key filter is rendered before any predicate.
	stmt, err = Build(d, dialect.Postgres, Request{
		Op:         OpList,
		Key:        []any{int64(7)},
		Predicates: []Predicate{FieldLT("age", 65)},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, email, age, bio FROM build_records WHERE id = $1 AND age < $2 ORDER BY id", stmt.Text)

	neg := -1
	_, err = Build(d, dialect.Postgres, Request{Op: OpList, Limit: &neg})
	assert.True(t, IsInvalidFilter(err))
	_, err = Build(d, dialect.Postgres, Request{Op: OpList, Offset: &neg})
	assert.True(t, IsInvalidFilter(err))
	_, err = Build(d, dialect.Postgres, Request{Op: OpList, Predicates: []Predicate{FieldEQ("missing", 1)}})
	assert.True(t, IsInvalidFilter(err))
	_, err = Build(d, dialect.Postgres, Request{Op: OpList, Predicates: []Predicate{{Column: "age", Op: PredOp(99), Value: 1}}})
	assert.True(t, IsInvalidFilter(err))
}

func TestBuildUpdate(t *testing.T) {
	d, err := Describe(buildRecord{})
	require.NoError(t, err)

	// Fields render in column declaration order, not map order.
	fields := map[string]any{"bio": "hi", "email": "new@b.c"}
	stmt, err := Build(d, dialect.Postgres, Request{Op: OpUpdate, Fields: fields, Key: []any{int64(7)}})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE build_records SET email = $1, bio = $2 WHERE id = $3 RETURNING id, email, age, bio", stmt.Text)
	assert.Equal(t, []any{"new@b.c", "hi", int64(7)}, stmt.Args)
	assert.Equal(t, ShapeSingle, stmt.Shape)

	stmt, err = Build(d, dialect.MySQL, Request{Op: OpUpdate, Fields: fields, Key: []any{int64(7)}})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE build_records SET email = ?, bio = ? WHERE id = ?", stmt.Text)
	assert.Equal(t, ShapeNone, stmt.Shape)

	_, err = Build(d, dialect.Postgres, Request{Op: OpUpdate, Fields: nil, Key: []any{int64(7)}})
	assert.True(t, IsEmptyUpdate(err))
	_, err = Build(d, dialect.Postgres, Request{Op: OpUpdate, Fields: map[string]any{"missing": 1}, Key: []any{int64(7)}})
	assert.True(t, IsInvalidFilter(err))
	_, err = Build(d, dialect.Postgres, Request{Op: OpUpdate, Fields: map[string]any{"id": 9}, Key: []any{int64(7)}})
	assert.True(t, IsInvalidFilter(err))
}

func TestBuildDelete(t *testing.T) {
	d, err := Describe(buildRecord{})
	require.NoError(t, err)

	stmt, err := Build(d, dialect.Postgres, Request{Op: OpDelete, Key: []any{int64(7)}})
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM build_records WHERE id = $1", stmt.Text)
	assert.Equal(t, ShapeNone, stmt.Shape)
}

func TestBuildUnknownOp(t *testing.T) {
	d, err := Describe(buildRecord{})
	require.NoError(t, err)
	_, err = Build(d, dialect.Postgres, Request{Op: Op(42)})
	assert.True(t, IsInvalidFilter(err))
}

type compositeKey struct {
	CRUD

	Region string `rel:"region,pk"`
	Serial int    `rel:"serial,pk"`
	Note   string `rel:"note"`
}

func TestBuildCompositeKey(t *testing.T) {
	d, err := Describe(compositeKey{})
	require.NoError(t, err)

	stmt, err := Build(d, dialect.Postgres, Request{Op: OpRead, Key: []any{"eu", 5}})
	require.NoError(t, err)
	assert.Equal(t, "SELECT region, serial, note FROM composite_keys WHERE region = $1 AND serial = $2", stmt.Text)

	stmt, err = Build(d, dialect.Postgres, Request{Op: OpList})
	require.NoError(t, err)
	assert.Equal(t, "SELECT region, serial, note FROM composite_keys ORDER BY region, serial", stmt.Text)
}

func TestBuildBulkInsert(t *testing.T) {
	d, err := Describe(buildRecord{})
	require.NoError(t, err)

	stmt, err := buildBulkInsert(d, dialect.Postgres, [][]any{
		{"a@b.c", 30, nil},
		{"c@d.e", 40, "bio"},
	})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO build_records (email, age, bio) VALUES ($1, $2, $3), ($4, $5, $6)", stmt.Text)
	assert.Equal(t, []any{"a@b.c", 30, nil, "c@d.e", 40, "bio"}, stmt.Args)
	assert.Equal(t, ShapeNone, stmt.Shape)

	_, err = buildBulkInsert(d, dialect.Postgres, [][]any{{"short"}})
	assert.True(t, IsInvalidFilter(err))
}

func TestBuildDeleteAll(t *testing.T) {
	d, err := Describe(buildRecord{})
	require.NoError(t, err)
	stmt := buildDeleteAll(d)
	assert.Equal(t, "DELETE FROM build_records", stmt.Text)
	assert.Empty(t, stmt.Args)
}

// Statement text must depend only on the schema and the request shape.
// Hostile values may never leak into the text; they stay in Args.
func TestBuildValuesNeverInText(t *testing.T) {
	d, err := Describe(buildRecord{})
	require.NoError(t, err)
	hostile := []any{
		"'; DROP TABLE build_records; --",
		`" OR "1"="1`,
		"a'b",
		");(",
	}
	base, err := Build(d, dialect.Postgres, Request{Op: OpCreate, Values: []any{"x", 1, nil}})
	require.NoError(t, err)
	for _, v := range hostile {
		stmt, err := Build(d, dialect.Postgres, Request{Op: OpCreate, Values: []any{v, 1, v}})
		require.NoError(t, err)
		assert.Equal(t, base.Text, stmt.Text)
		assert.Contains(t, stmt.Args, v)

		stmt, err = Build(d, dialect.Postgres, Request{Op: OpList, Predicates: []Predicate{FieldEQ("email", v)}})
		require.NoError(t, err)
		assert.NotContains(t, stmt.Text, "DROP")
		assert.Equal(t, []any{v}, stmt.Args)
	}
}
