package relkit_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relkit/relkit"
	"github.com/relkit/relkit/schema"
)

type Account struct {
	relkit.CRUD

	ID        int64      `rel:"id,pk,auto"`
	Email     string     `rel:"email"`
	Balance   float64    `rel:"balance"`
	Active    bool       // no tag, column name derived from the field name
	Token     uuid.UUID  `rel:"token"`
	Avatar    []byte     `rel:"avatar"`
	Note      *string    `rel:"note"`
	CreatedAt time.Time  `rel:"created_at"`
	ClosedAt  *time.Time `rel:"closed_at"`
}

func TestDescribe(t *testing.T) {
	d, err := relkit.Describe(Account{})
	require.NoError(t, err)
	assert.Equal(t, "accounts", d.Name)
	assert.Empty(t, d.Schema)
	assert.Equal(t, []string{"id", "email", "balance", "active", "token", "avatar", "note", "created_at", "closed_at"}, d.Names())

	id, ok := d.Column("id")
	require.True(t, ok)
	assert.Equal(t, schema.KindInt, id.Kind)
	assert.True(t, id.PrimaryKey)
	assert.True(t, id.Auto)
	assert.False(t, id.Nullable)
	assert.Equal(t, "ID", id.FieldName)

	note, ok := d.Column("note")
	require.True(t, ok)
	assert.Equal(t, schema.KindString, note.Kind)
	assert.True(t, note.Nullable)

	for name, kind := range map[string]schema.Kind{
		"email":      schema.KindString,
		"balance":    schema.KindFloat,
		"active":     schema.KindBool,
		"token":      schema.KindUUID,
		"avatar":     schema.KindBytes,
		"created_at": schema.KindTime,
		"closed_at":  schema.KindTime,
	} {
		c, ok := d.Column(name)
		require.True(t, ok, name)
		assert.Equal(t, kind, c.Kind, name)
	}
}

func TestDescribePointerAndCache(t *testing.T) {
	d1, err := relkit.Describe(Account{})
	require.NoError(t, err)
	d2, err := relkit.Describe(&Account{})
	require.NoError(t, err)
	// Descriptors are cached per type and shared.
	assert.Same(t, d1, d2)
}

type namespaced struct {
	relkit.ReadOnly

	ID int `rel:"id,pk"`
}

func (namespaced) Table() string       { return "events" }
func (namespaced) TableSchema() string { return "audit" }

func TestDescribeNameOverrides(t *testing.T) {
	d, err := relkit.Describe(namespaced{})
	require.NoError(t, err)
	assert.Equal(t, "events", d.Name)
	assert.Equal(t, "audit", d.Schema)
	assert.Equal(t, "audit.events", d.QualifiedName())
}

type timestamps struct {
	CreatedAt time.Time `rel:"created_at"`
	UpdatedAt time.Time `rel:"updated_at"`
}

type withEmbed struct {
	relkit.CRUD

	ID int `rel:"id,pk"`
	timestamps
}

func TestDescribeEmbeddedFields(t *testing.T) {
	d, err := relkit.Describe(withEmbed{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "created_at", "updated_at"}, d.Names())
	c, ok := d.Column("updated_at")
	require.True(t, ok)
	// Embedded fields keep a multi-level index for scanning.
	assert.Equal(t, []int{2, 1}, c.FieldIndex)
}

func TestDescribeErrors(t *testing.T) {
	type noPK struct {
		Name string `rel:"name"`
	}
	type dup struct {
		ID   int    `rel:"id,pk"`
		Name string `rel:"id"`
	}
	type badType struct {
		ID   int `rel:"id,pk"`
		Tags map[string]string
	}
	type badOpt struct {
		ID int `rel:"id,pk,index"`
	}
	type badName struct {
		ID int `rel:"drop table;,pk"`
	}
	type unmapped struct {
		ID     int    `rel:"id,pk"`
		Secret string `rel:"-"`
	}
	type empty struct{}

	for name, rec := range map[string]any{
		"no primary key":   noPK{},
		"duplicate column": dup{},
		"unsupported type": badType{},
		"bad tag option":   badOpt{},
		"bad column name":  badName{},
		"unmapped field":   unmapped{},
		"no columns":       empty{},
		"non-struct":       42,
		"nil":              nil,
	} {
		_, err := relkit.Describe(rec)
		require.Error(t, err, name)
		assert.True(t, relkit.IsSchemaError(err), name)
	}
}

func TestDescribeUnexportedField(t *testing.T) {
	type hidden struct {
		ID      int `rel:"id,pk"`
		private string
	}
	_, err := relkit.Describe(hidden{})
	require.Error(t, err)
	assert.True(t, relkit.IsSchemaError(err))
	assert.Contains(t, err.Error(), "unexported field")
}
