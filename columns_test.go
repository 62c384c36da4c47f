package relkit_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/relkit/relkit"
)

func TestTypedColumns(t *testing.T) {
	age := relkit.IntColumn("age")
	assert.Equal(t, "age", age.Name())
	assert.Equal(t, relkit.Predicate{Column: "age", Op: relkit.EQ, Value: int64(21)}, age.EQ(21))
	assert.Equal(t, relkit.Predicate{Column: "age", Op: relkit.GTE, Value: int64(21)}, age.GTE(21))
	assert.Equal(t, relkit.Predicate{Column: "age", Op: relkit.LT, Value: int64(65)}, age.LT(65))

	email := relkit.StringColumn("email")
	assert.Equal(t, relkit.Predicate{Column: "email", Op: relkit.EQ, Value: "a@b.c"}, email.EQ("a@b.c"))

	price := relkit.FloatColumn("price")
	assert.Equal(t, relkit.Predicate{Column: "price", Op: relkit.LTE, Value: 9.99}, price.LTE(9.99))

	active := relkit.BoolColumn("active")
	assert.Equal(t, relkit.Predicate{Column: "active", Op: relkit.EQ, Value: true}, active.EQ(true))

	now := time.Now()
	created := relkit.TimeColumn("created_at")
	assert.Equal(t, relkit.Predicate{Column: "created_at", Op: relkit.GT, Value: now}, created.GT(now))

	id := uuid.New()
	token := relkit.UUIDColumn("token")
	assert.Equal(t, relkit.Predicate{Column: "token", Op: relkit.EQ, Value: id}, token.EQ(id))

	raw := relkit.BytesColumn("payload")
	assert.Equal(t, relkit.Predicate{Column: "payload", Op: relkit.EQ, Value: []byte("x")}, raw.EQ([]byte("x")))
}

func TestPredOpString(t *testing.T) {
	assert.Equal(t, "=", relkit.EQ.String())
	assert.Equal(t, ">", relkit.GT.String())
	assert.Equal(t, ">=", relkit.GTE.String())
	assert.Equal(t, "<", relkit.LT.String())
	assert.Equal(t, "<=", relkit.LTE.String())
	assert.Equal(t, "<invalid>", relkit.PredOp(0).String())
	assert.Equal(t, "<invalid>", relkit.PredOp(99).String())
}
