package relkit_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/relkit/relkit"
	"github.com/relkit/relkit/dialect"
	rsql "github.com/relkit/relkit/dialect/sql"
)

type item struct {
	relkit.CRUD

	ID    int64   `rel:"id,pk,auto"`
	Name  string  `rel:"name"`
	Qty   int64   `rel:"qty"`
	Price float64 `rel:"price"`
	Note  *string `rel:"note"`
}

func sqliteRelation(t *testing.T) *relkit.Relation[item] {
	t.Helper()
	drv, err := rsql.Open(dialect.SQLite, ":memory:")
	require.NoError(t, err)
	// An in-memory database exists per connection.
	drv.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { drv.Close() })

	err = drv.Exec(context.Background(), `CREATE TABLE items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		qty INTEGER NOT NULL,
		price REAL NOT NULL,
		note TEXT
	)`, []any{}, nil)
	require.NoError(t, err)

	reg := relkit.NewRegistry(rsql.OpenDB(dialect.SQLite, drv.DB()))
	return relkit.MustRegister[item](reg)
}

func TestSQLiteRoundTrip(t *testing.T) {
	items := sqliteRelation(t)
	ctx := context.Background()

	created, err := items.Create(ctx, item{Name: "bolt", Qty: 100, Price: 0.05})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Nil(t, created.Note)

	got, err := items.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	note := "restock soon"
	updated, err := items.Update(ctx, map[string]any{"qty": 42, "note": note}, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), updated.Qty)
	require.NotNil(t, updated.Note)
	assert.Equal(t, note, *updated.Note)

	require.NoError(t, items.Delete(ctx, created.ID))
	_, err = items.Get(ctx, created.ID)
	assert.True(t, relkit.IsNotFound(err))
	err = items.Delete(ctx, created.ID)
	assert.True(t, relkit.IsNotFound(err))
}

func TestSQLiteListFilters(t *testing.T) {
	items := sqliteRelation(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		_, err := items.Create(ctx, item{Name: fmt.Sprintf("part-%d", i), Qty: int64(i * 10), Price: float64(i)})
		require.NoError(t, err)
	}

	all, err := items.List(ctx, relkit.ListQuery{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}

	recs, err := items.List(ctx, relkit.ListQuery{
		Predicates: []relkit.Predicate{relkit.FieldGTE("qty", 30), relkit.FieldLT("price", 5)},
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "part-3", recs[0].Name)
	assert.Equal(t, "part-4", recs[1].Name)
}

// Walking the listing with a fixed limit and advancing offset visits every
// record exactly once, in primary-key order.
func TestSQLitePaginationPartition(t *testing.T) {
	items := sqliteRelation(t)
	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		_, err := items.Create(ctx, item{Name: fmt.Sprintf("part-%d", i), Qty: int64(i), Price: 1})
		require.NoError(t, err)
	}
	all, err := items.List(ctx, relkit.ListQuery{})
	require.NoError(t, err)

	limit := 3
	var walked []item
	for offset := 0; ; offset += limit {
		o := offset
		page, err := items.List(ctx, relkit.ListQuery{Limit: &limit, Offset: &o})
		require.NoError(t, err)
		walked = append(walked, page...)
		if len(page) < limit {
			break
		}
	}
	assert.Equal(t, all, walked)
}

// The relation operations flow through a stats-wrapped driver unchanged,
// and the wrapper sees every statement, including the bulk-insert
// transaction.
func TestSQLiteStatsDriver(t *testing.T) {
	drv, err := rsql.Open(dialect.SQLite, ":memory:")
	require.NoError(t, err)
	// An in-memory database exists per connection.
	drv.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { drv.Close() })

	err = drv.Exec(context.Background(), `CREATE TABLE items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		qty INTEGER NOT NULL,
		price REAL NOT NULL,
		note TEXT
	)`, []any{}, nil)
	require.NoError(t, err)

	var slow []string
	stats := rsql.NewStatsDriver(drv,
		rsql.WithSlowThreshold(0),
		rsql.WithSlowQueryHook(func(_ context.Context, query string, _ []any, _ time.Duration) {
			slow = append(slow, query)
		}),
	)
	reg := relkit.NewRegistry(stats)
	items := relkit.MustRegister[item](reg)
	ctx := context.Background()

	created, err := items.Create(ctx, item{Name: "bolt", Qty: 1, Price: 0.05})
	require.NoError(t, err)
	_, err = items.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NoError(t, items.CreateBulk(ctx, []item{
		{Name: "nut", Qty: 2, Price: 0.02},
		{Name: "washer", Qty: 3, Price: 0.01},
	}))

	snap := stats.QueryStats().Stats()
	// Create and Get are row-returning; the bulk chunk is an exec inside
	// the transaction.
	assert.GreaterOrEqual(t, snap.TotalQueries, int64(2))
	assert.GreaterOrEqual(t, snap.TotalExecs, int64(1))
	assert.Equal(t, int64(0), snap.Errors)
	assert.Positive(t, snap.TotalDuration)
	require.NotEmpty(t, slow)
	var sawInsert bool
	for _, q := range slow {
		sawInsert = sawInsert || strings.HasPrefix(q, "INSERT INTO items")
	}
	assert.True(t, sawInsert)
}

func TestSQLiteCreateBulk(t *testing.T) {
	items := sqliteRelation(t)
	ctx := context.Background()

	batch := make([]item, 25)
	for i := range batch {
		batch[i] = item{Name: fmt.Sprintf("bulk-%d", i), Qty: int64(i), Price: 1}
	}
	require.NoError(t, items.CreateBulk(ctx, batch))

	all, err := items.List(ctx, relkit.ListQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 25)

	n, err := items.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(25), n)
	all, err = items.List(ctx, relkit.ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, all)
}
