package relkit

import (
	"context"
	"log/slog"
	"reflect"
	"sync"

	"github.com/relkit/relkit/dialect"
	sqldialect "github.com/relkit/relkit/dialect/sql"
	"github.com/relkit/relkit/schema"
)

// ParameterBindLimit is the maximum number of bound parameters a single
// statement may carry. Bulk inserts are chunked so that no chunk exceeds it.
const ParameterBindLimit = 1<<16 - 1

// Registry binds record types to one database driver. Descriptors and
// capability sets are resolved once at registration and are read-only
// afterwards, so a Registry is safe for concurrent use once populated.
type Registry struct {
	drv dialect.Driver
	log *slog.Logger

	mu    sync.RWMutex
	descs map[string]*schema.Descriptor
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for integrity-violation reports.
// It defaults to slog.Default.
func WithLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.log = log
	}
}

// NewRegistry returns a Registry executing against the given driver.
func NewRegistry(drv dialect.Driver, opts ...RegistryOption) *Registry {
	r := &Registry{
		drv:   drv,
		log:   slog.Default(),
		descs: make(map[string]*schema.Descriptor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Driver returns the driver the registry executes against.
func (r *Registry) Driver() dialect.Driver {
	return r.drv
}

// Descriptor returns the descriptor of a registered relation by name.
func (r *Registry) Descriptor(name string) (*schema.Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descs[name]
	return d, ok
}

// Relations returns the names of all registered relations.
func (r *Registry) Relations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.descs))
	for name := range r.descs {
		names = append(names, name)
	}
	return names
}

func (r *Registry) add(d *schema.Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.descs[d.Name]; ok {
		return NewSchemaError(d.Name, "relation %s is already registered", d.Name)
	}
	r.descs[d.Name] = d
	return nil
}

// Relation pairs a record type with its descriptor, capability set, and
// driver. It is constructed once by Register and shared read-only across
// concurrent requests.
type Relation[T any] struct {
	reg  *Registry
	desc *schema.Descriptor
	caps Capability
}

// Register derives the descriptor and capability set for T and binds them
// to the registry's driver. It fails with a SchemaError when T cannot be
// mapped to a relation, or when another type already claimed the relation
// name; the failure happens here, at startup, never lazily on first use.
func Register[T any](reg *Registry) (*Relation[T], error) {
	var zero T
	desc, err := Describe(zero)
	if err != nil {
		return nil, err
	}
	if err := reg.add(desc); err != nil {
		return nil, err
	}
	return &Relation[T]{
		reg:  reg,
		desc: desc,
		caps: Resolve(zero),
	}, nil
}

// MustRegister is like Register but panics on error. It is intended for
// process-startup wiring where a schema failure should abort boot.
func MustRegister[T any](reg *Registry) *Relation[T] {
	rel, err := Register[T](reg)
	if err != nil {
		panic(err)
	}
	return rel
}

// Name returns the relation name.
func (r *Relation[T]) Name() string {
	return r.desc.Name
}

// Capabilities returns the capability set resolved at registration.
func (r *Relation[T]) Capabilities() Capability {
	return r.caps
}

// Columns returns a copy of the ordered column metadata, for use in
// caller-written logic outside the generated handlers.
func (r *Relation[T]) Columns() []schema.Column {
	cols := make([]schema.Column, len(r.desc.Columns))
	copy(cols, r.desc.Columns)
	return cols
}

// Descriptor returns the relation descriptor. It is shared and read-only;
// callers must not mutate it.
func (r *Relation[T]) Descriptor() *schema.Descriptor {
	return r.desc
}

func (r *Relation[T]) require(c Capability) error {
	if !r.caps.Has(c) {
		return NewUnsupportedOperationError(r.desc.Name, c)
	}
	return nil
}

// Create inserts rec and returns the stored record with server-populated
// columns filled in.
func (r *Relation[T]) Create(ctx context.Context, rec T) (T, error) {
	var zero T
	if err := r.require(CapabilityCreate); err != nil {
		return zero, err
	}
	stmt, err := Build(r.desc, r.dialect(), Request{Op: OpCreate, Values: r.insertValues(rec)})
	if err != nil {
		return zero, err
	}
	if stmt.Shape == ShapeSingle {
		recs, err := r.queryRecords(ctx, stmt)
		if err != nil {
			return zero, err
		}
		if len(recs) != 1 {
			r.logIntegrity("create", len(recs))
			return zero, NewIntegrityErrorWithCount(r.desc.Name, len(recs))
		}
		return recs[0], nil
	}
	// The dialect has no RETURNING support. Fill a generated integer key
	// from the insert id; other server defaults stay unpopulated.
	res, err := r.exec(ctx, stmt)
	if err != nil {
		return zero, err
	}
	if pk := r.desc.PrimaryKey(); len(pk) == 1 && pk[0].Auto && pk[0].Kind == schema.KindInt {
		if id, err := res.LastInsertId(); err == nil {
			rv := reflect.ValueOf(&rec).Elem()
			rv.FieldByIndex(pk[0].FieldIndex).SetInt(id)
		}
	}
	return rec, nil
}

// CreateBulk inserts all records in chunks sized by ParameterBindLimit.
// Each chunk is one multi-row INSERT and all chunks run in one transaction,
// so a mid-batch failure leaves nothing behind. Records are stored as given,
// with no server-populated columns read back.
func (r *Relation[T]) CreateBulk(ctx context.Context, recs []T) error {
	if err := r.require(CapabilityCreate); err != nil {
		return err
	}
	cols := len(r.desc.Insertable())
	if cols == 0 {
		return NewSchemaError(r.desc.Name, "relation %s has no insertable columns", r.desc.Name)
	}
	if len(recs) == 0 {
		return nil
	}
	tx, err := r.reg.drv.Tx(ctx)
	if err != nil {
		return classify(err)
	}
	chunk := ParameterBindLimit / cols
	for start := 0; start < len(recs); start += chunk {
		end := min(start+chunk, len(recs))
		rows := make([][]any, 0, end-start)
		for _, rec := range recs[start:end] {
			rows = append(rows, r.insertValues(rec))
		}
		stmt, err := buildBulkInsert(r.desc, r.dialect(), rows)
		if err != nil {
			tx.Rollback()
			return err
		}
		var res sqldialect.Result
		if err := tx.Exec(ctx, stmt.Text, stmt.Args, &res); err != nil {
			tx.Rollback()
			return classify(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return classify(err)
	}
	return nil
}

// Get returns the record with the given primary key. Composite keys are
// passed in primary-key column order. It fails with a NotFoundError when no
// row matches and an IntegrityError when more than one does.
func (r *Relation[T]) Get(ctx context.Context, key ...any) (T, error) {
	var zero T
	if err := r.require(CapabilityRead); err != nil {
		return zero, err
	}
	return r.fetch(ctx, "get", key)
}

// fetch runs the keyed read without a capability check. Update re-reads
// through it on dialects without RETURNING, where the relation may not
// declare read at all.
func (r *Relation[T]) fetch(ctx context.Context, op string, key []any) (T, error) {
	var zero T
	stmt, err := Build(r.desc, r.dialect(), Request{Op: OpRead, Key: key})
	if err != nil {
		return zero, err
	}
	recs, err := r.queryRecords(ctx, stmt)
	if err != nil {
		return zero, err
	}
	switch len(recs) {
	case 0:
		return zero, NewNotFoundErrorWithKey(r.desc.Name, keyString(key))
	case 1:
		return recs[0], nil
	default:
		r.logIntegrity(op, len(recs))
		return zero, NewIntegrityErrorWithCount(r.desc.Name, len(recs))
	}
}

// ListQuery carries the optional filter and pagination of a List call.
// The zero value returns the full result set, ordered by primary key.
type ListQuery struct {
	Predicates []Predicate
	Limit      *int
	Offset     *int
}

// List returns records matching the query, ordered by primary key. An empty
// result is not an error. Pagination is restartable: re-issuing the query
// with a shifted offset continues the listing.
func (r *Relation[T]) List(ctx context.Context, q ListQuery) ([]T, error) {
	if err := r.require(CapabilityList); err != nil {
		return nil, err
	}
	stmt, err := Build(r.desc, r.dialect(), Request{
		Op:         OpList,
		Predicates: q.Predicates,
		Limit:      q.Limit,
		Offset:     q.Offset,
	})
	if err != nil {
		return nil, err
	}
	return r.queryRecords(ctx, stmt)
}

// Update applies the explicitly supplied column subset to the record with
// the given primary key and returns the updated record. It fails with an
// EmptyUpdateError when fields is empty, without touching the database.
func (r *Relation[T]) Update(ctx context.Context, fields map[string]any, key ...any) (T, error) {
	var zero T
	if err := r.require(CapabilityUpdate); err != nil {
		return zero, err
	}
	stmt, err := Build(r.desc, r.dialect(), Request{Op: OpUpdate, Fields: fields, Key: key})
	if err != nil {
		return zero, err
	}
	if stmt.Shape == ShapeSingle {
		recs, err := r.queryRecords(ctx, stmt)
		if err != nil {
			return zero, err
		}
		switch len(recs) {
		case 0:
			return zero, NewNotFoundErrorWithKey(r.desc.Name, keyString(key))
		case 1:
			return recs[0], nil
		default:
			r.logIntegrity("update", len(recs))
			return zero, NewIntegrityErrorWithCount(r.desc.Name, len(recs))
		}
	}
	res, err := r.exec(ctx, stmt)
	if err != nil {
		return zero, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return zero, err
	}
	switch {
	case n == 0:
		return zero, NewNotFoundErrorWithKey(r.desc.Name, keyString(key))
	case n > 1:
		r.logIntegrity("update", int(n))
		return zero, NewIntegrityErrorWithCount(r.desc.Name, int(n))
	}
	return r.fetch(ctx, "update", key)
}

// Delete removes the record with the given primary key. It fails with a
// NotFoundError when no row matches.
func (r *Relation[T]) Delete(ctx context.Context, key ...any) error {
	if err := r.require(CapabilityDelete); err != nil {
		return err
	}
	stmt, err := Build(r.desc, r.dialect(), Request{Op: OpDelete, Key: key})
	if err != nil {
		return err
	}
	res, err := r.exec(ctx, stmt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	switch {
	case n == 0:
		return NewNotFoundErrorWithKey(r.desc.Name, keyString(key))
	case n > 1:
		r.logIntegrity("delete", int(n))
		return NewIntegrityErrorWithCount(r.desc.Name, int(n))
	}
	return nil
}

// DeleteAll removes every record of the relation and returns the number of
// rows deleted. It is a library-level operation; no handler is generated
// for it.
func (r *Relation[T]) DeleteAll(ctx context.Context) (int64, error) {
	if err := r.require(CapabilityDelete); err != nil {
		return 0, err
	}
	res, err := r.exec(ctx, buildDeleteAll(r.desc))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Relation[T]) dialect() string {
	return r.reg.drv.Dialect()
}

// exec runs a statement that reports an affected-row count.
func (r *Relation[T]) exec(ctx context.Context, stmt *Statement) (sqldialect.Result, error) {
	var res sqldialect.Result
	if err := r.reg.drv.Exec(ctx, stmt.Text, stmt.Args, &res); err != nil {
		return nil, classify(err)
	}
	return res, nil
}

// queryRecords runs a row-returning statement and decodes every row into T.
func (r *Relation[T]) queryRecords(ctx context.Context, stmt *Statement) ([]T, error) {
	var rows sqldialect.Rows
	if err := r.reg.drv.Query(ctx, stmt.Text, stmt.Args, &rows); err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	recs := []T{}
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return recs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scan decodes one row into a fresh T, one destination per descriptor
// column, in descriptor column order.
func (r *Relation[T]) scan(row scanner) (T, error) {
	var rec T
	rv := reflect.ValueOf(&rec).Elem()
	dests := make([]any, len(r.desc.Columns))
	for i, c := range r.desc.Columns {
		dests[i] = rv.FieldByIndex(c.FieldIndex).Addr().Interface()
	}
	if err := row.Scan(dests...); err != nil {
		return rec, err
	}
	return rec, nil
}

// insertValues extracts the bind values for the insertable columns, in
// descriptor column order. The record is passed by value and never mutated.
func (r *Relation[T]) insertValues(rec T) []any {
	rv := reflect.ValueOf(&rec).Elem()
	cols := r.desc.Insertable()
	values := make([]any, len(cols))
	for i, c := range cols {
		values[i] = rv.FieldByIndex(c.FieldIndex).Interface()
	}
	return values
}

// Key returns rec's primary-key values in primary-key column order.
func (r *Relation[T]) Key(rec T) []any {
	rv := reflect.ValueOf(&rec).Elem()
	pk := r.desc.PrimaryKey()
	key := make([]any, len(pk))
	for i, c := range pk {
		key[i] = rv.FieldByIndex(c.FieldIndex).Interface()
	}
	return key
}

func (r *Relation[T]) logIntegrity(op string, count int) {
	r.reg.log.Error("primary-key filter matched multiple rows",
		"relation", r.desc.Name,
		"op", op,
		"count", count,
	)
}

// classify wraps driver errors into the relkit taxonomy: cancellation and
// transport failures get their own kinds, everything else passes through.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case sqldialect.IsCanceled(err):
		return NewCanceledError(err)
	case sqldialect.IsConnectionError(err):
		return NewConnectionError(err)
	default:
		return err
	}
}

func keyString(key []any) any {
	if len(key) == 1 {
		return key[0]
	}
	return key
}
