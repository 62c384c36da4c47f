package relkit

import (
	"context"
	"encoding/json"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/relkit/relkit/schema"
)

// Input is the structured request data a handler inspects. The surrounding
// framework owns routing and body reading; the core only looks at the
// primary-key value, the body fields, and the filter and pagination
// parameters.
type Input struct {
	// Key is the raw primary-key value from the item path. Composite keys
	// are comma-separated, in primary-key column order.
	Key string
	// Body is the raw request body for create and update.
	Body []byte
	// Query holds the list filter and pagination parameters.
	Query url.Values
}

// OutputKind tags what a successful handler invocation produced.
type OutputKind uint8

const (
	// Created is the result of a create handler.
	Created OutputKind = iota + 1
	// Found is the result of a read handler.
	Found
	// Listed is the result of a list handler.
	Listed
	// Updated is the result of an update handler.
	Updated
	// Deleted is the result of a delete handler. It carries no record.
	Deleted
)

// Output is the structured result of a handler invocation. Record holds a
// single record for Created, Found, and Updated; Records holds the ordered
// sequence for Listed.
type Output struct {
	Kind    OutputKind
	Record  any
	Records any
}

// Handler is the framework-agnostic handler signature: structured input to
// structured output or error. Transport adapters map Output kinds and the
// error taxonomy to wire responses.
type Handler func(ctx context.Context, in Input) (*Output, error)

// Handler returns the handler bound to the given verb. It fails with an
// UnsupportedOperationError when the record type does not declare the
// capability; the check happens here, once, not per request.
func (r *Relation[T]) Handler(c Capability) (Handler, error) {
	if err := r.require(c); err != nil {
		return nil, err
	}
	switch c {
	case CapabilityCreate:
		return r.createHandler, nil
	case CapabilityRead:
		return r.readHandler, nil
	case CapabilityUpdate:
		return r.updateHandler, nil
	case CapabilityDelete:
		return r.deleteHandler, nil
	case CapabilityList:
		return r.listHandler, nil
	default:
		return nil, NewUnsupportedOperationError(r.desc.Name, c)
	}
}

// Handlers returns one handler per declared capability.
func (r *Relation[T]) Handlers() map[Capability]Handler {
	handlers := make(map[Capability]Handler)
	for _, c := range []Capability{CapabilityCreate, CapabilityRead, CapabilityUpdate, CapabilityDelete, CapabilityList} {
		if h, err := r.Handler(c); err == nil {
			handlers[c] = h
		}
	}
	return handlers
}

func (r *Relation[T]) createHandler(ctx context.Context, in Input) (*Output, error) {
	rec, err := r.decodeRecord(in.Body)
	if err != nil {
		return nil, err
	}
	created, err := r.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	return &Output{Kind: Created, Record: created}, nil
}

func (r *Relation[T]) readHandler(ctx context.Context, in Input) (*Output, error) {
	key, err := r.decodeKey(in.Key)
	if err != nil {
		return nil, err
	}
	rec, err := r.Get(ctx, key...)
	if err != nil {
		return nil, err
	}
	return &Output{Kind: Found, Record: rec}, nil
}

func (r *Relation[T]) listHandler(ctx context.Context, in Input) (*Output, error) {
	q, err := r.decodeListQuery(in.Query)
	if err != nil {
		return nil, err
	}
	recs, err := r.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &Output{Kind: Listed, Records: recs}, nil
}

func (r *Relation[T]) updateHandler(ctx context.Context, in Input) (*Output, error) {
	key, err := r.decodeKey(in.Key)
	if err != nil {
		return nil, err
	}
	fields, err := r.decodeFields(in.Body)
	if err != nil {
		return nil, err
	}
	rec, err := r.Update(ctx, fields, key...)
	if err != nil {
		return nil, err
	}
	return &Output{Kind: Updated, Record: rec}, nil
}

func (r *Relation[T]) deleteHandler(ctx context.Context, in Input) (*Output, error) {
	key, err := r.decodeKey(in.Key)
	if err != nil {
		return nil, err
	}
	if err := r.Delete(ctx, key...); err != nil {
		return nil, err
	}
	return &Output{Kind: Deleted}, nil
}

// decodeRecord decodes a create body, keyed by column name, into a fresh T.
// Unknown keys and keys addressing server-generated columns are rejected.
func (r *Relation[T]) decodeRecord(body []byte) (T, error) {
	var rec T
	raw, err := decodeBody(body)
	if err != nil {
		return rec, err
	}
	rv := reflect.ValueOf(&rec).Elem()
	for name, msg := range raw {
		col, ok := r.desc.Column(name)
		if !ok {
			return rec, NewInvalidFilterError(name, "column not declared on relation %s", r.desc.Name)
		}
		if col.Auto {
			return rec, NewInvalidFilterError(name, "server-generated column cannot be supplied")
		}
		fv := rv.FieldByIndex(col.FieldIndex)
		if err := json.Unmarshal(msg, fv.Addr().Interface()); err != nil {
			return rec, NewInvalidFilterError(name, "cannot decode value: %v", err)
		}
	}
	return rec, nil
}

// decodeFields decodes an update body into the explicit column subset.
// Values for declared, updatable columns are decoded to the field's Go
// type; unknown or reserved names are left to the builder to reject.
func (r *Relation[T]) decodeFields(body []byte) (map[string]any, error) {
	raw, err := decodeBody(body)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]any, len(raw))
	for name, msg := range raw {
		col, ok := r.desc.Column(name)
		if !ok || col.PrimaryKey || col.Auto {
			// Recorded with a nil value so the builder reports the
			// proper InvalidFilterError for the name.
			fields[name] = nil
			continue
		}
		fv := reflect.New(r.fieldType(col))
		if err := json.Unmarshal(msg, fv.Interface()); err != nil {
			return nil, NewInvalidFilterError(name, "cannot decode value: %v", err)
		}
		fields[name] = fv.Elem().Interface()
	}
	return fields, nil
}

func decodeBody(body []byte) (map[string]json.RawMessage, error) {
	raw := make(map[string]json.RawMessage)
	if len(body) == 0 {
		return raw, nil
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, NewInvalidFilterError("", "malformed body: %v", err)
	}
	return raw, nil
}

// decodeKey parses the raw key segment into typed primary-key values.
func (r *Relation[T]) decodeKey(raw string) ([]any, error) {
	pk := r.desc.PrimaryKey()
	parts := strings.Split(raw, ",")
	if raw == "" || len(parts) != len(pk) {
		return nil, NewInvalidFilterError("", "key expects %d values, got %q", len(pk), raw)
	}
	key := make([]any, len(pk))
	for i, c := range pk {
		v, err := parseScalar(c, parts[i])
		if err != nil {
			return nil, err
		}
		key[i] = v
	}
	return key, nil
}

// List query parameters: limit and offset paginate; any other parameter is
// a filter over a declared column, either plain equality ("active=true") or
// a range with an operator suffix ("age.gte=21").
var rangeOps = map[string]PredOp{
	"gte": GTE,
	"gt":  GT,
	"lte": LTE,
	"lt":  LT,
}

func (r *Relation[T]) decodeListQuery(query url.Values) (ListQuery, error) {
	var q ListQuery
	// Parameters are processed in sorted order so the rendered statement
	// is deterministic for a given query.
	names := make([]string, 0, len(query))
	for name := range query {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		vals := query[name]
		if len(vals) == 0 {
			continue
		}
		switch name {
		case "limit":
			n, err := parsePage(name, vals[0])
			if err != nil {
				return q, err
			}
			q.Limit = &n
		case "offset":
			n, err := parsePage(name, vals[0])
			if err != nil {
				return q, err
			}
			q.Offset = &n
		default:
			column, op := name, EQ
			if base, suffix, ok := strings.Cut(name, "."); ok {
				rop, known := rangeOps[suffix]
				if !known {
					return q, NewInvalidFilterError(name, "unknown range operator %q", suffix)
				}
				column, op = base, rop
			}
			col, ok := r.desc.Column(column)
			if !ok {
				return q, NewInvalidFilterError(column, "column not declared on relation %s", r.desc.Name)
			}
			for _, val := range vals {
				v, err := parseScalar(col, val)
				if err != nil {
					return q, err
				}
				q.Predicates = append(q.Predicates, Predicate{Column: col.Name, Op: op, Value: v})
			}
		}
	}
	return q, nil
}

func parsePage(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, NewInvalidFilterError("", "%s must be an integer, got %q", name, raw)
	}
	if n < 0 {
		return 0, NewInvalidFilterError("", "%s must be non-negative, got %d", name, n)
	}
	return n, nil
}

// parseScalar converts one textual parameter into the column's scalar type.
func parseScalar(col schema.Column, raw string) (any, error) {
	switch col.Kind {
	case schema.KindInt:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, NewInvalidFilterError(col.Name, "expected integer, got %q", raw)
		}
		return v, nil
	case schema.KindFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, NewInvalidFilterError(col.Name, "expected float, got %q", raw)
		}
		return v, nil
	case schema.KindBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, NewInvalidFilterError(col.Name, "expected boolean, got %q", raw)
		}
		return v, nil
	case schema.KindUUID:
		v, err := uuid.Parse(raw)
		if err != nil {
			return nil, NewInvalidFilterError(col.Name, "expected uuid, got %q", raw)
		}
		return v, nil
	case schema.KindTime:
		v, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, NewInvalidFilterError(col.Name, "expected RFC 3339 timestamp, got %q", raw)
		}
		return v, nil
	case schema.KindString:
		return raw, nil
	default:
		return nil, NewInvalidFilterError(col.Name, "type %s cannot be filtered from text", col.Kind)
	}
}

// fieldType returns the Go type backing the column's struct field.
func (r *Relation[T]) fieldType(col schema.Column) reflect.Type {
	return reflect.TypeFor[T]().FieldByIndex(col.FieldIndex).Type
}
