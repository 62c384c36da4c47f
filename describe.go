package relkit

import (
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-openapi/inflect"
	"github.com/google/uuid"

	"github.com/relkit/relkit/schema"
)

// TableNamer overrides the relation name derived from the record type name.
type TableNamer interface {
	Table() string
}

// SchemaNamer places the relation in an explicit schema namespace.
type SchemaNamer interface {
	TableSchema() string
}

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})

	descriptors sync.Map // reflect.Type -> describeResult

	// validIdentRe bounds relation and column names to plain SQL
	// identifiers. Every name ends up in statement text, so nothing
	// quote-like may pass.
	validIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

func validIdent(s string) bool {
	return s != "" && len(s) <= 128 && validIdentRe.MatchString(s)
}

type describeResult struct {
	desc *schema.Descriptor
	err  error
}

// Describe derives the relation descriptor for the record type of rec.
// The result is deterministic, cached process-wide, and shared read-only;
// callers must not mutate it. It fails with a SchemaError when the type has
// no primary key, duplicate column names, or a field that does not map to a
// supported scalar type.
func Describe(rec any) (*schema.Descriptor, error) {
	t := reflect.TypeOf(rec)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, NewSchemaError(typeName(t), "record type must be a struct")
	}
	if r, ok := descriptors.Load(t); ok {
		res := r.(describeResult)
		return res.desc, res.err
	}
	desc, err := describe(t, rec)
	res, _ := descriptors.LoadOrStore(t, describeResult{desc: desc, err: err})
	return res.(describeResult).desc, res.(describeResult).err
}

func describe(t reflect.Type, rec any) (*schema.Descriptor, error) {
	d := &schema.Descriptor{Name: inflect.Tableize(t.Name())}
	if tn, ok := rec.(TableNamer); ok {
		d.Name = tn.Table()
	}
	if sn, ok := rec.(SchemaNamer); ok {
		d.Schema = sn.TableSchema()
	}
	if !validIdent(d.Name) {
		return nil, NewSchemaError(t.Name(), "invalid relation name %q", d.Name)
	}
	if d.Schema != "" && !validIdent(d.Schema) {
		return nil, NewSchemaError(t.Name(), "invalid schema name %q", d.Schema)
	}
	if err := appendColumns(d, t, nil); err != nil {
		return nil, err
	}
	if len(d.Columns) == 0 {
		return nil, NewSchemaError(t.Name(), "no columns declared")
	}
	seen := make(map[string]bool, len(d.Columns))
	for _, c := range d.Columns {
		if !validIdent(c.Name) {
			return nil, NewSchemaError(t.Name(), "invalid column name %q", c.Name)
		}
		if seen[c.Name] {
			return nil, NewSchemaError(t.Name(), "duplicate column %q", c.Name)
		}
		seen[c.Name] = true
	}
	if len(d.PrimaryKey()) == 0 {
		return nil, NewSchemaError(t.Name(), "no primary key declared")
	}
	return d, nil
}

func appendColumns(d *schema.Descriptor, t reflect.Type, index []int) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		fi := append(append([]int(nil), index...), i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			// Zero-field embeds are capability marker sets, not data.
			if f.Type.NumField() == 0 {
				continue
			}
			if err := appendColumns(d, f.Type, fi); err != nil {
				return err
			}
			continue
		}
		if !f.IsExported() {
			return NewSchemaError(t.Name(), "unexported field %s cannot be mapped to a column", f.Name)
		}
		col, err := column(t.Name(), f)
		if err != nil {
			return err
		}
		col.FieldIndex = fi
		d.Columns = append(d.Columns, col)
	}
	return nil
}

func column(typ string, f reflect.StructField) (schema.Column, error) {
	col := schema.Column{FieldName: f.Name}
	name, opts, _ := strings.Cut(f.Tag.Get("rel"), ",")
	if name == "-" {
		return col, NewSchemaError(typ, "field %s is explicitly unmapped", f.Name)
	}
	if name == "" {
		name = inflect.Underscore(f.Name)
	}
	col.Name = name
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		switch opt {
		case "pk":
			col.PrimaryKey = true
		case "auto":
			col.Auto = true
		case "":
		default:
			return col, NewSchemaError(typ, "field %s: unknown tag option %q", f.Name, opt)
		}
	}
	ft := f.Type
	if ft.Kind() == reflect.Pointer {
		col.Nullable = true
		ft = ft.Elem()
	}
	kind, ok := scalarKind(ft)
	if !ok {
		return col, NewSchemaError(typ, "field %s has unsupported type %s", f.Name, f.Type)
	}
	col.Kind = kind
	return col, nil
}

func scalarKind(t reflect.Type) (schema.Kind, bool) {
	switch t {
	case timeType:
		return schema.KindTime, true
	case uuidType:
		return schema.KindUUID, true
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return schema.KindInt, true
	case reflect.Float32, reflect.Float64:
		return schema.KindFloat, true
	case reflect.String:
		return schema.KindString, true
	case reflect.Bool:
		return schema.KindBool, true
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return schema.KindBytes, true
		}
	}
	return schema.KindInvalid, false
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.Name()
}
