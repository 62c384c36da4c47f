// Package load reads a relkit generation config and resolves the record
// types it names from their compiled package, producing the column metadata
// the generator consumes. The resolution rules match what relkit.Describe
// applies at runtime, so generated declarations and runtime descriptors
// always agree.
package load

import (
	"fmt"
	"go/types"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-openapi/inflect"
	"golang.org/x/tools/go/packages"
	"gopkg.in/yaml.v3"

	"github.com/relkit/relkit/schema"
)

// Config is the content of a relkit.yaml generation config.
type Config struct {
	// Package is the Go package pattern holding the record types.
	Package string `yaml:"package"`
	// Output is the directory generated files are written to.
	// It defaults to the directory of the loaded package.
	Output string `yaml:"output,omitempty"`
	// Records lists the record types to generate declarations for.
	Records []RecordConfig `yaml:"records"`
}

// RecordConfig selects one record type and the operations it exposes.
type RecordConfig struct {
	Type string `yaml:"type"`
	// Capabilities holds a subset of create, read, update, delete
	// and list. Empty means all five.
	Capabilities []string `yaml:"capabilities,omitempty"`
}

// Record is a record type resolved from a compiled package.
type Record struct {
	// Name is the Go type name.
	Name string
	// Package is the name of the package declaring the type.
	Package string
	// Dir is the directory of the package declaring the type.
	Dir string
	// Table is the relation name derived from the type name.
	Table string
	// Capabilities holds the operation names from the config.
	Capabilities []string
	// Columns holds the resolved column metadata in field order.
	Columns []Column
}

// Column is one persisted field of a record type.
type Column struct {
	// FieldName is the Go field name.
	FieldName string
	// Name is the column name.
	Name string
	// Kind is the scalar kind of the column.
	Kind schema.Kind
	// Nullable reports whether the field is a pointer.
	Nullable bool
	// PrimaryKey reports whether the column carries the pk tag option.
	PrimaryKey bool
	// Auto reports whether the column carries the auto tag option.
	Auto bool
}

var capabilityNames = map[string]bool{
	"create": true,
	"read":   true,
	"update": true,
	"delete": true,
	"list":   true,
}

// ReadConfig reads and validates a generation config file.
func ReadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: read config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("load: parse config %s: %w", path, err)
	}
	if cfg.Package == "" {
		return nil, fmt.Errorf("load: config %s: missing package", path)
	}
	if len(cfg.Records) == 0 {
		return nil, fmt.Errorf("load: config %s: no records", path)
	}
	for _, rc := range cfg.Records {
		if rc.Type == "" {
			return nil, fmt.Errorf("load: config %s: record with no type", path)
		}
		for _, c := range rc.Capabilities {
			if !capabilityNames[c] {
				return nil, fmt.Errorf("load: record %s: unknown capability %q", rc.Type, c)
			}
		}
	}
	return cfg, nil
}

// Load type-checks the configured package and resolves every configured
// record type into its column metadata.
func Load(cfg *Config) ([]*Record, error) {
	pkgs, err := packages.Load(&packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedFiles,
	}, cfg.Package)
	if err != nil {
		return nil, fmt.Errorf("load: package %s: %w", cfg.Package, err)
	}
	if len(pkgs) != 1 {
		return nil, fmt.Errorf("load: pattern %s matched %d packages", cfg.Package, len(pkgs))
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, fmt.Errorf("load: package %s: %v", cfg.Package, pkg.Errors[0])
	}
	records := make([]*Record, 0, len(cfg.Records))
	for _, rc := range cfg.Records {
		rec, err := resolve(pkg, rc)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func resolve(pkg *packages.Package, rc RecordConfig) (*Record, error) {
	obj := pkg.Types.Scope().Lookup(rc.Type)
	if obj == nil {
		return nil, fmt.Errorf("load: type %s not found in package %s", rc.Type, pkg.PkgPath)
	}
	tn, ok := obj.(*types.TypeName)
	if !ok {
		return nil, fmt.Errorf("load: %s is not a type", rc.Type)
	}
	st, ok := tn.Type().Underlying().(*types.Struct)
	if !ok {
		return nil, fmt.Errorf("load: type %s is not a struct", rc.Type)
	}
	rec := &Record{
		Name:         rc.Type,
		Package:      pkg.Name,
		Table:        inflect.Tableize(rc.Type),
		Capabilities: rc.Capabilities,
	}
	if len(pkg.GoFiles) > 0 {
		rec.Dir = filepath.Dir(pkg.GoFiles[0])
	}
	if len(rec.Capabilities) == 0 {
		rec.Capabilities = []string{"create", "read", "update", "delete", "list"}
	}
	if err := appendColumns(rec, st); err != nil {
		return nil, err
	}
	if len(rec.Columns) == 0 {
		return nil, fmt.Errorf("load: type %s has no columns", rc.Type)
	}
	seen := make(map[string]bool, len(rec.Columns))
	pk := false
	for _, c := range rec.Columns {
		if seen[c.Name] {
			return nil, fmt.Errorf("load: type %s: duplicate column %q", rc.Type, c.Name)
		}
		seen[c.Name] = true
		pk = pk || c.PrimaryKey
	}
	if !pk {
		return nil, fmt.Errorf("load: type %s has no primary key column", rc.Type)
	}
	return rec, nil
}

func appendColumns(rec *Record, st *types.Struct) error {
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if f.Embedded() {
			es, ok := f.Type().Underlying().(*types.Struct)
			if !ok {
				return fmt.Errorf("load: type %s: embedded non-struct field %s", rec.Name, f.Name())
			}
			// Zero-field embedded structs are capability markers.
			if es.NumFields() == 0 {
				continue
			}
			if err := appendColumns(rec, es); err != nil {
				return err
			}
			continue
		}
		if !f.Exported() {
			return fmt.Errorf("load: type %s: unexported field %s", rec.Name, f.Name())
		}
		col, err := column(rec.Name, f, st.Tag(i))
		if err != nil {
			return err
		}
		rec.Columns = append(rec.Columns, col)
	}
	return nil
}

var validIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func column(typeName string, f *types.Var, tag string) (Column, error) {
	col := Column{
		FieldName: f.Name(),
		Name:      inflect.Underscore(f.Name()),
	}
	rel := reflect.StructTag(tag).Get("rel")
	if rel == "-" {
		return col, fmt.Errorf("load: type %s: field %s is explicitly unmapped", typeName, f.Name())
	}
	if rel != "" {
		parts := strings.Split(rel, ",")
		if parts[0] != "" {
			col.Name = parts[0]
		}
		for _, opt := range parts[1:] {
			switch opt {
			case "pk":
				col.PrimaryKey = true
			case "auto":
				col.Auto = true
			default:
				return col, fmt.Errorf("load: field %s.%s: unknown tag option %q", typeName, f.Name(), opt)
			}
		}
	}
	if !validIdentRe.MatchString(col.Name) || len(col.Name) > 128 {
		return col, fmt.Errorf("load: field %s.%s: invalid column name %q", typeName, f.Name(), col.Name)
	}
	t := f.Type()
	if ptr, ok := t.(*types.Pointer); ok {
		col.Nullable = true
		t = ptr.Elem()
	}
	kind, ok := scalarKind(t)
	if !ok {
		return col, fmt.Errorf("load: field %s.%s: unsupported type %s", typeName, f.Name(), f.Type())
	}
	col.Kind = kind
	return col, nil
}

func scalarKind(t types.Type) (schema.Kind, bool) {
	if named, ok := t.(*types.Named); ok {
		obj := named.Obj()
		if pkg := obj.Pkg(); pkg != nil {
			switch pkg.Path() + "." + obj.Name() {
			case "time.Time":
				return schema.KindTime, true
			case "github.com/google/uuid.UUID":
				return schema.KindUUID, true
			}
		}
	}
	switch u := t.Underlying().(type) {
	case *types.Basic:
		switch {
		case u.Info()&types.IsBoolean != 0:
			return schema.KindBool, true
		case u.Info()&types.IsInteger != 0:
			return schema.KindInt, true
		case u.Info()&types.IsFloat != 0:
			return schema.KindFloat, true
		case u.Info()&types.IsString != 0:
			return schema.KindString, true
		}
	case *types.Slice:
		if b, ok := u.Elem().Underlying().(*types.Basic); ok && b.Kind() == types.Byte {
			return schema.KindBytes, true
		}
	}
	return schema.KindInvalid, false
}
