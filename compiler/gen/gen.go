// Package gen emits Go declarations for loaded record types: the
// capability marker methods that opt a type into its operations, and
// typed column handles for building filters. One file is written per
// record, next to the package that declares it.
package gen

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/relkit/relkit/compiler/load"
	"github.com/relkit/relkit/schema"
)

const relkitPkg = "github.com/relkit/relkit"

// Generator emits one generated file per record.
type Generator struct {
	records []*load.Record
	outDir  string
	workers int
}

// Option configures a Generator.
type Option func(*Generator)

// WithWorkers bounds the number of files generated concurrently.
func WithWorkers(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.workers = n
		}
	}
}

// New returns a Generator for the given records. If outDir is empty,
// each file is written to the directory of its record's package.
func New(records []*load.Record, outDir string, opts ...Option) *Generator {
	g := &Generator{
		records: records,
		outDir:  outDir,
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate writes all record files. Records are emitted concurrently
// and the first failure aborts the run.
func (g *Generator) Generate(ctx context.Context) error {
	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(g.workers)
	for _, rec := range g.records {
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return g.emit(rec)
		})
	}
	return grp.Wait()
}

func (g *Generator) emit(rec *load.Record) error {
	dir := g.outDir
	if dir == "" {
		dir = rec.Dir
	}
	path := filepath.Join(dir, inflect.Underscore(rec.Name)+"_relkit.go")
	if err := g.file(rec).Save(path); err != nil {
		return fmt.Errorf("gen: %s: %w", rec.Name, err)
	}
	return nil
}

var title = cases.Title(language.Und, cases.NoLower)

func (g *Generator) file(rec *load.Record) *jen.File {
	f := jen.NewFile(rec.Package)
	f.HeaderComment("Code generated by relkit gen. DO NOT EDIT.")
	for _, c := range rec.Capabilities {
		method := "Can" + title.String(c)
		f.Commentf("%s marks %s records %s.", method, rec.Name, capabilityVerb(c))
		f.Func().Params(jen.Id(rec.Name)).Id(method).Params().Block()
	}
	f.Commentf("Typed column handles for filtering %s lists.", rec.Name)
	f.Var().DefsFunc(func(defs *jen.Group) {
		for _, c := range rec.Columns {
			defs.Id(rec.Name + c.FieldName).Op("=").Qual(relkitPkg, columnType(c.Kind)).Call(jen.Lit(c.Name))
		}
	})
	return f
}

func capabilityVerb(c string) string {
	switch c {
	case "create":
		return "insertable"
	case "read":
		return "readable by key"
	case "update":
		return "updatable"
	case "delete":
		return "deletable"
	case "list":
		return "listable"
	}
	return c
}

func columnType(k schema.Kind) string {
	switch k {
	case schema.KindInt:
		return "IntColumn"
	case schema.KindFloat:
		return "FloatColumn"
	case schema.KindBool:
		return "BoolColumn"
	case schema.KindTime:
		return "TimeColumn"
	case schema.KindUUID:
		return "UUIDColumn"
	case schema.KindBytes:
		return "BytesColumn"
	default:
		return "StringColumn"
	}
}
