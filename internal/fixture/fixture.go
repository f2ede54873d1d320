// Package fixture builds ready-to-link components from YAML documents.
//
// The merge core takes typed contexts as input, not source text; a
// fixture document describes those contexts directly (exports, require
// sites, recorded condition tests, excuse comments) using compact type
// expressions. The debug driver and the integration tests share this
// codec so the core packages stay free of any serialization concern.
package fixture

import (
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/weftlang/weft/internal/ast"
	"github.com/weftlang/weft/internal/builtins"
	"github.com/weftlang/weft/internal/config"
	"github.com/weftlang/weft/internal/merge"
	"github.com/weftlang/weft/internal/requires"
	"github.com/weftlang/weft/internal/resolver"
	"github.com/weftlang/weft/internal/signature"
	"github.com/weftlang/weft/internal/source"
	"github.com/weftlang/weft/internal/typegraph"
)

// Document is the top-level fixture schema:
//
//	files:
//	  - file: ./main.loom
//	    exports:
//	      ./main.loom: "{ x: number }"
//	    requires:
//	      - key: ./dep.loom
//	        line: 1
//	    conds:
//	      - type: "number | void"
//	        line: 3
//	deps:
//	  - file: ./dep.loom
//	    exports:
//	      ./dep.loom: "{ greet: string }"
//	lint:
//	  default: warn
type Document struct {
	// Files are the component members, checked together on one graph.
	Files []FileDoc `yaml:"files"`

	// Deps are already-checked dependencies outside the component; each
	// is reduced to a signature before linking.
	Deps []DepDoc `yaml:"deps,omitempty"`

	// Lint overrides the default warn-everything settings.
	Lint *config.LintSettings `yaml:"lint,omitempty"`
}

// FileDoc describes one component member.
type FileDoc struct {
	// File is the module key other files require this one by.
	File string `yaml:"file"`

	// Exports maps export keys to type expressions.
	Exports map[string]string `yaml:"exports,omitempty"`

	// Requires lists the file's request sites.
	Requires []RequireDoc `yaml:"requires,omitempty"`

	// Conds records condition tests for the soundness suite.
	Conds []CondDoc `yaml:"conds,omitempty"`

	// Excuses suppress findings by line, the way excuse comments do.
	Excuses []ExcuseDoc `yaml:"excuses,omitempty"`
}

// RequireDoc is one request site.
type RequireDoc struct {
	Key  string `yaml:"key"`
	Line int    `yaml:"line"`

	// Kind forces a classification: impl, resource, decl or unchecked.
	// When empty the key is classified against the component and the
	// library snapshot, the way the loader would.
	Kind string `yaml:"kind,omitempty"`
}

// CondDoc is one recorded condition test.
type CondDoc struct {
	Type string `yaml:"type"`
	Line int    `yaml:"line"`
}

// ExcuseDoc suppresses the listed codes on one line.
type ExcuseDoc struct {
	Line  int      `yaml:"line"`
	Codes []string `yaml:"codes"`
}

// DepDoc describes an external dependency by its exports alone.
type DepDoc struct {
	File    string            `yaml:"file"`
	Exports map[string]string `yaml:"exports"`
}

// Load reads and parses a fixture document.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses fixture content from bytes. The path argument is used only
// for error messages.
func Parse(data []byte, path string) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := doc.validate(path); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) validate(path string) error {
	if len(d.Files) == 0 {
		return fmt.Errorf("%s: no files defined", path)
	}
	seen := make(map[string]bool)
	for i, f := range d.Files {
		if f.File == "" {
			return fmt.Errorf("%s: files[%d]: file is required", path, i)
		}
		if seen[f.File] {
			return fmt.Errorf("%s: files[%d]: duplicate file %s", path, i, f.File)
		}
		seen[f.File] = true
		for j, r := range f.Requires {
			if r.Key == "" {
				return fmt.Errorf("%s: files[%d].requires[%d]: key is required", path, i, j)
			}
			switch r.Kind {
			case "", "impl", "resource", "decl", "unchecked":
			default:
				return fmt.Errorf("%s: files[%d].requires[%d] (%s): unknown kind %q",
					path, i, j, r.Key, r.Kind)
			}
		}
		for j, c := range f.Conds {
			if c.Type == "" {
				return fmt.Errorf("%s: files[%d].conds[%d]: type is required", path, i, j)
			}
		}
	}
	for i, dep := range d.Deps {
		if dep.File == "" {
			return fmt.Errorf("%s: deps[%d]: file is required", path, i)
		}
		if seen[dep.File] {
			return fmt.Errorf("%s: deps[%d]: %s is already a component file", path, i, dep.File)
		}
		seen[dep.File] = true
	}
	if err := d.Lint.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Built is a fixture turned into pipeline input.
type Built struct {
	Comp *merge.Component
	Deps map[string]*signature.Signature
	Lint *config.LintSettings
}

// Build constructs the component and its dependency signatures against
// the library snapshot.
func (d *Document) Build(lib *builtins.Snapshot) (*Built, error) {
	deps := make(map[string]*signature.Signature, len(d.Deps))
	for _, dep := range d.Deps {
		sig, err := buildDep(dep)
		if err != nil {
			return nil, err
		}
		deps[dep.File] = sig
	}

	checked := make(map[string]bool, len(d.Files)+len(d.Deps))
	for _, f := range d.Files {
		checked[f.File] = true
	}
	for key := range deps {
		checked[key] = true
	}

	g := typegraph.NewGraph()
	comp := merge.NewComponent(g)
	for _, f := range d.Files {
		file, err := buildFile(g, f, checked, lib)
		if err != nil {
			return nil, err
		}
		if err := comp.Add(file); err != nil {
			return nil, fmt.Errorf("fixture file %s: %w", f.File, err)
		}
	}

	lint := d.Lint
	if lint == nil {
		lint = config.DefaultLintSettings()
	}
	return &Built{Comp: comp, Deps: deps, Lint: lint}, nil
}

func buildDep(dep DepDoc) (*signature.Signature, error) {
	g := typegraph.NewGraph()
	ctx := typegraph.NewContext(dep.File, g)
	for key, expr := range dep.Exports {
		t, err := ParseType(g, expr)
		if err != nil {
			return nil, fmt.Errorf("dep %s export %s: %w", dep.File, key, err)
		}
		ctx.SetExport(key, t)
	}
	sig, err := signature.Reduce(ctx, resolver.Annotate)
	if err != nil {
		return nil, fmt.Errorf("dep %s: %w", dep.File, err)
	}
	return sig, nil
}

func buildFile(g *typegraph.Graph, f FileDoc, checked map[string]bool, lib *builtins.Snapshot) (*merge.File, error) {
	ctx := typegraph.NewContext(f.File, g)
	for key, expr := range f.Exports {
		t, err := ParseType(g, expr)
		if err != nil {
			return nil, fmt.Errorf("file %s export %s: %w", f.File, key, err)
		}
		ctx.SetExport(key, t)
	}

	reqs := requires.NewTable()
	for _, r := range f.Requires {
		span := source.At(f.File, r.Line, 1)
		site := g.FreshVar(span)
		reqs.Add(r.Key, classify(r, checked, lib), span, site)
	}

	for _, c := range f.Conds {
		t, err := ParseType(g, c.Type)
		if err != nil {
			return nil, fmt.Errorf("file %s cond at line %d: %w", f.File, c.Line, err)
		}
		ctx.Conds = append(ctx.Conds, typegraph.CondTest{
			Span:    source.At(f.File, c.Line, 1),
			Operand: t,
		})
	}

	if len(f.Excuses) > 0 {
		prog := &ast.Program{Path: f.File}
		for _, e := range f.Excuses {
			prog.Excuses = append(prog.Excuses, ast.Excuse{Line: e.Line, Codes: e.Codes})
		}
		ctx.Program = prog
	}

	return &merge.File{Ctx: ctx, Reqs: reqs}, nil
}

func classify(r RequireDoc, checked map[string]bool, lib *builtins.Snapshot) requires.Class {
	switch r.Kind {
	case "impl":
		return requires.Impl{Module: r.Key}
	case "resource":
		return requires.Resource{Ext: path.Ext(r.Key)}
	case "decl":
		return requires.Decl{Module: r.Key}
	case "unchecked":
		return requires.Unchecked{Module: r.Key}
	}
	return requires.Classify(r.Key, requires.ClassifyOpts{
		IsChecked: func(key string) bool { return checked[key] },
		HasDecl: func(key string) bool {
			return lib != nil && lib.Has(key)
		},
	})
}
