// Package pipeline runs one component through the merge core in order:
// link requires, resolve variables, run the soundness suite, reduce
// signatures. Stages communicate only through the shared Context; user
// findings accumulate in the per-file diagnostic bags and never stop a
// stage, while an invariant failure aborts the component.
package pipeline

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/weftlang/weft/internal/builtins"
	"github.com/weftlang/weft/internal/config"
	"github.com/weftlang/weft/internal/merge"
	"github.com/weftlang/weft/internal/resolver"
	"github.com/weftlang/weft/internal/signature"
	"github.com/weftlang/weft/internal/soundness"
)

// Context carries one component through the stages.
type Context struct {
	Comp   *merge.Component
	Deps   map[string]*signature.Signature
	Lib    *builtins.Snapshot
	Policy resolver.Policy
	Lint   *config.LintSettings
	Log    *slog.Logger

	// Sigs receives the reduced signature of each file, keyed by file.
	Sigs map[string]*signature.Signature

	// Err is the first fatal error; once set, remaining stages are skipped.
	Err error
}

// NewContext assembles a stage context with the defaults the CLI uses:
// annotate policy and warn-level lints.
func NewContext(comp *merge.Component, deps map[string]*signature.Signature, lib *builtins.Snapshot, log *slog.Logger) *Context {
	if log == nil {
		log = slog.Default()
	}
	return &Context{
		Comp:   comp,
		Deps:   deps,
		Lib:    lib,
		Policy: resolver.Annotate,
		Lint:   config.DefaultLintSettings(),
		Log:    log,
		Sigs:   make(map[string]*signature.Signature),
	}
}

// HasErrors reports whether any file collected an error-severity finding
// or a stage failed outright.
func (c *Context) HasErrors() bool {
	if c.Err != nil {
		return true
	}
	for _, f := range c.Comp.Files() {
		if f.Ctx.Diags.HasErrors() {
			return true
		}
	}
	return false
}

// Stage is one processing step over a component.
type Stage interface {
	Name() string
	Process(ctx *Context) *Context
}

// Pipeline is a fixed sequence of stages.
type Pipeline struct {
	stages []Stage
}

func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Default returns the full merge pipeline.
func Default() *Pipeline {
	return New(LinkStage{}, ResolveStage{}, CheckStage{}, ReduceStage{})
}

// Run executes the stages in order. Diagnostics never short-circuit; a
// fatal stage error does.
func (p *Pipeline) Run(ctx *Context) *Context {
	for _, s := range p.stages {
		ctx = s.Process(ctx)
		if ctx.Err != nil {
			ctx.Log.Error("component aborted", "stage", s.Name(), "err", ctx.Err)
			return ctx
		}
		ctx.Log.Debug("stage complete", "stage", s.Name(), "files", len(ctx.Comp.Files()))
	}
	return ctx
}

// LinkStage flows dependency exports into every file's request sites.
type LinkStage struct{}

func (LinkStage) Name() string { return "link" }

func (LinkStage) Process(ctx *Context) *Context {
	if err := merge.NewLinker(ctx.Comp, ctx.Deps, ctx.Lib, ctx.Log).Link(); err != nil {
		ctx.Err = errors.Wrap(err, "link")
	}
	return ctx
}

// ResolveStage forces every variable of the component's graph, then
// normalizes each file's exports and recorded obligations. Resolution
// itself is quiet; under-constrained exports are reported at reduction,
// where the owning file is known.
type ResolveStage struct{}

func (ResolveStage) Name() string { return "resolve" }

func (ResolveStage) Process(ctx *Context) *Context {
	r := resolver.New(ctx.Comp.G, resolver.Quiet, nil)
	for _, f := range ctx.Comp.Files() {
		if err := r.Run(f.Ctx); err != nil {
			ctx.Err = errors.Wrapf(err, "resolve %s", f.Ctx.File)
			return ctx
		}
	}
	return ctx
}

// CheckStage runs the soundness suite over each file.
type CheckStage struct{}

func (CheckStage) Name() string { return "check" }

func (CheckStage) Process(ctx *Context) *Context {
	for _, f := range ctx.Comp.Files() {
		found := soundness.Run(f.Ctx, ctx.Lint)
		if len(found) > 0 {
			ctx.Log.Debug("soundness findings", "file", f.Ctx.File, "count", len(found))
		}
	}
	return ctx
}

// ReduceStage publishes each file's signature under the context policy.
type ReduceStage struct{}

func (ReduceStage) Name() string { return "reduce" }

func (ReduceStage) Process(ctx *Context) *Context {
	for _, f := range ctx.Comp.Files() {
		sig, err := signature.Reduce(f.Ctx, ctx.Policy)
		if err != nil {
			ctx.Err = errors.Wrapf(err, "reduce %s", f.Ctx.File)
			return ctx
		}
		ctx.Sigs[f.Ctx.File] = sig
		ctx.Log.Debug("signature published", "file", f.Ctx.File, "hash", sig.Hash)
	}
	return ctx
}
