// Package cli implements the weft command line driver. It loads fixture
// components, runs each through the merge pipeline against the standard
// library snapshot, and reports findings and signature hashes.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jessevdk/go-flags"

	"github.com/weftlang/weft/internal/builtins"
	"github.com/weftlang/weft/internal/config"
	"github.com/weftlang/weft/internal/diagnostics"
	"github.com/weftlang/weft/internal/fixture"
	"github.com/weftlang/weft/internal/logging"
	"github.com/weftlang/weft/internal/pipeline"
)

// Version is stamped at build time:
//
//	-ldflags "-X github.com/weftlang/weft/pkg/cli.Version=v0.4.0"
var Version = "dev"

// Options is the flag surface of the weft binary.
type Options struct {
	Lint      string `short:"l" long:"lint" description:"lint settings file (YAML)"`
	LogLevel  string `long:"log-level" description:"log verbosity" default:"warn" choice:"debug" choice:"info" choice:"warn" choice:"error"`
	LogFormat string `long:"log-format" description:"log output format" default:"text" choice:"text" choice:"json"`
	Hashes    bool   `long:"hashes" description:"print the signature hash of every file"`
	NoColor   bool   `long:"no-color" description:"disable colored findings"`
	Version   bool   `short:"V" long:"version" description:"print version and exit"`

	Args struct {
		Fixtures []string `positional-arg-name:"fixture" description:"fixture documents (.yaml) or archives (.txtar)"`
	} `positional-args:"yes"`
}

// Run drives one invocation and returns the process exit code: 0 clean,
// 1 when any component had findings of error severity or aborted, 2 on
// usage or configuration problems.
func Run(args []string, stdout, stderr io.Writer) int {
	var opts Options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Usage = "[OPTIONS] fixture..."
	if _, err := parser.ParseArgs(args); err != nil {
		if flags.WroteHelp(err) {
			parser.WriteHelp(stdout)
			return 0
		}
		fmt.Fprintf(stderr, "weft: %v\n", err)
		return 2
	}

	if opts.Version {
		fmt.Fprintf(stdout, "weft %s\n", Version)
		return 0
	}
	if len(opts.Args.Fixtures) == 0 {
		fmt.Fprintln(stderr, "weft: no fixtures given")
		return 2
	}

	log := logging.New(opts.LogLevel, opts.LogFormat, stderr)
	log.Debug("starting", "run", uuid.New(), "version", Version)

	// A --lint file overrides whatever the fixture documents carry.
	var lint *config.LintSettings
	if opts.Lint != "" {
		var err error
		lint, err = config.LoadLintSettings(opts.Lint)
		if err != nil {
			fmt.Fprintf(stderr, "weft: %v\n", err)
			return 2
		}
	}

	lib, err := builtins.Default()
	if err != nil {
		fmt.Fprintf(stderr, "weft: library snapshot: %v\n", err)
		return 2
	}

	emit := diagnostics.NewEmitter(stdout)
	if opts.NoColor {
		emit.SetColor(false)
	}

	code := 0
	for _, path := range opts.Args.Fixtures {
		c := runFixture(path, lib, lint, log, emit, stdout, stderr, opts.Hashes)
		if c > code {
			code = c
		}
	}
	return code
}

func runFixture(path string, lib *builtins.Snapshot, lint *config.LintSettings,
	log *slog.Logger, emit *diagnostics.Emitter, stdout, stderr io.Writer, hashes bool) int {

	doc, err := loadDocument(path)
	if err != nil {
		fmt.Fprintf(stderr, "weft: %v\n", err)
		return 2
	}

	built, err := doc.Build(lib)
	if err != nil {
		fmt.Fprintf(stderr, "weft: %s: %v\n", path, err)
		return 2
	}

	pctx := pipeline.NewContext(built.Comp, built.Deps, lib, log)
	pctx.Lint = built.Lint
	if lint != nil {
		pctx.Lint = lint
	}
	pctx = pipeline.Default().Run(pctx)
	if pctx.Err != nil {
		fmt.Fprintf(stderr, "weft: %s: %v\n", path, pctx.Err)
		return 1
	}

	all := diagnostics.NewBag()
	for _, f := range built.Comp.Files() {
		all.AddAll(f.Ctx.Diags.Diagnostics())
	}
	emit.EmitAll(all)

	if hashes {
		files := make([]string, 0, len(pctx.Sigs))
		for file := range pctx.Sigs {
			files = append(files, file)
		}
		sort.Strings(files)
		for _, file := range files {
			fmt.Fprintf(stdout, "%016x  %s\n", pctx.Sigs[file].Hash, file)
		}
	}

	if all.HasErrors() {
		return 1
	}
	return 0
}

func loadDocument(path string) (*fixture.Document, error) {
	if strings.HasSuffix(path, ".txtar") {
		arch, err := fixture.LoadArchive(path)
		if err != nil {
			return nil, err
		}
		return arch.Doc, nil
	}
	return fixture.Load(path)
}
