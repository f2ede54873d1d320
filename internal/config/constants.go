package config

const SourceFileExt = ".loom"

// SourceFileExtensions are all recognized Loom source extensions.
var SourceFileExtensions = []string{".loom", ".lm"}

// InternalModulePrefix marks library modules that user code must not import
// directly; the linker reports them instead of linking.
const InternalModulePrefix = "$internal/"

// BuiltinsFile is the synthetic file name the builtins context reports in
// diagnostics and logs.
const BuiltinsFile = "<builtins>"

// Intrinsic function names recognized by the soundness checks.
const (
	InvariantFuncName  = "invariant"
	AssertFuncName     = "assert"
	TypeAssertFuncName = "assertType"
)

// ResourceKind classifies what a resource import synthesizes to. Resource
// files are never parsed; the export depends on the extension alone.
type ResourceKind int

const (
	ResourceObject ResourceKind = iota // style sheets: an empty exact object
	ResourceString                     // assets resolved to their path
	ResourceDynamic                    // anything unrecognized
)

// ResourceExports maps a file extension to its synthesized export kind.
var ResourceExports = map[string]ResourceKind{
	".css":  ResourceObject,
	".svg":  ResourceString,
	".png":  ResourceString,
	".jpg":  ResourceString,
	".jpeg": ResourceString,
	".gif":  ResourceString,
	".webp": ResourceString,
	".txt":  ResourceString,
}

// MaxTypeDepth caps structural walks over resolved types. Graphs deeper than
// this indicate a runaway cycle in an earlier phase.
const MaxTypeDepth = 512
