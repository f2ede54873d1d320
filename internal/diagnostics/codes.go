package diagnostics

// Lint and error codes. Excuse comments and the lint settings file refer to
// these names.
const (
	// Sketchy null family: an existence test on a nullable value whose
	// non-null side is falsey-capable. One code per offending kind.
	CodeSketchyNullBool   = "sketchy-null-bool"
	CodeSketchyNullNumber = "sketchy-null-number"
	CodeSketchyNullString = "sketchy-null-string"
	CodeSketchyNullMixed  = "sketchy-null-mixed"
	CodeSketchyNullEnum   = "sketchy-null-enum"

	CodeNonVoidableProperty = "non-voidable-property"
	CodeUnusedNarrowTest    = "unused-narrow-test"
	CodeRedundantOptChain   = "redundant-optional-chain"
	CodeRedundantInvariant  = "redundant-invariant"
	CodeInvalidTypeAssert   = "invalid-type-assert"
	CodeEscapedGeneric      = "escaped-generic"
	CodeSentinelMismatch    = "sentinel-property-mismatch"
	CodeLiteralSubtype      = "literal-subtype-violation"
	CodeUnderconstrained    = "underconstrained-instantiation"

	// Linking and resolution findings.
	CodeMissingAnnotation = "missing-annotation"
	CodeMissingExport     = "missing-export"
	CodeMissingLibrary    = "missing-library"
	CodeInternalModule    = "internal-module-import"
)

// LintCodes are the style-level codes whose level may be tuned per project
// in the lint settings file. Hard findings and link-time codes stay at
// error severity; excuse comments can still silence them at one site.
var LintCodes = []string{
	CodeSketchyNullBool,
	CodeSketchyNullNumber,
	CodeSketchyNullString,
	CodeSketchyNullMixed,
	CodeSketchyNullEnum,
	CodeUnusedNarrowTest,
	CodeRedundantOptChain,
	CodeRedundantInvariant,
}

// IsLintCode reports whether code participates in lint settings.
func IsLintCode(code string) bool {
	for _, c := range LintCodes {
		if c == code {
			return true
		}
	}
	return false
}
