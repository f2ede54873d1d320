package fixture

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/tools/txtar"

	"github.com/weftlang/weft/internal/ast"
	"github.com/weftlang/weft/internal/config"
	"github.com/weftlang/weft/internal/diagnostics"
	"github.com/weftlang/weft/internal/source"
)

// Archive is a fixture document bundled with its expected findings.
type Archive struct {
	Doc      *Document
	Expected []string
}

// LoadArchive reads a txtar archive with a "fixture.yaml" member and an
// optional "expected" member listing findings one per line as
// "file:line:col code". Blank lines and #-comments in expected are
// skipped. Members with a Loom source extension are scanned for
// weft-excuse comments, which merge into the matching file entry; other
// members are illustrative and ignored.
func LoadArchive(name string) (*Archive, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading archive %s: %w", name, err)
	}
	return ParseArchive(data, name)
}

// ParseArchive parses archive content from bytes. The name argument is
// used only for error messages.
func ParseArchive(data []byte, name string) (*Archive, error) {
	arch := txtar.Parse(data)
	out := &Archive{}
	sources := map[string][]byte{}
	for _, f := range arch.Files {
		switch {
		case f.Name == "fixture.yaml":
			doc, err := Parse(f.Data, name+"#fixture.yaml")
			if err != nil {
				return nil, err
			}
			out.Doc = doc
		case f.Name == "expected":
			lines, err := expectedLines(f.Data)
			if err != nil {
				return nil, fmt.Errorf("%s#expected: %w", name, err)
			}
			out.Expected = lines
		case isSourceMember(f.Name):
			sources["./"+f.Name] = f.Data
		}
	}
	if out.Doc == nil {
		return nil, fmt.Errorf("%s: no fixture.yaml member", name)
	}
	mergeScannedExcuses(out.Doc, sources)
	return out, nil
}

func isSourceMember(name string) bool {
	for _, ext := range config.SourceFileExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// mergeScannedExcuses adds excuse comments found in source members to
// the file entries they belong to. Member "main.loom" matches the file
// key "./main.loom".
func mergeScannedExcuses(doc *Document, sources map[string][]byte) {
	for i := range doc.Files {
		src, ok := sources[doc.Files[i].File]
		if !ok {
			continue
		}
		for _, e := range ast.ScanExcuses(string(src)) {
			doc.Files[i].Excuses = append(doc.Files[i].Excuses, ExcuseDoc{
				Line:  e.Line,
				Codes: e.Codes,
			})
		}
	}
}

func expectedLines(data []byte) ([]string, error) {
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		loc, _, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("line %q: want \"file:line:col code\"", line)
		}
		if _, err := source.Parse(loc); err != nil {
			return nil, fmt.Errorf("line %q: %v", line, err)
		}
		out = append(out, line)
	}
	return out, nil
}

// Render formats findings the way expected members list them.
func Render(ds []*diagnostics.Diagnostic) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Span.String()+" "+d.Code)
	}
	return out
}
