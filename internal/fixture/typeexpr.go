package fixture

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/weftlang/weft/internal/typegraph"
)

// ParseType builds a type from a compact expression:
//
//	number, string, bool, void, mixed, empty
//	dyn, dyn(unsound), dyn(untyped), dyn(library)
//	true, 3, "ok"                     literal types
//	number[]                          array
//	number | void                     union
//	{ x: number, y?: string }         object
//	{| kind: "a" |}                   exact object
//	(number, string) => bool          function
//
// Objects and functions intern their tables in g, so the expression must
// be parsed against the graph the type will live in.
func ParseType(g *typegraph.Graph, src string) (typegraph.Type, error) {
	p := &typeParser{g: g, src: src}
	t, err := p.union()
	if err != nil {
		return nil, err
	}
	p.ws()
	if p.pos != len(p.src) {
		return nil, p.errf("trailing input %q", p.src[p.pos:])
	}
	return t, nil
}

type typeParser struct {
	g   *typegraph.Graph
	src string
	pos int
}

func (p *typeParser) errf(format string, args ...interface{}) error {
	return fmt.Errorf("type %q at offset %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *typeParser) ws() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	p.ws()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

// eat consumes s if it comes next.
func (p *typeParser) eat(s string) bool {
	p.ws()
	if strings.HasPrefix(p.src[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *typeParser) union() (typegraph.Type, error) {
	first, err := p.term()
	if err != nil {
		return nil, err
	}
	members := []typegraph.Type{first}
	for {
		p.ws()
		// "|}" closes an exact object, not a union arm.
		if strings.HasPrefix(p.src[p.pos:], "|}") || !p.eat("|") {
			break
		}
		next, err := p.term()
		if err != nil {
			return nil, err
		}
		members = append(members, next)
	}
	if len(members) == 1 {
		return first, nil
	}
	return typegraph.Union{Members: members}, nil
}

func (p *typeParser) term() (typegraph.Type, error) {
	t, err := p.primary()
	if err != nil {
		return nil, err
	}
	for p.eat("[]") {
		t = typegraph.Arr{Elem: t}
	}
	return t, nil
}

func (p *typeParser) primary() (typegraph.Type, error) {
	switch c := p.peek(); {
	case c == '{':
		return p.object()
	case c == '(':
		return p.parenthesized()
	case c == '"':
		return p.stringLit()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.numberLit()
	default:
		return p.ident()
	}
}

func (p *typeParser) object() (typegraph.Type, error) {
	exact := false
	if p.eat("{|") {
		exact = true
	} else if !p.eat("{") {
		return nil, p.errf("expected object")
	}
	closer := "}"
	if exact {
		closer = "|}"
	}
	var props []typegraph.Prop
	for !p.eat(closer) {
		if p.pos >= len(p.src) {
			return nil, p.errf("unterminated object")
		}
		name := p.name()
		if name == "" {
			return nil, p.errf("expected property name")
		}
		optional := p.eat("?")
		if !p.eat(":") {
			return nil, p.errf("expected : after property %q", name)
		}
		t, err := p.union()
		if err != nil {
			return nil, err
		}
		props = append(props, typegraph.Prop{Name: name, Type: t, Optional: optional})
		if !p.eat(",") {
			if !p.eat(closer) {
				return nil, p.errf("expected , or %s", closer)
			}
			break
		}
	}
	return typegraph.Obj{Props: p.g.NewProps(props), Exact: exact}, nil
}

// parenthesized is either a grouped type or a function parameter list; the
// arrow after the closing paren decides.
func (p *typeParser) parenthesized() (typegraph.Type, error) {
	if !p.eat("(") {
		return nil, p.errf("expected (")
	}
	var parts []typegraph.Type
	if !p.eat(")") {
		for {
			t, err := p.union()
			if err != nil {
				return nil, err
			}
			parts = append(parts, t)
			if p.eat(")") {
				break
			}
			if !p.eat(",") {
				return nil, p.errf("expected , or )")
			}
		}
	}
	if p.eat("=>") {
		ret, err := p.union()
		if err != nil {
			return nil, err
		}
		sig := p.g.NewSig(typegraph.CallSig{
			Scope:  p.g.FreshScope(),
			Params: parts,
			Return: ret,
		})
		return typegraph.Fun{Sig: sig}, nil
	}
	if len(parts) != 1 {
		return nil, p.errf("parameter list without =>")
	}
	return parts[0], nil
}

func (p *typeParser) stringLit() (typegraph.Type, error) {
	p.ws()
	end := strings.IndexByte(p.src[p.pos+1:], '"')
	if end < 0 {
		return nil, p.errf("unterminated string literal")
	}
	raw := p.src[p.pos+1 : p.pos+1+end]
	p.pos += end + 2
	return typegraph.Lit{Kind: typegraph.PrimString, Raw: raw}, nil
}

func (p *typeParser) numberLit() (typegraph.Type, error) {
	p.ws()
	start := p.pos
	if p.src[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && (p.src[p.pos] == '.' || (p.src[p.pos] >= '0' && p.src[p.pos] <= '9')) {
		p.pos++
	}
	raw := p.src[start:p.pos]
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return nil, p.errf("bad number literal %q", raw)
	}
	return typegraph.Lit{Kind: typegraph.PrimNumber, Raw: raw}, nil
}

func (p *typeParser) ident() (typegraph.Type, error) {
	word := p.name()
	switch word {
	case "number":
		return typegraph.Prim{Kind: typegraph.PrimNumber}, nil
	case "string":
		return typegraph.Prim{Kind: typegraph.PrimString}, nil
	case "bool", "boolean":
		return typegraph.Prim{Kind: typegraph.PrimBool}, nil
	case "void":
		return typegraph.Prim{Kind: typegraph.PrimVoid}, nil
	case "mixed":
		return typegraph.Prim{Kind: typegraph.PrimMixed}, nil
	case "empty":
		return typegraph.Prim{Kind: typegraph.PrimEmpty}, nil
	case "true", "false":
		return typegraph.Lit{Kind: typegraph.PrimBool, Raw: word}, nil
	case "dyn":
		return p.dyn()
	case "":
		return nil, p.errf("expected a type")
	default:
		return nil, p.errf("unknown type name %q", word)
	}
}

func (p *typeParser) dyn() (typegraph.Type, error) {
	if !p.eat("(") {
		return typegraph.Dyn{Origin: typegraph.OriginUnsound}, nil
	}
	origin := p.name()
	if !p.eat(")") {
		return nil, p.errf("expected ) after dyn origin")
	}
	switch origin {
	case "unsound":
		return typegraph.Dyn{Origin: typegraph.OriginUnsound}, nil
	case "untyped":
		return typegraph.Dyn{Origin: typegraph.OriginUntyped}, nil
	case "library":
		return typegraph.Dyn{Origin: typegraph.OriginLibrary}, nil
	default:
		return nil, p.errf("unknown dyn origin %q", origin)
	}
}

func (p *typeParser) name() string {
	p.ws()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}
