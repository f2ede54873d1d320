package typegraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/weftlang/weft/internal/source"
)

// Use records one way a type variable flowed into an operation: a call, a
// property access, a condition, a return position. Uses are kept even when
// a variable never receives a lower bound; that a value was used at all is
// what separates a suspicious variable from a harmless one.
type Use struct {
	Op   string
	Span source.Span
}

// Prop is one property of an object type.
type Prop struct {
	Name     string
	Type     Type
	Optional bool
}

// TypeParam declares one type parameter of a generic signature.
type TypeParam struct {
	Name  string
	Bound Type // nil means mixed
}

// CallSig is a call signature. TypeParams belong to Scope; escape analysis
// compares a Generic's scope against the scopes of enclosing signatures.
type CallSig struct {
	Scope      ScopeID
	TypeParams []TypeParam
	Params     []Type
	Return     Type
}

type varNode struct {
	span      source.Span
	lower     []Type
	lowerKeys map[string]struct{}
	uses      []Use
	resolved  Type
	done      bool
}

// Graph is the arena a component's files allocate type variables from.
// Variables carry accumulated lower bounds and recorded uses until the
// resolver freezes them into a resolved type. Property maps and call
// signatures are interned: structurally equal contents share an id, so id
// equality is content equality within one graph.
//
// A Graph is owned by a single goroutine; concurrent mutation is a caller
// bug, not a supported mode.
type Graph struct {
	vars      []varNode
	props     [][]Prop
	propIndex map[string]PropsID
	sigs      []CallSig
	sigIndex  map[string]SigID
	nscopes   uint32
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		propIndex: make(map[string]PropsID),
		sigIndex:  make(map[string]SigID),
	}
}

// FreshVar allocates a variable with no bounds, no uses and no resolution.
func (g *Graph) FreshVar(span source.Span) VarID {
	id := VarID(len(g.vars))
	g.vars = append(g.vars, varNode{span: span})
	return id
}

// NumVars reports how many variables the graph has allocated.
func (g *Graph) NumVars() int { return len(g.vars) }

// VarSpan returns the span the variable was allocated at.
func (g *Graph) VarSpan(id VarID) source.Span { return g.vars[id].span }

// AddLower accumulates a lower bound on a variable. Bounds are a set:
// re-adding a structurally equal bound is a no-op. Adding a bound to a
// variable that has already been resolved is an invariant violation and
// fails; resolved variables are frozen.
func (g *Graph) AddLower(id VarID, t Type) error {
	n := &g.vars[id]
	if n.done {
		return errors.Errorf("typegraph: lower bound %s added to resolved variable t%d", t, id)
	}
	key := KeyOf(t)
	if n.lowerKeys == nil {
		n.lowerKeys = make(map[string]struct{})
	}
	if _, seen := n.lowerKeys[key]; seen {
		return nil
	}
	n.lowerKeys[key] = struct{}{}
	n.lower = append(n.lower, t)
	return nil
}

// Lower returns the accumulated lower bounds in insertion order. The slice
// is owned by the graph; callers must not mutate it.
func (g *Graph) Lower(id VarID) []Type { return g.vars[id].lower }

// AddUse records a use site on a variable. Unlike bounds, uses may keep
// arriving after resolution: a resolved type does not stop new code from
// reading it.
func (g *Graph) AddUse(id VarID, u Use) {
	n := &g.vars[id]
	n.uses = append(n.uses, u)
}

// Uses returns the recorded use sites. The slice is owned by the graph.
func (g *Graph) Uses(id VarID) []Use { return g.vars[id].uses }

// Resolved returns the resolved type of a variable, if resolution has
// reached it.
func (g *Graph) Resolved(id VarID) (Type, bool) {
	n := &g.vars[id]
	return n.resolved, n.done
}

// SetResolved freezes a variable at t. Resolving an already-resolved
// variable to a structurally different type is an invariant violation;
// resolving it to the same type again is a no-op, which is what makes
// resolution idempotent.
func (g *Graph) SetResolved(id VarID, t Type) error {
	n := &g.vars[id]
	if n.done {
		if !Equal(n.resolved, t) {
			return errors.Errorf("typegraph: t%d resolved twice: %s then %s", id, n.resolved, t)
		}
		return nil
	}
	n.resolved = t
	n.done = true
	return nil
}

// NewProps interns a property map. Properties are sorted by name; a
// duplicate name keeps its first occurrence. Structurally equal maps get
// the same id.
func (g *Graph) NewProps(props []Prop) PropsID {
	sorted := make([]Prop, 0, len(props))
	seen := make(map[string]struct{}, len(props))
	for _, p := range props {
		if _, dup := seen[p.Name]; dup {
			continue
		}
		seen[p.Name] = struct{}{}
		sorted = append(sorted, p)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	for _, p := range sorted {
		fmt.Fprintf(&b, "%q", p.Name)
		if p.Optional {
			b.WriteByte('?')
		}
		b.WriteByte('=')
		writeKey(&b, p.Type)
		b.WriteByte(';')
	}
	key := b.String()
	if id, ok := g.propIndex[key]; ok {
		return id
	}
	id := PropsID(len(g.props))
	g.props = append(g.props, sorted)
	g.propIndex[key] = id
	return id
}

// Props returns the properties of an interned map, sorted by name. The
// slice is owned by the graph.
func (g *Graph) Props(id PropsID) []Prop { return g.props[id] }

// PropNamed looks a property up by name.
func (g *Graph) PropNamed(id PropsID, name string) (Prop, bool) {
	props := g.props[id]
	i := sort.Search(len(props), func(i int) bool { return props[i].Name >= name })
	if i < len(props) && props[i].Name == name {
		return props[i], true
	}
	return Prop{}, false
}

// NumProps reports how many property maps have been interned.
func (g *Graph) NumProps() int { return len(g.props) }

// NewSig interns a call signature. Structurally equal signatures get the
// same id.
func (g *Graph) NewSig(sig CallSig) SigID {
	var b strings.Builder
	fmt.Fprintf(&b, "s%d[", sig.Scope)
	for _, tp := range sig.TypeParams {
		fmt.Fprintf(&b, "%q", tp.Name)
		if tp.Bound != nil {
			b.WriteByte(':')
			writeKey(&b, tp.Bound)
		}
		b.WriteByte(';')
	}
	b.WriteString("](")
	for i, p := range sig.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		writeKey(&b, p)
	}
	b.WriteString(")->")
	if sig.Return != nil {
		writeKey(&b, sig.Return)
	}
	key := b.String()
	if id, ok := g.sigIndex[key]; ok {
		return id
	}
	id := SigID(len(g.sigs))
	g.sigs = append(g.sigs, sig)
	g.sigIndex[key] = id
	return id
}

// Sig returns an interned call signature.
func (g *Graph) Sig(id SigID) CallSig { return g.sigs[id] }

// NumSigs reports how many signatures have been interned.
func (g *Graph) NumSigs() int { return len(g.sigs) }

// FreshScope allocates a generic scope id.
func (g *Graph) FreshScope() ScopeID {
	g.nscopes++
	return ScopeID(g.nscopes)
}
