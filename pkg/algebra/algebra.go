// Package algebra defines the tagged algebra of query plan nodes that a BGP
// optimizer produces and an executor consumes: scans, joins, and the
// solution modifiers built on top of them.
package algebra

import "github.com/trigodb/trigo/pkg/rdf"

// TriplePattern is one (subject, predicate, object, graph) pattern with
// rdf.Variable terms marking unbound positions. With GraphSet false the
// graph position is unconstrained. With GraphSet true, Graph == nil means
// the default graph only, a concrete term names one graph, and an
// rdf.Variable leaves the graph unconstrained and is bound to the graph of
// each match found in a named graph.
type TriplePattern struct {
	Subject   rdf.Term
	Predicate rdf.Term
	Object    rdf.Term
	Graph     rdf.Term
	GraphSet  bool
}

// Node is any node of the query algebra.
type Node interface {
	algebraNode()
}

// Scan is a single triple pattern lookup against the quad store.
type Scan struct {
	Pattern TriplePattern
}

func (*Scan) algebraNode() {}

// JoinStrategy names which executor should evaluate a Join node.
type JoinStrategy int

const (
	StrategyNestedLoop JoinStrategy = iota
	StrategyWCOJ
)

func (s JoinStrategy) String() string {
	if s == StrategyWCOJ {
		return "wcoj"
	}
	return "nested_loop"
}

// Join is an inner join between two plans, or — when Patterns is populated —
// a single multi-way basic graph pattern chosen to run under Strategy as one
// unit (the shape the WCOJ executor consumes).
type Join struct {
	Left, Right Node
	Strategy    JoinStrategy
	Patterns    []TriplePattern // non-nil only for a multi-way BGP join node
}

func (*Join) algebraNode() {}

// LeftJoin is SPARQL OPTIONAL: every Left row survives, optionally merged
// with a compatible Right row.
type LeftJoin struct {
	Left, Right Node
}

func (*LeftJoin) algebraNode() {}

// Minus is SPARQL MINUS: set difference keyed on shared-variable
// compatibility.
type Minus struct {
	Left, Right Node
}

func (*Minus) algebraNode() {}

// Union is SPARQL UNION: bag concatenation of two plans' solutions.
type Union struct {
	Left, Right Node
}

func (*Union) algebraNode() {}

// Filter discards rows for which Eval returns false or errors.
type Filter struct {
	Input Node
	Eval  func(b BindingLookup) (bool, error)
}

func (*Filter) algebraNode() {}

// Extend computes a new variable's binding via Compute, leaving the row
// unbound for that variable when Compute returns ok=false (BIND's
// unbound-on-error behavior).
type Extend struct {
	Input   Node
	Var     string
	Compute func(b BindingLookup) (term rdf.Term, ok bool)
}

func (*Extend) algebraNode() {}

// Project restricts rows to the named variables, in the given order.
type Project struct {
	Input Node
	Vars  []string
}

func (*Project) algebraNode() {}

// Distinct removes duplicate rows, keeping first occurrence order.
type Distinct struct {
	Input Node
}

func (*Distinct) algebraNode() {}

// OrderBy sorts rows by the given keys.
type OrderBy struct {
	Input Node
	Keys  []OrderKey
}

func (*OrderBy) algebraNode() {}

// OrderKey is one ORDER BY clause: a variable and whether it sorts
// descending.
type OrderKey struct {
	Var        string
	Descending bool
}

// Slice applies OFFSET/LIMIT. Limit < 0 means unbounded.
type Slice struct {
	Input  Node
	Offset int
	Limit  int
}

func (*Slice) algebraNode() {}

// Graph marks a GRAPH block. The executor passes Input's rows through
// unchanged: the graph restriction, and the binding of a Variable Term, are
// carried by the Graph/GraphSet fields of the TriplePatterns inside Input.
type Graph struct {
	Input Node
	Term  rdf.Term
}

func (*Graph) algebraNode() {}

// BindingLookup is the minimal read interface Filter/Extend need against a
// row, satisfied by *bindings.Binding without importing that package here
// (avoiding an import cycle between algebra and its evaluators).
type BindingLookup interface {
	Get(name string) (rdf.Term, bool)
}
