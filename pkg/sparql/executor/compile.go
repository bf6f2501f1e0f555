package executor

import (
	"fmt"

	"github.com/trigodb/trigo/pkg/algebra"
	"github.com/trigodb/trigo/pkg/planner"
	"github.com/trigodb/trigo/pkg/rdf"
	"github.com/trigodb/trigo/pkg/sparql/parser"
)

// graphScope carries the active GRAPH constraint down into triple pattern
// compilation: outside any GRAPH block, term is nil and set is false,
// meaning every Scan built from a triple pattern matches quads in any
// graph. Entering a GRAPH <iri-or-var> { ... } block sets set to true and
// term to the bound IRI or a graph-binding Variable, which every Scan
// built within that block carries, since that's the only place the
// executor actually applies a graph restriction — algebra.Graph itself is
// a structural marker that the quad scans beneath it already enforce it.
type graphScope struct {
	term rdf.Term
	set  bool
}

// compileChild compiles one child pattern of a containing group into the
// node the containing group should combine it with: a UNION's two
// branches become an algebra.Union, a GRAPH group's body is compiled under
// a narrowed graphScope, and everything else (a plain nested group, an
// OPTIONAL, or a MINUS) compiles to its own body — the containing group
// decides how to combine it in based on its Type.
func (e *Executor) compileChild(p *parser.GraphPattern) (algebra.Node, error) {
	return e.compileChildScoped(p, graphScope{})
}

func (e *Executor) compileChildScoped(p *parser.GraphPattern, scope graphScope) (algebra.Node, error) {
	if p == nil {
		return nil, nil
	}

	switch p.Type {
	case parser.GraphPatternTypeUnion:
		if len(p.Children) != 2 {
			return nil, fmt.Errorf("executor: UNION pattern must have exactly two branches, got %d", len(p.Children))
		}
		left, err := e.compilePatternBody(p.Children[0], scope)
		if err != nil {
			return nil, err
		}
		right, err := e.compilePatternBody(p.Children[1], scope)
		if err != nil {
			return nil, err
		}
		return &algebra.Union{Left: left, Right: right}, nil

	case parser.GraphPatternTypeGraph:
		inner, err := e.compilePatternBody(p, graphScope{term: e.convertGraphTerm(p.Graph), set: true})
		if err != nil {
			return nil, err
		}
		return &algebra.Graph{Input: inner, Term: e.convertGraphTerm(p.Graph)}, nil

	default:
		return e.compilePatternBody(p, scope)
	}
}

// compilePatternBody compiles p's own content — its triple patterns, the
// children it contains, its FILTERs, and its BINDs, in that order — into
// one algebra.Node under scope. It ignores p.Type: that field tells a
// *caller* how to combine p into a larger plan, not how p's own body is
// built.
func (e *Executor) compilePatternBody(p *parser.GraphPattern, scope graphScope) (algebra.Node, error) {
	if p == nil {
		return nil, nil
	}

	var node algebra.Node
	if len(p.Patterns) > 0 {
		patterns := make([]algebra.TriplePattern, len(p.Patterns))
		for i, tp := range p.Patterns {
			patterns[i] = algebra.TriplePattern{
				Subject:   e.convertTermOrVariable(tp.Subject),
				Predicate: e.convertTermOrVariable(tp.Predicate),
				Object:    e.convertTermOrVariable(tp.Object),
				Graph:     scope.term,
				GraphSet:  scope.set,
			}
		}
		node = planner.PlanBGP(patterns)
	}

	for _, child := range p.Children {
		childNode, err := e.compileChildScoped(child, scope)
		if err != nil {
			return nil, err
		}
		if childNode == nil {
			continue
		}
		if node == nil {
			node = childNode
			continue
		}
		switch child.Type {
		case parser.GraphPatternTypeOptional:
			node = &algebra.LeftJoin{Left: node, Right: childNode}
		case parser.GraphPatternTypeMinus:
			node = &algebra.Minus{Left: node, Right: childNode}
		default:
			node = &algebra.Join{Left: node, Right: childNode, Strategy: algebra.StrategyNestedLoop}
		}
	}

	for _, filter := range p.Filters {
		if node == nil {
			continue
		}
		expr := filter.Expression
		node = &algebra.Filter{Input: node, Eval: e.filterEval(expr)}
	}

	for _, bind := range p.Binds {
		if node == nil {
			continue
		}
		expr := bind.Expression
		node = &algebra.Extend{Input: node, Var: bind.Variable.Name, Compute: e.bindCompute(expr)}
	}

	return node, nil
}

// filterEval builds the predicate an algebra.Filter runs per row: a
// FILTER whose expression errors or whose effective boolean value is
// false simply excludes the row, per SPARQL FILTER semantics — it never
// propagates as a query-level error.
func (e *Executor) filterEval(expr parser.Expression) func(algebra.BindingLookup) (bool, error) {
	return func(b algebra.BindingLookup) (bool, error) {
		result, err := e.eval.Evaluate(expr, b)
		if err != nil {
			return false, nil
		}
		ok, err := e.eval.EffectiveBooleanValue(result)
		if err != nil {
			return false, nil
		}
		return ok, nil
	}
}

// bindCompute builds the function an algebra.Extend runs per row for a
// BIND clause: an expression error leaves the variable unbound for that
// row rather than failing the whole query.
func (e *Executor) bindCompute(expr parser.Expression) func(algebra.BindingLookup) (rdf.Term, bool) {
	return func(b algebra.BindingLookup) (rdf.Term, bool) {
		result, err := e.eval.Evaluate(expr, b)
		if err != nil {
			return nil, false
		}
		return result, true
	}
}

// convertTermOrVariable resolves a parsed triple pattern slot to the
// rdf.Term the algebra layer expects: a constant term passes through, a
// variable is interned as an rdf.Variable through the store's dictionary.
func (e *Executor) convertTermOrVariable(tov parser.TermOrVariable) rdf.Term {
	if tov.IsVariable() {
		return e.qs.Dict().NewVariable(tov.Variable.Name)
	}
	return tov.Term
}

// convertGraphTerm resolves a GRAPH clause's name to an rdf.Term: a bound
// IRI, or a variable to bind to each graph a match is found in.
func (e *Executor) convertGraphTerm(gt *parser.GraphTerm) rdf.Term {
	if gt == nil {
		return nil
	}
	if gt.Variable != nil {
		return e.qs.Dict().NewVariable(gt.Variable.Name)
	}
	return gt.IRI
}

// extractVariablesFromGraphPattern returns the variables a SELECT *
// projects, in the order they first appear across pattern's body —
// walking Elements preserves source order across triples, FILTERs (which
// bind nothing), and BINDs, and recurses into nested groups.
func extractVariablesFromGraphPattern(pattern *parser.GraphPattern) []string {
	var order []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}

	var walk func(p *parser.GraphPattern)
	walk = func(p *parser.GraphPattern) {
		if p == nil {
			return
		}
		if len(p.Elements) > 0 {
			for _, el := range p.Elements {
				switch {
				case el.Triple != nil:
					addTermOrVariable(el.Triple.Subject, add)
					addTermOrVariable(el.Triple.Predicate, add)
					addTermOrVariable(el.Triple.Object, add)
				case el.Bind != nil:
					add(el.Bind.Variable.Name)
				}
			}
		} else {
			for _, tp := range p.Patterns {
				addTermOrVariable(tp.Subject, add)
				addTermOrVariable(tp.Predicate, add)
				addTermOrVariable(tp.Object, add)
			}
			for _, b := range p.Binds {
				add(b.Variable.Name)
			}
		}
		if p.Type == parser.GraphPatternTypeGraph && p.Graph != nil && p.Graph.Variable != nil {
			add(p.Graph.Variable.Name)
		}
		for _, child := range p.Children {
			walk(child)
		}
	}
	walk(pattern)

	return order
}

func addTermOrVariable(tov parser.TermOrVariable, add func(string)) {
	if tov.IsVariable() {
		add(tov.Variable.Name)
	}
}
