// Package exec runs an algebra.Node plan, pulling solutions lazily out of
// pkg/quadstore and producing a bindings.BindingSet one row at a time.
package exec

import (
	"fmt"

	"github.com/trigodb/trigo/pkg/algebra"
	"github.com/trigodb/trigo/pkg/bindings"
	"github.com/trigodb/trigo/pkg/quadstore"
	"github.com/trigodb/trigo/pkg/rdf"
	"github.com/trigodb/trigo/pkg/store"
)

// Iterator is the pull-based row source every operator below implements:
// call Next until it returns false, reading Binding() after each true.
// Close releases any resources (open quad scans) as soon as the caller is
// done, even before exhaustion — this is how query cancellation works.
type Iterator interface {
	Next() bool
	Binding() *bindings.Binding
	Close() error
}

// Executor turns an algebra.Node into a running Iterator against one quad
// store.
type Executor struct {
	store *quadstore.Store
}

// New returns an Executor reading from s.
func New(s *quadstore.Store) *Executor {
	return &Executor{store: s}
}

// Run builds an Iterator for node. Each call produces a fresh, independent
// iterator — re-running the same node twice re-executes it from scratch.
func (e *Executor) Run(node algebra.Node) (Iterator, error) {
	switch n := node.(type) {
	case nil:
		return &singleRowIterator{row: bindings.Empty()}, nil
	case *algebra.Scan:
		return e.runScan(n)
	case *algebra.Join:
		return e.runJoin(n)
	case *algebra.LeftJoin:
		return e.runLeftJoin(n)
	case *algebra.Minus:
		return e.runMinus(n)
	case *algebra.Union:
		return e.runUnion(n)
	case *algebra.Filter:
		return e.runFilter(n)
	case *algebra.Extend:
		return e.runExtend(n)
	case *algebra.Project:
		return e.runProject(n)
	case *algebra.Distinct:
		return e.runDistinct(n)
	case *algebra.OrderBy:
		return e.runOrderBy(n)
	case *algebra.Slice:
		return e.runSlice(n)
	case *algebra.Graph:
		return e.runGraph(n)
	default:
		return nil, fmt.Errorf("exec: unsupported algebra node %T", node)
	}
}

// singleRowIterator yields exactly one binding; used as the join identity
// source (an empty Scan tree).
type singleRowIterator struct {
	row    *bindings.Binding
	served bool
}

func (it *singleRowIterator) Next() bool {
	if it.served {
		return false
	}
	it.served = true
	return true
}
func (it *singleRowIterator) Binding() *bindings.Binding { return it.row }
func (it *singleRowIterator) Close() error               { return nil }

// patternToStorePattern converts an algebra.TriplePattern into a
// store.Pattern, translating bound rdf.Variable terms into wildcards (nil)
// since the store itself never sees a Variable term.
func patternToStorePattern(p algebra.TriplePattern) store.Pattern {
	sp := store.Pattern{
		Subject:   wildcardOut(p.Subject),
		Predicate: wildcardOut(p.Predicate),
		Object:    wildcardOut(p.Object),
	}
	if p.GraphSet && !rdf.IsVariable(p.Graph) {
		sp.GraphSet = true
		sp.Graph = p.Graph
	}
	return sp
}

func wildcardOut(t rdf.Term) rdf.Term {
	if t == nil || rdf.IsVariable(t) {
		return nil
	}
	return t
}

// bindPatternVars derives the binding produced by matching quad q against
// pattern p: every variable position is bound to the corresponding quad
// term, with repeated variables checked for mutual consistency. A graph
// variable bound to the default graph (a nil Term) is simply left unbound,
// matching SPARQL's GRAPH ?g semantics over the default graph. Returns
// ok=false if a repeated variable would be bound to two different terms.
func bindPatternVars(p algebra.TriplePattern, q rdf.Quad) (*bindings.Binding, bool) {
	b := bindings.Empty()
	type slot struct {
		term rdf.Term
		val  rdf.Term
	}
	slots := []slot{
		{p.Subject, q.Subject},
		{p.Predicate, q.Predicate},
		{p.Object, q.Object},
	}
	if p.GraphSet && rdf.IsVariable(p.Graph) {
		slots = append(slots, slot{p.Graph, q.Graph})
	}

	for _, s := range slots {
		v, ok := s.term.(*rdf.Variable)
		if !ok || s.val == nil {
			continue
		}
		name := *v.Name
		if existing, bound := b.Get(name); bound {
			if !existing.Equals(s.val) {
				return nil, false
			}
			continue
		}
		b = b.Bind(name, s.val)
	}
	return b, true
}

type scanIterator struct {
	quadIter *quadstore.QuadIterator
	pattern  algebra.TriplePattern
	current  *bindings.Binding
}

func (e *Executor) runScan(n *algebra.Scan) (Iterator, error) {
	qi, err := e.store.Find(patternToStorePattern(n.Pattern))
	if err != nil {
		return nil, err
	}
	return &scanIterator{quadIter: qi, pattern: n.Pattern}, nil
}

func (it *scanIterator) Next() bool {
	for it.quadIter.Next() {
		b, ok := bindPatternVars(it.pattern, it.quadIter.Quad())
		if !ok {
			continue
		}
		it.current = b
		return true
	}
	return false
}

func (it *scanIterator) Binding() *bindings.Binding { return it.current }
func (it *scanIterator) Close() error               { return it.quadIter.Close() }
