package wcoj

import (
	"github.com/trigodb/trigo/pkg/algebra"
	"github.com/trigodb/trigo/pkg/bindings"
	"github.com/trigodb/trigo/pkg/planner"
	"github.com/trigodb/trigo/pkg/quadstore"
	"github.com/trigodb/trigo/pkg/rdf"
	"github.com/trigodb/trigo/pkg/store"
)

// quadFinder is the slice of *quadstore.Store that Evaluate needs; kept
// narrow so tests can fake it with an in-memory relation list.
type quadFinder interface {
	Find(pat store.Pattern) (*quadstore.QuadIterator, error)
}

// relation is one pattern's trie, plus the subsequence of the canonical
// variable order that this pattern actually mentions. relation.vars[i]
// names the variable relation.trie's level i binds.
type relation struct {
	trie *Trie
	vars []string
}

// Evaluate runs a worst-case-optimal join over patterns: one relation (a
// Trie of matching quads, projected onto the pattern's own variables) per
// pattern, intersected level by level in the canonical variable order.
func Evaluate(q quadFinder, patterns []algebra.TriplePattern) ([]*bindings.Binding, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	ordering := planner.AnalyzeOrdering(patterns)
	canonical := ordering.Variables()

	relations := make([]*relation, 0, len(patterns))
	for _, p := range patterns {
		rel, err := buildRelation(q, p, canonical)
		if err != nil {
			return nil, err
		}
		if rel == nil {
			// A pattern with no variables at all is a pure existence check
			// already reflected in the store query; a pattern whose
			// constant-only query matched nothing makes the whole BGP empty.
			return nil, nil
		}
		relations = append(relations, rel)
	}

	var results []*bindings.Binding
	recurseJoin(canonical, 0, relations, bindings.Empty(), &results)
	return results, nil
}

// buildRelation queries the store for every quad matching p's constant
// positions, then projects each match onto p's own variables (in
// canonical order) to build the relation's sorted tuple rows. Returns nil
// if the pattern has no variables, or if it has variables but the
// underlying scan found no matches and so contributes an empty relation
// (meaning the whole multi-way join is empty).
func buildRelation(q quadFinder, p algebra.TriplePattern, canonical []string) (*relation, error) {
	localVars := variablesInCanonicalOrder(p, canonical)
	if len(localVars) == 0 {
		return nil, nil
	}

	sp := store.Pattern{
		Subject:   wildcardOut(p.Subject),
		Predicate: wildcardOut(p.Predicate),
		Object:    wildcardOut(p.Object),
	}
	if p.GraphSet && !rdf.IsVariable(p.Graph) {
		sp.GraphSet = true
		sp.Graph = p.Graph
	}

	it, err := q.Find(sp)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var rows [][]rdf.Term
	for it.Next() {
		row, ok := projectRow(p, it.Quad(), localVars)
		if ok {
			rows = append(rows, row)
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	return &relation{trie: NewTrie(rows, len(localVars)), vars: localVars}, nil
}

func wildcardOut(t rdf.Term) rdf.Term {
	if t == nil || rdf.IsVariable(t) {
		return nil
	}
	return t
}

// variablesInCanonicalOrder returns p's distinct variables ordered to
// match canonical's relative order.
func variablesInCanonicalOrder(p algebra.TriplePattern, canonical []string) []string {
	has := make(map[string]bool)
	for _, t := range patternTerms(p) {
		if v, ok := t.(*rdf.Variable); ok {
			has[*v.Name] = true
		}
	}
	var out []string
	for _, name := range canonical {
		if has[name] {
			out = append(out, name)
		}
	}
	return out
}

func patternTerms(p algebra.TriplePattern) []rdf.Term {
	terms := []rdf.Term{p.Subject, p.Predicate, p.Object}
	if p.GraphSet {
		terms = append(terms, p.Graph)
	}
	return terms
}

// projectRow builds one relation row from a matched quad: the quad's term
// at each variable position in p, in localVars order. Returns ok=false if
// a variable repeated within p binds to two different terms in q (a
// self-join pattern like ?x p ?x that this particular quad doesn't
// satisfy).
func projectRow(p algebra.TriplePattern, q rdf.Quad, localVars []string) ([]rdf.Term, bool) {
	bound := make(map[string]rdf.Term, len(localVars))
	slots := []struct {
		term rdf.Term
		val  rdf.Term
	}{
		{p.Subject, q.Subject},
		{p.Predicate, q.Predicate},
		{p.Object, q.Object},
	}
	if p.GraphSet {
		slots = append(slots, struct {
			term rdf.Term
			val  rdf.Term
		}{p.Graph, q.Graph})
	}

	for _, s := range slots {
		v, ok := s.term.(*rdf.Variable)
		if !ok || s.val == nil {
			continue
		}
		name := *v.Name
		if existing, ok := bound[name]; ok {
			if !existing.Equals(s.val) {
				return nil, false
			}
			continue
		}
		bound[name] = s.val
	}

	row := make([]rdf.Term, len(localVars))
	for i, name := range localVars {
		val, ok := bound[name]
		if !ok {
			return nil, false
		}
		row[i] = val
	}
	return row, true
}

// recurseJoin walks the canonical variable order one position at a time.
// At each position it gathers every relation whose trie cursor is
// currently resting right before that variable's level, leapfrog-
// intersects their candidate values, and for each agreed value seeks every
// participating relation to it, descends (Open) those with more levels
// left, recurses, then backtracks (Up).
func recurseJoin(canonical []string, i int, relations []*relation, partial *bindings.Binding, results *[]*bindings.Binding) {
	if i == len(canonical) {
		*results = append(*results, partial)
		return
	}
	v := canonical[i]

	var participating []*relation
	for _, r := range relations {
		if r.trie.Level() < len(r.vars) && r.vars[r.trie.Level()] == v {
			participating = append(participating, r)
		}
	}
	if len(participating) == 0 {
		recurseJoin(canonical, i+1, relations, partial, results)
		return
	}

	for _, val := range leapfrogIntersect(participating) {
		for _, r := range participating {
			r.trie.Seek(val)
		}
		next := partial.Bind(v, val)

		var opened []*relation
		for _, r := range participating {
			if r.trie.Level() < len(r.vars)-1 {
				r.trie.Open()
				opened = append(opened, r)
			}
		}

		recurseJoin(canonical, i+1, relations, next, results)

		for _, r := range opened {
			r.trie.Up()
		}
	}
}

// leapfrogIntersect computes the sorted list of values common to every
// participating relation's current level, by round-robin seeking each
// relation's cursor to the current maximum until all agree (the classic
// leapfrog-seek intersection), then advancing past the agreed value to
// look for the next one.
func leapfrogIntersect(relations []*relation) []rdf.Term {
	for _, r := range relations {
		// Start from the top of the current range: a relation opened at an
		// earlier level keeps its cursor here from the previous sibling value.
		r.trie.cur[r.trie.level] = r.trie.lo[r.trie.level] - 1
		r.trie.Next()
	}

	var result []rdf.Term
	for {
		if anyAtEnd(relations) {
			break
		}

		max := relations[0].trie.Value()
		for _, r := range relations[1:] {
			if max.Less(r.trie.Value()) {
				max = r.trie.Value()
			}
		}

		for _, r := range relations {
			if !r.trie.Value().Equals(max) {
				r.trie.Seek(max)
			}
		}
		if anyAtEnd(relations) {
			break
		}

		agreed := true
		v0 := relations[0].trie.Value()
		for _, r := range relations[1:] {
			if !r.trie.Value().Equals(v0) {
				agreed = false
				break
			}
		}

		if agreed {
			result = append(result, v0)
			for _, r := range relations {
				r.trie.Next()
			}
		}
	}
	return result
}

func anyAtEnd(relations []*relation) bool {
	for _, r := range relations {
		if r.trie.AtEnd() {
			return true
		}
	}
	return false
}
