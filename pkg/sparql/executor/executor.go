// Package executor compiles a parsed SPARQL query into an algebra.Node
// plan and runs it against a quad store via pkg/exec, then shapes the
// resulting rows into the query form's result (SELECT bindings, an ASK
// boolean, or CONSTRUCT/DESCRIBE triples).
package executor

import (
	"fmt"

	"github.com/trigodb/trigo/pkg/algebra"
	"github.com/trigodb/trigo/pkg/bindings"
	"github.com/trigodb/trigo/pkg/exec"
	"github.com/trigodb/trigo/pkg/quadstore"
	"github.com/trigodb/trigo/pkg/rdf"
	"github.com/trigodb/trigo/pkg/sparql/evaluator"
	"github.com/trigodb/trigo/pkg/sparql/parser"
	"github.com/trigodb/trigo/pkg/store"
)

// Executor runs SPARQL queries against one quad store.
type Executor struct {
	qs   *quadstore.Store
	run  *exec.Executor
	eval *evaluator.Evaluator
}

// NewExecutor returns an Executor reading from and writing errors against
// qs. Every term the query compiler produces is interned through qs.Dict,
// so Ref pointer equality holds against terms already in the store.
func NewExecutor(qs *quadstore.Store) *Executor {
	ex := &Executor{
		qs:   qs,
		run:  exec.New(qs),
		eval: evaluator.NewEvaluator(qs.Dict()),
	}
	ex.eval.SetExistsChecker(ex.checkExists)
	return ex
}

// QueryResult is the result of running one query; its concrete type
// depends on the query form.
type QueryResult interface {
	isQueryResult()
}

// SelectResult is the result of a SELECT query.
type SelectResult struct {
	Variables []*parser.Variable
	Bindings  []*bindings.Binding
}

func (*SelectResult) isQueryResult() {}

// AskResult is the result of an ASK query.
type AskResult struct {
	Result bool
}

func (*AskResult) isQueryResult() {}

// Triple is one RDF triple produced by a CONSTRUCT or DESCRIBE query.
type Triple struct {
	Subject   rdf.Term
	Predicate rdf.Term
	Object    rdf.Term
}

// ConstructResult is the result of a CONSTRUCT or DESCRIBE query.
type ConstructResult struct {
	Triples []*Triple
}

func (*ConstructResult) isQueryResult() {}

// Execute runs query and returns its result.
func (e *Executor) Execute(query *parser.Query) (QueryResult, error) {
	switch query.QueryType {
	case parser.QueryTypeSelect:
		return e.executeSelect(query.Select)
	case parser.QueryTypeAsk:
		return e.executeAsk(query.Ask)
	case parser.QueryTypeConstruct:
		return e.executeConstruct(query.Construct)
	case parser.QueryTypeDescribe:
		return e.executeDescribe(query.Describe)
	default:
		return nil, fmt.Errorf("executor: unsupported query type %v", query.QueryType)
	}
}

// executeSelect runs a SELECT query, applying solution modifiers in the
// order WHERE -> ORDER BY -> projection -> DISTINCT -> OFFSET -> LIMIT.
func (e *Executor) executeSelect(q *parser.SelectQuery) (*SelectResult, error) {
	node, err := e.compileChild(q.Where)
	if err != nil {
		return nil, err
	}

	outVars, selectAll := e.outputVariables(q)
	if selectAll {
		outVars = extractVariablesFromGraphPattern(q.Where)
	}

	node, err = e.applyOrderBy(node, q.OrderBy)
	if err != nil {
		return nil, err
	}

	node = &algebra.Project{Input: node, Vars: outVars}

	if q.Distinct {
		node = &algebra.Distinct{Input: node}
	}

	if q.Offset != nil || q.Limit != nil {
		offset := 0
		if q.Offset != nil {
			offset = *q.Offset
		}
		limit := -1
		if q.Limit != nil {
			limit = *q.Limit
		}
		node = &algebra.Slice{Input: node, Offset: offset, Limit: limit}
	}

	it, err := e.run.Run(node)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var rows []*bindings.Binding
	for it.Next() {
		rows = append(rows, it.Binding())
	}

	variables := make([]*parser.Variable, len(outVars))
	for i, name := range outVars {
		variables[i] = &parser.Variable{Name: name}
	}

	return &SelectResult{Variables: variables, Bindings: rows}, nil
}

// outputVariables returns q's output variable list and whether it was a
// SELECT * (whose list must be resolved from the WHERE clause instead;
// the parser represents SELECT * as a nil Variables slice).
func (e *Executor) outputVariables(q *parser.SelectQuery) ([]string, bool) {
	if q.Variables == nil {
		return nil, true
	}
	names := make([]string, len(q.Variables))
	for i, v := range q.Variables {
		names[i] = v.Name
	}
	return names, false
}

// applyOrderBy wraps node in an algebra.OrderBy. algebra.OrderBy only
// sorts by a bound variable name, so a non-variable ORDER BY expression is
// first computed into a synthetic variable via Extend and sorted on that.
// executeSelect's later Project always restricts back to the query's true
// output variables, so the synthetic variable never leaks into results.
func (e *Executor) applyOrderBy(node algebra.Node, conditions []*parser.OrderCondition) (algebra.Node, error) {
	if len(conditions) == 0 {
		return node, nil
	}

	keys := make([]algebra.OrderKey, len(conditions))
	for i, cond := range conditions {
		if varExpr, ok := cond.Expression.(*parser.VariableExpression); ok {
			keys[i] = algebra.OrderKey{Var: varExpr.Variable.Name, Descending: !cond.Ascending}
			continue
		}
		synthetic := fmt.Sprintf(".orderby.%d", i)
		expr := cond.Expression
		node = &algebra.Extend{
			Input: node,
			Var:   synthetic,
			Compute: func(b algebra.BindingLookup) (rdf.Term, bool) {
				result, err := e.eval.Evaluate(expr, b)
				if err != nil {
					return nil, false
				}
				return result, true
			},
		}
		keys[i] = algebra.OrderKey{Var: synthetic, Descending: !cond.Ascending}
	}

	return &algebra.OrderBy{Input: node, Keys: keys}, nil
}

// executeAsk runs an ASK query: true iff WHERE has at least one solution.
func (e *Executor) executeAsk(q *parser.AskQuery) (*AskResult, error) {
	node, err := e.compileChild(q.Where)
	if err != nil {
		return nil, err
	}
	node = &algebra.Slice{Input: node, Offset: 0, Limit: 1}

	it, err := e.run.Run(node)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	return &AskResult{Result: it.Next()}, nil
}

// executeConstruct runs a CONSTRUCT query: instantiates q.Template against
// every WHERE solution, deduplicating triples.
func (e *Executor) executeConstruct(q *parser.ConstructQuery) (*ConstructResult, error) {
	node, err := e.compileChild(q.Where)
	if err != nil {
		return nil, err
	}

	it, err := e.run.Run(node)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	seen := make(map[string]bool)
	var triples []*Triple
	for it.Next() {
		row := it.Binding()
		for _, tp := range q.Template {
			s, ok := e.instantiate(tp.Subject, row)
			if !ok {
				continue
			}
			p, ok := e.instantiate(tp.Predicate, row)
			if !ok {
				continue
			}
			o, ok := e.instantiate(tp.Object, row)
			if !ok {
				continue
			}
			key := s.String() + "\x00" + p.String() + "\x00" + o.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			triples = append(triples, &Triple{Subject: s, Predicate: p, Object: o})
		}
	}

	return &ConstructResult{Triples: triples}, nil
}

// executeDescribe runs a DESCRIBE query: a concise bounded description
// (every triple with it as subject) of each explicitly named resource,
// plus every resource bound to a WHERE variable when WHERE is present.
func (e *Executor) executeDescribe(q *parser.DescribeQuery) (*ConstructResult, error) {
	resources := append([]rdf.Term{}, q.Resources...)

	if q.Where != nil {
		node, err := e.compileChild(q.Where)
		if err != nil {
			return nil, err
		}
		it, err := e.run.Run(node)
		if err != nil {
			return nil, err
		}
		for it.Next() {
			row := it.Binding()
			for _, name := range row.Vars() {
				if term, ok := row.Get(name); ok {
					resources = append(resources, term)
				}
			}
		}
		it.Close()
	}

	seen := make(map[string]bool)
	var triples []*Triple
	for _, resource := range resources {
		qit, err := e.qs.Find(store.Pattern{Subject: resource})
		if err != nil {
			return nil, err
		}
		for qit.Next() {
			quad := qit.Quad()
			key := quad.Subject.String() + "\x00" + quad.Predicate.String() + "\x00" + quad.Object.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			triples = append(triples, &Triple{Subject: quad.Subject, Predicate: quad.Predicate, Object: quad.Object})
		}
		err = qit.Err()
		qit.Close()
		if err != nil {
			return nil, err
		}
	}

	return &ConstructResult{Triples: triples}, nil
}

// instantiate resolves a CONSTRUCT template slot against a WHERE solution:
// a constant term passes through unchanged, a variable resolves against
// row (ok is false when it is unbound, dropping the whole triple per
// CONSTRUCT semantics).
func (e *Executor) instantiate(tov parser.TermOrVariable, row *bindings.Binding) (rdf.Term, bool) {
	if !tov.IsVariable() {
		return tov.Term, true
	}
	return row.Get(tov.Variable.Name)
}

// checkExists evaluates an EXISTS/NOT EXISTS pattern against outer: true
// iff pattern has a solution compatible with outer on every variable they
// share.
func (e *Executor) checkExists(pattern *parser.GraphPattern, outer algebra.BindingLookup) (bool, error) {
	node, err := e.compileChild(pattern)
	if err != nil {
		return false, err
	}
	if node == nil {
		return true, nil
	}

	it, err := e.run.Run(node)
	if err != nil {
		return false, err
	}
	defer it.Close()

	for it.Next() {
		row := it.Binding()
		compatible := true
		for _, name := range row.Vars() {
			inner, _ := row.Get(name)
			if outerVal, ok := outer.Get(name); ok && !outerVal.Equals(inner) {
				compatible = false
				break
			}
		}
		if compatible {
			return true, nil
		}
	}
	return false, nil
}
