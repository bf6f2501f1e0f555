// Package evaluator evaluates parsed SPARQL expressions (FILTER/BIND
// bodies) against one row of variable bindings at a time.
package evaluator

import (
	"fmt"

	"github.com/trigodb/trigo/pkg/algebra"
	"github.com/trigodb/trigo/pkg/rdf"
	"github.com/trigodb/trigo/pkg/sparql/parser"
)

// Evaluator evaluates SPARQL expressions against bindings. Every literal
// or IRI a built-in function produces is interned through dict, the same
// dictionary the quad store and parser use.
type Evaluator struct {
	dict          *rdf.Dictionary
	existsChecker func(pattern *parser.GraphPattern, binding algebra.BindingLookup) (bool, error)
}

// NewEvaluator creates a new expression evaluator over dict.
func NewEvaluator(dict *rdf.Dictionary) *Evaluator {
	return &Evaluator{dict: dict}
}

// SetExistsChecker installs the callback used to evaluate EXISTS/NOT
// EXISTS. The executor supplies this after compiling a query, since only
// it can plan and run a nested graph pattern against the store.
func (e *Evaluator) SetExistsChecker(fn func(pattern *parser.GraphPattern, binding algebra.BindingLookup) (bool, error)) {
	e.existsChecker = fn
}

// EffectiveBooleanValue exposes effectiveBooleanValue to callers outside
// the package (the executor's FILTER evaluation needs it).
func (e *Evaluator) EffectiveBooleanValue(term rdf.Term) (bool, error) {
	return e.effectiveBooleanValue(term)
}

// Evaluate evaluates an expression against a binding and returns the result term
// Returns (result, error) where error is nil on success
// If the expression cannot be evaluated (type error, unbound variable, etc.), returns an error
func (e *Evaluator) Evaluate(expr parser.Expression, binding algebra.BindingLookup) (rdf.Term, error) {
	if expr == nil {
		return nil, fmt.Errorf("cannot evaluate nil expression")
	}

	switch ex := expr.(type) {
	case *parser.BinaryExpression:
		return e.evaluateBinaryExpression(ex, binding)
	case *parser.UnaryExpression:
		return e.evaluateUnaryExpression(ex, binding)
	case *parser.VariableExpression:
		return e.evaluateVariableExpression(ex, binding)
	case *parser.LiteralExpression:
		return e.evaluateLiteralExpression(ex, binding)
	case *parser.FunctionCallExpression:
		return e.evaluateFunctionCall(ex, binding)
	case *parser.ExistsExpression:
		return e.evaluateExistsExpression(ex, binding)
	case *parser.InExpression:
		return e.evaluateInExpression(ex, binding)
	default:
		return nil, fmt.Errorf("unsupported expression type: %T", expr)
	}
}

// evaluateVariableExpression evaluates a variable reference
func (e *Evaluator) evaluateVariableExpression(expr *parser.VariableExpression, binding algebra.BindingLookup) (rdf.Term, error) {
	if expr.Variable == nil {
		return nil, fmt.Errorf("variable expression has nil variable")
	}

	if expr.Variable.Name == "*" {
		return nil, fmt.Errorf("* is not a valid variable reference in expressions")
	}

	value, exists := binding.Get(expr.Variable.Name)
	if !exists {
		return nil, fmt.Errorf("unbound variable: ?%s", expr.Variable.Name)
	}

	return value, nil
}

// evaluateLiteralExpression evaluates a literal constant
func (e *Evaluator) evaluateLiteralExpression(expr *parser.LiteralExpression, binding algebra.BindingLookup) (rdf.Term, error) {
	if expr.Literal == nil {
		return nil, fmt.Errorf("literal expression has nil literal")
	}
	return expr.Literal, nil
}

// evaluateExistsExpression evaluates EXISTS or NOT EXISTS. This requires
// re-running the nested graph pattern against the store under the current
// row's bindings, which the evaluator doesn't have access to on its own —
// the executor substitutes a closure for it before the query runs.
func (e *Evaluator) evaluateExistsExpression(expr *parser.ExistsExpression, binding algebra.BindingLookup) (rdf.Term, error) {
	if e.existsChecker == nil {
		return nil, fmt.Errorf("EXISTS/NOT EXISTS requires a query executor context")
	}
	found, err := e.existsChecker(&expr.Pattern, binding)
	if err != nil {
		return nil, err
	}
	if expr.Not {
		found = !found
	}
	return e.dict.NewBooleanLiteral(found), nil
}

// evaluateInExpression evaluates IN or NOT IN operator
// x IN (e1, e2, ...) is equivalent to (x = e1) || (x = e2) || ...
// x NOT IN (e1, e2, ...) is equivalent to !((x = e1) || (x = e2) || ...)
func (e *Evaluator) evaluateInExpression(expr *parser.InExpression, binding algebra.BindingLookup) (rdf.Term, error) {
	leftValue, err := e.Evaluate(expr.Expression, binding)
	if err != nil {
		return nil, err
	}

	found := false
	for _, valueExpr := range expr.Values {
		rightValue, err := e.Evaluate(valueExpr, binding)
		if err != nil {
			// If evaluation fails for any value, skip it (SPARQL semantics)
			continue
		}
		if leftValue.Equals(rightValue) {
			found = true
			break
		}
	}

	if expr.Not {
		return e.dict.NewBooleanLiteral(!found), nil
	}
	return e.dict.NewBooleanLiteral(found), nil
}
