package evaluator

import (
	"testing"

	"github.com/trigodb/trigo/pkg/algebra"
	"github.com/trigodb/trigo/pkg/bindings"
	"github.com/trigodb/trigo/pkg/rdf"
	"github.com/trigodb/trigo/pkg/sparql/parser"
)

func newTestEvaluator(t *testing.T) (*Evaluator, *rdf.Dictionary) {
	t.Helper()
	dict := rdf.NewDictionary()
	return NewEvaluator(dict), dict
}

func litExpr(t rdf.Term) parser.Expression {
	return &parser.LiteralExpression{Literal: t}
}

func TestEvaluateArithmetic(t *testing.T) {
	e, d := newTestEvaluator(t)
	expr := &parser.BinaryExpression{
		Left:     litExpr(d.NewIntegerLiteral(2)),
		Operator: parser.OpAdd,
		Right:    litExpr(d.NewIntegerLiteral(3)),
	}
	result, err := e.Evaluate(expr, bindings.Empty())
	if err != nil {
		t.Fatal(err)
	}
	lit := result.(*rdf.Literal)
	if *lit.Value != "5" {
		t.Errorf("expected 5, got %s", *lit.Value)
	}
}

func TestEvaluateComparison(t *testing.T) {
	e, d := newTestEvaluator(t)
	expr := &parser.BinaryExpression{
		Left:     litExpr(d.NewIntegerLiteral(10)),
		Operator: parser.OpGreaterThan,
		Right:    litExpr(d.NewIntegerLiteral(5)),
	}
	result, err := e.Evaluate(expr, bindings.Empty())
	if err != nil {
		t.Fatal(err)
	}
	lit := result.(*rdf.Literal)
	if *lit.Value != "true" {
		t.Errorf("expected true, got %s", *lit.Value)
	}
}

func TestEvaluateVariableExpression(t *testing.T) {
	e, d := newTestEvaluator(t)
	b := bindings.Empty().Bind("x", d.NewLiteral("hello"))
	expr := &parser.VariableExpression{Variable: &parser.Variable{Name: "x"}}
	result, err := e.Evaluate(expr, b)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Equals(d.NewLiteral("hello")) {
		t.Errorf("expected hello, got %v", result)
	}
}

func TestEvaluateUnboundVariableErrors(t *testing.T) {
	e, _ := newTestEvaluator(t)
	expr := &parser.VariableExpression{Variable: &parser.Variable{Name: "missing"}}
	if _, err := e.Evaluate(expr, bindings.Empty()); err == nil {
		t.Error("expected error for unbound variable")
	}
}

func TestEvaluateFunctionCallStrlen(t *testing.T) {
	e, d := newTestEvaluator(t)
	expr := &parser.FunctionCallExpression{
		Function:  "STRLEN",
		Arguments: []parser.Expression{litExpr(d.NewLiteral("hello"))},
	}
	result, err := e.Evaluate(expr, bindings.Empty())
	if err != nil {
		t.Fatal(err)
	}
	lit := result.(*rdf.Literal)
	if *lit.Value != "5" {
		t.Errorf("expected 5, got %s", *lit.Value)
	}
}

func TestEvaluateInExpression(t *testing.T) {
	e, d := newTestEvaluator(t)
	expr := &parser.InExpression{
		Expression: litExpr(d.NewIntegerLiteral(2)),
		Values: []parser.Expression{
			litExpr(d.NewIntegerLiteral(1)),
			litExpr(d.NewIntegerLiteral(2)),
		},
	}
	result, err := e.Evaluate(expr, bindings.Empty())
	if err != nil {
		t.Fatal(err)
	}
	lit := result.(*rdf.Literal)
	if *lit.Value != "true" {
		t.Errorf("expected true, got %s", *lit.Value)
	}
}

func TestEffectiveBooleanValueOfEmptyString(t *testing.T) {
	e, d := newTestEvaluator(t)
	ok, err := e.EffectiveBooleanValue(d.NewLiteral(""))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected EBV of empty string to be false")
	}
}

func TestExistsExpressionUsesInstalledChecker(t *testing.T) {
	e, _ := newTestEvaluator(t)
	called := false
	e.SetExistsChecker(func(pattern *parser.GraphPattern, binding algebra.BindingLookup) (bool, error) {
		called = true
		return true, nil
	})
	expr := &parser.ExistsExpression{Pattern: parser.GraphPattern{}}
	result, err := e.Evaluate(expr, bindings.Empty())
	if err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("expected existsChecker to be invoked")
	}
	lit := result.(*rdf.Literal)
	if *lit.Value != "true" {
		t.Errorf("expected true, got %s", *lit.Value)
	}
}
