package parser

import (
	"github.com/trigodb/trigo/pkg/rdf"
)

// Query is the root of a parsed SPARQL query. Exactly one of Select,
// Construct, Ask, Describe is populated, matching QueryType.
type Query struct {
	QueryType QueryType
	Select    *SelectQuery
	Construct *ConstructQuery
	Ask       *AskQuery
	Describe  *DescribeQuery
}

// QueryType identifies the SPARQL query form.
type QueryType int

const (
	QueryTypeSelect QueryType = iota
	QueryTypeConstruct
	QueryTypeAsk
	QueryTypeDescribe
)

// SelectQuery is a SELECT query.
type SelectQuery struct {
	Variables []*Variable // nil/empty with Variables[0].Name == "*" means SELECT *
	Distinct  bool
	Reduced   bool
	Where     *GraphPattern
	GroupBy   []*GroupCondition
	Having    []*Filter
	OrderBy   []*OrderCondition
	Limit     *int
	Offset    *int
}

// ConstructQuery is a CONSTRUCT query.
type ConstructQuery struct {
	Template []*TriplePattern
	Where    *GraphPattern
}

// AskQuery is an ASK query.
type AskQuery struct {
	Where *GraphPattern
}

// DescribeQuery is a DESCRIBE query.
type DescribeQuery struct {
	Resources []rdf.Term // IRIs named explicitly in the DESCRIBE clause
	Where     *GraphPattern
}

// GraphPattern is one WHERE-clause group: a basic graph pattern plus
// whatever FILTER/BIND/OPTIONAL/UNION/MINUS/GRAPH constructs it directly
// contains. Patterns/Filters/Binds/Children hold each kind separately for
// callers that only care about one; Elements preserves the source order
// across all of them, which matters for BIND (a BIND can only see
// variables bound by triples appearing before it in the group).
type GraphPattern struct {
	Type     GraphPatternType
	Patterns []*TriplePattern
	Filters  []*Filter
	Binds    []*Bind
	Elements []PatternElement
	Children []*GraphPattern
	Graph    *GraphTerm // set when Type == GraphPatternTypeGraph
}

// GraphPatternType distinguishes a plain group from the constructs that
// combine groups (UNION, OPTIONAL, MINUS, GRAPH).
type GraphPatternType int

const (
	GraphPatternTypeBasic GraphPatternType = iota
	GraphPatternTypeUnion
	GraphPatternTypeOptional
	GraphPatternTypeGraph
	GraphPatternTypeMinus
)

// PatternElement is one source-order entry in a GraphPattern's body: a
// triple pattern, a FILTER, or a BIND. Exactly one field is set.
type PatternElement struct {
	Triple *TriplePattern
	Filter *Filter
	Bind   *Bind
}

// TriplePattern is a triple with subject/predicate/object slots that may
// each be a constant term or a variable.
type TriplePattern struct {
	Subject   TermOrVariable
	Predicate TermOrVariable
	Object    TermOrVariable
}

// TermOrVariable is either a bound term (Term set) or a variable
// (Variable set), never both.
type TermOrVariable struct {
	Term     rdf.Term
	Variable *Variable
}

// IsVariable reports whether this slot is a variable rather than a
// constant term.
func (t *TermOrVariable) IsVariable() bool {
	return t.Variable != nil
}

// Variable is a SPARQL variable reference, named without its leading ? or $.
type Variable struct {
	Name string
}

// GraphTerm names a graph in a GRAPH <iri-or-variable> { ... } pattern.
type GraphTerm struct {
	IRI      *rdf.IRI
	Variable *Variable
}

// Filter is a FILTER(expression) clause.
type Filter struct {
	Expression Expression
}

// Bind is a BIND(expression AS ?var) clause.
type Bind struct {
	Expression Expression
	Variable   *Variable
}

// GroupCondition is one GROUP BY key. Variable is set for a plain
// variable grouping key; a parenthesized (expr AS ?var) grouping key is
// accepted syntactically but not yet evaluated, so it carries no
// expression here.
type GroupCondition struct {
	Variable *Variable
}

// Expression is a SPARQL filter/bind expression node.
type Expression interface {
	expressionNode()
}

// BinaryExpression applies a binary Operator to two sub-expressions.
type BinaryExpression struct {
	Left     Expression
	Operator Operator
	Right    Expression
}

func (e *BinaryExpression) expressionNode() {}

// UnaryExpression applies a unary Operator (e.g. !, unary -) to one
// sub-expression.
type UnaryExpression struct {
	Operator Operator
	Operand  Expression
}

func (e *UnaryExpression) expressionNode() {}

// VariableExpression references a variable's current binding.
type VariableExpression struct {
	Variable *Variable
}

func (e *VariableExpression) expressionNode() {}

// LiteralExpression is a constant term (literal, IRI, or boolean).
type LiteralExpression struct {
	Literal rdf.Term
}

func (e *LiteralExpression) expressionNode() {}

// FunctionCallExpression is a built-in or extension function invocation,
// e.g. STRLEN(?name) or REGEX(?s, "^a").
type FunctionCallExpression struct {
	Function  string
	Arguments []Expression
}

func (e *FunctionCallExpression) expressionNode() {}

// ExistsExpression is an EXISTS/NOT EXISTS filter: true when Pattern
// matches at least one solution extending the current binding.
type ExistsExpression struct {
	Not     bool
	Pattern GraphPattern
}

func (e *ExistsExpression) expressionNode() {}

// InExpression is `Expression IN (Values...)` or its NOT IN negation.
type InExpression struct {
	Expression Expression
	Values     []Expression
	Not        bool
}

func (e *InExpression) expressionNode() {}

// Operator is an operator appearing in a BinaryExpression or
// UnaryExpression.
type Operator int

const (
	OpAnd Operator = iota
	OpOr
	OpNot

	OpEqual
	OpNotEqual
	OpLessThan
	OpLessThanOrEqual
	OpGreaterThan
	OpGreaterThanOrEqual

	OpAdd
	OpSubtract
	OpMultiply
	OpDivide

	OpRegex
	OpStr
	OpLang
	OpDatatype

	OpIsNumeric
	OpAbs
	OpCeil
	OpFloor
	OpRound
)

// OrderCondition is one ORDER BY key.
type OrderCondition struct {
	Expression Expression
	Ascending  bool
}
