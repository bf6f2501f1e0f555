package executor

import (
	"testing"

	"github.com/trigodb/trigo/internal/memstore"
	"github.com/trigodb/trigo/pkg/quadstore"
	"github.com/trigodb/trigo/pkg/rdf"
	"github.com/trigodb/trigo/pkg/sparql/parser"
)

func newTestExecutor(t *testing.T) (*Executor, *quadstore.Store, *rdf.Dictionary) {
	t.Helper()
	dict := rdf.NewDictionary()
	qs := quadstore.New(memstore.NewMemoryStorage(), dict)
	return NewExecutor(qs), qs, dict
}

func mustInsert(t *testing.T, qs *quadstore.Store, s, p, o rdf.Term) {
	t.Helper()
	if err := qs.Insert(rdf.Quad{Subject: s, Predicate: p, Object: o}); err != nil {
		t.Fatal(err)
	}
}

func mustParse(t *testing.T, query string, dict *rdf.Dictionary) *parser.Query {
	t.Helper()
	q, err := parser.NewParser(query, dict).Parse()
	if err != nil {
		t.Fatalf("parse %q: %v", query, err)
	}
	return q
}

func TestSelectBasicGraphPattern(t *testing.T) {
	e, qs, d := newTestExecutor(t)
	name := d.NewIRI("http://ex/name")
	age := d.NewIRI("http://ex/age")
	alice := d.NewIRI("http://ex/alice")
	mustInsert(t, qs, alice, name, d.NewLiteral("Alice"))
	mustInsert(t, qs, alice, age, d.NewIntegerLiteral(30))

	q := mustParse(t, `SELECT ?n ?a WHERE { ?p <http://ex/name> ?n . ?p <http://ex/age> ?a . }`, d)
	result, err := e.Execute(q)
	if err != nil {
		t.Fatal(err)
	}
	sel, ok := result.(*SelectResult)
	if !ok {
		t.Fatalf("expected SelectResult, got %T", result)
	}
	if len(sel.Bindings) != 1 {
		t.Fatalf("expected 1 row, got %d", len(sel.Bindings))
	}
	n, _ := sel.Bindings[0].Get("n")
	if !n.Equals(d.NewLiteral("Alice")) {
		t.Errorf("expected n=Alice, got %v", n)
	}
}

func TestSelectStarOrdersVariablesBySourceAppearance(t *testing.T) {
	e, qs, d := newTestExecutor(t)
	knows := d.NewIRI("http://ex/knows")
	alice := d.NewIRI("http://ex/alice")
	bob := d.NewIRI("http://ex/bob")
	mustInsert(t, qs, alice, knows, bob)

	q := mustParse(t, `SELECT * WHERE { ?s <http://ex/knows> ?o . }`, d)
	result, err := e.Execute(q)
	if err != nil {
		t.Fatal(err)
	}
	sel := result.(*SelectResult)
	if len(sel.Variables) != 2 || sel.Variables[0].Name != "s" || sel.Variables[1].Name != "o" {
		t.Fatalf("expected [s o], got %v", sel.Variables)
	}
}

func TestFilterExcludesNonMatchingRows(t *testing.T) {
	e, qs, d := newTestExecutor(t)
	age := d.NewIRI("http://ex/age")
	alice := d.NewIRI("http://ex/alice")
	bob := d.NewIRI("http://ex/bob")
	mustInsert(t, qs, alice, age, d.NewIntegerLiteral(30))
	mustInsert(t, qs, bob, age, d.NewIntegerLiteral(15))

	q := mustParse(t, `SELECT ?p WHERE { ?p <http://ex/age> ?a . FILTER(?a > 18) }`, d)
	result, err := e.Execute(q)
	if err != nil {
		t.Fatal(err)
	}
	sel := result.(*SelectResult)
	if len(sel.Bindings) != 1 {
		t.Fatalf("expected 1 row, got %d", len(sel.Bindings))
	}
	p, _ := sel.Bindings[0].Get("p")
	if !p.Equals(alice) {
		t.Errorf("expected p=alice, got %v", p)
	}
}

func TestOptionalKeepsUnmatchedRows(t *testing.T) {
	e, qs, d := newTestExecutor(t)
	name := d.NewIRI("http://ex/name")
	email := d.NewIRI("http://ex/email")
	alice := d.NewIRI("http://ex/alice")
	bob := d.NewIRI("http://ex/bob")
	mustInsert(t, qs, alice, name, d.NewLiteral("Alice"))
	mustInsert(t, qs, bob, name, d.NewLiteral("Bob"))
	mustInsert(t, qs, alice, email, d.NewLiteral("alice@ex"))

	q := mustParse(t, `SELECT ?n ?e WHERE { ?p <http://ex/name> ?n . OPTIONAL { ?p <http://ex/email> ?e . } }`, d)
	result, err := e.Execute(q)
	if err != nil {
		t.Fatal(err)
	}
	sel := result.(*SelectResult)
	if len(sel.Bindings) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(sel.Bindings))
	}
	foundUnbound := false
	for _, row := range sel.Bindings {
		if _, ok := row.Get("e"); !ok {
			foundUnbound = true
		}
	}
	if !foundUnbound {
		t.Error("expected at least one row with ?e left unbound")
	}
}

func TestUnionCombinesBothBranches(t *testing.T) {
	e, qs, d := newTestExecutor(t)
	name := d.NewIRI("http://ex/name")
	nick := d.NewIRI("http://ex/nick")
	alice := d.NewIRI("http://ex/alice")
	bob := d.NewIRI("http://ex/bob")
	mustInsert(t, qs, alice, name, d.NewLiteral("Alice"))
	mustInsert(t, qs, bob, nick, d.NewLiteral("Bobby"))

	q := mustParse(t, `SELECT ?label WHERE { { ?p <http://ex/name> ?label . } UNION { ?p <http://ex/nick> ?label . } }`, d)
	result, err := e.Execute(q)
	if err != nil {
		t.Fatal(err)
	}
	sel := result.(*SelectResult)
	if len(sel.Bindings) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(sel.Bindings))
	}
}

func TestMinusRemovesCompatibleRows(t *testing.T) {
	e, qs, d := newTestExecutor(t)
	knows := d.NewIRI("http://ex/knows")
	blocked := d.NewIRI("http://ex/blocked")
	alice := d.NewIRI("http://ex/alice")
	bob := d.NewIRI("http://ex/bob")
	carol := d.NewIRI("http://ex/carol")
	mustInsert(t, qs, alice, knows, bob)
	mustInsert(t, qs, alice, knows, carol)
	mustInsert(t, qs, alice, blocked, bob)

	q := mustParse(t, `SELECT ?f WHERE { <http://ex/alice> <http://ex/knows> ?f . MINUS { <http://ex/alice> <http://ex/blocked> ?f . } }`, d)
	result, err := e.Execute(q)
	if err != nil {
		t.Fatal(err)
	}
	sel := result.(*SelectResult)
	if len(sel.Bindings) != 1 {
		t.Fatalf("expected 1 row, got %d", len(sel.Bindings))
	}
	f, _ := sel.Bindings[0].Get("f")
	if !f.Equals(carol) {
		t.Errorf("expected f=carol, got %v", f)
	}
}

func TestGraphRestrictsToNamedGraph(t *testing.T) {
	e, qs, d := newTestExecutor(t)
	name := d.NewIRI("http://ex/name")
	alice := d.NewIRI("http://ex/alice")
	g1 := d.NewIRI("http://ex/g1")
	g2 := d.NewIRI("http://ex/g2")
	if err := qs.Insert(rdf.Quad{Subject: alice, Predicate: name, Object: d.NewLiteral("G1 Alice"), Graph: g1}); err != nil {
		t.Fatal(err)
	}
	if err := qs.Insert(rdf.Quad{Subject: alice, Predicate: name, Object: d.NewLiteral("G2 Alice"), Graph: g2}); err != nil {
		t.Fatal(err)
	}

	q := mustParse(t, `SELECT ?n WHERE { GRAPH <http://ex/g1> { ?p <http://ex/name> ?n . } }`, d)
	result, err := e.Execute(q)
	if err != nil {
		t.Fatal(err)
	}
	sel := result.(*SelectResult)
	if len(sel.Bindings) != 1 {
		t.Fatalf("expected 1 row, got %d", len(sel.Bindings))
	}
	n, _ := sel.Bindings[0].Get("n")
	if !n.Equals(d.NewLiteral("G1 Alice")) {
		t.Errorf("expected G1 Alice, got %v", n)
	}
}

func TestGraphVariableBindsGraphName(t *testing.T) {
	e, qs, d := newTestExecutor(t)
	name := d.NewIRI("http://ex/name")
	alice := d.NewIRI("http://ex/alice")
	g1 := d.NewIRI("http://ex/g1")
	if err := qs.Insert(rdf.Quad{Subject: alice, Predicate: name, Object: d.NewLiteral("Alice"), Graph: g1}); err != nil {
		t.Fatal(err)
	}

	q := mustParse(t, `SELECT ?g WHERE { GRAPH ?g { ?p <http://ex/name> ?n . } }`, d)
	result, err := e.Execute(q)
	if err != nil {
		t.Fatal(err)
	}
	sel := result.(*SelectResult)
	if len(sel.Bindings) != 1 {
		t.Fatalf("expected 1 row, got %d", len(sel.Bindings))
	}
	g, ok := sel.Bindings[0].Get("g")
	if !ok || !g.Equals(g1) {
		t.Errorf("expected g=%v, got %v", g1, g)
	}
}

func TestOrderByVariableAscending(t *testing.T) {
	e, qs, d := newTestExecutor(t)
	age := d.NewIRI("http://ex/age")
	alice := d.NewIRI("http://ex/alice")
	bob := d.NewIRI("http://ex/bob")
	mustInsert(t, qs, alice, age, d.NewIntegerLiteral(30))
	mustInsert(t, qs, bob, age, d.NewIntegerLiteral(15))

	q := mustParse(t, `SELECT ?p ?a WHERE { ?p <http://ex/age> ?a . } ORDER BY ?a`, d)
	result, err := e.Execute(q)
	if err != nil {
		t.Fatal(err)
	}
	sel := result.(*SelectResult)
	if len(sel.Bindings) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(sel.Bindings))
	}
	first, _ := sel.Bindings[0].Get("p")
	if !first.Equals(bob) {
		t.Errorf("expected bob first (age 15), got %v", first)
	}
}

func TestOrderByExpressionDoesNotLeakSyntheticVariable(t *testing.T) {
	e, qs, d := newTestExecutor(t)
	age := d.NewIRI("http://ex/age")
	alice := d.NewIRI("http://ex/alice")
	bob := d.NewIRI("http://ex/bob")
	mustInsert(t, qs, alice, age, d.NewIntegerLiteral(30))
	mustInsert(t, qs, bob, age, d.NewIntegerLiteral(15))

	q := mustParse(t, `SELECT ?p WHERE { ?p <http://ex/age> ?a . } ORDER BY (?a * -1)`, d)
	result, err := e.Execute(q)
	if err != nil {
		t.Fatal(err)
	}
	sel := result.(*SelectResult)
	for _, row := range sel.Bindings {
		if row.Len() != 1 {
			t.Fatalf("expected only ?p bound, got %d vars: %v", row.Len(), row.Vars())
		}
	}
}

func TestDistinctRemovesDuplicateRows(t *testing.T) {
	e, qs, d := newTestExecutor(t)
	knows := d.NewIRI("http://ex/knows")
	alice := d.NewIRI("http://ex/alice")
	bob := d.NewIRI("http://ex/bob")
	carol := d.NewIRI("http://ex/carol")
	mustInsert(t, qs, alice, knows, bob)
	mustInsert(t, qs, alice, knows, carol)

	q := mustParse(t, `SELECT DISTINCT ?p WHERE { ?p <http://ex/knows> ?f . }`, d)
	result, err := e.Execute(q)
	if err != nil {
		t.Fatal(err)
	}
	sel := result.(*SelectResult)
	if len(sel.Bindings) != 1 {
		t.Fatalf("expected 1 distinct row, got %d", len(sel.Bindings))
	}
}

func TestLimitAndOffset(t *testing.T) {
	e, qs, d := newTestExecutor(t)
	knows := d.NewIRI("http://ex/knows")
	alice := d.NewIRI("http://ex/alice")
	for _, name := range []string{"bob", "carol", "dave"} {
		mustInsert(t, qs, alice, knows, d.NewIRI("http://ex/"+name))
	}

	q := mustParse(t, `SELECT ?f WHERE { <http://ex/alice> <http://ex/knows> ?f . } ORDER BY ?f LIMIT 1 OFFSET 1`, d)
	result, err := e.Execute(q)
	if err != nil {
		t.Fatal(err)
	}
	sel := result.(*SelectResult)
	if len(sel.Bindings) != 1 {
		t.Fatalf("expected 1 row, got %d", len(sel.Bindings))
	}
}

func TestAskTrueWhenPatternMatches(t *testing.T) {
	e, qs, d := newTestExecutor(t)
	knows := d.NewIRI("http://ex/knows")
	alice := d.NewIRI("http://ex/alice")
	bob := d.NewIRI("http://ex/bob")
	mustInsert(t, qs, alice, knows, bob)

	q := mustParse(t, `ASK { <http://ex/alice> <http://ex/knows> ?x . }`, d)
	result, err := e.Execute(q)
	if err != nil {
		t.Fatal(err)
	}
	ask := result.(*AskResult)
	if !ask.Result {
		t.Error("expected ASK true")
	}
}

func TestAskFalseWhenPatternDoesNotMatch(t *testing.T) {
	e, _, d := newTestExecutor(t)
	q := mustParse(t, `ASK { <http://ex/nobody> <http://ex/knows> ?x . }`, d)
	result, err := e.Execute(q)
	if err != nil {
		t.Fatal(err)
	}
	ask := result.(*AskResult)
	if ask.Result {
		t.Error("expected ASK false")
	}
}

func TestConstructInstantiatesTemplate(t *testing.T) {
	e, qs, d := newTestExecutor(t)
	name := d.NewIRI("http://ex/name")
	alice := d.NewIRI("http://ex/alice")
	mustInsert(t, qs, alice, name, d.NewLiteral("Alice"))

	q := mustParse(t, `CONSTRUCT { ?p <http://ex/hasName> ?n . } WHERE { ?p <http://ex/name> ?n . }`, d)
	result, err := e.Execute(q)
	if err != nil {
		t.Fatal(err)
	}
	cons := result.(*ConstructResult)
	if len(cons.Triples) != 1 {
		t.Fatalf("expected 1 triple, got %d", len(cons.Triples))
	}
	if !cons.Triples[0].Subject.Equals(alice) {
		t.Errorf("expected subject=alice, got %v", cons.Triples[0].Subject)
	}
}

func TestDescribeReturnsSubjectTriples(t *testing.T) {
	e, qs, d := newTestExecutor(t)
	name := d.NewIRI("http://ex/name")
	age := d.NewIRI("http://ex/age")
	alice := d.NewIRI("http://ex/alice")
	mustInsert(t, qs, alice, name, d.NewLiteral("Alice"))
	mustInsert(t, qs, alice, age, d.NewIntegerLiteral(30))

	q := mustParse(t, `DESCRIBE <http://ex/alice>`, d)
	result, err := e.Execute(q)
	if err != nil {
		t.Fatal(err)
	}
	cons := result.(*ConstructResult)
	if len(cons.Triples) != 2 {
		t.Fatalf("expected 2 triples, got %d", len(cons.Triples))
	}
}

func TestExistsFilter(t *testing.T) {
	e, qs, d := newTestExecutor(t)
	name := d.NewIRI("http://ex/name")
	email := d.NewIRI("http://ex/email")
	alice := d.NewIRI("http://ex/alice")
	bob := d.NewIRI("http://ex/bob")
	mustInsert(t, qs, alice, name, d.NewLiteral("Alice"))
	mustInsert(t, qs, bob, name, d.NewLiteral("Bob"))
	mustInsert(t, qs, alice, email, d.NewLiteral("alice@ex"))

	q := mustParse(t, `SELECT ?p WHERE { ?p <http://ex/name> ?n . FILTER EXISTS { ?p <http://ex/email> ?e . } }`, d)
	result, err := e.Execute(q)
	if err != nil {
		t.Fatal(err)
	}
	sel := result.(*SelectResult)
	if len(sel.Bindings) != 1 {
		t.Fatalf("expected 1 row, got %d", len(sel.Bindings))
	}
	p, _ := sel.Bindings[0].Get("p")
	if !p.Equals(alice) {
		t.Errorf("expected p=alice, got %v", p)
	}
}
