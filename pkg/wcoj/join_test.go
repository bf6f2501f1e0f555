package wcoj

import (
	"testing"

	"github.com/trigodb/trigo/internal/memstore"
	"github.com/trigodb/trigo/pkg/algebra"
	"github.com/trigodb/trigo/pkg/bindings"
	"github.com/trigodb/trigo/pkg/quadstore"
	"github.com/trigodb/trigo/pkg/rdf"
)

func newTestStore(t *testing.T) (*quadstore.Store, *rdf.Dictionary) {
	t.Helper()
	dict := rdf.NewDictionary()
	return quadstore.New(memstore.NewMemoryStorage(), dict), dict
}

func findBinding(rows []*bindings.Binding, name, value string) bool {
	for _, r := range rows {
		t, ok := r.Get(name)
		if !ok {
			continue
		}
		if t.String() == value {
			return true
		}
	}
	return false
}

func TestEvaluateStarQueryIntersection(t *testing.T) {
	qs, d := newTestStore(t)

	foafName := d.NewIRI("http://xmlns.com/foaf/0.1/name")
	foafAge := d.NewIRI("http://xmlns.com/foaf/0.1/age")
	foafEmail := d.NewIRI("http://xmlns.com/foaf/0.1/email")

	alice := d.NewIRI("http://ex/alice")
	bob := d.NewIRI("http://ex/bob")

	mustInsert(t, qs, alice, foafName, d.NewLiteral("Alice"))
	mustInsert(t, qs, alice, foafAge, d.NewIntegerLiteral(30))
	mustInsert(t, qs, alice, foafEmail, d.NewLiteral("alice@ex"))

	mustInsert(t, qs, bob, foafName, d.NewLiteral("Bob"))
	mustInsert(t, qs, bob, foafAge, d.NewIntegerLiteral(40))
	// bob has no email, so bob must not appear in a 3-way star join result.

	person := d.NewVariable("person")
	patterns := []algebra.TriplePattern{
		{Subject: person, Predicate: foafName, Object: d.NewVariable("name")},
		{Subject: person, Predicate: foafAge, Object: d.NewVariable("age")},
		{Subject: person, Predicate: foafEmail, Object: d.NewVariable("email")},
	}

	rows, err := Evaluate(qs, patterns)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected exactly 1 row (alice only), got %d", len(rows))
	}
	if !findBinding(rows, "person", alice.String()) {
		t.Errorf("expected alice in results, got %+v", rows)
	}
	if findBinding(rows, "person", bob.String()) {
		t.Errorf("bob should be excluded (missing email), got %+v", rows)
	}
}

func TestEvaluateCyclicTriangle(t *testing.T) {
	qs, d := newTestStore(t)
	knows := d.NewIRI("http://ex/knows")
	a := d.NewIRI("http://ex/a")
	b := d.NewIRI("http://ex/b")
	c := d.NewIRI("http://ex/c")

	mustInsert(t, qs, a, knows, b)
	mustInsert(t, qs, b, knows, c)
	mustInsert(t, qs, c, knows, a)

	x, y, z := d.NewVariable("x"), d.NewVariable("y"), d.NewVariable("z")
	patterns := []algebra.TriplePattern{
		{Subject: x, Predicate: knows, Object: y},
		{Subject: y, Predicate: knows, Object: z},
		{Subject: z, Predicate: knows, Object: x},
	}

	rows, err := Evaluate(qs, patterns)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rotations of the triangle, got %d: %+v", len(rows), rows)
	}
	for _, r := range rows {
		xv, _ := r.Get("x")
		yv, _ := r.Get("y")
		zv, _ := r.Get("z")
		if xv == nil || yv == nil || zv == nil {
			t.Errorf("expected x,y,z all bound, got %+v", r)
		}
	}
}

func TestEvaluateEmptyPatternsReturnsNil(t *testing.T) {
	qs, _ := newTestStore(t)
	rows, err := Evaluate(qs, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if rows != nil {
		t.Errorf("expected nil rows for empty patterns, got %+v", rows)
	}
}

func TestEvaluateNoMatchesIsEmpty(t *testing.T) {
	qs, d := newTestStore(t)
	knows := d.NewIRI("http://ex/knows")
	name := d.NewIRI("http://ex/name")

	x, y := d.NewVariable("x"), d.NewVariable("y")
	patterns := []algebra.TriplePattern{
		{Subject: x, Predicate: knows, Object: y},
		{Subject: x, Predicate: name, Object: d.NewVariable("n")},
	}

	rows, err := Evaluate(qs, patterns)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows on an empty store, got %+v", rows)
	}
}

func mustInsert(t *testing.T, qs *quadstore.Store, s, p, o rdf.Term) {
	t.Helper()
	if err := qs.Insert(rdf.Quad{Subject: s, Predicate: p, Object: o}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
}
