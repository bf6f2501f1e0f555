package exec

import (
	"testing"

	"github.com/trigodb/trigo/internal/memstore"
	"github.com/trigodb/trigo/pkg/algebra"
	"github.com/trigodb/trigo/pkg/bindings"
	"github.com/trigodb/trigo/pkg/quadstore"
	"github.com/trigodb/trigo/pkg/rdf"
)

func newTestExecutor(t *testing.T) (*Executor, *quadstore.Store, *rdf.Dictionary) {
	t.Helper()
	dict := rdf.NewDictionary()
	qs := quadstore.New(memstore.NewMemoryStorage(), dict)
	return New(qs), qs, dict
}

func drain(t *testing.T, it Iterator) []*bindings.Binding {
	t.Helper()
	defer it.Close()
	var rows []*bindings.Binding
	for it.Next() {
		rows = append(rows, it.Binding())
	}
	return rows
}

func TestRunScanBindsVariables(t *testing.T) {
	e, qs, d := newTestExecutor(t)
	p := d.NewIRI("http://ex/p")
	s := d.NewIRI("http://ex/s")
	o := d.NewLiteral("v")
	if err := qs.Insert(rdf.Quad{Subject: s, Predicate: p, Object: o}); err != nil {
		t.Fatal(err)
	}

	node := &algebra.Scan{Pattern: algebra.TriplePattern{
		Subject: d.NewVariable("x"), Predicate: p, Object: d.NewVariable("v"),
	}}
	it, err := e.Run(node)
	if err != nil {
		t.Fatal(err)
	}
	rows := drain(t, it)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	x, ok := rows[0].Get("x")
	if !ok || !x.Equals(s) {
		t.Errorf("expected x=%v, got %v", s, x)
	}
}

func TestRunNestedLoopJoin(t *testing.T) {
	e, qs, d := newTestExecutor(t)
	knows := d.NewIRI("http://ex/knows")
	a, b, c := d.NewIRI("http://ex/a"), d.NewIRI("http://ex/b"), d.NewIRI("http://ex/c")
	mustInsert(t, qs, a, knows, b)
	mustInsert(t, qs, b, knows, c)

	x, y, z := d.NewVariable("x"), d.NewVariable("y"), d.NewVariable("z")
	node := &algebra.Join{
		Left:     &algebra.Scan{Pattern: algebra.TriplePattern{Subject: x, Predicate: knows, Object: y}},
		Right:    &algebra.Scan{Pattern: algebra.TriplePattern{Subject: y, Predicate: knows, Object: z}},
		Strategy: algebra.StrategyNestedLoop,
	}
	it, err := e.Run(node)
	if err != nil {
		t.Fatal(err)
	}
	rows := drain(t, it)
	if len(rows) != 1 {
		t.Fatalf("expected 1 joined row, got %d", len(rows))
	}
	xv, _ := rows[0].Get("x")
	zv, _ := rows[0].Get("z")
	if !xv.Equals(a) || !zv.Equals(c) {
		t.Errorf("expected x=a z=c, got x=%v z=%v", xv, zv)
	}
}

func TestRunWCOJStarJoin(t *testing.T) {
	e, qs, d := newTestExecutor(t)
	name := d.NewIRI("http://ex/name")
	age := d.NewIRI("http://ex/age")
	email := d.NewIRI("http://ex/email")
	alice := d.NewIRI("http://ex/alice")
	mustInsert(t, qs, alice, name, d.NewLiteral("Alice"))
	mustInsert(t, qs, alice, age, d.NewIntegerLiteral(30))
	mustInsert(t, qs, alice, email, d.NewLiteral("alice@ex"))

	person := d.NewVariable("person")
	node := &algebra.Join{
		Strategy: algebra.StrategyWCOJ,
		Patterns: []algebra.TriplePattern{
			{Subject: person, Predicate: name, Object: d.NewVariable("n")},
			{Subject: person, Predicate: age, Object: d.NewVariable("a")},
			{Subject: person, Predicate: email, Object: d.NewVariable("e")},
		},
	}
	it, err := e.Run(node)
	if err != nil {
		t.Fatal(err)
	}
	rows := drain(t, it)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	p, _ := rows[0].Get("person")
	if !p.Equals(alice) {
		t.Errorf("expected person=alice, got %v", p)
	}
}

func TestRunFilterDropsNonMatching(t *testing.T) {
	e, qs, d := newTestExecutor(t)
	p := d.NewIRI("http://ex/p")
	s1, s2 := d.NewIRI("http://ex/s1"), d.NewIRI("http://ex/s2")
	mustInsert(t, qs, s1, p, d.NewIntegerLiteral(10))
	mustInsert(t, qs, s2, p, d.NewIntegerLiteral(20))

	scan := &algebra.Scan{Pattern: algebra.TriplePattern{
		Subject: d.NewVariable("s"), Predicate: p, Object: d.NewVariable("v"),
	}}
	filter := &algebra.Filter{
		Input: scan,
		Eval: func(b algebra.BindingLookup) (bool, error) {
			v, ok := b.Get("v")
			if !ok {
				return false, nil
			}
			lit, ok := v.(*rdf.Literal)
			return ok && *lit.Value == "20", nil
		},
	}
	it, err := e.Run(filter)
	if err != nil {
		t.Fatal(err)
	}
	rows := drain(t, it)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row after filter, got %d", len(rows))
	}
	sv, _ := rows[0].Get("s")
	if !sv.Equals(s2) {
		t.Errorf("expected s=s2, got %v", sv)
	}
}

func TestRunSliceAppliesOffsetLimit(t *testing.T) {
	e, qs, d := newTestExecutor(t)
	p := d.NewIRI("http://ex/p")
	for i := 0; i < 5; i++ {
		mustInsert(t, qs, d.NewIRI("http://ex/s"+string(rune('0'+i))), p, d.NewIntegerLiteral(int64(i)))
	}
	scan := &algebra.Scan{Pattern: algebra.TriplePattern{
		Subject: d.NewVariable("s"), Predicate: p, Object: d.NewVariable("v"),
	}}
	slice := &algebra.Slice{Input: scan, Offset: 1, Limit: 2}
	it, err := e.Run(slice)
	if err != nil {
		t.Fatal(err)
	}
	rows := drain(t, it)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}

func mustInsert(t *testing.T, qs *quadstore.Store, s, p, o rdf.Term) {
	t.Helper()
	if err := qs.Insert(rdf.Quad{Subject: s, Predicate: p, Object: o}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
}
