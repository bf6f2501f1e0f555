package quadstore

import (
	"testing"

	"github.com/trigodb/trigo/internal/memstore"
	"github.com/trigodb/trigo/pkg/rdf"
	"github.com/trigodb/trigo/pkg/store"
)

func newTestStore(t *testing.T) (*Store, *rdf.Dictionary) {
	t.Helper()
	dict := rdf.NewDictionary()
	return New(memstore.NewMemoryStorage(), dict), dict
}

func TestInsertAndFindDefaultGraph(t *testing.T) {
	s, d := newTestStore(t)
	q := rdf.Quad{Subject: d.NewIRI("http://ex/s"), Predicate: d.NewIRI("http://ex/p"), Object: d.NewLiteral("v")}
	if err := s.Insert(q); err != nil {
		t.Fatal(err)
	}

	ok, err := s.Contains(q)
	if err != nil || !ok {
		t.Fatalf("Contains = (%v, %v), want (true, nil)", ok, err)
	}

	it, err := s.Find(store.Pattern{Subject: q.Subject, Predicate: q.Predicate})
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	count := 0
	for it.Next() {
		count++
		got := it.Quad()
		if lit, ok := got.Object.(*rdf.Literal); !ok || *lit.Value != "v" {
			t.Errorf("unexpected object %v", got.Object)
		}
	}
	if count != 1 {
		t.Errorf("expected 1 match, got %d", count)
	}
}

func TestDeleteThenReinsert(t *testing.T) {
	s, d := newTestStore(t)
	q := rdf.Quad{Subject: d.NewIRI("http://ex/s"), Predicate: d.NewIRI("http://ex/p"), Object: d.NewIRI("http://ex/o")}

	if err := s.Insert(q); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(q); err != nil {
		t.Fatal(err)
	}
	if s.Count() != 0 {
		t.Errorf("Count() = %d after remove, want 0", s.Count())
	}
	if ok, _ := s.Contains(q); ok {
		t.Error("Contains should be false after remove")
	}

	if err := s.Insert(q); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Contains(q); !ok {
		t.Error("Contains should be true after re-insert")
	}
	if s.Count() != 1 {
		t.Errorf("Count() = %d after re-insert, want 1", s.Count())
	}
}

func TestBatchInsertEquivalentToSequentialInsert(t *testing.T) {
	sBatch, d1 := newTestStore(t)
	sSeq, d2 := newTestStore(t)

	var batchQuads, seqQuads []rdf.Quad
	for i := 0; i < 20; i++ {
		batchQuads = append(batchQuads, rdf.Quad{
			Subject:   d1.NewIRI("http://ex/s"),
			Predicate: d1.NewIRI("http://ex/p"),
			Object:    d1.NewIntegerLiteral(int64(i)),
		})
		seqQuads = append(seqQuads, rdf.Quad{
			Subject:   d2.NewIRI("http://ex/s"),
			Predicate: d2.NewIRI("http://ex/p"),
			Object:    d2.NewIntegerLiteral(int64(i)),
		})
	}

	if err := sBatch.BatchInsert(batchQuads); err != nil {
		t.Fatal(err)
	}
	for _, q := range seqQuads {
		if err := sSeq.Insert(q); err != nil {
			t.Fatal(err)
		}
	}

	if sBatch.Count() != sSeq.Count() {
		t.Errorf("batch count %d != sequential count %d", sBatch.Count(), sSeq.Count())
	}
	if sBatch.Count() != 20 {
		t.Errorf("Count() = %d, want 20", sBatch.Count())
	}
}

func TestIndexSelectionScenario(t *testing.T) {
	s, d := newTestStore(t)
	p := d.NewIRI("http://ex/p")
	o := d.NewLiteral("o")
	g := d.NewIRI("http://ex/g")

	cases := []struct {
		name string
		pat  store.Pattern
		want store.Permutation
	}{
		{"p+o bound", store.Pattern{Predicate: p, Object: o}, store.POCS},
		{"graph only", store.Pattern{GraphSet: true, Graph: g}, store.CSPO},
		{"s+p bound", store.Pattern{Subject: d.NewIRI("http://ex/s"), Predicate: p}, store.SPOC},
	}
	for _, c := range cases {
		if got := store.SelectIndexForPattern(c.pat); got != c.want {
			t.Errorf("%s: SelectIndexForPattern = %v, want %v", c.name, got, c.want)
		}
	}
	_ = s
}

func TestFindOnEmptyStoreYieldsNothing(t *testing.T) {
	s, d := newTestStore(t)
	it, err := s.Find(store.Pattern{Subject: d.NewIRI("http://ex/s")})
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()
	if it.Next() {
		t.Error("expected no matches on an empty store")
	}
}

func TestAllWildcardPatternEnumeratesEveryQuad(t *testing.T) {
	s, d := newTestStore(t)
	for i := 0; i < 5; i++ {
		q := rdf.Quad{Subject: d.NewIRI("http://ex/s"), Predicate: d.NewIRI("http://ex/p"), Object: d.NewIntegerLiteral(int64(i))}
		if err := s.Insert(q); err != nil {
			t.Fatal(err)
		}
	}
	it, err := s.Find(store.Pattern{})
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()
	count := 0
	for it.Next() {
		count++
	}
	if count != 5 {
		t.Errorf("expected 5 quads, got %d", count)
	}
}

func TestNamedGraphRoundTrip(t *testing.T) {
	s, d := newTestStore(t)
	q := rdf.Quad{
		Subject:   d.NewIRI("http://ex/charlie"),
		Predicate: d.NewIRI("http://ex/name"),
		Object:    d.NewLiteral("Charlie"),
		Graph:     d.NewIRI("http://ex/graph1"),
	}
	if err := s.Insert(q); err != nil {
		t.Fatal(err)
	}

	it, err := s.Find(store.Pattern{GraphSet: true, Graph: d.NewIRI("http://ex/graph1")})
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()
	if !it.Next() {
		t.Fatal("expected a match in the named graph")
	}
	if it.Quad().Graph == nil || !it.Quad().Graph.Equals(q.Graph) {
		t.Errorf("graph not preserved: %v", it.Quad().Graph)
	}
}
