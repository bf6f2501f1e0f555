package storage

import (
	"testing"

	"github.com/trigodb/trigo/pkg/quadstore"
	"github.com/trigodb/trigo/pkg/rdf"
	"github.com/trigodb/trigo/pkg/store"
)

func TestBatchInsertAndQuery(t *testing.T) {
	tmpDir := t.TempDir()
	backend, err := NewBadgerStorage(tmpDir)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer backend.Close()

	dict := rdf.NewDictionary()
	qs := quadstore.New(backend, dict)

	name := dict.NewIRI("http://xmlns.com/foaf/0.1/name")
	quads := []rdf.Quad{
		{Subject: dict.NewIRI("http://example.org/alice"), Predicate: name, Object: dict.NewLiteral("Alice")},
		{Subject: dict.NewIRI("http://example.org/bob"), Predicate: name, Object: dict.NewLiteral("Bob")},
		{
			Subject: dict.NewIRI("http://example.org/charlie"), Predicate: name, Object: dict.NewLiteral("Charlie"),
			Graph: dict.NewIRI("http://example.org/graph1"),
		},
	}

	if err := qs.BatchInsert(quads); err != nil {
		t.Fatalf("failed to batch insert: %v", err)
	}

	if qs.Count() != 3 {
		t.Errorf("expected count 3, got %d", qs.Count())
	}

	it, err := qs.Find(store.Pattern{GraphSet: true, Graph: nil})
	if err != nil {
		t.Fatalf("failed to query: %v", err)
	}
	defer it.Close()

	defaultGraphCount := 0
	for it.Next() {
		if it.Quad().Graph != nil {
			t.Errorf("expected default graph, got %v", it.Quad().Graph)
		}
		defaultGraphCount++
	}
	if defaultGraphCount != 2 {
		t.Errorf("expected 2 quads in default graph, got %d", defaultGraphCount)
	}

	it2, err := qs.Find(store.Pattern{GraphSet: true, Graph: dict.NewIRI("http://example.org/graph1")})
	if err != nil {
		t.Fatalf("failed to query named graph: %v", err)
	}
	defer it2.Close()

	namedGraphCount := 0
	for it2.Next() {
		namedGraphCount++
		subj, ok := it2.Quad().Subject.(*rdf.IRI)
		if !ok || *subj.Value != "http://example.org/charlie" {
			t.Errorf("expected charlie, got %v", it2.Quad().Subject)
		}
	}
	if namedGraphCount != 1 {
		t.Errorf("expected 1 quad in named graph, got %d", namedGraphCount)
	}
}

func TestBatchInsertAndQuerySpecificValues(t *testing.T) {
	tmpDir := t.TempDir()
	backend, err := NewBadgerStorage(tmpDir)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer backend.Close()

	dict := rdf.NewDictionary()
	qs := quadstore.New(backend, dict)

	aliceNode := dict.NewIRI("http://example.org/alice")
	nameProperty := dict.NewIRI("http://xmlns.com/foaf/0.1/name")
	aliceLiteral := dict.NewLiteral("Alice")

	quads := []rdf.Quad{
		{Subject: aliceNode, Predicate: nameProperty, Object: aliceLiteral},
		{Subject: aliceNode, Predicate: dict.NewIRI("http://xmlns.com/foaf/0.1/age"), Object: dict.NewIntegerLiteral(30)},
	}
	if err := qs.BatchInsert(quads); err != nil {
		t.Fatalf("failed to batch insert: %v", err)
	}

	it, err := qs.Find(store.Pattern{Subject: aliceNode, Predicate: nameProperty})
	if err != nil {
		t.Fatalf("failed to query: %v", err)
	}
	defer it.Close()

	found := false
	for it.Next() {
		lit, ok := it.Quad().Object.(*rdf.Literal)
		if !ok {
			t.Fatal("expected literal object")
		}
		if *lit.Value == "Alice" {
			found = true
		}
	}
	if !found {
		t.Error("did not find alice's name")
	}
}

func TestBatchDeleteAndQuery(t *testing.T) {
	tmpDir := t.TempDir()
	backend, err := NewBadgerStorage(tmpDir)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer backend.Close()

	dict := rdf.NewDictionary()
	qs := quadstore.New(backend, dict)

	name := dict.NewIRI("http://xmlns.com/foaf/0.1/name")
	alice := rdf.Quad{Subject: dict.NewIRI("http://example.org/alice"), Predicate: name, Object: dict.NewLiteral("Alice")}
	bob := rdf.Quad{Subject: dict.NewIRI("http://example.org/bob"), Predicate: name, Object: dict.NewLiteral("Bob")}

	if err := qs.BatchInsert([]rdf.Quad{alice, bob}); err != nil {
		t.Fatalf("failed to batch insert: %v", err)
	}
	if qs.Count() != 2 {
		t.Errorf("expected count 2 before delete, got %d", qs.Count())
	}

	if err := qs.Remove(alice); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if qs.Count() != 1 {
		t.Errorf("expected count 1 after delete, got %d", qs.Count())
	}

	it, err := qs.Find(store.Pattern{})
	if err != nil {
		t.Fatalf("failed to query after delete: %v", err)
	}
	defer it.Close()

	foundBob, foundAlice := false, false
	for it.Next() {
		subj, ok := it.Quad().Subject.(*rdf.IRI)
		if !ok {
			t.Error("expected IRI subject")
			continue
		}
		switch *subj.Value {
		case "http://example.org/bob":
			foundBob = true
		case "http://example.org/alice":
			foundAlice = true
		}
	}
	if !foundBob {
		t.Error("Bob should still be present after delete")
	}
	if foundAlice {
		t.Error("Alice should be deleted")
	}
}
