package bindings

import (
	"testing"

	"github.com/trigodb/trigo/pkg/rdf"
)

func TestBindAndGet(t *testing.T) {
	d := rdf.NewDictionary()
	b := Empty().Bind("x", d.NewIRI("http://ex/a"))
	got, ok := b.Get("x")
	if !ok || !got.Equals(d.NewIRI("http://ex/a")) {
		t.Fatalf("Get(x) = (%v, %v)", got, ok)
	}
	if _, ok := b.Get("y"); ok {
		t.Error("Get(y) should be absent")
	}
}

func TestCompatibleAndMerge(t *testing.T) {
	d := rdf.NewDictionary()
	a := d.NewIRI("http://ex/a")
	b := d.NewIRI("http://ex/b")

	left := Empty().Bind("x", a)
	rightCompat := Empty().Bind("y", b)
	rightConflict := Empty().Bind("x", b)

	if !left.Compatible(rightCompat) {
		t.Error("disjoint bindings should be compatible")
	}
	merged := left.Merge(rightCompat)
	if merged == nil || merged.Len() != 2 {
		t.Fatalf("expected merged binding with 2 vars, got %v", merged)
	}

	if left.Compatible(rightConflict) {
		t.Error("conflicting bindings should not be compatible")
	}
	if left.Merge(rightConflict) != nil {
		t.Error("Merge of incompatible bindings should return nil")
	}
}

func TestMergeSameValueIsCompatible(t *testing.T) {
	d := rdf.NewDictionary()
	a := d.NewIRI("http://ex/a")
	left := Empty().Bind("x", a)
	right := Empty().Bind("x", a)
	merged := left.Merge(right)
	if merged == nil || merged.Len() != 1 {
		t.Fatalf("expected single-var merge, got %v", merged)
	}
}

func TestProject(t *testing.T) {
	d := rdf.NewDictionary()
	full := Empty().Bind("x", d.NewIRI("http://ex/a")).Bind("y", d.NewIRI("http://ex/b"))
	proj := full.Project([]string{"x"})
	if proj.Len() != 1 || !proj.Has("x") || proj.Has("y") {
		t.Errorf("Project(x) = %v", proj.Vars())
	}
}

func TestExtendOverridesExisting(t *testing.T) {
	d := rdf.NewDictionary()
	b := Empty().Bind("x", d.NewIRI("http://ex/a"))
	b2 := b.Extend("x", d.NewIRI("http://ex/b"))
	got, _ := b2.Get("x")
	if !got.Equals(d.NewIRI("http://ex/b")) {
		t.Errorf("Extend should override, got %v", got)
	}
}

func TestSignatureOrderIndependent(t *testing.T) {
	d := rdf.NewDictionary()
	a := Empty().Bind("x", d.NewIRI("http://ex/a")).Bind("y", d.NewIRI("http://ex/b"))
	b := Empty().Bind("y", d.NewIRI("http://ex/b")).Bind("x", d.NewIRI("http://ex/a"))
	if a.Signature() != b.Signature() {
		t.Errorf("signatures differ for equal content: %q vs %q", a.Signature(), b.Signature())
	}
	if a.Hash() != b.Hash() {
		t.Error("hashes differ for equal content")
	}
}

func TestEquals(t *testing.T) {
	d := rdf.NewDictionary()
	a := Empty().Bind("x", d.NewIRI("http://ex/a"))
	b := Empty().Bind("x", d.NewIRI("http://ex/a"))
	c := Empty().Bind("x", d.NewIRI("http://ex/b"))
	if !a.Equals(b) {
		t.Error("equal bindings should compare Equals == true")
	}
	if a.Equals(c) {
		t.Error("differing bindings should compare Equals == false")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	d := rdf.NewDictionary()
	a := Empty().Bind("x", d.NewIRI("http://ex/a"))
	b := a.Clone().Bind("y", d.NewIRI("http://ex/b"))
	if a.Has("y") {
		t.Error("mutating a clone should not affect the original")
	}
	if !b.Has("x") || !b.Has("y") {
		t.Error("clone should retain original bindings plus the new one")
	}
}
