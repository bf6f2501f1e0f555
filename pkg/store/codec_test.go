package store

import (
	"testing"

	"github.com/trigodb/trigo/pkg/rdf"
)

func sampleQuad(d *rdf.Dictionary) rdf.Quad {
	return rdf.Quad{
		Subject:   d.NewIRI("http://ex/s"),
		Predicate: d.NewIRI("http://ex/p"),
		Object:    d.NewLiteral("v"),
	}
}

func TestEncodeDecodeRoundTripAllPermutations(t *testing.T) {
	d := rdf.NewDictionary()
	q := sampleQuad(d)
	for _, perm := range AllPermutations() {
		key, err := EncodeQuad(perm, q)
		if err != nil {
			t.Fatalf("perm %v: encode error: %v", perm, err)
		}
		got, err := DecodeQuad(perm, key, d)
		if err != nil {
			t.Fatalf("perm %v: decode error: %v", perm, err)
		}
		if !got.Subject.Equals(q.Subject) || !got.Predicate.Equals(q.Predicate) || !got.Object.Equals(q.Object) {
			t.Errorf("perm %v: round trip mismatch: got %v, want %v", perm, got, q)
		}
		if got.Graph != nil {
			t.Errorf("perm %v: expected default graph, got %v", perm, got.Graph)
		}
	}
}

func TestEncodeDecodeNamedGraph(t *testing.T) {
	d := rdf.NewDictionary()
	q := sampleQuad(d)
	q.Graph = d.NewIRI("http://ex/g")
	key, err := EncodeQuad(CSPO, q)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeQuad(CSPO, key, d)
	if err != nil {
		t.Fatal(err)
	}
	if got.Graph == nil || !got.Graph.Equals(q.Graph) {
		t.Errorf("graph not preserved: got %v", got.Graph)
	}
}

func TestDecodeTruncatedKeyIsMalformed(t *testing.T) {
	d := rdf.NewDictionary()
	q := sampleQuad(d)
	key, err := EncodeQuad(SPOC, q)
	if err != nil {
		t.Fatal(err)
	}
	for n := 0; n < len(key); n++ {
		if _, err := DecodeQuad(SPOC, key[:n], d); err == nil {
			t.Fatalf("truncated key of length %d should fail to decode", n)
		}
	}
}

func TestDecodeUnknownTagIsMalformed(t *testing.T) {
	d := rdf.NewDictionary()
	key := []byte{9, 0}
	if _, err := DecodeQuad(SPOC, key, d); err == nil {
		t.Error("unknown type tag should fail to decode")
	}
}

func TestEncodePrefixStopsAtFirstWildcard(t *testing.T) {
	d := rdf.NewDictionary()
	q := sampleQuad(d)
	fullKey, err := EncodeQuad(SPOC, q)
	if err != nil {
		t.Fatal(err)
	}

	pat := Pattern{Subject: q.Subject, Predicate: q.Predicate}
	prefix, err := EncodePrefix(SPOC, pat)
	if err != nil {
		t.Fatal(err)
	}
	if len(prefix) == 0 || len(prefix) >= len(fullKey) {
		t.Fatalf("expected a proper, non-empty prefix; got len %d of %d", len(prefix), len(fullKey))
	}
	for i := range prefix {
		if fullKey[i] != prefix[i] {
			t.Fatalf("prefix diverges from full key at byte %d", i)
		}
	}
}

func TestEncodePrefixAllWildcardIsEmpty(t *testing.T) {
	prefix, err := EncodePrefix(SPOC, Pattern{})
	if err != nil {
		t.Fatal(err)
	}
	if len(prefix) != 0 {
		t.Errorf("all-wildcard pattern should encode to an empty prefix, got %d bytes", len(prefix))
	}
}

func TestMatches(t *testing.T) {
	d := rdf.NewDictionary()
	q := sampleQuad(d)

	if !Matches(Pattern{Subject: q.Subject}, q) {
		t.Error("bound subject matching the quad should match")
	}
	if Matches(Pattern{Subject: d.NewIRI("http://ex/other")}, q) {
		t.Error("bound subject not matching the quad should not match")
	}
	if !Matches(Pattern{}, q) {
		t.Error("all-wildcard pattern should match every quad")
	}
	if !Matches(Pattern{GraphSet: true, Graph: nil}, q) {
		t.Error("explicit default-graph pattern should match a default-graph quad")
	}
	named := q
	named.Graph = d.NewIRI("http://ex/g")
	if Matches(Pattern{GraphSet: true, Graph: nil}, named) {
		t.Error("explicit default-graph pattern should not match a named-graph quad")
	}
}
