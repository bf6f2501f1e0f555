// Package rdf implements the RDF term model: a concurrent string dictionary
// and the tagged-union Term type built on top of it.
package rdf

import (
	"sync"
	"sync/atomic"
)

// Ref is a stable, pointer-comparable handle to an interned byte string.
// Two Refs obtained from the same Dictionary for equal content are the same
// pointer; Refs from different Dictionaries are never pointer-equal even for
// equal content. A Ref is valid only as long as the Dictionary that produced
// it is alive.
type Ref = *string

// Dictionary interns arbitrary strings to stable Refs. It is safe for
// concurrent use by multiple goroutines and never forgets an entry once
// interned (append-only for the lifetime of the Dictionary).
type Dictionary struct {
	mu      sync.RWMutex
	strings map[string]Ref
	blank   atomic.Uint64
}

// NewDictionary creates an empty, ready-to-use Dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{strings: make(map[string]Ref)}
}

// Intern returns the stable Ref for s, interning it if this is the first
// time s has been seen by this Dictionary.
func (d *Dictionary) Intern(s string) Ref {
	d.mu.RLock()
	if r, ok := d.strings[s]; ok {
		d.mu.RUnlock()
		return r
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok := d.strings[s]; ok {
		return r
	}
	r := new(string)
	*r = s
	d.strings[s] = r
	return r
}

// Lookup returns the string content of a Ref known to belong to this
// Dictionary, and whether it was found. It exists for display/debugging;
// the zero-copy term model never needs it on the hot path.
func (d *Dictionary) Lookup(ref Ref) (string, bool) {
	if ref == nil {
		return "", false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if existing, ok := d.strings[*ref]; ok && existing == ref {
		return *ref, true
	}
	return "", false
}

// Len reports how many distinct strings have been interned.
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.strings)
}

// FreshBlank returns a new blank node identifier, unique within this
// Dictionary (each Dictionary keeps its own counter). Ids are
// monotonically increasing and are never reused, even after the node they
// named is removed from a store.
func (d *Dictionary) FreshBlank() uint64 {
	return d.blank.Add(1)
}
