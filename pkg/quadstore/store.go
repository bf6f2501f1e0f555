// Package quadstore implements the quad store engine: it maintains the
// four permutation indexes atomically per write and serves pattern
// iteration via (index selection, prefix encoding, prefix scan, decode,
// re-filter).
package quadstore

import (
	"sync/atomic"

	"github.com/trigodb/trigo/pkg/rdf"
	"github.com/trigodb/trigo/pkg/store"
	"golang.org/x/sync/errgroup"
)

// Store is a quad store over one Storage backend and one Dictionary.
type Store struct {
	backend store.Storage
	dict    *rdf.Dictionary
	count   atomic.Uint64
}

// New returns a Store over backend, interning all terms into dict.
func New(backend store.Storage, dict *rdf.Dictionary) *Store {
	return &Store{backend: backend, dict: dict}
}

// Dict returns the dictionary this store interns terms into. Query layers
// must intern through this dictionary for Ref pointer-equality to hold
// between parsed query terms and stored terms.
func (s *Store) Dict() *rdf.Dictionary { return s.dict }

// Insert writes q into all four permutations in one transaction.
func (s *Store) Insert(q rdf.Quad) error {
	txn, err := s.backend.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	already, err := s.containsInTxn(txn, q)
	if err != nil {
		return err
	}

	for _, perm := range store.AllPermutations() {
		key, err := store.EncodeQuad(perm, q)
		if err != nil {
			return err
		}
		if err := txn.Set(perm, key, []byte{}); err != nil {
			return err
		}
	}
	if err := txn.Commit(); err != nil {
		return err
	}
	if !already {
		s.count.Add(1)
	}
	return nil
}

// encodedQuad is one quad's encodings across all four permutations,
// computed ahead of the write transaction so that batch_insert can fan the
// encoding work out across cores.
type encodedQuad struct {
	keys [4][]byte
}

// BatchInsert encodes quads in parallel across available cores, then
// writes every key of every permutation with Set inside one backend
// transaction.
func (s *Store) BatchInsert(quads []rdf.Quad) error {
	if len(quads) == 0 {
		return nil
	}

	encoded := make([]encodedQuad, len(quads))
	perms := store.AllPermutations()

	var g errgroup.Group
	for i := range quads {
		i := i
		g.Go(func() error {
			var eq encodedQuad
			for pi, perm := range perms {
				key, err := store.EncodeQuad(perm, quads[i])
				if err != nil {
					return err
				}
				eq.keys[pi] = key
			}
			encoded[i] = eq
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	txn, err := s.backend.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	added := uint64(0)
	for i, q := range quads {
		already, err := s.containsInTxn(txn, q)
		if err != nil {
			return err
		}
		for pi, perm := range perms {
			if err := txn.Set(perm, encoded[i].keys[pi], []byte{}); err != nil {
				return err
			}
		}
		if !already {
			added++
		}
	}
	if err := txn.Commit(); err != nil {
		return err
	}
	s.count.Add(added)
	return nil
}

// Remove deletes q from all four permutations.
func (s *Store) Remove(q rdf.Quad) error {
	txn, err := s.backend.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	existed, err := s.containsInTxn(txn, q)
	if err != nil {
		return err
	}

	for _, perm := range store.AllPermutations() {
		key, err := store.EncodeQuad(perm, q)
		if err != nil {
			return err
		}
		if err := txn.Delete(perm, key); err != nil {
			return err
		}
	}
	if err := txn.Commit(); err != nil {
		return err
	}
	if existed {
		s.count.Add(^uint64(0)) // decrement
	}
	return nil
}

// Contains reports whether q is present, checked against SPOC alone.
func (s *Store) Contains(q rdf.Quad) (bool, error) {
	txn, err := s.backend.Begin(false)
	if err != nil {
		return false, err
	}
	defer txn.Rollback()
	return s.containsInTxn(txn, q)
}

func (s *Store) containsInTxn(txn store.Transaction, q rdf.Quad) (bool, error) {
	key, err := store.EncodeQuad(store.SPOC, q)
	if err != nil {
		return false, err
	}
	_, err = txn.Get(store.SPOC, key)
	if err == store.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the number of distinct quads currently stored.
func (s *Store) Count() uint64 { return s.count.Load() }

// Stats delegates to the backend.
func (s *Store) Stats() store.Stats { return s.backend.Stats() }

// Close releases the underlying backend.
func (s *Store) Close() error { return s.backend.Close() }

// Find returns an iterator over every quad matching pat:
//  1. select the permutation via the index selector,
//  2. build a prefix key,
//  3. prefix-scan the backend,
//  4. decode each key, re-applying the full pattern to wildcarded interior
//     positions, yielding on match.
func (s *Store) Find(pat store.Pattern) (*QuadIterator, error) {
	perm := store.SelectIndexForPattern(pat)
	prefix, err := store.EncodePrefix(perm, pat)
	if err != nil {
		return nil, err
	}

	txn, err := s.backend.Begin(false)
	if err != nil {
		return nil, err
	}
	it, err := txn.Scan(perm, prefix, nil)
	if err != nil {
		txn.Rollback()
		return nil, err
	}

	return &QuadIterator{txn: txn, it: it, perm: perm, pat: pat, dict: s.dict}, nil
}

// QuadIterator is a pull-based, lazy sequence of quads; Close is the only
// way to cancel it early.
type QuadIterator struct {
	txn     store.Transaction
	it      store.Iterator
	perm    store.Permutation
	pat     store.Pattern
	dict    *rdf.Dictionary
	current rdf.Quad
	err     error
}

// Next advances to the next matching quad. A key that fails to decode
// (MalformedKey) is treated as a non-matching record and skipped, per the
// error-propagation policy. Iteration stops when the backend iterator's
// Next returns false; a backend I/O error is not distinguished from the
// end of the range and is not reported.
func (it *QuadIterator) Next() bool {
	for it.it.Next() {
		q, err := store.DecodeQuad(it.perm, it.it.Key(), it.dict)
		if err != nil {
			continue
		}
		if !store.Matches(it.pat, q) {
			continue
		}
		it.current = q
		return true
	}
	return false
}

// Quad returns the quad produced by the most recent call to Next.
func (it *QuadIterator) Quad() rdf.Quad { return it.current }

// Err returns any error accumulated during iteration. Nothing records an
// error, so it always returns nil; backend I/O errors are not reported here.
func (it *QuadIterator) Err() error { return it.err }

// Close cancels the iterator and releases its read transaction.
func (it *QuadIterator) Close() error {
	cerr := it.it.Close()
	rerr := it.txn.Rollback()
	if cerr != nil {
		return cerr
	}
	return rerr
}
