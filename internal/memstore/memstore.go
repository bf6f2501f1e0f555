// Package memstore provides the in-memory storage backend: a sharded
// concurrent map satisfying pkg/store.Storage, where prefix/range scans are
// served by collecting the matching entries and sorting them per call.
package memstore

import (
	"bytes"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/trigodb/trigo/pkg/store"
	"github.com/zeebo/xxh3"
)

const shardCount = 32

// shardedTable is a concurrent map from key to value, sharded by a hash of
// the key so that unrelated keys never contend on the same lock. Readers
// and writers of different shards never block each other; this is the
// concurrency story the in-memory backend's design note asks for in place
// of a true lock-free map.
type shardedTable struct {
	shards [shardCount]struct {
		mu sync.RWMutex
		m  map[string][]byte
	}
}

func newShardedTable() *shardedTable {
	t := &shardedTable{}
	for i := range t.shards {
		t.shards[i].m = make(map[string][]byte)
	}
	return t
}

func shardIndex(key []byte) int {
	return int(xxh3.Hash(key) % shardCount)
}

func (t *shardedTable) get(key []byte) ([]byte, bool) {
	s := &t.shards[shardIndex(key)]
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[string(key)]
	return v, ok
}

func (t *shardedTable) set(key, value []byte) {
	s := &t.shards[shardIndex(key)]
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[string(key)] = append([]byte{}, value...)
}

func (t *shardedTable) delete(key []byte) {
	s := &t.shards[shardIndex(key)]
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, string(key))
}

func (t *shardedTable) keyCount() int {
	n := 0
	for i := range t.shards {
		t.shards[i].mu.RLock()
		n += len(t.shards[i].m)
		t.shards[i].mu.RUnlock()
	}
	return n
}

// scanPrefix collects every key with the given prefix (nil means every key
// in the table), optionally bounded above by end (exclusive), and returns
// them sorted in ascending byte-lex order.
func (t *shardedTable) scanPrefix(prefix, end []byte) []store.KV {
	var out []store.KV
	for i := range t.shards {
		t.shards[i].mu.RLock()
		for k, v := range t.shards[i].m {
			kb := []byte(k)
			if prefix != nil && !bytes.HasPrefix(kb, prefix) {
				continue
			}
			if end != nil && bytes.Compare(kb, end) >= 0 {
				continue
			}
			out = append(out, store.KV{Key: append([]byte{}, kb...), Value: append([]byte{}, v...)})
		}
		t.shards[i].mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].Key, out[j].Key) < 0 })
	return out
}

// MemoryStorage implements store.Storage entirely in process memory.
type MemoryStorage struct {
	tables [store.TableCount]*shardedTable
	reads  atomic.Uint64
	writes atomic.Uint64
	dels   atomic.Uint64
}

// NewMemoryStorage returns an empty, ready-to-use in-memory backend.
func NewMemoryStorage() *MemoryStorage {
	s := &MemoryStorage{}
	for i := range s.tables {
		s.tables[i] = newShardedTable()
	}
	return s
}

func (s *MemoryStorage) Begin(writable bool) (store.Transaction, error) {
	return &memTransaction{s: s, writable: writable}, nil
}

func (s *MemoryStorage) Close() error { return nil }
func (s *MemoryStorage) Sync() error  { return nil }

func (s *MemoryStorage) Stats() store.Stats {
	var keyCount, bytes uint64
	for _, tbl := range s.tables {
		for i := range tbl.shards {
			tbl.shards[i].mu.RLock()
			keyCount += uint64(len(tbl.shards[i].m))
			for k, v := range tbl.shards[i].m {
				bytes += uint64(len(k) + len(v))
			}
			tbl.shards[i].mu.RUnlock()
		}
	}
	return store.Stats{
		Reads:       s.reads.Load(),
		Writes:      s.writes.Load(),
		Deletes:     s.dels.Load(),
		KeyCount:    keyCount,
		ApproxBytes: bytes,
	}
}

// memTransaction applies its operations directly against the shared
// sharded tables: the in-memory backend offers no snapshot isolation, only
// the per-pair atomicity the storage contract requires as a minimum.
type memTransaction struct {
	s        *MemoryStorage
	writable bool
}

func (t *memTransaction) Get(table store.Table, key []byte) ([]byte, error) {
	t.s.reads.Add(1)
	v, ok := t.s.tables[table].get(key)
	if !ok {
		return nil, store.ErrNotFound
	}
	return v, nil
}

func (t *memTransaction) Set(table store.Table, key, value []byte) error {
	if !t.writable {
		return store.ErrTransactionRO
	}
	t.s.writes.Add(1)
	t.s.tables[table].set(key, value)
	return nil
}

func (t *memTransaction) Delete(table store.Table, key []byte) error {
	if !t.writable {
		return store.ErrTransactionRO
	}
	t.s.dels.Add(1)
	t.s.tables[table].delete(key)
	return nil
}

func (t *memTransaction) BatchSet(table store.Table, pairs []store.KV) error {
	if !t.writable {
		return store.ErrTransactionRO
	}
	for _, kv := range pairs {
		t.s.writes.Add(1)
		t.s.tables[table].set(kv.Key, kv.Value)
	}
	return nil
}

func (t *memTransaction) Scan(table store.Table, start, end []byte) (store.Iterator, error) {
	kvs := t.s.tables[table].scanPrefix(start, end)
	t.s.reads.Add(uint64(len(kvs)))
	return &memIterator{kvs: kvs, pos: -1}, nil
}

func (t *memTransaction) Commit() error   { return nil }
func (t *memTransaction) Rollback() error { return nil }

type memIterator struct {
	kvs []store.KV
	pos int
}

func (it *memIterator) Next() bool {
	it.pos++
	return it.pos < len(it.kvs)
}

func (it *memIterator) Key() []byte {
	if it.pos < 0 || it.pos >= len(it.kvs) {
		return nil
	}
	return it.kvs[it.pos].Key
}

func (it *memIterator) Value() ([]byte, error) {
	if it.pos < 0 || it.pos >= len(it.kvs) {
		return nil, store.ErrNotFound
	}
	return it.kvs[it.pos].Value, nil
}

func (it *memIterator) Close() error { return nil }
