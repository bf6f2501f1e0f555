// Package storage provides the LSM-on-disk storage backend, implemented
// over Badger, satisfying pkg/store.Storage.
package storage

import (
	"bytes"
	"fmt"
	"sync/atomic"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/trigodb/trigo/pkg/store"
)

// BadgerStorage implements store.Storage using BadgerDB.
type BadgerStorage struct {
	db     *badger.DB
	reads  atomic.Uint64
	writes atomic.Uint64
	dels   atomic.Uint64
}

// NewBadgerStorage opens (or creates) a BadgerDB-backed storage at path.
func NewBadgerStorage(path string) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // silent core: errors are returned, never logged

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to open badger db: %w", err)
	}

	return &BadgerStorage{db: db}, nil
}

func (s *BadgerStorage) Begin(writable bool) (store.Transaction, error) {
	txn := s.db.NewTransaction(writable)
	return &BadgerTransaction{txn: txn, writable: writable, s: s}, nil
}

func (s *BadgerStorage) Close() error {
	return s.db.Close()
}

func (s *BadgerStorage) Sync() error {
	return s.db.Sync()
}

func (s *BadgerStorage) Stats() store.Stats {
	lsm, vlog := s.db.Size()
	var keyCount uint64
	_ = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keyCount++
		}
		return nil
	})
	return store.Stats{
		Reads:       s.reads.Load(),
		Writes:      s.writes.Load(),
		Deletes:     s.dels.Load(),
		KeyCount:    keyCount,
		ApproxBytes: uint64(lsm + vlog),
	}
}

// BadgerTransaction implements store.Transaction using BadgerDB.
type BadgerTransaction struct {
	txn      *badger.Txn
	writable bool
	s        *BadgerStorage
}

func (t *BadgerTransaction) Get(table store.Table, key []byte) ([]byte, error) {
	t.s.reads.Add(1)
	prefixedKey := store.PrefixKey(table, key)
	item, err := t.txn.Get(prefixedKey)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	var value []byte
	err = item.Value(func(val []byte) error {
		value = append([]byte{}, val...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

func (t *BadgerTransaction) Set(table store.Table, key, value []byte) error {
	if !t.writable {
		return store.ErrTransactionRO
	}
	t.s.writes.Add(1)
	prefixedKey := store.PrefixKey(table, key)
	return t.txn.Set(prefixedKey, value)
}

func (t *BadgerTransaction) Delete(table store.Table, key []byte) error {
	if !t.writable {
		return store.ErrTransactionRO
	}
	t.s.dels.Add(1)
	prefixedKey := store.PrefixKey(table, key)
	return t.txn.Delete(prefixedKey)
}

// BatchSet writes pairs one at a time within this transaction. Badger
// commits the whole transaction as one logical write batch, giving
// batch_insert the atomic-per-batch semantics the storage contract asks an
// LSM backend to provide.
func (t *BadgerTransaction) BatchSet(table store.Table, pairs []store.KV) error {
	if !t.writable {
		return store.ErrTransactionRO
	}
	for _, kv := range pairs {
		if err := t.Set(table, kv.Key, kv.Value); err != nil {
			return err
		}
	}
	return nil
}

func (t *BadgerTransaction) Scan(table store.Table, start, end []byte) (store.Iterator, error) {
	opts := badger.DefaultIteratorOptions

	var seekKey []byte
	var scanPrefix []byte
	tablePrefix := store.TablePrefix(table)

	if start != nil {
		seekKey = store.PrefixKey(table, start)
		scanPrefix = seekKey
	} else {
		seekKey = tablePrefix
		scanPrefix = tablePrefix
	}

	opts.Prefix = scanPrefix
	it := t.txn.NewIterator(opts)

	var endKey []byte
	if end != nil {
		endKey = store.PrefixKey(table, end)
	}

	return &BadgerIterator{
		it:         it,
		prefix:     tablePrefix,
		scanPrefix: scanPrefix,
		endKey:     endKey,
		seekKey:    seekKey,
		s:          t.s,
	}, nil
}

func (t *BadgerTransaction) Commit() error {
	return t.txn.Commit()
}

func (t *BadgerTransaction) Rollback() error {
	t.txn.Discard()
	return nil
}

// BadgerIterator implements store.Iterator using BadgerDB.
type BadgerIterator struct {
	it         *badger.Iterator
	prefix     []byte
	scanPrefix []byte
	endKey     []byte
	seekKey    []byte
	started    bool
	hasValue   bool
	s          *BadgerStorage
}

func (i *BadgerIterator) Next() bool {
	if !i.started {
		i.it.Seek(i.seekKey)
		i.started = true
	} else {
		i.it.Next()
	}

	if !i.it.Valid() {
		i.hasValue = false
		return false
	}

	if i.endKey != nil {
		if bytes.Compare(i.it.Item().Key(), i.endKey) >= 0 {
			i.hasValue = false
			return false
		}
	}

	i.hasValue = true
	if i.s != nil {
		i.s.reads.Add(1)
	}
	return true
}

func (i *BadgerIterator) Key() []byte {
	if !i.hasValue {
		return nil
	}
	key := i.it.Item().Key()
	if len(key) > len(i.prefix) {
		return key[len(i.prefix):]
	}
	return nil
}

func (i *BadgerIterator) Value() ([]byte, error) {
	if !i.hasValue {
		return nil, store.ErrNotFound
	}
	var value []byte
	err := i.it.Item().Value(func(val []byte) error {
		value = append([]byte{}, val...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (i *BadgerIterator) Close() error {
	i.it.Close()
	return nil
}
