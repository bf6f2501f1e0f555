package memstore

import (
	"bytes"
	"sync"
	"testing"

	"github.com/trigodb/trigo/pkg/store"
)

func TestSetGetDelete(t *testing.T) {
	s := NewMemoryStorage()
	txn, _ := s.Begin(true)

	if err := txn.Set(store.SPOC, []byte("k1"), []byte("v1")); err != nil {
		t.Fatal(err)
	}
	v, err := txn.Get(store.SPOC, []byte("k1"))
	if err != nil || !bytes.Equal(v, []byte("v1")) {
		t.Fatalf("Get = (%v, %v)", v, err)
	}

	if err := txn.Delete(store.SPOC, []byte("k1")); err != nil {
		t.Fatal(err)
	}
	if _, err := txn.Get(store.SPOC, []byte("k1")); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestReadOnlyTransactionRejectsWrites(t *testing.T) {
	s := NewMemoryStorage()
	txn, _ := s.Begin(false)
	if err := txn.Set(store.SPOC, []byte("k"), []byte("v")); err != store.ErrTransactionRO {
		t.Fatalf("expected ErrTransactionRO, got %v", err)
	}
}

func TestScanReturnsSortedPrefixMatches(t *testing.T) {
	s := NewMemoryStorage()
	txn, _ := s.Begin(true)
	keys := [][]byte{[]byte("a/3"), []byte("a/1"), []byte("a/2"), []byte("b/1")}
	for _, k := range keys {
		if err := txn.Set(store.SPOC, k, k); err != nil {
			t.Fatal(err)
		}
	}

	it, err := txn.Scan(store.SPOC, []byte("a/"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	var got [][]byte
	for it.Next() {
		got = append(got, append([]byte{}, it.Key()...))
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if bytes.Compare(got[i-1], got[i]) >= 0 {
			t.Fatalf("scan results not sorted: %v", got)
		}
	}
}

func TestConcurrentSetsAcrossShardsDoNotRace(t *testing.T) {
	s := NewMemoryStorage()
	txn, _ := s.Begin(true)
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := []byte{byte(i), byte(i >> 8)}
			_ = txn.Set(store.SPOC, key, key)
		}(i)
	}
	wg.Wait()
	if s.tables[store.SPOC].keyCount() == 0 {
		t.Error("expected keys to have been written")
	}
}

func TestStatsCounts(t *testing.T) {
	s := NewMemoryStorage()
	txn, _ := s.Begin(true)
	_ = txn.Set(store.SPOC, []byte("k"), []byte("v"))
	_, _ = txn.Get(store.SPOC, []byte("k"))
	_ = txn.Delete(store.SPOC, []byte("k"))

	st := s.Stats()
	if st.Writes != 1 || st.Reads != 1 || st.Deletes != 1 {
		t.Errorf("unexpected stats: %+v", st)
	}
}
