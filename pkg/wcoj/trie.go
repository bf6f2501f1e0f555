// Package wcoj implements a worst-case-optimal multi-way join over basic
// graph patterns: a LeapFrog TrieJoin evaluated one canonical variable at a
// time across every pattern that mentions it, instead of a pairwise chain
// of binary joins.
package wcoj

import (
	"sort"

	"github.com/trigodb/trigo/pkg/rdf"
)

// Trie is a cursor over a sorted set of term tuples, one level per column.
// At any moment the cursor sits at a single depth (Level) and a single
// position within that depth's current range; Open/Up move the cursor down
// into the children of the current row's value (or back up), and
// Seek/Next move it sideways within the current range. This mirrors a
// depth-first walk of a trie built from the tuples without materializing
// one: the row slice is already sorted, so a level's children are just a
// contiguous sub-range of it.
type Trie struct {
	rows  [][]rdf.Term
	depth int

	lo, hi []int
	cur    []int
	level  int
}

// NewTrie builds a Trie over rows, which must all have exactly depth
// columns. rows is sorted in place, lexicographically over columns
// 0..depth-1 using rdf.Term.Less.
func NewTrie(rows [][]rdf.Term, depth int) *Trie {
	sort.Slice(rows, func(i, j int) bool {
		return lessRow(rows[i], rows[j], depth)
	})
	t := &Trie{
		rows:  rows,
		depth: depth,
		lo:    make([]int, depth),
		hi:    make([]int, depth),
		cur:   make([]int, depth),
	}
	t.lo[0] = 0
	t.hi[0] = len(rows)
	t.cur[0] = -1
	return t
}

func lessRow(a, b []rdf.Term, depth int) bool {
	for i := 0; i < depth; i++ {
		if a[i].Equals(b[i]) {
			continue
		}
		return a[i].Less(b[i])
	}
	return false
}

// Depth is the number of columns (levels) this trie was built with.
func (t *Trie) Depth() int { return t.depth }

// Level is the cursor's current depth, 0-indexed.
func (t *Trie) Level() int { return t.level }

// AtEnd reports whether the cursor has run off the end of the current
// level's range.
func (t *Trie) AtEnd() bool {
	c := t.cur[t.level]
	return c < t.lo[t.level] || c >= t.hi[t.level]
}

// Value returns the term at the cursor's current position and level. Only
// valid when !AtEnd().
func (t *Trie) Value() rdf.Term {
	return t.rows[t.cur[t.level]][t.level]
}

// Values returns every distinct value in the current level's range, in
// sorted order, without disturbing the cursor.
func (t *Trie) Values() []rdf.Term {
	lvl := t.level
	var out []rdf.Term
	i := t.lo[lvl]
	for i < t.hi[lvl] {
		v := t.rows[i][lvl]
		out = append(out, v)
		for i < t.hi[lvl] && t.rows[i][lvl].Equals(v) {
			i++
		}
	}
	return out
}

// Seek advances the cursor to the first row at the current level whose
// value is >= v, and reports whether that row's value equals v exactly.
func (t *Trie) Seek(v rdf.Term) bool {
	lvl := t.level
	lo, hi := t.lo[lvl], t.hi[lvl]
	idx := lo + sort.Search(hi-lo, func(i int) bool {
		return !t.rows[lo+i][lvl].Less(v)
	})
	t.cur[lvl] = idx
	return idx < hi && t.rows[idx][lvl].Equals(v)
}

// Next advances the cursor to the next distinct value at the current
// level (skipping duplicate rows of the current value), or to the first
// value if the cursor hasn't been positioned yet. Reports whether a value
// was found.
func (t *Trie) Next() bool {
	lvl := t.level
	if t.cur[lvl] < t.lo[lvl] {
		t.cur[lvl] = t.lo[lvl]
		return t.cur[lvl] < t.hi[lvl]
	}
	if t.cur[lvl] >= t.hi[lvl] {
		return false
	}
	v := t.rows[t.cur[lvl]][lvl]
	i := t.cur[lvl]
	for i < t.hi[lvl] && t.rows[i][lvl].Equals(v) {
		i++
	}
	t.cur[lvl] = i
	return i < t.hi[lvl]
}

// Open descends into the children of the row the cursor currently sits on:
// the sub-range of the next level whose column equals the current value.
// Reports false if there is no next level or the cursor isn't positioned
// on a row.
func (t *Trie) Open() bool {
	lvl := t.level
	if lvl >= t.depth-1 {
		return false
	}
	if t.AtEnd() {
		return false
	}
	v := t.rows[t.cur[lvl]][lvl]
	newLo := t.cur[lvl]
	newHi := newLo
	for newHi < t.hi[lvl] && t.rows[newHi][lvl].Equals(v) {
		newHi++
	}
	t.level++
	t.lo[t.level] = newLo
	t.hi[t.level] = newHi
	t.cur[t.level] = newLo - 1
	return true
}

// Up ascends back to the parent level. Reports false if already at the
// root level.
func (t *Trie) Up() bool {
	if t.level == 0 {
		return false
	}
	t.level--
	return true
}

// Reset returns the cursor to the root level, before its first value.
func (t *Trie) Reset() {
	t.level = 0
	t.cur[0] = -1
}
