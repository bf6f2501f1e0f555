package exec

import (
	"sort"

	"github.com/trigodb/trigo/pkg/algebra"
	"github.com/trigodb/trigo/pkg/bindings"
	"github.com/trigodb/trigo/pkg/rdf"
	"github.com/trigodb/trigo/pkg/wcoj"
)

// nestedLoopJoinIterator re-creates the right-hand iterator once per left
// row, matching the teacher's nested-loop join traversal: for every left
// binding, scan the right plan's whole output under that binding and merge
// each compatible pair.
type nestedLoopJoinIterator struct {
	exec         *Executor
	left         Iterator
	rightNode    algebra.Node
	currentRight Iterator
	result       *bindings.Binding
}

func (e *Executor) runJoin(n *algebra.Join) (Iterator, error) {
	if n.Patterns != nil {
		return e.runWCOJ(n)
	}
	left, err := e.Run(n.Left)
	if err != nil {
		return nil, err
	}
	return &nestedLoopJoinIterator{exec: e, left: left, rightNode: n.Right}, nil
}

func (it *nestedLoopJoinIterator) Next() bool {
	for {
		if it.currentRight != nil {
			for it.currentRight.Next() {
				if merged := it.left.Binding().Merge(it.currentRight.Binding()); merged != nil {
					it.result = merged
					return true
				}
			}
			_ = it.currentRight.Close()
			it.currentRight = nil
		}

		if !it.left.Next() {
			return false
		}
		rightIter, err := it.exec.Run(it.rightNode)
		if err != nil {
			return false
		}
		it.currentRight = rightIter
	}
}

func (it *nestedLoopJoinIterator) Binding() *bindings.Binding { return it.result }
func (it *nestedLoopJoinIterator) Close() error {
	if it.currentRight != nil {
		_ = it.currentRight.Close()
	}
	return it.left.Close()
}

// runWCOJ drains a multi-way worst-case-optimal join node entirely (the
// leapfrog algorithm is not itself a pull iterator over the store — it
// produces complete result rows) and replays them through a slice
// iterator.
func (e *Executor) runWCOJ(n *algebra.Join) (Iterator, error) {
	rows, err := wcoj.Evaluate(e.store, n.Patterns)
	if err != nil {
		return nil, err
	}
	return &sliceReplayIterator{rows: rows, pos: -1}, nil
}

type sliceReplayIterator struct {
	rows []*bindings.Binding
	pos  int
}

func (it *sliceReplayIterator) Next() bool {
	it.pos++
	return it.pos < len(it.rows)
}
func (it *sliceReplayIterator) Binding() *bindings.Binding { return it.rows[it.pos] }
func (it *sliceReplayIterator) Close() error               { return nil }

// leftJoinIterator implements OPTIONAL: every left row is emitted at least
// once, merged with each compatible right row when one exists.
type leftJoinIterator struct {
	exec         *Executor
	left         Iterator
	rightNode    algebra.Node
	currentLeft  *bindings.Binding
	currentRight Iterator
	result       *bindings.Binding
	matched      bool
}

func (e *Executor) runLeftJoin(n *algebra.LeftJoin) (Iterator, error) {
	left, err := e.Run(n.Left)
	if err != nil {
		return nil, err
	}
	return &leftJoinIterator{exec: e, left: left, rightNode: n.Right}, nil
}

func (it *leftJoinIterator) Next() bool {
	for {
		if it.currentRight != nil {
			for it.currentRight.Next() {
				if merged := it.currentLeft.Merge(it.currentRight.Binding()); merged != nil {
					it.matched = true
					it.result = merged
					return true
				}
			}
			_ = it.currentRight.Close()
			it.currentRight = nil
			if !it.matched {
				it.result = it.currentLeft
				return true
			}
		}

		if !it.left.Next() {
			return false
		}
		it.currentLeft = it.left.Binding()
		it.matched = false

		rightIter, err := it.exec.Run(it.rightNode)
		if err != nil {
			it.result = it.currentLeft
			return true
		}
		it.currentRight = rightIter
	}
}

func (it *leftJoinIterator) Binding() *bindings.Binding { return it.result }
func (it *leftJoinIterator) Close() error {
	if it.currentRight != nil {
		_ = it.currentRight.Close()
	}
	return it.left.Close()
}

// minusIterator implements MINUS: a left row survives unless some right
// row is Compatible with it (a right row sharing no variable with it is
// Compatible, and so excludes it).
type minusIterator struct {
	exec      *Executor
	left      Iterator
	rightNode algebra.Node
}

func (e *Executor) runMinus(n *algebra.Minus) (Iterator, error) {
	left, err := e.Run(n.Left)
	if err != nil {
		return nil, err
	}
	return &minusIterator{exec: e, left: left, rightNode: n.Right}, nil
}

func (it *minusIterator) Next() bool {
	for it.left.Next() {
		leftBinding := it.left.Binding()
		rightIter, err := it.exec.Run(it.rightNode)
		if err != nil {
			return true
		}
		excluded := false
		for rightIter.Next() {
			rb := rightIter.Binding()
			if leftBinding.Compatible(rb) {
				excluded = true
				break
			}
		}
		_ = rightIter.Close()
		if !excluded {
			return true
		}
	}
	return false
}

func (it *minusIterator) Binding() *bindings.Binding { return it.left.Binding() }
func (it *minusIterator) Close() error                { return it.left.Close() }

// unionIterator concatenates left then right with no deduplication.
type unionIterator struct {
	left, right Iterator
	leftDone    bool
}

func (e *Executor) runUnion(n *algebra.Union) (Iterator, error) {
	left, err := e.Run(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.Run(n.Right)
	if err != nil {
		_ = left.Close()
		return nil, err
	}
	return &unionIterator{left: left, right: right}, nil
}

func (it *unionIterator) Next() bool {
	if !it.leftDone {
		if it.left.Next() {
			return true
		}
		it.leftDone = true
	}
	return it.right.Next()
}

func (it *unionIterator) Binding() *bindings.Binding {
	if !it.leftDone {
		return it.left.Binding()
	}
	return it.right.Binding()
}

func (it *unionIterator) Close() error {
	_ = it.left.Close()
	return it.right.Close()
}

// filterIterator keeps only rows for which Eval returns (true, nil); rows
// for which Eval errors are treated as not matching (a FILTER expression
// error does not abort the whole query, per the error-propagation policy
// for query evaluation errors).
type filterIterator struct {
	input Iterator
	eval  func(algebra.BindingLookup) (bool, error)
}

func (e *Executor) runFilter(n *algebra.Filter) (Iterator, error) {
	input, err := e.Run(n.Input)
	if err != nil {
		return nil, err
	}
	return &filterIterator{input: input, eval: n.Eval}, nil
}

func (it *filterIterator) Next() bool {
	for it.input.Next() {
		ok, err := it.eval(it.input.Binding())
		if err == nil && ok {
			return true
		}
	}
	return false
}

func (it *filterIterator) Binding() *bindings.Binding { return it.input.Binding() }
func (it *filterIterator) Close() error                { return it.input.Close() }

// extendIterator implements BIND: computes one new variable per row,
// leaving the row unbound for that variable when Compute reports ok=false
// (an erroring or unbound BIND expression does not exclude the row).
type extendIterator struct {
	input   Iterator
	varName string
	compute func(algebra.BindingLookup) (rdf.Term, bool)
	current *bindings.Binding
}

func (e *Executor) runExtend(n *algebra.Extend) (Iterator, error) {
	input, err := e.Run(n.Input)
	if err != nil {
		return nil, err
	}
	return &extendIterator{input: input, varName: n.Var, compute: n.Compute}, nil
}

func (it *extendIterator) Next() bool {
	if !it.input.Next() {
		return false
	}
	row := it.input.Binding()
	if term, ok := it.compute(row); ok {
		row = row.Extend(it.varName, term)
	}
	it.current = row
	return true
}

func (it *extendIterator) Binding() *bindings.Binding { return it.current }
func (it *extendIterator) Close() error               { return it.input.Close() }

// projectIterator restricts each row to a fixed set of variables.
type projectIterator struct {
	input Iterator
	vars  []string
	row   *bindings.Binding
}

func (e *Executor) runProject(n *algebra.Project) (Iterator, error) {
	input, err := e.Run(n.Input)
	if err != nil {
		return nil, err
	}
	return &projectIterator{input: input, vars: n.Vars}, nil
}

func (it *projectIterator) Next() bool {
	if !it.input.Next() {
		return false
	}
	it.row = it.input.Binding().Project(it.vars)
	return true
}

func (it *projectIterator) Binding() *bindings.Binding { return it.row }
func (it *projectIterator) Close() error                { return it.input.Close() }

// distinctIterator suppresses rows whose Signature has already been seen.
type distinctIterator struct {
	input Iterator
	seen  map[string]struct{}
}

func (e *Executor) runDistinct(n *algebra.Distinct) (Iterator, error) {
	input, err := e.Run(n.Input)
	if err != nil {
		return nil, err
	}
	return &distinctIterator{input: input, seen: make(map[string]struct{})}, nil
}

func (it *distinctIterator) Next() bool {
	for it.input.Next() {
		sig := it.input.Binding().Signature()
		if _, ok := it.seen[sig]; ok {
			continue
		}
		it.seen[sig] = struct{}{}
		return true
	}
	return false
}

func (it *distinctIterator) Binding() *bindings.Binding { return it.input.Binding() }
func (it *distinctIterator) Close() error                { return it.input.Close() }

// orderByIterator materializes its input (ORDER BY is necessarily
// non-streaming) and replays it sorted by the given keys.
type orderByIterator struct {
	rows []*bindings.Binding
	pos  int
}

func (e *Executor) runOrderBy(n *algebra.OrderBy) (Iterator, error) {
	input, err := e.Run(n.Input)
	if err != nil {
		return nil, err
	}
	defer input.Close()

	var rows []*bindings.Binding
	for input.Next() {
		rows = append(rows, input.Binding())
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range n.Keys {
			ti, hasI := rows[i].Get(key.Var)
			tj, hasJ := rows[j].Get(key.Var)
			if !hasI && !hasJ {
				continue
			}
			if !hasI {
				return !key.Descending
			}
			if !hasJ {
				return key.Descending
			}
			if ti.Equals(tj) {
				continue
			}
			less := ti.Less(tj)
			if key.Descending {
				return !less
			}
			return less
		}
		return false
	})

	return &orderByIterator{rows: rows, pos: -1}, nil
}

func (it *orderByIterator) Next() bool {
	it.pos++
	return it.pos < len(it.rows)
}
func (it *orderByIterator) Binding() *bindings.Binding { return it.rows[it.pos] }
func (it *orderByIterator) Close() error               { return nil }

// sliceIterator applies OFFSET/LIMIT over its input stream without
// materializing more than necessary.
type sliceIterator struct {
	input       Iterator
	remaining   int
	unbounded   bool
	skipped     bool
	offset      int
}

func (e *Executor) runSlice(n *algebra.Slice) (Iterator, error) {
	input, err := e.Run(n.Input)
	if err != nil {
		return nil, err
	}
	return &sliceIterator{
		input:     input,
		offset:    n.Offset,
		remaining: n.Limit,
		unbounded: n.Limit < 0,
	}, nil
}

func (it *sliceIterator) Next() bool {
	if !it.skipped {
		it.skipped = true
		for i := 0; i < it.offset; i++ {
			if !it.input.Next() {
				return false
			}
		}
	}
	if !it.unbounded {
		if it.remaining <= 0 {
			return false
		}
		it.remaining--
	}
	return it.input.Next()
}

func (it *sliceIterator) Binding() *bindings.Binding { return it.input.Binding() }
func (it *sliceIterator) Close() error                { return it.input.Close() }

// graphIterator restricts or binds the graph position; the quad store's
// own pattern match already threads the graph term through Scan nodes
// beneath it, so Graph is a structural marker here rather than a
// filtering pass — it exists so the planner can wrap a sub-plan to note
// which graph constraint applies to every Scan within it.
type graphIterator struct {
	input Iterator
}

func (e *Executor) runGraph(n *algebra.Graph) (Iterator, error) {
	input, err := e.Run(n.Input)
	if err != nil {
		return nil, err
	}
	return &graphIterator{input: input}, nil
}

func (it *graphIterator) Next() bool                    { return it.input.Next() }
func (it *graphIterator) Binding() *bindings.Binding { return it.input.Binding() }
func (it *graphIterator) Close() error                { return it.input.Close() }
