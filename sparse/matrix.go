// Package sparse implements the column-major constraint-matrix store of
// spec.md §4.A: a compressed run per column over a shared arena, linked in a
// doubly-linked ring so that insertion past a column's current capacity is a
// single relocation rather than a full rebuild, plus a row-major mirror
// computed on demand. The element accumulation and dense-extraction shape
// follow gonum's triplet matrix
// (gonum.org/v1/gonum/linsolve/internal/triplet), generalized from an
// append-only triplet list to in-place column growth because the matrix
// here is mutated throughout a solve (presolve, scaling, B&B bound changes)
// rather than built once and left immutable.
package sparse

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ElemZeroTol is the magnitude below which an element is dropped as a
// structural zero after addCoefficient combines it with an existing entry
// (spec.md §4.A: "drop element if result ≤ εₑₗₑₘ").
const ElemZeroTol = 1e-12

// ErrInvalidIndex is returned for an out-of-range row or column index.
type ErrInvalidIndex struct {
	Row, Col, NRows, NCols int
}

func (e ErrInvalidIndex) Error() string {
	return fmt.Sprintf("sparse: index (%d,%d) out of range for %dx%d matrix", e.Row, e.Col, e.NRows, e.NCols)
}

// column is one column's metadata: a run [start, start+length) into the
// shared arena, with capacity max and ring links to the columns that
// precede/follow it in arena order. Ring links let AddCoefficient relocate
// a single full column to the end of the arena (amortized doubling) without
// touching any other column's region.
type column struct {
	start, length, max int
	prev, next          int // ring indices into Matrix.cols; -1 sentinel unused (ring is circular)
}

// Matrix is a column-major sparse matrix with amortized-O(1) element
// insertion and O(length) column iteration. It implements mat.Matrix so it
// can be passed directly to any gonum consumer, mirroring how
// optimize/convex/lp accepts an A mat.Matrix.
type Matrix struct {
	nRows, nCols int
	values       []float64
	rowIdx       []int
	cols         []column

	rowMajorDirty bool
	rowStart      []int
	rowLen        []int
	rowColIdx     []int
	rowValues     []float64

	// arenaWaste counts arena slots abandoned by growColumn relocations;
	// once it exceeds half the arena, Compact reclaims them.
	arenaWaste int
}

// NewMatrix returns an nRows x nCols all-zero sparse matrix.
func NewMatrix(nRows, nCols int) *Matrix {
	if nRows < 0 || nCols < 0 {
		panic("sparse: negative dimension")
	}
	m := &Matrix{
		nRows: nRows,
		nCols: nCols,
		cols:  make([]column, nCols),
	}
	for c := range m.cols {
		m.cols[c].prev = (c - 1 + nCols) % nCols
		m.cols[c].next = (c + 1) % nCols
	}
	m.rowMajorDirty = true
	return m
}

// Dims implements mat.Matrix.
func (m *Matrix) Dims() (r, c int) { return m.nRows, m.nCols }

// At implements mat.Matrix via a linear scan of the column's run; callers
// needing repeated access to a whole column should use Column instead.
func (m *Matrix) At(i, j int) float64 {
	m.checkIndex(i, j)
	col := m.cols[j]
	for k := col.start; k < col.start+col.length; k++ {
		if m.rowIdx[k] == i {
			return m.values[k]
		}
	}
	return 0
}

// T implements mat.Matrix.
func (m *Matrix) T() mat.Matrix { return mat.Transpose{Matrix: m} }

func (m *Matrix) checkIndex(i, j int) {
	if i < 0 || i >= m.nRows || j < 0 || j >= m.nCols {
		panic(ErrInvalidIndex{Row: i, Col: j, NRows: m.nRows, NCols: m.nCols})
	}
}

// Column returns the row indices and values of column j. The returned
// slices alias internal storage and are stable only until the next mutation
// of the matrix.
func (m *Matrix) Column(j int) (idx []int, val []float64) {
	if j < 0 || j >= m.nCols {
		panic(ErrInvalidIndex{Col: j, NRows: m.nRows, NCols: m.nCols})
	}
	col := m.cols[j]
	return m.rowIdx[col.start : col.start+col.length], m.values[col.start : col.start+col.length]
}

// NNZ returns the total number of stored (non-dropped) elements.
func (m *Matrix) NNZ() int {
	n := 0
	for _, c := range m.cols {
		n += c.length
	}
	return n
}

// Set assigns A[r][c] = v directly, inserting a new element if none
// exists and removing it if v is within ElemZeroTol of zero.
func (m *Matrix) Set(r, c int, v float64) {
	m.checkIndex(r, c)
	col := m.cols[c]
	for k := col.start; k < col.start+col.length; k++ {
		if m.rowIdx[k] == r {
			m.values[k] = v
			if abs(v) <= ElemZeroTol {
				m.removeAt(c, k)
			}
			m.rowMajorDirty = true
			return
		}
	}
	if v == 0 {
		return
	}
	m.insertReal(r, c, v)
	m.rowMajorDirty = true
}

// Add adds v to the existing element at (r, c), inserting a new element if
// none exists, and removes the element if the combined value's magnitude
// falls to or below ElemZeroTol (spec.md §4.A's addCoefficient contract).
func (m *Matrix) Add(r, c int, v float64) {
	m.checkIndex(r, c)
	col := m.cols[c]
	for k := col.start; k < col.start+col.length; k++ {
		if m.rowIdx[k] == r {
			nv := m.values[k] + v
			if abs(nv) <= ElemZeroTol {
				m.removeAt(c, k)
			} else {
				m.values[k] = nv
			}
			m.rowMajorDirty = true
			return
		}
	}
	if abs(v) > ElemZeroTol {
		m.insertReal(r, c, v)
		m.rowMajorDirty = true
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// removeAt deletes the element stored at arena index k from column c by
// swapping in the run's last element, keeping the run contiguous.
func (m *Matrix) removeAt(c, k int) {
	col := &m.cols[c]
	last := col.start + col.length - 1
	m.values[k] = m.values[last]
	m.rowIdx[k] = m.rowIdx[last]
	col.length--
}

// insertReal appends a new (r, v) entry to column c's run, growing (and
// relocating, if necessary) the run first.
func (m *Matrix) insertReal(r, c int, v float64) {
	col := &m.cols[c]
	if col.length == col.max {
		m.growColumn(c)
		col = &m.cols[c]
	}
	pos := col.start + col.length
	m.values[pos] = v
	m.rowIdx[pos] = r
	col.length++
	if m.arenaWaste > len(m.values)/2 && m.arenaWaste > 64 {
		m.Compact()
	}
}

// growColumn relocates column c to a fresh, larger run at the end of the
// arena. Capacity at least doubles (amortized-doubling growth policy,
// spec.md §3 "Lifecycle"). The vacated run is counted as arena waste for
// Compact to reclaim later.
func (m *Matrix) growColumn(c int) {
	col := &m.cols[c]
	newMax := col.max*2 + 4
	newStart := len(m.values)
	m.values = append(m.values, make([]float64, newMax)...)
	m.rowIdx = append(m.rowIdx, make([]int, newMax)...)
	copy(m.values[newStart:], m.values[col.start:col.start+col.length])
	copy(m.rowIdx[newStart:], m.rowIdx[col.start:col.start+col.length])
	m.arenaWaste += col.max
	col.start = newStart
	col.max = newMax
}

// Compact walks the column ring in order and repacks every column's run
// contiguously into a fresh arena, reclaiming the garbage left behind by
// growColumn relocations. Compaction is the amortized counterpart to the
// single-column relocation growColumn performs on the hot insertion path
// (spec.md §4.A).
func (m *Matrix) Compact() {
	total := 0
	for _, c := range m.cols {
		total += c.length
	}
	newValues := make([]float64, total)
	newRowIdx := make([]int, total)
	offset := 0
	start := 0
	for i := 0; i < len(m.cols); i++ {
		c := &m.cols[start]
		n := c.length
		copy(newValues[offset:], m.values[c.start:c.start+n])
		copy(newRowIdx[offset:], m.rowIdx[c.start:c.start+n])
		c.start = offset
		c.max = n
		offset += n
		start = c.next
	}
	m.values = newValues
	m.rowIdx = newRowIdx
	m.arenaWaste = 0
}

// RowView returns, building it if stale, a row-major mirror as parallel
// (start, length) slices into shared rowColIdx/rowValues arrays, the same
// CSC->CSR transpose shape gonum's triplet.Matrix.Convert produces: one
// counting pass to size each row, one scatter pass to fill it.
func (m *Matrix) RowView() (start, length, colIdx []int, values []float64) {
	if m.rowMajorDirty {
		m.rebuildRowMajor()
	}
	return m.rowStart, m.rowLen, m.rowColIdx, m.rowValues
}

func (m *Matrix) rebuildRowMajor() {
	counts := make([]int, m.nRows)
	for c, col := range m.cols {
		for k := col.start; k < col.start+col.length; k++ {
			counts[m.rowIdx[k]]++
		}
		_ = c
	}
	start := make([]int, m.nRows)
	off := 0
	for r, n := range counts {
		start[r] = off
		off += n
	}
	colIdx := make([]int, off)
	values := make([]float64, off)
	cursor := append([]int(nil), start...)
	for c, col := range m.cols {
		for k := col.start; k < col.start+col.length; k++ {
			r := m.rowIdx[k]
			p := cursor[r]
			colIdx[p] = c
			values[p] = m.values[k]
			cursor[r]++
		}
	}
	m.rowStart = start
	m.rowLen = counts
	m.rowColIdx = colIdx
	m.rowValues = values
	m.rowMajorDirty = false
}

// TriangularSolveStep performs the scaled SAXPY x -= alpha*col restricted
// to col's nonzero pattern, the primitive the basis factorization manager
// (simplex/bfp) uses to apply an eta or Forest-Tomlin update column without
// touching x's zero entries (spec.md §4.A).
func TriangularSolveStep(x []float64, colIdx []int, colVal []float64, alpha float64) {
	if alpha == 0 {
		return
	}
	for k, r := range colIdx {
		x[r] -= alpha * colVal[k]
	}
}

// AddRow appends a new all-zero row, resizing row-count bookkeeping.
func (m *Matrix) AddRow() {
	m.nRows++
	m.rowMajorDirty = true
}

// AddColumn appends a new all-zero column.
func (m *Matrix) AddColumn() {
	m.cols = append(m.cols, column{})
	n := len(m.cols)
	m.cols[n-1].prev = n - 2
	m.cols[n-1].next = 0
	if n >= 2 {
		m.cols[0].prev = n - 1
		m.cols[n-2].next = n - 1
	} else {
		m.cols[0].prev = 0
		m.cols[0].next = 0
	}
	m.nCols = n
	m.rowMajorDirty = true
}

// DeleteColumn removes column j, shifting later columns down by one index.
// It is O(nCols) for the shift plus O(remaining nnz) for reindexing, which
// is acceptable because structural deletes happen only during presolve/B&B
// setup, not on the simplex hot path.
func (m *Matrix) DeleteColumn(j int) {
	if j < 0 || j >= m.nCols {
		panic(ErrInvalidIndex{Col: j, NRows: m.nRows, NCols: m.nCols})
	}
	rebuilt := NewMatrix(m.nRows, m.nCols-1)
	for c := 0; c < m.nCols; c++ {
		if c == j {
			continue
		}
		dst := c
		if c > j {
			dst = c - 1
		}
		idx, val := m.Column(c)
		for k, r := range idx {
			rebuilt.insertReal(r, dst, val[k])
		}
	}
	*m = *rebuilt
}

// DeleteRow removes row i from every column's run.
func (m *Matrix) DeleteRow(i int) {
	if i < 0 || i >= m.nRows {
		panic(ErrInvalidIndex{Row: i, NRows: m.nRows, NCols: m.nCols})
	}
	for c := 0; c < m.nCols; c++ {
		col := &m.cols[c]
		k := col.start
		for k < col.start+col.length {
			r := m.rowIdx[k]
			switch {
			case r == i:
				m.removeAt(c, k)
			case r > i:
				m.rowIdx[k] = r - 1
				k++
			default:
				k++
			}
		}
	}
	m.nRows--
	m.rowMajorDirty = true
}

// ScaleRow multiplies every element of row i by factor.
func (m *Matrix) ScaleRow(i int, factor float64) {
	for c := 0; c < m.nCols; c++ {
		col := m.cols[c]
		for k := col.start; k < col.start+col.length; k++ {
			if m.rowIdx[k] == i {
				m.values[k] *= factor
			}
		}
	}
	m.rowMajorDirty = true
}

// ScaleColumn multiplies every element of column c by factor.
func (m *Matrix) ScaleColumn(c int, factor float64) {
	col := m.cols[c]
	for k := col.start; k < col.start+col.length; k++ {
		m.values[k] *= factor
	}
	m.rowMajorDirty = true
}

// DenseCopy materializes the whole matrix as a dense mat.Dense. The basis
// factorization manager does not use it; it extracts the basic columns
// itself.
func (m *Matrix) DenseCopy() *mat.Dense {
	d := mat.NewDense(m.nRows, m.nCols, nil)
	for c := 0; c < m.nCols; c++ {
		idx, val := m.Column(c)
		for k, r := range idx {
			d.Set(r, c, val[k])
		}
	}
	return d
}

// Clone returns an independent copy with the same shape and elements, used
// by presolve to reduce a working copy without disturbing the caller's
// matrix.
func (m *Matrix) Clone() *Matrix {
	c := NewMatrix(m.nRows, m.nCols)
	for j := 0; j < m.nCols; j++ {
		idx, val := m.Column(j)
		for k, r := range idx {
			c.Set(r, j, val[k])
		}
	}
	return c
}
