// Package model holds the variables, rows, matrix, bounds, scaling factors,
// SOS sets and linking constraints of a MILP instance (spec.md §3, §4.B).
// It is the "global mutable state -> session object" realization of
// spec.md §9 for the part of solver state that outlives one Solve call.
package model

import (
	"errors"
	"fmt"
	"sort"

	"github.com/raller09/lp-solve-sub003/sparse"
)

// Sense is the optimization direction. The model stores objective
// coefficients as given, in either sense; the simplex driver negates them
// for Maximize because it always minimizes internally.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

var (
	ErrInvalidIndex        = errors.New("model: invalid row or column index")
	ErrInconsistentBounds  = errors.New("model: lower bound exceeds upper bound")
	ErrMissingVariable     = errors.New("model: referenced variable does not exist")
)

// ChangeLog summarizes the mutations Model methods applied; the mutators
// accumulate it and TakeChangeLog hands it out. Neither simplex nor
// presolve reads it.
type ChangeLog struct {
	RowsAdded, RowsRemoved int
	ColsAdded, ColsRemoved int
	ObjectiveTouched       bool
	BoundsTightened        bool
	MatrixTouched          bool
}

// Dirty reports whether any field indicates a change occurred.
func (c ChangeLog) Dirty() bool {
	return c.RowsAdded != 0 || c.RowsRemoved != 0 || c.ColsAdded != 0 ||
		c.ColsRemoved != 0 || c.ObjectiveTouched || c.BoundsTightened || c.MatrixTouched
}

// merge folds other into c in place.
func (c *ChangeLog) merge(other ChangeLog) {
	c.RowsAdded += other.RowsAdded
	c.RowsRemoved += other.RowsRemoved
	c.ColsAdded += other.ColsAdded
	c.ColsRemoved += other.ColsRemoved
	c.ObjectiveTouched = c.ObjectiveTouched || other.ObjectiveTouched
	c.BoundsTightened = c.BoundsTightened || other.BoundsTightened
	c.MatrixTouched = c.MatrixTouched || other.MatrixTouched
}

// Model is the mutable container for one MILP instance.
type Model struct {
	Sense Sense
	Name  string

	Vars []Variable
	Rows []Row
	A    *sparse.Matrix

	SOSSets  []SOS
	Linkings []Linking

	rowNames map[string]int
	colNames map[string]int

	log ChangeLog
}

// New returns an empty model with nRows constraints and nCols variables,
// all variables continuous with [0, +Inf) bounds.
func New(nRows, nCols int) *Model {
	m := &Model{
		A:        sparse.NewMatrix(nRows, nCols),
		Vars:     make([]Variable, nCols),
		Rows:     make([]Row, nRows),
		rowNames: make(map[string]int),
		colNames: make(map[string]int),
	}
	for i := range m.Vars {
		m.Vars[i] = NewVariable(fmt.Sprintf("C%d", i+1))
		m.colNames[m.Vars[i].Name] = i
	}
	for i := range m.Rows {
		m.Rows[i] = NewRow(fmt.Sprintf("R%d", i+1), 0)
		m.rowNames[m.Rows[i].Name] = i
	}
	return m
}

// Clone returns an independent deep copy, the working-copy-before-reduction
// idiom presolve needs since its mutators (DeleteColumn, SetBounds, ...) act
// in place.
func (m *Model) Clone() *Model {
	c := &Model{
		Sense:    m.Sense,
		Name:     m.Name,
		Vars:     append([]Variable(nil), m.Vars...),
		Rows:     append([]Row(nil), m.Rows...),
		A:        m.A.Clone(),
		SOSSets:  append([]SOS(nil), m.SOSSets...),
		Linkings: append([]Linking(nil), m.Linkings...),
		rowNames: make(map[string]int, len(m.rowNames)),
		colNames: make(map[string]int, len(m.colNames)),
	}
	for k, v := range m.rowNames {
		c.rowNames[k] = v
	}
	for k, v := range m.colNames {
		c.colNames[k] = v
	}
	return c
}

// NRows and NCols report the current dimensions.
func (m *Model) NRows() int { return len(m.Rows) }
func (m *Model) NCols() int { return len(m.Vars) }

// TakeChangeLog returns the accumulated ChangeLog since the last call and
// resets it, the pull-based variant of spec.md §4.B's "publishes a
// change-log ... consumed by downstream caches".
func (m *Model) TakeChangeLog() ChangeLog {
	cl := m.log
	m.log = ChangeLog{}
	return cl
}

// AddColumn appends a new structural variable with the given objective
// coefficient and sparse column (row indices and values); coefs and idx
// must have equal length.
func (m *Model) AddColumn(name string, obj float64, idx []int, coefs []float64) (int, error) {
	if len(idx) != len(coefs) {
		return 0, fmt.Errorf("model: AddColumn: idx and coefs length mismatch (%d vs %d)", len(idx), len(coefs))
	}
	for _, r := range idx {
		if r < 0 || r >= m.NRows() {
			return 0, ErrInvalidIndex
		}
	}
	m.A.AddColumn()
	j := len(m.Vars)
	v := NewVariable(name)
	v.Obj = obj
	m.Vars = append(m.Vars, v)
	m.colNames[name] = j
	for k, r := range idx {
		m.A.Set(r, j, coefs[k])
	}
	m.log.merge(ChangeLog{ColsAdded: 1, MatrixTouched: true})
	return j, nil
}

// AddConstraint appends a new row with the given sparse coefficients, row
// type and right-hand side (spec.md §6 addConstraint/addConstraintEx).
func (m *Model) AddConstraint(name string, idx []int, coefs []float64, t RowType, rhs float64) (int, error) {
	if len(idx) != len(coefs) {
		return 0, fmt.Errorf("model: AddConstraint: idx and coefs length mismatch (%d vs %d)", len(idx), len(coefs))
	}
	for _, c := range idx {
		if c < 0 || c >= m.NCols() {
			return 0, ErrInvalidIndex
		}
	}
	m.A.AddRow()
	i := len(m.Rows)
	row := NewRow(name, rhs)
	row.SetType(t, rhs)
	m.Rows = append(m.Rows, row)
	m.rowNames[name] = i
	for k, c := range idx {
		m.A.Set(i, c, coefs[k])
	}
	m.log.merge(ChangeLog{RowsAdded: 1, MatrixTouched: true})
	return i, nil
}

// DeleteConstraint removes row i, shifting later rows down by one index.
func (m *Model) DeleteConstraint(i int) error {
	if i < 0 || i >= m.NRows() {
		return ErrInvalidIndex
	}
	delete(m.rowNames, m.Rows[i].Name)
	m.A.DeleteRow(i)
	m.Rows = append(m.Rows[:i], m.Rows[i+1:]...)
	for name, idx := range m.rowNames {
		if idx > i {
			m.rowNames[name] = idx - 1
		}
	}
	m.log.merge(ChangeLog{RowsRemoved: 1, MatrixTouched: true})
	return nil
}

// DeleteColumn removes column j, shifting later columns down by one index.
func (m *Model) DeleteColumn(j int) error {
	if j < 0 || j >= m.NCols() {
		return ErrInvalidIndex
	}
	delete(m.colNames, m.Vars[j].Name)
	m.A.DeleteColumn(j)
	m.Vars = append(m.Vars[:j], m.Vars[j+1:]...)
	for name, idx := range m.colNames {
		if idx > j {
			m.colNames[name] = idx - 1
		}
	}
	m.log.merge(ChangeLog{ColsRemoved: 1, MatrixTouched: true})
	return nil
}

// SetBounds sets the lower and upper bound of column j.
func (m *Model) SetBounds(j int, lb, ub float64) error {
	if j < 0 || j >= m.NCols() {
		return ErrInvalidIndex
	}
	if lb > ub {
		return ErrInconsistentBounds
	}
	prevLower, prevUpper := m.Vars[j].Lower, m.Vars[j].Upper
	m.Vars[j].Lower, m.Vars[j].Upper = lb, ub
	m.log.merge(ChangeLog{BoundsTightened: true})
	m.recordLinkingFix(j, prevLower, prevUpper, lb, ub)
	return nil
}

// SetBoundsTighter applies (lb, ub) only where they narrow the existing
// bounds, per spec.md §6 setBoundsTighter.
func (m *Model) SetBoundsTighter(j int, lb, ub float64) error {
	if j < 0 || j >= m.NCols() {
		return ErrInvalidIndex
	}
	v := &m.Vars[j]
	prevLower, prevUpper := v.Lower, v.Upper
	lo, hi := prevLower, prevUpper
	if lb > lo {
		lo = lb
	}
	if ub < hi {
		hi = ub
	}
	if lo > hi {
		return ErrInconsistentBounds
	}
	v.Lower, v.Upper = lo, hi
	m.log.merge(ChangeLog{BoundsTightened: true})
	m.recordLinkingFix(j, prevLower, prevUpper, lo, hi)
	return nil
}

// recordLinkingFix feeds a bound change on column j into whichever linking
// set's materialized binaries j belongs to, the instant j's bounds newly
// collapse to exactly {0,0} or {1,1} (spec.md §3's "counts of zero-fixed/
// one-fixed binaries ... maintained incrementally under bound-change
// events"). Bounds that were already fixed at that same value do not fire
// again, so re-applying an unchanged delta (as bnb's applyChain/restoreChain
// replay does) does not inflate the count.
func (m *Model) recordLinkingFix(j int, prevLower, prevUpper, lb, ub float64) {
	alreadyFixedToZero := prevLower == 0 && prevUpper == 0
	alreadyFixedToOne := prevLower == 1 && prevUpper == 1
	fixedToZero := lb == 0 && ub == 0 && !alreadyFixedToZero
	fixedToOne := lb == 1 && ub == 1 && !alreadyFixedToOne
	if !fixedToZero && !fixedToOne {
		return
	}
	for i := range m.Linkings {
		l := &m.Linkings[i]
		for _, b := range l.Binaries {
			if b == j {
				l.RecordFix(fixedToOne)
				return
			}
		}
	}
}

// SetRowSides sets the lhs/rhs pair of row i directly.
func (m *Model) SetRowSides(i int, lhs, rhs float64) error {
	if i < 0 || i >= m.NRows() {
		return ErrInvalidIndex
	}
	m.Rows[i].Lhs, m.Rows[i].Rhs = lhs, rhs
	m.log.merge(ChangeLog{BoundsTightened: true})
	return nil
}

// SetObj sets the objective coefficient of column j.
func (m *Model) SetObj(j int, c float64) error {
	if j < 0 || j >= m.NCols() {
		return ErrInvalidIndex
	}
	m.Vars[j].Obj = c
	m.log.merge(ChangeLog{ObjectiveTouched: true})
	return nil
}

// SetElement sets A[r][c] = v.
func (m *Model) SetElement(r, c int, v float64) error {
	if r < 0 || r >= m.NRows() || c < 0 || c >= m.NCols() {
		return ErrInvalidIndex
	}
	m.A.Set(r, c, v)
	m.log.merge(ChangeLog{MatrixTouched: true})
	return nil
}

// Element returns A[r][c].
func (m *Model) Element(r, c int) (float64, error) {
	if r < 0 || r >= m.NRows() || c < 0 || c >= m.NCols() {
		return 0, ErrInvalidIndex
	}
	return m.A.At(r, c), nil
}

// ColumnIndex and RowIndex resolve names to indices, or 0, false.
func (m *Model) ColumnIndex(name string) (int, bool) { j, ok := m.colNames[name]; return j, ok }
func (m *Model) RowIndex(name string) (int, bool)    { i, ok := m.rowNames[name]; return i, ok }

// AddSOS appends a special-ordered-set constraint.
func (m *Model) AddSOS(s SOS) (int, error) {
	for _, mem := range s.Members {
		if mem.VarIndex < 0 || mem.VarIndex >= m.NCols() {
			return 0, ErrMissingVariable
		}
	}
	s.Members = append([]SOSMember(nil), s.Members...)
	sort.SliceStable(s.Members, func(a, b int) bool { return s.Members[a].Weight < s.Members[b].Weight })
	m.SOSSets = append(m.SOSSets, s)
	return len(m.SOSSets) - 1, nil
}

// AddLinking appends a linking constraint tying an integer variable to a
// lazily-materialized set of binary indicators (spec.md §3, §9).
func (m *Model) AddLinking(l Linking) (int, error) {
	if l.Var < 0 || l.Var >= m.NCols() {
		return 0, ErrMissingVariable
	}
	m.Linkings = append(m.Linkings, l)
	return len(m.Linkings) - 1, nil
}

// MaterializeLinking creates the n binary copies for linking set k if they
// do not already exist, appending them as new columns, then adds the two
// coupling rows that realize the set's invariants (spec.md §3):
// sum_i b[i] = 1, and v - sum_i i*b[i] = Offset (i.e. v = Offset + sum_i
// i*b[i]). This is spec.md §9's lazy materialization hook.
func (m *Model) MaterializeLinking(k, n int) ([]int, error) {
	if k < 0 || k >= len(m.Linkings) {
		return nil, ErrInvalidIndex
	}
	l := &m.Linkings[k]
	if !l.NeedsMaterialization() {
		return l.Binaries, nil
	}
	bins := make([]int, n)
	for i := 0; i < n; i++ {
		j, err := m.AddColumn(fmt.Sprintf("%s_b%d", m.Vars[l.Var].Name, i), 0, nil, nil)
		if err != nil {
			return nil, err
		}
		m.Vars[j].Kind = Binary
		m.Vars[j].Lower, m.Vars[j].Upper = 0, 1
		bins[i] = j
	}

	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	partitionRow, err := m.AddConstraint(fmt.Sprintf("%s_partition", m.Vars[l.Var].Name), bins, ones, RowEQ, 1)
	if err != nil {
		return nil, err
	}

	idx := make([]int, n+1)
	coefs := make([]float64, n+1)
	idx[0], coefs[0] = l.Var, 1
	for i := 0; i < n; i++ {
		idx[i+1], coefs[i+1] = bins[i], -float64(i)
	}
	linkRow, err := m.AddConstraint(fmt.Sprintf("%s_link", m.Vars[l.Var].Name), idx, coefs, RowEQ, float64(l.Offset))
	if err != nil {
		return nil, err
	}

	l.Binaries = bins
	l.PartitionRow = partitionRow
	l.LinkRow = linkRow
	return bins, nil
}
