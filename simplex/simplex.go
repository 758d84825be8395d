// Package simplex implements the bounded-variable revised simplex driver of
// spec.md §4.F: it holds rows and structural columns in one augmented
// "[structural | slack]" index space (spec.md §3's row-activity convention,
// "basic if its slack is basic"), where row i's slack is a variable whose
// value equals that row's activity and whose bounds are the row's own
// (Lhs, Rhs). Solve starts from the all-slacks basis (Resolve reuses the
// previous call's basis), which is trivially invertible (it is -I), the
// generalization of
// optimize/convex/lp/parametric.go's fixed starting tableau to arbitrary
// row/column bounds instead of the teacher's "rows already non-negative
// slacks" restriction.
//
// The per-iteration loop mirrors parametric.go's five-step shape
// (computePrimal -> selectIdx -> computeDual -> dictionary update ->
// implicit swap) but factors the entering-column rule and the leaving-row
// rule out into the pluggable simplex/price and simplex/ratio packages, and
// drives FTRAN/BTRAN/Update through a simplex/bfp.Factorization instead of
// rebuilding a dense basis matrix every iteration.
package simplex

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/raller09/lp-solve-sub003/model"
	"github.com/raller09/lp-solve-sub003/simplex/bfp"
	"github.com/raller09/lp-solve-sub003/simplex/price"
	"github.com/raller09/lp-solve-sub003/simplex/ratio"
	"github.com/raller09/lp-solve-sub003/status"
)

// Method names a simplex variant (spec.md §4.F). The driver does not read
// Options.Method: every solve runs the primal loop described under Primal,
// whatever the value.
type Method int

const (
	// Primal runs primal simplex, using the phase-1 composite objective of
	// driveFeasible when the starting basis is infeasible.
	Primal Method = iota
	// Dual names the dual simplex variant; this package has no dual
	// pivoting loop.
	Dual
	// Dynamic names dual-or-primal selection by the incoming basis's dual
	// feasibility; the driver makes no such selection.
	Dynamic
)

// Options configures one Solver (spec.md §4.F).
type Options struct {
	Pricer    price.Pricer
	RatioTest ratio.Test
	BFP       bfp.Options

	Tol           float64 // feasibility / optimality tolerance
	MaxIterations int
	Method        Method

	// BreakAtFirst stops as soon as phase 1 reaches a feasible basis,
	// returning status.Suboptimal without running phase 2. bnb does not
	// set it.
	BreakAtFirst bool
	// BreakAtValue, when HasBreakAtValue, stops phase 2 as soon as the
	// objective crosses this value in the improving direction.
	BreakAtValue    float64
	HasBreakAtValue bool
}

// DefaultOptions returns Devex pricing, Harris ratio testing and the bfp
// package's own defaults, a reasonable starting point for most models.
func DefaultOptions() Options {
	return Options{
		Pricer:        &price.Devex{},
		RatioTest:     &ratio.Harris{},
		BFP:           bfp.DefaultOptions(),
		Tol:           1e-9,
		MaxIterations: 20000,
		Method:        Dynamic,
	}
}

// Resolver is the interface bnb re-solves relaxations through: re-run the
// driver against a (usually bound-tightened) model, reusing whatever warm
// state the implementation keeps, and expose the resulting solution without
// the caller needing to know the driver's internals (spec.md §4.I).
type Resolver interface {
	Resolve(ctx context.Context, m *model.Model) (status.Code, error)
	Objective() float64
	X() []float64
	RowActivity() []float64
	Basis() []int
	Iterations() int
}

type side int

const (
	atLower side = iota
	atUpper
	free
	basic
)

// Solver is one simplex driver instance. The zero value is usable; Solve
// allocates its own working state per call, so a Solver may be reused
// across unrelated models (though reusing one across bnb child nodes, which
// share almost all of their state, is the warm-start path: Resolve keeps
// the existing basis, refactors it, and places every nonbasic column at
// its current bounds again).
type Solver struct {
	Opts Options

	m *model.Model

	nStruct, nRows, n int

	lower, upper []float64 // per augmented column
	obj          []float64 // internal objective (always a minimization), per augmented column

	st       []side
	basisPos []int // per column: position in basis, or -1
	basis    []int // per row position: occupying column
	xval     []float64

	fac *bfp.Factorization

	iterations int
	warm       bool
}

// Objective, X, RowActivity, Basis and Iterations report the last Solve (or
// Resolve) call's result in the caller's original sense (not the internal
// minimization form).
func (s *Solver) Objective() float64 {
	obj := 0.0
	for j := 0; j < s.nStruct; j++ {
		obj += s.m.Vars[j].Obj * s.xval[j]
	}
	return obj
}

func (s *Solver) X() []float64 {
	x := make([]float64, s.nStruct)
	copy(x, s.xval[:s.nStruct])
	return x
}

func (s *Solver) RowActivity() []float64 {
	act := make([]float64, s.nRows)
	copy(act, s.xval[s.nStruct:])
	return act
}

func (s *Solver) Basis() []int {
	b := make([]int, len(s.basis))
	copy(b, s.basis)
	return b
}

func (s *Solver) Iterations() int { return s.iterations }

// DualValues returns the simplex multipliers y solving B^T*y = cB for the
// optimal basis, one entry per row, in the model's original sense (the
// internal minimization's sign is undone for a maximize model).
func (s *Solver) DualValues() []float64 {
	cB := make([]float64, s.nRows)
	for i, j := range s.basis {
		cB[i] = s.obj[j]
	}
	y, err := s.duals(cB)
	if err != nil {
		return nil
	}
	sign := 1.0
	if s.m.Sense == model.Maximize {
		sign = -1
	}
	for i := range y {
		y[i] *= sign
	}
	return y
}

// ReducedCosts returns each structural column's reduced cost at the
// optimal basis (zero for basic columns), in the model's original sense.
func (s *Solver) ReducedCosts() []float64 {
	cB := make([]float64, s.nRows)
	for i, j := range s.basis {
		cB[i] = s.obj[j]
	}
	y, err := s.duals(cB)
	if err != nil {
		return nil
	}
	sign := 1.0
	if s.m.Sense == model.Maximize {
		sign = -1
	}
	rc := make([]float64, s.nStruct)
	for j := 0; j < s.nStruct; j++ {
		if s.basisPos[j] != -1 {
			continue
		}
		col := s.columnDense(j)
		rc[j] = sign * (s.obj[j] - floats.Dot(y, col))
	}
	return rc
}

// Solve runs the driver from a fresh all-slack basis.
func (s *Solver) Solve(ctx context.Context, m *model.Model) (status.Code, error) {
	s.warm = false
	return s.run(ctx, m)
}

// Resolve re-runs the driver against m, reusing the previous basis as a
// warm start when the column count matches (spec.md §4.I's bound-tightened
// child-node re-solve); it otherwise behaves exactly like Solve.
func (s *Solver) Resolve(ctx context.Context, m *model.Model) (status.Code, error) {
	s.warm = s.m != nil && s.nStruct == m.NCols() && s.nRows == m.NRows()
	return s.run(ctx, m)
}

func (s *Solver) run(ctx context.Context, m *model.Model) (status.Code, error) {
	if s.Opts.Pricer == nil || s.Opts.RatioTest == nil {
		o := DefaultOptions()
		if s.Opts.Pricer == nil {
			s.Opts.Pricer = o.Pricer
		}
		if s.Opts.RatioTest == nil {
			s.Opts.RatioTest = o.RatioTest
		}
		if s.Opts.Tol == 0 {
			s.Opts.Tol = o.Tol
		}
		if s.Opts.MaxIterations == 0 {
			s.Opts.MaxIterations = o.MaxIterations
		}
	}

	s.build(m)

	if s.fac == nil {
		s.fac = bfp.New(s.Opts.BFP)
	}
	if err := s.fac.Refactor(augmented{m}, s.basis); err != nil {
		return status.NumFailure, err
	}
	if err := s.computeBasics(); err != nil {
		return status.NumFailure, err
	}
	s.iterations = 0

	s.Opts.Pricer.Reset(s.n - s.nRows)

	if code, err := s.driveFeasible(ctx); err != nil || code != status.Running {
		if err != nil {
			return status.NumFailure, err
		}
		return code, nil
	}

	return s.optimize(ctx)
}

// build lays out the augmented [structural | slack] system. A fresh build
// starts from the all-slack basis with every structural variable nonbasic
// at whichever of its own bounds is finite, per spec.md §3's row-activity
// convention. A warm build (Resolve, with the column/row counts unchanged)
// keeps the previous basis and nonbasic statuses, only clamping any
// nonbasic variable whose resting bound moved out from under it; either
// way, basic values are then recomputed once by computeBasics after the
// factorization is (re)built, rather than specially shortcut for B=-I.
func (s *Solver) build(m *model.Model) {
	// The driver always minimizes internally, matching the textbook
	// reduced-cost sign convention simplex/price.improving assumes
	// (negative reduced cost at a lower-bound nonbasic is improving); a
	// Maximize model is minimized in its negated objective.
	sign := 1.0
	if m.Sense == model.Maximize {
		sign = -1.0
	}

	if s.warm {
		s.m = m
		for j := 0; j < s.nStruct; j++ {
			v := m.Vars[j]
			s.lower[j], s.upper[j] = v.Lower, v.Upper
			s.obj[j] = sign * v.Obj
			if s.basisPos[j] != -1 {
				continue
			}
			s.clampNonbasic(j)
		}
		for i := 0; i < s.nRows; i++ {
			r := m.Rows[i]
			jc := s.nStruct + i
			s.lower[jc], s.upper[jc] = r.Lhs, r.Rhs
			if s.basisPos[jc] == -1 {
				s.clampNonbasic(jc)
			}
		}
		return
	}

	s.m = m
	s.nStruct = m.NCols()
	s.nRows = m.NRows()
	s.n = s.nStruct + s.nRows

	s.lower = make([]float64, s.n)
	s.upper = make([]float64, s.n)
	s.obj = make([]float64, s.n)
	s.st = make([]side, s.n)
	s.basisPos = make([]int, s.n)
	s.xval = make([]float64, s.n)

	for j := 0; j < s.nStruct; j++ {
		v := m.Vars[j]
		s.lower[j], s.upper[j] = v.Lower, v.Upper
		s.obj[j] = sign * v.Obj
	}
	for i := 0; i < s.nRows; i++ {
		r := m.Rows[i]
		jc := s.nStruct + i
		s.lower[jc], s.upper[jc] = r.Lhs, r.Rhs
		s.obj[jc] = 0
	}

	s.basis = make([]int, s.nRows)
	for i := 0; i < s.nRows; i++ {
		jc := s.nStruct + i
		s.basis[i] = jc
		s.basisPos[jc] = i
		s.st[jc] = basic
	}

	for j := 0; j < s.nStruct; j++ {
		s.basisPos[j] = -1
		s.st[j] = free
		s.clampNonbasic(j)
	}
}

// clampNonbasic reassigns a nonbasic column's resting side and value after
// its bounds changed, preferring to keep its current side if still finite.
func (s *Solver) clampNonbasic(j int) {
	lo, hi := s.lower[j], s.upper[j]
	switch s.st[j] {
	case atUpper:
		if !math.IsInf(hi, 1) {
			s.xval[j] = hi
			return
		}
	case atLower, basic, free:
	}
	switch {
	case !math.IsInf(lo, -1):
		s.st[j], s.xval[j] = atLower, lo
	case !math.IsInf(hi, 1):
		s.st[j], s.xval[j] = atUpper, hi
	default:
		s.st[j], s.xval[j] = free, 0
	}
}

// computeBasics solves B*xB = -N*xN for the current nonbasic values via one
// FTRAN pass, the general form of what the all-slack basis's B=-I lets the
// fresh start skip: it subsumes that case (B=-I gives xB = N*xN, exactly
// the row activity at the nonbasic bounds) and also recovers a warm-started
// basis's basic values after its bounds moved.
func (s *Solver) computeBasics() error {
	rhs := make([]float64, s.nRows)
	for j := 0; j < s.n; j++ {
		if s.basisPos[j] != -1 || s.xval[j] == 0 {
			continue
		}
		col := s.columnDense(j)
		for i, v := range col {
			rhs[i] -= v * s.xval[j]
		}
	}
	xB := make([]float64, s.nRows)
	if err := s.fac.FTRAN(xB, rhs); err != nil {
		return err
	}
	for p, col := range s.basis {
		s.xval[col] = xB[p]
	}
	return nil
}

// columnDense returns the augmented column j as a dense length-nRows
// vector: model.A's column j for a structural variable, or -e_i for the
// slack of row i = j-nStruct (spec.md §3).
func (s *Solver) columnDense(j int) []float64 {
	v := make([]float64, s.nRows)
	if j < s.nStruct {
		idx, val := s.m.A.Column(j)
		for k, r := range idx {
			v[r] = val[k]
		}
		return v
	}
	v[j-s.nStruct] = -1
	return v
}

// augmented presents the model's constraint system as the m x n matrix
// bfp.Factorization factors: model.A's columns followed by -I, exactly
// spec.md §3's "basis column set ... enriched with identity columns for
// basic slacks".
type augmented struct{ m *model.Model }

func (a augmented) Dims() (int, int) { return a.m.NRows(), a.m.NCols() + a.m.NRows() }

func (a augmented) At(i, j int) float64 {
	if j < a.m.NCols() {
		v, _ := a.m.Element(i, j)
		return v
	}
	if j-a.m.NCols() == i {
		return -1
	}
	return 0
}

func (a augmented) T() mat.Matrix { return augmentedT{a} }

type augmentedT struct{ a augmented }

func (t augmentedT) Dims() (int, int)    { r, c := t.a.Dims(); return c, r }
func (t augmentedT) At(i, j int) float64 { return t.a.At(j, i) }
func (t augmentedT) T() mat.Matrix       { return t.a }

// nonbasicIdx lists every non-fixed nonbasic column, the slot order
// price.State iterates.
func (s *Solver) nonbasicIdx() []int {
	idx := make([]int, 0, s.n-s.nRows)
	for j := 0; j < s.n; j++ {
		if s.basisPos[j] != -1 {
			continue
		}
		if s.lower[j] == s.upper[j] {
			continue // fixed, never a candidate
		}
		idx = append(idx, j)
	}
	return idx
}

// duals computes y solving B^T*y = cB for the given basic cost vector.
func (s *Solver) duals(cB []float64) ([]float64, error) {
	y := make([]float64, s.nRows)
	if err := s.fac.BTRAN(y, cB); err != nil {
		return nil, err
	}
	return y, nil
}

func (s *Solver) priceState(idx []int, y []float64, cost []float64) *price.State {
	rc := make([]float64, len(idx))
	atUpperFlag := make([]bool, len(idx))
	for k, j := range idx {
		col := s.columnDense(j)
		rc[k] = cost[j] - floats.Dot(y, col)
		atUpperFlag[k] = s.st[j] == atUpper
	}
	return &price.State{NonbasicIdx: idx, ReducedCosts: rc, AtUpper: atUpperFlag, Tol: s.Opts.Tol}
}

// driveFeasible runs a composite-objective phase 1 (the Big-M-free
// "extended bounds" method) until every basic variable sits within its own
// bounds, or returns Infeasible if no improving direction remains while
// some basic variable is still out of bounds.
func (s *Solver) driveFeasible(ctx context.Context) (status.Code, error) {
	for {
		if s.infeasibility() <= s.Opts.Tol {
			return status.Running, nil
		}

		if err := ctx.Err(); err != nil {
			return status.UserAbort, nil
		}
		if s.iterations >= s.Opts.MaxIterations {
			return status.Suboptimal, nil
		}

		cB := make([]float64, s.nRows)
		for p, col := range s.basis {
			lo, hi, x := s.lower[col], s.upper[col], s.xval[col]
			switch {
			case x > hi+s.Opts.Tol:
				cB[p] = 1
			case x < lo-s.Opts.Tol:
				cB[p] = -1
			}
		}
		y, err := s.duals(cB)
		if err != nil {
			return status.NumFailure, err
		}

		idx := s.nonbasicIdx()
		ps := s.priceState(idx, y, make([]float64, s.n)) // phase-1 cost over nonbasics is purely -y.A_j
		slot, dir, ok := s.Opts.Pricer.Select(ps)
		if !ok {
			return status.Infeasible, nil
		}

		if done, code, err := s.pivot(ctx, idx, slot, dir, true); err != nil {
			return status.NumFailure, err
		} else if done {
			return code, nil
		}
	}
}

// infeasibility sums how far every basic variable sits outside its bounds.
func (s *Solver) infeasibility() float64 {
	var total float64
	for _, col := range s.basis {
		x, lo, hi := s.xval[col], s.lower[col], s.upper[col]
		switch {
		case x > hi+s.Opts.Tol:
			total += x - hi
		case x < lo-s.Opts.Tol:
			total += lo - x
		}
	}
	return total
}

// optimize runs ordinary phase-2 primal simplex to optimality (or a
// BreakAt* early exit) once the basis is feasible.
func (s *Solver) optimize(ctx context.Context) (status.Code, error) {
	if s.Opts.BreakAtFirst {
		return status.Suboptimal, nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return status.UserAbort, nil
		}
		if s.iterations >= s.Opts.MaxIterations {
			return status.Suboptimal, nil
		}

		cB := make([]float64, s.nRows)
		for p, col := range s.basis {
			cB[p] = s.obj[col]
		}
		y, err := s.duals(cB)
		if err != nil {
			return status.NumFailure, err
		}

		idx := s.nonbasicIdx()
		ps := s.priceState(idx, y, s.obj)
		slot, dir, ok := s.Opts.Pricer.Select(ps)
		if !ok {
			return status.Optimal, nil
		}

		if done, code, err := s.pivot(ctx, idx, slot, dir, false); err != nil {
			return status.NumFailure, err
		} else if done {
			return code, nil
		}

		if s.Opts.HasBreakAtValue {
			obj := s.Objective()
			crossed := (s.m.Sense == model.Maximize && obj >= s.Opts.BreakAtValue) ||
				(s.m.Sense == model.Minimize && obj <= s.Opts.BreakAtValue)
			if crossed {
				return status.Suboptimal, nil
			}
		}
	}
}

// pivot performs one entering/leaving exchange: FTRAN the entering column,
// run the ratio test, move every basic variable (and the entering one) by
// the resulting step, and update the factorization. phase1 selects the
// extended-bounds ratio-test rule used during driveFeasible.
func (s *Solver) pivot(ctx context.Context, idx []int, slot int, dir price.Direction, phase1 bool) (done bool, code status.Code, err error) {
	enterCol := idx[slot]
	col := s.columnDense(enterCol)
	alpha := make([]float64, s.nRows)
	if err := s.fac.FTRAN(alpha, col); err != nil {
		return true, status.NumFailure, err
	}

	dirSign := 1.0
	if dir == price.Decreasing {
		dirSign = -1.0
	}

	cands := make([]ratio.Candidate, 0, s.nRows)
	toUppers := make([]bool, 0, s.nRows) // parallel to cands: which bound each candidate targets
	for p := 0; p < s.nRows; p++ {
		a := alpha[p] * dirSign
		if math.Abs(a) <= s.Opts.Tol {
			continue
		}
		basisCol := s.basis[p]
		x, lo, hi := s.xval[basisCol], s.lower[basisCol], s.upper[basisCol]

		belowLow := x < lo-s.Opts.Tol
		aboveHigh := x > hi+s.Opts.Tol

		var toBound float64
		include := true
		var toUpper bool
		switch {
		case a > 0: // xB[p] decreases as the entering variable moves
			if phase1 && aboveHigh {
				toBound, toUpper = x-hi, true
			} else if phase1 && belowLow {
				include = false // already below its true lower bound; decreasing further isn't blocking in phase 1
			} else if math.IsInf(lo, -1) {
				include = false
			} else {
				toBound, toUpper = x-lo, false
			}
		default: // a < 0: xB[p] increases
			if phase1 && belowLow {
				toBound, toUpper = lo-x, false
			} else if phase1 && aboveHigh {
				include = false
			} else if math.IsInf(hi, 1) {
				include = false
			} else {
				toBound, toUpper = hi-x, true
			}
		}
		if !include {
			continue
		}
		if toBound < 0 {
			toBound = 0
		}
		toUppers = append(toUppers, toUpper)
		cands = append(cands, ratio.Candidate{Pos: p, ToBound: toBound, Alpha: a, Degenerat: toBound <= s.Opts.Tol})
	}

	ratioOpts := ratio.Options{Tol: s.Opts.Tol, HarrisTol: 1e-7, DegenTol: 1e-9}
	if !phase1 {
		enterLo, enterHi := s.lower[enterCol], s.upper[enterCol]
		if !math.IsInf(enterLo, -1) && !math.IsInf(enterHi, 1) {
			ratioOpts.BoundFlip = true
			ratioOpts.EnteringBound = enterHi - enterLo
		}
	}

	winner, step, flipped, ok, rerr := s.Opts.RatioTest.Select(cands, ratioOpts)
	if rerr != nil {
		if errors.Is(rerr, ratio.ErrUnbounded) {
			if phase1 {
				return true, status.NumFailure, nil
			}
			return true, status.Unbounded, nil
		}
		return true, status.NumFailure, rerr
	}
	if !ok {
		return true, status.NumFailure, nil
	}

	s.iterations++

	// Advance every basic variable and the entering variable by step.
	for p := 0; p < s.nRows; p++ {
		s.xval[s.basis[p]] -= alpha[p] * dirSign * step
	}
	s.xval[enterCol] += dirSign * step

	if flipped {
		if s.st[enterCol] == atLower {
			s.st[enterCol] = atUpper
		} else {
			s.st[enterCol] = atLower
		}
		return false, status.Running, nil
	}

	pos := cands[winner].Pos
	leaveCol := s.basis[pos]
	leavingToUpper := toUppers[winner]

	// Pricer.Update needs the pivot row: B^-1's row `pos` dotted with every
	// nonbasic column, computed with one BTRAN against the pre-update
	// factorization (the pivot element alpha[pos] is the same quantity this
	// row produces against the entering column, by construction of FTRAN).
	e := make([]float64, s.nRows)
	e[pos] = 1
	if w, err := s.duals(e); err == nil {
		pivotRow := make([]float64, len(idx))
		for k, j := range idx {
			pivotRow[k] = floats.Dot(w, s.columnDense(j))
		}
		s.Opts.Pricer.Update(slot, pos, pivotRow, alpha[pos])
	}

	s.basisPos[leaveCol] = -1
	s.st[leaveCol] = atLower
	if leavingToUpper {
		s.st[leaveCol] = atUpper
		s.xval[leaveCol] = s.upper[leaveCol]
	} else {
		s.xval[leaveCol] = s.lower[leaveCol]
	}

	s.basis[pos] = enterCol
	s.basisPos[enterCol] = pos
	s.st[enterCol] = basic

	if err := s.fac.Update(alpha, pos, enterCol); err != nil {
		return true, status.NumFailure, err
	}
	if s.fac.NeedsRefactor() {
		if err := s.fac.Refactor(augmented{s.m}, s.basis); err != nil {
			return true, status.NumFailure, err
		}
		s.Opts.Pricer.Reset(len(idx))
	}

	return false, status.Running, nil
}
