// Package bfp implements the basis factorization manager of spec.md §4.C:
// it owns the current basis matrix B (a square submatrix of the constraint
// matrix selected by column indices), keeps an invertible factorization of
// it, and answers FTRAN/BTRAN queries for the simplex driver without ever
// exposing B^-1 explicitly.
//
// Two factorization strategies are used depending on basis size. Below
// Options.SparseThreshold the basis is extracted densely and factorized with
// gonum.org/v1/gonum/mat's mat.LU, exactly as
// optimize/convex/lp/parametric.go's extractColumns+lu.Factorize(ab) does.
// At or above the threshold, an initial sparse LU is built directly over
// sparse.Matrix columns using Markowitz pivot selection (markowitz.go).
// Either way, the factorization is kept current between refactorizations by
// appending product-form-of-inverse update vectors (eta.go), a
// generalization of optimize/convex/lp's Swap type.
package bfp

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/raller09/lp-solve-sub003/sparse"
)

// State is the factorization's lifecycle stage (spec.md §4.C).
type State int

const (
	// Absent means no basis has ever been factorized.
	Absent State = iota
	// Building means Refactor is in progress (observable only to a
	// Factorization inspected concurrently from a callback; the driver
	// itself never sees this state between calls).
	Building
	// Valid means FTRAN/BTRAN may be used as-is.
	Valid
	// Stale means the accumulated update chain has grown too long or too
	// ill-conditioned and Refactor should be called before the next solve.
	Stale
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Building:
		return "building"
	case Valid:
		return "valid"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// Options configures refactorization triggers and the dense/sparse cutover,
// spec.md §4.C's swapCondTol/swapCap made tunable instead of package
// constants as the teacher hardcodes them.
type Options struct {
	// SparseThreshold is the basis dimension at or above which the initial
	// factorization uses Markowitz-pivoted sparse LU instead of dense
	// mat.LU.
	SparseThreshold int
	// CondTol bounds the accumulated update-chain condition estimate;
	// crossing it moves the state to Stale (mirrors swapCondTol).
	CondTol float64
	// MaxUpdates bounds the update-chain length; crossing it moves the
	// state to Stale (mirrors swapCap).
	MaxUpdates int
	// PivotTol is the Markowitz threshold stability test's tau: a pivot
	// candidate (i,j) is accepted only if |a(i,j)| >= PivotTol*max_k|a(k,j)|.
	PivotTol float64
	// ForestTomlin names the row-indexed update bookkeeping (WITH_L_ROWS).
	// Factorization does not read it: every update uses the plain
	// eta-vector chain of eta.go.
	ForestTomlin bool
}

// DefaultOptions returns the constants the teacher hardcodes, as a starting
// point for callers who don't need to tune them.
func DefaultOptions() Options {
	return Options{
		SparseThreshold: 64,
		CondTol:         1e8, // swapCondTol
		MaxUpdates:      25,  // swapCap
		PivotTol:        0.1,
		ForestTomlin:    false,
	}
}

var (
	// ErrSingular is returned when a basis matrix (or an update to it) is
	// exactly or numerically singular.
	ErrSingular = errors.New("bfp: basis matrix is singular")
	// ErrNotValid is returned by FTRAN/BTRAN/Update when called before
	// Refactor has been called.
	ErrNotValid = errors.New("bfp: factorization is not valid")
)

// Factorization is the basis factorization manager. The zero value is not
// usable; construct with New.
type Factorization struct {
	opts Options

	m     int   // basis dimension
	basis []int // basis[k] is the column index of A currently in basis position k

	dense bool
	lu    mat.LU

	sL, sU           *sparse.Matrix // unit-lower and upper sparse factors (stage-space)
	rowPerm, colPerm []int          // rowPerm[k]/colPerm[k]: original A row/col at stage k

	chain etaChain

	state State
}

// New returns a Factorization in the Absent state with the given options.
func New(opts Options) *Factorization {
	return &Factorization{opts: opts, state: Absent}
}

// State reports the current lifecycle stage.
func (f *Factorization) State() State { return f.state }

// Basis returns the column indices currently occupying each basis position.
// The returned slice aliases internal storage and must not be modified.
func (f *Factorization) Basis() []int { return f.basis }

// Dim returns the basis dimension, or 0 if the factorization is Absent.
func (f *Factorization) Dim() int { return f.m }

// Refactor rebuilds the factorization from scratch for the given basis
// (column indices into A, one per row of A), resetting the update chain.
// It chooses the dense or sparse path based on Options.SparseThreshold,
// mirroring parametric.go's extractColumns+lu.Factorize(ab) for the dense
// case (spec.md §4.C).
func (f *Factorization) Refactor(A mat.Matrix, basis []int) error {
	f.state = Building
	m, _ := A.Dims()
	if len(basis) != m {
		panic("bfp: basis length must equal the number of rows of A")
	}
	f.m = m
	f.basis = append(f.basis[:0], basis...)
	f.chain.reset(m)

	if m < f.opts.SparseThreshold {
		f.dense = true
		ab := extractDense(A, basis)
		f.lu.Factorize(ab)
		if f.lu.Cond() > condTolerance(f.opts) {
			f.state = Stale
			return ErrSingular
		}
		f.state = Valid
		return nil
	}

	f.dense = false
	sm, ok := A.(*sparse.Matrix)
	if !ok {
		sm = denseToSparse(A)
	}
	ab := extractSparse(sm, basis)
	L, U, rowPerm, colPerm, err := factorMarkowitz(ab, f.opts.PivotTol)
	if err != nil {
		f.state = Stale
		return err
	}
	f.sL, f.sU = L, U
	f.rowPerm, f.colPerm = rowPerm, colPerm
	f.state = Valid
	return nil
}

// condTolerance is the dense refactorization's acceptance bound on lu.Cond(),
// following parametric.go's `lu.Cond() > mat.ConditionTolerance` check but
// using the configured Options.CondTol when the caller has set one.
func condTolerance(o Options) float64 {
	if o.CondTol > 0 {
		return o.CondTol
	}
	return mat.ConditionTolerance
}

// extractDense builds the dense m x m basis matrix from A's named columns,
// exactly as optimize/convex/lp/parametric.go's extractColumns helper.
func extractDense(A mat.Matrix, basis []int) *mat.Dense {
	m, _ := A.Dims()
	ab := mat.NewDense(m, len(basis), nil)
	for j, col := range basis {
		for i := 0; i < m; i++ {
			ab.Set(i, j, A.At(i, col))
		}
	}
	return ab
}

func denseToSparse(A mat.Matrix) *sparse.Matrix {
	r, c := A.Dims()
	sm := sparse.NewMatrix(r, c)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			if v := A.At(i, j); v != 0 {
				sm.Set(i, j, v)
			}
		}
	}
	return sm
}

// FTRAN solves B*dst = rhs ("forward transformation"), the solve used to
// bring an entering column into basis-coordinate space.
func (f *Factorization) FTRAN(dst, rhs []float64) error {
	if f.state == Absent || f.state == Building {
		return ErrNotValid
	}
	if len(dst) != f.m || len(rhs) != f.m {
		panic("bfp: FTRAN: dimension mismatch")
	}
	copy(dst, rhs)
	if f.dense {
		v := mat.NewVecDense(f.m, dst)
		if err := f.lu.SolveVecTo(v, false, mat.NewVecDense(f.m, append([]float64(nil), rhs...))); err != nil {
			return ErrSingular
		}
	} else {
		if err := f.sparseFTRANBase(dst); err != nil {
			return err
		}
	}
	return f.chain.solve(dst, false)
}

// BTRAN solves B^T*dst = rhs ("backward transformation"), the solve used to
// price nonbasic columns against the current basis.
func (f *Factorization) BTRAN(dst, rhs []float64) error {
	if f.state == Absent || f.state == Building {
		return ErrNotValid
	}
	if len(dst) != f.m || len(rhs) != f.m {
		panic("bfp: BTRAN: dimension mismatch")
	}
	copy(dst, rhs)
	if err := f.chain.solve(dst, true); err != nil {
		return err
	}
	if f.dense {
		v := mat.NewVecDense(f.m, dst)
		if err := f.lu.SolveVecTo(v, true, mat.NewVecDense(f.m, append([]float64(nil), dst...))); err != nil {
			return ErrSingular
		}
		return nil
	}
	return f.sparseBTRANBase(dst)
}

// Update installs an entering column at basis position pos, replacing the
// variable currently in basis[pos]. ftranCol must already be B^-1 times the
// entering column of A (i.e. the result of FTRAN on that column) -- exactly
// the quantity parametric.go computes right before swap.Append. Update
// appends the corresponding product-form-of-inverse vector and advances
// State to Stale once a refactorization trigger is crossed.
func (f *Factorization) Update(ftranCol []float64, pos, enteringCol int) error {
	if f.state == Absent || f.state == Building {
		return ErrNotValid
	}
	if pos < 0 || pos >= f.m {
		panic("bfp: Update: pos out of range")
	}
	if err := f.chain.append(ftranCol, pos); err != nil {
		return err
	}
	f.basis[pos] = enteringCol
	if f.chain.cond > f.opts.CondTol || f.chain.len() >= f.opts.MaxUpdates {
		f.state = Stale
	}
	return nil
}

// NeedsRefactor reports whether the next solve should call Refactor instead
// of continuing to accumulate updates.
func (f *Factorization) NeedsRefactor() bool { return f.state == Stale || f.state == Absent }

// sparseFTRANBase solves B*dst=dst in place against the sparse Markowitz
// factors: permute to stage space, forward-solve L, backward-solve U,
// permute back (spec.md §4.C).
func (f *Factorization) sparseFTRANBase(dst []float64) error {
	z := make([]float64, f.m)
	for k := 0; k < f.m; k++ {
		z[k] = dst[f.rowPerm[k]]
	}
	forwardUnitLowerColumn(f.sL, z)
	if err := backwardUpperColumn(f.sU, z); err != nil {
		return err
	}
	for k := 0; k < f.m; k++ {
		dst[f.colPerm[k]] = z[k]
	}
	return nil
}

// sparseBTRANBase solves B^T*dst=dst in place against the sparse Markowitz
// factors, the transpose counterpart of sparseFTRANBase.
func (f *Factorization) sparseBTRANBase(dst []float64) error {
	z := make([]float64, f.m)
	for k := 0; k < f.m; k++ {
		z[k] = dst[f.colPerm[k]]
	}
	if err := forwardRowUpperT(f.sU, z); err != nil {
		return err
	}
	backwardRowLowerT(f.sL, z)
	for k := 0; k < f.m; k++ {
		dst[f.rowPerm[k]] = z[k]
	}
	return nil
}
