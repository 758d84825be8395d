package bfp

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/raller09/lp-solve-sub003/sparse"
)

func approxEqual(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

// TestEtaChainMatchesSwapExample ports swap_test.go's literal numeric case,
// checked against gonum's own Swap test suite, to confirm etaChain.solve
// reproduces the same Sherman-Morrison recurrence.
func TestEtaChainMatchesSwapExample(t *testing.T) {
	var c etaChain
	c.reset(3)
	y := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	pos := []int{1, 0, 2, 0}
	for i, k := range pos {
		if err := c.append(y[i*3:(i+1)*3], k); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	b := []float64{1, 1, 1}
	v := append([]float64(nil), b...)
	if err := c.solve(v, false); err != nil {
		t.Fatalf("solve forward: %v", err)
	}
	want := []float64{0.10972222, -0.22083333, -1.45555556}
	if !approxEqual(v, want, 1e-7) {
		t.Errorf("forward solve = %v, want %v", v, want)
	}

	vT := append([]float64(nil), b...)
	if err := c.solve(vT, true); err != nil {
		t.Fatalf("solve transpose: %v", err)
	}
	wantT := []float64{-3.2, 0.7, 0.93333333}
	if !approxEqual(vT, wantT, 1e-7) {
		t.Errorf("transpose solve = %v, want %v", vT, wantT)
	}
}

func TestEtaChainSingularAppend(t *testing.T) {
	var c etaChain
	c.reset(2)
	if err := c.append([]float64{0, 1}, 0); err != ErrChainSingular {
		t.Errorf("append with zero pivot: err = %v, want ErrChainSingular", err)
	}
}

func identityDense(n int) *mat.Dense {
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		d.Set(i, i, 1)
	}
	return d
}

func TestRefactorDenseFTRANIdentity(t *testing.T) {
	f := New(Options{SparseThreshold: 64, CondTol: 1e8, MaxUpdates: 25, PivotTol: 0.1})
	A := identityDense(3)
	if err := f.Refactor(A, []int{0, 1, 2}); err != nil {
		t.Fatalf("Refactor: %v", err)
	}
	if f.State() != Valid {
		t.Fatalf("State() = %v, want Valid", f.State())
	}
	rhs := []float64{2, -1, 4}
	dst := make([]float64, 3)
	if err := f.FTRAN(dst, rhs); err != nil {
		t.Fatalf("FTRAN: %v", err)
	}
	if !approxEqual(dst, rhs, 1e-10) {
		t.Errorf("FTRAN on identity = %v, want %v", dst, rhs)
	}
}

func TestRefactorDenseFTRANBTRANRoundTrip(t *testing.T) {
	f := New(Options{SparseThreshold: 64, CondTol: 1e8, MaxUpdates: 25, PivotTol: 0.1})
	A := mat.NewDense(3, 3, []float64{
		4, 1, 0,
		2, 5, 1,
		0, 1, 3,
	})
	if err := f.Refactor(A, []int{0, 1, 2}); err != nil {
		t.Fatalf("Refactor: %v", err)
	}
	rhs := []float64{1, 2, 3}
	x := make([]float64, 3)
	if err := f.FTRAN(x, rhs); err != nil {
		t.Fatalf("FTRAN: %v", err)
	}
	// B*x should reproduce rhs.
	var got mat.VecDense
	got.MulVec(A, mat.NewVecDense(3, x))
	if !approxEqual(got.RawVector().Data, rhs, 1e-8) {
		t.Errorf("B*FTRAN(rhs) = %v, want %v", got.RawVector().Data, rhs)
	}

	y := make([]float64, 3)
	if err := f.BTRAN(y, rhs); err != nil {
		t.Fatalf("BTRAN: %v", err)
	}
	var gotT mat.VecDense
	gotT.MulVec(A.T(), mat.NewVecDense(3, y))
	if !approxEqual(gotT.RawVector().Data, rhs, 1e-8) {
		t.Errorf("B^T*BTRAN(rhs) = %v, want %v", gotT.RawVector().Data, rhs)
	}
}

func TestUpdateReflectsNewColumn(t *testing.T) {
	f := New(Options{SparseThreshold: 64, CondTol: 1e8, MaxUpdates: 25, PivotTol: 0.1})
	A := identityDense(3)
	if err := f.Refactor(A, []int{0, 1, 2}); err != nil {
		t.Fatalf("Refactor: %v", err)
	}
	// Replace basis position 1 (column 1 of B, currently e_1) with the
	// vector (0, 2, 0): B becomes diag(1,2,1).
	entering := []float64{0, 2, 0}
	ftranCol := make([]float64, 3)
	if err := f.FTRAN(ftranCol, entering); err != nil {
		t.Fatalf("FTRAN of entering column: %v", err)
	}
	if err := f.Update(ftranCol, 1, 7); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if f.Basis()[1] != 7 {
		t.Errorf("Basis()[1] = %d, want 7", f.Basis()[1])
	}
	rhs := []float64{3, 4, 5}
	x := make([]float64, 3)
	if err := f.FTRAN(x, rhs); err != nil {
		t.Fatalf("FTRAN after update: %v", err)
	}
	want := []float64{3, 2, 5}
	if !approxEqual(x, want, 1e-8) {
		t.Errorf("FTRAN after update = %v, want %v", x, want)
	}
}

func TestUpdateTriggersStale(t *testing.T) {
	f := New(Options{SparseThreshold: 64, CondTol: 1e8, MaxUpdates: 2, PivotTol: 0.1})
	A := identityDense(2)
	if err := f.Refactor(A, []int{0, 1}); err != nil {
		t.Fatalf("Refactor: %v", err)
	}
	for i := 0; i < 2; i++ {
		ftranCol := []float64{1, 1}
		if err := f.Update(ftranCol, 0, 10+i); err != nil {
			t.Fatalf("Update %d: %v", i, err)
		}
	}
	if f.State() != Stale {
		t.Errorf("State() = %v after MaxUpdates updates, want Stale", f.State())
	}
	if !f.NeedsRefactor() {
		t.Errorf("NeedsRefactor() = false, want true")
	}
}

func sparseFromDense(d *mat.Dense) *sparse.Matrix {
	r, c := d.Dims()
	sm := sparse.NewMatrix(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := d.At(i, j); v != 0 {
				sm.Set(i, j, v)
			}
		}
	}
	return sm
}

func TestRefactorSparseFTRANBTRANRoundTrip(t *testing.T) {
	f := New(Options{SparseThreshold: 0, CondTol: 1e8, MaxUpdates: 25, PivotTol: 0.1})
	A := mat.NewDense(4, 4, []float64{
		5, 0, 1, 0,
		0, 3, 0, 0,
		2, 0, 4, 1,
		0, 0, 1, 6,
	})
	sm := sparseFromDense(A)
	if err := f.Refactor(sm, []int{0, 1, 2, 3}); err != nil {
		t.Fatalf("Refactor: %v", err)
	}
	if f.State() != Valid {
		t.Fatalf("State() = %v, want Valid", f.State())
	}
	rhs := []float64{1, 2, 3, 4}
	x := make([]float64, 4)
	if err := f.FTRAN(x, rhs); err != nil {
		t.Fatalf("FTRAN: %v", err)
	}
	var got mat.VecDense
	got.MulVec(A, mat.NewVecDense(4, x))
	if !approxEqual(got.RawVector().Data, rhs, 1e-6) {
		t.Errorf("B*FTRAN(rhs) = %v, want %v", got.RawVector().Data, rhs)
	}

	y := make([]float64, 4)
	if err := f.BTRAN(y, rhs); err != nil {
		t.Fatalf("BTRAN: %v", err)
	}
	var gotT mat.VecDense
	gotT.MulVec(A.T(), mat.NewVecDense(4, y))
	if !approxEqual(gotT.RawVector().Data, rhs, 1e-6) {
		t.Errorf("B^T*BTRAN(rhs) = %v, want %v", gotT.RawVector().Data, rhs)
	}
}

func TestRefactorSparseSingletonPivotsFirst(t *testing.T) {
	// A block upper-triangular structure with a singleton column: column 0
	// has a single entry, forcing it to be chosen first regardless of Markowitz
	// count elsewhere.
	A := mat.NewDense(3, 3, []float64{
		1, 2, 3,
		0, 4, 5,
		0, 6, 7,
	})
	sm := sparseFromDense(A)
	ab := extractSparse(sm, []int{0, 1, 2})
	L, U, rowPerm, colPerm, err := factorMarkowitz(ab, 0.1)
	if err != nil {
		t.Fatalf("factorMarkowitz: %v", err)
	}
	if rowPerm[0] != 0 || colPerm[0] != 0 {
		t.Errorf("first pivot = (row %d, col %d), want (0,0) from the singleton column", rowPerm[0], colPerm[0])
	}
	_ = L
	_ = U
}

func TestDotAndAddScaledAvailable(t *testing.T) {
	// Smoke-checks that the floats helpers used throughout this package
	// behave as simplex/price and simplex/ratio will also assume.
	a := []float64{1, 2, 3}
	b := []float64{4, 5, 6}
	if got, want := floats.Dot(a, b), 32.0; got != want {
		t.Errorf("Dot = %v, want %v", got, want)
	}
	dst := append([]float64(nil), a...)
	floats.AddScaled(dst, 2, b)
	if want := []float64{9, 12, 15}; !approxEqual(dst, want, 1e-12) {
		t.Errorf("AddScaled = %v, want %v", dst, want)
	}
}
