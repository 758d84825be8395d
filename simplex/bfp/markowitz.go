package bfp

import (
	"math"

	"github.com/raller09/lp-solve-sub003/sparse"
)

// factorMarkowitz computes a sparse LU factorization of the square matrix ab
// (typically the extracted basis matrix, m x m) using Markowitz-ordered
// pivoting: singleton rows/columns are eliminated first (they contribute no
// fill-in and have a unique pivot), and remaining stages choose the pivot
// candidate (i,j) minimizing (rowNNZ-1)*(colNNZ-1) among candidates passing
// the threshold stability test |a(i,j)| >= tau*max_k|a(k,j)| (spec.md
// §4.C), ties broken by largest magnitude. L is returned unit lower
// triangular (diagonal implicit) and U upper triangular (diagonal stored),
// both in stage coordinates: rowPerm[k]/colPerm[k] give the original
// row/column that stage k's pivot occupied.
func factorMarkowitz(ab *sparse.Matrix, tau float64) (L, U *sparse.Matrix, rowPerm, colPerm []int, err error) {
	n, nc := ab.Dims()
	if n != nc {
		panic("bfp: factorMarkowitz: matrix must be square")
	}

	rowEntries := make([]map[int]float64, n) // row -> col -> val
	colEntries := make([]map[int]float64, n) // col -> row -> val
	for r := 0; r < n; r++ {
		rowEntries[r] = make(map[int]float64)
	}
	for c := 0; c < n; c++ {
		colEntries[c] = make(map[int]float64)
		idx, val := ab.Column(c)
		for k, r := range idx {
			if val[k] == 0 {
				continue
			}
			rowEntries[r][c] = val[k]
			colEntries[c][r] = val[k]
		}
	}

	rowAvail := make([]bool, n)
	colAvail := make([]bool, n)
	for i := range rowAvail {
		rowAvail[i] = true
		colAvail[i] = true
	}

	rowStage := make([]int, n)
	colStage := make([]int, n)

	type lEntry struct {
		row, stage int
		val        float64
	}
	type uEntry struct {
		stage, col int
		val        float64
	}
	var lRaw []lEntry
	var uRaw []uEntry

	setEntry := func(r, c int, v float64) {
		if math.Abs(v) <= sparse.ElemZeroTol {
			delete(rowEntries[r], c)
			delete(colEntries[c], r)
			return
		}
		rowEntries[r][c] = v
		colEntries[c][r] = v
	}

	colMax := func(c int) float64 {
		m := 0.0
		for _, v := range colEntries[c] {
			if a := math.Abs(v); a > m {
				m = a
			}
		}
		return m
	}

	for stage := 0; stage < n; stage++ {
		pivRow, pivCol := -1, -1

		// Singleton column: exactly one available row entry.
		for c := 0; c < n; c++ {
			if !colAvail[c] {
				continue
			}
			if len(colEntries[c]) == 1 {
				for r := range colEntries[c] {
					pivRow, pivCol = r, c
				}
				break
			}
		}
		// Singleton row: exactly one available column entry.
		if pivRow == -1 {
			for r := 0; r < n; r++ {
				if !rowAvail[r] {
					continue
				}
				if len(rowEntries[r]) == 1 {
					for c := range rowEntries[r] {
						pivRow, pivCol = r, c
					}
					break
				}
			}
		}
		// Markowitz search with threshold stability test.
		if pivRow == -1 {
			bestCount := math.MaxInt64
			bestMag := -1.0
			for c := 0; c < n; c++ {
				if !colAvail[c] {
					continue
				}
				cmax := colMax(c)
				if cmax == 0 {
					continue
				}
				for r, v := range colEntries[c] {
					if !rowAvail[r] {
						continue
					}
					if math.Abs(v) < tau*cmax {
						continue
					}
					count := (len(rowEntries[r]) - 1) * (len(colEntries[c]) - 1)
					if count < bestCount || (count == bestCount && math.Abs(v) > bestMag) {
						bestCount = count
						bestMag = math.Abs(v)
						pivRow, pivCol = r, c
					}
				}
			}
		}
		if pivRow == -1 {
			return nil, nil, nil, nil, ErrSingular
		}

		pivVal := colEntries[pivCol][pivRow]
		rowStage[pivRow] = stage
		colStage[pivCol] = stage

		// Record U's row (the pivot row's current entries, before elimination).
		for c, v := range rowEntries[pivRow] {
			uRaw = append(uRaw, uEntry{stage: stage, col: c, val: v})
		}

		// Eliminate pivCol from every other available row.
		targets := make([]int, 0, len(colEntries[pivCol]))
		for r := range colEntries[pivCol] {
			if r != pivRow {
				targets = append(targets, r)
			}
		}
		pivRowCopy := make(map[int]float64, len(rowEntries[pivRow]))
		for c, v := range rowEntries[pivRow] {
			pivRowCopy[c] = v
		}
		for _, r2 := range targets {
			mult := colEntries[pivCol][r2] / pivVal
			lRaw = append(lRaw, lEntry{row: r2, stage: stage, val: mult})
			for c, v := range pivRowCopy {
				if c == pivCol {
					continue
				}
				cur := rowEntries[r2][c]
				setEntry(r2, c, cur-mult*v)
			}
			setEntry(r2, pivCol, 0)
		}

		rowAvail[pivRow] = false
		colAvail[pivCol] = false
		delete(colEntries[pivCol], pivRow)
		for c := range rowEntries[pivRow] {
			delete(colEntries[c], pivRow)
		}
		rowEntries[pivRow] = nil
	}

	rowPerm = make([]int, n)
	colPerm = make([]int, n)
	for r, s := range rowStage {
		rowPerm[s] = r
	}
	for c, s := range colStage {
		colPerm[s] = c
	}

	L = sparse.NewMatrix(n, n)
	for _, e := range lRaw {
		L.Set(rowStage[e.row], e.stage, e.val)
	}
	U = sparse.NewMatrix(n, n)
	for _, e := range uRaw {
		U.Set(e.stage, colStage[e.col], e.val)
	}
	return L, U, rowPerm, colPerm, nil
}

// forwardUnitLowerColumn solves L*x=x in place via a column sweep: L is unit
// lower triangular with implicit diagonal, so no division is needed, and
// column k's off-diagonal entries (rows > k) can be eliminated from the
// remaining rhs as soon as x[k] is final (spec.md §4.C's FTRAN base solve).
func forwardUnitLowerColumn(L *sparse.Matrix, x []float64) {
	n, _ := L.Dims()
	for k := 0; k < n; k++ {
		if x[k] == 0 {
			continue
		}
		idx, val := L.Column(k)
		sparse.TriangularSolveStep(x, idx, val, x[k])
	}
}

// backwardUpperColumn solves U*x=x in place via a column sweep from the last
// column to the first, dividing by the stored diagonal.
func backwardUpperColumn(U *sparse.Matrix, x []float64) error {
	n, _ := U.Dims()
	for j := n - 1; j >= 0; j-- {
		idx, val := U.Column(j)
		diag := 0.0
		var offIdx []int
		var offVal []float64
		for k, r := range idx {
			if r == j {
				diag = val[k]
			} else {
				offIdx = append(offIdx, r)
				offVal = append(offVal, val[k])
			}
		}
		if diag == 0 {
			return ErrSingular
		}
		xj := x[j] / diag
		x[j] = xj
		sparse.TriangularSolveStep(x, offIdx, offVal, xj)
	}
	return nil
}

// forwardRowUpperT solves U^T*x=x in place via a row sweep over U in
// increasing row order, the BTRAN-side counterpart of backwardUpperColumn.
func forwardRowUpperT(U *sparse.Matrix, x []float64) error {
	n, _ := U.Dims()
	start, length, colIdx, values := U.RowView()
	for rho := 0; rho < n; rho++ {
		var diag float64
		var offIdx []int
		var offVal []float64
		for p := start[rho]; p < start[rho]+length[rho]; p++ {
			c := colIdx[p]
			if c == rho {
				diag = values[p]
			} else if c > rho {
				offIdx = append(offIdx, c)
				offVal = append(offVal, values[p])
			}
		}
		if diag == 0 {
			return ErrSingular
		}
		v := x[rho] / diag
		x[rho] = v
		sparse.TriangularSolveStep(x, offIdx, offVal, v)
	}
	return nil
}

// backwardRowLowerT solves L^T*x=x in place via a row sweep over L in
// decreasing row order; L's implicit unit diagonal needs no division.
func backwardRowLowerT(L *sparse.Matrix, x []float64) {
	n, _ := L.Dims()
	start, length, colIdx, values := L.RowView()
	for k := n - 1; k >= 0; k-- {
		var offIdx []int
		var offVal []float64
		for p := start[k]; p < start[k]+length[k]; p++ {
			c := colIdx[p]
			if c < k {
				offIdx = append(offIdx, c)
				offVal = append(offVal, values[p])
			}
		}
		sparse.TriangularSolveStep(x, offIdx, offVal, x[k])
	}
}

func extractSparse(A *sparse.Matrix, basis []int) *sparse.Matrix {
	m := len(basis)
	ab := sparse.NewMatrix(m, m)
	for j, col := range basis {
		idx, val := A.Column(col)
		for k, r := range idx {
			ab.Set(r, j, val[k])
		}
	}
	return ab
}
