package presolve

import "github.com/raller09/lp-solve-sub003/model"

// Tape is the stack of undo records a Presolve call accumulates, one per
// eliminated row or column, in the order the eliminations happened.
type Tape struct {
	records []record
}

// Len reports how many eliminations the tape holds, mostly for tests.
func (t *Tape) Len() int { return len(t.records) }

func (t *Tape) push(r record) { t.records = append(t.records, r) }

// record is one reduction's inverse: given a Solution sized for the model
// state immediately after the reduction's elimination, expand returns a
// Solution sized for the model state immediately before (i.e. one row or
// column larger).
type record interface {
	expand(sol *model.Solution) *model.Solution
}

// rowCoef pairs a row index with the eliminated column's coefficient in
// that row, recorded in the pre-elimination row index space.
type rowCoef struct {
	row  int
	coef float64
}

// fixedColumn undoes eliminating a variable whose bounds had collapsed to
// a point: its value folds into every row it touched (SetRowSides shifted
// each row's sides by -value*coef at elimination time) and into the
// objective constant.
type fixedColumn struct {
	col      int
	value    float64
	objCoef  float64
	inRows   []rowCoef
}

func (r fixedColumn) expand(sol *model.Solution) *model.Solution {
	sol.X = insert(sol.X, r.col, r.value)
	if sol.ReducedCosts != nil {
		sol.ReducedCosts = insert(sol.ReducedCosts, r.col, 0)
	}
	for _, rc := range r.inRows {
		sol.RowActivity[rc.row] += r.value * rc.coef
	}
	sol.Objective += r.objCoef * r.value
	return sol
}

// emptyRow undoes deleting a row with no nonzero coefficients: its
// activity is trivially zero.
type emptyRow struct {
	row int
}

func (r emptyRow) expand(sol *model.Solution) *model.Solution {
	sol.RowActivity = insert(sol.RowActivity, r.row, 0)
	return sol
}

// rowSingleton undoes deleting a row with exactly one nonzero coefficient
// after the bound it implied was folded into the variable's own bounds;
// the column survives, so its activity is just a readback.
type rowSingleton struct {
	row, col int
	coef     float64
}

func (r rowSingleton) expand(sol *model.Solution) *model.Solution {
	sol.RowActivity = insert(sol.RowActivity, r.row, r.coef*sol.X[r.col])
	return sol
}

// otherTerm is one surviving column's coefficient in a row eliminated by
// columnSingleton, recorded in the pre-elimination column index space.
type otherTerm struct {
	col  int
	coef float64
}

// columnSingleton undoes eliminating a variable that appeared in exactly
// one row, an equality, by substitution: x[col] = (rhs - sum other
// terms)/coef. The objective's variable part was folded into the
// surviving columns at elimination time; objConst is the constant term
// that substitution leaves behind.
type columnSingleton struct {
	row, col int
	coef     float64
	rhs      float64
	others   []otherTerm
	objConst float64
}

func (r columnSingleton) expand(sol *model.Solution) *model.Solution {
	v := r.rhs
	for _, o := range r.others {
		v -= o.coef * sol.X[o.col]
	}
	v /= r.coef
	sol.X = insert(sol.X, r.col, v)
	if sol.ReducedCosts != nil {
		sol.ReducedCosts = insert(sol.ReducedCosts, r.col, 0)
	}
	sol.RowActivity = insert(sol.RowActivity, r.row, r.rhs)
	sol.Objective += r.objConst
	return sol
}
