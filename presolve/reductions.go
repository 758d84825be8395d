package presolve

import (
	"math"

	"github.com/raller09/lp-solve-sub003/model"
)

// Each *Pass function scans w.m for one applicable site, applies it, and
// reports whether it found one; Presolve's outer loop calls it repeatedly
// until a pass reports nothing changed, the standard way a fixed-point
// pipeline composes independent reductions.

// fixedColumnPass eliminates the first variable whose bounds have
// collapsed to a point, folding its value into every row it touches and
// the objective, then deleting the column (spec.md §4.G's "fixed ...
// column[s]" removal).
func fixedColumnPass(w *work) (bool, error) {
	m := w.m
	for j := 0; j < m.NCols(); j++ {
		v := m.Vars[j]
		if !v.IsFixed() {
			continue
		}
		value := v.Lower
		idx, val := m.A.Column(j)
		inRows := make([]rowCoef, len(idx))
		for k, r := range idx {
			inRows[k] = rowCoef{row: r, coef: val[k]}
			row := m.Rows[r]
			if err := m.SetRowSides(r, row.Lhs-value*val[k], row.Rhs-value*val[k]); err != nil {
				return false, err
			}
		}
		w.tape.push(fixedColumn{col: j, value: value, objCoef: v.Obj, inRows: inRows})
		if err := m.DeleteColumn(j); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// emptyRowPass removes the first row with no nonzero coefficients,
// proving infeasibility if zero does not satisfy its sides.
func emptyRowPass(w *work) (bool, error) {
	m := w.m
	_, rowLen, _, _ := m.A.RowView()
	for i := 0; i < m.NRows(); i++ {
		if rowLen[i] != 0 {
			continue
		}
		row := m.Rows[i]
		if 0 < row.Lhs-1e-9 || 0 > row.Rhs+1e-9 {
			return false, ErrInfeasible
		}
		w.tape.push(emptyRow{row: i})
		if err := m.DeleteConstraint(i); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// rowSingletonPass removes the first row with exactly one nonzero
// coefficient after folding the bound it implies into that variable's own
// bounds (spec.md §4.G's "rows-singleton elimination").
func rowSingletonPass(w *work) (bool, error) {
	m := w.m
	start, rowLen, colIdx, values := m.A.RowView()
	for i := 0; i < m.NRows(); i++ {
		if rowLen[i] != 1 {
			continue
		}
		k := start[i]
		c, coef := colIdx[k], values[k]
		row := m.Rows[i]
		var lo, hi float64
		if coef > 0 {
			lo, hi = row.Lhs/coef, row.Rhs/coef
		} else {
			lo, hi = row.Rhs/coef, row.Lhs/coef
		}
		if err := m.SetBoundsTighter(c, lo, hi); err != nil {
			return false, ErrInfeasible
		}
		w.tape.push(rowSingleton{row: i, col: c, coef: coef})
		if err := m.DeleteConstraint(i); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// columnSingletonPass eliminates the first variable that appears in
// exactly one row when that row is an equality, substituting it out of
// the objective and deleting both the column and its now-redundant
// defining row (spec.md §4.G's "columns-singleton elimination" combined
// with "aggregation").
func columnSingletonPass(w *work) (bool, error) {
	m := w.m
	for j := 0; j < m.NCols(); j++ {
		idx, val := m.A.Column(j)
		if len(idx) != 1 {
			continue
		}
		r, coef := idx[0], val[0]
		row := m.Rows[r]
		if row.Type() != model.RowEQ {
			continue
		}
		rhs := row.Rhs
		start, rowLen, colIdx, rowValues := m.A.RowView()
		s, l := start[r], rowLen[r]
		others := make([]otherTerm, 0, l-1)
		for k := s; k < s+l; k++ {
			if colIdx[k] == j {
				continue
			}
			others = append(others, otherTerm{col: colIdx[k], coef: rowValues[k]})
		}
		objCoef := m.Vars[j].Obj
		objConst := objCoef * rhs / coef
		for _, o := range others {
			if err := m.SetObj(o.col, m.Vars[o.col].Obj-objCoef*o.coef/coef); err != nil {
				return false, err
			}
		}
		w.tape.push(columnSingleton{row: r, col: j, coef: coef, rhs: rhs, others: others, objConst: objConst})
		// The row only ever existed to pin x[j]; once x[j] is gone via
		// substitution, the row carries no remaining information.
		if err := m.DeleteColumn(j); err != nil {
			return false, err
		}
		if err := m.DeleteConstraint(r); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// boundStrengthenPass tightens every variable's bounds against the
// implied min/max row activity of the rest of each row it appears in
// (spec.md §4.G's "bound strengthening"). It never removes a row or
// column, so it needs no Tape record.
func boundStrengthenPass(w *work) (bool, error) {
	m := w.m
	const tol = 1e-9
	start, rowLen, colIdx, values := m.A.RowView()
	changed := false
	for i := 0; i < m.NRows(); i++ {
		s, l := start[i], rowLen[i]
		if l == 0 {
			continue
		}
		row := m.Rows[i]
		for a := s; a < s+l; a++ {
			j, coefJ := colIdx[a], values[a]
			if coefJ == 0 {
				continue
			}
			var minOthers, maxOthers float64
			for b := s; b < s+l; b++ {
				if b == a {
					continue
				}
				c, coef := colIdx[b], values[b]
				v := m.Vars[c]
				if coef > 0 {
					minOthers += coef * v.Lower
					maxOthers += coef * v.Upper
				} else {
					minOthers += coef * v.Upper
					maxOthers += coef * v.Lower
				}
			}
			lo, hi := math.Inf(-1), math.Inf(1)
			if coefJ > 0 {
				if !math.IsInf(row.Rhs, 1) {
					hi = (row.Rhs - minOthers) / coefJ
				}
				if !math.IsInf(row.Lhs, -1) {
					lo = (row.Lhs - maxOthers) / coefJ
				}
			} else {
				if !math.IsInf(row.Rhs, 1) {
					lo = (row.Rhs - minOthers) / coefJ
				}
				if !math.IsInf(row.Lhs, -1) {
					hi = (row.Lhs - maxOthers) / coefJ
				}
			}
			v := m.Vars[j]
			if lo > v.Lower+tol || hi < v.Upper-tol {
				if err := m.SetBoundsTighter(j, lo, hi); err != nil {
					return false, ErrInfeasible
				}
				changed = true
			}
		}
	}
	return changed, nil
}

// gcdTightenPass rounds the finite side of an all-integer row (every
// coefficient and variable integral) to the nearest multiple of their GCD,
// proving infeasibility if an equality's right-hand side cannot be met
// (spec.md §4.G's "GCD reduction"). It never removes a row or column.
func gcdTightenPass(w *work) (bool, error) {
	m := w.m
	start, rowLen, colIdx, values := m.A.RowView()
	for i := 0; i < m.NRows(); i++ {
		s, l := start[i], rowLen[i]
		if l == 0 {
			continue
		}
		row := m.Rows[i]
		t := row.Type()
		if t != model.RowLE && t != model.RowGE && t != model.RowEQ {
			continue
		}
		g := 0
		allInt := true
		for k := s; k < s+l; k++ {
			c := colIdx[k]
			if m.Vars[c].Kind != model.Integer && m.Vars[c].Kind != model.Binary {
				allInt = false
				break
			}
			if !isInteger(values[k]) {
				allInt = false
				break
			}
			g = gcdInt(g, int(math.Round(math.Abs(values[k]))))
		}
		if !allInt || g <= 1 {
			continue
		}
		gf := float64(g)
		switch t {
		case model.RowLE:
			newRhs := math.Floor(row.Rhs/gf+1e-9) * gf
			if newRhs < row.Rhs-1e-9 {
				if err := m.SetRowSides(i, row.Lhs, newRhs); err != nil {
					return false, err
				}
				return true, nil
			}
		case model.RowGE:
			newLhs := math.Ceil(row.Lhs/gf-1e-9) * gf
			if newLhs > row.Lhs+1e-9 {
				if err := m.SetRowSides(i, newLhs, row.Rhs); err != nil {
					return false, err
				}
				return true, nil
			}
		case model.RowEQ:
			q := row.Rhs / gf
			if math.Abs(q-math.Round(q)) > 1e-7 {
				return false, ErrInfeasible
			}
		}
	}
	return false, nil
}

func gcdInt(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
