// Package scale implements the matrix scaler of spec.md §4.H: computes row
// and column multipliers r, c such that r·A·c is better conditioned for the
// simplex driver, then applies or undoes that scaling on a Model in place.
//
// The teacher never scales its tableau, so there is no direct ancestor to
// generalize here; the technique is built from textbook iterative
// row/column scaling (geometric mean and Curtis-Reid's alternating
// log-mean passes), driven over the same sparse.Matrix column/row iteration
// primitive (Column, RowView) the rest of this module already uses, with
// gonum.org/v1/gonum/floats supplying the norm/mean arithmetic spec.md §4.H
// calls out by name.
package scale

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/raller09/lp-solve-sub003/model"
)

// Method selects the scaling technique (spec.md §4.H).
type Method int

const (
	None Method = iota
	Extreme
	Range
	Mean
	Geometric
	CurtisReid
)

// Options configures Compute. Geometric and CurtisReid iterate until the
// largest per-pass change drops below Tol or ScaleLimit passes have run;
// Extreme, Range and Mean make one row pass followed by one column pass.
type Options struct {
	Method     Method
	ScaleLimit int
	Tol        float64

	PowerOfTwo  bool // round every factor to the nearest power of 2
	Equilibrate bool // scale again so the largest scaled magnitude in each row is at most 1
	RowsOnly    bool
	ColsOnly    bool
}

// DefaultOptions requests geometric scaling, spec.md §4.H's "default
// quality" choice.
func DefaultOptions() Options {
	return Options{Method: Geometric, ScaleLimit: 20, Tol: 1e-2}
}

func (o Options) limit() int {
	if o.ScaleLimit <= 0 {
		return 20
	}
	return o.ScaleLimit
}

func (o Options) tol() float64 {
	if o.Tol <= 0 {
		return 1e-2
	}
	return o.Tol
}

// Compute returns the row and column scale factors for m's matrix; every
// entry is 1 for Options{Method: None}.
func Compute(m *model.Model, opts Options) (rowScale, colScale []float64) {
	nr, nc := m.NRows(), m.NCols()
	rowScale = ones(nr)
	colScale = ones(nc)

	switch opts.Method {
	case None:
	case CurtisReid:
		rowScale, colScale = curtisReid(m, opts)
	default:
		rowScale, colScale = onePassOrGeometric(m, opts)
	}

	if opts.RowsOnly {
		colScale = ones(nc)
	}
	if opts.ColsOnly {
		rowScale = ones(nr)
	}
	if opts.PowerOfTwo {
		roundPow2(rowScale)
		roundPow2(colScale)
	}
	if opts.Equilibrate {
		equilibrate(m, rowScale, colScale)
	}
	return rowScale, colScale
}

func ones(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = 1
	}
	return s
}

// rowFactor computes the single-row (or, applied to a column's transposed
// view, single-column) scale factor for Extreme/Range/Mean/Geometric:
// Extreme, Range and Geometric reduce to a function of each row's min and
// max nonzero magnitude, differing only in how they combine the two, and
// Mean uses the average nonzero magnitude (spec.md §4.H's four named
// one/iterative-pass types).
func rowFactor(vals []float64, method Method) float64 {
	if len(vals) == 0 {
		return 1
	}
	absVals := make([]float64, len(vals))
	for i, v := range vals {
		absVals[i] = math.Abs(v)
	}
	max := floats.Max(absVals)
	min := floats.Min(absVals)
	if max == 0 {
		return 1
	}
	switch method {
	case Extreme, Geometric:
		if min == 0 {
			min = max
		}
		return 1 / math.Sqrt(max*min)
	case Range:
		return 2 / (max + min)
	case Mean:
		return 1 / (floats.Sum(absVals) / float64(len(absVals)))
	default:
		return 1
	}
}

// onePassOrGeometric runs one row pass then one column pass for
// Extreme/Range/Mean, or alternates the two (the geometric-mean factor) up
// to opts.limit() passes, converging once the largest relative factor
// change drops below opts.tol(), for Geometric.
func onePassOrGeometric(m *model.Model, opts Options) (rowScale, colScale []float64) {
	nr, nc := m.NRows(), m.NCols()
	rowScale, colScale = ones(nr), ones(nc)
	passes := 1
	if opts.Method == Geometric {
		passes = opts.limit()
	}

	start, rowLen, colIdx, values := m.A.RowView()

	for p := 0; p < passes; p++ {
		maxDelta := 0.0
		for i := 0; i < nr; i++ {
			s, l := start[i], rowLen[i]
			if l == 0 {
				continue
			}
			vals := make([]float64, l)
			for k := 0; k < l; k++ {
				vals[k] = values[s+k] * colScale[colIdx[s+k]]
			}
			f := rowFactor(vals, opts.Method)
			maxDelta = math.Max(maxDelta, math.Abs(f-1))
			rowScale[i] *= f
		}
		for j := 0; j < nc; j++ {
			idx, val := m.A.Column(j)
			if len(idx) == 0 {
				continue
			}
			vals := make([]float64, len(idx))
			for k, r := range idx {
				vals[k] = val[k] * rowScale[r]
			}
			f := rowFactor(vals, opts.Method)
			maxDelta = math.Max(maxDelta, math.Abs(f-1))
			colScale[j] *= f
		}
		if opts.Method != Geometric || maxDelta < opts.tol() {
			break
		}
	}
	return rowScale, colScale
}

// curtisReid implements the iterative, alternating row/column log-mean
// passes of spec.md §4.H: each pass sets every row's log-factor to minus
// the mean log-magnitude of its (already column-scaled) entries, then every
// column's log-factor to minus the mean log-magnitude of its (already
// row-scaled) entries, the fixed-point heuristic for the least-squares
// log-scaling problem Curtis-Reid solves exactly with conjugate gradients.
func curtisReid(m *model.Model, opts Options) (rowScale, colScale []float64) {
	nr, nc := m.NRows(), m.NCols()
	logR := make([]float64, nr)
	logC := make([]float64, nc)

	start, rowLen, colIdx, values := m.A.RowView()

	for p := 0; p < opts.limit(); p++ {
		maxDelta := 0.0
		for i := 0; i < nr; i++ {
			s, l := start[i], rowLen[i]
			if l == 0 {
				continue
			}
			logs := make([]float64, 0, l)
			for k := s; k < s+l; k++ {
				v := values[k]
				if v == 0 {
					continue
				}
				logs = append(logs, math.Log(math.Abs(v))+logC[colIdx[k]])
			}
			if len(logs) == 0 {
				continue
			}
			next := -floats.Sum(logs) / float64(len(logs))
			maxDelta = math.Max(maxDelta, math.Abs(next-logR[i]))
			logR[i] = next
		}
		for j := 0; j < nc; j++ {
			idx, val := m.A.Column(j)
			logs := make([]float64, 0, len(idx))
			for k, r := range idx {
				if val[k] == 0 {
					continue
				}
				logs = append(logs, math.Log(math.Abs(val[k]))+logR[r])
			}
			if len(logs) == 0 {
				continue
			}
			next := -floats.Sum(logs) / float64(len(logs))
			maxDelta = math.Max(maxDelta, math.Abs(next-logC[j]))
			logC[j] = next
		}
		if maxDelta < opts.tol() {
			break
		}
	}

	rowScale = make([]float64, nr)
	for i, v := range logR {
		rowScale[i] = math.Exp(v)
	}
	colScale = make([]float64, nc)
	for j, v := range logC {
		colScale[j] = math.Exp(v)
	}
	return rowScale, colScale
}

func roundPow2(s []float64) {
	for i, v := range s {
		if v <= 0 {
			continue
		}
		s[i] = math.Exp2(math.Round(math.Log2(v)))
	}
}

// equilibrate does a final pass ensuring no scaled row's largest magnitude
// exceeds 1 (spec.md §4.H's "equilibrate" mode bit), dividing that row's
// scale factor down if it does.
func equilibrate(m *model.Model, rowScale, colScale []float64) {
	start, rowLen, colIdx, values := m.A.RowView()
	for i := range rowScale {
		s, l := start[i], rowLen[i]
		if l == 0 {
			continue
		}
		maxAbs := 0.0
		for k := s; k < s+l; k++ {
			v := math.Abs(values[k] * rowScale[i] * colScale[colIdx[k]])
			if v > maxAbs {
				maxAbs = v
			}
		}
		if maxAbs > 1 {
			rowScale[i] /= maxAbs
		}
	}
}

// Apply scales m's matrix, row sides, variable bounds and objective
// coefficients in place: A' = R·A·C, x' = C^-1·x, c' = c·C, row sides
// multiply by R. Var/Row.Scale accumulate the factor actually applied so
// Unscale can invert a chain of Applies.
func Apply(m *model.Model, rowScale, colScale []float64) {
	for i := 0; i < m.NRows(); i++ {
		f := rowScale[i]
		if f == 1 {
			continue
		}
		m.A.ScaleRow(i, f)
		r := &m.Rows[i]
		r.Lhs = scaleInf(r.Lhs, f)
		r.Rhs = scaleInf(r.Rhs, f)
		r.Scale *= f
	}
	for j := 0; j < m.NCols(); j++ {
		f := colScale[j]
		if f == 1 {
			continue
		}
		m.A.ScaleColumn(j, f)
		v := &m.Vars[j]
		v.Lower = scaleInf(v.Lower, 1/f)
		v.Upper = scaleInf(v.Upper, 1/f)
		v.Obj *= f
		v.Scale *= f
	}
}

// Unscale inverts Apply given the same factors, restoring m to its
// pre-scaling state.
func Unscale(m *model.Model, rowScale, colScale []float64) {
	invR := make([]float64, len(rowScale))
	for i, f := range rowScale {
		invR[i] = 1 / f
	}
	invC := make([]float64, len(colScale))
	for j, f := range colScale {
		invC[j] = 1 / f
	}
	Apply(m, invR, invC)
}

// scaleInf multiplies v by f unless v is infinite, preserving the sign of
// an infinite bound through scaling by a positive factor.
func scaleInf(v, f float64) float64 {
	if math.IsInf(v, 0) {
		return v
	}
	return v * f
}
