package model

import "github.com/raller09/lp-solve-sub003/status"

// Solution is the result of one solve, in the index space of whatever
// Model produced it (the reduced model during a presolved solve; the
// original model once presolve.Postsolve has expanded it back, spec.md
// §6's solution-retrieval group).
type Solution struct {
	Status status.Code

	Objective    float64
	X            []float64 // one entry per column
	RowActivity  []float64 // one entry per row, Sum_j A[i][j]*X[j]
	DualValues   []float64 // one entry per row, nil unless computed
	ReducedCosts []float64 // one entry per column, nil unless computed

	Iterations int
}

// Clone returns a deep copy, so postsolve expansion never mutates a
// caller's retained Solution in place.
func (s *Solution) Clone() *Solution {
	if s == nil {
		return nil
	}
	c := *s
	c.X = append([]float64(nil), s.X...)
	c.RowActivity = append([]float64(nil), s.RowActivity...)
	if s.DualValues != nil {
		c.DualValues = append([]float64(nil), s.DualValues...)
	}
	if s.ReducedCosts != nil {
		c.ReducedCosts = append([]float64(nil), s.ReducedCosts...)
	}
	return &c
}
