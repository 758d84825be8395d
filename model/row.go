package model

import "math"

// RowType is the constraint-sense tag derived from (Lhs, Rhs), spec.md §3.
type RowType int

const (
	RowFree RowType = iota // FR: both sides infinite
	RowLE                  // <=: Lhs = -Inf
	RowGE                  // >=: Rhs = +Inf
	RowEQ                  // =: Lhs == Rhs
	RowRange                // both sides finite and distinct
)

// Row is one constraint of the model (spec.md §3). Lhs/Rhs bound A·x;
// either may be infinite to denote a one-sided constraint, and Lhs == Rhs
// denotes an equality.
type Row struct {
	Name string
	Lhs  float64
	Rhs  float64

	Scale  float64
	Status BasisStatus
}

// NewRow returns a <= row with the given right-hand side, the façade's
// default for addConstraint without an explicit type.
func NewRow(name string, rhs float64) Row {
	return Row{Name: name, Lhs: math.Inf(-1), Rhs: rhs, Scale: 1, Status: Basic}
}

// Type derives the row's constraint-sense tag from its current bounds.
func (r Row) Type() RowType {
	switch {
	case math.IsInf(r.Lhs, -1) && math.IsInf(r.Rhs, 1):
		return RowFree
	case r.Lhs == r.Rhs:
		return RowEQ
	case math.IsInf(r.Lhs, -1):
		return RowLE
	case math.IsInf(r.Rhs, 1):
		return RowGE
	default:
		return RowRange
	}
}

// SetType rewrites Lhs/Rhs to realize t against the given rhs, mirroring
// spec.md §6's setConstrType. RowRange leaves both sides unchanged.
func (r *Row) SetType(t RowType, rhs float64) {
	switch t {
	case RowFree:
		r.Lhs, r.Rhs = math.Inf(-1), math.Inf(1)
	case RowLE:
		r.Lhs, r.Rhs = math.Inf(-1), rhs
	case RowGE:
		r.Lhs, r.Rhs = rhs, math.Inf(1)
	case RowEQ:
		r.Lhs, r.Rhs = rhs, rhs
	}
}
