package presolve

import (
	"math"
	"testing"

	"github.com/raller09/lp-solve-sub003/model"
)

func approxEqual(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

// TestPresolveFixesAndEliminatesSingletonRow fixes x at a point, which
// shifts the one row it shares with y; that row then becomes a row
// singleton on y and is eliminated too. Postsolve must recover both the
// original column count and the original row's activity.
func TestPresolveFixesAndEliminatesSingletonRow(t *testing.T) {
	m := model.New(0, 0)
	x, _ := m.AddColumn("x", 2, nil, nil)
	y, _ := m.AddColumn("y", 3, nil, nil)
	m.AddConstraint("r0", []int{x, y}, []float64{1, 1}, model.RowLE, 10)
	if err := m.SetBounds(x, 2, 2); err != nil {
		t.Fatalf("SetBounds: %v", err)
	}

	reduced, tape, err := Presolve(m, DefaultOptions())
	if err != nil {
		t.Fatalf("Presolve: %v", err)
	}
	if reduced.NCols() != 1 || reduced.NRows() != 0 {
		t.Fatalf("reduced dims = (%d rows, %d cols), want (0, 1)", reduced.NRows(), reduced.NCols())
	}
	if reduced.Vars[0].Upper > 8+1e-9 {
		t.Errorf("reduced y upper bound = %v, want <= 8", reduced.Vars[0].Upper)
	}

	sol := &model.Solution{X: []float64{8}, RowActivity: nil, Objective: 24}
	full := Postsolve(tape, sol)

	if len(full.X) != 2 || !approxEqual(full.X[x], 2) || !approxEqual(full.X[y], 8) {
		t.Errorf("full.X = %v, want (2,8)", full.X)
	}
	if len(full.RowActivity) != 1 || !approxEqual(full.RowActivity[0], 10) {
		t.Errorf("full.RowActivity = %v, want [10]", full.RowActivity)
	}
	if !approxEqual(full.Objective, 28) {
		t.Errorf("full.Objective = %v, want 28", full.Objective)
	}
}

// TestPresolveEmptyRowDetectsInfeasible builds a row with no surviving
// coefficients whose side cannot contain zero.
func TestPresolveEmptyRowDetectsInfeasible(t *testing.T) {
	m := model.New(0, 0)
	m.AddConstraint("r0", nil, nil, model.RowGE, 1)

	_, _, err := Presolve(m, DefaultOptions())
	if err != ErrInfeasible {
		t.Errorf("Presolve error = %v, want ErrInfeasible", err)
	}
}

// TestPresolveColumnSingletonAggregatesEquality eliminates z from the
// equality z - x - y = 0 by substitution, folding its objective
// coefficient into x and y, then recovers z's value in Postsolve.
func TestPresolveColumnSingletonAggregatesEquality(t *testing.T) {
	m := model.New(0, 0)
	x, _ := m.AddColumn("x", 1, nil, nil)
	y, _ := m.AddColumn("y", 1, nil, nil)
	z, _ := m.AddColumn("z", 5, nil, nil)
	m.AddConstraint("def", []int{z, x, y}, []float64{1, -1, -1}, model.RowEQ, 0)
	// Without a second row touching x and y, they would also look like
	// column singletons in "def"; cap gives them degree 2 so z is the
	// only variable the reduction can legitimately eliminate.
	m.AddConstraint("cap", []int{x, y}, []float64{1, 1}, model.RowLE, 100)

	reduced, tape, err := Presolve(m, DefaultOptions())
	if err != nil {
		t.Fatalf("Presolve: %v", err)
	}
	if reduced.NCols() != 2 || reduced.NRows() != 1 {
		t.Fatalf("reduced dims = (%d rows, %d cols), want (1, 2)", reduced.NRows(), reduced.NCols())
	}
	for j, want := range []float64{6, 6} {
		if !approxEqual(reduced.Vars[j].Obj, want) {
			t.Errorf("reduced.Vars[%d].Obj = %v, want %v", j, reduced.Vars[j].Obj, want)
		}
	}

	sol := &model.Solution{X: []float64{3, 4}, RowActivity: []float64{7}, Objective: 42}
	full := Postsolve(tape, sol)

	if len(full.X) != 3 || !approxEqual(full.X[x], 3) || !approxEqual(full.X[y], 4) || !approxEqual(full.X[z], 7) {
		t.Errorf("full.X = %v, want (3,4,7)", full.X)
	}
	if len(full.RowActivity) != 2 || !approxEqual(full.RowActivity[0], 0) || !approxEqual(full.RowActivity[1], 7) {
		t.Errorf("full.RowActivity = %v, want [0,7]", full.RowActivity)
	}
	if !approxEqual(full.Objective, 42) {
		t.Errorf("full.Objective = %v, want 42 (x+y+5z = 3+4+35)", full.Objective)
	}
}

// TestPresolveBoundStrengthenTightensFromRow checks that a <= row with a
// known partner bound tightens the other variable's upper bound without
// removing any row or column.
func TestPresolveBoundStrengthenTightensFromRow(t *testing.T) {
	m := model.New(0, 0)
	x, _ := m.AddColumn("x", 1, nil, nil)
	y, _ := m.AddColumn("y", 1, nil, nil)
	m.AddConstraint("r0", []int{x, y}, []float64{1, 1}, model.RowLE, 10)
	if err := m.SetBounds(x, 3, 3); err != nil {
		t.Fatalf("SetBounds: %v", err)
	}
	_ = y

	opts := Options{MaxLoops: 20, BoundStrengthening: true}
	reduced, _, err := Presolve(m, opts)
	if err != nil {
		t.Fatalf("Presolve: %v", err)
	}
	// Fixed-column elimination is disabled here, so x survives with its
	// original fixed bound; bound strengthening must tighten y's upper
	// bound to 10 - 3 = 7 using x's bounds as the "other" term.
	if reduced.Vars[y].Upper > 7+1e-9 {
		t.Errorf("y upper bound = %v, want <= 7", reduced.Vars[y].Upper)
	}
}

// TestPresolveGCDTightenRoundsIntegerRow checks that an all-integer <=
// row's right-hand side rounds down to the nearest multiple of the
// coefficients' GCD.
func TestPresolveGCDTightenRoundsIntegerRow(t *testing.T) {
	m := model.New(0, 0)
	x, _ := m.AddColumn("x", 1, nil, nil)
	m.Vars[x].Kind = model.Integer
	m.AddConstraint("r0", []int{x}, []float64{2}, model.RowLE, 7)

	opts := Options{MaxLoops: 20, GCDTighten: true}
	reduced, _, err := Presolve(m, opts)
	if err != nil {
		t.Fatalf("Presolve: %v", err)
	}
	if !approxEqual(reduced.Rows[0].Rhs, 6) {
		t.Errorf("Rhs = %v, want 6 (floor(7/2)*2)", reduced.Rows[0].Rhs)
	}
}
