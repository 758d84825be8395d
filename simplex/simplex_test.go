package simplex

import (
	"context"
	"math"
	"testing"

	"github.com/raller09/lp-solve-sub003/model"
	"github.com/raller09/lp-solve-sub003/status"
)

func approxEqual(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

// TestSolveClassicResourceProblem is the textbook maximize-3x+5y-subject-
// to-three-<=-constraints problem, feasible from the all-slack basis (no
// phase 1 needed), optimum at (x,y)=(2,6), objective 36.
func TestSolveClassicResourceProblem(t *testing.T) {
	m := model.New(0, 0)
	m.Sense = model.Maximize
	x, _ := m.AddColumn("x", 3, nil, nil)
	y, _ := m.AddColumn("y", 5, nil, nil)
	m.AddConstraint("r1", []int{x}, []float64{1}, model.RowLE, 4)
	m.AddConstraint("r2", []int{y}, []float64{2}, model.RowLE, 12)
	m.AddConstraint("r3", []int{x, y}, []float64{3, 2}, model.RowLE, 18)

	var s Solver
	code, err := s.Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if code != status.Optimal {
		t.Fatalf("status = %v, want Optimal", code)
	}
	xv := s.X()
	if !approxEqual(xv[x], 2) || !approxEqual(xv[y], 6) {
		t.Errorf("X = %v, want (2,6)", xv)
	}
	if !approxEqual(s.Objective(), 36) {
		t.Errorf("Objective = %v, want 36", s.Objective())
	}

	// r2 and r3 bind at the optimum (2y=12, 3x+2y=18); r1 is slack, so its
	// shadow price is zero. Textbook duals for this classic problem are
	// (0, 1.5, 1).
	duals := s.DualValues()
	want := []float64{0, 1.5, 1}
	for i, w := range want {
		if !approxEqual(duals[i], w) {
			t.Errorf("DualValues[%d] = %v, want %v", i, duals[i], w)
		}
	}
	// Both x and y are basic at the optimum, so their reduced costs are 0.
	rc := s.ReducedCosts()
	if !approxEqual(rc[x], 0) || !approxEqual(rc[y], 0) {
		t.Errorf("ReducedCosts = %v, want (0, 0)", rc)
	}
}

// TestSolveRequiresPhase1 needs a genuine phase 1: the all-slack basis
// starts at (x,y)=(0,0), which violates both >= rows, so driveFeasible
// must run before optimize can even begin. Optimum at (1.6,1.2), obj 2.8.
func TestSolveRequiresPhase1(t *testing.T) {
	m := model.New(0, 0)
	m.Sense = model.Minimize
	x, _ := m.AddColumn("x", 1, nil, nil)
	y, _ := m.AddColumn("y", 1, nil, nil)
	m.AddConstraint("r1", []int{x, y}, []float64{1, 2}, model.RowGE, 4)
	m.AddConstraint("r2", []int{x, y}, []float64{3, 1}, model.RowGE, 6)

	var s Solver
	code, err := s.Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if code != status.Optimal {
		t.Fatalf("status = %v, want Optimal", code)
	}
	xv := s.X()
	if !approxEqual(xv[x], 1.6) || !approxEqual(xv[y], 1.2) {
		t.Errorf("X = %v, want (1.6,1.2)", xv)
	}
	if !approxEqual(s.Objective(), 2.8) {
		t.Errorf("Objective = %v, want 2.8", s.Objective())
	}
}

// TestSolveDetectsInfeasible pins a row to a range that a non-negative
// variable can never satisfy.
func TestSolveDetectsInfeasible(t *testing.T) {
	m := model.New(0, 0)
	m.Sense = model.Minimize
	x, _ := m.AddColumn("x", 1, nil, nil)
	m.AddConstraint("r1", []int{x}, []float64{1}, model.RowLE, -1)

	var s Solver
	code, err := s.Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if code != status.Infeasible {
		t.Errorf("status = %v, want Infeasible", code)
	}
}

// TestSolveDetectsUnbounded maximizes a non-negative variable against a
// single non-binding row (x >= 0 again, restated as a constraint so the
// driver still has a 1x1 basis to factorize).
func TestSolveDetectsUnbounded(t *testing.T) {
	m := model.New(0, 0)
	m.Sense = model.Maximize
	x, _ := m.AddColumn("x", 1, nil, nil)
	m.AddConstraint("r1", []int{x}, []float64{1}, model.RowGE, 0)

	var s Solver
	code, err := s.Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if code != status.Unbounded {
		t.Errorf("status = %v, want Unbounded", code)
	}
}

// TestResolveWarmStartsAfterBoundTighten exercises the Resolver path bnb
// relies on: re-solving after SetBounds tightens a variable, reusing the
// existing basis rather than rebuilding the all-slack start.
func TestResolveWarmStartsAfterBoundTighten(t *testing.T) {
	m := model.New(0, 0)
	m.Sense = model.Maximize
	x, _ := m.AddColumn("x", 3, nil, nil)
	y, _ := m.AddColumn("y", 5, nil, nil)
	m.AddConstraint("r1", []int{x}, []float64{1}, model.RowLE, 4)
	m.AddConstraint("r2", []int{y}, []float64{2}, model.RowLE, 12)
	m.AddConstraint("r3", []int{x, y}, []float64{3, 2}, model.RowLE, 18)

	var s Solver
	if _, err := s.Solve(context.Background(), m); err != nil {
		t.Fatalf("Solve: %v", err)
	}

	if err := m.SetBounds(y, 0, 5); err != nil {
		t.Fatalf("SetBounds: %v", err)
	}
	code, err := s.Resolve(context.Background(), m)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if code != status.Optimal {
		t.Fatalf("status = %v, want Optimal", code)
	}
	xv := s.X()
	// With y capped at 5, r3 (3x+2y<=18) allows x up to (18-10)/3=2.667,
	// but r1 caps x at 4 and the objective 3x+5y keeps rising with x, so
	// the new optimum sits at y=5, x=8/3.
	if !approxEqual(xv[y], 5) {
		t.Errorf("X[y] = %v, want 5", xv[y])
	}
	if !approxEqual(xv[x], 8.0/3.0) {
		t.Errorf("X[x] = %v, want 8/3", xv[x])
	}
}

var _ Resolver = (*Solver)(nil)
