package bnb

import (
	"context"
	"math"
	"testing"

	"github.com/raller09/lp-solve-sub003/model"
	"github.com/raller09/lp-solve-sub003/simplex"
)

func approxEqual(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

// TestSolveKnapsackFindsIntegerOptimum builds a small 0/1 knapsack whose LP
// relaxation is fractional, and checks branch-and-bound recovers the known
// integer optimum.
func TestSolveKnapsackFindsIntegerOptimum(t *testing.T) {
	m := model.New(0, 0)
	m.Sense = model.Maximize
	// values 6, 10, 12; weights 1, 2, 3; capacity 5 -> optimum picks items
	// 2 and 3 (value 22) over the LP relaxation's fractional best.
	v1, _ := m.AddColumn("v1", 6, nil, nil)
	v2, _ := m.AddColumn("v2", 10, nil, nil)
	v3, _ := m.AddColumn("v3", 12, nil, nil)
	for _, j := range []int{v1, v2, v3} {
		m.Vars[j].Kind = model.Binary
		m.SetBounds(j, 0, 1)
	}
	m.AddConstraint("cap", []int{v1, v2, v3}, []float64{1, 2, 3}, model.RowLE, 5)

	solver := &simplex.Solver{Opts: simplex.DefaultOptions()}
	res, err := Solve(context.Background(), m, solver, DefaultOptions())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Status != 0 { // status.Optimal
		t.Fatalf("Status = %v, want Optimal", res.Status)
	}
	if !approxEqual(res.Objective, 22) {
		t.Errorf("Objective = %v, want 22", res.Objective)
	}
	for j, want := range []float64{0, 1, 1} {
		if !approxEqual(res.X[j], want) {
			t.Errorf("X[%d] = %v, want %v", j, res.X[j], want)
		}
	}
}

// TestSolveInfeasibleReportsInfeasible checks a model whose only integer
// point violates its own bounds is reported infeasible rather than
// looping forever.
func TestSolveInfeasibleReportsInfeasible(t *testing.T) {
	m := model.New(0, 0)
	x, _ := m.AddColumn("x", 1, nil, nil)
	m.Vars[x].Kind = model.Integer
	m.SetBounds(x, 0.25, 0.75) // no integer point in range

	solver := &simplex.Solver{Opts: simplex.DefaultOptions()}
	res, err := Solve(context.Background(), m, solver, DefaultOptions())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Status != 2 { // status.Infeasible
		t.Errorf("Status = %v, want Infeasible", res.Status)
	}
}

// TestSolveBreadthFirstAndBestBoundFindOptimum checks that the BreadthFirst
// and BestBound node-selection rules both report the knapsack optimum 22.
func TestSolveBreadthFirstAndBestBoundFindOptimum(t *testing.T) {
	build := func() *model.Model {
		m := model.New(0, 0)
		m.Sense = model.Maximize
		v1, _ := m.AddColumn("v1", 6, nil, nil)
		v2, _ := m.AddColumn("v2", 10, nil, nil)
		v3, _ := m.AddColumn("v3", 12, nil, nil)
		for _, j := range []int{v1, v2, v3} {
			m.Vars[j].Kind = model.Binary
			m.SetBounds(j, 0, 1)
		}
		m.AddConstraint("cap", []int{v1, v2, v3}, []float64{1, 2, 3}, model.RowLE, 5)
		return m
	}

	opts := DefaultOptions()
	opts.NodeSelect = BreadthFirst
	res, err := Solve(context.Background(), build(), &simplex.Solver{Opts: simplex.DefaultOptions()}, opts)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !approxEqual(res.Objective, 22) {
		t.Errorf("BreadthFirst Objective = %v, want 22", res.Objective)
	}

	opts.NodeSelect = BestBound
	res, err = Solve(context.Background(), build(), &simplex.Solver{Opts: simplex.DefaultOptions()}, opts)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !approxEqual(res.Objective, 22) {
		t.Errorf("BestBound Objective = %v, want 22", res.Objective)
	}
}

// TestSolveSemiContinuousAvoidsForbiddenGap checks a semi-continuous
// variable that must be either 0 or a value in [2,5]: its LP relaxation
// wants x=1 (the cheapest point satisfying x>=1), which falls inside the
// forbidden gap (0,2), so branch-and-bound must push it up to the gap's
// floor rather than report the relaxed value.
func TestSolveSemiContinuousAvoidsForbiddenGap(t *testing.T) {
	m := model.New(0, 0)
	m.Sense = model.Minimize
	x, _ := m.AddColumn("x", 1, nil, nil)
	m.Vars[x].Kind = model.SemiContinuous
	m.Vars[x].ScLower = 2
	m.SetBounds(x, 0, 5)
	m.AddConstraint("min_x", []int{x}, []float64{1}, model.RowGE, 1)

	solver := &simplex.Solver{Opts: simplex.DefaultOptions()}
	res, err := Solve(context.Background(), m, solver, DefaultOptions())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Status != 0 { // status.Optimal
		t.Fatalf("Status = %v, want Optimal", res.Status)
	}
	if !approxEqual(res.Objective, 2) {
		t.Errorf("Objective = %v, want 2 (smallest value in [2,5] satisfying x>=1)", res.Objective)
	}
	if !approxEqual(res.X[x], 2) {
		t.Errorf("X[x] = %v, want 2", res.X[x])
	}
}

// TestFracPart checks the wraparound used for negative inputs, which
// matters once a variable's lower bound runs negative.
func TestFracPart(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{2.3, 0.3},
		{-2.3, 0.7},
		{5, 0},
	}
	for _, c := range cases {
		if got := fracPart(c.in); !approxEqual(got, c.want) {
			t.Errorf("fracPart(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
