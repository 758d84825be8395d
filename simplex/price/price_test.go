package price

import "testing"

func basicState() *State {
	return &State{
		NonbasicIdx:  []int{0, 1, 2},
		ReducedCosts: []float64{-1, -5, -2},
		AtUpper:      []bool{false, false, false},
		Tol:          1e-9,
	}
}

func TestFirstIndexPicksFirstImproving(t *testing.T) {
	p := &FirstIndex{}
	slot, dir, ok := p.Select(basicState())
	if !ok || slot != 0 || dir != Increasing {
		t.Errorf("Select = (%d,%v,%v), want (0,Increasing,true)", slot, dir, ok)
	}
}

func TestFirstIndexNoneImproving(t *testing.T) {
	p := &FirstIndex{}
	s := &State{NonbasicIdx: []int{0, 1}, ReducedCosts: []float64{1, 2}, AtUpper: []bool{false, false}, Tol: 1e-9}
	if _, _, ok := p.Select(s); ok {
		t.Errorf("Select on non-improving state returned ok=true")
	}
}

func TestDantzigPicksMostNegative(t *testing.T) {
	p := &Dantzig{}
	slot, dir, ok := p.Select(basicState())
	if !ok || slot != 1 || dir != Increasing {
		t.Errorf("Select = (%d,%v,%v), want (1,Increasing,true)", slot, dir, ok)
	}
}

func TestDantzigRespectsAtUpperSign(t *testing.T) {
	p := &Dantzig{}
	s := &State{
		NonbasicIdx:  []int{0, 1},
		ReducedCosts: []float64{3, -3},
		AtUpper:      []bool{true, false},
		Tol:          1e-9,
	}
	slot, dir, ok := p.Select(s)
	if !ok || slot != 0 || dir != Decreasing {
		t.Errorf("Select = (%d,%v,%v), want (0,Decreasing,true) for an at-upper column with positive reduced cost", slot, dir, ok)
	}
}

func TestDevexPrefersLargerWeightedReducedCost(t *testing.T) {
	p := &Devex{}
	p.Reset(3)
	p.weights[1] = 100 // de-prioritize slot 1 despite its large raw reduced cost
	slot, _, ok := p.Select(basicState())
	if !ok || slot != 2 {
		t.Errorf("Select = (%d,_,%v), want slot 2 once slot 1's weight dominates", slot, ok)
	}
}

func TestDevexUpdateRaisesWeights(t *testing.T) {
	p := &Devex{}
	p.Reset(3)
	pivotRow := []float64{2, 1, 4}
	p.Update(1, 0, pivotRow, 1)
	if p.weights[1] != 1 { // max(gammaQ/pivotElem^2, 1) = max(1,1) = 1
		t.Errorf("weights[1] (entering slot) = %v, want 1", p.weights[1])
	}
	if got := p.weights[0]; got < 3.9 { // (2/1)^2 * 1 = 4
		t.Errorf("weights[0] = %v, want >= ~4", got)
	}
}

func TestSteepestEdgeFallsBackToDevexWithoutWeights(t *testing.T) {
	p := &SteepestEdge{}
	p.Reset(3)
	slot, dir, ok := p.Select(basicState())
	if !ok || slot != 1 || dir != Increasing {
		t.Errorf("fallback Select = (%d,%v,%v), want (1,Increasing,true)", slot, dir, ok)
	}
}

func TestSteepestEdgeUsesSetWeights(t *testing.T) {
	p := &SteepestEdge{}
	p.Reset(3)
	p.SetWeights([]float64{1, 100, 1}) // heavily penalize slot 1's edge norm
	slot, _, ok := p.Select(basicState())
	if !ok || slot != 2 {
		t.Errorf("Select = (%d,_,%v), want slot 2 once slot 1's edge norm dominates", slot, ok)
	}
}

func TestPartialSpanHalvesWhenEnabled(t *testing.T) {
	o := Options{Partial: true}
	if got := o.PartialSpan(10); got != 5 {
		t.Errorf("PartialSpan(10) = %d, want 5", got)
	}
	o.Partial = false
	if got := o.PartialSpan(10); got != 10 {
		t.Errorf("PartialSpan(10) with Partial=false = %d, want 10", got)
	}
}
