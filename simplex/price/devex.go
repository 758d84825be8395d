package price

import "math"

// Devex approximates steepest-edge pricing with reference weights updated
// cheaply after each pivot (Forrest & Goldfarb), rather than recomputing an
// exact edge norm. Reset clears the framework back to the all-ones
// reference it is defined relative to.
type Devex struct {
	Opts    Options
	weights []float64
}

func (p *Devex) Reset(n int) {
	p.weights = make([]float64, n)
	for i := range p.weights {
		p.weights[i] = 1
	}
}

func (p *Devex) Select(s *State) (int, Direction, bool) {
	if len(p.weights) != len(s.NonbasicIdx) {
		p.Reset(len(s.NonbasicIdx))
	}
	n := len(s.NonbasicIdx)
	span := p.Opts.PartialSpan(n)
	best := -1
	var bestScore float64
	var bestDir Direction
	for i := 0; i < span; i++ {
		dir, ok := improving(s.ReducedCosts[i], s.AtUpper[i], s.Tol)
		if !ok {
			continue
		}
		rc := s.ReducedCosts[i]
		score := rc * rc / p.weights[i]
		if best == -1 || score > bestScore {
			best, bestScore, bestDir = i, score, dir
		}
	}
	if best == -1 {
		return -1, 0, false
	}
	return best, bestDir, true
}

// Update applies the standard Devex reference-weight recurrence: the
// entering slot's weight (now the leaving variable's slot, since it takes
// the entering slot's place in the nonbasic set) becomes
// max(gammaQ/pivotElem^2, 1), and every other nonbasic slot's weight is
// raised to max(gamma_j, (pivotRow[j]/pivotElem)^2 * gammaQ).
func (p *Devex) Update(enterSlot, _ int, pivotRow []float64, pivotElem float64) {
	if pivotElem == 0 {
		return
	}
	gammaQ := p.weights[enterSlot]
	for j := range p.weights {
		if j == enterSlot {
			continue
		}
		ratio := pivotRow[j] / pivotElem
		if cand := ratio * ratio * gammaQ; cand > p.weights[j] {
			p.weights[j] = cand
		}
	}
	p.weights[enterSlot] = math.Max(gammaQ/(pivotElem*pivotElem), 1)
}

// SteepestEdge prices by the exact edge norm gamma_j = ||B^-1 A_j||^2+1
// when PrimalFallback is false and a caller has supplied Gamma via
// SetWeights (computing gamma_j here would require the B^-1 columns this
// package does not own). The simplex driver never calls SetWeights, so under
// it SteepestEdge always behaves exactly like Devex. When PrimalFallback is
// true (or SetWeights is not called), SteepestEdge behaves like Devex, which the teacher's own
// parametric() loop and most production solvers use as the practical
// default over true steepest edge.
type SteepestEdge struct {
	Opts           Options
	PrimalFallback bool
	gamma          []float64
	fallback       Devex
}

func (p *SteepestEdge) Reset(n int) {
	p.gamma = nil
	p.fallback.Opts = p.Opts
	p.fallback.Reset(n)
}

// SetWeights installs exact edge-norm weights computed by the caller (the
// simplex driver does not call it); absent a call to SetWeights since the
// last Reset or Update, SteepestEdge falls back to Devex.
func (p *SteepestEdge) SetWeights(gamma []float64) { p.gamma = gamma }

func (p *SteepestEdge) Select(s *State) (int, Direction, bool) {
	if p.PrimalFallback || p.gamma == nil || len(p.gamma) != len(s.NonbasicIdx) {
		return p.fallback.Select(s)
	}
	n := len(s.NonbasicIdx)
	span := p.Opts.PartialSpan(n)
	best := -1
	var bestScore float64
	var bestDir Direction
	for i := 0; i < span; i++ {
		dir, ok := improving(s.ReducedCosts[i], s.AtUpper[i], s.Tol)
		if !ok {
			continue
		}
		rc := s.ReducedCosts[i]
		score := rc * rc / p.gamma[i]
		if best == -1 || score > bestScore {
			best, bestScore, bestDir = i, score, dir
		}
	}
	if best == -1 {
		return -1, 0, false
	}
	return best, bestDir, true
}

func (p *SteepestEdge) Update(enterSlot, leaveSlot int, pivotRow []float64, pivotElem float64) {
	p.fallback.Update(enterSlot, leaveSlot, pivotRow, pivotElem)
	p.gamma = nil // exact weights must be set again after every pivot
}
