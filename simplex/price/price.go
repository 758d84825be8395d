// Package price implements the entering-variable selection rules of
// spec.md §4.D: a Pricer picks which nonbasic column to bring into the
// basis from the current reduced-cost vector. The interface separates the
// rule from the simplex driver's main loop the way the teacher's
// parametric() fuses them together, the same decomposition
// optimize/convex/lp's Swap/computePrimal/computeDual split applies to the
// basis-update side.
package price

import (
	"math"

	"golang.org/x/exp/rand"
)

// Direction says whether the entering variable should increase from its
// lower bound or decrease from its upper bound.
type Direction int

const (
	Increasing Direction = iota
	Decreasing
)

// State is the pricer's view of one iteration: the reduced cost of every
// currently nonbasic column, in the same order as NonbasicIdx.
type State struct {
	NonbasicIdx   []int
	ReducedCosts  []float64
	AtUpper       []bool // AtUpper[k] true if NonbasicIdx[k] currently sits at its upper bound
	Tol           float64
	PartialWindow int // not read by any Pricer; Options.Partial scans the fixed span PartialSpan returns
}

// Pricer selects an entering variable and its direction of travel, or
// reports ok=false when no improving column remains (optimal).
type Pricer interface {
	// Select returns the slot index into state.NonbasicIdx (not the
	// variable index itself) of the chosen entering column.
	Select(state *State) (slot int, dir Direction, ok bool)
	// Update lets weight-based rules refresh their reference framework
	// after a pivot; rules that carry no weights may no-op.
	Update(enterSlot, leaveSlot int, pivotRow []float64, pivotElem float64)
	// Reset (re)initializes any per-column weights for n nonbasic slots,
	// called after every Refactor since slot indices are renumbered then.
	Reset(n int)
}

// Options are strategy bits orthogonal to the chosen rule (spec.md §4.D):
// any Pricer may be wrapped to respect them.
type Options struct {
	Multiple  bool // price.Select may return a batch in a future extension; reserved for simplex's multiple-pricing pass
	Partial   bool // restrict every Select call to the first PartialSpan(n) slots; the span does not move between calls
	Adaptive  bool // not read by any Pricer: the partial span is never widened
	Randomize bool // not read by any Pricer (nor is Rand): ties go to the first or largest candidate
	Rand      *rand.Rand
}

func improving(rc float64, atUpper bool, tol float64) (Direction, bool) {
	if atUpper {
		if rc > tol {
			return Decreasing, true
		}
		return 0, false
	}
	if rc < -tol {
		return Increasing, true
	}
	return 0, false
}

// FirstIndex is Bland's-rule-style pricing: the first profitable column in
// index order, used to guarantee finite termination when cycling is a risk
// (spec.md §4.D/§4.E's anti-degeneracy fallback).
type FirstIndex struct{ Opts Options }

func (p *FirstIndex) Select(s *State) (int, Direction, bool) {
	n := len(s.NonbasicIdx)
	span := p.Opts.PartialSpan(n)
	for i := 0; i < span; i++ {
		if dir, ok := improving(s.ReducedCosts[i], s.AtUpper[i], s.Tol); ok {
			return i, dir, true
		}
	}
	return -1, 0, false
}
func (p *FirstIndex) Update(int, int, []float64, float64) {}
func (p *FirstIndex) Reset(int)                           {}

// Dantzig picks the column with the most negative (or, at upper bound,
// most positive) reduced cost: the teacher's implicit rule, since
// parametric.go's main loop always enters the single column handed to it
// by the parametric path rather than scanning, but Dantzig's rule is the
// textbook generalization to a full-tableau simplex (spec.md §4.D).
type Dantzig struct{ Opts Options }

func (p *Dantzig) Select(s *State) (int, Direction, bool) {
	n := len(s.NonbasicIdx)
	span := p.Opts.PartialSpan(n)
	best := -1
	var bestMag float64
	var bestDir Direction
	for i := 0; i < span; i++ {
		dir, ok := improving(s.ReducedCosts[i], s.AtUpper[i], s.Tol)
		if !ok {
			continue
		}
		mag := math.Abs(s.ReducedCosts[i])
		if best == -1 || mag > bestMag {
			best, bestMag, bestDir = i, mag, dir
		}
	}
	if best == -1 {
		return -1, 0, false
	}
	return best, bestDir, true
}
func (p *Dantzig) Update(int, int, []float64, float64) {}
func (p *Dantzig) Reset(int)                           {}

// PartialSpan returns how many of the n nonbasic slots a partial-pricing
// scan should examine: half the columns, rounded up, at least one.
func (o Options) PartialSpan(n int) int {
	if !o.Partial {
		return n
	}
	span := (n + 1) / 2
	if span < 1 {
		span = 1
	}
	return span
}
