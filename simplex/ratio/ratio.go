// Package ratio implements the leaving-variable ratio test of spec.md §4.E:
// given the current basic solution and the direction vector produced by
// FTRAN-ing the entering column, decide how far the entering variable can
// move before some basic variable hits a bound, and which one leaves.
//
// optimize/convex/lp/parametric.go's selectIdx is the single-pass ancestor:
// a linear scan picking the minimal blocking ratio among entries with
// dx[i] > tol. Harris widens that into Harris's two-pass test, which
// tolerates small infeasibilities in the first pass so it can pick the
// most numerically stable pivot among the surviving candidates in the
// second, the standard anti-degeneracy refinement over the textbook ratio
// test.
package ratio

import (
	"errors"
	"math"

	"golang.org/x/exp/rand"
)

// ErrUnbounded is returned when no basic variable blocks the entering
// variable's movement in the chosen direction (the teacher's ErrInfeasible
// case in selectIdx, renamed to the conventional simplex term for this
// failure since "infeasible" there actually meant "the problem is
// unbounded in this direction").
var ErrUnbounded = errors.New("ratio: no blocking variable; problem is unbounded in this direction")

// Candidate is one basic variable's blocking-ratio data for the ratio test:
// its current value, its distance to the bound it would hit first, and the
// direction-vector coefficient driving it (alpha_i in textbook notation).
type Candidate struct {
	Pos       int     // basis position of this basic variable
	ToBound   float64 // nonnegative distance from the current value to the blocking bound
	Alpha     float64 // the entering direction's coefficient for this basic variable
	Degenerat bool    // true if ToBound is within Options.DegenTol of zero
}

// Options composes spec.md §4.E's anti-degeneracy bits; all are independent
// and may be combined.
type Options struct {
	Tol           float64 // minimum |Alpha| to consider a candidate blocking at all
	HarrisTol     float64 // first-pass slack Harris's test allows before the stability-maximizing second pass
	DegenTol      float64 // ToBound below this is treated as degenerate (zero-length step)
	Bypass        bool    // skip Harris's two-pass refinement and fall back to the single-pass textbook test
	StallDetect   bool    // count consecutive zero-length steps so Stalled can report StallLimit of them; nothing calls Perturb in response
	StallLimit    int
	Perturb       bool // not read by Harris, Single or the simplex driver
	PerturbScale  float64
	BoundFlip     bool // allow a bounded variable ratio test: entering variable itself may hit its own opposite bound first
	EnteringBound float64 // the entering variable's own distance-to-opposite-bound, used only when BoundFlip is set
	Rand          *rand.Rand
}

// Test is the ratio-test contract the simplex driver pivots against.
type Test interface {
	// Select returns the winning candidate's index into cands, or ok=false
	// with err set to ErrUnbounded if there is no blocking variable (and
	// BoundFlip did not apply).
	Select(cands []Candidate, opts Options) (winner int, step float64, flipped bool, ok bool, err error)
}

// Single is the teacher's single-pass textbook test (selectIdx
// generalized to bound-aware candidates): the minimal ToBound/|Alpha|
// ratio among candidates whose Alpha clears Options.Tol.
type Single struct{}

func (Single) Select(cands []Candidate, opts Options) (int, float64, bool, bool, error) {
	return singlePass(cands, opts)
}

func singlePass(cands []Candidate, opts Options) (winner int, step float64, flipped bool, ok bool, err error) {
	best := -1
	bestRatio := math.Inf(1)
	for i, c := range cands {
		if math.Abs(c.Alpha) <= opts.Tol {
			continue
		}
		r := c.ToBound / math.Abs(c.Alpha)
		if r < bestRatio {
			bestRatio, best = r, i
		}
	}
	if best == -1 {
		if opts.BoundFlip {
			return -1, opts.EnteringBound, true, true, nil
		}
		return -1, 0, false, false, ErrUnbounded
	}
	if opts.BoundFlip && opts.EnteringBound < bestRatio {
		return -1, opts.EnteringBound, true, true, nil
	}
	return best, bestRatio, false, true, nil
}

// Harris implements spec.md §4.E's two-pass ratio test: the first pass
// admits any candidate whose ratio is within HarrisTol of the true minimum
// (tolerating a small, bounded primal infeasibility); the second pass picks,
// among those survivors, the one with the largest |Alpha|, the most
// numerically stable pivot, which is standard practice for keeping the
// basis well conditioned under degeneracy.
type Harris struct {
	stallCount int
}

func (h *Harris) Select(cands []Candidate, opts Options) (winner int, step float64, flipped bool, ok bool, err error) {
	if opts.Bypass {
		return singlePass(cands, opts)
	}

	minRatio := math.Inf(1)
	for _, c := range cands {
		if math.Abs(c.Alpha) <= opts.Tol {
			continue
		}
		if r := c.ToBound / math.Abs(c.Alpha); r < minRatio {
			minRatio = r
		}
	}
	if math.IsInf(minRatio, 1) {
		if opts.BoundFlip {
			return -1, opts.EnteringBound, true, true, nil
		}
		return -1, 0, false, false, ErrUnbounded
	}
	if opts.BoundFlip && opts.EnteringBound < minRatio {
		return -1, opts.EnteringBound, true, true, nil
	}

	threshold := minRatio + opts.HarrisTol
	best := -1
	var bestAlpha float64
	for i, c := range cands {
		if math.Abs(c.Alpha) <= opts.Tol {
			continue
		}
		r := c.ToBound / math.Abs(c.Alpha)
		if r > threshold {
			continue
		}
		if math.Abs(c.Alpha) > bestAlpha {
			bestAlpha, best = math.Abs(c.Alpha), i
		}
	}
	if best == -1 {
		return -1, 0, false, false, ErrUnbounded
	}

	degenerate := cands[best].ToBound <= opts.DegenTol
	if opts.StallDetect {
		if degenerate {
			h.stallCount++
		} else {
			h.stallCount = 0
		}
	}
	step = math.Max(0, minRatio)
	return best, step, false, true, nil
}

// Stalled reports whether StallDetect has observed StallLimit consecutive
// degenerate (zero-length) pivots, the anti-cycling trigger for a caller to
// invoke Perturb-style RHS jittering before the next pivot (spec.md §4.E),
// exactly as the teacher's parametric() loop perturbs bbar on
// ErrDegenerate.
func (h *Harris) Stalled(opts Options) bool {
	return opts.StallDetect && opts.StallLimit > 0 && h.stallCount >= opts.StallLimit
}

// ResetStall clears the stall counter, called after a successful Perturb.
func (h *Harris) ResetStall() { h.stallCount = 0 }

// Perturb replaces each entry of b in place with a random value in
// [0, opts.PerturbScale), the generalization
// of parametric.go's degenerate-restart line `xbbar[i] = rnd.Float64() *
// bnorm` to an arbitrary rhs vector.
func Perturb(b []float64, opts Options) {
	if opts.Rand == nil || opts.PerturbScale == 0 {
		return
	}
	for i := range b {
		b[i] = opts.Rand.Float64() * opts.PerturbScale
	}
}
