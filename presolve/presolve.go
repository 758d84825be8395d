// Package presolve implements the reduction pipeline of spec.md §4.G:
// Presolve tightens bounds, removes fixed/redundant rows and columns, and
// aggregates equalities away, recording an inverse onto a Tape so Postsolve
// can expand a solution of the reduced model back into the caller's
// original index space.
//
// Techniques are independent Reduction values run to a fixed point (or
// Options.MaxLoops). The teacher has no presolver of its own -
// optimize/convex/lp always solves the model as given - so the pipeline
// shape is grounded instead on the "enough-to-invert" snapshot idea behind
// branch_and_bound.go's problem{g, h} stack: each Reduction pushes a Record
// onto the Tape carrying exactly the pre-reduction state needed to restore
// the eliminated row or column, generalized from bound rows (the teacher's
// case) to arbitrary structural eliminations.
package presolve

import (
	"errors"
	"math"

	"github.com/raller09/lp-solve-sub003/model"
)

// ErrInfeasible is returned when a reduction proves the model infeasible
// (for example an empty row whose forced activity of zero falls outside its
// bounds, or an equality row whose GCD-rounded right-hand side cannot be met
// by any integer combination; the row-singleton and bound-strengthening
// passes return it too).
var ErrInfeasible = errors.New("presolve: reduction proved model infeasible")

// Options selects which techniques run and bounds how many passes the
// pipeline makes over them (spec.md §4.G: "iterates up to a configured
// maxloops or until a fixed point").
type Options struct {
	MaxLoops int

	FixedColumns       bool
	EmptyRows          bool
	RowSingletons      bool
	ColumnSingletons   bool
	BoundStrengthening bool
	GCDTighten         bool
}

// DefaultOptions enables every technique with a generous loop budget.
func DefaultOptions() Options {
	return Options{
		MaxLoops:           20,
		FixedColumns:       true,
		EmptyRows:          true,
		RowSingletons:      true,
		ColumnSingletons:   true,
		BoundStrengthening: true,
		GCDTighten:         true,
	}
}

// Reduction is one independent presolve technique. Run scans the working
// model for a single applicable site, applies it, and reports whether it
// found one; Presolve calls Run repeatedly until a pass finds nothing, then
// moves to the next Reduction, looping the whole set until no Reduction in
// a pass changes anything or Options.MaxLoops is reached.
type Reduction struct {
	Name    string
	Enabled func(Options) bool
	Run     func(w *work) (bool, error)
}

// All is the full technique pipeline, in application order. Fixed columns
// and empty/singleton rows shrink the problem for the techniques that
// follow; bound strengthening and GCD tightening run last since they only
// narrow bounds and so benefit from running against the smallest model.
var All = []Reduction{
	{"fixed-column", func(o Options) bool { return o.FixedColumns }, fixedColumnPass},
	{"empty-row", func(o Options) bool { return o.EmptyRows }, emptyRowPass},
	{"row-singleton", func(o Options) bool { return o.RowSingletons }, rowSingletonPass},
	{"column-singleton", func(o Options) bool { return o.ColumnSingletons }, columnSingletonPass},
	{"bound-strengthen", func(o Options) bool { return o.BoundStrengthening }, boundStrengthenPass},
	{"gcd-tighten", func(o Options) bool { return o.GCDTighten }, gcdTightenPass},
}

// work is the mutable state one Presolve call threads through its pipeline.
type work struct {
	m    *model.Model
	tape *Tape
}

// Presolve returns a reduced model equivalent to m and a Tape recording how
// to invert every reduction applied, per spec.md §4.G's contract
// presolve(model) -> (reducedModel, tape).
func Presolve(m *model.Model, opts Options) (*model.Model, *Tape, error) {
	w := &work{m: m.Clone(), tape: &Tape{}}
	for loop := 0; loop < maxLoops(opts); loop++ {
		changedThisLoop := false
		for _, r := range All {
			if !r.Enabled(opts) {
				continue
			}
			for {
				changed, err := r.Run(w)
				if err != nil {
					return nil, nil, err
				}
				if !changed {
					break
				}
				changedThisLoop = true
			}
		}
		if !changedThisLoop {
			break
		}
	}
	return w.m, w.tape, nil
}

func maxLoops(opts Options) int {
	if opts.MaxLoops <= 0 {
		return 1
	}
	return opts.MaxLoops
}

// Postsolve expands sol, which lives in the reduced model's index space,
// back into the original model's index space by undoing the Tape's
// records in reverse (last-applied reduction first), the exact inverse of
// the order Presolve applied them.
func Postsolve(tape *Tape, sol *model.Solution) *model.Solution {
	out := sol.Clone()
	if tape == nil {
		return out
	}
	for i := len(tape.records) - 1; i >= 0; i-- {
		out = tape.records[i].expand(out)
	}
	return out
}

// insert grows s by one element, shifting s[pos:] right by one and setting
// s[pos] = v. Used by every record's expand to restore an eliminated row or
// column's slot in a Solution's X/RowActivity.
func insert(s []float64, pos int, v float64) []float64 {
	s = append(s, 0)
	copy(s[pos+1:], s[pos:len(s)-1])
	s[pos] = v
	return s
}

func isInteger(v float64) bool { return v == math.Round(v) }
