// Package status defines the terminal and intermediate return codes shared
// by the simplex driver, the branch-and-bound driver and the solver façade.
package status

import "fmt"

// Code is a solver status, stable across releases. The numeric values match
// the status codes a caller may have persisted from a previous session.
type Code int

// Status codes. Negative values indicate the solve did not run to
// completion for a reason outside the model itself.
const (
	UnknownError  Code = -5
	DataIgnored   Code = -4
	NoBFP         Code = -3
	NoMemory      Code = -2
	NotRun        Code = -1
	Optimal       Code = 0
	Suboptimal    Code = 1
	Infeasible    Code = 2
	Unbounded     Code = 3
	Degenerate    Code = 4
	NumFailure    Code = 5
	UserAbort     Code = 6
	Timeout       Code = 7
	Running       Code = 8
	Presolved     Code = 9
	ProcFail      Code = 10
	ProcBreak     Code = 11
	FeasFound     Code = 12
	NoFeasFound   Code = 13
	Fathomed      Code = 14
)

var names = map[Code]string{
	UnknownError: "unknown-error",
	DataIgnored:  "data-ignored",
	NoBFP:        "no-BFP",
	NoMemory:     "no-memory",
	NotRun:       "not-run",
	Optimal:      "optimal",
	Suboptimal:   "suboptimal",
	Infeasible:   "infeasible",
	Unbounded:    "unbounded",
	Degenerate:   "degenerate",
	NumFailure:   "num-failure",
	UserAbort:    "user-abort",
	Timeout:      "timeout",
	Running:      "running",
	Presolved:    "presolved",
	ProcFail:     "proc-fail",
	ProcBreak:    "proc-break",
	FeasFound:    "feas-found",
	NoFeasFound:  "no-feas-found",
	Fathomed:     "fathomed",
}

// String implements fmt.Stringer.
func (c Code) String() string {
	if s, ok := names[c]; ok {
		return s
	}
	return fmt.Sprintf("status(%d)", int(c))
}

// Terminal reports whether c ends a solve; Running is the only
// non-terminal code a driver may report mid-solve.
func (c Code) Terminal() bool {
	return c != Running
}

// Ok reports whether c represents a usable solution (optimal, suboptimal,
// a feasible incumbent found under a limit, or fathomed with an incumbent).
func (c Code) Ok() bool {
	switch c {
	case Optimal, Suboptimal, FeasFound, Fathomed:
		return true
	default:
		return false
	}
}
