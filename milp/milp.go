// Package milp is the root solver façade of spec.md §4.J: one session
// object owning a Model, a parameter Store and a callback Table, exposing
// every operation group spec.md §6 lists (model construction, bounds, SOS,
// matrix element access, solve, solution retrieval, parameters, I/O,
// callbacks) as methods. It mirrors the teacher's
// optimize.Method/optimize.Result/optimize.Settings session shape
// (optimize/types.go, optimize/local.go) generalized from a single
// Recorder to the full abort/log/message/node/branch hook set.
package milp

import (
	"context"
	"io"
	"math"

	"github.com/raller09/lp-solve-sub003/bnb"
	"github.com/raller09/lp-solve-sub003/callback"
	"github.com/raller09/lp-solve-sub003/io/lpformat"
	"github.com/raller09/lp-solve-sub003/io/mpsformat"
	"github.com/raller09/lp-solve-sub003/model"
	"github.com/raller09/lp-solve-sub003/param"
	"github.com/raller09/lp-solve-sub003/presolve"
	"github.com/raller09/lp-solve-sub003/scale"
	"github.com/raller09/lp-solve-sub003/simplex"
	"github.com/raller09/lp-solve-sub003/status"
)

// Solver is one MILP solving session: the façade spec.md §4.J describes.
// Not safe for concurrent use by two goroutines (spec.md §5).
type Solver struct {
	M         *model.Model
	Params    *param.Store
	Callbacks callback.Table

	lastStatus status.Code
	lastSol    *model.Solution
	lastNodes  int
	lastDepth  int
}

// New returns a Solver over a freshly created Model with the given
// dimensions and the package's default parameter set.
func New(nRows, nCols int) *Solver {
	return &Solver{
		M:      model.New(nRows, nCols),
		Params: NewParamStore(),
	}
}

// NewFromModel wraps an existing Model in a Solver session.
func NewFromModel(m *model.Model) *Solver {
	return &Solver{M: m, Params: NewParamStore()}
}

// --- Model construction / rows / columns (spec.md §6) ---

func (s *Solver) AddColumn(name string, obj float64, idx []int, coefs []float64) (int, error) {
	return s.M.AddColumn(name, obj, idx, coefs)
}

func (s *Solver) AddConstraint(name string, idx []int, coefs []float64, t model.RowType, rhs float64) (int, error) {
	return s.M.AddConstraint(name, idx, coefs, t, rhs)
}

func (s *Solver) DeleteConstraint(i int) error { return s.M.DeleteConstraint(i) }
func (s *Solver) DeleteColumn(j int) error     { return s.M.DeleteColumn(j) }

func (s *Solver) SetObj(j int, c float64) error             { return s.M.SetObj(j, c) }
func (s *Solver) SetElement(r, c int, v float64) error       { return s.M.SetElement(r, c, v) }
func (s *Solver) Element(r, c int) (float64, error)          { return s.M.Element(r, c) }
func (s *Solver) SetRowSides(i int, lhs, rhs float64) error  { return s.M.SetRowSides(i, lhs, rhs) }
func (s *Solver) ColumnIndex(name string) (int, bool)        { return s.M.ColumnIndex(name) }
func (s *Solver) RowIndex(name string) (int, bool)           { return s.M.RowIndex(name) }

func (s *Solver) SetSense(sense model.Sense) { s.M.Sense = sense }
func (s *Solver) Sense() model.Sense         { return s.M.Sense }

// --- Bounds ---

func (s *Solver) SetBounds(j int, lb, ub float64) error { return s.M.SetBounds(j, lb, ub) }
func (s *Solver) SetBoundsTighter(j int, lb, ub float64) error {
	return s.M.SetBoundsTighter(j, lb, ub)
}

// SetInteger marks column j as integer-valued, the spec.md §6
// setint-equivalent operation.
func (s *Solver) SetInteger(j int, isInt bool) error {
	if j < 0 || j >= s.M.NCols() {
		return model.ErrInvalidIndex
	}
	if isInt {
		s.M.Vars[j].Kind = model.Integer
	} else {
		s.M.Vars[j].Kind = model.Continuous
	}
	return nil
}

// SetBinary marks column j as a 0/1 binary variable.
func (s *Solver) SetBinary(j int) error {
	if j < 0 || j >= s.M.NCols() {
		return model.ErrInvalidIndex
	}
	s.M.Vars[j].Kind = model.Binary
	return s.M.SetBounds(j, 0, 1)
}

// --- SOS / linking ---

func (s *Solver) AddSOS(set model.SOS) (int, error)         { return s.M.AddSOS(set) }
func (s *Solver) AddLinking(l model.Linking) (int, error)   { return s.M.AddLinking(l) }

// --- Solve ---

// Solve runs presolve, scaling and either a single LP relaxation or a full
// branch-and-bound solve over s.M, storing the result for the solution-
// retrieval methods below (spec.md §4.J/§6's solve group).
func (s *Solver) Solve(ctx context.Context) (status.Code, error) {
	s.Callbacks.Emit(callback.Event{Kind: callback.EventPresolve})
	if err := s.materializeLinkings(); err != nil {
		return s.finish(status.UnknownError, nil), err
	}

	presolveOn, _ := s.Params.Get(ParamPresolve)
	scalingOn, _ := s.Params.Get(ParamScaling)
	doPresolve, _ := presolveOn.Bool()
	doScale, _ := scalingOn.Bool()

	reduced := s.M
	var tape *presolve.Tape
	if doPresolve {
		r, t, err := presolve.Presolve(s.M, presolve.DefaultOptions())
		if err == presolve.ErrInfeasible {
			return s.finish(status.Infeasible, nil), nil
		}
		if err != nil {
			return s.finish(status.UnknownError, nil), err
		}
		reduced, tape = r, t
	} else {
		reduced = s.M.Clone()
	}

	var rowScale, colScale []float64
	if doScale {
		rowScale, colScale = scale.Compute(reduced, scale.DefaultOptions())
		preserveDiscreteColumns(reduced, colScale)
		scale.Apply(reduced, rowScale, colScale)
	}

	solver := &simplex.Solver{Opts: simplex.DefaultOptions()}

	var sol *model.Solution
	var code status.Code
	if needsBranching(reduced) {
		res, err := bnb.Solve(ctx, reduced, solver, s.bnbOptions())
		if err != nil {
			return s.finish(status.UnknownError, nil), err
		}
		s.lastNodes, s.lastDepth = res.Nodes, res.MaxDepth
		code = res.Status
		if res.X != nil {
			sol = &model.Solution{
				Status:      code,
				Objective:   res.Objective,
				X:           res.X,
				RowActivity: rowActivity(reduced, res.X),
				Iterations:  res.Iterations,
			}
		}
	} else {
		c, err := solver.Resolve(ctx, reduced)
		if err != nil {
			return s.finish(status.UnknownError, nil), err
		}
		code = c
		if code.Ok() {
			sol = &model.Solution{
				Status:       code,
				Objective:    solver.Objective(),
				X:            solver.X(),
				RowActivity:  solver.RowActivity(),
				DualValues:   solver.DualValues(),
				ReducedCosts: solver.ReducedCosts(),
				Iterations:   solver.Iterations(),
			}
		}
	}

	if sol != nil {
		if doScale {
			unscaleSolution(sol, rowScale, colScale)
		}
		sol = presolve.Postsolve(tape, sol)
	}
	return s.finish(code, sol), nil
}

func (s *Solver) finish(code status.Code, sol *model.Solution) status.Code {
	s.lastStatus = code
	s.lastSol = sol
	return code
}

// preserveDiscreteColumns resets to 1 any scaling factor scale.Compute chose
// for an integer/binary/semi-continuous column: branch-and-bound's floor/
// ceil splits assume a column's values are whole numbers in the model's own
// units, which column scaling would otherwise silently violate.
func preserveDiscreteColumns(m *model.Model, colScale []float64) {
	for j, v := range m.Vars {
		if v.Kind != model.Continuous {
			colScale[j] = 1
		}
	}
}

// needsBranching reports whether m has any integer/binary/semi-continuous
// column, SOS set or linking constraint, the condition that routes Solve
// through bnb instead of a single LP relaxation.
func needsBranching(m *model.Model) bool {
	for _, v := range m.Vars {
		if v.Kind == model.Integer || v.Kind == model.Binary || v.Kind == model.SemiContinuous {
			return true
		}
	}
	return len(m.SOSSets) > 0 || len(m.Linkings) > 0
}

// materializeLinkings creates binary copies for every linking set that
// does not already have them, sized to the linked variable's own integer
// range (spec.md §9's lazy materialization hook).
func (s *Solver) materializeLinkings() error {
	for k, l := range s.M.Linkings {
		if !l.NeedsMaterialization() {
			continue
		}
		v := s.M.Vars[l.Var]
		n := int(math.Round(v.Upper)) - int(math.Round(v.Lower)) + 1
		if n < 1 {
			n = 1
		}
		if _, err := s.M.MaterializeLinking(k, n); err != nil {
			return err
		}
	}
	return nil
}

func (s *Solver) bnbOptions() bnb.Options {
	opts := bnb.DefaultOptions()
	opts.Callbacks = &s.Callbacks
	if v, err := s.Params.Get(ParamMaxNodes); err == nil {
		if n, err := v.Int(); err == nil && n > 0 {
			opts.MaxNodes = n
		}
	}
	if v, err := s.Params.Get(ParamEpsInt); err == nil {
		if f, err := v.Float(); err == nil && f > 0 {
			opts.EpsInt = f
		}
	}
	return opts
}

// rowActivity computes A*x for reporting alongside a bnb result, which
// (unlike simplex.Solver) does not track row activity itself.
func rowActivity(m *model.Model, x []float64) []float64 {
	act := make([]float64, m.NRows())
	for j := 0; j < m.NCols(); j++ {
		idx, val := m.A.Column(j)
		for k, r := range idx {
			act[r] += val[k] * x[j]
		}
	}
	return act
}

// unscaleSolution restores sol's X and RowActivity to the pre-scaling
// space, the inverse of scale.Apply's x' = C^-1*x, row' = R*row
// convention.
func unscaleSolution(sol *model.Solution, rowScale, colScale []float64) {
	for j := range sol.X {
		sol.X[j] *= colScale[j]
	}
	for i := range sol.RowActivity {
		sol.RowActivity[i] /= rowScale[i]
	}
}

// --- Solution retrieval (spec.md §6) ---

func (s *Solver) Status() status.Code { return s.lastStatus }

func (s *Solver) Objective() float64 {
	if s.lastSol == nil {
		return 0
	}
	return s.lastSol.Objective
}

func (s *Solver) X() []float64 {
	if s.lastSol == nil {
		return nil
	}
	return s.lastSol.X
}

func (s *Solver) RowActivity() []float64 {
	if s.lastSol == nil {
		return nil
	}
	return s.lastSol.RowActivity
}

// DualValues and ReducedCosts expose the last LP relaxation's sensitivity
// output; both are nil after a MILP solve, since no single dual vector
// prices a branch-and-bound search (spec.md §6's sensitivity group).
func (s *Solver) DualValues() []float64 {
	if s.lastSol == nil {
		return nil
	}
	return s.lastSol.DualValues
}

func (s *Solver) ReducedCosts() []float64 {
	if s.lastSol == nil {
		return nil
	}
	return s.lastSol.ReducedCosts
}

// NodeCount and MaxDepth report the last branch-and-bound solve's search
// size; both are zero if the last Solve was a pure LP relaxation.
func (s *Solver) NodeCount() int { return s.lastNodes }
func (s *Solver) MaxDepth() int  { return s.lastDepth }

// IsFeasible reports whether values satisfies every row's current sides
// within tol, applied in the model's current (possibly scaled) space per
// this module's Open Question decision; s.M is never scaled in place by
// Solve (scaling only touches the internal working copy), so this is
// always a pre-scaling check in practice.
func (s *Solver) IsFeasible(values []float64, tol float64) bool {
	for i := 0; i < s.M.NRows(); i++ {
		act := 0.0
		for j, v := range values {
			c, _ := s.M.Element(i, j)
			act += c * v
		}
		row := s.M.Rows[i]
		if act < row.Lhs-tol || act > row.Rhs+tol {
			return false
		}
	}
	return true
}

// SetObjBound records a target objective bound in the parameter store.
// Solve does not read it, with or without integrality: bnbOptions passes
// no objective bound to bnb, so it has no solving effect.
func (s *Solver) SetObjBound(v float64) {
	s.Params.Set(ParamObjBound, param.FloatValue(v))
}

// --- Parameters (spec.md §6) ---

func (s *Solver) SetParam(key string, v param.Value) error { return s.Params.Set(key, v) }
func (s *Solver) GetParam(key string) (param.Value, error) { return s.Params.Get(key) }
func (s *Solver) ReadParams(r io.Reader) error              { return s.Params.Read(r) }
func (s *Solver) WriteParams(w io.Writer) error             { return s.Params.Write(w) }

// --- I/O (spec.md §6; lpformat/mpsformat contract) ---

func (s *Solver) WriteLP(w io.Writer) error  { return (lpformat.Codec{}).WriteModel(w, s.M) }
func (s *Solver) WriteMPS(w io.Writer) error { return (mpsformat.Codec{}).WriteModel(w, s.M) }

func (s *Solver) ReadLP(r io.Reader) error {
	m, err := (lpformat.Codec{}).ReadModel(r)
	if err != nil {
		return err
	}
	s.M = m
	return nil
}

func (s *Solver) ReadMPS(r io.Reader) error {
	m, err := (mpsformat.Codec{}).ReadModel(r)
	if err != nil {
		return err
	}
	s.M = m
	return nil
}
