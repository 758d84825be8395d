package milp

import "github.com/raller09/lp-solve-sub003/param"

// Parameter keys this façade registers, the spec.md §6 "named tunables"
// surface (presolve/scaling toggles, search limits, the objective-bound
// hint).
const (
	ParamPresolve = "presolve"
	ParamScaling  = "scaling"
	ParamMaxNodes = "max_nodes"
	ParamEpsInt   = "eps_int"
	ParamObjBound = "obj_bound"
)

// NewParamStore builds the façade's default parameter set: presolve and
// scaling on, a max_nodes of 0 (which leaves the branch-and-bound driver's
// default limit of 1,000,000 nodes in place), the driver's own default
// integrality tolerance, and no objective bound hint.
func NewParamStore() *param.Store {
	return param.NewStore(map[string]param.Spec{
		ParamPresolve: {Default: param.BoolValue(true)},
		ParamScaling:  {Default: param.BoolValue(true)},
		ParamMaxNodes: {Default: param.IntValue(0)},
		ParamEpsInt:   {Default: param.FloatValue(1e-7)},
		ParamObjBound: {Default: param.FloatValue(0)},
	})
}
