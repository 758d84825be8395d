package bnb

import (
	"github.com/raller09/lp-solve-sub003/model"
	"github.com/raller09/lp-solve-sub003/status"
)

// selectNode pops the next node from the pending pool according to
// opts.NodeSelect, applying the same LIFO order the teacher's `q
// []problem` stack used for DepthFirst and adding the alternatives
// spec.md §4.I names.
func (d *driver) selectNode() *Node {
	switch d.opts.NodeSelect {
	case BreadthFirst:
		n := d.pending[0]
		d.pending = d.pending[1:]
		return n
	case BestBound, PseudoCostSelect:
		best := 0
		for i := 1; i < len(d.pending); i++ {
			if d.better(d.pending[i].bound, d.pending[best].bound) {
				best = i
			}
		}
		n := d.pending[best]
		d.pending = append(d.pending[:best], d.pending[best+1:]...)
		return n
	default: // DepthFirst
		last := len(d.pending) - 1
		n := d.pending[last]
		d.pending = d.pending[:last]
		return n
	}
}

// applyChain walks n's ancestor chain from root to n, applying every
// delta's bounds to d.m in order, and returns the set of variables it
// touched so restoreChain can undo them. Replaying deltas from a shared
// root baseline (rather than keeping one model copy per node) is what lets
// BestBound and BreadthFirst jump between unrelated branches of the tree
// without invalidating any other pending node's bounds.
func (d *driver) applyChain(n *Node) map[int]bool {
	chain := d.ancestors(n)
	touched := make(map[int]bool)
	for _, a := range chain {
		for _, delta := range a.deltas {
			touched[delta.Var] = true
			d.m.SetBounds(delta.Var, delta.Lower, delta.Upper)
		}
	}
	return touched
}

// restoreChain resets every touched variable back to the root's bounds,
// readying d.m for the next node's applyChain.
func (d *driver) restoreChain(touched map[int]bool) {
	for j := range touched {
		d.m.SetBounds(j, d.rootLower[j], d.rootUpper[j])
	}
}

// ancestors returns n's path from the root to n itself, root first.
func (d *driver) ancestors(n *Node) []*Node {
	var chain []*Node
	for cur := n; cur != nil; cur = d.parentOf(cur) {
		chain = append([]*Node{cur}, chain...)
	}
	return chain
}

func (d *driver) parentOf(n *Node) *Node {
	if n.parent < 0 {
		return nil
	}
	return d.nodes[n.parent]
}

// effectiveBounds returns the Lower/Upper a variable has after n's full
// ancestor chain (root's original bound if nothing in the chain touches
// it), used by branching to compute a child's delta against the bound the
// variable actually has at n, not just the root's.
func (d *driver) effectiveBounds(n *Node, j int) (lo, hi float64) {
	lo, hi = d.rootLower[j], d.rootUpper[j]
	for _, a := range d.ancestors(n) {
		for _, delta := range a.deltas {
			if delta.Var == j {
				lo, hi = delta.Lower, delta.Upper
			}
		}
	}
	return lo, hi
}

func (d *driver) newNode(parent *Node, deltas []varBound) *Node {
	n := &Node{
		id:     d.nextID,
		parent: parent.id,
		depth:  parent.depth + 1,
		deltas: deltas,
	}
	d.nextID++
	return n
}

// updatePseudoCost feeds the degradation between a child's LP bound and
// its parent's into the pseudo-cost accumulator for the variable that
// branch split on, spec.md §4.I's "pseudo-cost tracking" used by
// PseudoCostBranch/PseudoCostSelect. Infeasible or unbounded children are
// skipped rather than folded in as a fabricated large cost.
func (d *driver) updatePseudoCost(n *Node, code status.Code, obj float64) {
	if n.branchVar < 0 || n.parent < 0 {
		return
	}
	if code != status.Optimal && code != status.Suboptimal {
		return
	}
	// n.bound is the parent relaxation's objective (set by addChild).
	degrade := obj - n.bound
	if d.m.Sense == model.Maximize {
		degrade = n.bound - obj
	}
	if degrade < 0 {
		degrade = 0
	}
	pc := d.pseudo[n.branchVar]
	if pc == nil {
		pc = &pseudoCost{}
		d.pseudo[n.branchVar] = pc
	}
	if n.branchDown {
		pc.downSum += degrade
		pc.downCount++
	} else {
		pc.upSum += degrade
		pc.upCount++
	}
}

// pseudoCostEstimate returns the average observed degradation per branch
// for variable j (the observations are not divided by the fractional
// distance the branch rounded away), falling back to 1 (an uninformative
// default weight) until at least one observation exists.
func (d *driver) pseudoCostEstimate(j int, down bool) float64 {
	pc := d.pseudo[j]
	if pc == nil {
		return 1
	}
	if down {
		if pc.downCount == 0 {
			return 1
		}
		return pc.downSum / float64(pc.downCount)
	}
	if pc.upCount == 0 {
		return 1
	}
	return pc.upSum / float64(pc.upCount)
}
