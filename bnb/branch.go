package bnb

import (
	"math"

	"github.com/raller09/lp-solve-sub003/model"
)

// selectIntegerBranch finds a fractional integer/binary variable in x
// according to opts.BranchRule (spec.md §4.I's branching-variable
// selection rules), breaking ties by Variable.Priority then index, the
// same precedence the façade gives explicit priorities elsewhere.
func (d *driver) selectIntegerBranch(x []float64) (int, bool) {
	eps := d.opts.epsInt()
	best := -1
	var bestScore float64
	for j, v := range d.m.Vars {
		if !isDiscrete(v.Kind) {
			continue
		}
		f := fracPart(x[j])
		if f < eps || f > 1-eps {
			continue
		}
		var score float64
		switch d.opts.BranchRule {
		case MostFractional:
			score = 0.5 - math.Abs(f-0.5)
		case PseudoCostBranch:
			score = f*d.pseudoCostEstimate(j, false) + (1-f)*d.pseudoCostEstimate(j, true)
		default: // FirstFractional
			if best >= 0 {
				continue
			}
			score = 1
		}
		if best < 0 || betterBranchCandidate(score, bestScore, v.Priority, d.m.Vars[best].Priority, j, best) {
			best, bestScore = j, score
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// betterBranchCandidate reports whether (score, priority, index) j should
// replace the current best: higher score wins outright, then higher
// priority, then lower index.
func betterBranchCandidate(score, bestScore float64, priority, bestPriority, j, best int) bool {
	if score != bestScore {
		return score > bestScore
	}
	if priority != bestPriority {
		return priority > bestPriority
	}
	return j < best
}

// branchInteger produces the floor and ceil children for branching
// variable j at n, in the order opts.FloorFirst (or the variable's own
// BranchDir override) prefers so the preferred child is explored first
// under DepthFirst.
func (d *driver) branchInteger(n *Node, x []float64, j int) []*Node {
	lo, hi := d.effectiveBounds(n, j)
	floorVal := math.Floor(x[j])
	ceilVal := floorVal + 1

	var down, up *Node
	if lo <= floorVal {
		down = d.newNode(n, []varBound{{Var: j, Lower: lo, Upper: floorVal}})
		down.branchVar, down.branchDown = j, true
	}
	if ceilVal <= hi {
		up = d.newNode(n, []varBound{{Var: j, Lower: ceilVal, Upper: hi}})
		up.branchVar, up.branchDown = j, false
	}

	floorFirst := d.opts.FloorFirst
	switch d.m.Vars[j].BranchDir {
	case model.BranchFloorFirst:
		floorFirst = true
	case model.BranchCeilFirst:
		floorFirst = false
	}
	var ordered []*Node
	if floorFirst {
		ordered = []*Node{up, down} // pushed in this order, DepthFirst pops down first
	} else {
		ordered = []*Node{down, up}
	}
	children := make([]*Node, 0, 2)
	for _, c := range ordered {
		if c != nil {
			children = append(children, c)
		}
	}
	return children
}

// selectSOSBranch finds the first SOS set whose solution values violate
// its at-most-one/at-most-two-consecutive rule.
func (d *driver) selectSOSBranch(x []float64) (int, bool) {
	const eps = 1e-7
	for k, s := range d.m.SOSSets {
		nonzero := 0
		lastNZ := -1
		violated := false
		for i, mem := range s.Members {
			if math.Abs(x[mem.VarIndex]) <= eps {
				continue
			}
			nonzero++
			if s.Type == model.SOS2 && lastNZ >= 0 && i != lastNZ+1 {
				violated = true
			}
			lastNZ = i
		}
		limit := 1
		if s.Type == model.SOS2 {
			limit = 2
		}
		if nonzero > limit || violated {
			return k, true
		}
	}
	return 0, false
}

// branchSOS splits SOS set k at its member list's midpoint: one child
// zeroes every member at or after the split, the other zeroes every
// member before it, a textbook SOS branching rule that also works for
// SOS2 since each half still permits two adjacent survivors at the split
// boundary's edge.
func (d *driver) branchSOS(n *Node, k int) []*Node {
	s := d.m.SOSSets[k]
	split := len(s.Members) / 2

	var lowZeros, highZeros []varBound
	for i, mem := range s.Members {
		zb := varBound{Var: mem.VarIndex, Lower: 0, Upper: 0}
		if i >= split {
			highZeros = append(highZeros, zb)
		} else {
			lowZeros = append(lowZeros, zb)
		}
	}
	left := d.newNode(n, highZeros)
	left.branchVar = -1
	right := d.newNode(n, lowZeros)
	right.branchVar = -1
	return []*Node{left, right}
}

// selectLinkBranch finds a materialized linking set whose binaries hold a
// fractional value, reusing the SOS zero-split technique since a linking
// set's binaries are themselves an SOS1-shaped set-partition.
func (d *driver) selectLinkBranch(x []float64) (int, bool) {
	const eps = 1e-7
	for k, l := range d.m.Linkings {
		if l.NeedsMaterialization() {
			continue
		}
		for _, b := range l.Binaries {
			f := fracPart(x[b])
			if f > eps && f < 1-eps {
				return k, true
			}
		}
	}
	return 0, false
}

// branchLinking splits linking set k's binaries the same way branchSOS
// splits an SOS set's members, since both are a partition where exactly
// one member must end up nonzero.
func (d *driver) branchLinking(n *Node, k int) []*Node {
	l := d.m.Linkings[k]
	split := len(l.Binaries) / 2

	var lowZeros, highZeros []varBound
	for i, b := range l.Binaries {
		if i >= split {
			highZeros = append(highZeros, varBound{Var: b, Lower: 0, Upper: 0})
		} else {
			lowZeros = append(lowZeros, varBound{Var: b, Lower: 0, Upper: 0})
		}
	}
	left := d.newNode(n, highZeros)
	left.branchVar = -1
	right := d.newNode(n, lowZeros)
	right.branchVar = -1
	return []*Node{left, right}
}

// selectSemiContinuousBranch finds a semi-continuous variable whose value
// sits strictly inside its forbidden gap (0, ScLower), violating the
// either-zero-or-at-least-ScLower requirement.
func (d *driver) selectSemiContinuousBranch(x []float64) (int, bool) {
	const eps = 1e-9
	for j, v := range d.m.Vars {
		if v.Kind != model.SemiContinuous || v.ScLower <= 0 {
			continue
		}
		val := x[j]
		if val > eps && val < v.ScLower-eps {
			return j, true
		}
	}
	return 0, false
}

// branchSemiContinuous produces the two children a semi-continuous gap
// violation splits into: one child fixes the variable to 0, the other
// raises its lower bound to ScLower so the relaxation can no longer land
// inside the gap.
func (d *driver) branchSemiContinuous(n *Node, j int) []*Node {
	_, hi := d.effectiveBounds(n, j)
	zero := d.newNode(n, []varBound{{Var: j, Lower: 0, Upper: 0}})
	zero.branchVar = -1
	gap := d.newNode(n, []varBound{{Var: j, Lower: d.m.Vars[j].ScLower, Upper: hi}})
	gap.branchVar = -1
	return []*Node{zero, gap}
}

func clampZeroLo(lo float64) float64 {
	if lo > 0 {
		return 0
	}
	return lo
}

func clampZeroHi(hi float64) float64 {
	if hi < 0 {
		return 0
	}
	return hi
}
