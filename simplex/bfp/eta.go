package bfp

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrChainSingular is returned by etaChain.solve when an update vector has a
// zero pivot entry, the product-form-of-inverse analogue of a singular
// elimination step.
var ErrChainSingular = errors.New("bfp: update chain is singular")

// etaChain is a chain of rank-one updates to a factorized basis, expressed
// implicitly as the product of elementary matrices
//
//	E_i = I + (y - e_k) * e_k^T
//
// such that B * E_0 * ... * E_[i-1] stays equal to the current basis matrix
// after i column replacements. It generalizes
// optimize/convex/lp/swap.go's Swap type: the same Sherman-Morrison
// recurrence and the same accumulated condition-number bound, but exposed
// through bfp.Factorization's State machine instead of a bare swapCondTol
// package constant. Its forestRow index is only maintained when non-nil,
// and Factorization never creates it (Options.ForestTomlin is not read).
type etaChain struct {
	dim       int
	pos       []int     // pos[i]: basis position (pivot row k) replaced by update i
	vecs      []float64 // update i's vector y, dim entries, contiguous: vecs[i*dim:(i+1)*dim]
	cond      float64
	forestRow map[int][]int // forestTomlin only: row -> indices of updates touching that row
}

func (c *etaChain) reset(dim int) {
	c.dim = dim
	c.pos = c.pos[:0]
	c.vecs = c.vecs[:0]
	c.cond = 0
	if c.forestRow != nil {
		c.forestRow = make(map[int][]int)
	}
}

func (c *etaChain) len() int { return len(c.pos) }

// append adds update vector y, replacing basis position k, following
// Swap.Append's condition-number bookkeeping (swap.go's cond helper,
// 'M'-norm case).
func (c *etaChain) append(y []float64, k int) error {
	if len(y) != c.dim {
		panic("bfp: etaChain.append: dimension mismatch")
	}
	if y[k] == 0 {
		return ErrChainSingular
	}
	est := condEstimate(y, k)
	if c.len() == 0 {
		c.cond = est
	} else {
		c.cond *= est
	}
	c.pos = append(c.pos, k)
	c.vecs = append(c.vecs, y...)
	if c.forestRow != nil {
		idx := c.len() - 1
		for r, v := range y {
			if v != 0 {
				c.forestRow[r] = append(c.forestRow[r], idx)
			}
		}
	}
	return nil
}

// solve applies the chain to x in place: forward order (E_0...E_{n-1})*z=x
// when trans is false, transposed order when trans is true. Mirrors
// Swap.SolveVec exactly (spec.md §4.C).
func (c *etaChain) solve(x []float64, trans bool) error {
	n := c.len()
	if !trans {
		for i := 0; i < n; i++ {
			k := c.pos[i]
			y := c.vecs[i*c.dim : (i+1)*c.dim]
			a := y[k]
			if a == 0 {
				return ErrChainSingular
			}
			vk := x[k] / a
			floats.AddScaled(x, -vk, y)
			x[k] = vk
		}
		return nil
	}
	for i := n - 1; i >= 0; i-- {
		k := c.pos[i]
		y := c.vecs[i*c.dim : (i+1)*c.dim]
		a := y[k]
		if a == 0 {
			return ErrChainSingular
		}
		vk := x[k]
		x[k] = vk - (floats.Dot(y, x)-vk)/a
	}
	return nil
}

// condEstimate is the 'M'-norm condition number of E = I + (y-e_k)*e_k^T,
// ported from swap.go's cond/exclusiveAbsMax helpers.
func condEstimate(y []float64, k int) float64 {
	yk := math.Abs(y[k])
	if yk == 0 {
		return math.Inf(1)
	}
	beta := 1 / yk
	ymax := exclusiveAbsMax(y, k)
	normA := math.Max(1, math.Max(ymax, yk))
	normAInv := math.Max(1, beta*math.Max(ymax, 1))
	return normA * normAInv
}

func exclusiveAbsMax(y []float64, k int) float64 {
	n := len(y)
	switch {
	case k > 0 && k < n-1:
		return math.Max(maxAbs(y[:k]), maxAbs(y[k+1:]))
	case k == 0:
		return maxAbs(y[1:])
	default:
		return maxAbs(y[:n-1])
	}
}

func maxAbs(y []float64) float64 {
	m := 0.0
	for _, v := range y {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}
