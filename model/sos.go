package model

// SOSType distinguishes special-ordered-set semantics (spec.md §3, GLOSSARY).
type SOSType int

const (
	SOS1 SOSType = 1 // at most one nonzero member
	SOS2 SOSType = 2 // at most two consecutive (by weight) nonzero members
)

// SOSMember pairs a variable index with its ordering weight.
type SOSMember struct {
	VarIndex int
	Weight   float64
}

// SOS is a special ordered set (spec.md §3).
type SOS struct {
	Name     string
	Type     SOSType
	Priority int
	Members  []SOSMember // kept sorted by ascending Weight
}

// Linking relates an integer variable to a set-partition of binary
// indicator variables (spec.md §3, GLOSSARY): v = Offset + sum_i i*b[i],
// sum_i b[i] = 1. Binaries []int stays nil until the façade's lazy
// materialization hook creates them (spec.md §9).
type Linking struct {
	Var      int
	Binaries []int
	Offset   int

	// PartitionRow and LinkRow are the row indices of the two coupling
	// constraints MaterializeLinking adds (sum_i b[i] = 1 and v - sum_i
	// i*b[i] = Offset). Zero until materialization runs; recorded here so
	// the rows can be found and torn down if this linking set ever is.
	PartitionRow int
	LinkRow      int

	// zeroFixed/oneFixed track, per binary, whether bound-change events
	// have pinned it to 0 or to 1; maintained incrementally by
	// Model.SetBounds/SetBoundsTighter so counts can be queried without
	// rescanning (spec.md §3).
	zeroFixed, oneFixed int
}

// NeedsMaterialization reports whether the binary copies have not yet been
// created for this linking set.
func (l Linking) NeedsMaterialization() bool { return l.Binaries == nil }

// RecordFix counts one of this set's binaries becoming fixed to 1
// (fixedToOne) or to 0; called by Model.recordLinkingFix from SetBounds and
// SetBoundsTighter (spec.md §9).
func (l *Linking) RecordFix(fixedToOne bool) {
	if fixedToOne {
		l.oneFixed++
	} else {
		l.zeroFixed++
	}
}

// Counts returns the current zero-fixed and one-fixed binary counts.
func (l Linking) Counts() (zeroFixed, oneFixed int) { return l.zeroFixed, l.oneFixed }
