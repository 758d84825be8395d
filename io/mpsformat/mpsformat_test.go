package mpsformat

import (
	"bytes"
	"math"
	"testing"

	"github.com/raller09/lp-solve-sub003/model"
)

func approxEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func buildModel() *model.Model {
	m := model.New(0, 0)
	m.Name = "blend"
	x, _ := m.AddColumn("x", 3, nil, nil)
	y, _ := m.AddColumn("y", 2, nil, nil)
	m.AddConstraint("cap", []int{x, y}, []float64{1, 1}, model.RowLE, 4)
	m.AddConstraint("bal", []int{x, y}, []float64{1, -1}, model.RowEQ, 0)
	m.AddConstraint("band", []int{x}, []float64{1}, model.RowRange, 3)
	m.SetRowSides(2, 1, 3) // band: 1 <= x <= 3
	m.Vars[x].Kind = model.Integer
	m.SetBounds(x, 0, 10)
	m.Vars[y].Kind = model.Binary
	m.SetBounds(y, 0, 1)
	return m
}

// TestRoundTrip checks rows, columns, RHS, RANGES and BOUNDS all survive a
// write/read cycle through the free-MPS dialect.
func TestRoundTrip(t *testing.T) {
	m := buildModel()
	var buf bytes.Buffer
	if err := (Codec{}).WriteModel(&buf, m); err != nil {
		t.Fatalf("WriteModel: %v", err)
	}

	got, err := (Codec{}).ReadModel(&buf)
	if err != nil {
		t.Fatalf("ReadModel: %v\ninput:\n%s", err, buf.String())
	}

	if got.Name != "blend" {
		t.Errorf("Name = %q, want blend", got.Name)
	}
	if got.NCols() != 2 || got.NRows() != 3 {
		t.Fatalf("dims = (%d rows, %d cols), want (3, 2)", got.NRows(), got.NCols())
	}

	gx, _ := got.ColumnIndex("x")
	gy, _ := got.ColumnIndex("y")
	if !approxEqual(got.Vars[gx].Obj, 3) || !approxEqual(got.Vars[gy].Obj, 2) {
		t.Errorf("objective = (%v, %v), want (3, 2)", got.Vars[gx].Obj, got.Vars[gy].Obj)
	}
	if got.Vars[gx].Kind != model.Integer {
		t.Errorf("x Kind = %v, want Integer", got.Vars[gx].Kind)
	}
	if got.Vars[gy].Kind != model.Binary {
		t.Errorf("y Kind = %v, want Binary", got.Vars[gy].Kind)
	}
	if !approxEqual(got.Vars[gx].Upper, 10) {
		t.Errorf("x Upper = %v, want 10", got.Vars[gx].Upper)
	}
	if !approxEqual(got.Vars[gy].Upper, 1) {
		t.Errorf("y Upper = %v, want 1", got.Vars[gy].Upper)
	}

	capRow, _ := got.RowIndex("cap")
	if got.Rows[capRow].Type() != model.RowLE || !approxEqual(got.Rows[capRow].Rhs, 4) {
		t.Errorf("cap row = %+v, want <= 4", got.Rows[capRow])
	}
	balRow, _ := got.RowIndex("bal")
	if got.Rows[balRow].Type() != model.RowEQ || !approxEqual(got.Rows[balRow].Rhs, 0) {
		t.Errorf("bal row = %+v, want = 0", got.Rows[balRow])
	}
	bandRow, _ := got.RowIndex("band")
	if !approxEqual(got.Rows[bandRow].Lhs, 1) || !approxEqual(got.Rows[bandRow].Rhs, 3) {
		t.Errorf("band row = %+v, want [1, 3]", got.Rows[bandRow])
	}
}

// TestUnknownRowRejected checks that a COLUMNS entry referencing an
// undeclared row is an error rather than a silent no-op.
func TestUnknownRowRejected(t *testing.T) {
	input := "NAME T\nROWS\n N OBJ\nCOLUMNS\n x OBJ 1\n x ghost 2\nRHS\nBOUNDS\nENDATA\n"
	_, err := (Codec{}).ReadModel(bytes.NewBufferString(input))
	if err == nil {
		t.Fatal("expected error for unknown row reference")
	}
}
