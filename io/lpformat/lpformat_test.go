package lpformat

import (
	"bytes"
	"math"
	"testing"

	"github.com/raller09/lp-solve-sub003/model"
)

func approxEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func buildModel() *model.Model {
	m := model.New(0, 0)
	m.Name = "diet"
	m.Sense = model.Maximize
	x, _ := m.AddColumn("x", 3, nil, nil)
	y, _ := m.AddColumn("y", 2, nil, nil)
	m.AddConstraint("cap", []int{x, y}, []float64{1, 1}, model.RowLE, 4)
	m.AddConstraint("min_y", []int{y}, []float64{1}, model.RowGE, 1)
	m.Vars[x].Kind = model.Integer
	m.SetBounds(x, 0, 10)
	return m
}

// TestRoundTrip checks that writing then reading a model back reproduces
// its sense, objective, constraints, bounds and integrality.
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

	if got.Sense != model.Maximize {
		t.Errorf("Sense = %v, want Maximize", got.Sense)
	}
	if got.NCols() != 2 || got.NRows() != 2 {
		t.Fatalf("dims = (%d rows, %d cols), want (2, 2)", got.NRows(), got.NCols())
	}
	gx, ok := got.ColumnIndex("x")
	if !ok {
		t.Fatal("column x missing")
	}
	gy, ok := got.ColumnIndex("y")
	if !ok {
		t.Fatal("column y missing")
	}
	if !approxEqual(got.Vars[gx].Obj, 3) || !approxEqual(got.Vars[gy].Obj, 2) {
		t.Errorf("objective coefficients = (%v, %v), want (3, 2)", got.Vars[gx].Obj, got.Vars[gy].Obj)
	}
	if got.Vars[gx].Kind != model.Integer {
		t.Errorf("x Kind = %v, want Integer", got.Vars[gx].Kind)
	}
	if !approxEqual(got.Vars[gx].Upper, 10) {
		t.Errorf("x Upper = %v, want 10", got.Vars[gx].Upper)
	}

	capRow, ok := got.RowIndex("cap")
	if !ok {
		t.Fatal("row cap missing")
	}
	if got.Rows[capRow].Type() != model.RowLE || !approxEqual(got.Rows[capRow].Rhs, 4) {
		t.Errorf("cap row = %+v, want <= 4", got.Rows[capRow])
	}
	minY, ok := got.RowIndex("min_y")
	if !ok {
		t.Fatal("row min_y missing")
	}
	if got.Rows[minY].Type() != model.RowGE || !approxEqual(got.Rows[minY].Lhs, 1) {
		t.Errorf("min_y row = %+v, want >= 1", got.Rows[minY])
	}
}

// TestMissingObjectiveIsRejected checks that a statement list with no
// max:/min: line is an error rather than a silently zero objective.
func TestMissingObjectiveIsRejected(t *testing.T) {
	_, err := (Codec{}).ReadModel(bytes.NewBufferString("c1: x <= 1;\n"))
	if err == nil {
		t.Fatal("expected error for missing objective")
	}
}
