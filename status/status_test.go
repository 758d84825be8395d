package status

import "testing"

func TestString(t *testing.T) {
	cases := []struct {
		c    Code
		want string
	}{
		{Optimal, "optimal"},
		{Infeasible, "infeasible"},
		{Code(42), "status(42)"},
	}
	for _, c := range cases {
		if got := c.c.String(); got != c.want {
			t.Errorf("Code(%d).String() = %q, want %q", int(c.c), got, c.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	if Running.Terminal() {
		t.Errorf("Running.Terminal() = true, want false")
	}
	if !Optimal.Terminal() {
		t.Errorf("Optimal.Terminal() = false, want true")
	}
}

func TestOk(t *testing.T) {
	ok := []Code{Optimal, Suboptimal, FeasFound, Fathomed}
	for _, c := range ok {
		if !c.Ok() {
			t.Errorf("%s.Ok() = false, want true", c)
		}
	}
	notOk := []Code{Infeasible, Unbounded, NumFailure, NotRun}
	for _, c := range notOk {
		if c.Ok() {
			t.Errorf("%s.Ok() = true, want false", c)
		}
	}
}
