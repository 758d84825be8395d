package callback

import "testing"

func TestTableEmitMasksMessages(t *testing.T) {
	var got []Event
	tbl := Table{
		Messages: []Messenger{
			MessengerFunc(EventLPOptimal, func(e Event) { got = append(got, e) }),
			MessengerFunc(EventMILPFeasible, func(e Event) { got = append(got, e) }),
		},
	}
	tbl.Emit(Event{Kind: EventLPOptimal, Objective: 3})
	if len(got) != 1 || got[0].Objective != 3 {
		t.Fatalf("Emit delivered %v, want one event with Objective=3", got)
	}
}

func TestShouldAbort(t *testing.T) {
	tbl := Table{Abort: AborterFunc(func() Decision { return Cancel })}
	if !tbl.ShouldAbort() {
		t.Errorf("ShouldAbort() = false, want true")
	}
	tbl2 := Table{}
	if tbl2.ShouldAbort() {
		t.Errorf("ShouldAbort() with no Aborter = true, want false")
	}
}

func TestLogf(t *testing.T) {
	var line string
	tbl := Table{Log: LoggerFunc(func(s string) { line = s })}
	tbl.Logf("iter %d", 5)
	if line != "iter 5" {
		t.Errorf("Logf produced %q, want %q", line, "iter 5")
	}
}
