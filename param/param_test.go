package param

import (
	"errors"
	"strings"
	"testing"
)

func testSpecs() map[string]Spec {
	return map[string]Spec{
		"epsint": {Default: FloatValue(1e-7)},
		"maxpivot": {
			Default: IntValue(250),
			Validator: func(v Value) error {
				n, _ := v.Int()
				if n <= 0 {
					return errors.New("must be positive")
				}
				return nil
			},
		},
		"verbose": {Default: StringValue("normal")},
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	s := NewStore(testSpecs())
	if err := s.Set("epsint", FloatValue(1e-9)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := s.Get("epsint")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	f, _ := v.Float()
	if f != 1e-9 {
		t.Errorf("epsint = %v, want 1e-9", f)
	}
}

func TestSetUnknownKey(t *testing.T) {
	s := NewStore(testSpecs())
	err := s.Set("bogus", IntValue(1))
	var unknown ErrUnknownKey
	if !errors.As(err, &unknown) {
		t.Errorf("Set(bogus) error = %v, want ErrUnknownKey", err)
	}
}

func TestSetValidatorRejects(t *testing.T) {
	s := NewStore(testSpecs())
	if err := s.Set("maxpivot", IntValue(-1)); err == nil {
		t.Errorf("Set(maxpivot, -1) succeeded, want error")
	}
	v, _ := s.Get("maxpivot")
	n, _ := v.Int()
	if n != 250 {
		t.Errorf("maxpivot after rejected Set = %d, want default 250", n)
	}
}

func TestWriteRead(t *testing.T) {
	s := NewStore(testSpecs())
	s.Set("epsint", FloatValue(1e-8))
	s.Set("verbose", StringValue("detailed"))

	var buf strings.Builder
	if err := s.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	s2 := NewStore(testSpecs())
	if err := s2.Read(strings.NewReader(buf.String())); err != nil {
		t.Fatalf("Read: %v", err)
	}
	v, _ := s2.Get("epsint")
	f, _ := v.Float()
	if f != 1e-8 {
		t.Errorf("epsint round-tripped as %v, want 1e-8", f)
	}
	v, _ = s2.Get("verbose")
	if v.String() != "detailed" {
		t.Errorf("verbose round-tripped as %v, want detailed", v)
	}
}

func TestReadUnknownKeyAborts(t *testing.T) {
	s := NewStore(testSpecs())
	err := s.Read(strings.NewReader("bogus = 1\n"))
	if err == nil {
		t.Errorf("Read with unknown key succeeded, want error")
	}
}

func TestReset(t *testing.T) {
	s := NewStore(testSpecs())
	s.Set("epsint", FloatValue(42))
	s.Reset()
	v, _ := s.Get("epsint")
	f, _ := v.Float()
	if f != 1e-7 {
		t.Errorf("epsint after Reset = %v, want default 1e-7", f)
	}
}
