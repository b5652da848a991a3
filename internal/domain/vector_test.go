package domain

import "testing"

func TestVectorRoundTripText(t *testing.T) {
	in := Vector{0.5, -1, 0.25}
	raw, err := in.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if raw != "[0.5,-1,0.25]" {
		t.Fatalf("Value: want=%q got=%v", "[0.5,-1,0.25]", raw)
	}
	var out Vector
	if err := out.Scan([]byte("[0.5, -1, 0.25]")); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(out) != 3 || out[0] != 0.5 || out[1] != -1 || out[2] != 0.25 {
		t.Fatalf("Scan: got=%v", out)
	}
}

func TestVectorEmptyIsNull(t *testing.T) {
	raw, err := Vector(nil).Value()
	if err != nil || raw != nil {
		t.Fatalf("Value: want nil got=%v err=%v", raw, err)
	}
	var out Vector
	if err := out.Scan(nil); err != nil || out != nil {
		t.Fatalf("Scan(nil): got=%v err=%v", out, err)
	}
	if err := out.Scan(42); err == nil {
		t.Fatalf("Scan(int): expected error")
	}
}

func TestClampUnit(t *testing.T) {
	cases := map[float64]float64{-0.2: 0, 0.4: 0.4, 1.3: 1}
	for in, want := range cases {
		if got := ClampUnit(in); got != want {
			t.Fatalf("ClampUnit(%v): want=%v got=%v", in, want, got)
		}
	}
}
