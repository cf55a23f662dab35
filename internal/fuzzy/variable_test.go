package fuzzy

import (
	"math"
	"testing"
)

func TestTrapezoidMembership(t *testing.T) {
	s := Trapezoid(5, 10, 20, 25)
	cases := []struct {
		x    float64
		want float64
	}{
		{0, 0},
		{5, 0},
		{7.5, 0.5},
		{10, 1},
		{15, 1},
		{20, 1},
		{22.5, 0.5},
		{25, 0},
		{30, 0},
	}
	for _, c := range cases {
		if got := s.Membership(c.x); math.Abs(got-c.want) > 1e-12 {
			t.Fatalf("membership(%f) = %f, want %f", c.x, got, c.want)
		}
	}
}

func TestDegenerateTrapezoidPlateau(t *testing.T) {
	// new age: A=B=C collapse onto the left edge
	s := Trapezoid(0, 0, 0, 10)
	if got := s.Membership(0); got != 1 {
		t.Fatalf("membership at collapsed plateau = %f, want 1", got)
	}
	if got := s.Membership(5); got != 0.5 {
		t.Fatalf("membership(5) = %f, want 0.5", got)
	}
	if got := s.Membership(10); got != 0 {
		t.Fatalf("membership at D = %f, want 0", got)
	}
}

func TestRightShoulderNeverFallsOff(t *testing.T) {
	s := RightShoulder(40, 60)
	if got := s.Membership(39); got != 0 {
		t.Fatalf("membership below A = %f, want 0", got)
	}
	if got := s.Membership(50); got != 0.5 {
		t.Fatalf("membership(50) = %f, want 0.5", got)
	}
	for _, x := range []float64{60, 100, 1e9} {
		if got := s.Membership(x); got != 1 {
			t.Fatalf("membership(%g) = %f, want 1", x, got)
		}
	}
}

func TestDefaultLibraryTermOverlap(t *testing.T) {
	lib := DefaultLibrary()

	// age 22 sits in the moderate/old overlap
	deg, err := lib.Fuzzify(VarPipeAge, 22)
	if err != nil {
		t.Fatalf("fuzzify: %v", err)
	}
	if deg["moderate"] <= 0 || deg["old"] <= 0 {
		t.Fatalf("expected moderate and old overlap at 22, got %+v", deg)
	}

	// density 3 sits in the several/many overlap
	deg, err = lib.Fuzzify(VarIndicatorDensity, 3)
	if err != nil {
		t.Fatalf("fuzzify: %v", err)
	}
	if deg["several"] <= 0 {
		t.Fatalf("expected several membership at 3, got %+v", deg)
	}
}

func TestOutTermCenters(t *testing.T) {
	want := map[OutTerm]float64{
		OutLow:      0.2,
		OutMedium:   0.5,
		OutHigh:     0.75,
		OutVeryHigh: 0.95,
	}
	for term, center := range want {
		if got := term.Center(); got != center {
			t.Fatalf("%s center = %f, want %f", term, got, center)
		}
	}
}
