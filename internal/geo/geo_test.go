package geo

import (
	"math"
	"testing"
)

func TestPointDistance(t *testing.T) {
	if d := (Point{X: 0, Y: 0}).DistanceTo(Point{X: 3, Y: 4}); d != 5 {
		t.Fatalf("expected 5, got %f", d)
	}
	if d := (Point{X: 2, Y: 2}).DistanceTo(Point{X: 2, Y: 2}); d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestPolylineLength(t *testing.T) {
	line := Polyline{{X: 0, Y: 0}, {X: 3, Y: 4}, {X: 3, Y: 10}}
	if l := line.Length(); l != 11 {
		t.Fatalf("expected 11, got %f", l)
	}
	if l := (Polyline{}).Length(); l != 0 {
		t.Fatalf("empty polyline length = %f, want 0", l)
	}
	if l := (Polyline{{X: 1, Y: 1}}).Length(); l != 0 {
		t.Fatalf("single point length = %f, want 0", l)
	}
}

func TestDistanceToSegment(t *testing.T) {
	a, b := Point{X: 0, Y: 0}, Point{X: 10, Y: 0}

	// perpendicular projection hits the interior
	if d := DistanceToSegment(Point{X: 5, Y: 3}, a, b); d != 3 {
		t.Fatalf("interior: expected 3, got %f", d)
	}
	// projection past an endpoint clamps to it
	if d := DistanceToSegment(Point{X: 14, Y: 3}, a, b); d != 5 {
		t.Fatalf("clamped: expected 5, got %f", d)
	}
	if d := DistanceToSegment(Point{X: -3, Y: 4}, a, b); d != 5 {
		t.Fatalf("clamped at start: expected 5, got %f", d)
	}
	// degenerate zero-length segment
	if d := DistanceToSegment(Point{X: 3, Y: 4}, a, a); d != 5 {
		t.Fatalf("degenerate: expected 5, got %f", d)
	}
}

func TestDistanceToPolyline(t *testing.T) {
	line := Polyline{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}

	if d := DistanceToPolyline(Point{X: 5, Y: 1}, line); d != 1 {
		t.Fatalf("expected 1, got %f", d)
	}
	if d := DistanceToPolyline(Point{X: 12, Y: 5}, line); d != 2 {
		t.Fatalf("second leg: expected 2, got %f", d)
	}
	if d := DistanceToPolyline(Point{X: 1, Y: 1}, Polyline{}); !math.IsInf(d, 1) {
		t.Fatalf("empty polyline: expected +Inf, got %f", d)
	}
	if d := DistanceToPolyline(Point{X: 3, Y: 4}, Polyline{{X: 0, Y: 0}}); d != 5 {
		t.Fatalf("single point: expected 5, got %f", d)
	}
}
