package geo

import "math"

// Point is a position in projected planar coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Polyline is an ordered sequence of points describing a line geometry.
type Polyline []Point

// DistanceTo returns the Euclidean distance between two points.
func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Length returns the total length of the polyline.
func (l Polyline) Length() float64 {
	var total float64
	for i := 1; i < len(l); i++ {
		total += l[i-1].DistanceTo(l[i])
	}
	return total
}

// DistanceToSegment returns the perpendicular distance from p to the segment
// a-b, clamped to the segment's endpoints.
func DistanceToSegment(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return p.DistanceTo(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.DistanceTo(Point{X: a.X + t*dx, Y: a.Y + t*dy})
}

// DistanceToPolyline returns the minimum distance from p to any span of line.
// An empty polyline yields +Inf; a single point degenerates to point distance.
func DistanceToPolyline(p Point, line Polyline) float64 {
	if len(line) == 0 {
		return math.Inf(1)
	}
	if len(line) == 1 {
		return p.DistanceTo(line[0])
	}
	min := math.Inf(1)
	for i := 1; i < len(line); i++ {
		if d := DistanceToSegment(p, line[i-1], line[i]); d < min {
			min = d
		}
	}
	return min
}
