package fuzzy

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownVariable is returned when a variable name is not in the library.
var ErrUnknownVariable = errors.New("alarminsight: unknown fuzzy variable")

// Linguistic variable names used by the defect rule base.
const (
	VarPipeAge          = "pipe_age"
	VarIndicatorDensity = "indicator_density"
)

// Shape is a trapezoidal membership function over [A,D] with plateau [B,C].
// Triangles collapse B onto C; open shoulders push C and D to +Inf.
type Shape struct {
	A, B, C, D float64
}

// Trapezoid builds a membership shape from its four knots.
func Trapezoid(a, b, c, d float64) Shape { return Shape{A: a, B: b, C: c, D: d} }

// RightShoulder builds a shape that ramps up over [a,b] and stays at 1.
func RightShoulder(a, b float64) Shape {
	return Shape{A: a, B: b, C: math.Inf(1), D: math.Inf(1)}
}

// Membership returns the degree of x in the shape, clamped to [0,1].
func (s Shape) Membership(x float64) float64 {
	switch {
	case x < s.A || x > s.D:
		return 0
	case x < s.B:
		return clamp01((x - s.A) / (s.B - s.A))
	case x <= s.C:
		return 1
	default:
		return clamp01((s.D - x) / (s.D - s.C))
	}
}

// Term binds a linguistic term name to its membership shape.
type Term struct {
	Name  string
	Shape Shape
}

// Variable is a linguistic variable with overlapping terms. Degrees across
// terms need not sum to 1.
type Variable struct {
	Name  string
	Terms []Term
}

// Fuzzify converts a crisp value into membership degrees per term.
func (v Variable) Fuzzify(x float64) map[string]float64 {
	out := make(map[string]float64, len(v.Terms))
	for _, t := range v.Terms {
		out[t.Name] = t.Shape.Membership(x)
	}
	return out
}

// Library is the registry of linguistic variables, loaded once and passed
// explicitly into the rule engine.
type Library struct {
	vars map[string]Variable
}

// NewLibrary builds a registry from the given variables.
func NewLibrary(vars ...Variable) *Library {
	m := make(map[string]Variable, len(vars))
	for _, v := range vars {
		m[v.Name] = v
	}
	return &Library{vars: m}
}

// Fuzzify looks up a variable and fuzzifies the crisp input.
func (l *Library) Fuzzify(name string, x float64) (map[string]float64, error) {
	v, ok := l.vars[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return v.Fuzzify(x), nil
}

// DefaultLibrary returns the documented variables for pipe age and
// indicator density. The knots come from the field calibration examples and
// are defaults, not derived requirements.
func DefaultLibrary() *Library {
	return NewLibrary(
		Variable{
			Name: VarPipeAge,
			Terms: []Term{
				{Name: "new", Shape: Trapezoid(0, 0, 0, 10)},
				{Name: "moderate", Shape: Trapezoid(5, 10, 20, 25)},
				{Name: "old", Shape: Trapezoid(20, 30, 40, 50)},
				{Name: "ancient", Shape: RightShoulder(40, 60)},
			},
		},
		Variable{
			Name: VarIndicatorDensity,
			Terms: []Term{
				{Name: "few", Shape: Trapezoid(0, 0, 0, 2)},
				{Name: "several", Shape: Trapezoid(1, 2, 3, 4)},
				{Name: "many", Shape: RightShoulder(3, 5)},
			},
		},
	)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
