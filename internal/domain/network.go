package domain

import (
	"fmt"

	"github.com/bahyway/alarminsight/internal/geo"
)

// Material identifies the pipe material. Each material carries a fixed
// vulnerability weight used as a crisp modifier during scoring.
type Material string

const (
	MaterialPVC      Material = "pvc"
	MaterialSteel    Material = "steel"
	MaterialConcrete Material = "concrete"
	MaterialCastIron Material = "cast_iron"
	MaterialAsbestos Material = "asbestos"
	MaterialUnknown  Material = "unknown"
)

var materialVulnerability = map[Material]float64{
	MaterialPVC:      0.3,
	MaterialSteel:    0.5,
	MaterialConcrete: 0.6,
	MaterialCastIron: 0.7,
	MaterialAsbestos: 0.9,
	MaterialUnknown:  0.5,
}

// Vulnerability returns the material's fixed vulnerability weight in [0,1].
func (m Material) Vulnerability() float64 {
	if v, ok := materialVulnerability[m]; ok {
		return v
	}
	return materialVulnerability[MaterialUnknown]
}

// ParseMaterial maps an external string onto a known material. Unknown
// strings are an input error; MaterialUnknown must be stated explicitly.
func ParseMaterial(s string) (Material, error) {
	switch Material(s) {
	case MaterialPVC, MaterialSteel, MaterialConcrete, MaterialCastIron, MaterialAsbestos, MaterialUnknown:
		return Material(s), nil
	}
	return "", fmt.Errorf("unknown pipe material %q", s)
}

// JunctionKind marks the role a junction plays in the network.
type JunctionKind string

const (
	JunctionValve      JunctionKind = "valve"
	JunctionPump       JunctionKind = "pump"
	JunctionConnection JunctionKind = "connection"
	JunctionSource     JunctionKind = "source"
	JunctionFacility   JunctionKind = "facility"
)

// Junction is a node of the network graph. Immutable after import except
// for the criticality flag.
type Junction struct {
	ID        string       `json:"id"`
	Location  geo.Point    `json:"location"`
	Elevation float64      `json:"elevation"`
	Kind      JunctionKind `json:"kind"`
	Critical  bool         `json:"critical"`
}

// Validate rejects junctions that cannot join the graph.
func (j Junction) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("junction: id is required")
	}
	switch j.Kind {
	case JunctionValve, JunctionPump, JunctionConnection, JunctionSource, JunctionFacility:
	default:
		return fmt.Errorf("junction %q: unknown kind %q", j.ID, j.Kind)
	}
	return nil
}

// PipeSegment is a directed edge of the network graph. ConditionScore is the
// only mutable attribute; the orchestrator recomputes it per evaluation run
// by deriving a fresh graph snapshot, never by editing a live one.
type PipeSegment struct {
	ID              string       `json:"id"`
	FromJunction    string       `json:"from_junction"`
	ToJunction      string       `json:"to_junction"`
	Material        Material     `json:"material"`
	DiameterMM      float64      `json:"diameter_mm"`
	AgeYears        float64      `json:"age_years"`
	LengthM         float64      `json:"length_m"`
	HistoricalLeaks int          `json:"historical_leaks"`
	Geometry        geo.Polyline `json:"geometry"`
	ConditionScore  float64      `json:"condition_score"`
}

// Validate rejects segments that cannot join the graph. Endpoint existence
// is checked at graph build time, where the junction set is known.
func (s PipeSegment) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("pipe segment: id is required")
	}
	if s.FromJunction == "" || s.ToJunction == "" {
		return fmt.Errorf("pipe segment %q: both endpoints are required", s.ID)
	}
	if _, err := ParseMaterial(string(s.Material)); err != nil {
		return fmt.Errorf("pipe segment %q: %w", s.ID, err)
	}
	if s.AgeYears < 0 {
		return fmt.Errorf("pipe segment %q: negative age", s.ID)
	}
	if s.HistoricalLeaks < 0 {
		return fmt.Errorf("pipe segment %q: negative historical leak count", s.ID)
	}
	if len(s.Geometry) < 2 {
		return fmt.Errorf("pipe segment %q: geometry needs at least two points", s.ID)
	}
	return nil
}
