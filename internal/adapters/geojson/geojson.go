// Package geojson decodes pipe networks and leak indicator batches from
// GeoJSON feature collections. Junctions arrive as Point features, segments
// as LineString features; decoding validates every record and rejects the
// whole document on the first malformed feature.
package geojson

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/bahyway/alarminsight/internal/domain"
	"github.com/bahyway/alarminsight/internal/geo"
)

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string          `json:"type"`
	Geometry   geometry        `json:"geometry"`
	Properties json.RawMessage `json:"properties"`
}

type geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

type junctionProps struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	Elevation float64 `json:"elevation"`
	Critical  bool    `json:"critical"`
}

type segmentProps struct {
	ID              string  `json:"id"`
	FromJunction    string  `json:"from_junction"`
	ToJunction      string  `json:"to_junction"`
	Material        string  `json:"material"`
	DiameterMM      float64 `json:"diameter_mm"`
	AgeYears        float64 `json:"age_years"`
	LengthM         float64 `json:"length_m"`
	HistoricalLeaks int     `json:"historical_leaks"`
}

// DecodeNetwork reads a feature collection and splits it into junctions and
// segments. Records are validated individually; any failure rejects the
// whole document so a partial network never reaches the graph.
func DecodeNetwork(r io.Reader) ([]domain.Junction, []domain.PipeSegment, error) {
	var fc featureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, nil, fmt.Errorf("decode network: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, nil, fmt.Errorf("decode network: expected FeatureCollection, got %q", fc.Type)
	}

	var (
		junctions []domain.Junction
		segments  []domain.PipeSegment
	)
	for i, f := range fc.Features {
		switch f.Geometry.Type {
		case "Point":
			j, err := decodeJunction(f)
			if err != nil {
				return nil, nil, fmt.Errorf("feature %d: %w", i, err)
			}
			junctions = append(junctions, j)
		case "LineString":
			s, err := decodeSegment(f)
			if err != nil {
				return nil, nil, fmt.Errorf("feature %d: %w", i, err)
			}
			segments = append(segments, s)
		default:
			return nil, nil, fmt.Errorf("feature %d: unsupported geometry %q", i, f.Geometry.Type)
		}
	}
	return junctions, segments, nil
}

func decodeJunction(f feature) (domain.Junction, error) {
	var props junctionProps
	if err := json.Unmarshal(f.Properties, &props); err != nil {
		return domain.Junction{}, fmt.Errorf("junction properties: %w", err)
	}
	var coord [2]float64
	if err := json.Unmarshal(f.Geometry.Coordinates, &coord); err != nil {
		return domain.Junction{}, fmt.Errorf("junction %q: point coordinates: %w", props.ID, err)
	}
	j := domain.Junction{
		ID:        props.ID,
		Location:  geo.Point{X: coord[0], Y: coord[1]},
		Elevation: props.Elevation,
		Kind:      domain.JunctionKind(props.Kind),
		Critical:  props.Critical,
	}
	if err := j.Validate(); err != nil {
		return domain.Junction{}, err
	}
	return j, nil
}

func decodeSegment(f feature) (domain.PipeSegment, error) {
	var props segmentProps
	if err := json.Unmarshal(f.Properties, &props); err != nil {
		return domain.PipeSegment{}, fmt.Errorf("segment properties: %w", err)
	}
	var coords [][2]float64
	if err := json.Unmarshal(f.Geometry.Coordinates, &coords); err != nil {
		return domain.PipeSegment{}, fmt.Errorf("segment %q: linestring coordinates: %w", props.ID, err)
	}
	line := make(geo.Polyline, len(coords))
	for i, c := range coords {
		line[i] = geo.Point{X: c[0], Y: c[1]}
	}
	s := domain.PipeSegment{
		ID:              props.ID,
		FromJunction:    props.FromJunction,
		ToJunction:      props.ToJunction,
		Material:        domain.Material(props.Material),
		DiameterMM:      props.DiameterMM,
		AgeYears:        props.AgeYears,
		LengthM:         props.LengthM,
		HistoricalLeaks: props.HistoricalLeaks,
		Geometry:        line,
	}
	if s.LengthM == 0 {
		s.LengthM = line.Length()
	}
	if err := s.Validate(); err != nil {
		return domain.PipeSegment{}, err
	}
	return s, nil
}

type indicatorRecord struct {
	ID         string  `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Kind       string  `json:"kind"`
	Confidence float64 `json:"confidence"`
	Severity   float64 `json:"severity"`
	CapturedAt string  `json:"captured_at"`
	Provenance string  `json:"provenance"`
}

// DecodeIndicators reads a JSON array of leak indicator records. Validation
// happens per record and rejects the whole batch on the first failure, the
// same all-or-nothing contract the orchestrator applies.
func DecodeIndicators(r io.Reader) ([]domain.LeakIndicator, error) {
	var recs []indicatorRecord
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, fmt.Errorf("decode indicators: %w", err)
	}

	out := make([]domain.LeakIndicator, 0, len(recs))
	for i, rec := range recs {
		kind, err := domain.ParseIndicatorKind(rec.Kind)
		if err != nil {
			return nil, fmt.Errorf("indicator %d: %w", i, err)
		}
		capturedAt, err := time.Parse(time.RFC3339, rec.CapturedAt)
		if err != nil {
			return nil, fmt.Errorf("indicator %d (%s): captured_at: %w", i, rec.ID, err)
		}
		ind := domain.LeakIndicator{
			ID:         rec.ID,
			Location:   geo.Point{X: rec.X, Y: rec.Y},
			Kind:       kind,
			Confidence: rec.Confidence,
			Severity:   rec.Severity,
			CapturedAt: capturedAt,
			Provenance: rec.Provenance,
		}
		if err := ind.Validate(); err != nil {
			return nil, fmt.Errorf("indicator %d: %w", i, err)
		}
		out = append(out, ind)
	}
	return out, nil
}
