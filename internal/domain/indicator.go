package domain

import (
	"fmt"
	"time"

	"github.com/bahyway/alarminsight/internal/geo"
)

// IndicatorKind classifies the physical anomaly behind a leak indicator.
type IndicatorKind string

const (
	IndicatorThermal    IndicatorKind = "thermal"
	IndicatorVegetation IndicatorKind = "vegetation"
	IndicatorSubsidence IndicatorKind = "subsidence"
	IndicatorPonding    IndicatorKind = "ponding"
)

// ParseIndicatorKind maps an external string onto a known kind.
func ParseIndicatorKind(s string) (IndicatorKind, error) {
	switch IndicatorKind(s) {
	case IndicatorThermal, IndicatorVegetation, IndicatorSubsidence, IndicatorPonding:
		return IndicatorKind(s), nil
	}
	return "", fmt.Errorf("unknown indicator kind %q", s)
}

// LeakIndicator is an immutable evidence record produced by the external
// detection pipeline. It is never mutated after ingestion and is retained
// for audit even when no segment can be associated with it.
type LeakIndicator struct {
	ID         string        `json:"id"`
	Location   geo.Point     `json:"location"`
	Kind       IndicatorKind `json:"kind"`
	Confidence float64       `json:"confidence"`
	Severity   float64       `json:"severity"`
	CapturedAt time.Time     `json:"captured_at"`
	Provenance string        `json:"provenance"`
}

// Validate rejects evidence records the engine must not partially apply.
func (i LeakIndicator) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("leak indicator: id is required")
	}
	if _, err := ParseIndicatorKind(string(i.Kind)); err != nil {
		return fmt.Errorf("leak indicator %q: %w", i.ID, err)
	}
	if i.Confidence < 0 || i.Confidence > 1 {
		return fmt.Errorf("leak indicator %q: confidence %f out of [0,1]", i.ID, i.Confidence)
	}
	if i.Severity < 0 || i.Severity > 1 {
		return fmt.Errorf("leak indicator %q: severity %f out of [0,1]", i.ID, i.Severity)
	}
	if i.CapturedAt.IsZero() {
		return fmt.Errorf("leak indicator %q: capture timestamp is required", i.ID)
	}
	return nil
}
