package domain

import "time"

// Tier is the discrete urgency bucket derived from a DPS via fixed
// thresholds. Ordering matters: escalation compares tiers directly.
type Tier int

const (
	TierNone Tier = iota
	TierMedium
	TierHigh
	TierCritical
)

// TierFor maps a defect probability score onto its urgency tier.
// DPS > 0.9 Critical, > 0.7 High, > 0.5 Medium, otherwise None.
func TierFor(dps float64) Tier {
	switch {
	case dps > 0.9:
		return TierCritical
	case dps > 0.7:
		return TierHigh
	case dps > 0.5:
		return TierMedium
	default:
		return TierNone
	}
}

func (t Tier) String() string {
	switch t {
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	case TierCritical:
		return "critical"
	default:
		return "none"
	}
}

// RecommendedAction returns the operator guidance attached to each tier.
func (t Tier) RecommendedAction() string {
	switch t {
	case TierCritical:
		return "dispatch repair crew immediately"
	case TierHigh:
		return "inspect within one week"
	case TierMedium:
		return "add to next inspection cycle"
	default:
		return "monitor for changes"
	}
}

// FiredRule records one rule activation inside an assessment's trace.
type FiredRule struct {
	Rule     string  `json:"rule"`
	Strength float64 `json:"strength"`
	Term     string  `json:"term"`
}

// Factors carries the crisp inputs that drove an assessment, preserved so a
// score can be explained without re-running the engine.
type Factors struct {
	AgeYears              float64 `json:"age_years"`
	MaterialVulnerability float64 `json:"material_vulnerability"`
	HistoricalLeaks       int     `json:"historical_leaks"`
	IndicatorCount        int     `json:"indicator_count"`
	MeanSeverity          float64 `json:"mean_severity"`
}

// DefectAssessment is a per-segment, per-evaluation-run record. Immutable
// once created; later runs supersede it with a higher Seq, never overwrite.
// An empty Trace together with Fallback marks the deliberate no-rule-fired
// default, distinguishable from a confidently low score.
type DefectAssessment struct {
	SegmentID   string      `json:"segment_id"`
	Seq         uint64      `json:"seq"`
	DPS         float64     `json:"dps"`
	Tier        Tier        `json:"tier"`
	EvidenceIDs []string    `json:"evidence_ids"`
	Trace       []FiredRule `json:"trace"`
	Boosts      []string    `json:"boosts,omitempty"`
	Fallback    bool        `json:"fallback"`
	Factors     Factors     `json:"factors"`
	EvaluatedAt time.Time   `json:"evaluated_at"`
}
