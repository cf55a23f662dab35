package alarminsight

import (
	"io"

	base "github.com/bahyway/alarminsight/pkg/alarminsight"

	"github.com/bahyway/alarminsight/internal/alarm"
	"github.com/bahyway/alarminsight/internal/app/assess"
	"github.com/bahyway/alarminsight/internal/domain"
	"github.com/bahyway/alarminsight/internal/graph"
)

// Re-exported errors for convenience.
var (
	ErrNoNetwork           = assess.ErrNoNetwork
	ErrUnknownSegment      = graph.ErrUnknownSegment
	ErrUnknownJunction     = graph.ErrUnknownJunction
	ErrNoPathFound         = graph.ErrNoPathFound
	ErrHopBoundExceeded    = graph.ErrHopBoundExceeded
	ErrInvalidTransition   = domain.ErrInvalidTransition
	ErrDuplicateOpenAlarm  = domain.ErrDuplicateOpenAlarm
	ErrStaleAssessment     = domain.ErrStaleAssessment
	ErrEmptyNote           = domain.ErrEmptyNote
	ErrAlarmNotFound       = alarm.ErrAlarmNotFound
)

// Type aliases so consumers can import github.com/bahyway/alarminsight
// directly.
type (
	Config           = base.Config
	AssessConfig     = base.AssessConfig
	ResolverConfig   = base.ResolverConfig
	GraphConfig      = base.GraphConfig
	PostgresConfig   = base.PostgresConfig
	ServerConfig     = base.ServerConfig
	EvidenceConfig   = base.EvidenceConfig
	Engine           = base.Engine
	EngineOption     = base.EngineOption
	Point            = base.Point
	Polyline         = base.Polyline
	LeakIndicator    = base.LeakIndicator
	IndicatorKind    = base.IndicatorKind
	PipeSegment      = base.PipeSegment
	Junction         = base.Junction
	Material         = base.Material
	DefectAssessment = base.DefectAssessment
	Factors          = base.Factors
	FiredRule        = base.FiredRule
	Tier             = base.Tier
	Alarm            = base.Alarm
	AlarmEvent       = base.AlarmEvent
	AlarmStatus      = base.AlarmStatus
	AlarmFilter      = base.AlarmFilter
	BatchResult      = base.BatchResult
	RuleBase         = base.RuleBase
	Rule             = base.Rule
	AssessmentStore  = base.AssessmentStore
	AlarmStore       = base.AlarmStore
	EventPublisher   = base.EventPublisher
	EvidenceSource   = base.EvidenceSource
	Observability    = base.Observability
	Field            = base.Field
)

// Tier and status constants.
const (
	TierNone     = base.TierNone
	TierMedium   = base.TierMedium
	TierHigh     = base.TierHigh
	TierCritical = base.TierCritical

	MaterialPVC      = base.MaterialPVC
	MaterialSteel    = base.MaterialSteel
	MaterialConcrete = base.MaterialConcrete
	MaterialCastIron = base.MaterialCastIron
	MaterialAsbestos = base.MaterialAsbestos
	MaterialUnknown  = base.MaterialUnknown

	IndicatorThermal    = base.IndicatorThermal
	IndicatorVegetation = base.IndicatorVegetation
	IndicatorSubsidence = base.IndicatorSubsidence
	IndicatorPonding    = base.IndicatorPonding

	StatusOpen         = base.StatusOpen
	StatusAcknowledged = base.StatusAcknowledged
	StatusDispatched   = base.StatusDispatched
	StatusResolved     = base.StatusResolved
	StatusClosed       = base.StatusClosed
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Codec helpers.
func DecodeNetwork(r io.Reader) ([]Junction, []PipeSegment, error) {
	return base.DecodeNetwork(r)
}

func DecodeIndicators(r io.Reader) ([]LeakIndicator, error) {
	return base.DecodeIndicators(r)
}

// Engine construction and options.
func NewEngine(cfg *Config, opts ...EngineOption) (*Engine, error) {
	return base.NewEngine(cfg, opts...)
}

func WithAssessmentStore(s AssessmentStore) EngineOption {
	return base.WithAssessmentStore(s)
}

func WithAlarmStore(s AlarmStore) EngineOption {
	return base.WithAlarmStore(s)
}

func WithPublisher(p EventPublisher) EngineOption {
	return base.WithPublisher(p)
}

func WithObservability(obs Observability) EngineOption {
	return base.WithObservability(obs)
}

func WithEvidenceSource(src EvidenceSource) EngineOption {
	return base.WithEvidenceSource(src)
}

func WithRuleBase(rb RuleBase) EngineOption {
	return base.WithRuleBase(rb)
}
