package alarminsight

import (
	"github.com/bahyway/alarminsight/internal/app/assess"
	"github.com/bahyway/alarminsight/internal/domain"
	"github.com/bahyway/alarminsight/internal/fuzzy"
	"github.com/bahyway/alarminsight/internal/geo"
	"github.com/bahyway/alarminsight/internal/ports"
)

// Point is a planar coordinate in the network's projected system.
type Point = geo.Point

// Polyline is an ordered run of points tracing a segment's geometry.
type Polyline = geo.Polyline

// LeakIndicator is an immutable evidence record from the detection pipeline.
type LeakIndicator = domain.LeakIndicator

// IndicatorKind classifies the physical anomaly behind an indicator.
type IndicatorKind = domain.IndicatorKind

// PipeSegment is a directed edge of the network graph.
type PipeSegment = domain.PipeSegment

// Junction is a node of the network graph.
type Junction = domain.Junction

// Material identifies the pipe material.
type Material = domain.Material

// DefectAssessment is one scored evaluation of a segment.
type DefectAssessment = domain.DefectAssessment

// Factors carries the crisp inputs that drove an assessment.
type Factors = domain.Factors

// FiredRule records one rule activation inside an assessment's trace.
type FiredRule = domain.FiredRule

// Tier is the discrete urgency bucket derived from a DPS.
type Tier = domain.Tier

// Alarm is the aggregate owning alarm identity and lifecycle.
type Alarm = domain.Alarm

// AlarmEvent is one immutable entry of an alarm's event log.
type AlarmEvent = domain.AlarmEvent

// AlarmStatus is the lifecycle state of an alarm.
type AlarmStatus = domain.AlarmStatus

// AlarmFilter narrows ListAlarms results.
type AlarmFilter = ports.AlarmFilter

// BatchResult summarizes one evaluation run.
type BatchResult = assess.BatchResult

// RuleBase is the calibratable fuzzy rule grid.
type RuleBase = fuzzy.RuleBase

// Rule is one fuzzy inference rule.
type Rule = fuzzy.Rule

// AssessmentStore persists the append-only assessment history.
type AssessmentStore = ports.AssessmentStore

// AlarmStore persists alarm aggregates and their event logs.
type AlarmStore = ports.AlarmStore

// EventPublisher hands alarm domain events to an external collaborator.
type EventPublisher = ports.EventPublisher

// EvidenceSource supplies leak indicator batches to the periodic loop.
type EvidenceSource = ports.EvidenceSource

// Observability is the logging and metrics boundary.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// Material constants.
const (
	MaterialPVC      = domain.MaterialPVC
	MaterialSteel    = domain.MaterialSteel
	MaterialConcrete = domain.MaterialConcrete
	MaterialCastIron = domain.MaterialCastIron
	MaterialAsbestos = domain.MaterialAsbestos
	MaterialUnknown  = domain.MaterialUnknown
)

// Indicator kind constants.
const (
	IndicatorThermal    = domain.IndicatorThermal
	IndicatorVegetation = domain.IndicatorVegetation
	IndicatorSubsidence = domain.IndicatorSubsidence
	IndicatorPonding    = domain.IndicatorPonding
)

// Tier constants, re-exported for filter construction.
const (
	TierNone     = domain.TierNone
	TierMedium   = domain.TierMedium
	TierHigh     = domain.TierHigh
	TierCritical = domain.TierCritical
)

// Alarm status constants.
const (
	StatusOpen         = domain.StatusOpen
	StatusAcknowledged = domain.StatusAcknowledged
	StatusDispatched   = domain.StatusDispatched
	StatusResolved     = domain.StatusResolved
	StatusClosed       = domain.StatusClosed
)
