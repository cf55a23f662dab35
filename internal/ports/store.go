package ports

import (
	"context"

	"github.com/bahyway/alarminsight/internal/domain"
)

// AlarmFilter narrows ListAlarms results. Zero value matches everything.
type AlarmFilter struct {
	SegmentID string
	Statuses  []domain.AlarmStatus
	MinTier   domain.Tier
	OpenOnly  bool
}

// Matches reports whether an alarm passes the filter.
func (f AlarmFilter) Matches(a *domain.Alarm) bool {
	if f.SegmentID != "" && a.SegmentID != f.SegmentID {
		return false
	}
	if f.OpenOnly && !a.Open() {
		return false
	}
	if a.Tier < f.MinTier {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if a.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// AssessmentStore persists the append-only defect assessment history.
type AssessmentStore interface {
	// AppendAssessment records a new assessment. Earlier assessments for
	// the same segment are superseded, never overwritten.
	AppendAssessment(ctx context.Context, a domain.DefectAssessment) error
	// LatestAssessment returns the newest assessment for a segment, or
	// (nil, nil) when the segment was never assessed.
	LatestAssessment(ctx context.Context, segmentID string) (*domain.DefectAssessment, error)
	// LatestAssessments returns the newest assessment per segment.
	LatestAssessments(ctx context.Context) ([]domain.DefectAssessment, error)
}

// AlarmStore persists alarm aggregates and their append-only event logs.
type AlarmStore interface {
	// SaveAlarm persists the aggregate and appends the given new events.
	SaveAlarm(ctx context.Context, a *domain.Alarm, newEvents []domain.AlarmEvent) error
	// AlarmByID loads one alarm, or (nil, nil) when absent.
	AlarmByID(ctx context.Context, id string) (*domain.Alarm, error)
	// OpenAlarmBySegment returns the segment's non-terminal alarm, or
	// (nil, nil) when the segment has none.
	OpenAlarmBySegment(ctx context.Context, segmentID string) (*domain.Alarm, error)
	// ListAlarms returns alarms matching the filter.
	ListAlarms(ctx context.Context, f AlarmFilter) ([]domain.Alarm, error)
}
