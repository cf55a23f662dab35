// Package memstore provides in-memory stores for embedded use and tests.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/bahyway/alarminsight/internal/domain"
	"github.com/bahyway/alarminsight/internal/ports"
)

// Store keeps assessments and alarms in process memory. Assessment history
// and alarm event logs are append-only, mirroring the persistent adapter.
type Store struct {
	mu          sync.RWMutex
	assessments map[string][]domain.DefectAssessment // by segment, append order
	alarms      map[string]*domain.Alarm             // by alarm id
}

// New returns an empty store.
func New() *Store {
	return &Store{
		assessments: make(map[string][]domain.DefectAssessment),
		alarms:      make(map[string]*domain.Alarm),
	}
}

func (s *Store) AppendAssessment(_ context.Context, a domain.DefectAssessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assessments[a.SegmentID] = append(s.assessments[a.SegmentID], a)
	return nil
}

func (s *Store) LatestAssessment(_ context.Context, segmentID string) (*domain.DefectAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hist := s.assessments[segmentID]
	if len(hist) == 0 {
		return nil, nil
	}
	a := hist[len(hist)-1]
	return &a, nil
}

func (s *Store) LatestAssessments(_ context.Context) ([]domain.DefectAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.DefectAssessment, 0, len(s.assessments))
	for _, hist := range s.assessments {
		out = append(out, hist[len(hist)-1])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SegmentID < out[j].SegmentID })
	return out, nil
}

// History returns the full assessment history for a segment, oldest first.
func (s *Store) History(segmentID string) []domain.DefectAssessment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hist := s.assessments[segmentID]
	out := make([]domain.DefectAssessment, len(hist))
	copy(out, hist)
	return out
}

func (s *Store) SaveAlarm(_ context.Context, a *domain.Alarm, _ []domain.AlarmEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alarms[a.ID] = cloneAlarm(a)
	return nil
}

func (s *Store) AlarmByID(_ context.Context, id string) (*domain.Alarm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.alarms[id]
	if !ok {
		return nil, nil
	}
	return cloneAlarm(a), nil
}

func (s *Store) OpenAlarmBySegment(_ context.Context, segmentID string) (*domain.Alarm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.alarms {
		if a.SegmentID == segmentID && a.Open() {
			return cloneAlarm(a), nil
		}
	}
	return nil, nil
}

func (s *Store) ListAlarms(_ context.Context, f ports.AlarmFilter) ([]domain.Alarm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Alarm
	for _, a := range s.alarms {
		if f.Matches(a) {
			out = append(out, *cloneAlarm(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SegmentID != out[j].SegmentID {
			return out[i].SegmentID < out[j].SegmentID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func cloneAlarm(a *domain.Alarm) *domain.Alarm {
	c := *a
	c.Events = make([]domain.AlarmEvent, len(a.Events))
	copy(c.Events, a.Events)
	return &c
}

var (
	_ ports.AssessmentStore = (*Store)(nil)
	_ ports.AlarmStore      = (*Store)(nil)
)
