// Package alarm owns the alarm lifecycle: creation at first threshold
// crossing, escalation, operator transitions, and the append-only event
// log feeding external notification collaborators.
package alarm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bahyway/alarminsight/internal/domain"
	"github.com/bahyway/alarminsight/internal/ports"
)

// ErrAlarmNotFound is returned when a transition targets an unknown alarm id.
var ErrAlarmNotFound = errors.New("alarminsight: alarm not found")

// Manager enforces the at-most-one-open-alarm-per-segment invariant with a
// per-segment mutual-exclusion boundary around create/escalate. All other
// operations are single-alarm-id scoped.
type Manager struct {
	store ports.AlarmStore
	pub   ports.EventPublisher
	obs   ports.Observability

	mu    sync.Mutex
	segMu map[string]*sync.Mutex

	// alarms created minus alarms resolved since startup, feeding the
	// open-alarms gauge
	open atomic.Int64

	now func() time.Time
}

// NewManager wires the lifecycle manager to its store and publisher.
func NewManager(store ports.AlarmStore, pub ports.EventPublisher, obs ports.Observability) *Manager {
	if pub == nil {
		pub = ports.NopPublisher{}
	}
	if obs == nil {
		obs = ports.NopObservability{}
	}
	return &Manager{
		store: store,
		pub:   pub,
		obs:   obs,
		segMu: make(map[string]*sync.Mutex),
		now:   time.Now,
	}
}

func (m *Manager) segmentLock(segmentID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.segMu[segmentID]
	if !ok {
		l = &sync.Mutex{}
		m.segMu[segmentID] = l
	}
	return l
}

// Apply folds a defect assessment into the segment's alarm state. A segment
// with no open alarm gets one created when the tier reaches Medium; a
// segment with an open alarm is escalated when the tier rose and left
// untouched otherwise. An assessment below Medium never auto-closes an open
// alarm; resolution is an explicit operator act. The returned alarm is nil
// when no alarm exists for the segment.
func (m *Manager) Apply(ctx context.Context, as domain.DefectAssessment) (*domain.Alarm, error) {
	l := m.segmentLock(as.SegmentID)
	l.Lock()
	defer l.Unlock()

	existing, err := m.store.OpenAlarmBySegment(ctx, as.SegmentID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		if as.Tier < domain.TierMedium {
			return nil, nil
		}
		al := domain.NewAlarm(as, as.EvaluatedAt)
		if err := m.store.SaveAlarm(ctx, al, al.Events); err != nil {
			return nil, err
		}
		m.publish(al.Events[0])
		m.obs.IncCounter("alarminsight_alarms_created_total", 1)
		m.obs.SetGauge("alarminsight_open_alarms", float64(m.open.Add(1)))
		m.obs.LogInfo("alarm_created",
			ports.Field{Key: "segment", Value: as.SegmentID},
			ports.Field{Key: "tier", Value: al.Tier.String()})
		return al, nil
	}

	event, err := existing.ApplyAssessment(as)
	if err != nil {
		return existing, err
	}
	if event == nil {
		return existing, nil
	}
	if err := m.store.SaveAlarm(ctx, existing, []domain.AlarmEvent{*event}); err != nil {
		return nil, err
	}
	m.publish(*event)
	m.obs.IncCounter("alarminsight_alarms_escalated_total", 1)
	m.obs.LogInfo("alarm_escalated",
		ports.Field{Key: "segment", Value: as.SegmentID},
		ports.Field{Key: "tier", Value: existing.Tier.String()})
	return existing, nil
}

// Create opens an alarm explicitly. Unlike Apply it fails with
// ErrDuplicateOpenAlarm when the segment already has a non-terminal alarm.
func (m *Manager) Create(ctx context.Context, as domain.DefectAssessment) (*domain.Alarm, error) {
	l := m.segmentLock(as.SegmentID)
	l.Lock()
	defer l.Unlock()

	existing, err := m.store.OpenAlarmBySegment(ctx, as.SegmentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: segment %q has alarm %s (%s)",
			domain.ErrDuplicateOpenAlarm, as.SegmentID, existing.ID, existing.Status)
	}

	al := domain.NewAlarm(as, as.EvaluatedAt)
	if err := m.store.SaveAlarm(ctx, al, al.Events); err != nil {
		return nil, err
	}
	m.publish(al.Events[0])
	m.obs.IncCounter("alarminsight_alarms_created_total", 1)
	m.obs.SetGauge("alarminsight_open_alarms", float64(m.open.Add(1)))
	return al, nil
}

// Acknowledge moves an open alarm to acknowledged, recording the actor.
func (m *Manager) Acknowledge(ctx context.Context, alarmID, actor string) (*domain.Alarm, error) {
	return m.mutate(ctx, alarmID, func(a *domain.Alarm) (*domain.AlarmEvent, error) {
		return a.Acknowledge(actor, m.now())
	})
}

// Dispatch moves an acknowledged alarm to dispatched.
func (m *Manager) Dispatch(ctx context.Context, alarmID string) (*domain.Alarm, error) {
	return m.mutate(ctx, alarmID, func(a *domain.Alarm) (*domain.AlarmEvent, error) {
		return a.Dispatch(m.now())
	})
}

// Resolve closes out the field work with a mandatory note. A resolved
// alarm no longer counts as open, so the gauge drops here rather than
// at Close.
func (m *Manager) Resolve(ctx context.Context, alarmID, note string) (*domain.Alarm, error) {
	al, err := m.mutate(ctx, alarmID, func(a *domain.Alarm) (*domain.AlarmEvent, error) {
		return a.Resolve(note, m.now())
	})
	if err != nil {
		return nil, err
	}
	m.obs.SetGauge("alarminsight_open_alarms", float64(m.open.Add(-1)))
	return al, nil
}

// Close archives a resolved alarm. Closed alarms are immutable afterward
// and are kept as audit trail, never deleted.
func (m *Manager) Close(ctx context.Context, alarmID string) (*domain.Alarm, error) {
	return m.mutate(ctx, alarmID, func(a *domain.Alarm) (*domain.AlarmEvent, error) {
		return a.Close(m.now())
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context, f ports.AlarmFilter) ([]domain.Alarm, error) {
	return m.store.ListAlarms(ctx, f)
}

func (m *Manager) mutate(ctx context.Context, alarmID string, op func(*domain.Alarm) (*domain.AlarmEvent, error)) (*domain.Alarm, error) {
	al, err := m.store.AlarmByID(ctx, alarmID)
	if err != nil {
		return nil, err
	}
	if al == nil {
		return nil, fmt.Errorf("%w: %q", ErrAlarmNotFound, alarmID)
	}

	// The first load only locates the segment. Reload under the segment
	// lock so concurrent transitions on the same alarm serialize against
	// each other and against Apply/Create; without it two racing
	// acknowledges both observe Open and both append an event.
	l := m.segmentLock(al.SegmentID)
	l.Lock()
	defer l.Unlock()

	al, err = m.store.AlarmByID(ctx, alarmID)
	if err != nil {
		return nil, err
	}
	if al == nil {
		return nil, fmt.Errorf("%w: %q", ErrAlarmNotFound, alarmID)
	}

	event, err := op(al)
	if err != nil {
		return nil, err
	}
	if err := m.store.SaveAlarm(ctx, al, []domain.AlarmEvent{*event}); err != nil {
		return nil, err
	}
	m.publish(*event)
	return al, nil
}

func (m *Manager) publish(e domain.AlarmEvent) {
	m.pub.Publish(e)
}
