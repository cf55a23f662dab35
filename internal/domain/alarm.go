package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidTransition is returned when an alarm operation is attempted from
// a state that does not permit it. The wrapped message names both the
// attempted transition and the current state so callers can re-query and
// retry the correct one.
var ErrInvalidTransition = errors.New("alarminsight: invalid alarm transition")

// ErrDuplicateOpenAlarm is returned when a second alarm would be created for
// a segment that already has a non-terminal one.
var ErrDuplicateOpenAlarm = errors.New("alarminsight: duplicate open alarm for segment")

// ErrStaleAssessment is returned when an assessment timestamped earlier than
// the alarm's last update tries to mutate it.
var ErrStaleAssessment = errors.New("alarminsight: stale assessment")

// ErrEmptyNote is returned when resolve is called without a note.
var ErrEmptyNote = errors.New("alarminsight: resolution note is required")

// AlarmStatus is the lifecycle state of an alarm.
// Open → Acknowledged → Dispatched → Resolved → Closed. Escalation is a tier
// upgrade on an open or acknowledged alarm, not a state of its own.
type AlarmStatus string

const (
	StatusOpen         AlarmStatus = "open"
	StatusAcknowledged AlarmStatus = "acknowledged"
	StatusDispatched   AlarmStatus = "dispatched"
	StatusResolved     AlarmStatus = "resolved"
	StatusClosed       AlarmStatus = "closed"
)

// EventKind names the domain events an alarm can raise.
type EventKind string

const (
	EventAlarmCreated      EventKind = "AlarmCreated"
	EventAlarmEscalated    EventKind = "AlarmEscalated"
	EventAlarmAcknowledged EventKind = "AlarmAcknowledged"
	EventAlarmDispatched   EventKind = "AlarmDispatched"
	EventAlarmResolved     EventKind = "AlarmResolved"
	EventAlarmClosed       EventKind = "AlarmClosed"
)

// AlarmEvent is an immutable entry of an alarm's event log. The log is the
// audit trail and the integration point for external notification
// collaborators; each transition produces exactly one event.
type AlarmEvent struct {
	ID        string    `json:"id"`
	AlarmID   string    `json:"alarm_id"`
	SegmentID string    `json:"segment_id"`
	Kind      EventKind `json:"kind"`
	DPS       float64   `json:"dps"`
	Tier      Tier      `json:"tier"`
	Actor     string    `json:"actor,omitempty"`
	Note      string    `json:"note,omitempty"`
	At        time.Time `json:"at"`
}

// Alarm is the aggregate root owning alarm identity and lifecycle. Current
// state is a fold over the event log; the only mutation path is through the
// transition methods, each of which appends exactly one event. Alarms are
// never deleted.
type Alarm struct {
	ID        string       `json:"id"`
	SegmentID string       `json:"segment_id"`
	DPS       float64      `json:"dps"`
	Tier      Tier         `json:"tier"`
	Status    AlarmStatus  `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Events    []AlarmEvent `json:"events"`
}

// NewAlarm opens an alarm from the assessment that first crossed the Medium
// threshold and records the AlarmCreated event.
func NewAlarm(a DefectAssessment, at time.Time) *Alarm {
	al := &Alarm{ID: uuid.NewString(), SegmentID: a.SegmentID}
	al.append(AlarmEvent{
		ID:        uuid.NewString(),
		AlarmID:   al.ID,
		SegmentID: a.SegmentID,
		Kind:      EventAlarmCreated,
		DPS:       a.DPS,
		Tier:      a.Tier,
		At:        at,
	})
	return al
}

// Replay folds an event log back into the aggregate.
func Replay(events []AlarmEvent) (*Alarm, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("alarm replay: empty event log")
	}
	if events[0].Kind != EventAlarmCreated {
		return nil, fmt.Errorf("alarm replay: log must start with %s, got %s", EventAlarmCreated, events[0].Kind)
	}
	al := &Alarm{ID: events[0].AlarmID, SegmentID: events[0].SegmentID}
	for _, e := range events {
		al.append(e)
	}
	return al, nil
}

// Open reports whether the alarm still counts against the
// one-open-alarm-per-segment invariant.
func (a *Alarm) Open() bool {
	return a.Status != StatusResolved && a.Status != StatusClosed
}

// ApplyAssessment folds a newer assessment into an open alarm. The tier is
// raised (AlarmEscalated) when the assessment's tier is higher; an equal or
// lower tier leaves the alarm untouched, since de-escalation requires an
// explicit resolve. Assessments older than the alarm's last update are
// rejected with ErrStaleAssessment.
func (a *Alarm) ApplyAssessment(as DefectAssessment) (*AlarmEvent, error) {
	if !a.Open() {
		return nil, fmt.Errorf("%w: apply assessment on %s alarm %s", ErrInvalidTransition, a.Status, a.ID)
	}
	if as.EvaluatedAt.Before(a.UpdatedAt) {
		return nil, fmt.Errorf("%w: assessment at %s predates alarm update at %s",
			ErrStaleAssessment, as.EvaluatedAt.Format(time.RFC3339), a.UpdatedAt.Format(time.RFC3339))
	}
	if as.Tier <= a.Tier {
		return nil, nil
	}
	e := AlarmEvent{
		ID:        uuid.NewString(),
		AlarmID:   a.ID,
		SegmentID: a.SegmentID,
		Kind:      EventAlarmEscalated,
		DPS:       as.DPS,
		Tier:      as.Tier,
		At:        as.EvaluatedAt,
	}
	a.append(e)
	return &e, nil
}

// Acknowledge is valid only from Open.
func (a *Alarm) Acknowledge(actor string, at time.Time) (*AlarmEvent, error) {
	if a.Status != StatusOpen {
		return nil, fmt.Errorf("%w: acknowledge requires open, alarm %s is %s", ErrInvalidTransition, a.ID, a.Status)
	}
	return a.transition(EventAlarmAcknowledged, actor, "", at), nil
}

// Dispatch is valid only from Acknowledged.
func (a *Alarm) Dispatch(at time.Time) (*AlarmEvent, error) {
	if a.Status != StatusAcknowledged {
		return nil, fmt.Errorf("%w: dispatch requires acknowledged, alarm %s is %s", ErrInvalidTransition, a.ID, a.Status)
	}
	return a.transition(EventAlarmDispatched, "", "", at), nil
}

// Resolve is valid from Acknowledged or Dispatched and requires a note.
func (a *Alarm) Resolve(note string, at time.Time) (*AlarmEvent, error) {
	if a.Status != StatusAcknowledged && a.Status != StatusDispatched {
		return nil, fmt.Errorf("%w: resolve requires acknowledged or dispatched, alarm %s is %s", ErrInvalidTransition, a.ID, a.Status)
	}
	if note == "" {
		return nil, ErrEmptyNote
	}
	return a.transition(EventAlarmResolved, "", note, at), nil
}

// Close is valid only from Resolved and is final.
func (a *Alarm) Close(at time.Time) (*AlarmEvent, error) {
	if a.Status != StatusResolved {
		return nil, fmt.Errorf("%w: close requires resolved, alarm %s is %s", ErrInvalidTransition, a.ID, a.Status)
	}
	return a.transition(EventAlarmClosed, "", "", at), nil
}

func (a *Alarm) transition(kind EventKind, actor, note string, at time.Time) *AlarmEvent {
	e := AlarmEvent{
		ID:        uuid.NewString(),
		AlarmID:   a.ID,
		SegmentID: a.SegmentID,
		Kind:      kind,
		DPS:       a.DPS,
		Tier:      a.Tier,
		Actor:     actor,
		Note:      note,
		At:        at,
	}
	a.append(e)
	return &e
}

// append is the fold step shared by live transitions and Replay.
func (a *Alarm) append(e AlarmEvent) {
	switch e.Kind {
	case EventAlarmCreated:
		a.Status = StatusOpen
		a.DPS = e.DPS
		a.Tier = e.Tier
		a.CreatedAt = e.At
	case EventAlarmEscalated:
		a.DPS = e.DPS
		a.Tier = e.Tier
	case EventAlarmAcknowledged:
		a.Status = StatusAcknowledged
	case EventAlarmDispatched:
		a.Status = StatusDispatched
	case EventAlarmResolved:
		a.Status = StatusResolved
	case EventAlarmClosed:
		a.Status = StatusClosed
	}
	a.UpdatedAt = e.At
	a.Events = append(a.Events, e)
}
