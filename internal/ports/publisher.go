package ports

import "github.com/bahyway/alarminsight/internal/domain"

// EventPublisher hands alarm domain events to an external notification
// collaborator. Delivery semantics beyond this process are the
// collaborator's responsibility; the engine guarantees exactly one logical
// event per transition in its own log.
type EventPublisher interface {
	Publish(e domain.AlarmEvent)
}

// NopPublisher discards events; useful when no collaborator is attached.
type NopPublisher struct{}

func (NopPublisher) Publish(domain.AlarmEvent) {}
