package ports

import (
	"context"

	"github.com/bahyway/alarminsight/internal/domain"
)

// EvidenceSource pulls the next batch of leak indicators from the external
// detection collaborator. An empty batch with a nil error means nothing new
// arrived since the last fetch.
type EvidenceSource interface {
	Fetch(ctx context.Context) ([]domain.LeakIndicator, error)
}

// EvidenceCommitter is implemented by sources that must not lose a batch on
// evaluation failure. The engine calls Commit only after the orchestrator
// has accepted the fetched batch; an uncommitted batch is delivered again.
type EvidenceCommitter interface {
	Commit(ctx context.Context) error
}
