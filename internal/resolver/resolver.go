// Package resolver associates point anomaly evidence with the nearest pipe
// segment of the network graph, within a maximum-distance tolerance.
package resolver

import (
	"math"

	"github.com/bahyway/alarminsight/internal/domain"
	"github.com/bahyway/alarminsight/internal/geo"
	"github.com/bahyway/alarminsight/internal/graph"
)

// Association binds an indicator to the segment it most plausibly concerns.
type Association struct {
	Indicator domain.LeakIndicator
	SegmentID string
	Distance  float64
}

// BatchResult is the outcome of associating one ingestion batch. Orphans
// are indicators with no segment within tolerance; they are surfaced for
// manual triage, never silently dropped, and excluded from every segment's
// density count.
type BatchResult struct {
	BySegment map[string][]domain.LeakIndicator
	Matches   []Association
	Orphans   []domain.LeakIndicator
}

// Resolver matches evidence points to segment polylines.
type Resolver struct {
	maxDistance float64
	epsilon     float64
}

// New builds a resolver. maxDistance is the association tolerance; epsilon
// is the window within which two segments count as equidistant.
func New(maxDistance, epsilon float64) *Resolver {
	return &Resolver{maxDistance: maxDistance, epsilon: epsilon}
}

// Associate finds the nearest segment to the indicator by perpendicular
// distance to the segment polylines. When two segments are equidistant
// within epsilon, the one with the higher historical-leak count wins (the
// conservative choice). The second return is false when the indicator is
// orphaned.
func (r *Resolver) Associate(ind domain.LeakIndicator, snap *graph.Snapshot) (Association, bool) {
	best := Association{Indicator: ind, Distance: math.Inf(1)}
	var bestLeaks int

	for _, seg := range snap.Segments() {
		d := geo.DistanceToPolyline(ind.Location, seg.Geometry)
		if d > r.maxDistance {
			continue
		}
		switch {
		case d < best.Distance-r.epsilon:
			best.SegmentID = seg.ID
			best.Distance = d
			bestLeaks = seg.HistoricalLeaks
		case math.Abs(d-best.Distance) <= r.epsilon && seg.HistoricalLeaks > bestLeaks:
			best.SegmentID = seg.ID
			best.Distance = d
			bestLeaks = seg.HistoricalLeaks
		}
	}

	if best.SegmentID == "" {
		return Association{Indicator: ind}, false
	}
	return best, true
}

// AssociateBatch resolves every indicator of a batch against one snapshot.
func (r *Resolver) AssociateBatch(indicators []domain.LeakIndicator, snap *graph.Snapshot) BatchResult {
	res := BatchResult{BySegment: make(map[string][]domain.LeakIndicator)}
	for _, ind := range indicators {
		assoc, ok := r.Associate(ind, snap)
		if !ok {
			res.Orphans = append(res.Orphans, ind)
			continue
		}
		res.Matches = append(res.Matches, assoc)
		res.BySegment[assoc.SegmentID] = append(res.BySegment[assoc.SegmentID], ind)
	}
	return res
}
