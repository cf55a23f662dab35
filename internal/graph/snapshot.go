package graph

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bahyway/alarminsight/internal/domain"
)

// ErrUnknownSegment is returned when a query names a segment the snapshot
// does not contain.
var ErrUnknownSegment = errors.New("alarminsight: unknown segment")

// ErrUnknownJunction is returned when a query names a junction the snapshot
// does not contain.
var ErrUnknownJunction = errors.New("alarminsight: unknown junction")

// Snapshot is an immutable arena of junctions and segments addressed by
// stable ids. Cycles and parallel segments are permitted; every segment's
// endpoints must exist. Queries never mutate a snapshot, so any number of
// workers may read one concurrently.
type Snapshot struct {
	junctions map[string]domain.Junction
	segments  map[string]domain.PipeSegment
	outgoing  map[string][]string // junction id -> outgoing segment ids, sorted
	segIDs    []string            // sorted for deterministic iteration
}

// Build validates the import wholesale and assembles a snapshot. A dangling
// endpoint or duplicate id rejects the whole import; nothing is partially
// applied.
func Build(junctions []domain.Junction, segments []domain.PipeSegment) (*Snapshot, error) {
	s := &Snapshot{
		junctions: make(map[string]domain.Junction, len(junctions)),
		segments:  make(map[string]domain.PipeSegment, len(segments)),
		outgoing:  make(map[string][]string),
	}

	for _, j := range junctions {
		if err := j.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.junctions[j.ID]; dup {
			return nil, fmt.Errorf("network import: duplicate junction id %q", j.ID)
		}
		s.junctions[j.ID] = j
	}

	for _, seg := range segments {
		if err := seg.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.segments[seg.ID]; dup {
			return nil, fmt.Errorf("network import: duplicate segment id %q", seg.ID)
		}
		if _, ok := s.junctions[seg.FromJunction]; !ok {
			return nil, fmt.Errorf("network import: segment %q references unknown junction %q", seg.ID, seg.FromJunction)
		}
		if _, ok := s.junctions[seg.ToJunction]; !ok {
			return nil, fmt.Errorf("network import: segment %q references unknown junction %q", seg.ID, seg.ToJunction)
		}
		s.segments[seg.ID] = seg
		s.outgoing[seg.FromJunction] = append(s.outgoing[seg.FromJunction], seg.ID)
		s.segIDs = append(s.segIDs, seg.ID)
	}

	sort.Strings(s.segIDs)
	for _, ids := range s.outgoing {
		sort.Strings(ids)
	}
	return s, nil
}

// Junction looks up a junction by id.
func (s *Snapshot) Junction(id string) (domain.Junction, bool) {
	j, ok := s.junctions[id]
	return j, ok
}

// Segment looks up a segment by id.
func (s *Snapshot) Segment(id string) (domain.PipeSegment, bool) {
	seg, ok := s.segments[id]
	return seg, ok
}

// Segments returns all segments in sorted id order.
func (s *Snapshot) Segments() []domain.PipeSegment {
	out := make([]domain.PipeSegment, 0, len(s.segIDs))
	for _, id := range s.segIDs {
		out = append(out, s.segments[id])
	}
	return out
}

// NumJunctions returns the junction count.
func (s *Snapshot) NumJunctions() int { return len(s.junctions) }

// NumSegments returns the segment count.
func (s *Snapshot) NumSegments() int { return len(s.segments) }

// WithConditionScores derives a new snapshot with updated per-segment
// condition scores. The receiver is left untouched; callers swap the result
// into a Holder so readers never observe a half-updated graph.
func (s *Snapshot) WithConditionScores(scores map[string]float64) *Snapshot {
	next := &Snapshot{
		junctions: s.junctions,
		segments:  make(map[string]domain.PipeSegment, len(s.segments)),
		outgoing:  s.outgoing,
		segIDs:    s.segIDs,
	}
	for id, seg := range s.segments {
		if score, ok := scores[id]; ok {
			seg.ConditionScore = score
		}
		next.segments[id] = seg
	}
	return next
}

// Holder hands out the current snapshot and swaps in rebuilt ones
// atomically. The graph is read-mostly; rebuilds replace it wholesale.
type Holder struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// NewHolder seeds a holder, optionally with an initial snapshot.
func NewHolder(snap *Snapshot) *Holder {
	return &Holder{snap: snap}
}

// Snapshot returns the current snapshot, or nil before the first import.
func (h *Holder) Snapshot() *Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap
}

// Swap publishes a new snapshot.
func (h *Holder) Swap(snap *Snapshot) {
	h.mu.Lock()
	h.snap = snap
	h.mu.Unlock()
}
