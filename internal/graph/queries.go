package graph

import (
	"container/heap"
	"errors"
	"fmt"

	"github.com/bahyway/alarminsight/internal/domain"
)

// ErrNoPathFound is returned when the target junction is genuinely
// unreachable from the starting segment.
var ErrNoPathFound = errors.New("alarminsight: no path found")

// ErrHopBoundExceeded is returned when a traversal gave up because the hop
// budget ran out, distinct from genuine disconnection.
var ErrHopBoundExceeded = errors.New("alarminsight: hop bound exceeded")

// DownstreamImpact returns the junctions reachable by following segment
// connectivity outward from the segment's downstream endpoint, bounded by
// maxHops so cyclic topology always terminates. The result is a pure
// function of the snapshot: re-running yields the same order.
func (s *Snapshot) DownstreamImpact(segmentID string, maxHops int) ([]domain.Junction, error) {
	seg, ok := s.segments[segmentID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSegment, segmentID)
	}
	if maxHops < 0 {
		maxHops = 0
	}

	visited := map[string]bool{seg.ToJunction: true}
	frontier := []string{seg.ToJunction}
	order := []string{seg.ToJunction}

	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		var next []string
		for _, jid := range frontier {
			for _, sid := range s.outgoing[jid] {
				to := s.segments[sid].ToJunction
				if visited[to] {
					continue
				}
				visited[to] = true
				next = append(next, to)
				order = append(order, to)
			}
		}
		frontier = next
	}

	out := make([]domain.Junction, 0, len(order))
	for _, jid := range order {
		out = append(out, s.junctions[jid])
	}
	return out, nil
}

// VulnerableSegments filters segments meeting both the age and the
// historical-leak thresholds, sorted by id.
func (s *Snapshot) VulnerableSegments(minAge float64, minLeaks int) []domain.PipeSegment {
	var out []domain.PipeSegment
	for _, id := range s.segIDs {
		seg := s.segments[id]
		if seg.AgeYears >= minAge && seg.HistoricalLeaks >= minLeaks {
			out = append(out, seg)
		}
	}
	return out
}

// CriticalPath finds the shortest path, weighted by segment length, from the
// segment's downstream endpoint to the target junction. It returns the
// ordered junction ids including both ends. Unreachable targets yield
// ErrNoPathFound; a search cut short by the hop budget yields
// ErrHopBoundExceeded so callers can tell disconnection from a bound that
// was too tight.
func (s *Snapshot) CriticalPath(fromSegment, toJunction string, maxHops int) ([]string, error) {
	seg, ok := s.segments[fromSegment]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSegment, fromSegment)
	}
	if _, ok := s.junctions[toJunction]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJunction, toJunction)
	}

	start := seg.ToJunction
	dist := map[string]float64{start: 0}
	hops := map[string]int{start: 0}
	prev := map[string]string{}
	done := map[string]bool{}
	pruned := false

	pq := &junctionQueue{{id: start, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(junctionItem)
		if done[cur.id] {
			continue
		}
		done[cur.id] = true
		if cur.id == toJunction {
			return rebuildPath(prev, start, toJunction), nil
		}
		if hops[cur.id] >= maxHops {
			pruned = true
			continue
		}
		for _, sid := range s.outgoing[cur.id] {
			edge := s.segments[sid]
			alt := dist[cur.id] + edge.LengthM
			to := edge.ToJunction
			if d, seen := dist[to]; !seen || alt < d {
				dist[to] = alt
				hops[to] = hops[cur.id] + 1
				prev[to] = cur.id
				heap.Push(pq, junctionItem{id: to, dist: alt})
			}
		}
	}

	if pruned {
		return nil, fmt.Errorf("%w: gave up after %d hops short of %q", ErrHopBoundExceeded, maxHops, toJunction)
	}
	return nil, fmt.Errorf("%w: junction %q is unreachable from segment %q", ErrNoPathFound, toJunction, fromSegment)
}

func rebuildPath(prev map[string]string, start, target string) []string {
	path := []string{target}
	for cur := target; cur != start; {
		cur = prev[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type junctionItem struct {
	id   string
	dist float64
}

type junctionQueue []junctionItem

func (q junctionQueue) Len() int { return len(q) }
func (q junctionQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].id < q[j].id
}
func (q junctionQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *junctionQueue) Push(x any)   { *q = append(*q, x.(junctionItem)) }
func (q *junctionQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
