package graph

import (
	"errors"
	"testing"

	"github.com/bahyway/alarminsight/internal/domain"
)

// chain j1 -> j2 -> j3 -> j4 plus a long shortcut j2 -> j4
func queryNetwork(t *testing.T) *Snapshot {
	t.Helper()
	snap, err := Build(
		[]domain.Junction{junction("j1"), junction("j2"), junction("j3"), junction("j4")},
		[]domain.PipeSegment{
			segment("s1", "j1", "j2", 10),
			segment("s2", "j2", "j3", 10),
			segment("s3", "j3", "j4", 10),
			segment("s4", "j2", "j4", 50),
		},
	)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return snap
}

func TestDownstreamImpact(t *testing.T) {
	snap := queryNetwork(t)

	junctions, err := snap.DownstreamImpact("s1", 10)
	if err != nil {
		t.Fatalf("downstream impact: %v", err)
	}
	got := make([]string, len(junctions))
	for i, j := range junctions {
		got[i] = j.ID
	}
	// BFS from j2 over sorted adjacency: j2, then j3 and j4, deterministic
	want := []string{"j2", "j3", "j4"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestDownstreamImpactHopBound(t *testing.T) {
	snap := queryNetwork(t)

	junctions, err := snap.DownstreamImpact("s1", 1)
	if err != nil {
		t.Fatalf("downstream impact: %v", err)
	}
	// one hop from j2 reaches j3 and j4 but not beyond
	if len(junctions) != 3 {
		t.Fatalf("expected 3 junctions at one hop, got %d", len(junctions))
	}

	junctions, err = snap.DownstreamImpact("s1", 0)
	if err != nil {
		t.Fatalf("downstream impact: %v", err)
	}
	if len(junctions) != 1 || junctions[0].ID != "j2" {
		t.Fatalf("zero hops must return only the endpoint, got %+v", junctions)
	}
}

func TestDownstreamImpactTerminatesOnCycles(t *testing.T) {
	snap, err := Build(
		[]domain.Junction{junction("j1"), junction("j2")},
		[]domain.PipeSegment{
			segment("s1", "j1", "j2", 10),
			segment("s2", "j2", "j1", 10),
		},
	)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	junctions, err := snap.DownstreamImpact("s1", 1000)
	if err != nil {
		t.Fatalf("downstream impact: %v", err)
	}
	if len(junctions) != 2 {
		t.Fatalf("expected both junctions once, got %d", len(junctions))
	}
}

func TestDownstreamImpactUnknownSegment(t *testing.T) {
	snap := queryNetwork(t)
	if _, err := snap.DownstreamImpact("s-ghost", 5); !errors.Is(err, ErrUnknownSegment) {
		t.Fatalf("expected ErrUnknownSegment, got %v", err)
	}
}

func TestVulnerableSegments(t *testing.T) {
	old := segment("s-old", "j1", "j2", 10)
	old.AgeYears = 40
	old.HistoricalLeaks = 4
	aged := segment("s-aged", "j1", "j2", 10)
	aged.AgeYears = 50 // old but leak-free
	leaky := segment("s-leaky", "j1", "j2", 10)
	leaky.HistoricalLeaks = 6 // young but leaky

	snap, err := Build([]domain.Junction{junction("j1"), junction("j2")},
		[]domain.PipeSegment{old, aged, leaky})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	got := snap.VulnerableSegments(20, 2)
	if len(got) != 1 || got[0].ID != "s-old" {
		t.Fatalf("expected only s-old (both thresholds), got %+v", got)
	}
}

func TestCriticalPathPrefersShortestByLength(t *testing.T) {
	snap := queryNetwork(t)

	// from s1's endpoint j2: the 20m chain beats the 50m shortcut
	path, err := snap.CriticalPath("s1", "j4", 10)
	if err != nil {
		t.Fatalf("critical path: %v", err)
	}
	want := []string{"j2", "j3", "j4"}
	if len(path) != len(want) {
		t.Fatalf("expected %v, got %v", want, path)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, path)
		}
	}
}

func TestCriticalPathErrors(t *testing.T) {
	// j5 exists but nothing leads to it
	snap, err := Build(
		[]domain.Junction{junction("j1"), junction("j2"), junction("j5")},
		[]domain.PipeSegment{segment("s1", "j1", "j2", 10)},
	)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if _, err := snap.CriticalPath("s1", "j5", 10); !errors.Is(err, ErrNoPathFound) {
		t.Fatalf("expected ErrNoPathFound, got %v", err)
	}
	if _, err := snap.CriticalPath("s-ghost", "j5", 10); !errors.Is(err, ErrUnknownSegment) {
		t.Fatalf("expected ErrUnknownSegment, got %v", err)
	}
	if _, err := snap.CriticalPath("s1", "j-ghost", 10); !errors.Is(err, ErrUnknownJunction) {
		t.Fatalf("expected ErrUnknownJunction, got %v", err)
	}
}

func TestCriticalPathHopBound(t *testing.T) {
	snap := queryNetwork(t)

	// j4 is two hops from j2 down the chain; one hop still reaches it via
	// the direct 50m segment
	path, err := snap.CriticalPath("s1", "j4", 1)
	if err != nil {
		t.Fatalf("critical path with tight bound: %v", err)
	}
	if len(path) != 2 || path[1] != "j4" {
		t.Fatalf("expected direct path [j2 j4], got %v", path)
	}

	// with zero hops nothing is reachable and the bound is the reason
	if _, err := snap.CriticalPath("s1", "j4", 0); !errors.Is(err, ErrHopBoundExceeded) {
		t.Fatalf("expected ErrHopBoundExceeded, got %v", err)
	}
}
