package graph

import (
	"strings"
	"testing"

	"github.com/bahyway/alarminsight/internal/domain"
	"github.com/bahyway/alarminsight/internal/geo"
)

func junction(id string) domain.Junction {
	return domain.Junction{ID: id, Kind: domain.JunctionConnection}
}

func segment(id, from, to string, length float64) domain.PipeSegment {
	return domain.PipeSegment{
		ID:           id,
		FromJunction: from,
		ToJunction:   to,
		Material:     domain.MaterialSteel,
		LengthM:      length,
		Geometry:     geo.Polyline{{X: 0, Y: 0}, {X: length, Y: 0}},
	}
}

func TestBuildValidNetwork(t *testing.T) {
	snap, err := Build(
		[]domain.Junction{junction("j1"), junction("j2"), junction("j3")},
		[]domain.PipeSegment{segment("s1", "j1", "j2", 10), segment("s2", "j2", "j3", 5)},
	)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if snap.NumJunctions() != 3 || snap.NumSegments() != 2 {
		t.Fatalf("unexpected counts: %d junctions, %d segments", snap.NumJunctions(), snap.NumSegments())
	}
	if _, ok := snap.Segment("s1"); !ok {
		t.Fatal("s1 missing")
	}

	segs := snap.Segments()
	if len(segs) != 2 || segs[0].ID != "s1" || segs[1].ID != "s2" {
		t.Fatalf("segments not in sorted order: %+v", segs)
	}
}

func TestBuildRejectsDanglingEndpoint(t *testing.T) {
	_, err := Build(
		[]domain.Junction{junction("j1")},
		[]domain.PipeSegment{segment("s1", "j1", "j-ghost", 10)},
	)
	if err == nil {
		t.Fatal("expected error for dangling endpoint")
	}
	if !strings.Contains(err.Error(), "j-ghost") {
		t.Fatalf("error should name the missing junction, got %v", err)
	}
}

func TestBuildRejectsDuplicates(t *testing.T) {
	_, err := Build(
		[]domain.Junction{junction("j1"), junction("j1")},
		nil,
	)
	if err == nil {
		t.Fatal("expected error for duplicate junction id")
	}

	_, err = Build(
		[]domain.Junction{junction("j1"), junction("j2")},
		[]domain.PipeSegment{segment("s1", "j1", "j2", 10), segment("s1", "j2", "j1", 10)},
	)
	if err == nil {
		t.Fatal("expected error for duplicate segment id")
	}
}

func TestBuildAllowsCyclesAndParallelSegments(t *testing.T) {
	snap, err := Build(
		[]domain.Junction{junction("j1"), junction("j2")},
		[]domain.PipeSegment{
			segment("s1", "j1", "j2", 10),
			segment("s2", "j2", "j1", 10),
			segment("s3", "j1", "j2", 12),
		},
	)
	if err != nil {
		t.Fatalf("cyclic network rejected: %v", err)
	}
	if snap.NumSegments() != 3 {
		t.Fatalf("expected 3 segments, got %d", snap.NumSegments())
	}
}

func TestWithConditionScoresLeavesOriginalUntouched(t *testing.T) {
	snap, err := Build(
		[]domain.Junction{junction("j1"), junction("j2")},
		[]domain.PipeSegment{segment("s1", "j1", "j2", 10)},
	)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	next := snap.WithConditionScores(map[string]float64{"s1": 0.25})

	orig, _ := snap.Segment("s1")
	if orig.ConditionScore != 0 {
		t.Fatalf("original snapshot mutated: score %f", orig.ConditionScore)
	}
	updated, _ := next.Segment("s1")
	if updated.ConditionScore != 0.25 {
		t.Fatalf("derived snapshot score = %f, want 0.25", updated.ConditionScore)
	}
}

func TestHolderSwap(t *testing.T) {
	h := NewHolder(nil)
	if h.Snapshot() != nil {
		t.Fatal("expected nil before first import")
	}

	snap, err := Build([]domain.Junction{junction("j1"), junction("j2")},
		[]domain.PipeSegment{segment("s1", "j1", "j2", 10)})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	h.Swap(snap)
	if h.Snapshot() != snap {
		t.Fatal("swap did not publish the snapshot")
	}
}
