package alarminsight

import (
	"context"
	"testing"
	"time"

	"github.com/bahyway/alarminsight/internal/domain"
	"github.com/bahyway/alarminsight/internal/geo"
	"github.com/bahyway/alarminsight/internal/ports"
)

func testConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

func testNetwork() ([]Junction, []PipeSegment) {
	junctions := []Junction{
		{ID: "j1", Kind: domain.JunctionSource, Location: geo.Point{X: 0, Y: 0}},
		{ID: "j2", Kind: domain.JunctionValve, Location: geo.Point{X: 10, Y: 0}},
		{ID: "j3", Kind: domain.JunctionFacility, Location: geo.Point{X: 20, Y: 0}, Critical: true},
	}
	segments := []PipeSegment{
		{
			ID: "seg-old", FromJunction: "j1", ToJunction: "j2",
			Material: domain.MaterialCastIron, AgeYears: 65, LengthM: 10,
			HistoricalLeaks: 5,
			Geometry:        geo.Polyline{{X: 0, Y: 0}, {X: 10, Y: 0}},
		},
		{
			ID: "seg-new", FromJunction: "j2", ToJunction: "j3",
			Material: domain.MaterialPVC, AgeYears: 3, LengthM: 10,
			Geometry: geo.Polyline{{X: 10, Y: 0}, {X: 20, Y: 0}},
		},
	}
	return junctions, segments
}

func indicatorNear(id string, x, y float64) LeakIndicator {
	return LeakIndicator{
		ID:         id,
		Location:   geo.Point{X: x, Y: y},
		Kind:       domain.IndicatorThermal,
		Confidence: 0.9,
		Severity:   0.8,
		CapturedAt: time.Now(),
		Provenance: "test-flight",
	}
}

func TestEngineEndToEnd(t *testing.T) {
	engine, err := NewEngine(testConfig(), WithObservability(stubObs{}))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	junctions, segments := testNetwork()
	if err := engine.ImportNetwork(junctions, segments); err != nil {
		t.Fatalf("import network: %v", err)
	}

	// five indicators on the old cast-iron segment drive it to critical
	batch := []LeakIndicator{
		indicatorNear("i1", 1, 0.1),
		indicatorNear("i2", 3, 0.2),
		indicatorNear("i3", 5, 0.1),
		indicatorNear("i4", 7, 0.3),
		indicatorNear("i5", 9, 0.2),
	}
	ctx := context.Background()
	result, err := engine.IngestBatch(ctx, batch)
	if err != nil {
		t.Fatalf("ingest batch: %v", err)
	}
	if len(result.Orphans) != 0 {
		t.Fatalf("expected no orphans, got %d", len(result.Orphans))
	}

	alarms, err := engine.ListAlarms(ctx, AlarmFilter{SegmentID: "seg-old", OpenOnly: true})
	if err != nil {
		t.Fatalf("list alarms: %v", err)
	}
	if len(alarms) != 1 {
		t.Fatalf("expected one open alarm on seg-old, got %d", len(alarms))
	}
	if alarms[0].Tier != TierCritical {
		t.Fatalf("expected critical alarm, got %s", alarms[0].Tier)
	}

	// an evidence-free re-assessment keeps seg-new below the alarm threshold
	newAlarms, err := engine.ListAlarms(ctx, AlarmFilter{SegmentID: "seg-new"})
	if err != nil {
		t.Fatalf("list alarms: %v", err)
	}
	if len(newAlarms) != 0 {
		t.Fatalf("expected no alarm on seg-new, got %d", len(newAlarms))
	}

	plan, err := engine.InspectionPlan(ctx)
	if err != nil {
		t.Fatalf("inspection plan: %v", err)
	}
	if len(plan) == 0 || plan[0].SegmentID != "seg-old" {
		t.Fatalf("expected seg-old first in inspection plan, got %+v", plan)
	}
}

func TestEngineAlarmLifecycle(t *testing.T) {
	engine, err := NewEngine(testConfig(), WithObservability(stubObs{}))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	junctions, segments := testNetwork()
	if err := engine.ImportNetwork(junctions, segments); err != nil {
		t.Fatalf("import network: %v", err)
	}

	ctx := context.Background()
	if _, err := engine.IngestBatch(ctx, []LeakIndicator{
		indicatorNear("i1", 1, 0.1),
		indicatorNear("i2", 3, 0.2),
		indicatorNear("i3", 5, 0.1),
		indicatorNear("i4", 7, 0.3),
		indicatorNear("i5", 9, 0.2),
	}); err != nil {
		t.Fatalf("ingest batch: %v", err)
	}

	alarms, err := engine.ListAlarms(ctx, AlarmFilter{OpenOnly: true})
	if err != nil || len(alarms) != 1 {
		t.Fatalf("expected one open alarm, got %d (err %v)", len(alarms), err)
	}
	id := alarms[0].ID

	if _, err := engine.Acknowledge(ctx, id, "operator-7"); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if _, err := engine.Dispatch(ctx, id); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	al, err := engine.Resolve(ctx, id, "replaced joint at 4.2m")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if al.Status != StatusResolved {
		t.Fatalf("expected resolved, got %s", al.Status)
	}
	al, err = engine.CloseAlarm(ctx, id)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if al.Status != StatusClosed {
		t.Fatalf("expected closed, got %s", al.Status)
	}

	open, err := engine.ListAlarms(ctx, AlarmFilter{OpenOnly: true})
	if err != nil {
		t.Fatalf("list alarms: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("expected no open alarms after close, got %d", len(open))
	}
}

func TestEngineGraphQueries(t *testing.T) {
	engine, err := NewEngine(testConfig(), WithObservability(stubObs{}))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	junctions, segments := testNetwork()
	if err := engine.ImportNetwork(junctions, segments); err != nil {
		t.Fatalf("import network: %v", err)
	}

	impact, err := engine.DownstreamImpact("seg-old")
	if err != nil {
		t.Fatalf("downstream impact: %v", err)
	}
	// j2 and j3 are downstream of seg-old's end
	if len(impact) != 2 {
		t.Fatalf("expected 2 downstream junctions, got %d", len(impact))
	}

	vulnerable, err := engine.VulnerableSegments(20, 2)
	if err != nil {
		t.Fatalf("vulnerable segments: %v", err)
	}
	if len(vulnerable) != 1 || vulnerable[0].ID != "seg-old" {
		t.Fatalf("expected only seg-old vulnerable, got %+v", vulnerable)
	}

	path, err := engine.CriticalPath("seg-old", "j3")
	if err != nil {
		t.Fatalf("critical path: %v", err)
	}
	if len(path) != 2 || path[0] != "j2" || path[1] != "j3" {
		t.Fatalf("expected path [j2 j3], got %v", path)
	}
}

func TestEngineRequiresNetwork(t *testing.T) {
	engine, err := NewEngine(testConfig(), WithObservability(stubObs{}))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if _, err := engine.IngestBatch(context.Background(), []LeakIndicator{indicatorNear("i1", 1, 0)}); err == nil {
		t.Fatal("expected error before network import")
	}
}

func TestEngineCustomPublisher(t *testing.T) {
	pub := &capturingPublisher{}
	engine, err := NewEngine(testConfig(), WithPublisher(pub), WithObservability(stubObs{}))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	junctions, segments := testNetwork()
	if err := engine.ImportNetwork(junctions, segments); err != nil {
		t.Fatalf("import network: %v", err)
	}
	if _, err := engine.IngestBatch(context.Background(), []LeakIndicator{
		indicatorNear("i1", 1, 0.1),
		indicatorNear("i2", 3, 0.2),
		indicatorNear("i3", 5, 0.1),
		indicatorNear("i4", 7, 0.3),
		indicatorNear("i5", 9, 0.2),
	}); err != nil {
		t.Fatalf("ingest batch: %v", err)
	}
	if len(pub.events) == 0 {
		t.Fatal("expected alarm events on the custom publisher")
	}
	if pub.events[0].Kind != domain.EventAlarmCreated {
		t.Fatalf("expected AlarmCreated first, got %s", pub.events[0].Kind)
	}
}

type stubObs struct{}

func (stubObs) LogInfo(string, ...Field)                   {}
func (stubObs) LogError(string, error, ...Field)           {}
func (stubObs) LogCritical(string, error, ...Field)        {}
func (stubObs) IncCounter(string, float64)                 {}
func (stubObs) ObserveLatency(string, float64)             {}
func (stubObs) SetGauge(string, float64)                   {}
func (stubObs) RecordOrphan(domain.LeakIndicator)          {}

type capturingPublisher struct {
	events []AlarmEvent
}

func (p *capturingPublisher) Publish(e domain.AlarmEvent) {
	p.events = append(p.events, e)
}

var _ ports.EventPublisher = (*capturingPublisher)(nil)
