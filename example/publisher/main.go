// Custom publisher: alarm events are handed to a callback instead of the
// built-in WebSocket hub, the shape an SMS or pager integration takes.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bahyway/alarminsight"
)

type pagerPublisher struct{}

func (pagerPublisher) Publish(e alarminsight.AlarmEvent) {
	fmt.Printf("page: %s segment=%s tier=%s at=%s\n",
		e.Kind, e.SegmentID, e.Tier, e.At.Format(time.RFC3339))
}

func main() {
	engine, err := alarminsight.NewEngine(&alarminsight.Config{},
		alarminsight.WithPublisher(pagerPublisher{}))
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}

	junctions := []alarminsight.Junction{
		{ID: "j1", Location: alarminsight.Point{X: 0, Y: 0}, Kind: "source"},
		{ID: "j2", Location: alarminsight.Point{X: 100, Y: 0}, Kind: "facility", Critical: true},
	}
	segments := []alarminsight.PipeSegment{{
		ID:              "trunk-a",
		FromJunction:    "j1",
		ToJunction:      "j2",
		Material:        alarminsight.MaterialAsbestos,
		AgeYears:        40,
		LengthM:         100,
		HistoricalLeaks: 2,
		Geometry:        alarminsight.Polyline{{X: 0, Y: 0}, {X: 100, Y: 0}},
	}}
	if err := engine.ImportNetwork(junctions, segments); err != nil {
		log.Fatalf("import network: %v", err)
	}

	ctx := context.Background()
	batch := []alarminsight.LeakIndicator{
		{ID: "sat-1", Location: alarminsight.Point{X: 30, Y: 1}, Kind: alarminsight.IndicatorSubsidence, Confidence: 0.9, Severity: 0.8, CapturedAt: time.Now(), Provenance: "satellite"},
		{ID: "sat-2", Location: alarminsight.Point{X: 60, Y: -1}, Kind: alarminsight.IndicatorThermal, Confidence: 0.85, Severity: 0.6, CapturedAt: time.Now(), Provenance: "satellite"},
	}
	if _, err := engine.IngestBatch(ctx, batch); err != nil {
		log.Fatalf("ingest batch: %v", err)
	}

	alarms, err := engine.ListAlarms(ctx, alarminsight.AlarmFilter{OpenOnly: true})
	if err != nil {
		log.Fatalf("list alarms: %v", err)
	}
	for _, a := range alarms {
		if _, err := engine.Acknowledge(ctx, a.ID, "duty-engineer"); err != nil {
			log.Fatalf("acknowledge %s: %v", a.ID, err)
		}
	}
}
