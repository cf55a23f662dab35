// Embedded use: no server, no database. The engine runs fully in process
// against the in-memory stores and a hand-built network.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bahyway/alarminsight"
)

func main() {
	engine, err := alarminsight.NewEngine(&alarminsight.Config{})
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}

	junctions := []alarminsight.Junction{
		{ID: "j-source", Location: alarminsight.Point{X: 0, Y: 0}, Kind: "source"},
		{ID: "j-valve", Location: alarminsight.Point{X: 120, Y: 0}, Kind: "valve"},
		{ID: "j-plant", Location: alarminsight.Point{X: 240, Y: 0}, Kind: "facility", Critical: true},
	}
	segments := []alarminsight.PipeSegment{
		{
			ID:              "main-1897",
			FromJunction:    "j-source",
			ToJunction:      "j-valve",
			Material:        alarminsight.MaterialCastIron,
			AgeYears:        78,
			LengthM:         120,
			HistoricalLeaks: 6,
			Geometry:        alarminsight.Polyline{{X: 0, Y: 0}, {X: 120, Y: 0}},
		},
		{
			ID:           "main-2019",
			FromJunction: "j-valve",
			ToJunction:   "j-plant",
			Material:     alarminsight.MaterialPVC,
			AgeYears:     7,
			LengthM:      120,
			Geometry:     alarminsight.Polyline{{X: 120, Y: 0}, {X: 240, Y: 0}},
		},
	}
	if err := engine.ImportNetwork(junctions, segments); err != nil {
		log.Fatalf("import network: %v", err)
	}

	batch := []alarminsight.LeakIndicator{
		{ID: "drone-042", Location: alarminsight.Point{X: 40, Y: 1}, Kind: alarminsight.IndicatorThermal, Confidence: 0.92, Severity: 0.7, CapturedAt: time.Now(), Provenance: "drone"},
		{ID: "drone-043", Location: alarminsight.Point{X: 55, Y: -1}, Kind: alarminsight.IndicatorVegetation, Confidence: 0.81, Severity: 0.5, CapturedAt: time.Now(), Provenance: "drone"},
		{ID: "drone-044", Location: alarminsight.Point{X: 70, Y: 0.5}, Kind: alarminsight.IndicatorPonding, Confidence: 0.88, Severity: 0.9, CapturedAt: time.Now(), Provenance: "drone"},
	}

	ctx := context.Background()
	res, err := engine.IngestBatch(ctx, batch)
	if err != nil {
		log.Fatalf("ingest batch: %v", err)
	}
	for _, a := range res.Assessments {
		fmt.Printf("%s dps=%.3f tier=%s trace=%v\n", a.SegmentID, a.DPS, a.Tier, a.Trace)
	}

	plan, err := engine.InspectionPlan(ctx)
	if err != nil {
		log.Fatalf("inspection plan: %v", err)
	}
	fmt.Println("inspection priority:")
	for i, a := range plan {
		fmt.Printf("  %d. %s (%.3f)\n", i+1, a.SegmentID, a.DPS)
	}
}
