package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bahyway/alarminsight"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "assess":
		err = assessCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("alarminsight %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file")
	network := fs.String("network", "", "GeoJSON network file to import at startup")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := alarminsight.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	engine, err := alarminsight.NewEngine(cfg)
	if err != nil {
		return err
	}
	if *network != "" {
		if err := engine.ImportNetworkFile(*network); err != nil {
			return fmt.Errorf("import network: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return engine.Run(ctx)
}

// assessCommand runs one batch offline and prints the inspection plan. No
// server is started; the default in-memory store keeps the run hermetic
// unless the config points at Postgres.
func assessCommand(args []string) error {
	fs := flag.NewFlagSet("assess", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file")
	network := fs.String("network", "", "GeoJSON network file (required)")
	batch := fs.String("batch", "", "Leak indicator batch file (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *network == "" || *batch == "" {
		return fmt.Errorf("both -network and -batch are required")
	}

	cfg, err := alarminsight.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	engine, err := alarminsight.NewEngine(cfg)
	if err != nil {
		return err
	}
	if err := engine.ImportNetworkFile(*network); err != nil {
		return fmt.Errorf("import network: %w", err)
	}

	indicators, err := readBatch(*batch)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := engine.IngestBatch(ctx, indicators)
	if err != nil {
		return err
	}

	plan, err := engine.InspectionPlan(ctx)
	if err != nil {
		return err
	}
	for _, a := range plan {
		fmt.Printf("%-20s dps=%.3f tier=%-8s action=%s\n",
			a.SegmentID, a.DPS, a.Tier, a.Tier.RecommendedAction())
	}
	if len(result.Orphans) > 0 {
		fmt.Printf("%d orphaned indicator(s):\n", len(result.Orphans))
		for _, o := range result.Orphans {
			fmt.Printf("  %s %s at (%.2f, %.2f)\n", o.ID, o.Kind, o.Location.X, o.Location.Y)
		}
	}
	return nil
}

func readBatch(path string) ([]alarminsight.LeakIndicator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	indicators, err := alarminsight.DecodeIndicators(f)
	if err != nil {
		return nil, fmt.Errorf("decode batch %s: %w", path, err)
	}
	return indicators, nil
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file to validate")
	network := fs.String("network", "", "Optional GeoJSON network file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := alarminsight.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	fmt.Printf("config %s looks good\n", *cfgPath)

	if *network != "" {
		engine, err := alarminsight.NewEngine(cfg)
		if err != nil {
			return err
		}
		if err := engine.ImportNetworkFile(*network); err != nil {
			return err
		}
		snap := engine.Network()
		fmt.Printf("network %s looks good (%d junctions, %d segments)\n",
			*network, snap.NumJunctions(), snap.NumSegments())
	}
	return nil
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9600/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	targets := map[string]float64{
		"alarminsight_assessments_total":         0,
		"alarminsight_alarms_created_total":      0,
		"alarminsight_orphaned_indicators_total": 0,
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for key := range targets {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %f", &value); err == nil {
					targets[key] = value
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Printf("[%s] assessments=%.0f alarms=%.0f orphans=%.0f\n",
		time.Now().Format(time.RFC3339),
		targets["alarminsight_assessments_total"],
		targets["alarminsight_alarms_created_total"],
		targets["alarminsight_orphaned_indicators_total"],
	)
	return nil
}

func printUsage() {
	fmt.Printf(`AlarmInsight CLI

Usage:
  alarminsight <command> [flags]

Commands:
  run        Start the engine: HTTP surface plus the periodic assessment loop
  assess     Run one indicator batch offline and print the inspection plan
  validate   Load and validate a config file (and optionally a network file)
  stats      Poll the Prometheus metrics endpoint and print live counters

Examples:
  alarminsight run -config ./data/config.yaml -network ./data/network.geojson
  alarminsight assess -network ./data/network.geojson -batch ./data/batch.json
  alarminsight validate -config ./data/config.yaml
  alarminsight stats -url http://localhost:9600/metrics -interval 1s
`)
}
