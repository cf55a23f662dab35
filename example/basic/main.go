package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/bahyway/alarminsight"
)

func main() {
	cfg, err := alarminsight.LoadConfig("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	engine, err := alarminsight.NewEngine(cfg)
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}
	if err := engine.ImportNetworkFile("../../data/network.geojson"); err != nil {
		log.Fatalf("import network: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := engine.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("engine exited: %v", err)
	}
}
