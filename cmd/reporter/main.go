package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"CampusSOS/internal/location"
	"CampusSOS/pkg/config"
	"CampusSOS/pkg/logger"
	"CampusSOS/pkg/util"

	"go.uber.org/zap"
)

// Device-side companion to the server: samples a position on the
// configured interval and posts it to the alert's trail over the HTTP
// API until the alert leaves active.
func main() {
	alertID := flag.Uint("alert", 0, "alert id to report for")
	apiBase := flag.String("api", "", "server base URL (default $API_BASE or http://localhost:8080)")
	flag.Parse()
	if *alertID == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := config.Load(); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.GlobalConfig

	logger.Init(cfg.Log)
	defer logger.Sync()

	base := *apiBase
	if base == "" {
		base = util.GetEnvDefault("API_BASE", "http://localhost:8080")
	}
	client := newAPIClient(base + cfg.APIPrefix)

	source := location.NewFallbackSource(
		campusWalk(cfg.CampusLat, cfg.CampusLon), cfg.CampusLat, cfg.CampusLon)

	rep := location.NewReporter(client, source, client, cfg.LocationInterval)
	rep.Start(*alertID)
	defer rep.Stop()

	logger.Info("reporting location",
		zap.Uint("alert_id", *alertID),
		zap.String("api", base),
		zap.Duration("interval", cfg.LocationInterval))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}

// campusWalk simulates the device GPS: a slow random walk starting at
// the campus seed coordinate.
func campusWalk(lat, lon float64) location.Source {
	var mu sync.Mutex
	cur := location.Position{Latitude: lat, Longitude: lon}
	return location.SourceFunc(func(ctx context.Context) (location.Position, error) {
		mu.Lock()
		defer mu.Unlock()
		cur.Latitude += (rand.Float64() - 0.5) * 0.0004
		cur.Longitude += (rand.Float64() - 0.5) * 0.0004
		return cur, nil
	})
}
