// main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gewnthar/trainboard/config"
	"github.com/gewnthar/trainboard/database"
	"github.com/gewnthar/trainboard/handlers"
	"github.com/gewnthar/trainboard/irail"
	"github.com/gewnthar/trainboard/metrics"
	"github.com/gewnthar/trainboard/models"
	"github.com/gewnthar/trainboard/services"
)

const defaultConfigPath = "config/config.yaml"

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: "+defaultConfigPath+" when present)")
	once := flag.Bool("once", false, "run one collection and exit")
	flag.Parse()

	log.Println("Starting trainboard collector...")

	path := *configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	log.Printf("Configuration loaded. Server port: %s, stations: %d, interval: %s",
		cfg.Server.Port, len(cfg.Collector.Stations), cfg.Collector.Interval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.Default()
	store, closeStore, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	factory := services.IRailFetcherFactory(cfg.IRail, irail.NewLimiter(cfg.IRail.RequestsPerSec), logger)
	collector := services.NewCollector(store, factory, cfg.Collector.Stations, m, logger)

	if *once {
		run := collector.Run(ctx, models.TriggerCLI)
		closeStore()
		if !run.Succeeded() {
			os.Exit(1)
		}
		return
	}
	defer closeStore()

	stationSync := services.NewStationSync(store, factory, m, logger)
	go func() {
		if err := stationSync.SyncIfEmpty(ctx); err != nil {
			log.Printf("ERROR Service: initial station resync failed: %v", err)
		}
	}()

	scheduler := services.NewScheduler(collector, stationSync, cfg.Collector.Interval,
		cfg.Collector.StationSyncInterval, cfg.Collector.RunOnStartup, logger)
	go scheduler.Start(ctx)

	mux := http.NewServeMux()
	handlers.New(handlers.Deps{
		Store:       store,
		Collector:   collector,
		StationSync: stationSync,
		Liveboard:   services.NewLiveboardService(store, factory, m, logger),
		Dashboard:   services.NewDashboard(store),
		Gatherer:    prometheus.DefaultGatherer,
		StationsTTL: cfg.Cache.StationsTTL,
		CacheSize:   cfg.Cache.Size,
	}).Routes(mux)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Server starting on http://localhost%s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR server shutdown: %v", err)
	}
}

// openStore connects to MySQL when configured and falls back to an in-memory store otherwise.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *log.Logger) (services.Store, func(), error) {
	if !cfg.Configured() {
		logger.Println("WARN Database: no database configured, using in-memory store")
		mem := database.NewMemoryStore()
		return mem, func() { mem.Close() }, nil
	}

	db, err := database.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := database.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	store := database.NewStore(db, logger)
	return store, func() { store.Close() }, nil
}
