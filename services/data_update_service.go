// services/data_update_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gewnthar/trainboard/metrics"
	"github.com/gewnthar/trainboard/models"
	"github.com/gewnthar/trainboard/normalizer"
)

// StationSync refreshes the stations reference table from the upstream API.
type StationSync struct {
	store      Store
	newFetcher FetcherFactory
	metrics    *metrics.Metrics
	logger     *log.Logger
	now        func() time.Time
}

func NewStationSync(store Store, newFetcher FetcherFactory, m *metrics.Metrics, logger *log.Logger) *StationSync {
	if logger == nil {
		logger = log.Default()
	}
	return &StationSync{store: store, newFetcher: newFetcher, metrics: m, logger: logger, now: time.Now}
}

// Sync fetches every station and upserts it. Stations without an id are skipped.
func (s *StationSync) Sync(ctx context.Context) (result models.UpsertResult, err error) {
	defer func() { s.metrics.ObserveStationSync(err) }()

	s.logger.Println("Service: resyncing stations from iRail...")
	fetcher, err := s.newFetcher()
	if err != nil {
		return result, fmt.Errorf("failed to create fetcher: %w", err)
	}
	defer fetcher.Close()

	raw, err := fetcher.GetStations(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to fetch stations: %w", err)
	}

	updatedAt := s.now().UTC()
	stations := make([]models.Station, 0, len(raw))
	skipped := 0
	for _, info := range raw {
		st, err := normalizer.Station(info, updatedAt)
		if err != nil {
			skipped++
			continue
		}
		stations = append(stations, st)
	}
	if skipped > 0 {
		s.logger.Printf("WARN Service: skipped %d stations without id or name", skipped)
	}

	result, err = s.store.UpsertStations(ctx, stations)
	if err != nil {
		return result, err
	}
	s.logger.Printf("Service: station resync complete: %d written, %d failed", result.Written, result.Failed)
	return result, nil
}

// SyncIfEmpty runs Sync only when no station is stored yet.
func (s *StationSync) SyncIfEmpty(ctx context.Context) error {
	existing, err := s.store.ListStations(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		s.logger.Printf("Service: %d stations already stored, skipping initial resync", len(existing))
		return nil
	}
	_, err = s.Sync(ctx)
	return err
}
