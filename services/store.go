// services/store.go
package services

import (
	"context"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/gewnthar/trainboard/config"
	"github.com/gewnthar/trainboard/irail"
	"github.com/gewnthar/trainboard/models"
)

// Store is the persistence the services need. database.Store and database.MemoryStore implement it.
type Store interface {
	Ping(ctx context.Context) error
	UpsertStations(ctx context.Context, stations []models.Station) (models.UpsertResult, error)
	ListStations(ctx context.Context) ([]models.Station, error)
	UpsertDepartures(ctx context.Context, rows []models.Departure) (models.UpsertResult, error)
	ListDepartures(ctx context.Context, filter models.DepartureFilter) ([]models.Departure, error)
	DepartureSummary(ctx context.Context, since time.Time) (models.Analytics, error)
	DelayStats(ctx context.Context, since time.Time) ([]models.DelayRow, error)
	PeakHours(ctx context.Context, since time.Time) ([]models.PeakHourRow, error)
	VehicleMix(ctx context.Context, since time.Time) ([]models.VehicleMixRow, error)
	InsertRunLog(ctx context.Context, r models.RunLog) error
	ListRunLogs(ctx context.Context, limit int) ([]models.RunLog, error)
}

// Fetcher reads the upstream API. It is scoped to one invocation and closed afterwards.
type Fetcher interface {
	GetLiveboard(ctx context.Context, stationID string, at irail.BoardTime) (*irail.Liveboard, error)
	GetStations(ctx context.Context) ([]irail.StationInfo, error)
	Close()
}

// FetcherFactory creates a fresh Fetcher for each invocation.
type FetcherFactory func() (Fetcher, error)

// IRailFetcherFactory builds iRail clients sharing one rate limiter.
func IRailFetcherFactory(cfg config.IRailConfig, limiter *rate.Limiter, logger *log.Logger) FetcherFactory {
	return func() (Fetcher, error) {
		opts := []irail.Option{irail.WithLogger(logger)}
		if limiter != nil {
			opts = append(opts, irail.WithLimiter(limiter))
		}
		client, err := irail.NewClient(cfg, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
