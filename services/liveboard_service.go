// services/liveboard_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gewnthar/trainboard/irail"
	"github.com/gewnthar/trainboard/metrics"
	"github.com/gewnthar/trainboard/models"
	"github.com/gewnthar/trainboard/normalizer"
)

// LiveboardResult is one on-demand liveboard lookup and what it stored.
type LiveboardResult struct {
	Board   *irail.Liveboard
	Stored  models.UpsertResult
	Skipped int
	// StoreErr is set when the board was fetched but could not be saved.
	StoreErr error
}

// LiveboardService fetches a single station board on request and stores its departures.
type LiveboardService struct {
	store      Store
	newFetcher FetcherFactory
	metrics    *metrics.Metrics
	logger     *log.Logger
	now        func() time.Time
}

func NewLiveboardService(store Store, newFetcher FetcherFactory, m *metrics.Metrics, logger *log.Logger) *LiveboardService {
	if logger == nil {
		logger = log.Default()
	}
	return &LiveboardService{store: store, newFetcher: newFetcher, metrics: m, logger: logger, now: time.Now}
}

// Fetch returns the board for stationID at the requested moment. A storage failure does not
// fail the lookup; it is reported in the result.
func (s *LiveboardService) Fetch(ctx context.Context, stationID string, at irail.BoardTime) (*LiveboardResult, error) {
	fetcher, err := s.newFetcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}
	defer fetcher.Close()

	board, err := fetcher.GetLiveboard(ctx, stationID, at)
	s.metrics.ObserveFetch(err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch liveboard for %s: %w", stationID, err)
	}

	res := &LiveboardResult{Board: board}
	recordedAt := s.now().UTC()
	rows := make([]models.Departure, 0, len(board.Departures.Departure))
	for _, dep := range board.Departures.Departure {
		row, err := normalizer.Departure(board.StationInfo, dep, recordedAt)
		if err != nil {
			res.Skipped++
			continue
		}
		rows = append(rows, row)
	}

	res.Stored, res.StoreErr = s.store.UpsertDepartures(ctx, rows)
	if res.StoreErr != nil {
		s.logger.Printf("ERROR Service: liveboard for %s fetched but not stored: %v", stationID, res.StoreErr)
	} else if res.Stored.Failed > 0 {
		s.logger.Printf("WARN Service: liveboard for %s: %s", stationID, summarizeRowErrors(res.Stored))
	}
	return res, nil
}
