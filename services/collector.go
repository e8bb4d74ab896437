// services/collector.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gewnthar/trainboard/database"
	"github.com/gewnthar/trainboard/irail"
	"github.com/gewnthar/trainboard/metrics"
	"github.com/gewnthar/trainboard/models"
	"github.com/gewnthar/trainboard/normalizer"
)

const (
	runLogTimeout    = 10 * time.Second
	maxErrorTextRows = 5
)

// Collector runs one fetch, normalize, upsert pass over the configured stations and
// records exactly one run log for it.
type Collector struct {
	store      Store
	newFetcher FetcherFactory
	stations   []string
	metrics    *metrics.Metrics
	logger     *log.Logger
	now        func() time.Time
}

func NewCollector(store Store, newFetcher FetcherFactory, stations []string, m *metrics.Metrics, logger *log.Logger) *Collector {
	if logger == nil {
		logger = log.Default()
	}
	return &Collector{
		store:      store,
		newFetcher: newFetcher,
		stations:   append([]string(nil), stations...),
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes one invocation. Errors never escape: they end up in the returned run log,
// which has already been persisted (best effort) when Run returns.
func (c *Collector) Run(ctx context.Context, trigger models.TriggerSource) (run models.RunLog) {
	run = models.RunLog{
		ID:                uuid.NewString(),
		TriggerSource:     trigger,
		Status:            models.RunStarted,
		StartedAt:         c.now().UTC(),
		StationsRequested: len(c.stations),
	}
	c.logger.Printf("Service: collection run %s started (trigger=%s, stations=%d)", run.ID, trigger, len(c.stations))

	var runErr error
	defer func() {
		if r := recover(); r != nil {
			runErr = fmt.Errorf("collector panic in state %s: %v", run.Status, r)
		}
		c.finish(ctx, &run, runErr)
	}()

	runErr = c.collect(ctx, &run)
	return run
}

func (c *Collector) collect(ctx context.Context, run *models.RunLog) error {
	fetcher, err := c.newFetcher()
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}
	defer fetcher.Close()

	run.Status = models.RunFetching
	boards := make([]*irail.Liveboard, 0, len(c.stations))
	var skipped []string
	var lastSkipErr error
	for _, stationID := range c.stations {
		board, err := fetcher.GetLiveboard(ctx, stationID, irail.BoardTime{})
		c.metrics.ObserveFetch(err)
		if err != nil {
			if !stationRejected(err) {
				return fmt.Errorf("failed to fetch liveboard for %s: %w", stationID, err)
			}
			c.logger.Printf("WARN Service: skipping station %s: %v", stationID, err)
			run.StationsFailed++
			skipped = append(skipped, stationID)
			lastSkipErr = err
			continue
		}
		run.RowsFetched += len(board.Departures.Departure)
		boards = append(boards, board)
	}
	if len(boards) == 0 && lastSkipErr != nil {
		return fmt.Errorf("no station could be fetched (%s): %w", strings.Join(skipped, ", "), lastSkipErr)
	}

	run.Status = models.RunNormalizing
	recordedAt := c.now().UTC()
	rows := make([]models.Departure, 0, run.RowsFetched)
	for _, board := range boards {
		for _, dep := range board.Departures.Departure {
			row, err := normalizer.Departure(board.StationInfo, dep, recordedAt)
			if err != nil {
				run.RowsSkipped++
				c.logger.Printf("WARN Service: skipping departure at %s: %v", board.StationInfo.ID, err)
				continue
			}
			rows = append(rows, row)
		}
	}

	run.Status = models.RunUpserting
	result, err := c.store.UpsertDepartures(ctx, rows)
	run.RowsWritten = result.Written
	run.RowsFailed = result.Failed
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		summary := summarizeRowErrors(result)
		if result.Written == 0 {
			return &database.StorageError{Op: "write any departure", Err: errors.New(summary)}
		}
		run.ErrorKind = models.ErrorKindStorage
		run.ErrorText = summary
		return nil
	}
	if len(skipped) > 0 {
		run.ErrorKind = models.ErrorKindUpstream
		run.ErrorText = fmt.Sprintf("skipped %d of %d stations: %s", len(skipped), len(c.stations), strings.Join(skipped, ", "))
	}
	return nil
}

// stationRejected reports whether the upstream refused one station outright, e.g. an unknown
// id answered with 404. Such a station is skipped; outages and timeouts still abort the run.
func stationRejected(err error) bool {
	var upstream *irail.UpstreamError
	return errors.As(err, &upstream) && upstream.StatusCode >= 400 && upstream.StatusCode < 500 && !upstream.Retryable()
}

func (c *Collector) finish(ctx context.Context, run *models.RunLog, runErr error) {
	run.FinishedAt = c.now().UTC()
	run.DurationMS = run.FinishedAt.Sub(run.StartedAt).Milliseconds()

	if runErr != nil {
		failedIn := run.Status
		run.Status = models.RunFailed
		run.ErrorKind = ClassifyError(runErr)
		run.ErrorText = runErr.Error()
		c.logger.Printf("ERROR Service: collection run %s failed in %s (%s): %v", run.ID, failedIn, run.ErrorKind, runErr)
	} else {
		run.Status = models.RunSucceeded
		c.logger.Printf("Service: collection run %s succeeded: fetched=%d written=%d skipped=%d failed=%d in %dms",
			run.ID, run.RowsFetched, run.RowsWritten, run.RowsSkipped, run.RowsFailed, run.DurationMS)
	}

	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), runLogTimeout)
	defer cancel()
	if err := c.store.InsertRunLog(logCtx, *run); err != nil {
		c.logger.Printf("ERROR Service: failed to write run log %s: %v", run.ID, err)
	}

	c.metrics.ObserveRun(string(run.TriggerSource), string(run.Status), string(run.ErrorKind),
		run.FinishedAt.Sub(run.StartedAt), run.RowsFetched, run.RowsWritten, run.RowsSkipped, run.RowsFailed)
}

func summarizeRowErrors(result models.UpsertResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d rows failed", result.Failed, result.Failed+result.Written)
	for i, rowErr := range result.Errors {
		if i == maxErrorTextRows {
			fmt.Fprintf(&b, "; and %d more", len(result.Errors)-i)
			break
		}
		fmt.Fprintf(&b, "; %s: %s", rowErr.ID, rowErr.Err)
	}
	return b.String()
}
