// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/gewnthar/trainboard/models"
)

type runner interface {
	Run(ctx context.Context, trigger models.TriggerSource) models.RunLog
}

type syncer interface {
	Sync(ctx context.Context) (models.UpsertResult, error)
}

// Scheduler triggers collection runs and station resyncs on fixed intervals.
type Scheduler struct {
	collector    runner
	stations     syncer
	interval     time.Duration
	syncInterval time.Duration
	runOnStartup bool
	logger       *log.Logger
}

// NewScheduler builds a scheduler. A nil stations syncer or a non-positive syncInterval
// disables periodic station resync.
func NewScheduler(collector runner, stations syncer, interval, syncInterval time.Duration, runOnStartup bool, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		collector:    collector,
		stations:     stations,
		interval:     interval,
		syncInterval: syncInterval,
		runOnStartup: runOnStartup,
		logger:       logger,
	}
}

// Start blocks until ctx is cancelled. Runs are executed synchronously, so a run that
// outlasts the interval delays the next tick instead of overlapping it.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Printf("Service: scheduler started (collect every %s, station resync every %s)", s.interval, s.syncInterval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var syncC <-chan time.Time
	if s.stations != nil && s.syncInterval > 0 {
		syncTicker := time.NewTicker(s.syncInterval)
		defer syncTicker.Stop()
		syncC = syncTicker.C
	}

	if s.runOnStartup {
		s.collector.Run(ctx, models.TriggerTimer)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Println("Service: scheduler stopped")
			return
		case <-ticker.C:
			s.collector.Run(ctx, models.TriggerTimer)
		case <-syncC:
			if _, err := s.stations.Sync(ctx); err != nil {
				s.logger.Printf("ERROR Service: scheduled station resync failed: %v", err)
			}
		}
	}
}
