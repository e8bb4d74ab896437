// services/scheduler_test.go
package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gewnthar/trainboard/models"
)

type countingRunner struct{ runs atomic.Int32 }

func (r *countingRunner) Run(_ context.Context, trigger models.TriggerSource) models.RunLog {
	r.runs.Add(1)
	return models.RunLog{TriggerSource: trigger, Status: models.RunSucceeded}
}

type countingSyncer struct{ syncs atomic.Int32 }

func (s *countingSyncer) Sync(context.Context) (models.UpsertResult, error) {
	s.syncs.Add(1)
	return models.UpsertResult{}, nil
}

func TestScheduler_RunsOnTicksUntilCancelled(t *testing.T) {
	runner := &countingRunner{}
	syncer := &countingSyncer{}
	s := NewScheduler(runner, syncer, 10*time.Millisecond, 15*time.Millisecond, true, quietLogger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return runner.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return syncer.syncs.Load() >= 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}

func TestScheduler_RunOnStartup(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, nil, time.Hour, 0, true, quietLogger)

	ctx, cancel := context.WithCancel(context.Background())
	go s.Start(ctx)
	defer cancel()

	assert.Eventually(t, func() bool { return runner.runs.Load() == 1 }, time.Second, 5*time.Millisecond)
}
