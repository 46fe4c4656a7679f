package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openswarm/swarmer/config"
	"github.com/openswarm/swarmer/internal/domain/model"
	apperrors "github.com/openswarm/swarmer/internal/errors"
	"github.com/openswarm/swarmer/internal/testutil"
)

func sweeperConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		QueueCapacity:         4,
		DeadScanInterval:      10 * time.Millisecond,
		CompletedScanInterval: 10 * time.Millisecond,
		DeadTaskAge:           30 * time.Minute,
	}
}

func TestNewSweepersValidateOptions(t *testing.T) {
	_, err := NewDeadTaskSweeper(DeadTaskSweeperOptions{Config: sweeperConfig()})
	assert.Error(t, err)

	scheduler := newTestScheduler(t, newFakeJobStore(), 1)
	_, err = NewCompletionSweeper(CompletionSweeperOptions{Scheduler: scheduler, Config: sweeperConfig()})
	assert.Error(t, err)
	_, err = NewCompletionSweeper(CompletionSweeperOptions{Poster: &fakePoster{}, Config: sweeperConfig()})
	assert.Error(t, err)
}

func TestDeadTaskSweeperRequeuesStalled(t *testing.T) {
	store := newFakeJobStore()
	scheduler := newTestScheduler(t, store, 4)
	ctx := context.Background()

	require.NoError(t, scheduler.AddNewJob(ctx, "job1", "img", "http://cb", submissions("a")))
	require.Len(t, scheduler.NextTasks(), 1)
	require.NoError(t, scheduler.MarkTaskStarted(ctx, "job1", "a", "svc-1"))
	scheduler.now = func() time.Time { return testutil.TestTime().Add(time.Hour) }

	sweeper, err := NewDeadTaskSweeper(DeadTaskSweeperOptions{
		Scheduler: scheduler,
		Config:    sweeperConfig(),
	})
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(runCtx) }()

	assert.Eventually(t, func() bool {
		return len(scheduler.NextTasks()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestCompletionSweeperDeliversRecords(t *testing.T) {
	store := newFakeJobStore()
	scheduler := newTestScheduler(t, store, 4)
	poster := &fakePoster{}
	ctx := context.Background()

	require.NoError(t, scheduler.AddNewJob(ctx, "job1", "img", "http://example.com/cb", submissions("a")))
	require.Len(t, scheduler.NextTasks(), 1)
	require.NoError(t, scheduler.MarkTaskStarted(ctx, "job1", "a", "svc-1"))
	_, _, err := scheduler.CompleteTask(ctx, "job1", "a", 0, model.TaskResult{Stdout: testutil.StringPtr("out")})
	require.NoError(t, err)

	sweeper, err := NewCompletionSweeper(CompletionSweeperOptions{
		Scheduler: scheduler,
		Poster:    poster,
		Config:    sweeperConfig(),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, sweeper.Sweep(ctx))
	require.Len(t, poster.records, 1)
	assert.Equal(t, "job1", poster.records[0].ID)
	assert.Equal(t, "http://example.com/cb", poster.records[0].Callback)
	assert.False(t, scheduler.KnowsJob("job1"))

	// Nothing left for the next pass.
	assert.Zero(t, sweeper.Sweep(ctx))
}

func TestCompletionSweeperDeliveryFailureIsNotRetried(t *testing.T) {
	store := newFakeJobStore()
	scheduler := newTestScheduler(t, store, 4)
	poster := &fakePoster{fail: apperrors.Backend("callback unreachable")}
	ctx := context.Background()

	require.NoError(t, scheduler.AddNewJob(ctx, "job1", "img", "http://cb", submissions("a")))
	require.Len(t, scheduler.NextTasks(), 1)
	_, _, err := scheduler.CompleteTask(ctx, "job1", "a", 0, model.TaskResult{})
	require.NoError(t, err)

	sweeper, err := NewCompletionSweeper(CompletionSweeperOptions{
		Scheduler: scheduler,
		Poster:    poster,
		Config:    sweeperConfig(),
	})
	require.NoError(t, err)

	// Record is already cleared from the store; the failed delivery is
	// dropped rather than retried.
	assert.Zero(t, sweeper.Sweep(ctx))
	assert.False(t, scheduler.KnowsJob("job1"))
	assert.Empty(t, poster.records)
}

func TestCompletionSweeperRunStopsOnCancel(t *testing.T) {
	scheduler := newTestScheduler(t, newFakeJobStore(), 1)
	sweeper, err := NewCompletionSweeper(CompletionSweeperOptions{
		Scheduler: scheduler,
		Poster:    &fakePoster{},
		Config:    sweeperConfig(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	cancel()
	assert.NoError(t, <-done)
}

func TestWaitWithJitterReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	waitWithJitter(ctx, time.Hour, nil)
	assert.Less(t, time.Since(start), time.Second)
}
