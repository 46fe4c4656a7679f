package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openswarm/swarmer/internal/domain/model"
	apperrors "github.com/openswarm/swarmer/internal/errors"
	"github.com/openswarm/swarmer/internal/testutil"
)

func newTestScheduler(t *testing.T, store *fakeJobStore, capacity int) *Scheduler {
	t.Helper()
	s, err := NewScheduler(SchedulerOptions{
		Store:    store,
		Capacity: capacity,
		Now:      testutil.FixedTimeFunc(testutil.TestTime()),
	})
	require.NoError(t, err)
	return s
}

func submissions(names ...string) []model.TaskSubmission {
	out := make([]model.TaskSubmission, 0, len(names))
	for _, n := range names {
		out = append(out, model.TaskSubmission{TaskName: n, TaskArgs: []string{"1"}})
	}
	return out
}

func TestNewSchedulerValidatesOptions(t *testing.T) {
	_, err := NewScheduler(SchedulerOptions{Capacity: 1})
	assert.Error(t, err)

	_, err = NewScheduler(SchedulerOptions{Store: newFakeJobStore(), Capacity: 0})
	assert.Error(t, err)
}

func TestAddNewJobRejectsEmptyTasks(t *testing.T) {
	store := newFakeJobStore()
	s := newTestScheduler(t, store, 4)

	err := s.AddNewJob(context.Background(), "job1", "img", "http://cb", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "tasks", apperrors.GetField(err))

	// Nothing was written to the store.
	assert.Empty(t, store.jobs)
}

func TestAddNewJobWritesStoreAndQueues(t *testing.T) {
	store := newFakeJobStore()
	s := newTestScheduler(t, store, 4)

	require.NoError(t, s.AddNewJob(context.Background(), "job1", "img", "http://cb", submissions("a", "b")))

	assert.True(t, s.KnowsJob("job1"))
	tasks, err := store.GetTasks(context.Background(), "job1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, model.StatusNotReported, tasks[0].Status)

	count, err := store.GetTaskCount(context.Background(), "job1", model.FieldTaskCountTotal)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestAddNewJobTaskWriteFailureClearsJobHash(t *testing.T) {
	store := newFakeJobStore()
	s := newTestScheduler(t, store, 4)

	store.failAddTasks = apperrors.Store("redis down")
	err := s.AddNewJob(context.Background(), "job1", "img", "http://cb", submissions("a"))
	require.Error(t, err)
	assert.True(t, apperrors.IsStore(err))

	// The orphaned job hash is cleaned up and nothing was queued.
	assert.Equal(t, []string{"job1"}, store.clearedJobIDs)
	assert.False(t, s.KnowsJob("job1"))
	assert.Empty(t, s.NextTasks())
}

func TestNextTasksRespectsCapacity(t *testing.T) {
	store := newFakeJobStore()
	s := newTestScheduler(t, store, 2)

	require.NoError(t, s.AddNewJob(context.Background(), "job1", "img", "http://cb", submissions("a", "b", "c")))

	claimed := s.NextTasks()
	require.Len(t, claimed, 2)
	assert.Equal(t, "a", claimed[0].Name)
	assert.Equal(t, "b", claimed[1].Name)
	assert.Equal(t, "img", claimed[0].Image)

	// Capacity is full until something completes.
	assert.Empty(t, s.NextTasks())
}

func TestNextTasksIsFIFOAcrossJobs(t *testing.T) {
	store := newFakeJobStore()
	s := newTestScheduler(t, store, 10)

	require.NoError(t, s.AddNewJob(context.Background(), "job1", "img", "http://cb", submissions("a")))
	require.NoError(t, s.AddNewJob(context.Background(), "job2", "img", "http://cb", submissions("b")))

	claimed := s.NextTasks()
	require.Len(t, claimed, 2)
	assert.Equal(t, "job1", claimed[0].JobID)
	assert.Equal(t, "job2", claimed[1].JobID)
}

func TestMarkTaskStartedCommitsServiceID(t *testing.T) {
	store := newFakeJobStore()
	s := newTestScheduler(t, store, 4)
	ctx := context.Background()

	require.NoError(t, s.AddNewJob(ctx, "job1", "img", "http://cb", submissions("a")))
	require.Len(t, s.NextTasks(), 1)

	require.NoError(t, s.MarkTaskStarted(ctx, "job1", "a", "svc-1"))

	task, err := store.GetTask(ctx, "job1", "a")
	require.NoError(t, err)
	assert.Equal(t, "svc-1", task.ServiceID)

	started, err := store.GetTaskCount(ctx, "job1", model.FieldTaskCountStarted)
	require.NoError(t, err)
	assert.EqualValues(t, 1, started)

	snapshot := s.StartedTasks()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "svc-1", snapshot[0].ServiceID)
}

func TestMarkTaskStartedStoreFailureLeavesEntryUnstarted(t *testing.T) {
	store := newFakeJobStore()
	s := newTestScheduler(t, store, 4)
	ctx := context.Background()

	require.NoError(t, s.AddNewJob(ctx, "job1", "img", "http://cb", submissions("a")))
	require.Len(t, s.NextTasks(), 1)

	store.failIncr = apperrors.Store("redis down")
	err := s.MarkTaskStarted(ctx, "job1", "a", "svc-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsStore(err))

	// The entry is still unstarted, so the transition can be retried.
	assert.Empty(t, s.StartedTasks())

	store.failIncr = nil
	require.NoError(t, s.MarkTaskStarted(ctx, "job1", "a", "svc-1"))
	require.Len(t, s.StartedTasks(), 1)

	started, err := store.GetTaskCount(ctx, "job1", model.FieldTaskCountStarted)
	require.NoError(t, err)
	assert.EqualValues(t, 1, started)
}

func TestMarkTaskStartedUnknownEntry(t *testing.T) {
	s := newTestScheduler(t, newFakeJobStore(), 4)
	err := s.MarkTaskStarted(context.Background(), "nope", "a", "svc-1")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCompleteTaskRecordsOutcome(t *testing.T) {
	store := newFakeJobStore()
	s := newTestScheduler(t, store, 4)
	ctx := context.Background()

	require.NoError(t, s.AddNewJob(ctx, "job1", "img", "http://cb", submissions("a", "b")))
	require.Len(t, s.NextTasks(), 2)
	require.NoError(t, s.MarkTaskStarted(ctx, "job1", "a", "svc-1"))

	removals, mayRunMore, err := s.CompleteTask(ctx, "job1", "a", 0, model.TaskResult{
		Stdout: testutil.StringPtr("ok"),
		Stderr: testutil.StringPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"svc-1"}, removals)
	assert.False(t, mayRunMore) // nothing pending

	task, err := store.GetTask(ctx, "job1", "a")
	require.NoError(t, err)
	assert.Equal(t, 0, task.Status)
	require.NotNil(t, task.Result.Stdout)
	assert.Equal(t, "ok", *task.Result.Stdout)

	complete, err := store.GetTaskCount(ctx, "job1", model.FieldTaskCountComplete)
	require.NoError(t, err)
	assert.EqualValues(t, 1, complete)
}

func TestCompleteTaskUnknownJob(t *testing.T) {
	s := newTestScheduler(t, newFakeJobStore(), 4)

	_, _, err := s.CompleteTask(context.Background(), "ghost", "a", 0, model.TaskResult{})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCompleteTaskLateCallbackIsNoop(t *testing.T) {
	store := newFakeJobStore()
	s := newTestScheduler(t, store, 4)
	ctx := context.Background()

	require.NoError(t, s.AddNewJob(ctx, "job1", "img", "http://cb", submissions("a")))
	require.Len(t, s.NextTasks(), 1)
	require.NoError(t, s.MarkTaskStarted(ctx, "job1", "a", "svc-1"))

	_, _, err := s.CompleteTask(ctx, "job1", "a", 0, model.TaskResult{})
	require.NoError(t, err)

	// Duplicate report: job is known but the entry is gone.
	removals, mayRunMore, err := s.CompleteTask(ctx, "job1", "a", 0, model.TaskResult{})
	require.NoError(t, err)
	assert.Nil(t, removals)
	assert.False(t, mayRunMore)
}

func TestCompleteTaskStoreFailureLeavesTaskRunning(t *testing.T) {
	store := newFakeJobStore()
	s := newTestScheduler(t, store, 4)
	ctx := context.Background()

	require.NoError(t, s.AddNewJob(ctx, "job1", "img", "http://cb", submissions("a")))
	require.Len(t, s.NextTasks(), 1)
	require.NoError(t, s.MarkTaskStarted(ctx, "job1", "a", "svc-1"))

	store.failUpdate = apperrors.Store("redis down")
	_, _, err := s.CompleteTask(ctx, "job1", "a", 0, model.TaskResult{})
	require.Error(t, err)
	assert.True(t, apperrors.IsStore(err))

	// Entry stays running so a retry or the dead sweeper can handle it.
	store.failUpdate = nil
	removals, _, err := s.CompleteTask(ctx, "job1", "a", 0, model.TaskResult{})
	require.NoError(t, err)
	assert.Equal(t, []string{"svc-1"}, removals)
}

func TestCompleteTaskDrainsOverdueServices(t *testing.T) {
	store := newFakeJobStore()
	s := newTestScheduler(t, store, 4)
	ctx := context.Background()

	base := testutil.TestTime()
	clock := base
	s.now = func() time.Time { return clock }

	require.NoError(t, s.AddNewJob(ctx, "job1", "img", "http://cb", submissions("stale", "fresh")))
	require.Len(t, s.NextTasks(), 2)
	require.NoError(t, s.MarkTaskStarted(ctx, "job1", "stale", "svc-stale"))
	require.NoError(t, s.MarkTaskStarted(ctx, "job1", "fresh", "svc-fresh"))

	// Age only the stale entry past the cutoff, then sweep.
	clock = base.Add(31 * time.Minute)
	requeued := s.SweepDeadTasks(ctx, 30*time.Minute)
	assert.Equal(t, 2, requeued) // both entries share the same start time here

	// Re-dispatch and complete one task: the drained overdue services ride
	// along with its own removal.
	claimed := s.NextTasks()
	require.Len(t, claimed, 2)
	require.NoError(t, s.MarkTaskStarted(ctx, "job1", "stale", "svc-stale-2"))

	removals, _, err := s.CompleteTask(ctx, "job1", "stale", 0, model.TaskResult{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"svc-stale", "svc-fresh", "svc-stale-2"}, removals)

	// Overdue set drains exactly once.
	require.NoError(t, s.MarkTaskStarted(ctx, "job1", "fresh", "svc-fresh-2"))
	removals, _, err = s.CompleteTask(ctx, "job1", "fresh", 0, model.TaskResult{})
	require.NoError(t, err)
	assert.Equal(t, []string{"svc-fresh-2"}, removals)
}

func TestSweepDeadTasksRequeuesNeverStarted(t *testing.T) {
	store := newFakeJobStore()
	s := newTestScheduler(t, store, 4)
	ctx := context.Background()

	base := testutil.TestTime()
	clock := base
	s.now = func() time.Time { return clock }

	require.NoError(t, s.AddNewJob(ctx, "job1", "img", "http://cb", submissions("a")))
	require.Len(t, s.NextTasks(), 1)
	// No MarkTaskStarted: dispatch failed after the claim.

	clock = base.Add(time.Hour)
	signals := 0
	s.SetRunSignal(func() { signals++ })

	requeued := s.SweepDeadTasks(ctx, 30*time.Minute)
	assert.Equal(t, 1, requeued)
	assert.Equal(t, 1, signals)

	// The entry is claimable again and carries no overdue service.
	claimed := s.NextTasks()
	require.Len(t, claimed, 1)
	assert.Equal(t, "a", claimed[0].Name)
}

func TestSweepDeadTasksKeepsFreshEntries(t *testing.T) {
	store := newFakeJobStore()
	s := newTestScheduler(t, store, 4)
	ctx := context.Background()

	require.NoError(t, s.AddNewJob(ctx, "job1", "img", "http://cb", submissions("a")))
	require.Len(t, s.NextTasks(), 1)
	require.NoError(t, s.MarkTaskStarted(ctx, "job1", "a", "svc-1"))

	assert.Zero(t, s.SweepDeadTasks(ctx, 30*time.Minute))
	assert.Len(t, s.StartedTasks(), 1)
}

func TestSweepCompletedJobsDeliversAndClears(t *testing.T) {
	store := newFakeJobStore()
	s := newTestScheduler(t, store, 4)
	ctx := context.Background()

	require.NoError(t, s.AddNewJob(ctx, "job1", "img", "http://example.com/cb", submissions("a")))
	require.Len(t, s.NextTasks(), 1)
	require.NoError(t, s.MarkTaskStarted(ctx, "job1", "a", "svc-1"))
	_, _, err := s.CompleteTask(ctx, "job1", "a", 0, model.TaskResult{Stdout: testutil.StringPtr("done")})
	require.NoError(t, err)

	records := s.SweepCompletedJobs(ctx)
	require.Len(t, records, 1)
	assert.Equal(t, "job1", records[0].ID)
	assert.Equal(t, "http://example.com/cb", records[0].Callback)
	assert.Equal(t, 1, records[0].TaskCountComplete)
	require.Len(t, records[0].Tasks, 1)
	assert.Equal(t, 0, records[0].Tasks[0].Status)

	assert.False(t, s.KnowsJob("job1"))
	assert.Equal(t, []string{"job1"}, store.clearedJobIDs)

	// Second sweep finds nothing.
	assert.Empty(t, s.SweepCompletedJobs(ctx))
}

func TestSweepCompletedJobsSkipsLiveJobs(t *testing.T) {
	store := newFakeJobStore()
	s := newTestScheduler(t, store, 4)
	ctx := context.Background()

	require.NoError(t, s.AddNewJob(ctx, "job1", "img", "http://cb", submissions("a", "b")))
	require.Len(t, s.NextTasks(), 2)
	_, _, err := s.CompleteTask(ctx, "job1", "a", 0, model.TaskResult{})
	require.NoError(t, err)

	assert.Empty(t, s.SweepCompletedJobs(ctx))
	assert.True(t, s.KnowsJob("job1"))
}

func TestSweepCompletedJobsRetriesOnStoreFailure(t *testing.T) {
	store := newFakeJobStore()
	s := newTestScheduler(t, store, 4)
	ctx := context.Background()

	require.NoError(t, s.AddNewJob(ctx, "job1", "img", "http://cb", submissions("a")))
	require.Len(t, s.NextTasks(), 1)
	_, _, err := s.CompleteTask(ctx, "job1", "a", 0, model.TaskResult{})
	require.NoError(t, err)

	store.failGetJob = apperrors.Store("redis down")
	assert.Empty(t, s.SweepCompletedJobs(ctx))
	assert.True(t, s.KnowsJob("job1"))

	store.failGetJob = nil
	records := s.SweepCompletedJobs(ctx)
	require.Len(t, records, 1)
	assert.Equal(t, "job1", records[0].ID)
}

func TestJobDetailsUnknownJob(t *testing.T) {
	s := newTestScheduler(t, newFakeJobStore(), 4)
	_, err := s.JobDetails(context.Background(), "ghost")
	assert.True(t, apperrors.IsNotFound(err))
}
