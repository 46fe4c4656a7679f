package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/openswarm/swarmer/internal/domain/model"
	apperrors "github.com/openswarm/swarmer/internal/errors"
	"github.com/openswarm/swarmer/internal/mocks"
)

func TestCreateJobStoreFailureDuringSubmit(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockJobStore(ctrl)
	backend := mocks.NewMockContainerBackend(ctrl)

	scheduler, err := NewScheduler(SchedulerOptions{Store: store, Capacity: 2})
	require.NoError(t, err)
	runner, err := NewRunner(RunnerOptions{Scheduler: scheduler, Backend: backend})
	require.NoError(t, err)

	store.EXPECT().
		AddJob(gomock.Any(), gomock.Any(), "img", "http://example.com/cb").
		Return(apperrors.Store("redis down"))

	_, err = runner.CreateJob(context.Background(), submitReq("a"))
	require.Error(t, err)
	assert.True(t, apperrors.IsStore(err))
	assert.False(t, scheduler.KnowsJob("job1"))
}

func TestCreateJobDispatchSequence(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockJobStore(ctrl)
	backend := mocks.NewMockContainerBackend(ctrl)

	scheduler, err := NewScheduler(SchedulerOptions{Store: store, Capacity: 2})
	require.NoError(t, err)
	runner, err := NewRunner(RunnerOptions{
		Scheduler: scheduler,
		Backend:   backend,
		NewJobID:  func() string { return "job1" },
	})
	require.NoError(t, err)

	gomock.InOrder(
		store.EXPECT().AddJob(gomock.Any(), "job1", "img", "http://example.com/cb").Return(nil),
		store.EXPECT().AddTasks(gomock.Any(), "job1", gomock.Len(1)).Return(nil),
		backend.EXPECT().
			StartTask(gomock.Any(), model.RunnableTask{JobID: "job1", Name: "a", Args: []string{"1"}, Image: "img"}).
			Return("svc-1", nil),
		store.EXPECT().SetTaskServiceID(gomock.Any(), "job1", "a", "svc-1").Return(nil),
		store.EXPECT().IncrTaskCount(gomock.Any(), "job1", model.FieldTaskCountStarted, int64(1)).Return(int64(1), nil),
	)

	id, err := runner.CreateJob(context.Background(), submitReq("a"))
	require.NoError(t, err)
	assert.Equal(t, "job1", id)
}
