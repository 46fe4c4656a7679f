// Package data provides the Redis-backed job store.
package data

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/openswarm/swarmer/internal/domain/model"
	apperrors "github.com/openswarm/swarmer/internal/errors"
)

// RedisJobStore persists one Redis hash per job id. Job-level metadata and
// counters are plain hash fields; the task list is a JSON string under the
// `tasks` field so the outer hash shape stays stable while sub-records
// mutate.
//
// Task mutations are read-modify-write of the whole list. A per-job mutex
// serializes them so concurrent result callbacks for the same job cannot
// lose writes. Counter updates go through HINCRBY and need no lock.
type RedisJobStore struct {
	client redis.UniversalClient
	logger *slog.Logger
	locks  keyedMutex
}

// RedisJobStoreOptions groups dependencies for RedisJobStore.
type RedisJobStoreOptions struct {
	Client redis.UniversalClient // Required: connected Redis client
	Logger *slog.Logger          // Optional: structured logger
}

// NewRedisJobStore constructs a RedisJobStore.
func NewRedisJobStore(opts RedisJobStoreOptions) *RedisJobStore {
	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "job_store")
	}
	return &RedisJobStore{
		client: opts.Client,
		logger: logger,
	}
}

// AddJob creates the record with image, callback, and an empty task list.
func (s *RedisJobStore) AddJob(ctx context.Context, id, image, callback string) error {
	if s.logger != nil {
		s.logger.DebugContext(ctx, "adding job", "job_id", id, "image", image)
	}

	err := s.client.HSet(ctx, id,
		model.FieldImage, image,
		model.FieldCallback, callback,
		model.FieldTasks, "[]",
	).Err()
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeStore, "add job %s", id)
	}
	return nil
}

// AddTasks replaces the task list with the given tasks in their initial
// state and resets all three counters. Fails if the job does not exist.
func (s *RedisJobStore) AddTasks(ctx context.Context, id string, tasks []model.TaskSubmission) error {
	if err := s.requireJob(ctx, id); err != nil {
		return err
	}

	initial := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		initial = append(initial, model.NewTask(t.TaskName, t.TaskArgs))
	}

	serialized, err := json.Marshal(initial)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "encode task list for job %s", id)
	}

	err = s.client.HSet(ctx, id,
		model.FieldTasks, string(serialized),
		model.FieldTaskCountTotal, len(tasks),
		model.FieldTaskCountStarted, 0,
		model.FieldTaskCountComplete, 0,
	).Err()
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeStore, "add tasks to job %s", id)
	}
	return nil
}

// UpdateTaskStatus sets the exit status of a single task.
func (s *RedisJobStore) UpdateTaskStatus(ctx context.Context, id, taskName string, status int) error {
	return s.mutateTask(ctx, id, taskName, func(t *model.Task) {
		t.Status = status
	})
}

// UpdateTaskResult sets the captured output of a single task.
func (s *RedisJobStore) UpdateTaskResult(ctx context.Context, id, taskName string, result model.TaskResult) error {
	return s.mutateTask(ctx, id, taskName, func(t *model.Task) {
		t.Result = result
	})
}

// SetTaskServiceID records the backend service identifier for a task.
func (s *RedisJobStore) SetTaskServiceID(ctx context.Context, id, taskName, serviceID string) error {
	return s.mutateTask(ctx, id, taskName, func(t *model.Task) {
		t.ServiceID = serviceID
	})
}

// GetJob returns the whole record as a string map. The task list remains a
// serialized string; callers deserialize via model.ParseJobRecord.
func (s *RedisJobStore) GetJob(ctx context.Context, id string) (map[string]string, error) {
	record, err := s.client.HGetAll(ctx, id).Result()
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeStore, "get job %s", id)
	}
	// HGETALL returns an empty map for missing keys.
	if len(record) == 0 {
		return nil, apperrors.NotFoundf("job %s not found", id)
	}
	return record, nil
}

// GetTasks returns the deserialized task list.
func (s *RedisJobStore) GetTasks(ctx context.Context, id string) ([]model.Task, error) {
	return s.readTasks(ctx, id)
}

// GetTask returns a single task by name.
func (s *RedisJobStore) GetTask(ctx context.Context, id, taskName string) (model.Task, error) {
	tasks, err := s.readTasks(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	for _, t := range tasks {
		if t.Name == taskName {
			return t, nil
		}
	}
	return model.Task{}, apperrors.NotFoundf("task %s not found in job %s", taskName, id)
}

// IncrTaskCount atomically adjusts a counter field and returns the new value.
func (s *RedisJobStore) IncrTaskCount(ctx context.Context, id, field string, delta int64) (int64, error) {
	if err := s.requireJob(ctx, id); err != nil {
		return 0, err
	}

	value, err := s.client.HIncrBy(ctx, id, field, delta).Result()
	if err != nil {
		return 0, apperrors.Wrapf(err, apperrors.ErrCodeStore, "increment %s for job %s", field, id)
	}
	return value, nil
}

// GetTaskCount returns the current value of a counter field.
func (s *RedisJobStore) GetTaskCount(ctx context.Context, id, field string) (int64, error) {
	value, err := s.client.HGet(ctx, id, field).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, apperrors.NotFoundf("counter %s not found for job %s", field, id)
		}
		return 0, apperrors.Wrapf(err, apperrors.ErrCodeStore, "get %s for job %s", field, id)
	}

	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "decode %s for job %s", field, id)
	}
	return n, nil
}

// ClearJob removes the record entirely. Fails if the job does not exist.
func (s *RedisJobStore) ClearJob(ctx context.Context, id string) error {
	if err := s.requireJob(ctx, id); err != nil {
		return err
	}

	if err := s.client.Del(ctx, id).Err(); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeStore, "clear job %s", id)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "cleared job", "job_id", id)
	}
	return nil
}

// mutateTask applies fn to a single task inside the serialized list and
// writes the whole list back, holding the job's mutex for the duration.
func (s *RedisJobStore) mutateTask(ctx context.Context, id, taskName string, fn func(*model.Task)) error {
	unlock := s.locks.lock(id)
	defer unlock()

	tasks, err := s.readTasks(ctx, id)
	if err != nil {
		return err
	}

	found := false
	for i := range tasks {
		if tasks[i].Name == taskName {
			fn(&tasks[i])
			found = true
			break
		}
	}
	if !found {
		return apperrors.NotFoundf("task %s not found in job %s", taskName, id)
	}

	serialized, err := json.Marshal(tasks)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "encode task list for job %s", id)
	}

	if err := s.client.HSet(ctx, id, model.FieldTasks, string(serialized)).Err(); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeStore, "write task list for job %s", id)
	}
	return nil
}

func (s *RedisJobStore) readTasks(ctx context.Context, id string) ([]model.Task, error) {
	serialized, err := s.client.HGet(ctx, id, model.FieldTasks).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFoundf("job %s has no tasks", id)
		}
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeStore, "read task list for job %s", id)
	}

	var tasks []model.Task
	if err := json.Unmarshal([]byte(serialized), &tasks); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "decode task list for job %s", id)
	}
	return tasks, nil
}

func (s *RedisJobStore) requireJob(ctx context.Context, id string) error {
	exists, err := s.client.Exists(ctx, id).Result()
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeStore, "check job %s", id)
	}
	if exists == 0 {
		return apperrors.NotFoundf("job %s not found", id)
	}
	return nil
}

// keyedMutex hands out one mutex per job id. Entries are reference counted
// and removed once the last holder releases, so cleared jobs leave nothing
// behind.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*lockEntry)
	}
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs <= 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
