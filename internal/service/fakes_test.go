package service

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/openswarm/swarmer/internal/domain/model"
	apperrors "github.com/openswarm/swarmer/internal/errors"
)

// fakeJobStore is an in-memory JobStore with per-method error injection.
type fakeJobStore struct {
	mu   sync.Mutex
	jobs map[string]map[string]string

	failAddJob     error
	failAddTasks   error
	failUpdate     error
	failIncr       error
	failGetJob     error
	failClearJob   error
	incrCalls      []string
	clearedJobIDs  []string
	serviceIDCalls []string
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{jobs: make(map[string]map[string]string)}
}

func (f *fakeJobStore) AddJob(_ context.Context, id, image, callback string) error {
	if f.failAddJob != nil {
		return f.failAddJob
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[id] = map[string]string{
		model.FieldImage:    image,
		model.FieldCallback: callback,
		model.FieldTasks:    "[]",
	}
	return nil
}

func (f *fakeJobStore) AddTasks(_ context.Context, id string, tasks []model.TaskSubmission) error {
	if f.failAddTasks != nil {
		return f.failAddTasks
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	hash, ok := f.jobs[id]
	if !ok {
		return apperrors.NotFoundf("job %s not found", id)
	}
	list := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		list = append(list, model.NewTask(t.TaskName, t.TaskArgs))
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	hash[model.FieldTasks] = string(raw)
	hash[model.FieldTaskCountTotal] = strconv.Itoa(len(tasks))
	hash[model.FieldTaskCountStarted] = "0"
	hash[model.FieldTaskCountComplete] = "0"
	return nil
}

func (f *fakeJobStore) mutateTask(id, taskName string, fn func(*model.Task)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	hash, ok := f.jobs[id]
	if !ok {
		return apperrors.NotFoundf("job %s not found", id)
	}
	var list []model.Task
	if err := json.Unmarshal([]byte(hash[model.FieldTasks]), &list); err != nil {
		return err
	}
	for i := range list {
		if list[i].Name == taskName {
			fn(&list[i])
			raw, err := json.Marshal(list)
			if err != nil {
				return err
			}
			hash[model.FieldTasks] = string(raw)
			return nil
		}
	}
	return apperrors.NotFoundf("task %s not found in job %s", taskName, id)
}

func (f *fakeJobStore) UpdateTaskStatus(_ context.Context, id, taskName string, status int) error {
	if f.failUpdate != nil {
		return f.failUpdate
	}
	return f.mutateTask(id, taskName, func(t *model.Task) { t.Status = status })
}

func (f *fakeJobStore) UpdateTaskResult(_ context.Context, id, taskName string, result model.TaskResult) error {
	if f.failUpdate != nil {
		return f.failUpdate
	}
	return f.mutateTask(id, taskName, func(t *model.Task) { t.Result = result })
}

func (f *fakeJobStore) SetTaskServiceID(_ context.Context, id, taskName, serviceID string) error {
	f.mu.Lock()
	f.serviceIDCalls = append(f.serviceIDCalls, id+"/"+taskName+"="+serviceID)
	f.mu.Unlock()
	return f.mutateTask(id, taskName, func(t *model.Task) { t.ServiceID = serviceID })
}

func (f *fakeJobStore) GetJob(_ context.Context, id string) (map[string]string, error) {
	if f.failGetJob != nil {
		return nil, f.failGetJob
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	hash, ok := f.jobs[id]
	if !ok {
		return nil, apperrors.NotFoundf("job %s not found", id)
	}
	out := make(map[string]string, len(hash))
	for k, v := range hash {
		out[k] = v
	}
	return out, nil
}

func (f *fakeJobStore) GetTasks(ctx context.Context, id string) ([]model.Task, error) {
	raw, err := f.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	var list []model.Task
	if err := json.Unmarshal([]byte(raw[model.FieldTasks]), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (f *fakeJobStore) GetTask(ctx context.Context, id, taskName string) (model.Task, error) {
	list, err := f.GetTasks(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	for _, t := range list {
		if t.Name == taskName {
			return t, nil
		}
	}
	return model.Task{}, apperrors.NotFoundf("task %s not found in job %s", taskName, id)
}

func (f *fakeJobStore) IncrTaskCount(_ context.Context, id, field string, delta int64) (int64, error) {
	if f.failIncr != nil {
		return 0, f.failIncr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	hash, ok := f.jobs[id]
	if !ok {
		return 0, apperrors.NotFoundf("job %s not found", id)
	}
	f.incrCalls = append(f.incrCalls, id+"/"+field)
	current, _ := strconv.ParseInt(hash[field], 10, 64)
	current += delta
	hash[field] = strconv.FormatInt(current, 10)
	return current, nil
}

func (f *fakeJobStore) GetTaskCount(_ context.Context, id, field string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hash, ok := f.jobs[id]
	if !ok {
		return 0, apperrors.NotFoundf("job %s not found", id)
	}
	return strconv.ParseInt(hash[field], 10, 64)
}

func (f *fakeJobStore) ClearJob(_ context.Context, id string) error {
	if f.failClearJob != nil {
		return f.failClearJob
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[id]; !ok {
		return apperrors.NotFoundf("job %s not found", id)
	}
	delete(f.jobs, id)
	f.clearedJobIDs = append(f.clearedJobIDs, id)
	return nil
}

// fakeBackend records started tasks and removed services.
type fakeBackend struct {
	mu         sync.Mutex
	started    []model.RunnableTask
	removed    [][]string
	nextID     int
	failStart  error
	failRemove error
}

func (f *fakeBackend) StartTask(_ context.Context, task model.RunnableTask) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failStart != nil {
		return "", f.failStart
	}
	f.nextID++
	f.started = append(f.started, task)
	return "svc-" + strconv.Itoa(f.nextID), nil
}

func (f *fakeBackend) RemoveServices(_ context.Context, serviceIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRemove != nil {
		return f.failRemove
	}
	f.removed = append(f.removed, serviceIDs)
	return nil
}

func (f *fakeBackend) removedFlat() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, batch := range f.removed {
		out = append(out, batch...)
	}
	return out
}

// fakePoster records delivered records and can fail on demand.
type fakePoster struct {
	mu      sync.Mutex
	records []model.JobRecord
	fail    error
}

func (f *fakePoster) PostJobResult(_ context.Context, record model.JobRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.records = append(f.records, record)
	return nil
}
