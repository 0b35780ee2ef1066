package service

import (
	"context"
	"sort"
	"sync"

	"github.com/autotest/backend/internal/biz/environment"
	"github.com/autotest/backend/internal/biz/result"
	"github.com/autotest/backend/internal/biz/suite"
	"github.com/autotest/backend/internal/biz/task"
	domainError "github.com/autotest/backend/internal/domain/error"
	"github.com/autotest/backend/internal/provisioner"
)

// 内存仓储实现，行为与mysql实现对齐，测试专用

type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]*task.ExecutionTask
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[string]*task.ExecutionTask)}
}

func (r *fakeTaskRepo) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *fakeTaskRepo) Create(ctx context.Context, t *task.ExecutionTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.tasks[t.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) GetByID(ctx context.Context, id string) (*task.ExecutionTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, domainError.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return domainError.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) List(ctx context.Context, filter task.ListFilter, offset, limit int) ([]*task.ExecutionTask, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*task.ExecutionTask
	for _, t := range r.tasks {
		if v, ok := filter.SuiteID.Get(); ok && t.SuiteID != v {
			continue
		}
		if v, ok := filter.EnvID.Get(); ok && t.EnvID != v {
			continue
		}
		if v, ok := filter.Status.Get(); ok && t.Status != v {
			continue
		}
		if v, ok := filter.Executor.Get(); ok && t.Executor != v {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

func applyTaskPatch(t *task.ExecutionTask, patch task.Patch) {
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.StartTime != nil {
		t.StartTime = patch.StartTime
	}
	if patch.EndTime != nil {
		t.EndTime = patch.EndTime
	}
	if patch.PackageInfo != nil {
		t.PackageInfo = *patch.PackageInfo
	}
	if patch.Executor != nil {
		t.Executor = *patch.Executor
	}
	if patch.TotalCase != nil {
		t.TotalCase = *patch.TotalCase
	}
	if patch.SuccessCase != nil {
		t.SuccessCase = *patch.SuccessCase
	}
	if patch.FailedCase != nil {
		t.FailedCase = *patch.FailedCase
	}
}

func (r *fakeTaskRepo) UpdateCAS(ctx context.Context, id string, expected task.Status, patch task.Patch) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return false, domainError.ErrTaskNotFound
	}
	if t.Status != expected {
		return false, nil
	}
	applyTaskPatch(t, patch)
	return true, nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, id string, patch task.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return domainError.ErrTaskNotFound
	}
	applyTaskPatch(t, patch)
	return nil
}

func (r *fakeTaskRepo) LatestBySuite(ctx context.Context, suiteID string) (*task.ExecutionTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var candidates []*task.ExecutionTask
	for _, t := range r.tasks {
		if t.SuiteID == suiteID {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil, domainError.ErrTaskNotFound
	}
	// start_time 降序、空值最后，再按任务ID降序
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		switch {
		case a.StartTime == nil && b.StartTime == nil:
			return a.ID > b.ID
		case a.StartTime == nil:
			return false
		case b.StartTime == nil:
			return true
		case !a.StartTime.Equal(*b.StartTime):
			return a.StartTime.After(*b.StartTime)
		default:
			return a.ID > b.ID
		}
	})
	cp := *candidates[0]
	return &cp, nil
}

func (r *fakeTaskRepo) ListIDs(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.tasks))
	for id := range r.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

type fakeSuiteRepo struct {
	suites map[string]*suite.TestSuite
	cases  map[string]bool
}

func newFakeSuiteRepo() *fakeSuiteRepo {
	return &fakeSuiteRepo{
		suites: make(map[string]*suite.TestSuite),
		cases:  make(map[string]bool),
	}
}

func (r *fakeSuiteRepo) addSuite(id, name string) {
	r.suites[id] = &suite.TestSuite{ID: id, Name: name}
}

func (r *fakeSuiteRepo) GetSuite(ctx context.Context, id string) (*suite.TestSuite, error) {
	s, ok := r.suites[id]
	if !ok {
		return nil, domainError.ErrSuiteNotFound
	}
	return s, nil
}

func (r *fakeSuiteRepo) SuiteExists(ctx context.Context, id string) (bool, error) {
	_, ok := r.suites[id]
	return ok, nil
}

func (r *fakeSuiteRepo) CaseExists(ctx context.Context, id string) (bool, error) {
	return r.cases[id], nil
}

type fakeEnvRepo struct {
	mu   sync.Mutex
	envs map[string]*environment.Environment
}

func newFakeEnvRepo() *fakeEnvRepo {
	return &fakeEnvRepo{envs: make(map[string]*environment.Environment)}
}

func (r *fakeEnvRepo) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *fakeEnvRepo) Create(ctx context.Context, env *environment.Environment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *env
	r.envs[env.ID] = &cp
	return nil
}

func (r *fakeEnvRepo) GetByID(ctx context.Context, id string) (*environment.Environment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	env, ok := r.envs[id]
	if !ok {
		return nil, domainError.ErrEnvNotFound
	}
	cp := *env
	return &cp, nil
}

func (r *fakeEnvRepo) List(ctx context.Context, filter environment.ListFilter, offset, limit int) ([]*environment.Environment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*environment.Environment
	for _, env := range r.envs {
		if v, ok := filter.Status.Get(); ok && env.Status != v {
			continue
		}
		if v, ok := filter.Owner.Get(); ok && env.Owner != v {
			continue
		}
		cp := *env
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func applyEnvPatch(env *environment.Environment, patch environment.Patch) {
	if patch.Status != nil {
		env.Status = *patch.Status
	}
	if patch.OwnerTask != nil {
		env.OwnerTask = *patch.OwnerTask
	}
	if patch.ContainerID != nil {
		env.ContainerID = *patch.ContainerID
	}
	if patch.ProvisionToken != nil {
		env.ProvisionToken = *patch.ProvisionToken
	}
	if patch.AppliedToken != nil {
		env.AppliedToken = *patch.AppliedToken
	}
	if patch.LastCheckTime != nil {
		env.LastCheckTime = patch.LastCheckTime
	}
}

func (r *fakeEnvRepo) Update(ctx context.Context, id string, patch environment.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	env, ok := r.envs[id]
	if !ok {
		return domainError.ErrEnvNotFound
	}
	applyEnvPatch(env, patch)
	return nil
}

func (r *fakeEnvRepo) Reserve(ctx context.Context, envID, taskID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	env, ok := r.envs[envID]
	if !ok {
		return false, domainError.ErrEnvNotFound
	}
	if env.Status != environment.StatusAvailable || env.OwnerTask != "" {
		return false, nil
	}
	env.Status = environment.StatusOccupied
	env.OwnerTask = taskID
	return true, nil
}

func (r *fakeEnvRepo) Release(ctx context.Context, envID, taskID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	env, ok := r.envs[envID]
	if !ok {
		return false, domainError.ErrEnvNotFound
	}
	if env.OwnerTask != taskID {
		return false, nil
	}
	env.Status = environment.StatusAvailable
	env.OwnerTask = ""
	return true, nil
}

func (r *fakeEnvRepo) MarkApplied(ctx context.Context, envID, token string, patch environment.Patch) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	env, ok := r.envs[envID]
	if !ok || env.ProvisionToken != token {
		return false, nil
	}
	applyEnvPatch(env, patch)
	env.AppliedToken = token
	return true, nil
}

type fakeResultRepo struct {
	mu      sync.Mutex
	results map[string]*result.CaseResult
	order   []string
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{results: make(map[string]*result.CaseResult)}
}

func (r *fakeResultRepo) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *fakeResultRepo) Create(ctx context.Context, cr *result.CaseResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *cr
	r.results[cr.ID] = &cp
	r.order = append(r.order, cr.ID)
	return nil
}

func (r *fakeResultRepo) GetByID(ctx context.Context, id string) (*result.CaseResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cr, ok := r.results[id]
	if !ok {
		return nil, domainError.ErrResultNotFound
	}
	cp := *cr
	return &cp, nil
}

func (r *fakeResultRepo) Save(ctx context.Context, cr *result.CaseResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.results[cr.ID]; !ok {
		return domainError.ErrResultNotFound
	}
	cp := *cr
	r.results[cr.ID] = &cp
	return nil
}

func (r *fakeResultRepo) List(ctx context.Context, filter result.ListFilter, offset, limit int) ([]*result.CaseResult, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*result.CaseResult
	for _, id := range r.order {
		cr := r.results[id]
		if v, ok := filter.TaskID.Get(); ok && cr.TaskID != v {
			continue
		}
		if v, ok := filter.CaseID.Get(); ok && cr.CaseID != v {
			continue
		}
		if v, ok := filter.Status.Get(); ok && cr.Status != v {
			continue
		}
		if v, ok := filter.MarkStatus.Get(); ok && cr.MarkStatus != v {
			continue
		}
		cp := *cr
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *fakeResultRepo) ListByTask(ctx context.Context, taskID string) ([]*result.CaseResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*result.CaseResult
	for _, id := range r.order {
		cr := r.results[id]
		if cr.TaskID != taskID {
			continue
		}
		cp := *cr
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExecuteTime.After(out[j].ExecuteTime) })
	return out, nil
}

func (r *fakeResultRepo) CountByTask(ctx context.Context, taskID string) (result.StatusCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var counts result.StatusCounts
	for _, cr := range r.results {
		if cr.TaskID != taskID {
			continue
		}
		counts.Total++
		switch cr.Status {
		case result.StatusSuccess:
			counts.Success++
		case result.StatusFailed:
			counts.Failed++
		case result.StatusSkipped:
			counts.Skipped++
		}
	}
	return counts, nil
}

// noopAuditSink 丢弃审计事件
type noopAuditSink struct{}

func (noopAuditSink) Record(ctx context.Context, event AuditEvent) {}

var _ task.Repo = (*fakeTaskRepo)(nil)
var _ environment.Repo = (*fakeEnvRepo)(nil)
var _ result.Repo = (*fakeResultRepo)(nil)
var _ suite.Repo = (*fakeSuiteRepo)(nil)
var _ provisioner.Queue = (*fakeQueue)(nil)

// fakeQueue 记录投递内容的队列
type fakeQueue struct {
	mu       sync.Mutex
	requests []provisioner.Request
	failNext bool
}

func (q *fakeQueue) Enqueue(ctx context.Context, req provisioner.Request) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failNext {
		q.failNext = false
		return provisioner.ErrQueueClosed
	}
	q.requests = append(q.requests, req)
	return nil
}

func (q *fakeQueue) Dequeue(ctx context.Context) (provisioner.Request, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.requests) == 0 {
		return provisioner.Request{}, provisioner.ErrQueueClosed
	}
	req := q.requests[0]
	q.requests = q.requests[1:]
	return req, nil
}

func (q *fakeQueue) Close() error { return nil }
