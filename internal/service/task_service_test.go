package service

import (
	"context"
	"testing"

	"github.com/autotest/backend/internal/biz/environment"
	"github.com/autotest/backend/internal/biz/task"
	domainError "github.com/autotest/backend/internal/domain/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type taskServiceFixture struct {
	taskRepo  *fakeTaskRepo
	suiteRepo *fakeSuiteRepo
	envRepo   *fakeEnvRepo
	svc       ITaskService
}

func newTaskServiceFixture(t *testing.T) *taskServiceFixture {
	t.Helper()
	f := &taskServiceFixture{
		taskRepo:  newFakeTaskRepo(),
		suiteRepo: newFakeSuiteRepo(),
		envRepo:   newFakeEnvRepo(),
	}
	f.suiteRepo.addSuite("suite-001", "冒烟测试套")

	env, err := environment.New("ci-env", "ubuntu:20.04", "admin", nil)
	require.NoError(t, err)
	env.ID = "env-001"
	env.Status = environment.StatusAvailable
	require.NoError(t, f.envRepo.Create(context.Background(), env))

	f.svc = NewTaskService(f.taskRepo, f.suiteRepo, f.envRepo, noopAuditSink{}, zap.NewNop())
	return f
}

func (f *taskServiceFixture) createTask(t *testing.T, total int) *task.ExecutionTask {
	t.Helper()
	created, err := f.svc.Create(context.Background(), CreateTaskInput{
		SuiteID:   "suite-001",
		EnvID:     "env-001",
		TotalCase: total,
	}, "zhangsan")
	require.NoError(t, err)
	return created
}

func TestTaskService_Create(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()

	created := f.createTask(t, 10)
	assert.Equal(t, task.StatusPending, created.Status)
	assert.Equal(t, "zhangsan", created.Executor)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestTaskService_Create_DefaultsExecutor(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()

	// 入参优先于操作人
	created, err := f.svc.Create(ctx, CreateTaskInput{
		SuiteID: "suite-001", EnvID: "env-001", Executor: "lisi",
	}, "zhangsan")
	require.NoError(t, err)
	assert.Equal(t, "lisi", created.Executor)

	// 都没有时兜底为 anonymous
	created, err = f.svc.Create(ctx, CreateTaskInput{
		SuiteID: "suite-001", EnvID: "env-001",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, AnonymousExecutor, created.Executor)
}

func TestTaskService_Create_Validation(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()

	// 引用不存在的测试套
	_, err := f.svc.Create(ctx, CreateTaskInput{SuiteID: "suite-999", EnvID: "env-001"}, "zhangsan")
	assert.ErrorIs(t, err, domainError.ErrSuiteNotFound)

	// 引用不存在的环境
	_, err = f.svc.Create(ctx, CreateTaskInput{SuiteID: "suite-001", EnvID: "env-999"}, "zhangsan")
	assert.ErrorIs(t, err, domainError.ErrEnvNotFound)

	// 成功数超过总数
	_, err = f.svc.Create(ctx, CreateTaskInput{
		SuiteID: "suite-001", EnvID: "env-001",
		TotalCase: 5, SuccessCase: 6,
	}, "zhangsan")
	var verr *domainError.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "success_case", verr.Field)
}

func TestTaskService_Start(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	created := f.createTask(t, 10)

	started, err := f.svc.Start(ctx, created.ID, "zhangsan")
	require.NoError(t, err)
	assert.Equal(t, task.StatusRunning, started.Status)
	require.NotNil(t, started.StartTime)

	// 环境被该任务独占
	env, err := f.envRepo.GetByID(ctx, "env-001")
	require.NoError(t, err)
	assert.Equal(t, environment.StatusOccupied, env.Status)
	assert.Equal(t, created.ID, env.OwnerTask)
}

func TestTaskService_Start_Twice(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	created := f.createTask(t, 10)

	_, err := f.svc.Start(ctx, created.ID, "zhangsan")
	require.NoError(t, err)

	// 重复启动按当前状态报错，任务状态与环境占用均不变
	_, err = f.svc.Start(ctx, created.ID, "zhangsan")
	require.Error(t, err)
	var transErr *domainError.InvalidTransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, "running", transErr.Current)
	assert.Equal(t, "任务当前状态为运行中，无法启动", err.Error())

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusRunning, got.Status)

	env, err := f.envRepo.GetByID(ctx, "env-001")
	require.NoError(t, err)
	assert.Equal(t, environment.StatusOccupied, env.Status)
	assert.Equal(t, created.ID, env.OwnerTask)
}

func TestTaskService_Start_EnvBusy(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()

	first := f.createTask(t, 10)
	second := f.createTask(t, 10)

	_, err := f.svc.Start(ctx, first.ID, "zhangsan")
	require.NoError(t, err)

	// 同一环境上的第二个任务抢不到占用
	_, err = f.svc.Start(ctx, second.ID, "lisi")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainError.ErrEnvBusy)

	got, err := f.svc.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusPending, got.Status)
}

func TestTaskService_PauseResume(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	created := f.createTask(t, 10)

	// pending 状态不能暂停
	_, err := f.svc.Pause(ctx, created.ID, "zhangsan")
	var terr *domainError.InvalidTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "任务当前状态为等待执行，无法暂停", terr.Error())

	_, err = f.svc.Start(ctx, created.ID, "zhangsan")
	require.NoError(t, err)

	paused, err := f.svc.Pause(ctx, created.ID, "zhangsan")
	require.NoError(t, err)
	assert.Equal(t, task.StatusPaused, paused.Status)

	resumed, err := f.svc.Resume(ctx, created.ID, "zhangsan")
	require.NoError(t, err)
	assert.Equal(t, task.StatusRunning, resumed.Status)
}

func TestTaskService_Terminate_ReleasesEnv(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	created := f.createTask(t, 10)

	_, err := f.svc.Start(ctx, created.ID, "zhangsan")
	require.NoError(t, err)

	terminated, err := f.svc.Terminate(ctx, created.ID, "zhangsan")
	require.NoError(t, err)
	assert.Equal(t, task.StatusTerminated, terminated.Status)
	require.NotNil(t, terminated.EndTime)

	env, err := f.envRepo.GetByID(ctx, "env-001")
	require.NoError(t, err)
	assert.Equal(t, environment.StatusAvailable, env.Status)
	assert.Empty(t, env.OwnerTask)
}

func TestTaskService_Complete(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	created := f.createTask(t, 10)

	_, err := f.svc.Start(ctx, created.ID, "zhangsan")
	require.NoError(t, err)

	done, err := f.svc.Complete(ctx, created.ID, 8, 2, "zhangsan")
	require.NoError(t, err)
	assert.Equal(t, task.StatusFailed, done.Status)
	assert.Equal(t, 8, done.SuccessCase)
	assert.Equal(t, 2, done.FailedCase)

	// 环境已释放，完成后的任务不能再终止
	env, err := f.envRepo.GetByID(ctx, "env-001")
	require.NoError(t, err)
	assert.Equal(t, environment.StatusAvailable, env.Status)

	_, err = f.svc.Terminate(ctx, created.ID, "zhangsan")
	var terr *domainError.InvalidTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "任务当前状态为执行失败，无法终止", terr.Error())
}

func TestTaskService_Update(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	created := f.createTask(t, 10)

	pkg := "/new/pkg.tar.gz"
	updated, err := f.svc.Update(ctx, created.ID, UpdateTaskInput{PackageInfo: &pkg}, "zhangsan")
	require.NoError(t, err)
	assert.Equal(t, pkg, updated.PackageInfo)

	// 补丁应用后破坏计数不变量时拒绝
	bad := 11
	_, err = f.svc.Update(ctx, created.ID, UpdateTaskInput{SuccessCase: &bad}, "zhangsan")
	var verr *domainError.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestTaskService_Delete(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	created := f.createTask(t, 10)

	require.NoError(t, f.svc.Delete(ctx, created.ID, "zhangsan"))

	_, err := f.svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domainError.ErrTaskNotFound)

	err = f.svc.Delete(ctx, created.ID, "zhangsan")
	assert.ErrorIs(t, err, domainError.ErrTaskNotFound)
}

func TestTaskService_GetStatus(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	created := f.createTask(t, 10)

	view, err := f.svc.GetStatus(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, view.TaskID)
	assert.Equal(t, task.StatusPending, view.Status)
	assert.Equal(t, "等待执行", view.StatusDisplay)
	assert.Equal(t, 10, view.Progress.Total)
	assert.Equal(t, 10, view.Progress.Pending)
}

func TestTaskService_GetStatistics(t *testing.T) {
	f := newTaskServiceFixture(t)
	ctx := context.Background()
	created := f.createTask(t, 10)

	_, err := f.svc.Start(ctx, created.ID, "zhangsan")
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, created.ID, 10, 0, "zhangsan")
	require.NoError(t, err)

	stats, err := f.svc.GetStatistics(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.TotalCase)
	assert.InDelta(t, 100.0, stats.SuccessRate, 0.001)
	assert.Equal(t, task.StatusSuccess, stats.Status)
	assert.Equal(t, "执行成功", stats.Display)
	require.NotNil(t, stats.Duration)
}
