package service

import (
	"context"
	"fmt"

	"github.com/autotest/backend/internal/biz/environment"
	"github.com/autotest/backend/internal/biz/suite"
	"github.com/autotest/backend/internal/biz/task"
	domainError "github.com/autotest/backend/internal/domain/error"
	"go.uber.org/zap"
)

// AnonymousExecutor 未携带身份时的兜底执行人
const AnonymousExecutor = "anonymous"

// CreateTaskInput 创建任务入参
type CreateTaskInput struct {
	SuiteID     string `json:"suite_id" binding:"required"`
	EnvID       string `json:"env_id" binding:"required"`
	PackageInfo string `json:"package_info"`
	Executor    string `json:"executor"`
	TotalCase   int    `json:"total_case"`
	SuccessCase int    `json:"success_case"`
	FailedCase  int    `json:"failed_case"`
}

// UpdateTaskInput 更新任务入参，nil字段不更新
type UpdateTaskInput struct {
	PackageInfo *string `json:"package_info"`
	Executor    *string `json:"executor"`
	TotalCase   *int    `json:"total_case"`
	SuccessCase *int    `json:"success_case"`
	FailedCase  *int    `json:"failed_case"`
}

// TaskStatusView 任务状态查询视图
type TaskStatusView struct {
	TaskID        string        `json:"task_id"`
	Status        task.Status   `json:"status"`
	StatusDisplay string        `json:"status_display"`
	Progress      task.Progress `json:"progress"`
}

// ITaskService 任务生命周期服务接口。
// 操作人身份一律由调用方显式传入，不读取任何环境态。
type ITaskService interface {
	Create(ctx context.Context, input CreateTaskInput, operator string) (*task.ExecutionTask, error)
	Get(ctx context.Context, id string) (*task.ExecutionTask, error)
	List(ctx context.Context, filter task.ListFilter, offset, limit int) ([]*task.ExecutionTask, int64, error)
	Update(ctx context.Context, id string, input UpdateTaskInput, operator string) (*task.ExecutionTask, error)
	Delete(ctx context.Context, id string, operator string) error

	Start(ctx context.Context, id string, operator string) (*task.ExecutionTask, error)
	Pause(ctx context.Context, id string, operator string) (*task.ExecutionTask, error)
	Resume(ctx context.Context, id string, operator string) (*task.ExecutionTask, error)
	Terminate(ctx context.Context, id string, operator string) (*task.ExecutionTask, error)
	Complete(ctx context.Context, id string, successCase, failedCase int, operator string) (*task.ExecutionTask, error)

	GetStatus(ctx context.Context, id string) (*TaskStatusView, error)
	GetStatistics(ctx context.Context, id string) (*task.Statistics, error)
}

type TaskService struct {
	taskRepo  task.Repo
	suiteRepo suite.Repo
	envRepo   environment.Repo
	audit     IAuditSink
	logger    *zap.Logger
}

// NewTaskService 创建任务生命周期服务
func NewTaskService(
	taskRepo task.Repo,
	suiteRepo suite.Repo,
	envRepo environment.Repo,
	audit IAuditSink,
	logger *zap.Logger,
) ITaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		suiteRepo: suiteRepo,
		envRepo:   envRepo,
		audit:     audit,
		logger:    logger,
	}
}

func (s *TaskService) Create(ctx context.Context, input CreateTaskInput, operator string) (*task.ExecutionTask, error) {
	// 写入前校验引用完整性，不依赖数据库外键
	if ok, err := s.suiteRepo.SuiteExists(ctx, input.SuiteID); err != nil {
		return nil, err
	} else if !ok {
		return nil, domainError.ErrSuiteNotFound
	}
	if _, err := s.envRepo.GetByID(ctx, input.EnvID); err != nil {
		return nil, err
	}

	executor := input.Executor
	if executor == "" {
		executor = operator
	}
	if executor == "" {
		executor = AnonymousExecutor
	}

	t, err := task.New(input.SuiteID, input.EnvID, input.PackageInfo, executor,
		input.TotalCase, input.SuccessCase, input.FailedCase)
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEvent{
		OperationType: "create_execution_task",
		OperationDesc: fmt.Sprintf("创建执行任务: %s", t.ID),
		OperatedBy:    operator,
		ModuleName:    "execution_manager",
		ObjectID:      t.ID,
		NewData:       t,
	})

	s.logger.Info("任务已创建",
		zap.String("task_id", t.ID),
		zap.String("suite_id", t.SuiteID),
		zap.String("env_id", t.EnvID),
		zap.String("executor", t.Executor))
	return t, nil
}

func (s *TaskService) Get(ctx context.Context, id string) (*task.ExecutionTask, error) {
	return s.taskRepo.GetByID(ctx, id)
}

func (s *TaskService) List(ctx context.Context, filter task.ListFilter, offset, limit int) ([]*task.ExecutionTask, int64, error) {
	return s.taskRepo.List(ctx, filter, offset, limit)
}

func (s *TaskService) Update(ctx context.Context, id string, input UpdateTaskInput, operator string) (*task.ExecutionTask, error) {
	old, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := task.Patch{
		PackageInfo: input.PackageInfo,
		Executor:    input.Executor,
		TotalCase:   input.TotalCase,
		SuccessCase: input.SuccessCase,
		FailedCase:  input.FailedCase,
	}

	// 校验补丁应用后的计数不变量
	total, success, failed := old.TotalCase, old.SuccessCase, old.FailedCase
	if input.TotalCase != nil {
		total = *input.TotalCase
	}
	if input.SuccessCase != nil {
		success = *input.SuccessCase
	}
	if input.FailedCase != nil {
		failed = *input.FailedCase
	}
	if _, err := task.New(old.SuiteID, old.EnvID, old.PackageInfo, old.Executor, total, success, failed); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Update(ctx, id, patch); err != nil {
		return nil, err
	}

	updated, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEvent{
		OperationType: "update_execution_task",
		OperationDesc: fmt.Sprintf("更新执行任务: %s", id),
		OperatedBy:    operator,
		ModuleName:    "execution_manager",
		ObjectID:      id,
		OldData:       old,
		NewData:       updated,
	})
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, id string, operator string) error {
	old, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEvent{
		OperationType: "delete_execution_task",
		OperationDesc: fmt.Sprintf("删除执行任务: %s", id),
		OperatedBy:    operator,
		ModuleName:    "execution_manager",
		ObjectID:      id,
		OldData:       old,
	})
	return nil
}

// transition 统一的状态迁移路径：内存校验得到目标补丁后，
// 以期望状态做比较并交换，未命中则读回当前状态报非法迁移。
func (s *TaskService) transition(
	ctx context.Context,
	id string,
	operator string,
	opType string,
	desc string,
	apply func(t *task.ExecutionTask) error,
) (*task.ExecutionTask, error) {
	t, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	expected := t.Status

	if err := apply(t); err != nil {
		return nil, err
	}

	patch := task.Patch{
		Status:      &t.Status,
		SuccessCase: &t.SuccessCase,
		FailedCase:  &t.FailedCase,
		TotalCase:   &t.TotalCase,
	}
	if t.StartTime != nil {
		patch.StartTime = t.StartTime
	}
	if t.EndTime != nil {
		patch.EndTime = t.EndTime
	}

	ok, err := s.taskRepo.UpdateCAS(ctx, id, expected, patch)
	if err != nil {
		return nil, err
	}
	if !ok {
		// 并发竞争输掉了，按当前落库状态报告
		current, err := s.taskRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, domainError.NewInvalidTransition(desc, string(current.Status), current.Status.Display())
	}

	s.audit.Record(ctx, AuditEvent{
		OperationType: opType,
		OperationDesc: fmt.Sprintf("%s执行任务: %s", desc, id),
		OperatedBy:    operator,
		ModuleName:    "execution_manager",
		ObjectID:      id,
	})
	return t, nil
}

func (s *TaskService) Start(ctx context.Context, id string, operator string) (*task.ExecutionTask, error) {
	t, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// 非pending先按状态报错，重复启动不应撞上自己占用的环境
	if t.Status != task.StatusPending {
		return nil, domainError.NewInvalidTransition("启动", string(t.Status), t.Status.Display())
	}

	// 启动前先独占环境，抢不到直接失败，不做排队
	reserved, err := s.envRepo.Reserve(ctx, t.EnvID, t.ID)
	if err != nil {
		return nil, err
	}
	if !reserved {
		return nil, domainError.NewBusinessError("ENV_BUSY", "环境不可用或已被其他任务占用", domainError.ErrEnvBusy)
	}

	started, err := s.transition(ctx, id, operator, "start_execution_task", "启动",
		func(t *task.ExecutionTask) error { return t.Start() })
	if err != nil {
		// 状态迁移失败时把环境放回去
		if _, rerr := s.envRepo.Release(ctx, t.EnvID, t.ID); rerr != nil {
			s.logger.Warn("回滚环境占用失败",
				zap.String("task_id", id),
				zap.String("env_id", t.EnvID),
				zap.Error(rerr))
		}
		return nil, err
	}
	return started, nil
}

func (s *TaskService) Pause(ctx context.Context, id string, operator string) (*task.ExecutionTask, error) {
	return s.transition(ctx, id, operator, "pause_execution_task", "暂停",
		func(t *task.ExecutionTask) error { return t.Pause() })
}

func (s *TaskService) Resume(ctx context.Context, id string, operator string) (*task.ExecutionTask, error) {
	return s.transition(ctx, id, operator, "resume_execution_task", "恢复",
		func(t *task.ExecutionTask) error { return t.Resume() })
}

func (s *TaskService) Terminate(ctx context.Context, id string, operator string) (*task.ExecutionTask, error) {
	t, err := s.transition(ctx, id, operator, "terminate_execution_task", "终止",
		func(t *task.ExecutionTask) error { return t.Terminate() })
	if err != nil {
		return nil, err
	}
	s.releaseEnv(ctx, t)
	return t, nil
}

func (s *TaskService) Complete(ctx context.Context, id string, successCase, failedCase int, operator string) (*task.ExecutionTask, error) {
	t, err := s.transition(ctx, id, operator, "complete_execution_task", "完成",
		func(t *task.ExecutionTask) error { return t.Complete(successCase, failedCase) })
	if err != nil {
		return nil, err
	}
	s.releaseEnv(ctx, t)
	return t, nil
}

func (s *TaskService) releaseEnv(ctx context.Context, t *task.ExecutionTask) {
	if _, err := s.envRepo.Release(ctx, t.EnvID, t.ID); err != nil {
		s.logger.Warn("释放环境失败",
			zap.String("task_id", t.ID),
			zap.String("env_id", t.EnvID),
			zap.Error(err))
	}
}

func (s *TaskService) GetStatus(ctx context.Context, id string) (*TaskStatusView, error) {
	t, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TaskStatusView{
		TaskID:        t.ID,
		Status:        t.Status,
		StatusDisplay: t.Status.Display(),
		Progress:      t.Progress(),
	}, nil
}

func (s *TaskService) GetStatistics(ctx context.Context, id string) (*task.Statistics, error) {
	t, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	stats := t.Statistics()
	return &stats, nil
}
