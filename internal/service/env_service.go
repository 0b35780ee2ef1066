package service

import (
	"context"
	"fmt"

	"github.com/autotest/backend/internal/biz/environment"
	domainError "github.com/autotest/backend/internal/domain/error"
	"github.com/autotest/backend/internal/provisioner"
	"go.uber.org/zap"
)

// CreateEnvInput 创建环境入参
type CreateEnvInput struct {
	Name   string         `json:"name" binding:"required"`
	Image  string         `json:"image"`
	Config map[string]any `json:"config"`
}

// IEnvironmentService 环境注册与供给协调服务接口。
// 供给请求投递后立即返回，结果通过环境状态异步可见。
type IEnvironmentService interface {
	Create(ctx context.Context, input CreateEnvInput, operator string) (*environment.Environment, error)
	Get(ctx context.Context, id string) (*environment.Environment, error)
	List(ctx context.Context, filter environment.ListFilter, offset, limit int) ([]*environment.Environment, int64, error)
	Reserve(ctx context.Context, envID, taskID string) error
	Release(ctx context.Context, envID, taskID string) error
	RequestStart(ctx context.Context, envID string, operator string) error
	RequestStop(ctx context.Context, envID string, operator string) error
}

type EnvironmentService struct {
	envRepo environment.Repo
	queue   provisioner.Queue
	audit   IAuditSink
	logger  *zap.Logger
}

// NewEnvironmentService 创建环境服务
func NewEnvironmentService(
	envRepo environment.Repo,
	queue provisioner.Queue,
	audit IAuditSink,
	logger *zap.Logger,
) IEnvironmentService {
	return &EnvironmentService{
		envRepo: envRepo,
		queue:   queue,
		audit:   audit,
		logger:  logger,
	}
}

// Create 登记环境并发起异步供给。投递失败只翻转环境状态，创建本身不报错。
func (s *EnvironmentService) Create(ctx context.Context, input CreateEnvInput, operator string) (*environment.Environment, error) {
	env, err := environment.New(input.Name, input.Image, operator, input.Config)
	if err != nil {
		return nil, err
	}
	env.ProvisionToken = environment.NewToken()

	if err := s.envRepo.Create(ctx, env); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEvent{
		OperationType: "create_environment",
		OperationDesc: fmt.Sprintf("创建环境: %s", env.ID),
		OperatedBy:    operator,
		ModuleName:    "env_manager",
		ObjectID:      env.ID,
		NewData:       env,
	})

	s.dispatch(ctx, env.ID, environment.ActionCreate, env.ProvisionToken)
	return env, nil
}

func (s *EnvironmentService) Get(ctx context.Context, id string) (*environment.Environment, error) {
	return s.envRepo.GetByID(ctx, id)
}

func (s *EnvironmentService) List(ctx context.Context, filter environment.ListFilter, offset, limit int) ([]*environment.Environment, int64, error) {
	return s.envRepo.List(ctx, filter, offset, limit)
}

func (s *EnvironmentService) Reserve(ctx context.Context, envID, taskID string) error {
	ok, err := s.envRepo.Reserve(ctx, envID, taskID)
	if err != nil {
		return err
	}
	if !ok {
		return domainError.NewBusinessError("ENV_BUSY", "环境不可用或已被其他任务占用", domainError.ErrEnvBusy)
	}
	return nil
}

func (s *EnvironmentService) Release(ctx context.Context, envID, taskID string) error {
	_, err := s.envRepo.Release(ctx, envID, taskID)
	return err
}

func (s *EnvironmentService) RequestStart(ctx context.Context, envID string, operator string) error {
	return s.request(ctx, envID, environment.ActionStart, operator)
}

func (s *EnvironmentService) RequestStop(ctx context.Context, envID string, operator string) error {
	return s.request(ctx, envID, environment.ActionStop, operator)
}

func (s *EnvironmentService) request(ctx context.Context, envID string, action environment.Action, operator string) error {
	if _, err := s.envRepo.GetByID(ctx, envID); err != nil {
		return err
	}

	// 新令牌覆盖旧请求，旧请求在消费侧被判为过期
	token := environment.NewToken()
	if err := s.envRepo.Update(ctx, envID, environment.Patch{ProvisionToken: &token}); err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEvent{
		OperationType: fmt.Sprintf("%s_environment", action),
		OperationDesc: fmt.Sprintf("%s环境: %s", action, envID),
		OperatedBy:    operator,
		ModuleName:    "env_manager",
		ObjectID:      envID,
	})

	s.dispatch(ctx, envID, action, token)
	return nil
}

// dispatch 投递供给请求，失败按依赖故障就地处理
func (s *EnvironmentService) dispatch(ctx context.Context, envID string, action environment.Action, token string) {
	err := s.queue.Enqueue(ctx, provisioner.Request{
		EnvID:  envID,
		Action: action,
		Token:  token,
	})
	if err == nil {
		return
	}

	s.logger.Error("供给请求投递失败，环境置为不可用",
		zap.String("env_id", envID),
		zap.String("action", string(action)),
		zap.Error(err))
	status := environment.StatusUnavailable
	if uerr := s.envRepo.Update(ctx, envID, environment.Patch{Status: &status}); uerr != nil {
		s.logger.Error("环境状态回写失败", zap.String("env_id", envID), zap.Error(uerr))
	}
}
