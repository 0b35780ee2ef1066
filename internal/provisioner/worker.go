package provisioner

import (
	"context"
	"errors"
	"sync"

	"github.com/autotest/backend/internal/biz/environment"
	"go.uber.org/zap"
)

// Worker 环境供给后台执行器。
// 从队列取请求，按幂等令牌去重后调用容器后端，结果回写环境状态。
// 供给失败只体现在环境状态上，不向任务创建方回传。
type Worker struct {
	queue   Queue
	backend Backend
	envRepo environment.Repo
	logger  *zap.Logger

	workers int
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewWorker(queue Queue, backend Backend, envRepo environment.Repo, workers int, logger *zap.Logger) *Worker {
	if workers <= 0 {
		workers = 1
	}
	return &Worker{
		queue:   queue,
		backend: backend,
		envRepo: envRepo,
		workers: workers,
		logger:  logger,
	}
}

func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx)
	}
	w.logger.Info("供给worker已启动", zap.Int("workers", w.workers))
}

func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	_ = w.queue.Close()
	w.wg.Wait()
	w.logger.Info("供给worker已停止")
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		req, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, ErrQueueClosed) {
				return
			}
			w.logger.Error("取供给请求失败", zap.Error(err))
			continue
		}
		w.Process(ctx, req)
	}
}

// Process 处理单个供给请求。重复投递与被新请求覆盖的旧请求都会被跳过。
func (w *Worker) Process(ctx context.Context, req Request) {
	env, err := w.envRepo.GetByID(ctx, req.EnvID)
	if err != nil {
		w.logger.Error("供给请求对应的环境不存在",
			zap.String("env_id", req.EnvID),
			zap.String("token", req.Token))
		return
	}

	if env.AppliedToken == req.Token {
		// 至少一次投递带来的重复请求
		w.logger.Info("供给请求已执行过，跳过",
			zap.String("env_id", req.EnvID),
			zap.String("token", req.Token))
		return
	}
	if env.ProvisionToken != req.Token {
		// 已被更新的请求覆盖
		w.logger.Info("供给请求已过期，跳过",
			zap.String("env_id", req.EnvID),
			zap.String("token", req.Token),
			zap.String("current_token", env.ProvisionToken))
		return
	}

	switch req.Action {
	case environment.ActionCreate:
		w.applyCreate(ctx, env, req)
	case environment.ActionStart:
		w.applyStart(ctx, env, req)
	case environment.ActionStop:
		w.applyStop(ctx, env, req)
	default:
		w.logger.Error("未知的供给动作",
			zap.String("env_id", req.EnvID),
			zap.String("action", string(req.Action)))
	}
}

func (w *Worker) applyCreate(ctx context.Context, env *environment.Environment, req Request) {
	containerID, err := w.backend.CreateContainer(ctx, env)
	if err != nil {
		w.markFailed(ctx, env, req, environment.StatusFailed, err)
		return
	}

	status := environment.StatusAvailable
	if !w.writeBack(ctx, env.ID, req.Token, environment.Patch{
		Status:      &status,
		ContainerID: &containerID,
	}) {
		return
	}
	w.logger.Info("环境创建成功",
		zap.String("env_id", env.ID),
		zap.String("container_id", containerID))
}

func (w *Worker) applyStart(ctx context.Context, env *environment.Environment, req Request) {
	if err := w.backend.StartContainer(ctx, env.ContainerID); err != nil {
		w.markFailed(ctx, env, req, environment.StatusUnavailable, err)
		return
	}
	status := environment.StatusAvailable
	if !w.writeBack(ctx, env.ID, req.Token, environment.Patch{Status: &status}) {
		return
	}
	w.logger.Info("环境启动成功", zap.String("env_id", env.ID))
}

func (w *Worker) applyStop(ctx context.Context, env *environment.Environment, req Request) {
	if err := w.backend.StopContainer(ctx, env.ContainerID); err != nil {
		w.markFailed(ctx, env, req, environment.StatusUnavailable, err)
		return
	}
	status := environment.StatusUnavailable
	if !w.writeBack(ctx, env.ID, req.Token, environment.Patch{Status: &status}) {
		return
	}
	w.logger.Info("环境已停止", zap.String("env_id", env.ID))
}

// writeBack 条件写回供给结果，令牌已被新请求覆盖时放弃本次结果
func (w *Worker) writeBack(ctx context.Context, envID, token string, patch environment.Patch) bool {
	applied, err := w.envRepo.MarkApplied(ctx, envID, token, patch)
	if err != nil {
		w.logger.Error("供给结果落库失败", zap.String("env_id", envID), zap.Error(err))
		return false
	}
	if !applied {
		w.logger.Info("供给结果已过期，丢弃",
			zap.String("env_id", envID),
			zap.String("token", token))
		return false
	}
	return true
}

// markFailed 后端不可达或执行失败：翻转环境状态并记录，不向上抛
func (w *Worker) markFailed(ctx context.Context, env *environment.Environment, req Request, status environment.Status, cause error) {
	w.logger.Error("环境供给失败",
		zap.String("env_id", env.ID),
		zap.String("action", string(req.Action)),
		zap.Error(cause))
	w.writeBack(ctx, env.ID, req.Token, environment.Patch{Status: &status})
}
