package reconcile

import (
	"context"

	"github.com/autotest/backend/internal/biz/result"
	"github.com/autotest/backend/internal/biz/task"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reconciler 用例计数对账任务。
// 结果行扫描出的计数是事实，任务行上的计数只是冗余快照，
// 这里周期性把漂移的快照拉回事实。
type Reconciler struct {
	taskRepo   task.Repo
	resultRepo result.Repo
	logger     *zap.Logger

	cron *cron.Cron
	spec string
}

func New(taskRepo task.Repo, resultRepo result.Repo, spec string, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		taskRepo:   taskRepo,
		resultRepo: resultRepo,
		logger:     logger,
		cron:       cron.New(),
		spec:       spec,
	}
}

func (r *Reconciler) Start() error {
	_, err := r.cron.AddFunc(r.spec, func() {
		if err := r.Run(context.Background()); err != nil {
			r.logger.Error("计数对账执行失败", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	r.logger.Info("计数对账任务已启动", zap.String("spec", r.spec))
	return nil
}

func (r *Reconciler) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("计数对账任务已停止")
}

// Run 单轮对账，可独立调用
func (r *Reconciler) Run(ctx context.Context) error {
	ids, err := r.taskRepo.ListIDs(ctx)
	if err != nil {
		return err
	}

	var patched int
	for _, id := range ids {
		changed, err := r.reconcileOne(ctx, id)
		if err != nil {
			r.logger.Warn("单任务对账失败", zap.String("task_id", id), zap.Error(err))
			continue
		}
		if changed {
			patched++
		}
	}

	if patched > 0 {
		r.logger.Info("计数对账完成",
			zap.Int("scanned", len(ids)),
			zap.Int("patched", patched))
	}
	return nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, id string) (bool, error) {
	counts, err := r.resultRepo.CountByTask(ctx, id)
	if err != nil {
		return false, err
	}
	// 还没有任何结果行时不动创建时填入的计数
	if counts.Total == 0 {
		return false, nil
	}

	t, err := r.taskRepo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	success := int(counts.Success)
	failed := int(counts.Failed)
	// 总数只增不减，保留创建时声明的更大预期值
	total := t.TotalCase
	if int(counts.Total) > total {
		total = int(counts.Total)
	}

	if t.SuccessCase == success && t.FailedCase == failed && t.TotalCase == total {
		return false, nil
	}

	err = r.taskRepo.Update(ctx, id, task.Patch{
		TotalCase:   &total,
		SuccessCase: &success,
		FailedCase:  &failed,
	})
	if err != nil {
		return false, err
	}

	r.logger.Debug("任务计数已校正",
		zap.String("task_id", id),
		zap.Int("total", total),
		zap.Int("success", success),
		zap.Int("failed", failed))
	return true, nil
}
