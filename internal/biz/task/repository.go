package task

import (
	"context"

	"github.com/autotest/backend/internal/infra/persistence/commonrepo"
)

// Repo 任务仓储接口。查询不到记录时返回 domainError.ErrTaskNotFound。
type Repo interface {
	commonrepo.Transaction
	Create(ctx context.Context, task *ExecutionTask) error
	GetByID(ctx context.Context, id string) (*ExecutionTask, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter, offset, limit int) ([]*ExecutionTask, int64, error)

	// UpdateCAS 以 status 为版本号的原子更新：仅当当前状态等于 expected 时
	// 应用补丁，返回是否命中。状态迁移必须全部走这条路径，避免丢失更新。
	UpdateCAS(ctx context.Context, id string, expected Status, patch Patch) (bool, error)

	// Update 非状态字段的普通更新
	Update(ctx context.Context, id string, patch Patch) error

	// LatestBySuite 返回测试套下最近启动的任务：
	// start_time 降序（空值最后），再按任务ID降序。没有任务时返回 ErrTaskNotFound。
	LatestBySuite(ctx context.Context, suiteID string) (*ExecutionTask, error)

	// ListIDs 返回全部任务ID，供计数对账任务扫描
	ListIDs(ctx context.Context) ([]string, error)
}
