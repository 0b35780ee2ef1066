package environment

import (
	"context"

	"github.com/autotest/backend/internal/infra/persistence/commonrepo"
)

// Repo 环境仓储接口。查询不到记录时返回 domainError.ErrEnvNotFound。
type Repo interface {
	commonrepo.Transaction
	Create(ctx context.Context, env *Environment) error
	GetByID(ctx context.Context, id string) (*Environment, error)
	List(ctx context.Context, filter ListFilter, offset, limit int) ([]*Environment, int64, error)
	Update(ctx context.Context, id string, patch Patch) error

	// Reserve 原子占用：仅当环境 available 且未被占用时写入占用任务，
	// 未命中返回 false。Release 反向操作，仅当占用任务匹配时释放。
	Reserve(ctx context.Context, envID, taskID string) (bool, error)
	Release(ctx context.Context, envID, taskID string) (bool, error)

	// MarkApplied 记录已执行的供给令牌，与状态更新同一补丁提交。
	// 仅当行上待执行令牌仍是该令牌时写入，未命中返回 false（请求已被覆盖）。
	MarkApplied(ctx context.Context, envID, token string, patch Patch) (bool, error)
}
