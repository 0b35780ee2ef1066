package result

import (
	"context"

	"github.com/autotest/backend/internal/infra/persistence/commonrepo"
)

// Repo 用例结果仓储接口。查询不到记录时返回 domainError.ErrResultNotFound。
type Repo interface {
	commonrepo.Transaction
	Create(ctx context.Context, result *CaseResult) error
	GetByID(ctx context.Context, id string) (*CaseResult, error)
	Save(ctx context.Context, result *CaseResult) error
	List(ctx context.Context, filter ListFilter, offset, limit int) ([]*CaseResult, int64, error)

	// ListByTask 返回任务下全部结果，按 execute_time 降序
	ListByTask(ctx context.Context, taskID string) ([]*CaseResult, error)

	// CountByTask 扫描结果行统计各状态数量
	CountByTask(ctx context.Context, taskID string) (StatusCounts, error)
}
