package suite

import "context"

// Repo 测试套/用例仓储，任务与结果写入前的引用完整性检查走这里
type Repo interface {
	GetSuite(ctx context.Context, id string) (*TestSuite, error)
	SuiteExists(ctx context.Context, id string) (bool, error)
	CaseExists(ctx context.Context, id string) (bool, error)
}
