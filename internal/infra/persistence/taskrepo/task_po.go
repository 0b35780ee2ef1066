package taskrepo

import (
	"time"

	domain "github.com/autotest/backend/internal/biz/task"
	"github.com/autotest/backend/internal/infra/persistence/commonrepo"
)

type ExecutionTask struct {
	commonrepo.Mode
	SuiteID     string        `gorm:"column:suite_id;size:64;not null;index"`
	EnvID       string        `gorm:"column:env_id;size:64;not null;index"`
	PackageInfo string        `gorm:"column:package_info;type:text"`
	Status      domain.Status `gorm:"column:status;size:32;not null;index"`
	StartTime   *time.Time    `gorm:"column:start_time;index:idx_task_time"`
	EndTime     *time.Time    `gorm:"column:end_time;index:idx_task_time"`
	Executor    string        `gorm:"column:executor;size:64;not null"`
	TotalCase   int           `gorm:"column:total_case;not null;default:0"`
	SuccessCase int           `gorm:"column:success_case;not null;default:0"`
	FailedCase  int           `gorm:"column:failed_case;not null;default:0"`
}

func (ExecutionTask) TableName() string {
	return "tb_execution_task"
}
