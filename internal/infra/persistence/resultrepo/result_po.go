package resultrepo

import (
	"time"

	domain "github.com/autotest/backend/internal/biz/result"
	"github.com/autotest/backend/internal/infra/persistence/commonrepo"
)

type CaseResult struct {
	commonrepo.Mode
	TaskID       string            `gorm:"column:task_id;size:64;not null;index:idx_result_task"`
	CaseID       string            `gorm:"column:case_id;size:64;not null;index"`
	Status       domain.Status     `gorm:"column:status;size:32;not null;index:idx_result_task"`
	MarkStatus   domain.MarkStatus `gorm:"column:mark_status;size:32;not null;default:none;index"`
	AnalysisNote string            `gorm:"column:analysis_note;type:text"`
	ExecuteTime  time.Time         `gorm:"column:execute_time;not null;index"`
	LogPath      string            `gorm:"column:log_path;size:256;not null"`
}

func (CaseResult) TableName() string {
	return "tb_case_result"
}
