package result

import (
	"time"

	domainError "github.com/autotest/backend/internal/domain/error"
	"github.com/google/uuid"
)

// CaseResult 用例结果，对应表 tb_case_result。
// 正常流程下只追加，后续仅允许修改标记状态与分析备注。
type CaseResult struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	TaskID       string
	CaseID       string
	Status       Status
	MarkStatus   MarkStatus
	AnalysisNote string
	ExecuteTime  time.Time
	LogPath      string
}

// NewID 生成结果唯一ID（格式：case-result-xxx）
func NewID() string {
	return "case-result-" + uuid.NewString()[:8]
}

// New 创建一条用例结果记录
func New(taskID, caseID string, status Status, executeTime time.Time, logPath string, mark MarkStatus, note string) (*CaseResult, error) {
	if taskID == "" {
		return nil, domainError.NewValidationError("task_id", "关联任务ID不能为空")
	}
	if caseID == "" {
		return nil, domainError.NewValidationError("case_id", "用例ID不能为空")
	}
	if !status.Valid() {
		return nil, domainError.NewValidationError("status", "用例状态无效")
	}
	if mark == "" {
		mark = MarkNone
	}
	if !mark.Valid() {
		return nil, domainError.NewValidationError("mark_status", "标记状态无效")
	}
	if executeTime.IsZero() {
		executeTime = time.Now()
	}

	now := time.Now()
	return &CaseResult{
		ID:           NewID(),
		CreatedAt:    now,
		UpdatedAt:    now,
		TaskID:       taskID,
		CaseID:       caseID,
		Status:       status,
		MarkStatus:   mark,
		AnalysisNote: note,
		ExecuteTime:  executeTime,
		LogPath:      logPath,
	}, nil
}

// MarkTriage 更新标记状态与分析备注，不允许改动结果状态或关联关系
func (r *CaseResult) MarkTriage(mark MarkStatus, note string) error {
	if !mark.Valid() {
		return domainError.NewValidationError("mark_status", "标记状态无效")
	}
	r.MarkStatus = mark
	r.AnalysisNote = note
	r.UpdatedAt = time.Now()
	return nil
}
