package task

import (
	"fmt"
	"math"
	"time"

	domainError "github.com/autotest/backend/internal/domain/error"
	"github.com/google/uuid"
)

// ExecutionTask 任务执行信息，对应表 tb_execution_task
type ExecutionTask struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	SuiteID     string
	EnvID       string
	PackageInfo string
	Status      Status
	StartTime   *time.Time
	EndTime     *time.Time
	Executor    string
	TotalCase   int
	SuccessCase int
	FailedCase  int
}

// NewID 生成任务唯一ID（格式：task-xxx）
func NewID() string {
	return "task-" + uuid.NewString()[:8]
}

// New 创建处于 pending 状态的新任务。executor 为空时由调用方先行填充当前用户。
func New(suiteID, envID, packageInfo, executor string, total, success, failed int) (*ExecutionTask, error) {
	if suiteID == "" {
		return nil, domainError.NewValidationError("suite_id", "关联测试套ID不能为空")
	}
	if envID == "" {
		return nil, domainError.NewValidationError("env_id", "关联环境ID不能为空")
	}
	if err := validateCounters(total, success, failed); err != nil {
		return nil, err
	}

	now := time.Now()
	return &ExecutionTask{
		ID:          NewID(),
		CreatedAt:   now,
		UpdatedAt:   now,
		SuiteID:     suiteID,
		EnvID:       envID,
		PackageInfo: packageInfo,
		Status:      StatusPending,
		Executor:    executor,
		TotalCase:   total,
		SuccessCase: success,
		FailedCase:  failed,
	}, nil
}

func validateCounters(total, success, failed int) error {
	if total < 0 {
		return domainError.NewValidationError("total_case", "总用例数不能为负数")
	}
	if success < 0 {
		return domainError.NewValidationError("success_case", "成功用例数不能为负数")
	}
	if failed < 0 {
		return domainError.NewValidationError("failed_case", "失败用例数不能为负数")
	}
	if success+failed > total {
		return domainError.NewValidationError("success_case",
			fmt.Sprintf("成功用例数与失败用例数之和(%d)不能超过总用例数(%d)", success+failed, total))
	}
	return nil
}

// Start 启动任务，仅允许 pending -> running
func (t *ExecutionTask) Start() error {
	if t.Status != StatusPending {
		return domainError.NewInvalidTransition("启动", string(t.Status), t.Status.Display())
	}
	now := time.Now()
	t.Status = StatusRunning
	t.StartTime = &now
	t.UpdatedAt = now
	return nil
}

// Pause 暂停任务，仅允许 running -> paused
func (t *ExecutionTask) Pause() error {
	if t.Status != StatusRunning {
		return domainError.NewInvalidTransition("暂停", string(t.Status), t.Status.Display())
	}
	t.Status = StatusPaused
	t.UpdatedAt = time.Now()
	return nil
}

// Resume 恢复任务，仅允许 paused -> running
func (t *ExecutionTask) Resume() error {
	if t.Status != StatusPaused {
		return domainError.NewInvalidTransition("恢复", string(t.Status), t.Status.Display())
	}
	t.Status = StatusRunning
	t.UpdatedAt = time.Now()
	return nil
}

// Terminate 终止任务，允许 running/paused -> terminated
func (t *ExecutionTask) Terminate() error {
	if t.Status != StatusRunning && t.Status != StatusPaused {
		return domainError.NewInvalidTransition("终止", string(t.Status), t.Status.Display())
	}
	now := time.Now()
	t.Status = StatusTerminated
	t.EndTime = &now
	t.UpdatedAt = now
	return nil
}

// Complete 由外部执行器上报最终用例计数收尾任务。
// 失败用例数大于0时收敛到 failed，否则收敛到 success。
func (t *ExecutionTask) Complete(success, failed int) error {
	if t.Status != StatusRunning {
		return domainError.NewInvalidTransition("完成", string(t.Status), t.Status.Display())
	}
	total := t.TotalCase
	if total < success+failed {
		total = success + failed
	}
	if err := validateCounters(total, success, failed); err != nil {
		return err
	}
	now := time.Now()
	if failed > 0 {
		t.Status = StatusFailed
	} else {
		t.Status = StatusSuccess
	}
	t.TotalCase = total
	t.SuccessCase = success
	t.FailedCase = failed
	t.EndTime = &now
	t.UpdatedAt = now
	return nil
}

// PendingCase 待执行用例数
func (t *ExecutionTask) PendingCase() int {
	return t.TotalCase - t.SuccessCase - t.FailedCase
}

// Progress 当前进度计数
func (t *ExecutionTask) Progress() Progress {
	return Progress{
		Total:   t.TotalCase,
		Success: t.SuccessCase,
		Failed:  t.FailedCase,
		Pending: t.PendingCase(),
	}
}

// SuccessRate 成功率百分比，保留两位小数，总数为0时返回0
func (t *ExecutionTask) SuccessRate() float64 {
	if t.TotalCase == 0 {
		return 0
	}
	rate := float64(t.SuccessCase) / float64(t.TotalCase) * 100
	return math.Round(rate*100) / 100
}

// Duration 执行时长，未开始执行时返回nil，未结束时按当前时间计算
func (t *ExecutionTask) Duration() *Duration {
	if t.StartTime == nil {
		return nil
	}
	end := time.Now()
	if t.EndTime != nil {
		end = *t.EndTime
	}
	seconds := int64(end.Sub(*t.StartTime).Seconds())
	return &Duration{
		Seconds: seconds,
		Formatted: fmt.Sprintf("%dh %dm %ds",
			seconds/3600, (seconds%3600)/60, seconds%60),
	}
}

// Statistics 统计信息快照
func (t *ExecutionTask) Statistics() Statistics {
	return Statistics{
		TotalCase:   t.TotalCase,
		SuccessCase: t.SuccessCase,
		FailedCase:  t.FailedCase,
		PendingCase: t.PendingCase(),
		SuccessRate: t.SuccessRate(),
		Duration:    t.Duration(),
		Status:      t.Status,
		Display:     t.Status.Display(),
	}
}
