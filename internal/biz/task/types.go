package task

import (
	"time"

	"github.com/samber/mo"
)

// Status 任务状态（pending/running/paused/terminated/success/failed）
type Status string

const (
	StatusPending    Status = "pending"
	StatusRunning    Status = "running"
	StatusPaused     Status = "paused"
	StatusTerminated Status = "terminated"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
)

var statusDisplay = map[Status]string{
	StatusPending:    "等待执行",
	StatusRunning:    "运行中",
	StatusPaused:     "已暂停",
	StatusTerminated: "已终止",
	StatusSuccess:    "执行成功",
	StatusFailed:     "执行失败",
}

// Display 返回状态的中文展示名
func (s Status) Display() string {
	if d, ok := statusDisplay[s]; ok {
		return d
	}
	return string(s)
}

// IsTerminal 终态判断，终态任务必须带结束时间
func (s Status) IsTerminal() bool {
	return s == StatusTerminated || s == StatusSuccess || s == StatusFailed
}

func (s Status) Valid() bool {
	_, ok := statusDisplay[s]
	return ok
}

// ListFilter 任务列表过滤条件
type ListFilter struct {
	SuiteID  mo.Option[string]
	EnvID    mo.Option[string]
	Status   mo.Option[Status]
	Executor mo.Option[string]
}

// Patch 任务字段补丁，nil字段不更新
type Patch struct {
	Status      *Status
	StartTime   *time.Time
	EndTime     *time.Time
	PackageInfo *string
	Executor    *string
	TotalCase   *int
	SuccessCase *int
	FailedCase  *int
}

// Progress 任务进度计数
type Progress struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
}

// Statistics 任务统计信息
type Statistics struct {
	TotalCase   int       `json:"total_case"`
	SuccessCase int       `json:"success_case"`
	FailedCase  int       `json:"failed_case"`
	PendingCase int       `json:"pending_case"`
	SuccessRate float64   `json:"success_rate"`
	Duration    *Duration `json:"duration"`
	Status      Status    `json:"status"`
	Display     string    `json:"status_display"`
}

// Duration 执行时长，秒数加可读格式
type Duration struct {
	Seconds   int64  `json:"seconds"`
	Formatted string `json:"formatted"`
}
