package result

import "github.com/samber/mo"

// Status 用例状态（success/failed/skipped）
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

func (s Status) Valid() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusSkipped
}

// MarkStatus 标记状态，独立于用例成败的分析流转标签
type MarkStatus string

const (
	MarkNone      MarkStatus = "none"
	MarkToAnalyze MarkStatus = "to_analyze"
	MarkLocated   MarkStatus = "located"
	MarkNoNeed    MarkStatus = "no_need"
)

func (m MarkStatus) Valid() bool {
	return m == MarkNone || m == MarkToAnalyze || m == MarkLocated || m == MarkNoNeed
}

// ListFilter 结果列表过滤条件，默认按 execute_time 降序
type ListFilter struct {
	TaskID     mo.Option[string]
	CaseID     mo.Option[string]
	Status     mo.Option[Status]
	MarkStatus mo.Option[MarkStatus]
}

// StatusCounts 按用例状态扫描出的计数。
// 这里的计数以结果行为准，不读取任务上缓存的冗余计数。
type StatusCounts struct {
	Total   int64 `json:"total_cases"`
	Success int64 `json:"success_cases"`
	Failed  int64 `json:"failed_cases"`
	Skipped int64 `json:"skipped_cases"`
}
