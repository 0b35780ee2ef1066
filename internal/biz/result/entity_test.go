package result

import (
	"testing"
	"time"

	domainError "github.com/autotest/backend/internal/domain/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	execTime := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r, err := New("task-001", "case-001", StatusFailed, execTime, "/logs/case-001.log", "", "")
	require.NoError(t, err)

	assert.Contains(t, r.ID, "case-result-")
	assert.Equal(t, StatusFailed, r.Status)
	// 未显式标记时落到 none
	assert.Equal(t, MarkNone, r.MarkStatus)
	assert.Equal(t, execTime, r.ExecuteTime)
}

func TestNew_DefaultsExecuteTime(t *testing.T) {
	r, err := New("task-001", "case-001", StatusSuccess, time.Time{}, "", MarkNone, "")
	require.NoError(t, err)
	assert.False(t, r.ExecuteTime.IsZero())
}

func TestNew_Validation(t *testing.T) {
	cases := []struct {
		name   string
		taskID string
		caseID string
		status Status
		mark   MarkStatus
		field  string
	}{
		{"缺少任务", "", "case-001", StatusSuccess, MarkNone, "task_id"},
		{"缺少用例", "task-001", "", StatusSuccess, MarkNone, "case_id"},
		{"状态非法", "task-001", "case-001", "crashed", MarkNone, "status"},
		{"标记非法", "task-001", "case-001", StatusSuccess, "weird", "mark_status"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.taskID, tc.caseID, tc.status, time.Now(), "", tc.mark, "")
			var verr *domainError.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestMarkTriage(t *testing.T) {
	r, err := New("task-001", "case-001", StatusFailed, time.Now(), "", MarkToAnalyze, "")
	require.NoError(t, err)

	require.NoError(t, r.MarkTriage(MarkLocated, "环境时钟漂移导致断言失败"))
	assert.Equal(t, MarkLocated, r.MarkStatus)
	assert.Equal(t, "环境时钟漂移导致断言失败", r.AnalysisNote)
	// 结果状态不随标记变化
	assert.Equal(t, StatusFailed, r.Status)

	err = r.MarkTriage("weird", "")
	var verr *domainError.ValidationError
	require.ErrorAs(t, err, &verr)
}
