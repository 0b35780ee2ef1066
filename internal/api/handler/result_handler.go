package handler

import (
	"net/http"

	"github.com/autotest/backend/internal/biz/result"
	"github.com/autotest/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/samber/mo"
	"go.uber.org/zap"
)

// ResultHandler 用例结果处理器
type ResultHandler struct {
	resultService service.IResultService
	logger        *zap.Logger
}

// NewResultHandler 创建结果处理器
func NewResultHandler(resultService service.IResultService, logger *zap.Logger) *ResultHandler {
	return &ResultHandler{
		resultService: resultService,
		logger:        logger,
	}
}

// TriageReq 结果标记入参
type TriageReq struct {
	MarkStatus   result.MarkStatus `json:"mark_status" binding:"required"`
	AnalysisNote string            `json:"analysis_note"`
}

func resultJSON(r *result.CaseResult) gin.H {
	return gin.H{
		"id":            r.ID,
		"task_id":       r.TaskID,
		"case_id":       r.CaseID,
		"status":        r.Status,
		"mark_status":   r.MarkStatus,
		"analysis_note": r.AnalysisNote,
		"execute_time":  r.ExecuteTime,
		"log_path":      r.LogPath,
	}
}

// RecordResult 追加一条用例结果
func (h *ResultHandler) RecordResult(c *gin.Context) {
	var req service.RecordResultInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, err := h.resultService.Record(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resultJSON(r))
}

// UpdateTriage 更新结果标记状态与分析备注
func (h *ResultHandler) UpdateTriage(c *gin.Context) {
	var req TriageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, err := h.resultService.UpdateTriage(c.Request.Context(), c.Param("id"), req.MarkStatus, req.AnalysisNote)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resultJSON(r))
}

// ListResults 过滤查询结果列表，默认按执行时间降序
func (h *ResultHandler) ListResults(c *gin.Context) {
	offset, limit := pagination(c)

	filter := result.ListFilter{}
	if v := c.Query("task_id"); v != "" {
		filter.TaskID = mo.Some(v)
	}
	if v := c.Query("case_id"); v != "" {
		filter.CaseID = mo.Some(v)
	}
	if v := c.Query("status"); v != "" {
		filter.Status = mo.Some(result.Status(v))
	}
	if v := c.Query("mark_status"); v != "" {
		filter.MarkStatus = mo.Some(result.MarkStatus(v))
	}

	results, total, err := h.resultService.List(c.Request.Context(), filter, offset, limit)
	if err != nil {
		handleError(c, err)
		return
	}

	items := make([]gin.H, len(results))
	for i, r := range results {
		items[i] = resultJSON(r)
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "items": items})
}

// GetResultsByTask 任务维度结果汇总
func (h *ResultHandler) GetResultsByTask(c *gin.Context) {
	summary, err := h.resultService.ResultsByTask(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		h.respondSummaryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "获取成功",
		"data":    summaryJSON(summary),
	})
}

// GetResultsBySuite 测试套维度结果汇总，取最近启动的任务
func (h *ResultHandler) GetResultsBySuite(c *gin.Context) {
	summary, err := h.resultService.ResultsBySuite(c.Request.Context(), c.Param("suite_id"))
	if err != nil {
		h.respondSummaryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "获取成功",
		"data":    summaryJSON(summary),
	})
}

// respondSummaryError 汇总接口沿用 code/message 信封
func (h *ResultHandler) respondSummaryError(c *gin.Context, err error) {
	status := statusOf(err)
	c.JSON(status, gin.H{
		"code":    status,
		"message": err.Error(),
	})
}

func summaryJSON(s *service.TaskResults) gin.H {
	items := make([]gin.H, len(s.CaseResults))
	for i, r := range s.CaseResults {
		items[i] = resultJSON(r)
	}
	return gin.H{
		"suite_id":      s.SuiteID,
		"suite_name":    s.SuiteName,
		"task_id":       s.TaskID,
		"task_status":   s.TaskStatus,
		"start_time":    s.StartTime,
		"end_time":      s.EndTime,
		"total_cases":   s.Counts.Total,
		"success_cases": s.Counts.Success,
		"failed_cases":  s.Counts.Failed,
		"skipped_cases": s.Counts.Skipped,
		"case_results":  items,
	}
}
