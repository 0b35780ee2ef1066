package handler

import (
	"net/http"
	"strconv"

	"github.com/autotest/backend/internal/api/middleware"
	"github.com/autotest/backend/internal/biz/task"
	"github.com/autotest/backend/internal/service"
	"github.com/davecgh/go-spew/spew"
	"github.com/gin-gonic/gin"
	"github.com/samber/mo"
	"go.uber.org/zap"
)

// TaskHandler 任务生命周期处理器
type TaskHandler struct {
	taskService service.ITaskService
	logger      *zap.Logger
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(taskService service.ITaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// CompleteTaskReq 外部执行器回传的完成信号
type CompleteTaskReq struct {
	SuccessCase int `json:"success_case"`
	FailedCase  int `json:"failed_case"`
}

func taskJSON(t *task.ExecutionTask) gin.H {
	return gin.H{
		"id":           t.ID,
		"suite_id":     t.SuiteID,
		"env_id":       t.EnvID,
		"package_info": t.PackageInfo,
		"status":       t.Status,
		"start_time":   t.StartTime,
		"end_time":     t.EndTime,
		"executor":     t.Executor,
		"total_case":   t.TotalCase,
		"success_case": t.SuccessCase,
		"failed_case":  t.FailedCase,
		"create_time":  t.CreatedAt,
		"update_time":  t.UpdatedAt,
	}
}

// CreateTask 创建任务
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req service.CreateTaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.logger.Core().Enabled(zap.DebugLevel) {
		h.logger.Debug("create task request", zap.String("dump", spew.Sdump(req)))
	}

	t, err := h.taskService.Create(c.Request.Context(), req, middleware.Operator(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, taskJSON(t))
}

// GetTask 获取任务详情
func (h *TaskHandler) GetTask(c *gin.Context) {
	t, err := h.taskService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, taskJSON(t))
}

// ListTasks 任务列表
func (h *TaskHandler) ListTasks(c *gin.Context) {
	offset, limit := pagination(c)

	filter := task.ListFilter{}
	if v := c.Query("suite_id"); v != "" {
		filter.SuiteID = mo.Some(v)
	}
	if v := c.Query("env_id"); v != "" {
		filter.EnvID = mo.Some(v)
	}
	if v := c.Query("status"); v != "" {
		filter.Status = mo.Some(task.Status(v))
	}
	if v := c.Query("executor"); v != "" {
		filter.Executor = mo.Some(v)
	}

	tasks, total, err := h.taskService.List(c.Request.Context(), filter, offset, limit)
	if err != nil {
		handleError(c, err)
		return
	}

	items := make([]gin.H, len(tasks))
	for i, t := range tasks {
		items[i] = taskJSON(t)
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "items": items})
}

// UpdateTask 更新任务
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	var req service.UpdateTaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.taskService.Update(c.Request.Context(), c.Param("id"), req, middleware.Operator(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, taskJSON(t))
}

// DeleteTask 删除任务
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.taskService.Delete(c.Request.Context(), c.Param("id"), middleware.Operator(c)); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "任务已删除"})
}

// StartTask 启动任务
func (h *TaskHandler) StartTask(c *gin.Context) {
	t, err := h.taskService.Start(c.Request.Context(), c.Param("id"), middleware.Operator(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"task_id":    t.ID,
		"status":     t.Status,
		"start_time": t.StartTime,
		"message":    "任务已成功启动",
	})
}

// PauseTask 暂停任务
func (h *TaskHandler) PauseTask(c *gin.Context) {
	t, err := h.taskService.Pause(c.Request.Context(), c.Param("id"), middleware.Operator(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"task_id": t.ID,
		"status":  t.Status,
		"message": "任务已成功暂停",
	})
}

// ResumeTask 恢复任务
func (h *TaskHandler) ResumeTask(c *gin.Context) {
	t, err := h.taskService.Resume(c.Request.Context(), c.Param("id"), middleware.Operator(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"task_id": t.ID,
		"status":  t.Status,
		"message": "任务已成功恢复",
	})
}

// TerminateTask 终止任务
func (h *TaskHandler) TerminateTask(c *gin.Context) {
	t, err := h.taskService.Terminate(c.Request.Context(), c.Param("id"), middleware.Operator(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"task_id":  t.ID,
		"status":   t.Status,
		"end_time": t.EndTime,
		"message":  "任务已成功终止",
	})
}

// CompleteTask 外部执行器上报最终计数收尾任务
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	var req CompleteTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.taskService.Complete(c.Request.Context(), c.Param("id"), req.SuccessCase, req.FailedCase, middleware.Operator(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"task_id":  t.ID,
		"status":   t.Status,
		"end_time": t.EndTime,
		"message":  "任务已完成",
	})
}

// GetTaskStatus 任务状态与进度
func (h *TaskHandler) GetTaskStatus(c *gin.Context) {
	view, err := h.taskService.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetTaskStatistics 任务统计信息
func (h *TaskHandler) GetTaskStatistics(c *gin.Context) {
	stats, err := h.taskService.GetStatistics(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"task_id":    c.Param("id"),
		"statistics": stats,
	})
}

func pagination(c *gin.Context) (offset, limit int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return (page - 1) * pageSize, pageSize
}
