package handler

import (
	"net/http"

	"github.com/autotest/backend/internal/api/middleware"
	"github.com/autotest/backend/internal/biz/environment"
	"github.com/autotest/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/samber/mo"
	"go.uber.org/zap"
)

// EnvHandler 环境注册与供给处理器
type EnvHandler struct {
	envService service.IEnvironmentService
	logger     *zap.Logger
}

// NewEnvHandler 创建环境处理器
func NewEnvHandler(envService service.IEnvironmentService, logger *zap.Logger) *EnvHandler {
	return &EnvHandler{
		envService: envService,
		logger:     logger,
	}
}

func envJSON(e *environment.Environment) gin.H {
	return gin.H{
		"id":              e.ID,
		"name":            e.Name,
		"image":           e.Image,
		"status":          e.Status,
		"owner":           e.Owner,
		"owner_task":      e.OwnerTask,
		"container_id":    e.ContainerID,
		"config":          e.Config,
		"last_check_time": e.LastCheckTime,
		"create_time":     e.CreatedAt,
		"update_time":     e.UpdatedAt,
	}
}

// CreateEnv 登记环境并发起异步供给，接口立即返回 pending 环境
func (h *EnvHandler) CreateEnv(c *gin.Context) {
	var req service.CreateEnvInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	env, err := h.envService.Create(c.Request.Context(), req, middleware.Operator(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, envJSON(env))
}

// GetEnv 环境详情，供给结果通过状态字段异步可见
func (h *EnvHandler) GetEnv(c *gin.Context) {
	env, err := h.envService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, envJSON(env))
}

// ListEnvs 环境列表
func (h *EnvHandler) ListEnvs(c *gin.Context) {
	offset, limit := pagination(c)

	filter := environment.ListFilter{}
	if v := c.Query("status"); v != "" {
		filter.Status = mo.Some(environment.Status(v))
	}
	if v := c.Query("owner"); v != "" {
		filter.Owner = mo.Some(v)
	}

	envs, total, err := h.envService.List(c.Request.Context(), filter, offset, limit)
	if err != nil {
		handleError(c, err)
		return
	}

	items := make([]gin.H, len(envs))
	for i, e := range envs {
		items[i] = envJSON(e)
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "items": items})
}

// StartEnv 发起异步启动
func (h *EnvHandler) StartEnv(c *gin.Context) {
	if err := h.envService.RequestStart(c.Request.Context(), c.Param("id"), middleware.Operator(c)); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "环境启动请求已提交"})
}

// StopEnv 发起异步停止
func (h *EnvHandler) StopEnv(c *gin.Context) {
	if err := h.envService.RequestStop(c.Request.Context(), c.Param("id"), middleware.Operator(c)); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "环境停止请求已提交"})
}
