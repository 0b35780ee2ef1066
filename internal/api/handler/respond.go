package handler

import (
	"errors"
	"net/http"

	domainError "github.com/autotest/backend/internal/domain/error"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// statusOf 领域错误对应的HTTP状态码
func statusOf(err error) int {
	var validationErr *domainError.ValidationError
	var transitionErr *domainError.InvalidTransitionError
	switch {
	case errors.As(err, &validationErr), errors.As(err, &transitionErr):
		return http.StatusBadRequest
	case errors.Is(err, domainError.ErrTaskNotFound),
		errors.Is(err, domainError.ErrResultNotFound),
		errors.Is(err, domainError.ErrCaseNotFound),
		errors.Is(err, domainError.ErrSuiteNotFound),
		errors.Is(err, domainError.ErrSuiteNoExecutions),
		errors.Is(err, domainError.ErrEnvNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainError.ErrEnvBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// handleError 领域错误到HTTP状态码的统一映射
func handleError(c *gin.Context, err error) {
	var validationErr *domainError.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "VALIDATION_ERROR",
			"message": validationErr.Reason,
			"field":   validationErr.Field,
		})
		return
	}

	var transitionErr *domainError.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		// 带上当前状态，调用方自行决定是否重试
		c.JSON(http.StatusBadRequest, gin.H{
			"code":           "INVALID_TRANSITION",
			"error":          transitionErr.Error(),
			"current_status": transitionErr.Current,
		})
		return
	}

	switch {
	case errors.Is(err, domainError.ErrTaskNotFound),
		errors.Is(err, domainError.ErrResultNotFound),
		errors.Is(err, domainError.ErrCaseNotFound),
		errors.Is(err, domainError.ErrSuiteNotFound),
		errors.Is(err, domainError.ErrSuiteNoExecutions),
		errors.Is(err, domainError.ErrEnvNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "NOT_FOUND",
			"message": err.Error(),
		})
	case errors.Is(err, domainError.ErrEnvBusy):
		c.JSON(http.StatusConflict, gin.H{
			"code":    "ENV_BUSY",
			"message": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": err.Error(),
		})
	}
}
