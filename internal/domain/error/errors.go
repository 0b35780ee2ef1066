package error

import (
	"errors"
	"fmt"
)

// 领域层错误定义

var (
	// 任务相关错误
	ErrTaskNotFound = errors.New("任务不存在")

	// 结果相关错误
	ErrResultNotFound = errors.New("用例结果不存在")
	ErrCaseNotFound   = errors.New("测试用例不存在")

	// 测试套相关错误
	ErrSuiteNotFound     = errors.New("测试套不存在")
	ErrSuiteNoExecutions = errors.New("该测试套没有相关的任务执行记录")

	// 环境相关错误
	ErrEnvNotFound = errors.New("环境不存在")
	ErrEnvBusy     = errors.New("环境已被其他任务占用")

	// 通用错误
	ErrInvalidInput  = errors.New("输入参数无效")
	ErrInternalError = errors.New("内部错误")
)

// DomainError 领域错误接口
type DomainError interface {
	error
	Code() string
	Message() string
}

// BusinessError 业务错误
type BusinessError struct {
	code    string
	message string
	cause   error
}

func NewBusinessError(code, message string, cause error) *BusinessError {
	return &BusinessError{
		code:    code,
		message: message,
		cause:   cause,
	}
}

func (e *BusinessError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *BusinessError) Code() string {
	return e.code
}

func (e *BusinessError) Message() string {
	return e.message
}

func (e *BusinessError) Unwrap() error {
	return e.cause
}

// InvalidTransitionError 状态机非法迁移错误，携带当前状态供调用方判断
type InvalidTransitionError struct {
	Op      string
	Current string
	Display string
}

func NewInvalidTransition(op, current, display string) *InvalidTransitionError {
	return &InvalidTransitionError{Op: op, Current: current, Display: display}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("任务当前状态为%s，无法%s", e.Display, e.Op)
}

// ValidationError 输入校验错误，携带字段信息
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}
