package environment

import (
	"time"

	domainError "github.com/autotest/backend/internal/domain/error"
	"github.com/google/uuid"
)

// Environment 环境信息，对应表 tb_environment。
// 任务通过 OwnerTask 字段以比较并交换的方式独占环境。
type Environment struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	Name   string
	Image  string
	Status Status
	Owner  string

	// Config 容器供给配置（端口映射、环境变量、数据卷）
	Config map[string]any

	// OwnerTask 当前占用环境的任务ID，空表示未被占用
	OwnerTask   string
	ContainerID string

	// ProvisionToken 最近一次下发的供给请求令牌，
	// AppliedToken 已经执行过的令牌，两者配合去重重复投递。
	ProvisionToken string
	AppliedToken   string
	LastCheckTime  *time.Time
}

// NewID 生成环境唯一ID（格式：env-xxx）
func NewID() string {
	return "env-" + uuid.NewString()[:8]
}

// NewToken 生成供给请求幂等令牌
func NewToken() string {
	return "prov-" + uuid.NewString()[:8]
}

// New 创建处于 pending 状态的环境记录，等待异步供给
func New(name, image, owner string, config map[string]any) (*Environment, error) {
	if name == "" {
		return nil, domainError.NewValidationError("name", "环境名称不能为空")
	}
	now := time.Now()
	return &Environment{
		ID:        NewID(),
		CreatedAt: now,
		UpdatedAt: now,
		Name:      name,
		Image:     image,
		Status:    StatusPending,
		Owner:     owner,
		Config:    config,
	}, nil
}
