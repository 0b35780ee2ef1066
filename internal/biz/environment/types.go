package environment

import (
	"time"

	"github.com/samber/mo"
)

// Status 环境状态（pending/available/unavailable/occupied/failed）
type Status string

const (
	StatusPending     Status = "pending"
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
	StatusOccupied    Status = "occupied"
	StatusFailed      Status = "failed"
)

// Action 供给动作
type Action string

const (
	ActionCreate Action = "create"
	ActionStart  Action = "start"
	ActionStop   Action = "stop"
)

// ListFilter 环境列表过滤条件
type ListFilter struct {
	Status mo.Option[Status]
	Owner  mo.Option[string]
}

// Patch 环境字段补丁
type Patch struct {
	Status         *Status
	OwnerTask      *string
	ContainerID    *string
	ProvisionToken *string
	AppliedToken   *string
	LastCheckTime  *time.Time
}
