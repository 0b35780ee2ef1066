package envrepo

import (
	"time"

	domain "github.com/autotest/backend/internal/biz/environment"
	"github.com/autotest/backend/internal/infra/persistence/commonrepo"
	"gorm.io/datatypes"
)

type Environment struct {
	commonrepo.Mode
	Name           string            `gorm:"column:name;size:128;not null;uniqueIndex"`
	Image          string            `gorm:"column:image;size:256"`
	Status         domain.Status     `gorm:"column:status;size:32;not null;index"`
	Owner          string            `gorm:"column:owner;size:64;not null"`
	OwnerTask      string            `gorm:"column:owner_task;size:64;index"`
	ContainerID    string            `gorm:"column:container_id;size:128"`
	Config         datatypes.JSONMap `gorm:"column:config;type:json"`
	ProvisionToken string            `gorm:"column:provision_token;size:64"`
	AppliedToken   string            `gorm:"column:applied_token;size:64"`
	LastCheckTime  *time.Time        `gorm:"column:last_check_time"`
}

func (Environment) TableName() string {
	return "tb_environment"
}
