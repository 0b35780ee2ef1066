package commonrepo

import "time"

// Mode 字符串主键的公共模型字段，主键由领域层生成
type Mode struct {
	ID        string    `gorm:"primarykey;size:64"`
	CreatedAt time.Time `gorm:"index;autoCreateTime"`
	UpdatedAt time.Time `gorm:"index;autoUpdateTime"`
}
