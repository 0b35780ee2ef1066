package suiterepo

import "github.com/autotest/backend/internal/infra/persistence/commonrepo"

// 测试套与测试用例由外部模块维护，这里仅承载引用校验所需的最小结构

type TestSuite struct {
	commonrepo.Mode
	Name string `gorm:"column:name;size:128;not null"`
}

func (TestSuite) TableName() string {
	return "tb_test_suite"
}

type TestCase struct {
	commonrepo.Mode
	SuiteID string `gorm:"column:suite_id;size:64;index"`
	Name    string `gorm:"column:name;size:128;not null"`
}

func (TestCase) TableName() string {
	return "tb_test_case"
}
