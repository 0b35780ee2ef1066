package suite

import "time"

// TestSuite 测试套，归属外部模块管理，这里只做引用校验
type TestSuite struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TestCase 测试用例，归属外部模块管理，这里只做引用校验
type TestCase struct {
	ID        string
	SuiteID   string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
