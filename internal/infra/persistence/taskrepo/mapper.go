package taskrepo

import (
	domain "github.com/autotest/backend/internal/biz/task"
	"github.com/autotest/backend/internal/infra/persistence/commonrepo"
)

func (po *ExecutionTask) ToDomain() *domain.ExecutionTask {
	return &domain.ExecutionTask{
		ID:          po.ID,
		CreatedAt:   po.CreatedAt,
		UpdatedAt:   po.UpdatedAt,
		SuiteID:     po.SuiteID,
		EnvID:       po.EnvID,
		PackageInfo: po.PackageInfo,
		Status:      po.Status,
		StartTime:   po.StartTime,
		EndTime:     po.EndTime,
		Executor:    po.Executor,
		TotalCase:   po.TotalCase,
		SuccessCase: po.SuccessCase,
		FailedCase:  po.FailedCase,
	}
}

func (po *ExecutionTask) FromDomain(domain *domain.ExecutionTask) *ExecutionTask {
	return &ExecutionTask{
		Mode: commonrepo.Mode{
			ID:        domain.ID,
			CreatedAt: domain.CreatedAt,
			UpdatedAt: domain.UpdatedAt,
		},
		SuiteID:     domain.SuiteID,
		EnvID:       domain.EnvID,
		PackageInfo: domain.PackageInfo,
		Status:      domain.Status,
		StartTime:   domain.StartTime,
		EndTime:     domain.EndTime,
		Executor:    domain.Executor,
		TotalCase:   domain.TotalCase,
		SuccessCase: domain.SuccessCase,
		FailedCase:  domain.FailedCase,
	}
}

func patchToMap(input domain.Patch) map[string]any {
	var values = make(map[string]any)
	if input.Status != nil {
		values["status"] = *input.Status
	}
	if input.StartTime != nil {
		values["start_time"] = input.StartTime
	}
	if input.EndTime != nil {
		values["end_time"] = input.EndTime
	}
	if input.PackageInfo != nil {
		values["package_info"] = *input.PackageInfo
	}
	if input.Executor != nil {
		values["executor"] = *input.Executor
	}
	if input.TotalCase != nil {
		values["total_case"] = *input.TotalCase
	}
	if input.SuccessCase != nil {
		values["success_case"] = *input.SuccessCase
	}
	if input.FailedCase != nil {
		values["failed_case"] = *input.FailedCase
	}
	return values
}
