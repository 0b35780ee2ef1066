package envrepo

import (
	domain "github.com/autotest/backend/internal/biz/environment"
	"github.com/autotest/backend/internal/infra/persistence/commonrepo"
)

func (po *Environment) ToDomain() *domain.Environment {
	return &domain.Environment{
		ID:             po.ID,
		CreatedAt:      po.CreatedAt,
		UpdatedAt:      po.UpdatedAt,
		Name:           po.Name,
		Image:          po.Image,
		Status:         po.Status,
		Owner:          po.Owner,
		OwnerTask:      po.OwnerTask,
		ContainerID:    po.ContainerID,
		Config:         po.Config,
		ProvisionToken: po.ProvisionToken,
		AppliedToken:   po.AppliedToken,
		LastCheckTime:  po.LastCheckTime,
	}
}

func (po *Environment) FromDomain(domain *domain.Environment) *Environment {
	return &Environment{
		Mode: commonrepo.Mode{
			ID:        domain.ID,
			CreatedAt: domain.CreatedAt,
			UpdatedAt: domain.UpdatedAt,
		},
		Name:           domain.Name,
		Image:          domain.Image,
		Status:         domain.Status,
		Owner:          domain.Owner,
		OwnerTask:      domain.OwnerTask,
		ContainerID:    domain.ContainerID,
		Config:         domain.Config,
		ProvisionToken: domain.ProvisionToken,
		AppliedToken:   domain.AppliedToken,
		LastCheckTime:  domain.LastCheckTime,
	}
}

func patchToMap(input domain.Patch) map[string]any {
	var values = make(map[string]any)
	if input.Status != nil {
		values["status"] = *input.Status
	}
	if input.OwnerTask != nil {
		values["owner_task"] = *input.OwnerTask
	}
	if input.ContainerID != nil {
		values["container_id"] = *input.ContainerID
	}
	if input.ProvisionToken != nil {
		values["provision_token"] = *input.ProvisionToken
	}
	if input.AppliedToken != nil {
		values["applied_token"] = *input.AppliedToken
	}
	if input.LastCheckTime != nil {
		values["last_check_time"] = input.LastCheckTime
	}
	return values
}
