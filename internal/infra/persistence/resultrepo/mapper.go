package resultrepo

import (
	domain "github.com/autotest/backend/internal/biz/result"
	"github.com/autotest/backend/internal/infra/persistence/commonrepo"
)

func (po *CaseResult) ToDomain() *domain.CaseResult {
	return &domain.CaseResult{
		ID:           po.ID,
		CreatedAt:    po.CreatedAt,
		UpdatedAt:    po.UpdatedAt,
		TaskID:       po.TaskID,
		CaseID:       po.CaseID,
		Status:       po.Status,
		MarkStatus:   po.MarkStatus,
		AnalysisNote: po.AnalysisNote,
		ExecuteTime:  po.ExecuteTime,
		LogPath:      po.LogPath,
	}
}

func (po *CaseResult) FromDomain(domain *domain.CaseResult) *CaseResult {
	return &CaseResult{
		Mode: commonrepo.Mode{
			ID:        domain.ID,
			CreatedAt: domain.CreatedAt,
			UpdatedAt: domain.UpdatedAt,
		},
		TaskID:       domain.TaskID,
		CaseID:       domain.CaseID,
		Status:       domain.Status,
		MarkStatus:   domain.MarkStatus,
		AnalysisNote: domain.AnalysisNote,
		ExecuteTime:  domain.ExecuteTime,
		LogPath:      domain.LogPath,
	}
}
