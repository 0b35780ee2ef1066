package resultrepo

import (
	"context"
	"errors"

	domain "github.com/autotest/backend/internal/biz/result"
	domainError "github.com/autotest/backend/internal/domain/error"
	"github.com/autotest/backend/internal/infra/persistence/commonrepo"
	"github.com/google/wire"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

var Provider = wire.NewSet(NewMysqlRepositoryImpl)

type MysqlRepositoryImpl struct {
	commonrepo.DefaultRepo
}

func NewMysqlRepositoryImpl(db commonrepo.DB) domain.Repo {
	return &MysqlRepositoryImpl{
		DefaultRepo: commonrepo.NewDefaultRepo(db),
	}
}

func (r *MysqlRepositoryImpl) Create(ctx context.Context, result *domain.CaseResult) error {
	po := new(CaseResult).FromDomain(result)
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return err
	}
	result.CreatedAt = po.CreatedAt
	result.UpdatedAt = po.UpdatedAt
	return nil
}

func (r *MysqlRepositoryImpl) GetByID(ctx context.Context, id string) (*domain.CaseResult, error) {
	var po = new(CaseResult)
	if err := r.Db(ctx).First(po, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainError.ErrResultNotFound
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) Save(ctx context.Context, result *domain.CaseResult) error {
	po := new(CaseResult).FromDomain(result)
	if err := r.Db(ctx).Save(po).Error; err != nil {
		return err
	}
	result.UpdatedAt = po.UpdatedAt
	return nil
}

func (r *MysqlRepositoryImpl) List(ctx context.Context, filter domain.ListFilter, offset, limit int) ([]*domain.CaseResult, int64, error) {
	var db = r.Db(ctx).Model(&CaseResult{})

	if filter.TaskID.IsPresent() {
		db = db.Where("task_id = ?", filter.TaskID.MustGet())
	}
	if filter.CaseID.IsPresent() {
		db = db.Where("case_id = ?", filter.CaseID.MustGet())
	}
	if filter.Status.IsPresent() {
		db = db.Where("status = ?", filter.Status.MustGet())
	}
	if filter.MarkStatus.IsPresent() {
		db = db.Where("mark_status = ?", filter.MarkStatus.MustGet())
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var pos []*CaseResult
	if err := db.Order("execute_time DESC").Offset(offset).Limit(limit).Find(&pos).Error; err != nil {
		return nil, 0, err
	}

	return lo.Map(pos, func(po *CaseResult, _ int) *domain.CaseResult {
		return po.ToDomain()
	}), total, nil
}

func (r *MysqlRepositoryImpl) ListByTask(ctx context.Context, taskID string) ([]*domain.CaseResult, error) {
	var pos []*CaseResult
	err := r.Db(ctx).Model(&CaseResult{}).
		Where("task_id = ?", taskID).
		Order("execute_time DESC").
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po *CaseResult, _ int) *domain.CaseResult {
		return po.ToDomain()
	}), nil
}

// CountByTask 按状态分组扫描结果行，计数以这里为准
func (r *MysqlRepositoryImpl) CountByTask(ctx context.Context, taskID string) (domain.StatusCounts, error) {
	type row struct {
		Status domain.Status
		Cnt    int64
	}
	var rows []row
	err := r.Db(ctx).Model(&CaseResult{}).
		Select("status, count(*) as cnt").
		Where("task_id = ?", taskID).
		Group("status").
		Find(&rows).Error
	if err != nil {
		return domain.StatusCounts{}, err
	}

	var counts domain.StatusCounts
	for _, rw := range rows {
		counts.Total += rw.Cnt
		switch rw.Status {
		case domain.StatusSuccess:
			counts.Success = rw.Cnt
		case domain.StatusFailed:
			counts.Failed = rw.Cnt
		case domain.StatusSkipped:
			counts.Skipped = rw.Cnt
		}
	}
	return counts, nil
}
