package taskrepo

import (
	"context"
	"errors"

	domain "github.com/autotest/backend/internal/biz/task"
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

func (r *MysqlRepositoryImpl) Create(ctx context.Context, task *domain.ExecutionTask) error {
	po := new(ExecutionTask).FromDomain(task)
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return err
	}
	task.CreatedAt = po.CreatedAt
	task.UpdatedAt = po.UpdatedAt
	return nil
}

func (r *MysqlRepositoryImpl) GetByID(ctx context.Context, id string) (*domain.ExecutionTask, error) {
	var po = new(ExecutionTask)
	if err := r.Db(ctx).First(po, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainError.ErrTaskNotFound
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) Delete(ctx context.Context, id string) error {
	result := r.Db(ctx).Delete(&ExecutionTask{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainError.ErrTaskNotFound
	}
	return nil
}

func (r *MysqlRepositoryImpl) List(ctx context.Context, filter domain.ListFilter, offset, limit int) ([]*domain.ExecutionTask, int64, error) {
	var db = r.Db(ctx).Model(&ExecutionTask{})

	if filter.SuiteID.IsPresent() {
		db = db.Where("suite_id = ?", filter.SuiteID.MustGet())
	}
	if filter.EnvID.IsPresent() {
		db = db.Where("env_id = ?", filter.EnvID.MustGet())
	}
	if filter.Status.IsPresent() {
		db = db.Where("status = ?", filter.Status.MustGet())
	}
	if filter.Executor.IsPresent() {
		db = db.Where("executor = ?", filter.Executor.MustGet())
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var pos []*ExecutionTask
	if err := db.Order("start_time IS NULL, start_time DESC, id DESC").
		Offset(offset).Limit(limit).Find(&pos).Error; err != nil {
		return nil, 0, err
	}

	return lo.Map(pos, func(po *ExecutionTask, _ int) *domain.ExecutionTask {
		return po.ToDomain()
	}), total, nil
}

// UpdateCAS 单条原子比较并交换：status 命中 expected 才应用补丁
func (r *MysqlRepositoryImpl) UpdateCAS(ctx context.Context, id string, expected domain.Status, patch domain.Patch) (bool, error) {
	values := patchToMap(patch)
	if len(values) == 0 {
		return false, nil
	}
	result := r.Db(ctx).Model(&ExecutionTask{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *MysqlRepositoryImpl) Update(ctx context.Context, id string, patch domain.Patch) error {
	values := patchToMap(patch)
	if len(values) == 0 {
		return nil
	}
	result := r.Db(ctx).Model(&ExecutionTask{}).
		Where("id = ?", id).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainError.ErrTaskNotFound
	}
	return nil
}

// LatestBySuite 最近启动的任务：start_time 降序且空值排最后，再按ID降序兜底
func (r *MysqlRepositoryImpl) LatestBySuite(ctx context.Context, suiteID string) (*domain.ExecutionTask, error) {
	var po = new(ExecutionTask)
	err := r.Db(ctx).Model(&ExecutionTask{}).
		Where("suite_id = ?", suiteID).
		Order("start_time IS NULL, start_time DESC, id DESC").
		First(po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainError.ErrTaskNotFound
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.Db(ctx).Model(&ExecutionTask{}).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
