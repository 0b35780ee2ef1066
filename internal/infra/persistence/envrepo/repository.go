package envrepo

import (
	"context"
	"errors"

	domain "github.com/autotest/backend/internal/biz/environment"
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

func (r *MysqlRepositoryImpl) Create(ctx context.Context, env *domain.Environment) error {
	po := new(Environment).FromDomain(env)
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return err
	}
	env.CreatedAt = po.CreatedAt
	env.UpdatedAt = po.UpdatedAt
	return nil
}

func (r *MysqlRepositoryImpl) GetByID(ctx context.Context, id string) (*domain.Environment, error) {
	var po = new(Environment)
	if err := r.Db(ctx).First(po, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainError.ErrEnvNotFound
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) List(ctx context.Context, filter domain.ListFilter, offset, limit int) ([]*domain.Environment, int64, error) {
	var db = r.Db(ctx).Model(&Environment{})

	if filter.Status.IsPresent() {
		db = db.Where("status = ?", filter.Status.MustGet())
	}
	if filter.Owner.IsPresent() {
		db = db.Where("owner = ?", filter.Owner.MustGet())
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var pos []*Environment
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&pos).Error; err != nil {
		return nil, 0, err
	}

	return lo.Map(pos, func(po *Environment, _ int) *domain.Environment {
		return po.ToDomain()
	}), total, nil
}

func (r *MysqlRepositoryImpl) Update(ctx context.Context, id string, patch domain.Patch) error {
	values := patchToMap(patch)
	if len(values) == 0 {
		return nil
	}
	result := r.Db(ctx).Model(&Environment{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainError.ErrEnvNotFound
	}
	return nil
}

// Reserve 比较并交换占用：available 且未被占用才写入占用任务
func (r *MysqlRepositoryImpl) Reserve(ctx context.Context, envID, taskID string) (bool, error) {
	result := r.Db(ctx).Model(&Environment{}).
		Where("id = ? AND status = ? AND (owner_task = '' OR owner_task IS NULL)", envID, domain.StatusAvailable).
		Updates(map[string]any{
			"status":     domain.StatusOccupied,
			"owner_task": taskID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Release 仅当占用任务匹配时把环境放回 available
func (r *MysqlRepositoryImpl) Release(ctx context.Context, envID, taskID string) (bool, error) {
	result := r.Db(ctx).Model(&Environment{}).
		Where("id = ? AND status = ? AND owner_task = ?", envID, domain.StatusOccupied, taskID).
		Updates(map[string]any{
			"status":     domain.StatusAvailable,
			"owner_task": "",
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkApplied 供给执行结果连同已应用令牌一并落库。
// 条件更新：行上的待执行令牌必须仍等于本次令牌，防止慢worker用旧结果覆盖新请求
func (r *MysqlRepositoryImpl) MarkApplied(ctx context.Context, envID, token string, patch domain.Patch) (bool, error) {
	values := patchToMap(patch)
	values["applied_token"] = token
	result := r.Db(ctx).Model(&Environment{}).
		Where("id = ? AND provision_token = ?", envID, token).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
