package suiterepo

import (
	"context"
	"errors"

	domain "github.com/autotest/backend/internal/biz/suite"
	domainError "github.com/autotest/backend/internal/domain/error"
	"github.com/autotest/backend/internal/infra/persistence/commonrepo"
	"github.com/google/wire"
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

func (r *MysqlRepositoryImpl) GetSuite(ctx context.Context, id string) (*domain.TestSuite, error) {
	var po = new(TestSuite)
	if err := r.Db(ctx).First(po, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainError.ErrSuiteNotFound
		}
		return nil, err
	}
	return &domain.TestSuite{
		ID:        po.ID,
		Name:      po.Name,
		CreatedAt: po.CreatedAt,
		UpdatedAt: po.UpdatedAt,
	}, nil
}

func (r *MysqlRepositoryImpl) SuiteExists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.Db(ctx).Model(&TestSuite{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MysqlRepositoryImpl) CaseExists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.Db(ctx).Model(&TestCase{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
