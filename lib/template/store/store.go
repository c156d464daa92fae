package templatestore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	dbmodels "approval-flow-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.StageTemplate) (id string, err error)
	GetByID(id string) (rec *dbmodels.StageTemplate, err error)
	List() (list []dbmodels.StageTemplate, err error)
	Delete(id string) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.StageTemplate) (id string, err error) {
	err = i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.StageTemplate, error) {
	rec := dbmodels.StageTemplate{}
	err := i.db.
		Where("id = ?", id).
		Preload("Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_idx ASC")
		}).
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) List() (list []dbmodels.StageTemplate, err error) {
	list = []dbmodels.StageTemplate{}
	err = i.db.
		Preload("Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_idx ASC")
		}).
		Order("name ASC").
		Find(&list).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return list, nil
}

func (i impl) Delete(id string) error {
	err := i.db.
		Where("template_id = ?", id).
		Delete(&dbmodels.TemplateStage{}).
		Error
	if err != nil {
		return err
	}
	return i.db.
		Where("id = ?", id).
		Delete(&dbmodels.StageTemplate{}).
		Error
}
