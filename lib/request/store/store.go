package requeststore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"approval-flow-backend/models"
	dbmodels "approval-flow-backend/models/db"
)

type Filter struct {
	Type   models.RequestType
	Status models.RequestStatus
	Page   int
	Limit  int
}

type Provider interface {
	Create(rec dbmodels.Request) (id string, err error)
	GetByID(id string) (rec *dbmodels.Request, err error)
	Update(id string, updMap map[string]interface{}) error
	UpdateStatusIf(id string, from []models.RequestStatus, updMap map[string]interface{}) (updated bool, err error)
	List(filter Filter) (list []dbmodels.Request, err error)
	ListCount(filter Filter) (rowCount int64, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.Request) (id string, err error) {
	err = i.db.
		Omit(clause.Associations).
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.Request, error) {
	rec := dbmodels.Request{}
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

func (i impl) Update(id string, updMap map[string]interface{}) error {
	if len(updMap) == 0 {
		return nil
	}
	tx := i.db.
		Model(&dbmodels.Request{}).
		Where("id = ?", id).
		Updates(updMap)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.New("request not found")
	}
	return nil
}

// UpdateStatusIf applies updMap only while the current status is one
// of from; the caller reads the result to detect a lost race.
func (i impl) UpdateStatusIf(id string, from []models.RequestStatus, updMap map[string]interface{}) (bool, error) {
	tx := i.db.
		Model(&dbmodels.Request{}).
		Where("id = ?", id).
		Where("status IN ?", from).
		Updates(updMap)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (i impl) applyFilter(tx *gorm.DB, filter Filter) *gorm.DB {
	if filter.Type != "" {
		tx = tx.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", filter.Status)
	}
	return tx
}

func (i impl) List(filter Filter) (list []dbmodels.Request, err error) {
	list = []dbmodels.Request{}
	tx := i.applyFilter(i.db.Model(&dbmodels.Request{}), filter).
		Preload("Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_idx ASC")
		}).
		Order("created_at DESC")
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		tx = tx.Limit(filter.Limit).Offset((page - 1) * filter.Limit)
	}
	err = tx.Find(&list).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return list, nil
}

func (i impl) ListCount(filter Filter) (rowCount int64, err error) {
	err = i.applyFilter(i.db.Model(&dbmodels.Request{}), filter).
		Count(&rowCount).
		Error
	if err != nil {
		return 0, err
	}
	return rowCount, nil
}
