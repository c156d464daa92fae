package auditstore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"approval-flow-backend/models"
	dbmodels "approval-flow-backend/models/db"
)

type Filter struct {
	EntityType models.AuditEntityType
	EntityID   string
	EntityIDs  []string // alternative to EntityID, e.g. a request plus its stages
	Limit      int
	Offset     int
}

// Provider is write-mostly: the engine appends, external reporting
// reads.
type Provider interface {
	Create(rec dbmodels.AuditEntry) (id string, err error)
	List(filter Filter) (list []dbmodels.AuditEntry, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.AuditEntry) (id string, err error) {
	err = i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) List(filter Filter) (list []dbmodels.AuditEntry, err error) {
	list = []dbmodels.AuditEntry{}
	tx := i.db.Model(&dbmodels.AuditEntry{})
	if filter.EntityType != "" {
		tx = tx.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		tx = tx.Where("entity_id = ?", filter.EntityID)
	}
	if len(filter.EntityIDs) > 0 {
		tx = tx.Where("entity_id IN ?", filter.EntityIDs)
	}
	if filter.Limit > 0 {
		tx = tx.Limit(filter.Limit).Offset(filter.Offset)
	}
	err = tx.Order("created_at DESC").Find(&list).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return list, nil
}
