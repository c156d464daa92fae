package attachmentstore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	dbmodels "approval-flow-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.FileAttachment) (id string, err error)
	GetByID(id string) (rec *dbmodels.FileAttachment, err error)
	ListByRequest(requestID string) (list []dbmodels.FileAttachment, err error)
	ExistsForStageActor(stageID, actorID string) (exists bool, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.FileAttachment) (id string, err error) {
	err = i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.FileAttachment, error) {
	rec := dbmodels.FileAttachment{}
	err := i.db.
		Where("id = ?", id).
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

func (i impl) ListByRequest(requestID string) (list []dbmodels.FileAttachment, err error) {
	list = []dbmodels.FileAttachment{}
	err = i.db.
		Where("request_id = ?", requestID).
		Order("created_at ASC").
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

// ExistsForStageActor answers the signature precondition: has this
// actor attached at least one supporting file to this stage.
func (i impl) ExistsForStageActor(stageID, actorID string) (bool, error) {
	var count int64
	err := i.db.
		Model(&dbmodels.FileAttachment{}).
		Where("stage_id = ?", stageID).
		Where("actor_id = ?", actorID).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
