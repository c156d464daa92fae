package ledgerstore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	dbmodels "approval-flow-backend/models/db"
)

// Provider is the append-only ledger of approval actions. There is no
// update and no delete: corrections are recorded as further entries.
// Authorization is the caller's job; the ledger records what it is
// given.
type Provider interface {
	Create(rec dbmodels.ApprovalAction) (id string, err error)
	ListByRequest(requestID string) (list []dbmodels.ApprovalAction, err error)
	ListByStage(stageID string) (list []dbmodels.ApprovalAction, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.ApprovalAction) (id string, err error) {
	err = i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) ListByRequest(requestID string) (list []dbmodels.ApprovalAction, err error) {
	list = []dbmodels.ApprovalAction{}
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

func (i impl) ListByStage(stageID string) (list []dbmodels.ApprovalAction, err error) {
	list = []dbmodels.ApprovalAction{}
	err = i.db.
		Where("stage_id = ?", stageID).
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
