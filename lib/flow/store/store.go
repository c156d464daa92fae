package stagestore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"approval-flow-backend/models"
	dbmodels "approval-flow-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.ApprovalStage) (id string, err error)
	GetByID(id string) (rec *dbmodels.ApprovalStage, err error)
	ListByRequest(requestID string) (list []dbmodels.ApprovalStage, err error)
	FirstPending(requestID string) (rec *dbmodels.ApprovalStage, err error)
	NextPending(requestID string, afterOrderIdx int) (rec *dbmodels.ApprovalStage, err error)
	UpdateStatusIf(id string, from models.StageStatus, updMap map[string]interface{}) (updated bool, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.ApprovalStage) (id string, err error) {
	err = i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.ApprovalStage, error) {
	rec := dbmodels.ApprovalStage{}
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

func (i impl) ListByRequest(requestID string) (list []dbmodels.ApprovalStage, err error) {
	list = []dbmodels.ApprovalStage{}
	err = i.db.
		Where("request_id = ?", requestID).
		Order("order_idx ASC").
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

func (i impl) FirstPending(requestID string) (*dbmodels.ApprovalStage, error) {
	return i.nextPendingAfter(requestID, -1)
}

// NextPending returns the lowest-order pending stage above the index,
// or nil when the routing sequence is exhausted.
func (i impl) NextPending(requestID string, afterOrderIdx int) (*dbmodels.ApprovalStage, error) {
	return i.nextPendingAfter(requestID, afterOrderIdx)
}

func (i impl) nextPendingAfter(requestID string, orderIdx int) (*dbmodels.ApprovalStage, error) {
	rec := dbmodels.ApprovalStage{}
	err := i.db.
		Where("request_id = ?", requestID).
		Where("status = ?", models.StageStatusPending).
		Where("order_idx > ?", orderIdx).
		Order("order_idx ASC").
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

// UpdateStatusIf is the optimistic check-and-set behind every stage
// transition: the update applies only while the stage still has the
// expected status, so of two concurrent approvals exactly one wins.
func (i impl) UpdateStatusIf(id string, from models.StageStatus, updMap map[string]interface{}) (bool, error) {
	tx := i.db.
		Model(&dbmodels.ApprovalStage{}).
		Where("id = ?", id).
		Where("status = ?", from).
		Updates(updMap)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
