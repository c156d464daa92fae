package dbmodels

import "approval-flow-backend/models"

// ApprovalAction is one immutable ledger entry. The store exposes no
// update or delete for it; corrections are new entries.
type ApprovalAction struct {
	BaseModel
	RequestID string            `gorm:"type:varchar(36);index"`
	StageID   string            `gorm:"type:varchar(36);index"`
	ActorID   string            `gorm:"type:varchar(36)"`
	ActorRole models.UserRole   `gorm:"type:varchar(50)"` // role at time of action
	Action    models.ActionKind `gorm:"type:varchar(50)"`
	Comment   string
}
