package dbmodels

import (
	"time"

	"approval-flow-backend/models"

	"github.com/lib/pq"
)

// ApprovalStage is one step of a request's routing sequence. Stages are
// created all at once when the request is created and never afterwards;
// order indices are gap-free and ascending within one request.
type ApprovalStage struct {
	BaseModel
	RequestID    string              `gorm:"type:varchar(36);index;index:idx_request_order,unique"`
	OrderIdx     int                 `gorm:"index:idx_request_order,unique"`
	Name         string              `gorm:"type:varchar(255)"`
	Kind         models.StageKind    `gorm:"type:varchar(50)"`
	RequiredRole models.UserRole     `gorm:"type:varchar(50)"` // empty: no single-role requirement
	OneOfRoles   pq.StringArray      `gorm:"type:text"`        // alternation, e.g. CEO or COO
	Threshold    *float64            // monetary approval threshold, informational
	Departments  pq.StringArray      `gorm:"type:text"` // visibility allow-list; empty = opt-in only
	Status       models.StageStatus  `gorm:"type:varchar(50);index"`
	StartedAt    *time.Time
	CompletedAt  *time.Time
	Meta         StageMeta `gorm:"type:jsonb"`
}

// AuthRule assembles the stage's authorization rule for the single
// evaluator shared by Approve and Reject.
func (s ApprovalStage) AuthRule() models.StageAuthRule {
	rule := models.StageAuthRule{RequiredRole: s.RequiredRole}
	for _, role := range s.OneOfRoles {
		rule.OneOf = append(rule.OneOf, models.UserRole(role))
	}
	return rule
}

// VisibleToDepartment reports whether the allow-list names the
// department. An empty list is a closed world: visible to nobody
// outside the privileged/requester rules.
func (s ApprovalStage) VisibleToDepartment(department string) bool {
	for _, d := range s.Departments {
		if d == department {
			return true
		}
	}
	return false
}
