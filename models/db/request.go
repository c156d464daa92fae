package dbmodels

import (
	"sort"
	"time"

	"approval-flow-backend/models"
)

// Request is one instance of an approval process routed through an
// ordered stage sequence. The sequence number is assigned at creation
// and never changes.
type Request struct {
	BaseModel
	SeqNumber   string             `gorm:"type:varchar(50);uniqueIndex"`
	Type        models.RequestType `gorm:"type:varchar(50);index"`
	Title       string             `gorm:"type:varchar(255)"`
	Description string
	RequesterID    string `gorm:"type:varchar(36);index"`
	Requester      string `gorm:"type:varchar(255)"` // display name snapshot
	RequesterEmail string `gorm:"type:varchar(255)"`
	Department  string `gorm:"type:varchar(100)"`
	Estimate    *float64
	Currency    string               `gorm:"type:varchar(10)"`
	Status      models.RequestStatus `gorm:"type:varchar(50);index"`
	TemplateID  *string              `gorm:"type:varchar(36)"`
	SubmittedAt *time.Time
	CompletedAt *time.Time
	Meta        RequestMeta     `gorm:"type:jsonb"`
	Stages      []ApprovalStage `gorm:"foreignKey:RequestID"`
}

// CurrentStage returns the stage currently in progress, or nil.
func (r *Request) CurrentStage() *ApprovalStage {
	for idx := range r.Stages {
		if r.Stages[idx].Status == models.StageStatusInProgress {
			return &r.Stages[idx]
		}
	}
	return nil
}

// OrderedStages returns the stages sorted by order index.
func (r *Request) OrderedStages() []ApprovalStage {
	stages := make([]ApprovalStage, len(r.Stages))
	copy(stages, r.Stages)
	sort.Slice(stages, func(a, b int) bool {
		return stages[a].OrderIdx < stages[b].OrderIdx
	})
	return stages
}
