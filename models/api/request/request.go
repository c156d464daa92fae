package requestapimodels

import (
	"time"

	"github.com/pkg/errors"

	"approval-flow-backend/models"
	apimodels "approval-flow-backend/models/api"
	dbmodels "approval-flow-backend/models/db"
)

type RequestCreateData struct {
	Type        models.RequestType `json:"type"`                  // request type (MAF, PR)
	Title       string             `json:"title"`                 // short subject line
	Description string             `json:"description"`           // free-form details
	Department  string             `json:"department"`            // requester's department
	Estimate    *float64           `json:"estimate,omitempty"`    // monetary estimate
	Currency    string             `json:"currency,omitempty"`    // estimate currency code
	TemplateID  string             `json:"template_id,omitempty"` // stage template to clone; empty = built-in rules
	Extra       map[string]string  `json:"extra,omitempty"`       // extra attributes kept as-is
}

func (r RequestCreateData) Validate() error {
	if err := r.Type.Validate(); err != nil {
		return err
	}
	if r.Title == "" {
		return errors.New("title is required")
	}
	if r.Estimate != nil && *r.Estimate < 0 {
		return errors.New("estimate can not be negative")
	}
	return nil
}

type RequestEditData struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Estimate    *float64          `json:"estimate,omitempty"`
	Currency    string            `json:"currency,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

func (r RequestEditData) Validate() error {
	if r.Title == "" {
		return errors.New("title is required")
	}
	if r.Estimate != nil && *r.Estimate < 0 {
		return errors.New("estimate can not be negative")
	}
	return nil
}

type StageActionData struct {
	Comment string `json:"comment"` // mandatory for reject, optional for approve
}

type DiscontinueData struct {
	Reason string `json:"reason"`
}

type RequestFilter struct {
	apimodels.Pagination
	Type   models.RequestType   `json:"type,omitempty"`
	Status models.RequestStatus `json:"status,omitempty"`
}

type StageView struct {
	ID           string             `json:"id"`
	OrderIdx     int                `json:"order_idx"`
	Name         string             `json:"name"`
	Kind         models.StageKind   `json:"kind"`
	RequiredRole models.UserRole    `json:"required_role,omitempty"`
	OneOfRoles   []models.UserRole  `json:"one_of_roles,omitempty"`
	Threshold    *float64           `json:"threshold,omitempty"`
	Departments  []string           `json:"departments,omitempty"`
	Status       models.StageStatus `json:"status"`
	StatusName   string             `json:"status_name"`
	StartedAt    *time.Time         `json:"started_at,omitempty"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
}

type RequestView struct {
	ID           string               `json:"id"`
	SeqNumber    string               `json:"seq_number"`
	Type         models.RequestType   `json:"type"`
	TypeName     string               `json:"type_name"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	RequesterID  string               `json:"requester_id"`
	Requester    string               `json:"requester"`
	Department   string               `json:"department"`
	Estimate     *float64             `json:"estimate,omitempty"`
	Currency     string               `json:"currency,omitempty"`
	Status       models.RequestStatus `json:"status"`
	StatusName   string               `json:"status_name"`
	TemplateID   string               `json:"template_id,omitempty"`
	CreationDate time.Time            `json:"creation_date"`
	SubmittedAt  *time.Time           `json:"submitted_at,omitempty"`
	CompletedAt  *time.Time           `json:"completed_at,omitempty"`
	Extra        map[string]string    `json:"extra,omitempty"`
	Stages       []StageView          `json:"stages"`
	CurrentStage int                  `json:"current_stage"` // order index of the stage in progress, -1 if none
}

func StageConvert(rec dbmodels.ApprovalStage) StageView {
	view := StageView{
		ID:           rec.ID,
		OrderIdx:     rec.OrderIdx,
		Name:         rec.Name,
		Kind:         rec.Kind,
		RequiredRole: rec.RequiredRole,
		Threshold:    rec.Threshold,
		Departments:  rec.Departments,
		Status:       rec.Status,
		StatusName:   rec.Status.ToHuman(),
		StartedAt:    rec.StartedAt,
		CompletedAt:  rec.CompletedAt,
	}
	for _, role := range rec.OneOfRoles {
		view.OneOfRoles = append(view.OneOfRoles, models.UserRole(role))
	}
	return view
}

func RequestConvert(rec dbmodels.Request) RequestView {
	view := RequestView{
		ID:           rec.ID,
		SeqNumber:    rec.SeqNumber,
		Type:         rec.Type,
		TypeName:     rec.Type.ToHuman(),
		Title:        rec.Title,
		Description:  rec.Description,
		RequesterID:  rec.RequesterID,
		Requester:    rec.Requester,
		Department:   rec.Department,
		Estimate:     rec.Estimate,
		Currency:     rec.Currency,
		Status:       rec.Status,
		StatusName:   rec.Status.ToHuman(),
		CreationDate: rec.CreatedAt,
		SubmittedAt:  rec.SubmittedAt,
		CompletedAt:  rec.CompletedAt,
		Extra:        rec.Meta.Extra,
		Stages:       []StageView{},
		CurrentStage: -1,
	}
	if rec.TemplateID != nil {
		view.TemplateID = *rec.TemplateID
	}
	for _, stage := range rec.OrderedStages() {
		view.Stages = append(view.Stages, StageConvert(stage))
		if stage.Status == models.StageStatusInProgress {
			view.CurrentStage = stage.OrderIdx
		}
	}
	return view
}

type ActionView struct {
	ID        string            `json:"id"`
	StageID   string            `json:"stage_id"`
	ActorID   string            `json:"actor_id"`
	ActorRole models.UserRole   `json:"actor_role"`
	Action    models.ActionKind `json:"action"`
	Comment   string            `json:"comment,omitempty"`
	Date      time.Time         `json:"date"`
}

func ActionConvert(rec dbmodels.ApprovalAction) ActionView {
	return ActionView{
		ID:        rec.ID,
		StageID:   rec.StageID,
		ActorID:   rec.ActorID,
		ActorRole: rec.ActorRole,
		Action:    rec.Action,
		Comment:   rec.Comment,
		Date:      rec.CreatedAt,
	}
}

// HistoryView is the combined trail of one request: the decision ledger
// plus the audit log entries that reference it.
type HistoryView struct {
	Actions []ActionView     `json:"actions"`
	Audit   []AuditEntryView `json:"audit"`
}

type AuditEntryView struct {
	ID          string             `json:"id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	ActorID     string             `json:"actor_id"`
	ActorName   string             `json:"actor_name,omitempty"`
	ActorRole   models.UserRole    `json:"actor_role,omitempty"`
	Date        time.Time          `json:"date"`
}

func AuditEntryConvert(rec dbmodels.AuditEntry) AuditEntryView {
	return AuditEntryView{
		ID:          rec.ID,
		Action:      rec.Action,
		Description: rec.Description,
		ActorID:     rec.ActorID,
		ActorName:   rec.ActorName,
		ActorRole:   rec.ActorRole,
		Date:        rec.CreatedAt,
	}
}
