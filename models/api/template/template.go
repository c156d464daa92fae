package templateapimodels

import (
	"github.com/pkg/errors"

	"approval-flow-backend/models"
	dbmodels "approval-flow-backend/models/db"
)

type TemplateStageData struct {
	Name         string            `json:"name"`
	Kind         models.StageKind  `json:"kind"`
	RequiredRole models.UserRole   `json:"required_role,omitempty"`
	OneOfRoles   []models.UserRole `json:"one_of_roles,omitempty"`
	Threshold    *float64          `json:"threshold,omitempty"`
	Departments  []string          `json:"departments,omitempty"`
}

func (t TemplateStageData) Validate() error {
	if t.Name == "" {
		return errors.New("stage name is required")
	}
	if t.RequiredRole != "" && !t.RequiredRole.IsKnown() {
		return errors.Errorf("unknown role %v", t.RequiredRole)
	}
	for _, role := range t.OneOfRoles {
		if !role.IsKnown() {
			return errors.Errorf("unknown role %v", role)
		}
	}
	return nil
}

type TemplateData struct {
	Name        string              `json:"name"`
	RequestType models.RequestType  `json:"request_type"`
	Description string              `json:"description"`
	Stages      []TemplateStageData `json:"stages"`
}

func (t TemplateData) Validate() error {
	if t.Name == "" {
		return errors.New("template name is required")
	}
	if err := t.RequestType.Validate(); err != nil {
		return err
	}
	if len(t.Stages) == 0 {
		return errors.New("template requires at least one stage")
	}
	for _, stage := range t.Stages {
		if err := stage.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type TemplateView struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	RequestType models.RequestType  `json:"request_type"`
	Description string              `json:"description"`
	Stages      []TemplateStageData `json:"stages"`
}

func TemplateConvert(rec dbmodels.StageTemplate) TemplateView {
	view := TemplateView{
		ID:          rec.ID,
		Name:        rec.Name,
		RequestType: rec.RequestType,
		Description: rec.Description,
		Stages:      []TemplateStageData{},
	}
	for _, stage := range rec.Stages {
		data := TemplateStageData{
			Name:         stage.Name,
			Kind:         stage.Kind,
			RequiredRole: stage.RequiredRole,
			Threshold:    stage.Threshold,
			Departments:  stage.Departments,
		}
		for _, role := range stage.OneOfRoles {
			data.OneOfRoles = append(data.OneOfRoles, models.UserRole(role))
		}
		view.Stages = append(view.Stages, data)
	}
	return view
}
