package templatehandler

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"approval-flow-backend/db"
	"approval-flow-backend/lib/audit"
	templatestore "approval-flow-backend/lib/template/store"
	"approval-flow-backend/models"
	templateapimodels "approval-flow-backend/models/api/template"
	dbmodels "approval-flow-backend/models/db"
)

type Provider interface {
	Create(principal models.Principal, data templateapimodels.TemplateData) (id string, err error)
	GetByID(id string) (view templateapimodels.TemplateView, err error)
	List() (list []templateapimodels.TemplateView, err error)
	Delete(id string, principal models.Principal) error
}

var Instance Provider

func NewHandler() {
	Instance = impl{db: db.DB}
}

func NewHandlerWithDB(DB *gorm.DB) Provider {
	return impl{db: DB}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(principal models.Principal, data templateapimodels.TemplateData) (id string, err error) {
	if err := data.Validate(); err != nil {
		return "", models.ErrPreconditionFailed("%v", err)
	}
	rec := dbmodels.StageTemplate{
		Name:        data.Name,
		RequestType: data.RequestType,
		Description: data.Description,
	}
	for idx, src := range data.Stages {
		stage := dbmodels.TemplateStage{
			OrderIdx:     idx,
			Name:         src.Name,
			Kind:         src.Kind,
			RequiredRole: src.RequiredRole,
			Threshold:    src.Threshold,
			Departments:  src.Departments,
		}
		for _, role := range src.OneOfRoles {
			stage.OneOfRoles = append(stage.OneOfRoles, string(role))
		}
		rec.Stages = append(rec.Stages, stage)
	}
	err = i.db.Transaction(func(tx *gorm.DB) error {
		tplID, err := templatestore.NewInstance(tx).Create(rec)
		if err != nil {
			return models.ErrStorage(err, "template create failed")
		}
		audit.NewHandlerWithTx(tx).Log(models.AuditEntityTemplate, tplID,
			models.AuditActionCreated,
			fmt.Sprintf("template %q created with %v stages", data.Name, len(data.Stages)), principal)
		id = tplID
		return nil
	})
	if err != nil {
		return "", err
	}
	log.
		WithField("template_id", id).
		WithField("user_id", principal.ID).
		Info("template created")
	return id, nil
}

func (i impl) GetByID(id string) (templateapimodels.TemplateView, error) {
	rec, err := templatestore.NewInstance(i.db).GetByID(id)
	if err != nil {
		return templateapimodels.TemplateView{}, models.ErrStorage(err, "template lookup failed")
	}
	if rec == nil {
		return templateapimodels.TemplateView{}, models.ErrNotFound("template %v not found", id)
	}
	return templateapimodels.TemplateConvert(*rec), nil
}

func (i impl) List() ([]templateapimodels.TemplateView, error) {
	recs, err := templatestore.NewInstance(i.db).List()
	if err != nil {
		return nil, models.ErrStorage(err, "template list failed")
	}
	list := []templateapimodels.TemplateView{}
	for _, rec := range recs {
		list = append(list, templateapimodels.TemplateConvert(rec))
	}
	return list, nil
}

// Delete removes a template; requests already cloned from it keep
// their stages.
func (i impl) Delete(id string, principal models.Principal) error {
	rec, err := templatestore.NewInstance(i.db).GetByID(id)
	if err != nil {
		return models.ErrStorage(err, "template lookup failed")
	}
	if rec == nil {
		return models.ErrNotFound("template %v not found", id)
	}
	err = i.db.Transaction(func(tx *gorm.DB) error {
		if err := templatestore.NewInstance(tx).Delete(id); err != nil {
			return models.ErrStorage(err, "template delete failed")
		}
		audit.NewHandlerWithTx(tx).Log(models.AuditEntityTemplate, id,
			models.AuditActionDeleted,
			fmt.Sprintf("template %q deleted", rec.Name), principal)
		return nil
	})
	if err != nil {
		return err
	}
	log.
		WithField("template_id", id).
		WithField("user_id", principal.ID).
		Info("template deleted")
	return nil
}
