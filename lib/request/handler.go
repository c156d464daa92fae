package requesthandler

import (
	"bytes"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"approval-flow-backend/config"
	"approval-flow-backend/db"
	"approval-flow-backend/lib/access"
	"approval-flow-backend/lib/audit"
	auditstore "approval-flow-backend/lib/audit/store"
	pdfexport "approval-flow-backend/lib/export/pdf"
	xlsexport "approval-flow-backend/lib/export/xls"
	stagestore "approval-flow-backend/lib/flow/store"
	ledgerstore "approval-flow-backend/lib/ledger/store"
	requeststore "approval-flow-backend/lib/request/store"
	"approval-flow-backend/lib/sequence"
	templatestore "approval-flow-backend/lib/template/store"
	"approval-flow-backend/models"
	requestapimodels "approval-flow-backend/models/api/request"
	dbmodels "approval-flow-backend/models/db"
)

// Provider is the orchestrator: it creates requests with their full
// stage sequence in one unit, and serves reads through the access
// evaluator. Status transitions after creation belong to the flow
// handler.
type Provider interface {
	Create(principal models.Principal, data requestapimodels.RequestCreateData) (id string, err error)
	GetByID(id string, principal models.Principal) (view requestapimodels.RequestView, err error)
	List(principal models.Principal, filter requestapimodels.RequestFilter) (list []requestapimodels.RequestView, rowCount int64, err error)
	UpdateDraft(id string, principal models.Principal, data requestapimodels.RequestEditData) error
	History(id string, principal models.Principal) (view requestapimodels.HistoryView, err error)
	ExportRegistry(principal models.Principal, filter requestapimodels.RequestFilter) (buf *bytes.Buffer, err error)
	ApprovalSheet(id string, principal models.Principal) (pdfFile []byte, err error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{
		db:                 db.DB,
		sequence:           sequence.Instance,
		financeThreshold:   config.Conf.Approval.FinanceThreshold,
		executiveThreshold: config.Conf.Approval.ExecutiveThreshold,
	}
}

func NewHandlerWithDB(DB *gorm.DB, seq sequence.Provider, financeThreshold, executiveThreshold float64) Provider {
	return impl{
		db:                 DB,
		sequence:           seq,
		financeThreshold:   financeThreshold,
		executiveThreshold: executiveThreshold,
	}
}

type impl struct {
	db                 *gorm.DB
	sequence           sequence.Provider
	financeThreshold   float64
	executiveThreshold float64
}

// Create validates the payload, resolves the stage sequence (template
// clone or built-in rules), draws a sequence number and persists the
// request with all of its stages in one transaction. A failed
// transaction burns the drawn number; gaps are acceptable.
func (i impl) Create(principal models.Principal, data requestapimodels.RequestCreateData) (id string, err error) {
	logger := log.
		WithField("user_id", principal.ID).
		WithField("request_type", data.Type)
	if err := data.Validate(); err != nil {
		return "", models.ErrPreconditionFailed("%v", err)
	}
	stages, err := i.resolveStages(data)
	if err != nil {
		return "", err
	}
	seqNumber, err := i.sequence.Next(data.Type, time.Now())
	if err != nil {
		return "", err
	}
	rec := dbmodels.Request{
		SeqNumber:      seqNumber,
		Type:           data.Type,
		Title:          data.Title,
		Description:    data.Description,
		RequesterID:    principal.ID,
		Requester:      principal.Name,
		RequesterEmail: principal.Email,
		Department:     data.Department,
		Estimate:       data.Estimate,
		Currency:       data.Currency,
		Status:         models.RequestStatusDraft,
		Meta:           dbmodels.RequestMeta{Extra: data.Extra},
	}
	if data.TemplateID != "" {
		rec.TemplateID = &data.TemplateID
	}
	err = i.db.Transaction(func(tx *gorm.DB) error {
		reqID, err := requeststore.NewInstance(tx).Create(rec)
		if err != nil {
			return models.ErrStorage(err, "request create failed")
		}
		stgStore := stagestore.NewInstance(tx)
		for idx := range stages {
			stages[idx].RequestID = reqID
			stages[idx].OrderIdx = idx
			stages[idx].Status = models.StageStatusPending
			if len(stages[idx].Departments) == 0 && data.Department != "" {
				stages[idx].Departments = []string{data.Department}
			}
			if _, err := stgStore.Create(stages[idx]); err != nil {
				return models.ErrStorage(err, "stage create failed")
			}
		}
		audit.NewHandlerWithTx(tx).Log(models.AuditEntityRequest, reqID,
			models.AuditActionCreated,
			fmt.Sprintf("request %v created with %v stages", seqNumber, len(stages)), principal)
		id = reqID
		return nil
	})
	if err != nil {
		return "", err
	}
	logger.WithField("seq_number", seqNumber).Info("request created")
	return id, nil
}

// resolveStages produces the stage prototypes: a verbatim clone of the
// named template, or the built-in rules of the type.
func (i impl) resolveStages(data requestapimodels.RequestCreateData) ([]dbmodels.ApprovalStage, error) {
	if data.TemplateID != "" {
		tpl, err := templatestore.NewInstance(i.db).GetByID(data.TemplateID)
		if err != nil {
			return nil, models.ErrStorage(err, "template lookup failed")
		}
		if tpl == nil {
			return nil, models.ErrNotFound("template %v not found", data.TemplateID)
		}
		if tpl.RequestType != data.Type {
			return nil, models.ErrPreconditionFailed("template %q is for type %v, not %v", tpl.Name, tpl.RequestType, data.Type)
		}
		if len(tpl.Stages) == 0 {
			return nil, models.ErrPreconditionFailed("template %q has no stages", tpl.Name)
		}
		stages := make([]dbmodels.ApprovalStage, 0, len(tpl.Stages))
		for _, src := range tpl.Stages {
			stages = append(stages, dbmodels.ApprovalStage{
				Name:         src.Name,
				Kind:         src.Kind,
				RequiredRole: src.RequiredRole,
				OneOfRoles:   src.OneOfRoles,
				Threshold:    src.Threshold,
				Departments:  src.Departments,
			})
		}
		return stages, nil
	}
	stages := builtinStages(data.Type, data.Estimate, i.financeThreshold, i.executiveThreshold)
	if len(stages) == 0 {
		return nil, models.ErrPreconditionFailed("no built-in stage rules for type %v, a template is required", data.Type)
	}
	return stages, nil
}

func (i impl) getVisible(id string, principal models.Principal) (*dbmodels.Request, error) {
	rec, err := requeststore.NewInstance(i.db).GetByID(id)
	if err != nil {
		return nil, models.ErrStorage(err, "request lookup failed")
	}
	if rec == nil {
		return nil, models.ErrNotFound("request %v not found", id)
	}
	ok, reason := access.CanView(*rec, rec.Stages, principal)
	if !ok {
		return nil, models.ErrUnauthorized("%s", reason)
	}
	return rec, nil
}

func (i impl) GetByID(id string, principal models.Principal) (requestapimodels.RequestView, error) {
	rec, err := i.getVisible(id, principal)
	if err != nil {
		return requestapimodels.RequestView{}, err
	}
	return requestapimodels.RequestConvert(*rec), nil
}

// List pages over the filter, then drops records the principal may not
// see. The row count is the filter total before the access check.
func (i impl) List(principal models.Principal, filter requestapimodels.RequestFilter) ([]requestapimodels.RequestView, int64, error) {
	page, limit := filter.GetPage()
	store := requeststore.NewInstance(i.db)
	storeFilter := requeststore.Filter{
		Type:   filter.Type,
		Status: filter.Status,
		Page:   page,
		Limit:  limit,
	}
	recs, err := store.List(storeFilter)
	if err != nil {
		return nil, 0, models.ErrStorage(err, "request list failed")
	}
	rowCount, err := store.ListCount(storeFilter)
	if err != nil {
		return nil, 0, models.ErrStorage(err, "request count failed")
	}
	list := []requestapimodels.RequestView{}
	for _, rec := range recs {
		if ok, _ := access.CanView(rec, rec.Stages, principal); ok {
			list = append(list, requestapimodels.RequestConvert(rec))
		}
	}
	return list, rowCount, nil
}

func (i impl) UpdateDraft(id string, principal models.Principal, data requestapimodels.RequestEditData) error {
	logger := log.
		WithField("request_id", id).
		WithField("user_id", principal.ID)
	if err := data.Validate(); err != nil {
		return models.ErrPreconditionFailed("%v", err)
	}
	rec, err := requeststore.NewInstance(i.db).GetByID(id)
	if err != nil {
		return models.ErrStorage(err, "request lookup failed")
	}
	if rec == nil {
		return models.ErrNotFound("request %v not found", id)
	}
	if principal.ID != rec.RequesterID && !principal.Role.IsAdmin() {
		return models.ErrUnauthorized("only the requester or an administrator may edit")
	}
	if rec.Status != models.RequestStatusDraft {
		return models.ErrInvalidState("request is %v, only a draft can be edited", rec.Status)
	}
	meta := rec.Meta
	meta.Extra = data.Extra
	err = i.db.Transaction(func(tx *gorm.DB) error {
		ok, err := requeststore.NewInstance(tx).UpdateStatusIf(id,
			[]models.RequestStatus{models.RequestStatusDraft},
			map[string]interface{}{
				"title":       data.Title,
				"description": data.Description,
				"estimate":    data.Estimate,
				"currency":    data.Currency,
				"meta":        meta,
			})
		if err != nil {
			return models.ErrStorage(err, "request update failed")
		}
		if !ok {
			return models.ErrInvalidState("request is no longer a draft")
		}
		audit.NewHandlerWithTx(tx).Log(models.AuditEntityRequest, id,
			models.AuditActionUpdated,
			fmt.Sprintf("request %v updated", rec.SeqNumber), principal)
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("draft updated")
	return nil
}

// History is the combined trail of one request: the decision ledger in
// chronological order plus the audit entries of the request and its
// stages. Gated by the same access rule as GetByID.
func (i impl) History(id string, principal models.Principal) (requestapimodels.HistoryView, error) {
	rec, err := i.getVisible(id, principal)
	if err != nil {
		return requestapimodels.HistoryView{}, err
	}
	actions, err := ledgerstore.NewInstance(i.db).ListByRequest(id)
	if err != nil {
		return requestapimodels.HistoryView{}, models.ErrStorage(err, "ledger read failed")
	}
	entityIDs := []string{id}
	for _, stage := range rec.Stages {
		entityIDs = append(entityIDs, stage.ID)
	}
	entries, err := auditstore.NewInstance(i.db).List(auditstore.Filter{EntityIDs: entityIDs})
	if err != nil {
		return requestapimodels.HistoryView{}, models.ErrStorage(err, "audit read failed")
	}
	view := requestapimodels.HistoryView{
		Actions: []requestapimodels.ActionView{},
		Audit:   []requestapimodels.AuditEntryView{},
	}
	for _, action := range actions {
		view.Actions = append(view.Actions, requestapimodels.ActionConvert(action))
	}
	for _, entry := range entries {
		view.Audit = append(view.Audit, requestapimodels.AuditEntryConvert(entry))
	}
	return view, nil
}

// ExportRegistry builds the xlsx registry of every request matching
// the filter that the principal may see. Unpaged on purpose: a
// registry export is the whole picture.
func (i impl) ExportRegistry(principal models.Principal, filter requestapimodels.RequestFilter) (*bytes.Buffer, error) {
	recs, err := requeststore.NewInstance(i.db).List(requeststore.Filter{
		Type:   filter.Type,
		Status: filter.Status,
	})
	if err != nil {
		return nil, models.ErrStorage(err, "request list failed")
	}
	visible := []dbmodels.Request{}
	for _, rec := range recs {
		if ok, _ := access.CanView(rec, rec.Stages, principal); ok {
			visible = append(visible, rec)
		}
	}
	buf, err := xlsexport.Instance.ExportRequestRegistry(visible)
	if err != nil {
		return nil, err
	}
	log.
		WithField("user_id", principal.ID).
		WithField("row_count", len(visible)).
		Info("request registry exported")
	return buf, nil
}

// ApprovalSheet renders the printable pdf sheet of one request with
// its recorded decisions.
func (i impl) ApprovalSheet(id string, principal models.Principal) ([]byte, error) {
	rec, err := i.getVisible(id, principal)
	if err != nil {
		return nil, err
	}
	actions, err := ledgerstore.NewInstance(i.db).ListByRequest(id)
	if err != nil {
		return nil, models.ErrStorage(err, "ledger read failed")
	}
	return pdfexport.GenerateApprovalSheet(*rec, actions)
}
