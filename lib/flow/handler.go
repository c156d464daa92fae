package flow

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	attachmentstore "approval-flow-backend/lib/attachment/store"
	"approval-flow-backend/lib/audit"
	stagestore "approval-flow-backend/lib/flow/store"
	ledgerstore "approval-flow-backend/lib/ledger/store"
	"approval-flow-backend/lib/notify"
	requeststore "approval-flow-backend/lib/request/store"
	connectionhub "approval-flow-backend/lib/ws/hub/connection-hub"
	"approval-flow-backend/models"
	dbmodels "approval-flow-backend/models/db"
	wsmodels "approval-flow-backend/models/ws"

	"approval-flow-backend/db"
)

// Provider is the stage router: it owns every stage and request status
// transition after submission. Each operation is one bounded storage
// transaction; the ledger append and the status changes of one command
// commit together or not at all.
type Provider interface {
	Submit(requestID string, principal models.Principal) error
	Approve(stageID string, principal models.Principal, comment string) error
	Reject(stageID string, principal models.Principal, comment string) error
	Comment(stageID string, principal models.Principal, comment string) error
	Discontinue(requestID string, principal models.Principal, reason string) error
	Cancel(requestID string, principal models.Principal) error
	Archive(requestID string, principal models.Principal) error
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

func (i impl) getRequest(tx *gorm.DB, requestID string) (*dbmodels.Request, error) {
	rec, err := requeststore.NewInstance(tx).GetByID(requestID)
	if err != nil {
		return nil, models.ErrStorage(err, "request lookup failed")
	}
	if rec == nil {
		return nil, models.ErrNotFound("request %v not found", requestID)
	}
	return rec, nil
}

func (i impl) Submit(requestID string, principal models.Principal) error {
	logger := log.
		WithField("request_id", requestID).
		WithField("user_id", principal.ID)
	rec, err := i.getRequest(i.db, requestID)
	if err != nil {
		return err
	}
	if principal.ID != rec.RequesterID && !principal.Role.IsAdmin() {
		return models.ErrUnauthorized("only the requester or an administrator may submit")
	}
	if !rec.Status.AllowSubmit() {
		return models.ErrInvalidState("request is %v, only a draft can be submitted", rec.Status)
	}
	now := time.Now()
	err = i.db.Transaction(func(tx *gorm.DB) error {
		reqStore := requeststore.NewInstance(tx)
		stgStore := stagestore.NewInstance(tx)
		ok, err := reqStore.UpdateStatusIf(requestID,
			[]models.RequestStatus{models.RequestStatusDraft},
			map[string]interface{}{
				"status":       models.RequestStatusInProgress,
				"submitted_at": &now,
			})
		if err != nil {
			return models.ErrStorage(err, "submit failed")
		}
		if !ok {
			return models.ErrInvalidState("request is no longer a draft")
		}
		first, err := stgStore.FirstPending(requestID)
		if err != nil {
			return models.ErrStorage(err, "stage lookup failed")
		}
		if first == nil {
			return models.ErrInvalidState("request has no stages to route")
		}
		ok, err = stgStore.UpdateStatusIf(first.ID, models.StageStatusPending,
			map[string]interface{}{
				"status":     models.StageStatusInProgress,
				"started_at": &now,
			})
		if err != nil {
			return models.ErrStorage(err, "stage activation failed")
		}
		if !ok {
			return models.ErrConflict("concurrent stage transition detected")
		}
		audit.NewHandlerWithTx(tx).Log(models.AuditEntityRequest, requestID,
			models.AuditActionSubmitted,
			fmt.Sprintf("request %v submitted for approval", rec.SeqNumber), principal)
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("request submitted")
	i.notifyRequester(rec, "Request submitted",
		fmt.Sprintf("Request %v has been submitted and is awaiting approval.", rec.SeqNumber))
	return nil
}

// checkStageAction validates everything Approve and Reject share: the
// stage exists and is in progress, the request is live, and the actor
// satisfies the stage's authorization rule.
func (i impl) checkStageAction(stageID string, principal models.Principal) (stage *dbmodels.ApprovalStage, rec *dbmodels.Request, err error) {
	stage, err = stagestore.NewInstance(i.db).GetByID(stageID)
	if err != nil {
		return nil, nil, models.ErrStorage(err, "stage lookup failed")
	}
	if stage == nil {
		return nil, nil, models.ErrNotFound("stage %v not found", stageID)
	}
	rec, err = i.getRequest(i.db, stage.RequestID)
	if err != nil {
		return nil, nil, err
	}
	if !rec.Status.AllowStageAction() {
		return nil, nil, models.ErrInvalidState("request is %v, stage actions are not permitted", rec.Status)
	}
	if stage.Status != models.StageStatusInProgress {
		return nil, nil, models.ErrInvalidState("stage %q is not in progress", stage.Name)
	}
	if !stage.AuthRule().Allows(principal.Role) {
		return nil, nil, models.ErrUnauthorized("role %v may not act on stage %q", principal.Role, stage.Name)
	}
	return stage, rec, nil
}

func (i impl) Approve(stageID string, principal models.Principal, comment string) error {
	logger := log.
		WithField("stage_id", stageID).
		WithField("user_id", principal.ID)
	stage, rec, err := i.checkStageAction(stageID, principal)
	if err != nil {
		return err
	}
	if !principal.Role.IsSignatureExempt() {
		has, err := attachmentstore.NewInstance(i.db).ExistsForStageActor(stage.ID, principal.ID)
		if err != nil {
			return models.ErrStorage(err, "attachment lookup failed")
		}
		if !has {
			return models.ErrPreconditionFailed("upload required before approval")
		}
	}
	now := time.Now()
	requestCompleted := false
	err = i.db.Transaction(func(tx *gorm.DB) error {
		reqStore := requeststore.NewInstance(tx)
		stgStore := stagestore.NewInstance(tx)
		// the losing half of a concurrent double-approve stops here
		ok, err := stgStore.UpdateStatusIf(stage.ID, models.StageStatusInProgress,
			map[string]interface{}{
				"status":       models.StageStatusCompleted,
				"completed_at": &now,
			})
		if err != nil {
			return models.ErrStorage(err, "stage completion failed")
		}
		if !ok {
			return models.ErrInvalidState("stage %q is not in progress", stage.Name)
		}
		_, err = ledgerstore.NewInstance(tx).Create(dbmodels.ApprovalAction{
			RequestID: stage.RequestID,
			StageID:   stage.ID,
			ActorID:   principal.ID,
			ActorRole: principal.Role,
			Action:    models.ActionApproved,
			Comment:   comment,
		})
		if err != nil {
			return models.ErrStorage(err, "ledger append failed")
		}
		next, err := stgStore.NextPending(stage.RequestID, stage.OrderIdx)
		if err != nil {
			return models.ErrStorage(err, "next stage lookup failed")
		}
		if next == nil {
			ok, err = reqStore.UpdateStatusIf(stage.RequestID,
				[]models.RequestStatus{models.RequestStatusInProgress},
				map[string]interface{}{
					"status":       models.RequestStatusCompleted,
					"completed_at": &now,
				})
			if err != nil {
				return models.ErrStorage(err, "request completion failed")
			}
			if !ok {
				return models.ErrConflict("concurrent request transition detected")
			}
			requestCompleted = true
		} else {
			ok, err = stgStore.UpdateStatusIf(next.ID, models.StageStatusPending,
				map[string]interface{}{
					"status":     models.StageStatusInProgress,
					"started_at": &now,
				})
			if err != nil {
				return models.ErrStorage(err, "stage activation failed")
			}
			if !ok {
				return models.ErrConflict("concurrent stage transition detected")
			}
		}
		audit.NewHandlerWithTx(tx).Log(models.AuditEntityStage, stage.ID,
			models.AuditActionApproved,
			fmt.Sprintf("stage %q of request %v approved", stage.Name, rec.SeqNumber), principal)
		return nil
	})
	if err != nil {
		return err
	}
	logger.WithField("stage", stage.Name).Info("stage approved")
	if requestCompleted {
		i.notifyRequester(rec, "Request completed",
			fmt.Sprintf("Request %v has passed all approval stages.", rec.SeqNumber))
	} else {
		i.notifyRequester(rec, "Stage approved",
			fmt.Sprintf("Stage %q of request %v was approved.", stage.Name, rec.SeqNumber))
	}
	return nil
}

func (i impl) Reject(stageID string, principal models.Principal, comment string) error {
	logger := log.
		WithField("stage_id", stageID).
		WithField("user_id", principal.ID)
	if comment == "" {
		return models.ErrPreconditionFailed("a comment is required to reject")
	}
	stage, rec, err := i.checkStageAction(stageID, principal)
	if err != nil {
		return err
	}
	now := time.Now()
	err = i.db.Transaction(func(tx *gorm.DB) error {
		reqStore := requeststore.NewInstance(tx)
		stgStore := stagestore.NewInstance(tx)
		ok, err := stgStore.UpdateStatusIf(stage.ID, models.StageStatusInProgress,
			map[string]interface{}{
				"status":       models.StageStatusRejected,
				"completed_at": &now,
			})
		if err != nil {
			return models.ErrStorage(err, "stage rejection failed")
		}
		if !ok {
			return models.ErrInvalidState("stage %q is not in progress", stage.Name)
		}
		_, err = ledgerstore.NewInstance(tx).Create(dbmodels.ApprovalAction{
			RequestID: stage.RequestID,
			StageID:   stage.ID,
			ActorID:   principal.ID,
			ActorRole: principal.Role,
			Action:    models.ActionRejected,
			Comment:   comment,
		})
		if err != nil {
			return models.ErrStorage(err, "ledger append failed")
		}
		// short-circuit: the whole request is rejected, stages after
		// this one stay pending as "never reached"
		ok, err = reqStore.UpdateStatusIf(stage.RequestID,
			[]models.RequestStatus{models.RequestStatusInProgress},
			map[string]interface{}{
				"status":       models.RequestStatusRejected,
				"completed_at": &now,
			})
		if err != nil {
			return models.ErrStorage(err, "request rejection failed")
		}
		if !ok {
			return models.ErrConflict("concurrent request transition detected")
		}
		audit.NewHandlerWithTx(tx).Log(models.AuditEntityStage, stage.ID,
			models.AuditActionRejected,
			fmt.Sprintf("stage %q of request %v rejected", stage.Name, rec.SeqNumber), principal)
		return nil
	})
	if err != nil {
		return err
	}
	logger.WithField("stage", stage.Name).Info("stage rejected")
	i.notifyRequester(rec, "Request rejected",
		fmt.Sprintf("Request %v was rejected at stage %q: %s", rec.SeqNumber, stage.Name, comment))
	return nil
}

// Comment appends a commented ledger entry without touching stage
// state; any number of comments may exist per stage.
func (i impl) Comment(stageID string, principal models.Principal, comment string) error {
	if comment == "" {
		return models.ErrPreconditionFailed("comment text is required")
	}
	stage, rec, err := i.checkStageAction(stageID, principal)
	if err != nil {
		return err
	}
	_, err = ledgerstore.NewInstance(i.db).Create(dbmodels.ApprovalAction{
		RequestID: stage.RequestID,
		StageID:   stage.ID,
		ActorID:   principal.ID,
		ActorRole: principal.Role,
		Action:    models.ActionCommented,
		Comment:   comment,
	})
	if err != nil {
		return models.ErrStorage(err, "ledger append failed")
	}
	log.
		WithField("stage_id", stageID).
		WithField("request_id", rec.ID).
		WithField("user_id", principal.ID).
		Info("stage commented")
	return nil
}

func (i impl) Discontinue(requestID string, principal models.Principal, reason string) error {
	logger := log.
		WithField("request_id", requestID).
		WithField("user_id", principal.ID)
	rec, err := i.getRequest(i.db, requestID)
	if err != nil {
		return err
	}
	if principal.ID != rec.RequesterID && !principal.Role.IsAdmin() {
		return models.ErrUnauthorized("only the requester or an administrator may discontinue")
	}
	switch rec.Status {
	case models.RequestStatusCompleted, models.RequestStatusDiscontinued,
		models.RequestStatusArchived, models.RequestStatusCancelled:
		return models.ErrInvalidState("request is already %v", rec.Status)
	}
	now := time.Now()
	meta := rec.Meta
	meta.DiscontinueReason = reason
	err = i.db.Transaction(func(tx *gorm.DB) error {
		ok, err := requeststore.NewInstance(tx).UpdateStatusIf(requestID,
			[]models.RequestStatus{models.RequestStatusDraft, models.RequestStatusInProgress, models.RequestStatusRejected},
			map[string]interface{}{
				"status":       models.RequestStatusDiscontinued,
				"completed_at": &now,
				"meta":         meta,
			})
		if err != nil {
			return models.ErrStorage(err, "discontinue failed")
		}
		if !ok {
			return models.ErrInvalidState("request status changed concurrently")
		}
		audit.NewHandlerWithTx(tx).Log(models.AuditEntityRequest, requestID,
			models.AuditActionDiscontinued,
			fmt.Sprintf("request %v discontinued: %s", rec.SeqNumber, reason), principal)
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("request discontinued")
	i.notifyRequester(rec, "Request discontinued",
		fmt.Sprintf("Request %v was discontinued.", rec.SeqNumber))
	return nil
}

func (i impl) Cancel(requestID string, principal models.Principal) error {
	logger := log.
		WithField("request_id", requestID).
		WithField("user_id", principal.ID)
	rec, err := i.getRequest(i.db, requestID)
	if err != nil {
		return err
	}
	if principal.ID != rec.RequesterID && !principal.Role.IsAdmin() {
		return models.ErrUnauthorized("only the requester or an administrator may cancel")
	}
	if !rec.Status.AllowCancel() {
		return models.ErrInvalidState("request is %v, only a draft can be cancelled", rec.Status)
	}
	err = i.db.Transaction(func(tx *gorm.DB) error {
		ok, err := requeststore.NewInstance(tx).UpdateStatusIf(requestID,
			[]models.RequestStatus{models.RequestStatusDraft},
			map[string]interface{}{
				"status": models.RequestStatusCancelled,
			})
		if err != nil {
			return models.ErrStorage(err, "cancel failed")
		}
		if !ok {
			return models.ErrInvalidState("request is no longer a draft")
		}
		audit.NewHandlerWithTx(tx).Log(models.AuditEntityRequest, requestID,
			models.AuditActionCancelled,
			fmt.Sprintf("request %v cancelled", rec.SeqNumber), principal)
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("request cancelled")
	return nil
}

// Archive is administrator-only and valid from any state; it never
// touches stage records.
func (i impl) Archive(requestID string, principal models.Principal) error {
	logger := log.
		WithField("request_id", requestID).
		WithField("user_id", principal.ID)
	if !principal.Role.IsAdmin() {
		return models.ErrUnauthorized("only an administrator may archive")
	}
	rec, err := i.getRequest(i.db, requestID)
	if err != nil {
		return err
	}
	if rec.Status == models.RequestStatusArchived {
		return models.ErrInvalidState("request is already archived")
	}
	now := time.Now()
	meta := rec.Meta
	meta.ArchivedAt = &now
	err = i.db.Transaction(func(tx *gorm.DB) error {
		err := requeststore.NewInstance(tx).Update(requestID,
			map[string]interface{}{
				"status": models.RequestStatusArchived,
				"meta":   meta,
			})
		if err != nil {
			return models.ErrStorage(err, "archive failed")
		}
		audit.NewHandlerWithTx(tx).Log(models.AuditEntityRequest, requestID,
			models.AuditActionArchived,
			fmt.Sprintf("request %v archived", rec.SeqNumber), principal)
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("request archived")
	return nil
}

func (i impl) notifyRequester(rec *dbmodels.Request, subject, message string) {
	if notify.Instance != nil {
		notify.Instance.Notify([]string{rec.RequesterEmail}, subject, message)
	}
	if connectionhub.Instance != nil {
		connectionhub.Instance.SendMessage(wsmodels.ServerMessage{
			ToUserID: rec.RequesterID,
			Time:     time.Now().Format("02.01.2006 15:04:05"),
			Code:     string(rec.Status),
			Msg:      message,
		})
	}
}
