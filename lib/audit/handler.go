package audit

import (
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	auditstore "approval-flow-backend/lib/audit/store"
	"approval-flow-backend/models"
	dbmodels "approval-flow-backend/models/db"
)

type Provider interface {
	Log(entityType models.AuditEntityType, entityID string, action models.AuditAction, description string, actor models.Principal)
	LogChanges(entityType models.AuditEntityType, entityID string, action models.AuditAction, description string, actor models.Principal, changes dbmodels.EntityChanges)
	List(filter auditstore.Filter) ([]dbmodels.AuditEntry, error)
}

var Instance Provider

func NewHandler(DB *gorm.DB) {
	Instance = impl{
		store: auditstore.NewInstance(DB),
	}
}

func NewHandlerWithTx(tx *gorm.DB) Provider {
	return impl{
		store: auditstore.NewInstance(tx),
	}
}

type impl struct {
	store auditstore.Provider
}

func (i impl) Log(entityType models.AuditEntityType, entityID string, action models.AuditAction, description string, actor models.Principal) {
	i.LogChanges(entityType, entityID, action, description, actor, dbmodels.EntityChanges{})
}

// LogChanges appends one audit entry. A failed append is logged and
// swallowed: audit writes never fail the action they describe.
func (i impl) LogChanges(entityType models.AuditEntityType, entityID string, action models.AuditAction, description string, actor models.Principal, changes dbmodels.EntityChanges) {
	rec := dbmodels.AuditEntry{
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		Description: description,
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		ActorRole:   actor.Role,
		Changes:     changes,
	}
	_, err := i.store.Create(rec)
	if err != nil {
		log.
			WithField("entity_type", entityType).
			WithField("entity_id", entityID).
			WithField("action", action).
			WithError(err).
			Error("audit entry append failed")
	}
}

func (i impl) List(filter auditstore.Filter) ([]dbmodels.AuditEntry, error) {
	return i.store.List(filter)
}
