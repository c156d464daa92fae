package models

// AuditEntityType names what kind of entity an audit entry refers to.
type AuditEntityType string

const (
	AuditEntityRequest  AuditEntityType = "request"
	AuditEntityStage    AuditEntityType = "stage"
	AuditEntityTemplate AuditEntityType = "template"
	AuditEntityFile     AuditEntityType = "file"
	AuditEntitySequence AuditEntityType = "sequence"
)

type AuditAction string

const (
	AuditActionCreated      AuditAction = "created"
	AuditActionUpdated      AuditAction = "updated"
	AuditActionSubmitted    AuditAction = "submitted"
	AuditActionApproved     AuditAction = "approved"
	AuditActionRejected     AuditAction = "rejected"
	AuditActionDiscontinued AuditAction = "discontinued"
	AuditActionArchived     AuditAction = "archived"
	AuditActionCancelled    AuditAction = "cancelled"
	AuditActionUploaded     AuditAction = "uploaded"
	AuditActionDeleted      AuditAction = "deleted"
)
