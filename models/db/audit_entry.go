package dbmodels

import (
	"database/sql/driver"
	"encoding/json"

	"approval-flow-backend/models"

	"github.com/pkg/errors"
)

// AuditEntry is the generic write-only action log. The engine only
// appends; reporting reads it from outside.
type AuditEntry struct {
	BaseModel
	EntityType  models.AuditEntityType `gorm:"type:varchar(50);index"`
	EntityID    string                 `gorm:"type:varchar(36);index"`
	Action      models.AuditAction     `gorm:"type:varchar(50)"`
	Description string
	ActorID     string          `gorm:"type:varchar(36)"`
	ActorName   string          `gorm:"type:varchar(255)"`
	ActorRole   models.UserRole `gorm:"type:varchar(50)"`
	Changes     EntityChanges   `gorm:"type:jsonb"`
}

type EntityChanges struct {
	Data []FieldChanges `json:"data,omitempty"`
}

type FieldChanges struct {
	Field    string `json:"field"`
	OldValue any    `json:"old_value"`
	NewValue any    `json:"new_value"`
}

func (j EntityChanges) Value() (driver.Value, error) {
	valueString, err := json.Marshal(j)
	return string(valueString), err
}

func (j *EntityChanges) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	case nil:
		*j = EntityChanges{}
		return nil
	}
	return errors.Errorf("unsupported changes column type %T", value)
}
