package dbmodels

import (
	"approval-flow-backend/models"

	"github.com/lib/pq"
)

// StageTemplate is a reusable, named stage sequence. Creating a request
// from a template clones its stages verbatim: order, role requirements,
// visibility and thresholds.
type StageTemplate struct {
	BaseModel
	Name        string             `gorm:"type:varchar(255);uniqueIndex"`
	RequestType models.RequestType `gorm:"type:varchar(50);index"`
	Description string
	Stages      []TemplateStage `gorm:"foreignKey:TemplateID"`
}

type TemplateStage struct {
	BaseModel
	TemplateID   string           `gorm:"type:varchar(36);index;index:idx_template_order,unique"`
	OrderIdx     int              `gorm:"index:idx_template_order,unique"`
	Name         string           `gorm:"type:varchar(255)"`
	Kind         models.StageKind `gorm:"type:varchar(50)"`
	RequiredRole models.UserRole  `gorm:"type:varchar(50)"`
	OneOfRoles   pq.StringArray   `gorm:"type:text"`
	Threshold    *float64
	Departments  pq.StringArray `gorm:"type:text"`
}
