package dbmodels

import (
	"time"

	"approval-flow-backend/models"
)

// SequenceCounter is the per-(type, day) counter behind human-readable
// sequence numbers. It is only ever touched through a single atomic
// increment-and-read statement; there is no in-process copy.
type SequenceCounter struct {
	SeqType   models.RequestType `gorm:"primaryKey;type:varchar(50);column:seq_type"`
	DateKey   string             `gorm:"primaryKey;type:varchar(10);column:date_key"` // YYYY-MM-DD
	Value     int64
	UpdatedAt time.Time
}

func (SequenceCounter) TableName() string {
	return "sequence_counters"
}
