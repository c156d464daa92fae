package sequencestore

import (
	"gorm.io/gorm"

	"approval-flow-backend/models"
)

type Provider interface {
	NextValue(seqType models.RequestType, dateKey string) (value int64, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

// NextValue increments and reads the (type, day) counter in a single
// statement. The upsert is the only write path to this table; a
// read-then-write here would hand out duplicate numbers under
// concurrent submissions.
func (i impl) NextValue(seqType models.RequestType, dateKey string) (value int64, err error) {
	err = i.db.Raw(`
		INSERT INTO sequence_counters (seq_type, date_key, value, updated_at)
		VALUES (?, ?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT (seq_type, date_key)
		DO UPDATE SET value = sequence_counters.value + 1, updated_at = CURRENT_TIMESTAMP
		RETURNING value`, seqType, dateKey).
		Scan(&value).
		Error
	if err != nil {
		return 0, err
	}
	return value, nil
}
