package dbmodels

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// RequestMeta holds the known auxiliary facts of a request plus a
// residual bag for genuinely free-form values.
type RequestMeta struct {
	DiscontinueReason string            `json:"discontinue_reason,omitempty"`
	ArchivedAt        *time.Time        `json:"archived_at,omitempty"`
	Extra             map[string]string `json:"extra,omitempty"`
}

func (m RequestMeta) Value() (driver.Value, error) {
	valueString, err := json.Marshal(m)
	return string(valueString), err
}

func (m *RequestMeta) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = RequestMeta{}
		return nil
	}
	return errors.Errorf("unsupported meta column type %T", value)
}

// StageMeta is the residual bag of a stage.
type StageMeta map[string]string

func (m StageMeta) Value() (driver.Value, error) {
	valueString, err := json.Marshal(m)
	return string(valueString), err
}

func (m *StageMeta) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = nil
		return nil
	}
	return errors.Errorf("unsupported meta column type %T", value)
}
