package sequence

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"approval-flow-backend/config"
	"approval-flow-backend/db"
	sequencestore "approval-flow-backend/lib/sequence/store"
	"approval-flow-backend/models"
)

type Provider interface {
	Next(seqType models.RequestType, asOf time.Time) (seqNumber string, err error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{
		store:  sequencestore.NewInstance(db.DB),
		prefix: config.Conf.Sequence.Prefix,
	}
}

func NewHandlerWithDB(DB *gorm.DB, prefix string) Provider {
	return impl{
		store:  sequencestore.NewInstance(DB),
		prefix: prefix,
	}
}

type impl struct {
	store  sequencestore.Provider
	prefix string
}

// Next issues the next sequence number for the type and day, formatted
// PREFIX-TYPE-YYMMDD-NNN. Fails closed: on storage error no number is
// issued and the caller must not create the request.
func (i impl) Next(seqType models.RequestType, asOf time.Time) (string, error) {
	dateKey := asOf.Format("2006-01-02")
	value, err := i.store.NextValue(seqType, dateKey)
	if err != nil {
		log.
			WithField("seq_type", seqType).
			WithField("date_key", dateKey).
			WithError(err).
			Error("sequence counter increment failed")
		return "", models.ErrStorage(err, "sequence number unavailable")
	}
	return fmt.Sprintf("%s-%s-%s-%03d", i.prefix, seqType, asOf.Format("060102"), value), nil
}
