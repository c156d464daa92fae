package db

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	dbmodels "approval-flow-backend/models/db"
)

func AutoMigrateDB() error {
	log.Info("running migrations")
	if err := DB.AutoMigrate(&dbmodels.Request{}); err != nil {
		return errors.Wrap(err, "migration failed for Request")
	}
	if err := DB.AutoMigrate(&dbmodels.ApprovalStage{}); err != nil {
		return errors.Wrap(err, "migration failed for ApprovalStage")
	}
	if err := DB.AutoMigrate(&dbmodels.ApprovalAction{}); err != nil {
		return errors.Wrap(err, "migration failed for ApprovalAction")
	}
	if err := DB.AutoMigrate(&dbmodels.AuditEntry{}); err != nil {
		return errors.Wrap(err, "migration failed for AuditEntry")
	}
	if err := DB.AutoMigrate(&dbmodels.SequenceCounter{}); err != nil {
		return errors.Wrap(err, "migration failed for SequenceCounter")
	}
	if err := DB.AutoMigrate(&dbmodels.StageTemplate{}); err != nil {
		return errors.Wrap(err, "migration failed for StageTemplate")
	}
	if err := DB.AutoMigrate(&dbmodels.TemplateStage{}); err != nil {
		return errors.Wrap(err, "migration failed for TemplateStage")
	}
	if err := DB.AutoMigrate(&dbmodels.FileAttachment{}); err != nil {
		return errors.Wrap(err, "migration failed for FileAttachment")
	}
	log.Info("migrations finished")
	return nil
}
