package initializers

import (
	"context"

	"approval-flow-backend/config"
	"approval-flow-backend/db"
	"approval-flow-backend/fiberlog"
	attachmenthandler "approval-flow-backend/lib/attachment"
	"approval-flow-backend/lib/audit"
	xlsexport "approval-flow-backend/lib/export/xls"
	"approval-flow-backend/lib/flow"
	requesthandler "approval-flow-backend/lib/request"
	"approval-flow-backend/lib/sequence"
	templatehandler "approval-flow-backend/lib/template"
	connectionhub "approval-flow-backend/lib/ws/hub/connection-hub"
)

var LoggerConfig *fiberlog.Config

func InitAllServices(ctx context.Context) {
	LoggerConfig = InitLogger()
	config.InitConfig()
	InitDBConnection()
	InitS3()
	InitNotify()
	connectionhub.Init()
	audit.NewHandler(db.DB)
	sequence.NewHandler()
	xlsexport.NewHandler()
	flow.NewHandler()
	requesthandler.NewHandler()
	templatehandler.NewHandler()
	attachmenthandler.NewHandler()
}
