package initializers

import (
	"approval-flow-backend/config"
	"approval-flow-backend/lib/notify"
)

func InitNotify() {
	notify.Connect(config.Conf.Smtp.User, config.Conf.Smtp.Password,
		config.Conf.Smtp.Host, config.Conf.Smtp.Port, config.Conf.Smtp.From,
		*config.Conf.Smtp.TLSEnabled)
}
