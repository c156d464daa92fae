package notify

import (
	"fmt"
	"strings"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	log "github.com/sirupsen/logrus"
)

// Provider is the fire-and-forget notification channel. Delivery
// failures are logged and never surface to the command that triggered
// them.
type Provider interface {
	Notify(recipients []string, subject, message string)
}

var Instance Provider

func Connect(user, password, host, port, from string, tlsEnabled bool) {
	Instance = &impl{
		user:       user,
		password:   password,
		host:       host,
		port:       port,
		from:       from,
		tlsEnabled: tlsEnabled,
	}
}

type impl struct {
	user       string
	password   string
	host       string
	port       string
	from       string
	tlsEnabled bool
}

func (i impl) Notify(recipients []string, subject, message string) {
	go i.send(recipients, subject, message)
}

func (i impl) send(recipients []string, subject, message string) {
	logger := log.WithField("subject", subject)
	if i.user == "" || i.host == "" || i.port == "" {
		logger.Warn("notification skipped, smtp client is not configured")
		return
	}
	sendTo := make([]string, 0, len(recipients))
	for _, to := range recipients {
		if to != "" {
			sendTo = append(sendTo, to)
		}
	}
	if len(sendTo) == 0 {
		return
	}
	auth := sasl.NewPlainClient("", i.user, i.password)
	mimeHeaders := "MIME-version: 1.0;\nContent-Type: text/plain; charset=\"UTF-8\";\r\n"
	body := strings.NewReader(fmt.Sprintf("Subject: %s\n%s\r\n%s\r\n", subject, mimeHeaders, message))

	var err error
	if i.tlsEnabled {
		err = smtp.SendMailTLS(i.host+":"+i.port, auth, i.from, sendTo, body)
	} else {
		err = smtp.SendMail(i.host+":"+i.port, auth, i.from, sendTo, body)
	}
	if err != nil {
		logger.WithError(err).Error("notification delivery failed")
		return
	}
	logger.Info("notification sent")
}
