package emailsending

import (
	"errors"
	"fmt"

	smtp_client "github.com/clipshare/account-backend/pkg/smtp-client"
)

var smtpClients *smtp_client.SmtpClients

func InitEmailSending(clients *smtp_client.SmtpClients) {
	smtpClients = clients
}

// SendPasswordResetEmail delivers the reset link carrying the plaintext
// reset token. The token itself is only ever part of the link, never
// logged or stored.
func SendPasswordResetEmail(to string, displayName string, resetURL string, validMinutes int) error {
	if smtpClients == nil {
		return errors.New("email sending not initialized")
	}

	content, err := ResolveTemplate(
		"password-reset",
		passwordResetTemplateDef,
		map[string]string{
			"displayName":  displayName,
			"resetURL":     resetURL,
			"validMinutes": fmt.Sprintf("%d", validMinutes),
		},
	)
	if err != nil {
		return err
	}

	return smtpClients.SendMail([]string{to}, passwordResetSubject, content)
}
