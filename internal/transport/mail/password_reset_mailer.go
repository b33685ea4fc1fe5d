package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/rivaq/rivaq-backend/internal/repository/ports"
)

const passwordResetSubject = "Reset your Rivaq password"

type PasswordResetMailer struct {
	mailer ports.Mailer
}

func NewPasswordResetMailer(mailer ports.Mailer) *PasswordResetMailer {
	return &PasswordResetMailer{mailer: mailer}
}

func (m *PasswordResetMailer) SendPasswordReset(ctx context.Context, email, link string, expiresIn time.Duration) error {
	if m == nil || m.mailer == nil {
		return ErrNotConfigured
	}
	return m.mailer.Send(ctx, PasswordResetMessage(email, link, expiresIn))
}

func PasswordResetMessage(to, link string, expiresIn time.Duration) ports.MailMessage {
	body := fmt.Sprintf(
		"We received a request to reset the password of your Rivaq account.\n\n"+
			"Open the link below to choose a new password:\n%s\n\n"+
			"The link expires in %s and can be used once.\n"+
			"If you did not ask for a reset, you can ignore this email.",
		link, humanDuration(expiresIn))
	return ports.MailMessage{To: to, Subject: passwordResetSubject, Body: body}
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d >= time.Minute && d%time.Minute == 0:
		if d == time.Minute {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", d/time.Minute)
	default:
		return d.String()
	}
}
