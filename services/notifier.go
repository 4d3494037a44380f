package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/socialbbs/models"
	"github.com/cppla/socialbbs/utils"
)

// NotificationKind names an out-of-band message.
type NotificationKind string

const (
	NotifyWelcome       NotificationKind = "welcome"
	NotifyPasswordReset NotificationKind = "password_reset"
)

// Notifier delivers messages to users. Delivery is best effort: implementations
// never report failures to the caller.
type Notifier interface {
	Notify(ctx context.Context, user *models.User, kind NotificationKind, params map[string]string)
}

// MailNotifier renders notifications as plain text mail and sends them in the background.
type MailNotifier struct {
	send    func(to, subject, body string) error
	timeout time.Duration
}

// NewMailNotifier sends through the configured SMTP server.
func NewMailNotifier() *MailNotifier {
	return &MailNotifier{send: utils.SendMail, timeout: 30 * time.Second}
}

func (n *MailNotifier) Notify(ctx context.Context, user *models.User, kind NotificationKind, params map[string]string) {
	subject, body, ok := renderNotification(user, kind, params)
	if !ok {
		utils.Logger.Warn("unknown notification kind", zap.String("kind", string(kind)))
		return
	}
	to := user.Email
	go func() {
		done := make(chan error, 1)
		go func() { done <- n.send(to, subject, body) }()
		select {
		case err := <-done:
			if err != nil {
				utils.Logger.Warn("notification delivery failed",
					zap.String("kind", string(kind)), zap.String("to", to), zap.Error(err))
			}
		case <-time.After(n.timeout):
			utils.Logger.Warn("notification delivery timed out",
				zap.String("kind", string(kind)), zap.String("to", to))
		}
	}()
}

func renderNotification(user *models.User, kind NotificationKind, params map[string]string) (subject, body string, ok bool) {
	switch kind {
	case NotifyWelcome:
		first := strings.Fields(user.Name)
		name := user.Name
		if len(first) > 0 {
			name = first[0]
		}
		return "Welcome New User", fmt.Sprintf("Welcome %s to our web application.", name), true
	case NotifyPasswordReset:
		body = fmt.Sprintf(
			"Please submit a PATCH request with your email and a new password (data: {email: ..., password: ...}) to this URL: %s,\n"+
				"or open this link directly from browser: %s.\nThe URL is valid for 10 minutes only.",
			params["url"], params["clientUrl"])
		return "Your Password Reset URL", body, true
	default:
		return "", "", false
	}
}
