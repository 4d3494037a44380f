package utils

import (
	"crypto/tls"
	"errors"
	"time"

	"go.uber.org/zap"
	"gopkg.in/mail.v2"

	"github.com/cppla/socialbbs/config"
)

// ErrMailNotConfigured is returned when no SMTP host or sender is set.
var ErrMailNotConfigured = errors.New("smtp not configured")

// SendMail sends a plain text email using SMTP settings from config.
func SendMail(to, subject, body string) error {
	cfg := config.Get()
	if cfg.SMTPHost == "" || cfg.SMTPFrom == "" {
		return ErrMailNotConfigured
	}

	d := newDialer(cfg)
	if err := d.DialAndSend(buildMessage(cfg, to, subject, body)); err != nil {
		return err
	}
	Logger.Info("mail sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func newDialer(cfg config.AppConfig) *mail.Dialer {
	d := mail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	d.Timeout = 15 * time.Second
	d.TLSConfig = &tls.Config{ServerName: cfg.SMTPHost}
	if cfg.SMTPTLS {
		d.StartTLSPolicy = mail.MandatoryStartTLS
	}
	return d
}

func buildMessage(cfg config.AppConfig, to, subject, body string) *mail.Message {
	fromName := cfg.SMTPFromName
	if fromName == "" {
		fromName = "SocialBBS"
	}
	m := mail.NewMessage()
	m.SetAddressHeader("From", cfg.SMTPFrom, fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return m
}
