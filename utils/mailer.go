package utils

import (
	"fmt"
	"os"
	"strconv"

	"visa-portal-backend/config"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Initialize the SMTP mailer once and store it in a global variable
var mailer *gomail.Dialer

// InitializeMailer sets up the mailer using environment variables
func InitializeMailer() {
	mailHost := os.Getenv("SMTP_HOST")
	mailPort := os.Getenv("SMTP_PORT")
	mailUser := os.Getenv("SMTP_USER")
	mailPassword := os.Getenv("SMTP_PASSWORD")

	port, err := strconv.Atoi(mailPort)
	if err != nil {
		config.Logger.Error("Invalid SMTP_PORT value, defaulting to port 25",
			zap.String("provided_port", mailPort),
			zap.Error(err),
		)
		port = 25
	}

	mailer = gomail.NewDialer(mailHost, port, mailUser, mailPassword)
	config.Logger.Info("Mailer initialized successfully")
}

// GetMailer returns the initialized mailer instance
func GetMailer() *gomail.Dialer {
	return mailer
}

// SendEmail sends a plain notification email to one recipient. Failures are
// logged and returned; callers treat notification failure as non-fatal.
func SendEmail(to, subject, body string) error {
	if mailer == nil {
		return fmt.Errorf("mailer not initialized")
	}

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "no-reply@visaportal.local"
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := mailer.DialAndSend(m); err != nil {
		config.Logger.Error("Failed to send notification email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
