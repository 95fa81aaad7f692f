package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/bachesrosario/baches-api/internal/pkg/env"
)

// SendMail sends an HTML email via SMTP. When no SMTP host is
// configured (local development) the message is skipped and the body
// logged instead, so verification links stay reachable.
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "587")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = "no-reply@bachesrosario.local"
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	if host == "" {
		log.Printf("SMTP not configured, mail to %s skipped. Subject: %s", to, subject)
		log.Print(body)
		return nil
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}

// SendVerificationMail sends the account verification link.
func SendVerificationMail(to, name, verificationURL string) error {
	subject := "Verify your account - Baches Rosario"
	body := fmt.Sprintf(`
		<h2>Hi %s</h2>
		<p>Thanks for registering at Baches Rosario.</p>
		<p>To activate your account, click the link below (valid for 24 hours):</p>
		<p><a href="%s">Verify my account</a></p>
		<p>If you did not create this account, you can ignore this email.</p>
	`, name, verificationURL)
	return SendMail(to, subject, body)
}

// SendPasswordResetMail sends the password reset link.
func SendPasswordResetMail(to, name, resetURL string) error {
	subject := "Reset your password - Baches Rosario"
	body := fmt.Sprintf(`
		<h2>Hi %s</h2>
		<p>We received a request to reset your password.</p>
		<p>Click the link below to choose a new one (valid for 1 hour):</p>
		<p><a href="%s">Reset my password</a></p>
		<p>If you did not request this, you can ignore this email.</p>
	`, name, resetURL)
	return SendMail(to, subject, body)
}
