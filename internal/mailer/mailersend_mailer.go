package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendVisitRequested(toEmail, toName, purpose string, visitDate time.Time) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "New visit request awaiting your review"
	date := visitDate.Format("Monday, January 2, 2006")
	html := fmt.Sprintf(`
		<h2>New Visit Request</h2>
		<p>Hi %s,</p>
		<p>A visitor has requested to meet you:</p>
		<p><strong>Purpose:</strong> %s<br>
		<strong>Date:</strong> %s</p>
		<p>Please log in to approve or reject this request.</p>
	`, toName, purpose, date)

	text := fmt.Sprintf("A visitor has requested to meet you.\n\nPurpose: %s\nDate: %s\n\nPlease log in to approve or reject this request.", purpose, date)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) SendPassIssued(toEmail, toName, code string, validUntil time.Time) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "Your entry pass code"
	until := validUntil.Format(time.RFC1123)
	html := fmt.Sprintf(`
		<h2>Your Entry Pass</h2>
		<p>Hi %s,</p>
		<p>Your visit has been approved. Your pass code is: <strong style="font-size: 24px; color: #4CAF50;">%s</strong></p>
		<p>Present this code at the security desk when you arrive.</p>
		<p>This pass is valid until %s.</p>
	`, toName, code, until)

	text := fmt.Sprintf("Your visit has been approved.\n\nPass code: %s\n\nPresent this code at the security desk when you arrive. This pass is valid until %s.", code, until)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) sendEmail(toEmail, toName, subject, text, html string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)

	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	_, err := m.client.Email.Send(ctx, msg)
	return err
}
