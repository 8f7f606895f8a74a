package mailer

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

type SMTPMailer struct {
	Host   string
	Port   int
	From   string
	User   string
	Pass   string
	UseTLS bool
}

func NewSMTPMailer(host string, port int, from, user, pass string, useTLS bool) *SMTPMailer {
	return &SMTPMailer{
		Host:   strings.TrimSpace(host),
		Port:   port,
		From:   strings.TrimSpace(from),
		User:   strings.TrimSpace(user),
		Pass:   strings.TrimSpace(pass),
		UseTLS: useTLS,
	}
}

func (s *SMTPMailer) SendVisitRequested(toEmail, toName, purpose string, visitDate time.Time) error {
	subject := "New visit request awaiting your review"
	date := visitDate.Format("Monday, January 2, 2006")
	text := fmt.Sprintf("A visitor has requested to meet you.\n\nPurpose: %s\nDate: %s\n\nPlease log in to approve or reject this request.", purpose, date)
	html := fmt.Sprintf(`
		<h2>New Visit Request</h2>
		<p>Hi %s,</p>
		<p>A visitor has requested to meet you:</p>
		<p><strong>Purpose:</strong> %s<br>
		<strong>Date:</strong> %s</p>
		<p>Please log in to approve or reject this request.</p>
	`, toName, purpose, date)

	return s.sendEmail(toEmail, toName, subject, text, html)
}

func (s *SMTPMailer) SendPassIssued(toEmail, toName, code string, validUntil time.Time) error {
	subject := "Your entry pass code"
	until := validUntil.Format(time.RFC1123)
	text := fmt.Sprintf("Your visit has been approved.\n\nPass code: %s\n\nPresent this code at the security desk when you arrive. This pass is valid until %s.", code, until)
	html := fmt.Sprintf(`
		<h2>Your Entry Pass</h2>
		<p>Hi %s,</p>
		<p>Your visit has been approved. Your pass code is: <strong style="font-size: 24px; color: #4CAF50;">%s</strong></p>
		<p>Present this code at the security desk when you arrive.</p>
		<p>This pass is valid until %s.</p>
	`, toName, code, until)

	return s.sendEmail(toEmail, toName, subject, text, html)
}

func (s *SMTPMailer) sendEmail(toEmail, toName, subject, text, html string) error {
	toEmail = strings.TrimSpace(toEmail)
	if toEmail == "" {
		return fmt.Errorf("empty recipient email")
	}

	var buf bytes.Buffer
	boundary := "mixed-boundary"

	fmt.Fprintf(&buf, "From: %s\r\n", s.From)
	fmt.Fprintf(&buf, "To: %s\r\n", toEmail)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	// Text part
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", text)

	// HTML part
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/html; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", html)

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)

	// Mailpit or development SMTP (no auth, no TLS)
	if !s.UseTLS && s.User == "" {
		return smtp.SendMail(addr, nil, s.From, []string{toEmail}, buf.Bytes())
	}

	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}

	// Try plain SMTP first (with STARTTLS if supported)
	if err := smtp.SendMail(addr, auth, s.From, []string{toEmail}, buf.Bytes()); err == nil {
		return nil
	}

	// Fallback to implicit TLS (port 465)
	if s.UseTLS {
		tlsCfg := &tls.Config{ServerName: s.Host, InsecureSkipVerify: false}
		conn, err := tls.Dial("tcp", addr, tlsCfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		c, err := smtp.NewClient(conn, s.Host)
		if err != nil {
			return err
		}
		defer c.Quit()

		if s.User != "" {
			if err := c.Auth(auth); err != nil {
				return err
			}
		}

		if err := c.Mail(s.From); err != nil {
			return err
		}
		if err := c.Rcpt(toEmail); err != nil {
			return err
		}

		w, err := c.Data()
		if err != nil {
			return err
		}

		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}

		return w.Close()
	}

	return fmt.Errorf("smtp send failed")
}
