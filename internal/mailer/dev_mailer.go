package mailer

import (
	"fmt"
	"time"

	"github.com/gatehouse/gatepass/pkg/logger"
)

type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendVisitRequested(toEmail, toName, purpose string, visitDate time.Time) error {
	logger.Info("📧 [DEV MAIL] Visit Request Notification",
		"to", toEmail,
		"name", toName,
		"purpose", purpose,
		"visit_date", visitDate.Format("2006-01-02"),
	)

	fmt.Printf("\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"📧 VISIT REQUEST NOTIFICATION (DEV MODE)\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"To: %s (%s)\n"+
		"Subject: New visit request awaiting your review\n"+
		"\n"+
		"Purpose: %s\n"+
		"Visit date: %s\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		toEmail, toName, purpose, visitDate.Format("2006-01-02"))

	return nil
}

func (d *DevMailer) SendPassIssued(toEmail, toName, code string, validUntil time.Time) error {
	logger.Info("📧 [DEV MAIL] Pass Issued Email",
		"to", toEmail,
		"name", toName,
		"code", code,
		"valid_until", validUntil,
	)

	fmt.Printf("\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"📧 PASS ISSUED EMAIL (DEV MODE)\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"To: %s (%s)\n"+
		"Subject: Your entry pass code\n"+
		"\n"+
		"Pass Code: %s\n"+
		"Valid until: %s\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		toEmail, toName, code, validUntil.Format(time.RFC1123))

	return nil
}
