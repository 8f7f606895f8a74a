package mailer

import "time"

type Service interface {
	SendVisitRequested(toEmail, toName, purpose string, visitDate time.Time) error
	SendPassIssued(toEmail, toName, code string, validUntil time.Time) error
}
