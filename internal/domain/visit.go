package domain

import (
	"strings"
	"time"
)

// VisitStatus is the visit-request lifecycle. The only legal edges are
// pending_host_review -> {pending_security, rejected_by_host} and
// pending_security -> {approved, rejected_by_security}.
type VisitStatus string

const (
	StatusPendingHostReview  VisitStatus = "pending_host_review"
	StatusPendingSecurity    VisitStatus = "pending_security"
	StatusApproved           VisitStatus = "approved"
	StatusRejectedByHost     VisitStatus = "rejected_by_host"
	StatusRejectedBySecurity VisitStatus = "rejected_by_security"
)

func ParseVisitStatus(s string) (VisitStatus, bool) {
	switch VisitStatus(s) {
	case StatusPendingHostReview, StatusPendingSecurity, StatusApproved,
		StatusRejectedByHost, StatusRejectedBySecurity:
		return VisitStatus(s), true
	default:
		return "", false
	}
}

// Terminal reports whether no further transition is defined for the status.
func (s VisitStatus) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejectedByHost, StatusRejectedBySecurity:
		return true
	case StatusPendingHostReview, StatusPendingSecurity:
		return false
	default:
		return false
	}
}

// VisitDateLayout is the wire format for visit dates; time of day is
// never part of a visit date.
const VisitDateLayout = "2006-01-02"

type VisitRequest struct {
	ID              int64       `json:"id"`
	GuestID         int64       `json:"guest_id"`
	HostID          int64       `json:"host_id"`
	Purpose         string      `json:"purpose"`
	Description     string      `json:"description,omitempty"`
	VisitDate       time.Time   `json:"visit_date"`
	Status          VisitStatus `json:"status"`
	RejectionReason string      `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// VisitDetail is a VisitRequest with whichever party records the query
// joined in.
type VisitDetail struct {
	VisitRequest
	Guest *PersonRef `json:"guest,omitempty"`
	Host  *PersonRef `json:"host,omitempty"`
}

type CreateVisitRequest struct {
	HostEmail   string `json:"host_email"`
	Purpose     string `json:"purpose"`
	Description string `json:"description"`
	VisitDate   string `json:"visit_date"`
}

func (r *CreateVisitRequest) Normalize() {
	r.HostEmail = strings.ToLower(strings.TrimSpace(r.HostEmail))
	r.Purpose = strings.TrimSpace(r.Purpose)
	r.Description = strings.TrimSpace(r.Description)
	r.VisitDate = strings.TrimSpace(r.VisitDate)
}

// ParseVisitDate validates the requested date: it must parse as a bare
// date and must not be before today. The comparison ignores time of day.
func ParseVisitDate(s string, now time.Time) (time.Time, error) {
	d, err := time.ParseInLocation(VisitDateLayout, s, now.Location())
	if err != nil {
		return time.Time{}, Validationf("invalid visit date format")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d.Before(today) {
		return time.Time{}, Validationf("visit date cannot be in the past")
	}
	return d, nil
}

type RejectVisitRequest struct {
	Reason string `json:"rejection_reason"`
}
