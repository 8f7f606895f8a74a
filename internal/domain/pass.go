package domain

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// PassValidityHours is the fixed validity window applied at issuance.
const PassValidityHours = 8

// PassCodeLength is the rendered code length: 4 random bytes as upper-case hex.
const PassCodeLength = 8

// NewPassCode draws a candidate permit code from crypto/rand. Uniqueness
// is the issuer's problem, not the generator's.
func NewPassCode() string {
	b := make([]byte, PassCodeLength/2)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the process is in no state to issue
		// credentials at all.
		panic(err)
	}
	return strings.ToUpper(hex.EncodeToString(b))
}

// NormalizePassCode canonicalizes a presented code before lookup.
func NormalizePassCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

type Pass struct {
	ID             int64     `json:"id"`
	VisitRequestID int64     `json:"visit_request_id"`
	Code           string    `json:"code"`
	IssuedBy       int64     `json:"issued_by"`
	ValidFrom      time.Time `json:"valid_from"`
	ValidUntil     time.Time `json:"valid_until"`
	IsUsed         bool      `json:"is_used"`
	CreatedAt      time.Time `json:"created_at"`
}

type TrafficLog struct {
	ID           int64      `json:"id"`
	PassID       int64      `json:"pass_id"`
	CheckedInAt  time.Time  `json:"checked_in_at"`
	CheckedOutAt *time.Time `json:"checked_out_at,omitempty"`
	RecordedBy   int64      `json:"recorded_by"`
	CreatedAt    time.Time  `json:"created_at"`
}

// PassStatus is the derived display status of a permit.
type PassStatus string

const (
	PassValid       PassStatus = "valid"
	PassNotYetValid PassStatus = "not_yet_valid"
	PassExpired     PassStatus = "expired"
	PassCheckedIn   PassStatus = "checked_in"
	PassCompleted   PassStatus = "completed"
)

// PassDetail is a Pass joined with its traffic episode, visit, and parties.
type PassDetail struct {
	Pass
	Traffic      *TrafficLog `json:"traffic,omitempty"`
	Purpose      string      `json:"purpose"`
	VisitDate    time.Time   `json:"visit_date"`
	VisitStatus  VisitStatus `json:"visit_status"`
	Guest        PersonRef   `json:"guest"`
	Host         PersonRef   `json:"host"`
	IssuedByName string      `json:"issued_by_name"`
}

// DerivedStatus computes the display status. The precedence is strict:
// a completed episode wins even when the validity window has since lapsed.
func (d *PassDetail) DerivedStatus(now time.Time) PassStatus {
	switch {
	case d.Traffic != nil && d.Traffic.CheckedOutAt != nil:
		return PassCompleted
	case d.Traffic != nil:
		return PassCheckedIn
	case now.After(d.ValidUntil):
		return PassExpired
	case now.Before(d.ValidFrom):
		return PassNotYetValid
	default:
		return PassValid
	}
}

// IssuedPass is the issuance result returned to security for display.
type IssuedPass struct {
	Pass          *Pass        `json:"pass"`
	ValidityHours int          `json:"validity_hours"`
	Visit         *VisitDetail `json:"visit_request"`
}
