package domain

import "time"

// PassSummary is the pass shape embedded in audit rows.
type PassSummary struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	ValidFrom    time.Time `json:"valid_from"`
	ValidUntil   time.Time `json:"valid_until"`
	IsUsed       bool      `json:"is_used"`
	CreatedAt    time.Time `json:"created_at"`
	IssuedByName string    `json:"issued_by_name"`
}

// AuditEntry joins a visit request with its permit, if one was issued.
type AuditEntry struct {
	VisitDetail
	Pass *PassSummary `json:"pass,omitempty"`
}

// PresentEntry is one currently-present guest: a traffic log with no
// checkout yet.
type PresentEntry struct {
	TrafficLogID int64     `json:"traffic_log_id"`
	CheckedInAt  time.Time `json:"checked_in_at"`
	PassCode     string    `json:"pass_code"`
	ValidUntil   time.Time `json:"valid_until"`
	Purpose      string    `json:"purpose"`
	VisitDate    time.Time `json:"visit_date"`
	Guest        PersonRef `json:"guest"`
	Host         PersonRef `json:"host"`
}

// Stats is the aggregate snapshot. All counts are read within one
// transaction so they describe a single point in time.
type Stats struct {
	UsersByRole    map[Role]int64        `json:"users_by_role"`
	VisitsByStatus map[VisitStatus]int64 `json:"visits_by_status"`
	TodayVisits    int64                 `json:"today_visits"`
	PresentCount   int64                 `json:"present_count"`
	TodayCheckIns  int64                 `json:"today_check_ins"`
	WeekCheckIns   int64                 `json:"week_check_ins"`
}
