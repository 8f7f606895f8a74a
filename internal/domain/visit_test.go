package domain

import (
	"testing"
	"time"
)

func TestParseVisitDate(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	t.Run("today is allowed", func(t *testing.T) {
		d, err := ParseVisitDate("2025-06-15", now)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if d.Day() != 15 {
			t.Fatalf("Expected day 15, got %d", d.Day())
		}
	})

	t.Run("future is allowed", func(t *testing.T) {
		if _, err := ParseVisitDate("2025-12-31", now); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	})

	t.Run("past is rejected", func(t *testing.T) {
		_, err := ParseVisitDate("2025-06-14", now)
		if KindOf(err) != KindValidation {
			t.Fatalf("Expected validation error, got %v", err)
		}
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := ParseVisitDate("not-a-date", now)
		if KindOf(err) != KindValidation {
			t.Fatalf("Expected validation error, got %v", err)
		}
	})
}

func TestVisitStatus_Terminal(t *testing.T) {
	terminal := []VisitStatus{StatusApproved, StatusRejectedByHost, StatusRejectedBySecurity}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Fatalf("Expected %s to be terminal", s)
		}
	}

	open := []VisitStatus{StatusPendingHostReview, StatusPendingSecurity}
	for _, s := range open {
		if s.Terminal() {
			t.Fatalf("Expected %s to not be terminal", s)
		}
	}
}

func TestParseRole_ClosedSet(t *testing.T) {
	for _, valid := range []string{"guest", "host", "security", "admin"} {
		if _, ok := ParseRole(valid); !ok {
			t.Fatalf("Expected %q to parse", valid)
		}
	}

	for _, invalid := range []string{"", "superadmin", "Guest", "visitor"} {
		if _, ok := ParseRole(invalid); ok {
			t.Fatalf("Expected %q to be rejected", invalid)
		}
	}
}
