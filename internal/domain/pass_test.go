package domain

import (
	"testing"
	"time"
)

func TestNewPassCode_Format(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		code := NewPassCode()

		if len(code) != PassCodeLength {
			t.Fatalf("Expected code length %d, got %d (%q)", PassCodeLength, len(code), code)
		}
		for _, c := range code {
			if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'F') {
				t.Fatalf("Expected upper-case hex, got %q", code)
			}
		}
		seen[code] = true
	}

	// 100 draws from a 32-bit space should not all collide.
	if len(seen) < 2 {
		t.Fatal("Expected distinct codes across draws")
	}
}

func TestNormalizePassCode(t *testing.T) {
	if got := NormalizePassCode("  a1b2c3d4 "); got != "A1B2C3D4" {
		t.Fatalf("Expected A1B2C3D4, got %q", got)
	}
}

func TestDerivedStatus_Precedence(t *testing.T) {
	now := time.Now()
	checkedIn := now.Add(-2 * time.Hour)
	checkedOut := now.Add(-1 * time.Hour)

	tests := []struct {
		name   string
		detail PassDetail
		want   PassStatus
	}{
		{
			name: "valid inside window",
			detail: PassDetail{
				Pass: Pass{ValidFrom: now.Add(-time.Hour), ValidUntil: now.Add(time.Hour)},
			},
			want: PassValid,
		},
		{
			name: "not yet valid",
			detail: PassDetail{
				Pass: Pass{ValidFrom: now.Add(time.Hour), ValidUntil: now.Add(9 * time.Hour)},
			},
			want: PassNotYetValid,
		},
		{
			name: "expired",
			detail: PassDetail{
				Pass: Pass{ValidFrom: now.Add(-9 * time.Hour), ValidUntil: now.Add(-time.Hour)},
			},
			want: PassExpired,
		},
		{
			name: "checked in beats expiry",
			detail: PassDetail{
				Pass:    Pass{ValidFrom: now.Add(-9 * time.Hour), ValidUntil: now.Add(-time.Hour), IsUsed: true},
				Traffic: &TrafficLog{CheckedInAt: checkedIn},
			},
			want: PassCheckedIn,
		},
		{
			name: "completed beats everything",
			detail: PassDetail{
				Pass:    Pass{ValidFrom: now.Add(-9 * time.Hour), ValidUntil: now.Add(-time.Hour), IsUsed: true},
				Traffic: &TrafficLog{CheckedInAt: checkedIn, CheckedOutAt: &checkedOut},
			},
			want: PassCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.detail.DerivedStatus(now); got != tt.want {
				t.Fatalf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}
