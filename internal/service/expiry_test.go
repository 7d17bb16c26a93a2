package service

import (
	"testing"
	"time"
)

func TestClassifyExpiry(t *testing.T) {
	// Reference is mid-afternoon so truncation to day boundaries matters.
	reference := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name          string
		expiry        time.Time
		wantExpired   bool
		wantSoon      bool
		wantRemaining int
	}{
		{
			name:          "expired yesterday",
			expiry:        time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
			wantExpired:   true,
			wantSoon:      false,
			wantRemaining: -1,
		},
		{
			name:          "expires today is not expired but is expiring soon",
			expiry:        time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			wantExpired:   false,
			wantSoon:      true,
			wantRemaining: 0,
		},
		{
			name:          "expires today late in the day still counts as today",
			expiry:        time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC),
			wantExpired:   false,
			wantSoon:      true,
			wantRemaining: 0,
		},
		{
			name:          "last day inside the window",
			expiry:        time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC),
			wantExpired:   false,
			wantSoon:      true,
			wantRemaining: 10,
		},
		{
			name:          "first day outside the window",
			expiry:        time.Date(2026, 3, 26, 0, 0, 0, 0, time.UTC),
			wantExpired:   false,
			wantSoon:      false,
			wantRemaining: 11,
		},
		{
			name:          "far future",
			expiry:        time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
			wantExpired:   false,
			wantSoon:      false,
			wantRemaining: 292,
		},
		{
			name:          "long expired",
			expiry:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			wantExpired:   true,
			wantSoon:      false,
			wantRemaining: -14,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyExpiry(tt.expiry, reference)
			if got.Expired != tt.wantExpired {
				t.Errorf("Expired = %v, want %v", got.Expired, tt.wantExpired)
			}
			if got.ExpiringSoon != tt.wantSoon {
				t.Errorf("ExpiringSoon = %v, want %v", got.ExpiringSoon, tt.wantSoon)
			}
			if got.DaysRemaining != tt.wantRemaining {
				t.Errorf("DaysRemaining = %d, want %d", got.DaysRemaining, tt.wantRemaining)
			}
		})
	}
}

func TestClassifyExpiryAcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// Reference sits in EST; the US spring-forward on 2026-03-08 falls inside
	// the range, so hour-based arithmetic would undercount by one.
	reference := time.Date(2026, 3, 5, 14, 0, 0, 0, loc)

	eleven := ClassifyExpiry(time.Date(2026, 3, 16, 0, 0, 0, 0, loc), reference)
	if eleven.ExpiringSoon || eleven.DaysRemaining != 11 {
		t.Errorf("11 calendar days out = %+v, want excluded with 11 remaining", eleven)
	}

	ten := ClassifyExpiry(time.Date(2026, 3, 15, 0, 0, 0, 0, loc), reference)
	if !ten.ExpiringSoon || ten.DaysRemaining != 10 {
		t.Errorf("10 calendar days out = %+v, want expiring soon with 10 remaining", ten)
	}
}

func TestClassifyExpiryNeverBothStates(t *testing.T) {
	reference := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

	for offset := -20; offset <= 20; offset++ {
		expiry := reference.AddDate(0, 0, offset)
		got := ClassifyExpiry(expiry, reference)
		if got.Expired && got.ExpiringSoon {
			t.Errorf("offset %d: expiry classified as both expired and expiring soon", offset)
		}
	}
}
