package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIssuance_RetryAfter(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	window := 120 * time.Second

	tests := []struct {
		name   string
		oldest time.Time
		want   time.Duration
	}{
		{"JustIssued", now, window},
		{"HalfWay", now.Add(-60 * time.Second), 60 * time.Second},
		{"AlmostOut", now.Add(-119*time.Second - 500*time.Millisecond), time.Second},
		{"AlreadyOut", now.Add(-3 * time.Minute), time.Second},
		{"ClockSkewFuture", now.Add(10 * time.Second), window},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Issuance{OldestAttempt: tt.oldest}.RetryAfter(now, window)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCodeCheck_String(t *testing.T) {
	assert.Equal(t, "valid", CodeValid.String())
	assert.Equal(t, "expired", CodeExpired.String())
	assert.Equal(t, "used", CodeUsed.String())
	assert.Equal(t, "unknown", CodeUnknown.String())
	assert.Equal(t, "unknown", CodeCheck(42).String())
}
