package entity

import "time"

// NewCode is a one-time code ready to be persisted. CodeHash is the keyed
// digest of the plaintext code; the plaintext never reaches the database.
type NewCode struct {
	ID        int64
	Email     string
	CodeHash  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IssueLimit bounds how many codes an account may receive within Window.
type IssueLimit struct {
	Max    int
	Window time.Duration
}

// Issuance is the outcome of an issue attempt. When Allowed is false nothing
// was written and OldestAttempt is the earliest attempt still inside the window.
type Issuance struct {
	Allowed       bool
	OldestAttempt time.Time
}

// RetryAfter is how long the caller must wait before the oldest attempt
// leaves the window, never less than one second.
func (i Issuance) RetryAfter(now time.Time, window time.Duration) time.Duration {
	wait := i.OldestAttempt.Add(window).Sub(now)
	if wait < time.Second {
		return time.Second
	}
	if wait > window {
		return window
	}
	return wait
}

// CodeCheck is the internal verdict on a submitted code. Callers outside the
// module only learn whether it was CodeValid.
type CodeCheck int

const (
	CodeUnknown CodeCheck = iota
	CodeValid
	CodeExpired
	CodeUsed
)

func (c CodeCheck) String() string {
	switch c {
	case CodeValid:
		return "valid"
	case CodeExpired:
		return "expired"
	case CodeUsed:
		return "used"
	default:
		return "unknown"
	}
}

// Grant authorizes exactly one password reset for Email until ExpiresAt.
type Grant struct {
	Token     string
	Email     string
	ExpiresAt time.Time
}

// SweepResult counts rows removed by one sweep.
type SweepResult struct {
	Codes    int64
	Attempts int64
}
