package entity

import "time"

// Kind identifies a transactional email.
type Kind int

const (
	KindUnknown Kind = iota
	KindVerifyEmail
	KindCredentialReset
)

func (k Kind) String() string {
	switch k {
	case KindVerifyEmail:
		return "verify_email"
	case KindCredentialReset:
		return "credential_reset"
	default:
		return "unknown"
	}
}

// Subject is the email subject line of the kind.
func (k Kind) Subject() string {
	switch k {
	case KindVerifyEmail:
		return "Verify Your Email"
	case KindCredentialReset:
		return "Your password was changed"
	default:
		return ""
	}
}

type Email struct {
	Kind     Kind
	To       string
	TextBody string
	HTMLBody string
}

type VerifyEmailData struct {
	FirstName string
	VerifyURL string
}

type CredentialResetData struct {
	Email   string
	ResetAt time.Time
	// SupportURL is where the user goes when they did not reset the password.
	SupportURL string
}
