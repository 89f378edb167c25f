package event

import "time"

const CredentialResetTopic string = "credential.reset"
const CredentialResetConsumerNotification string = "credential_reset_notification"

// CredentialResetMessage is published after a password was replaced through
// the one-time-code recovery flow.
type CredentialResetMessage struct {
	Email   string    `json:"email"`
	ResetAt time.Time `json:"reset_at"`
}
