package event

const UserRegistrationTopic string = "user.registration"
const UserRegistrationConsumerNotification string = "user_registration_notification"

type UserRegistrationMessage struct {
	UserID    int64  `json:"user_id,string"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	VerifyURL string `json:"verify_url"`
}
