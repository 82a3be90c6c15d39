package jobs

// SendVerificationCodePayload carries everything the worker needs to deliver
// a verification code mail. Payloads stay denormalized on purpose: the code
// column may already be cleared by the time the job runs, the mail should
// still go out with the code that was issued.
type SendVerificationCodePayload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Code   string `json:"code"`
}

// SendWelcomePayload is enqueued after a successful email verification.
type SendWelcomePayload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}
