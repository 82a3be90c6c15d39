package notifications

import "context"

type SendVerificationCodeInput struct {
	Email string
	Name  string
	Code  string
}

type SendWelcomeInput struct {
	Email string
	Name  string
}

// Notifier delivers account emails. Callers treat delivery as best-effort:
// failures are logged/retried out of band and never fail the triggering
// operation.
type Notifier interface {
	SendVerificationCode(ctx context.Context, input SendVerificationCodeInput) error
	SendWelcome(ctx context.Context, input SendWelcomeInput) error
}
