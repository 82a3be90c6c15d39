package notifications

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// LogNotifier is the dev/test notifier: it only logs. Env knobs let tests
// and local runs simulate a slow or failing provider.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) SendVerificationCode(ctx context.Context, in SendVerificationCodeInput) error {
	if err := simulateProvider(ctx); err != nil {
		return err
	}

	log.Printf("notification.verification_code email=%s name=%s code=%s", in.Email, in.Name, in.Code)
	return nil
}

func (n *LogNotifier) SendWelcome(ctx context.Context, in SendWelcomeInput) error {
	if err := simulateProvider(ctx); err != nil {
		return err
	}

	log.Printf("notification.welcome email=%s name=%s", in.Email, in.Name)
	return nil
}

func simulateProvider(ctx context.Context) error {
	// Optional: simulate slow provider
	if msStr := os.Getenv("NOTIFIER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	// Optional: simulate provider outage
	if os.Getenv("NOTIFIER_FAIL") == "1" {
		return fmt.Errorf("provider down (simulated)")
	}

	return nil
}
