package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNotifier struct {
	err   error
	calls int
}

func (s *stubNotifier) SendVerificationCode(_ context.Context, _ SendVerificationCodeInput) error {
	s.calls++
	return s.err
}

func (s *stubNotifier) SendWelcome(_ context.Context, _ SendWelcomeInput) error {
	s.calls++
	return s.err
}

func TestCircuitOpensAfterThreshold(t *testing.T) {
	inner := &stubNotifier{err: errors.New("relay down")}

	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		Timeout:          time.Second,
		FailureThreshold: 3,
		Cooldown:         time.Hour,
	})

	input := SendWelcomeInput{Email: "a@b.c"}

	for i := 0; i < 3; i++ {
		err := n.SendWelcome(context.Background(), input)
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrCircuitOpen, "call %d should reach the relay", i+1)
	}

	// fourth call is rejected without touching the relay
	err := n.SendWelcome(context.Background(), input)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 3, inner.calls)
}

func TestCircuitRecoversAfterCooldown(t *testing.T) {
	inner := &stubNotifier{err: errors.New("relay down")}

	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		Timeout:          time.Second,
		FailureThreshold: 1,
		Cooldown:         30 * time.Millisecond,
	})

	input := SendWelcomeInput{Email: "a@b.c"}

	require.Error(t, n.SendWelcome(context.Background(), input))
	require.ErrorIs(t, n.SendWelcome(context.Background(), input), ErrCircuitOpen)

	time.Sleep(50 * time.Millisecond)

	// relay recovered: half-open trial succeeds and closes the circuit
	inner.err = nil

	require.NoError(t, n.SendWelcome(context.Background(), input))
	require.NoError(t, n.SendWelcome(context.Background(), input))
}

func TestCircuitReopensOnHalfOpenFailure(t *testing.T) {
	inner := &stubNotifier{err: errors.New("relay down")}

	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		Timeout:          time.Second,
		FailureThreshold: 1,
		Cooldown:         20 * time.Millisecond,
	})

	input := SendWelcomeInput{Email: "a@b.c"}

	require.Error(t, n.SendWelcome(context.Background(), input))

	time.Sleep(30 * time.Millisecond)

	// half-open trial fails, circuit snaps open again
	require.Error(t, n.SendWelcome(context.Background(), input))
	require.ErrorIs(t, n.SendWelcome(context.Background(), input), ErrCircuitOpen)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	inner := &stubNotifier{}

	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		Timeout:          time.Second,
		FailureThreshold: 2,
		Cooldown:         time.Hour,
	})

	input := SendWelcomeInput{Email: "a@b.c"}

	inner.err = errors.New("blip")
	require.Error(t, n.SendWelcome(context.Background(), input))

	inner.err = nil
	require.NoError(t, n.SendWelcome(context.Background(), input))

	inner.err = errors.New("blip")
	// one failure after a success must not trip a threshold of two
	err := n.SendWelcome(context.Background(), input)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCircuitOpen)
}
