package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campushub/campusevents/internal/domain/user"
)

func repoWithCode(code string, expiresAt time.Time) *UsersRepo {
	r := NewUsersRepo()

	r.Seed(user.User{
		ID:                        "u1",
		Email:                     "ada@campus.edu",
		Name:                      "Ada Lovelace",
		Role:                      user.RoleStudent,
		VerificationCode:          &code,
		VerificationCodeExpiresAt: &expiresAt,
	})

	return r
}

// The SQL claim uses a strict `expiry > now`, so a code stops working at the
// exact expiry instant, not one tick later.
func TestClaimVerificationCodeExpiryBoundary(t *testing.T) {
	expiry := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	t.Run("just_before_expiry_redeems", func(t *testing.T) {
		r := repoWithCode("654321", expiry)

		u, err := r.ClaimVerificationCode(context.Background(), "654321", expiry.Add(-time.Nanosecond))
		if err != nil {
			t.Fatalf("claim just before expiry: %v", err)
		}
		if !u.IsVerified || u.VerificationCode != nil {
			t.Fatalf("claim did not update the row: %+v", u)
		}
	})

	t.Run("at_expiry_instant_rejected", func(t *testing.T) {
		r := repoWithCode("654321", expiry)

		_, err := r.ClaimVerificationCode(context.Background(), "654321", expiry)
		if !errors.Is(err, user.ErrCodeInvalid) {
			t.Fatalf("claim at the expiry instant: got %v, want ErrCodeInvalid", err)
		}
	})

	t.Run("after_expiry_rejected", func(t *testing.T) {
		r := repoWithCode("654321", expiry)

		_, err := r.ClaimVerificationCode(context.Background(), "654321", expiry.Add(time.Minute))
		if !errors.Is(err, user.ErrCodeInvalid) {
			t.Fatalf("claim after expiry: got %v, want ErrCodeInvalid", err)
		}
	})
}
