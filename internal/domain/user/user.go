package user

import (
	"errors"
	"time"
)

const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
	// wrong code, expired code and already-consumed code are deliberately
	// indistinguishable to the caller
	ErrCodeInvalid = errors.New("invalid or expired verification code")
)

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"` // never expose hash in JSON
	Role         string `json:"role"`

	IsVerified bool `json:"isVerified"`
	// both set while a verification is pending, both nil otherwise
	VerificationCode          *string    `json:"-"`
	VerificationCodeExpiresAt *time.Time `json:"-"`

	IsFacultyVerified bool    `json:"isFacultyVerified"`
	VerifiedBy        *string `json:"verifiedBy,omitempty"`
	CanAddEvent       bool    `json:"canAddEvent"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public is the outbound projection of a user. It exists so no handler can
// accidentally serialize credential material.
type Public struct {
	ID                string  `json:"id"`
	Email             string  `json:"email"`
	Name              string  `json:"name"`
	Role              string  `json:"role"`
	IsVerified        bool    `json:"isVerified"`
	IsFacultyVerified bool    `json:"isFacultyVerified"`
	VerifiedBy        *string `json:"verifiedBy,omitempty"`
	CanAddEvent       bool    `json:"canAddEvent"`
}

func (u User) Public() Public {
	return Public{
		ID:                u.ID,
		Email:             u.Email,
		Name:              u.Name,
		Role:              u.Role,
		IsVerified:        u.IsVerified,
		IsFacultyVerified: u.IsFacultyVerified,
		VerifiedBy:        u.VerifiedBy,
		CanAddEvent:       u.CanAddEvent,
	}
}

// VerifiedStudent is a student row with the verifying faculty's contact
// resolved (weak back-reference lookup, not an ownership join).
type VerifiedStudent struct {
	Public
	VerifiedByName  *string `json:"verifiedByName,omitempty"`
	VerifiedByEmail *string `json:"verifiedByEmail,omitempty"`
}

func ValidRole(role string) bool {
	return role == RoleStudent || role == RoleFaculty
}
