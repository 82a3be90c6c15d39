package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	UserID    string `json:"sub"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	JTI       string `json:"jti"`
	jwt.RegisteredClaims
}

// Manager mints and verifies session tokens. The server is stateless with
// respect to them: logout is a client-side cookie wipe, there is no
// revocation list.
type Manager struct {
	secret     []byte
	sessionTTL time.Duration
}

func NewManager(secret string, sessionTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
	}
}

// Issue signs a session token bound to the user id, expiring after the
// configured session TTL.
func (m *Manager) Issue(userID, role string) (token string, expiresAt time.Time, err error) {
	now := time.Now().UTC()
	expiresAt = now.Add(m.sessionTTL)

	claims := Claims{
		UserID:    userID,
		Role:      role,
		TokenType: "session",
		JTI:       uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Subject:   userID,
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	token, err = t.SignedString(m.secret)

	return
}

// Verify checks signature, expiry and token type; any failure yields a
// generic error.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.TokenType != "session" {
		return nil, errors.New("invalid token type")
	}

	if claims.UserID == "" {
		return nil, errors.New("missing subject")
	}

	return claims, nil
}
