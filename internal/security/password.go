package security

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plain text password with bcrypt. The default cost
// (10) matches what the rest of campus infrastructure uses.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
// bcrypt's compare is constant-time.
func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
