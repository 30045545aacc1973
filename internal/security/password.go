// Package security wraps bcrypt for the admin credential check.
package security

import "golang.org/x/crypto/bcrypt"

// Fixed cost so ADMIN_PASSWORD_HASH generated out of band stays cheap to
// verify under the login rate limit.
const hashCost = bcrypt.DefaultCost

func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), hashCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
