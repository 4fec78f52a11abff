package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plaintext credential using bcrypt with DefaultCost.
// Used for both employee passwords and application client secrets.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

// CheckPassword compares a bcrypt hash with a candidate plaintext credential.
// bcrypt's comparison is constant-time for equal-cost hashes.
func CheckPassword(hash, pw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
}
