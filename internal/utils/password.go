package utils

import "golang.org/x/crypto/bcrypt"

// Hasher hashes and verifies passwords with bcrypt at a fixed cost.  Every
// hash carries its own random salt.
type Hasher struct {
	Cost int
}

func NewHasher(cost int) Hasher { return Hasher{Cost: cost} }

// Hash returns the bcrypt hash of plain.
func (h Hasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify safely compares a bcrypt hash and a plain password.
func (h Hasher) Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
