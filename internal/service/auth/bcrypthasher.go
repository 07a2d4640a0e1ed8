package auth

import (
	"crypto/sha256"

	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher hashes passwords with bcrypt at the default cost.
// Inputs are pre-hashed with sha256 so passwords longer than bcrypt's
// 72 byte limit still work
type BcryptHasher struct{}

func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return sum[:]
}

func (h BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(password), bcrypt.DefaultCost)
	return string(hash), err
}

func (h BcryptHasher) Compare(hashedPassword string, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), prehash(password))
}
