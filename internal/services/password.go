package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"finwise/internal/apperr"
)

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

// HashPassword returns a salted bcrypt hash of password.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperr.Validation(apperr.CodeInvalidFields, "Password must be at most 72 bytes.", "password")
	}
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
// VerifyPassword compares plaintext against a stored bcrypt hash.
func VerifyPassword(plaintext, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext)) == nil
}
