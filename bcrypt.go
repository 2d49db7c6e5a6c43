package authkit

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// PasswordMinLength is the shortest password we accept
	PasswordMinLength = 8
	// PasswordMaxLength is the longest password we accept
	PasswordMaxLength = 100
)

// ValidatePassword enforces the password length policy. It runs before any
// hashing work so malformed input never reaches bcrypt.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrNoEmptyString
	}

	if len(password) < PasswordMinLength || len(password) > PasswordMaxLength {
		return ErrPasswordLength
	}

	return nil
}

// HashPassword will generate a password hash. Each call salts independently,
// so hashing the same password twice yields different strings.
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}

	h, err := bcrypt.GenerateFromPassword(bcryptInput(password), passwordHashCost())
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// bcrypt only reads the first 72 bytes of its input. We accept passwords up
// to 100 characters, so truncate on both paths to keep hash and compare
// consistent instead of letting GenerateFromPassword reject long input.
func bcryptInput(password string) []byte {
	b := []byte(password)
	if len(b) > 72 {
		b = b[:72]
	}
	return b
}

// RandomPasswordHash is a temporary password
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}
