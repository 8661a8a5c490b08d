package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const passwordCost = 10

// MinPasswordLength is enforced on registration and on team member passwords.
const MinPasswordLength = 8

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(bytes), nil
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NormalizeCNIC strips dashes and whitespace so "12345-1234567-1" and
// "1234512345671" identify the same person.
func NormalizeCNIC(cnic string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, cnic)
}
