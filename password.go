package main

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const passwordHashCost = bcrypt.DefaultCost

func hashPassword(pwd string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pwd), passwordHashCost)
	if err != nil {
		return "", err
	}

	return string(h), nil
}

func isPasswordHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// verifyPassword accepts both bcrypt-hashed and legacy plaintext stored passwords.
func verifyPassword(pwd, stored string) bool {
	if isPasswordHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(pwd)) == nil
	}

	return subtle.ConstantTimeCompare([]byte(pwd), []byte(stored)) == 1
}
