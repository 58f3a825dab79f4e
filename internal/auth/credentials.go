// Package auth implements the admin credential check and the session cookie gate.
package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier decides whether a username/password pair may open an admin session.
type CredentialVerifier interface {
	Verify(username, password string) bool
}

// StaticCredentials checks against a single configured admin account. When
// PasswordHash is set it is a bcrypt hash and takes precedence over Password.
type StaticCredentials struct {
	Username     string
	Password     string
	PasswordHash string
}

func (c StaticCredentials) Verify(username, password string) bool {
	if c.Username == "" || password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	switch {
	case c.PasswordHash != "":
		err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password))
		return userOK && err == nil
	case c.Password != "":
		passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
		return userOK && passOK
	default:
		return false
	}
}

// Configured reports whether any password has been set.
func (c StaticCredentials) Configured() bool {
	return c.Username != "" && (c.Password != "" || c.PasswordHash != "")
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
