package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"bucketdrop/internal/config"
)

// Outcome is the three-variant result of a login attempt. The zero
// value means no credentials were submitted at all, which the UI
// renders as a warning rather than an error.
type Outcome int

const (
	Unattempted Outcome = iota
	Rejected
	Accepted
)

// Resolver checks submitted credentials against the static user table
type Resolver struct {
	users map[string]config.User
}

// NewResolver creates a Resolver from the configured user table
func NewResolver(users map[string]config.User) *Resolver {
	return &Resolver{users: users}
}

// Verify checks username/password. Empty credentials yield Unattempted;
// unknown users and wrong passwords both yield Rejected.
func (r *Resolver) Verify(username, password string) Outcome {
	if username == "" && password == "" {
		return Unattempted
	}

	u, ok := r.users[username]
	if !ok {
		return Rejected
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Rejected
	}

	return Accepted
}

// DisplayName returns the configured display name for username,
// falling back to the username itself.
func (r *Resolver) DisplayName(username string) string {
	if u, ok := r.users[username]; ok && u.Name != "" {
		return u.Name
	}
	return username
}

// Exists reports whether username is in the user table
func (r *Resolver) Exists(username string) bool {
	_, ok := r.users[username]
	return ok
}

// HashPassword generates a bcrypt hash suitable for the user table.
// The hasher page uses it to provision new accounts.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
