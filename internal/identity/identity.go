// Package identity is the operator and employee account contract used by the
// console. Operators sign in through a Provider; the employee import creates
// accounts on an isolated Session so the operator's own sign-in is never
// replaced by the account being created.
package identity

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredentials is returned by SignIn for a bad email/password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailExists is returned by CreateAccount when the email is taken.
	ErrEmailExists = errors.New("email already in use")

	// ErrWeakPassword is returned by CreateAccount for passwords under six characters.
	ErrWeakPassword = errors.New("password must be at least 6 characters")

	// ErrSessionClosed is returned when a closed Session is used.
	ErrSessionClosed = errors.New("identity session closed")
)

// MinPasswordLength is the shortest password the provider accepts.
const MinPasswordLength = 6

// User is a signed-in principal.
type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// Provider signs operators in and out and opens secondary sessions.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*User, error)
	SignOut(ctx context.Context, uid string) error
	OpenSession(ctx context.Context) (Session, error)
}

// Session is a secondary identity context scoped to one import run.
// It must be closed on every exit path.
type Session interface {
	CreateAccount(ctx context.Context, email, password string) (uid string, err error)
	Close() error
}
