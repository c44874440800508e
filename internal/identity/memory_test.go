package identity

import (
	"context"
	"errors"
	"testing"
)

func TestMemory_SignIn(t *testing.T) {
	ctx := context.Background()
	p := NewMemory("admin@example.com:secret1", "broken")

	u, err := p.SignIn(ctx, "Admin@Example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if u.Email != "admin@example.com" || u.UID == "" {
		t.Errorf("SignIn() = %+v, want email and uid", u)
	}

	if _, err := p.SignIn(ctx, "admin@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("SignIn(wrong) error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := p.SignIn(ctx, "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("SignIn(unknown) error = %v, want ErrInvalidCredentials", err)
	}
}

func TestMemory_SessionCreateAccount(t *testing.T) {
	ctx := context.Background()
	p := NewMemory("taken@example.com:secret1")

	s, err := p.OpenSession(ctx)
	if err != nil {
		t.Fatalf("OpenSession() error = %v", err)
	}
	if p.OpenSessions() != 1 {
		t.Errorf("OpenSessions() = %d, want 1", p.OpenSessions())
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"fresh", "new@example.com", "123456", nil},
		{"taken", "taken@example.com", "123456", ErrEmailExists},
		{"weak", "weak@example.com", "12345", ErrWeakPassword},
		{"wide", "wide@example.com", "あいうえおか", nil},
		{"wide weak", "narrow@example.com", "あいう", ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uid, err := s.CreateAccount(ctx, tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateAccount() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && uid == "" {
				t.Error("CreateAccount() returned empty uid")
			}
		})
	}

	if _, err := s.CreateAccount(ctx, "bad-email", "123456"); err == nil {
		t.Error("CreateAccount() with invalid email should fail")
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	_ = s.Close()
	if p.OpenSessions() != 0 {
		t.Errorf("OpenSessions() after Close = %d, want 0", p.OpenSessions())
	}
	if _, err := s.CreateAccount(ctx, "late@example.com", "123456"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("CreateAccount() after Close error = %v, want ErrSessionClosed", err)
	}

	if _, err := p.SignIn(ctx, "new@example.com", "123456"); err != nil {
		t.Errorf("created account cannot sign in: %v", err)
	}
}

func TestIsCredentialError(t *testing.T) {
	tests := map[string]bool{
		"INVALID_PASSWORD":          true,
		"EMAIL_NOT_FOUND":           true,
		"INVALID_LOGIN_CREDENTIALS": true,
		"QUOTA_EXCEEDED":            false,
	}
	for msg, want := range tests {
		if got := isCredentialError(msg); got != want {
			t.Errorf("isCredentialError(%q) = %v, want %v", msg, got, want)
		}
	}
}
