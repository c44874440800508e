package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
)

type memAccount struct {
	uid      string
	password string
}

// Memory is an in-process Provider for development and tests.
type Memory struct {
	mu       sync.Mutex
	accounts map[string]memAccount
	signOuts []string
	open     int
	opened   int
}

// NewMemory returns a provider seeded with email:password pairs.
func NewMemory(seed ...string) *Memory {
	m := &Memory{accounts: make(map[string]memAccount)}
	for _, pair := range seed {
		email, password, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		m.accounts[strings.ToLower(strings.TrimSpace(email))] = memAccount{uid: uuid.NewString(), password: password}
	}
	return m
}

func (m *Memory) SignIn(ctx context.Context, email, password string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	acct, ok := m.accounts[email]
	if !ok || acct.password != password {
		return nil, ErrInvalidCredentials
	}
	return &User{UID: acct.uid, Email: email}, nil
}

func (m *Memory) SignOut(ctx context.Context, uid string) error {
	m.mu.Lock()
	m.signOuts = append(m.signOuts, uid)
	m.mu.Unlock()
	return nil
}

func (m *Memory) OpenSession(ctx context.Context) (Session, error) {
	m.mu.Lock()
	m.open++
	m.opened++
	m.mu.Unlock()
	return &memSession{provider: m}, nil
}

// OpenSessions reports sessions opened but not yet closed.
func (m *Memory) OpenSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// SessionsOpened reports how many sessions were ever opened.
func (m *Memory) SessionsOpened() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened
}

// HasAccount reports whether email is registered.
func (m *Memory) HasAccount(email string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.accounts[strings.ToLower(email)]
	return ok
}

type memSession struct {
	provider *Memory
	closed   bool
}

func (s *memSession) CreateAccount(ctx context.Context, email, password string) (string, error) {
	m := s.provider
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.closed {
		return "", ErrSessionClosed
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return "", fmt.Errorf("create account %q: invalid email", email)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	if _, ok := m.accounts[email]; ok {
		return "", ErrEmailExists
	}

	uid := uuid.NewString()
	m.accounts[email] = memAccount{uid: uid, password: password}
	return uid, nil
}

func (s *memSession) Close() error {
	m := s.provider
	m.mu.Lock()
	defer m.mu.Unlock()
	if !s.closed {
		s.closed = true
		m.open--
	}
	return nil
}

var _ Provider = (*Memory)(nil)
