package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"unicode/utf8"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// FirebaseOptions configures the Firebase provider. All values come from
// the environment.
type FirebaseOptions struct {
	ProjectID       string
	APIKey          string
	CredentialsFile string
	Endpoint        string
}

// Firebase signs operators in with the Identity Toolkit password endpoint
// and manages accounts through the Admin SDK.
type Firebase struct {
	opts    FirebaseOptions
	admin   *auth.Client
	toolkit *identitytoolkit.Service
}

// NewFirebase initializes the primary app and the sign-in client.
func NewFirebase(ctx context.Context, opts FirebaseOptions) (*Firebase, error) {
	if opts.ProjectID == "" {
		return nil, errors.New("firebase project id is empty")
	}
	if opts.APIKey == "" {
		return nil, errors.New("firebase api key is empty")
	}

	admin, err := newAuthClient(ctx, opts)
	if err != nil {
		return nil, err
	}

	toolkitOpts := []option.ClientOption{option.WithAPIKey(opts.APIKey)}
	if opts.Endpoint != "" {
		toolkitOpts = append(toolkitOpts, option.WithEndpoint(opts.Endpoint))
	}
	toolkit, err := identitytoolkit.NewService(ctx, toolkitOpts...)
	if err != nil {
		return nil, fmt.Errorf("init identity toolkit: %w", err)
	}

	return &Firebase{opts: opts, admin: admin, toolkit: toolkit}, nil
}

// newAuthClient creates an independent firebase.App and its auth client.
func newAuthClient(ctx context.Context, opts FirebaseOptions) (*auth.Client, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: opts.ProjectID}, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}
	return client, nil
}

func (f *Firebase) SignIn(ctx context.Context, email, password string) (*User, error) {
	req := &identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}
	resp, err := f.toolkit.Relyingparty.VerifyPassword(req).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest && isCredentialError(gerr.Message) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return &User{UID: resp.LocalId, Email: resp.Email, DisplayName: resp.DisplayName}, nil
}

func isCredentialError(msg string) bool {
	for _, code := range []string{"INVALID_PASSWORD", "EMAIL_NOT_FOUND", "INVALID_LOGIN_CREDENTIALS", "INVALID_EMAIL", "USER_DISABLED"} {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}

// SignOut revokes the user's refresh tokens.
func (f *Firebase) SignOut(ctx context.Context, uid string) error {
	if uid == "" {
		return nil
	}
	if err := f.admin.RevokeRefreshTokens(ctx, uid); err != nil {
		return fmt.Errorf("sign out %s: %w", uid, err)
	}
	return nil
}

// OpenSession initializes a dedicated app for one import run.
func (f *Firebase) OpenSession(ctx context.Context) (Session, error) {
	client, err := newAuthClient(ctx, f.opts)
	if err != nil {
		return nil, fmt.Errorf("open secondary session: %w", err)
	}
	return &firebaseSession{client: client}, nil
}

type firebaseSession struct {
	mu     sync.Mutex
	client *auth.Client
}

func (s *firebaseSession) CreateAccount(ctx context.Context, email, password string) (string, error) {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()
	if client == nil {
		return "", ErrSessionClosed
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}

	params := (&auth.UserToCreate{}).Email(email).Password(password)
	u, err := client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", ErrEmailExists
		}
		return "", fmt.Errorf("create account %s: %w", email, err)
	}
	return u.UID, nil
}

// Close drops the session's auth client. The per-run app holds nothing else.
func (s *firebaseSession) Close() error {
	s.mu.Lock()
	s.client = nil
	s.mu.Unlock()
	return nil
}

var _ Provider = (*Firebase)(nil)
