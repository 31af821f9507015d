package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/communeo/communeo-api/internal/domain/auth"
	"github.com/communeo/communeo-api/internal/domain/model"
	"github.com/communeo/communeo-api/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.AuthProvider
	Sessions ports.SessionStore
	Roles    ports.RoleMapper

	// Optional: session change feed; publish failures are logged, not fatal.
	Events ports.SessionEvents
	// Optional: used to provision a profile on first login.
	Profiles ProfileProvisioner
	Logger   *slog.Logger
}

// ProfileProvisioner is the slice of the profile service the auth flow needs
// to register first-time users.
type ProfileProvisioner interface {
	EnsureProfile(ctx context.Context, userID, email string, role domainauth.Role) (*model.Profile, error)
}

// AuthService orchestrates authentication flows by coordinating provider,
// role mapping, and session persistence.
type AuthService struct {
	provider ports.AuthProvider
	sessions ports.SessionStore
	roles    ports.RoleMapper
	events   ports.SessionEvents
	profiles ProfileProvisioner
	logger   *slog.Logger
}

var errSessionExpired = errors.New("session expired")

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		provider: opts.Provider,
		sessions: opts.Sessions,
		roles:    opts.Roles,
		events:   opts.Events,
		profiles: opts.Profiles,
		logger:   logger,
	}
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an authentication flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	input := ports.BeginInput{RedirectURL: redirectURL}
	authURL, state, nonce, err := s.provider.Begin(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	return &BeginLoginResult{
		AuthURL: authURL,
		State:   state,
		Nonce:   nonce,
	}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLoginResult contains the result of completing a login flow.
type CompleteLoginResult struct {
	Session domainauth.Session
}

// CompleteLogin completes an authentication flow by exchanging the code for
// an identity, mapping roles, persisting a session, and announcing the
// sign-in on the session feed.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*CompleteLoginResult, error) {
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	// Exchange authorization code for identity
	exchangeInput := ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	}
	identity, err := s.provider.Exchange(ctx, exchangeInput)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	// Map provider groups to a provisional role; the stored profile is the
	// authoritative source and the auth-state watcher reconciles them.
	role := s.roles.Map(identity.Groups)

	now := time.Now()
	session := domainauth.Session{
		ID:        uuid.New().String(),
		UserID:    identity.UserID,
		Email:     identity.Email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: identity.ExpiresAt,
	}

	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	// First-time users get a profile so the rest of the app can attach a
	// commune and role to them. Not fatal when the store is briefly down;
	// the next login retries.
	if s.profiles != nil {
		if _, provErr := s.profiles.EnsureProfile(ctx, identity.UserID, identity.Email, role); provErr != nil {
			s.logger.WarnContext(ctx, "profile provisioning failed",
				"user_id", identity.UserID, "error", provErr)
		}
	}

	s.publishEvent(ctx, domainauth.SessionEvent{
		Type:    domainauth.SessionSignedIn,
		Session: &session,
	})

	return &CompleteLoginResult{Session: session}, nil
}

// GetSession retrieves a session by ID.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	// Check if session is expired
	if time.Now().After(session.ExpiresAt) {
		// Clean up expired session
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		s.publishEvent(ctx, domainauth.SessionEvent{Type: domainauth.SessionSignedOut})
		return nil, errSessionExpired
	}

	return &session, nil
}

// Logout removes a session and announces the sign-out.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to logout
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.publishEvent(ctx, domainauth.SessionEvent{Type: domainauth.SessionSignedOut})
	return nil
}

// IsSessionExpired reports whether err marks an expired session.
func IsSessionExpired(err error) bool {
	return errors.Is(err, errSessionExpired)
}

func (s *AuthService) publishEvent(ctx context.Context, ev domainauth.SessionEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil && ctx.Err() == nil {
		s.logger.WarnContext(ctx, "publish session event failed", "type", ev.Type, "error", err)
	}
}
