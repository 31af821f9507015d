package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	domainauth "github.com/communeo/communeo-api/internal/domain/auth"
	"github.com/communeo/communeo-api/internal/domain/model"
	"github.com/communeo/communeo-api/internal/ports"
)

// ProfileResolver resolves a user's stored profile. Absence is (nil, nil);
// an error means infrastructure failure, not a missing row.
type ProfileResolver interface {
	Resolve(ctx context.Context, userID string) (*model.Profile, error)
}

// SessionTerminator ends a session by id.
type SessionTerminator interface {
	Logout(ctx context.Context, sessionID string) error
}

// AuthStateServiceOptions groups dependencies for AuthStateService.
type AuthStateServiceOptions struct {
	Events   ports.SessionEvents // Required: session change feed
	Profiles ProfileResolver     // Required: profile lookup
	Sessions SessionTerminator   // Optional: SignOut delegation target
	Logger   *slog.Logger        // Optional: structured logger
}

// AuthStateService maintains the merged authentication state for the
// process: the current user built from the active session and its profile,
// plus a loading flag.
//
// Session change notifications are processed strictly in order, one merge at
// a time. Each notification produces a complete new state that replaces the
// previous one atomically; observers never see a half-built user. When the
// profile lookup fails or finds nothing the user falls back to the minimal
// user role rather than surfacing an error.
type AuthStateService struct {
	events   ports.SessionEvents
	profiles ProfileResolver
	sessions SessionTerminator
	logger   *slog.Logger

	mu        sync.Mutex
	state     model.AuthState
	sessionID string
	gen       uint64

	subMu   sync.Mutex
	subs    map[int]func(model.AuthState)
	nextSub int
}

// NewAuthStateService constructs a new AuthStateService with validation.
func NewAuthStateService(opts AuthStateServiceOptions) (*AuthStateService, error) {
	if opts.Events == nil {
		return nil, errors.New("SessionEvents is required")
	}
	if opts.Profiles == nil {
		return nil, errors.New("ProfileResolver is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "auth_state_service")
	}

	return &AuthStateService{
		events:   opts.Events,
		profiles: opts.Profiles,
		sessions: opts.Sessions,
		logger:   logger,
		state:    model.AuthState{Loading: true},
		subs:     make(map[int]func(model.AuthState)),
	}, nil
}

// State returns the current authentication state.
func (s *AuthStateService) State() model.AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to be called once per state transition and returns
// an unsubscribe function. The callback runs synchronously on the merging
// goroutine, so it must not block.
func (s *AuthStateService) Subscribe(fn func(model.AuthState)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// Run subscribes to the session feed and processes notifications until ctx
// is done. It returns nil on graceful shutdown.
func (s *AuthStateService) Run(ctx context.Context) error {
	ch, err := s.events.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe session events: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "auth state watcher started")
	}

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			s.handle(ctx, ev)
		}
	}
}

// SignOut terminates the active session and clears the local user. The local
// state is cleared even when the remote sign-out fails.
func (s *AuthStateService) SignOut(ctx context.Context) error {
	s.mu.Lock()
	sessionID := s.sessionID
	s.mu.Unlock()

	var err error
	if s.sessions != nil && sessionID != "" {
		if logoutErr := s.sessions.Logout(ctx, sessionID); logoutErr != nil {
			err = fmt.Errorf("sign out session: %w", logoutErr)
			if s.logger != nil {
				s.logger.WarnContext(ctx, "remote sign-out failed", "error", logoutErr)
			}
		}
	}

	s.apply(func() {
		s.state = model.AuthState{Loading: false}
		s.sessionID = ""
		s.gen++
	})
	return err
}

// handle merges one session notification into the state.
func (s *AuthStateService) handle(ctx context.Context, ev domainauth.SessionEvent) {
	if ev.Type != domainauth.SessionSignedIn || ev.Session == nil {
		s.apply(func() {
			s.state = model.AuthState{Loading: false}
			s.sessionID = ""
			s.gen++
		})
		return
	}

	sess := *ev.Session

	// Remember which merge this lookup belongs to. A sign-out or a newer
	// sign-in that lands while the profile query is in flight wins.
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	user := s.buildUser(ctx, sess)

	s.apply(func() {
		if s.gen != gen {
			return // superseded; a later transition already applied
		}
		s.state = model.AuthState{User: &user, Loading: false}
		s.sessionID = sess.ID
	})
}

// buildUser resolves the profile and merges it with the session. Resolution
// failures fall back to the minimal-role user; they never surface.
func (s *AuthStateService) buildUser(ctx context.Context, sess domainauth.Session) model.User {
	profile, err := s.profiles.Resolve(ctx, sess.UserID)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "profile resolution failed, using fallback user",
				"user_id", sess.UserID, "error", err)
		}
		return model.FallbackUser(sess)
	}
	return model.NewUser(sess, profile)
}

// apply runs fn under the state lock and then notifies subscribers exactly
// once with the resulting state.
func (s *AuthStateService) apply(fn func()) {
	s.mu.Lock()
	before := s.state
	fn()
	after := s.state
	s.mu.Unlock()

	// A superseded merge leaves the state untouched; no notification then.
	if before == after {
		return
	}

	s.subMu.Lock()
	fns := make([]func(model.AuthState), 0, len(s.subs))
	for _, f := range s.subs {
		fns = append(fns, f)
	}
	s.subMu.Unlock()

	for _, f := range fns {
		f(after)
	}
}
