package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/multierr"

	pkgerrors "github.com/coffeeclub/coffeeclub-client/pkg/errors"
	"github.com/coffeeclub/coffeeclub-client/pkg/logger"
	"github.com/coffeeclub/coffeeclub-client/pkg/storage"
	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

// Durable keys. These mirror what the mobile client keeps on device: the
// bearer token, the serialized identity, and the forced-reset flag.
const (
	keyToken         = "userToken"
	keyIdentity      = "userData"
	keyPasswordReset = "passwordResetRequired"
)

// Session is the in-memory authenticated state.
type Session struct {
	Token                 string
	Identity              types.Identity
	RequiresPasswordReset bool
}

// Options tweaks sign-in behavior.
type Options struct {
	RequiresPasswordReset bool
}

// Store owns the session lifecycle: hydrate once at startup, sign-in/out, and
// the password-reset flag. Persistence is best-effort: storage failures are
// logged while in-memory state still updates, so the current process behaves
// correctly even if the session is lost on restart.
type Store struct {
	mu       sync.RWMutex
	storage  *storage.Store
	logg     *logger.Logger
	current  *Session
	hydrated bool
}

// NewStore builds the session store. The caller owns hydration.
func NewStore(store *storage.Store, logg *logger.Logger) *Store {
	return &Store{storage: store, logg: logg}
}

// Hydrate loads the durable session, if any. Components gating on the
// session must not make authenticated calls until this has run.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() { s.hydrated = true }()

	token, ok, err := s.storage.Get(ctx, keyToken)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hydrate session")
	}
	if !ok || token == "" {
		return nil
	}

	sess := &Session{Token: token}

	if raw, ok, err := s.storage.Get(ctx, keyIdentity); err == nil && ok {
		if err := json.Unmarshal([]byte(raw), &sess.Identity); err != nil && s.logg != nil {
			s.logg.Warn(ctx, "stored identity unreadable, falling back to token claims")
		}
	}
	if sess.Identity == (types.Identity{}) {
		if identity, err := DecodeIdentity(token); err == nil {
			sess.Identity = identity
		}
	}

	if flag, ok, err := s.storage.Get(ctx, keyPasswordReset); err == nil && ok {
		sess.RequiresPasswordReset = flag == "true"
	}

	s.current = sess
	return nil
}

// SignIn installs the session and persists it. Storage failures are logged;
// the in-memory session is installed regardless.
func (s *Store) SignIn(ctx context.Context, token string, identity types.Identity, opts *Options) error {
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access token is required")
	}

	requiresReset := opts != nil && opts.RequiresPasswordReset

	s.mu.Lock()
	s.current = &Session{
		Token:                 token,
		Identity:              identity,
		RequiresPasswordReset: requiresReset,
	}
	s.hydrated = true
	s.mu.Unlock()

	if err := s.persist(ctx, token, identity, requiresReset); err != nil && s.logg != nil {
		s.logg.Error(ctx, "session persistence failed, continuing in-memory", err)
	}
	return nil
}

// SignUp shares the sign-in persistence path; registration differences live
// server-side.
func (s *Store) SignUp(ctx context.Context, token string, identity types.Identity, opts *Options) error {
	return s.SignIn(ctx, token, identity, opts)
}

// SignOut removes every durable auth artifact and nils the in-memory
// session. Cleanup errors are aggregated and returned, but the in-memory
// session is cleared no matter what.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	err := multierr.Combine(
		s.storage.Delete(ctx, keyToken),
		s.storage.Delete(ctx, keyIdentity),
		s.storage.Delete(ctx, keyPasswordReset),
	)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "clearing durable session failed", err)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sign out cleanup")
	}
	return nil
}

// MarkPasswordResetComplete clears the forced-reset flag.
func (s *Store) MarkPasswordResetComplete(ctx context.Context) error {
	s.mu.Lock()
	if s.current != nil {
		s.current.RequiresPasswordReset = false
	}
	s.mu.Unlock()

	if err := s.storage.Delete(ctx, keyPasswordReset); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear password reset flag")
	}
	return nil
}

// Current returns a copy of the session, or nil when signed out.
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	copied := *s.current
	return &copied
}

// Token implements gateway.TokenSource. Empty when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Active reports whether a session is installed.
func (s *Store) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// Hydrated reports whether the initial load has completed.
func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

func (s *Store) persist(ctx context.Context, token string, identity types.Identity, requiresReset bool) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}

	persistErr := multierr.Combine(
		s.storage.Set(ctx, keyToken, token),
		s.storage.Set(ctx, keyIdentity, string(raw)),
	)
	if requiresReset {
		persistErr = multierr.Append(persistErr, s.storage.Set(ctx, keyPasswordReset, "true"))
	} else {
		persistErr = multierr.Append(persistErr, s.storage.Delete(ctx, keyPasswordReset))
	}
	return persistErr
}

// DecodeIdentity extracts the identity claims from an access token without
// verifying the signature; the client holds no signing secret, and the
// server re-validates every request anyway.
func DecodeIdentity(token string) (types.Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return types.Identity{}, fmt.Errorf("parse access token: %w", err)
	}

	identity := types.Identity{}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	switch sub := claims["sub"].(type) {
	case float64:
		identity.Sub = int64(sub)
	case string:
		if parsed, err := strconv.ParseInt(sub, 10, 64); err == nil {
			identity.Sub = parsed
		}
	}

	if identity == (types.Identity{}) {
		return identity, fmt.Errorf("access token carries no identity claims")
	}
	return identity, nil
}
