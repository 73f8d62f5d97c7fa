// Package session owns the authenticated-session lifecycle: bootstrapping
// from a persisted token, sign-in/sign-up/sign-out, and transition
// notifications. Nothing else in the CLI touches the token store or the
// session state directly.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/expenzeus/expenzeus/internal/cli/auth"
	"github.com/expenzeus/expenzeus/internal/cli/client"
)

// State represents the session lifecycle state
type State int

const (
	// StateBootstrapping is the initial state, before the persisted token has
	// been checked against the profile endpoint.
	StateBootstrapping State = iota
	// StateUnauthenticated means no valid session exists.
	StateUnauthenticated
	// StateAuthenticated means a token is persisted and was last verified
	// against the profile endpoint.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateBootstrapping:
		return "bootstrapping"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// FallbackSignInMessage is surfaced when the server rejects a sign-in without
// a message of its own.
const FallbackSignInMessage = "Failed to login"

// Manager is the single owner of session state. Session-mutating operations
// (Bootstrap, SignIn, SignUp, SignOut) are serialized by opMu so two
// concurrent sign-ins cannot race on the persisted token.
type Manager struct {
	api    *client.Client
	tokens auth.TokenStore
	host   string
	log    zerolog.Logger

	opMu sync.Mutex // serializes session-mutating operations

	stateMu     sync.RWMutex // guards state, user, subscribers
	state       State
	user        *client.User
	subscribers []func(State)

	loadingOnce sync.Once
	loadingMu   sync.RWMutex
	loading     bool
}

// NewManager creates a session manager bound to the given API client and
// token store. It also registers itself as the client's unauthorized handler,
// so any 401 from an authenticated endpoint expires the session uniformly.
func NewManager(api *client.Client, tokens auth.TokenStore, host string, log zerolog.Logger) *Manager {
	m := &Manager{
		api:     api,
		tokens:  tokens,
		host:    host,
		log:     log,
		state:   StateBootstrapping,
		loading: true,
	}
	api.OnUnauthorized(m.expire)
	return m
}

// State returns the current session state
func (m *Manager) State() State {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state
}

// CurrentUser returns the authenticated user, or nil
func (m *Manager) CurrentUser() *client.User {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Loading reports whether the initial bootstrap is still in progress
func (m *Manager) Loading() bool {
	m.loadingMu.RLock()
	defer m.loadingMu.RUnlock()
	return m.loading
}

// Subscribe registers a callback invoked on every state transition. Callbacks
// run outside the manager's locks and may call back into the manager.
func (m *Manager) Subscribe(fn func(State)) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// Bootstrap resolves the session state from the persisted token. A missing
// token means unauthenticated; a present token is verified by fetching the
// profile, and any failure there removes the token and signs out. The loading
// flag is cleared exactly once, after the state has settled.
func (m *Manager) Bootstrap(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	defer m.finishLoading()

	_, err := m.tokens.LoadToken(m.host)
	if err != nil {
		if !errors.Is(err, auth.ErrNotAuthenticated) {
			// A broken keyring is treated as "no token": worst case the user
			// is asked to log in again.
			m.log.Warn().Err(err).Msg("Token store unavailable, treating as signed out")
		}
		m.setState(StateUnauthenticated, nil)
		return
	}

	user, err := m.api.Profile(ctx)
	if err != nil {
		m.log.Debug().Err(err).Msg("Failed to load profile, signing out")
		m.signOut()
		return
	}

	m.setState(StateAuthenticated, user)
}

// SignIn authenticates with the API, persists the token and loads the
// profile. On failure the persisted token is left untouched and the returned
// error carries the server-provided message, or a generic fallback.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	return m.signIn(ctx, email, password)
}

// SignUp creates an account and signs in with the new credentials
func (m *Manager) SignUp(ctx context.Context, name, email, password string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if err := m.api.SignUp(ctx, name, email, password); err != nil {
		msg := client.ErrorMessage(err, "Failed to create account")
		m.log.Debug().Err(err).Msg("Sign-up rejected")
		return errors.New(msg)
	}

	return m.signIn(ctx, email, password)
}

// SignOut removes the persisted token and transitions to unauthenticated.
// Safe to call when already signed out.
func (m *Manager) SignOut(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.signOut()
	return nil
}

func (m *Manager) signIn(ctx context.Context, email, password string) error {
	token, err := m.api.SignIn(ctx, email, password)
	if err != nil {
		msg := client.ErrorMessage(err, FallbackSignInMessage)
		m.log.Debug().Err(err).Msg("Sign-in rejected")
		return errors.New(msg)
	}

	if err := m.tokens.SaveToken(m.host, token); err != nil {
		return fmt.Errorf("failed to save authentication token: %w", err)
	}

	user, err := m.api.Profile(ctx)
	if err != nil {
		// The token was accepted moments ago but the profile fetch failed.
		// Keeping a session whose user is unknown would violate the state
		// invariant, so treat it like a failed bootstrap.
		m.signOut()
		return errors.New(client.ErrorMessage(err, FallbackSignInMessage))
	}

	m.setState(StateAuthenticated, user)
	return nil
}

// signOut is the internal sign-out procedure. It deliberately does not take
// opMu: it is called from within Bootstrap/SignIn (which already hold it) and
// from the 401 hook (which may fire while they hold it).
func (m *Manager) signOut() {
	if err := m.tokens.DeleteToken(m.host); err != nil {
		m.log.Warn().Err(err).Msg("Failed to delete token")
	}
	m.setState(StateUnauthenticated, nil)
}

// expire handles a 401 observed on any authenticated endpoint
func (m *Manager) expire() {
	m.log.Info().Msg("Expired session. Logging out...")
	m.signOut()
}

func (m *Manager) finishLoading() {
	m.loadingOnce.Do(func() {
		m.loadingMu.Lock()
		m.loading = false
		m.loadingMu.Unlock()
	})
}

func (m *Manager) setState(state State, user *client.User) {
	m.stateMu.Lock()
	changed := m.state != state
	m.state = state
	m.user = user
	subs := make([]func(State), len(m.subscribers))
	copy(subs, m.subscribers)
	m.stateMu.Unlock()

	if !changed {
		return
	}
	for _, fn := range subs {
		fn(state)
	}
}
