package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenzeus/expenzeus/internal/cli/auth"
	"github.com/expenzeus/expenzeus/internal/cli/client"
	"github.com/expenzeus/expenzeus/internal/cli/routeguard"
	"github.com/expenzeus/expenzeus/internal/cli/session"
)

const testHost = "test-host"

// mockTokenStore is a simple in-memory token store for testing
type mockTokenStore struct {
	mu      sync.Mutex
	tokens  map[string]string
	loadErr error
}

func newMockTokenStore() *mockTokenStore {
	return &mockTokenStore{tokens: make(map[string]string)}
}

func (m *mockTokenStore) SaveToken(host, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[host] = token
	return nil
}

func (m *mockTokenStore) LoadToken(host string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return "", m.loadErr
	}
	token, exists := m.tokens[host]
	if !exists {
		return "", auth.ErrNotAuthenticated
	}
	return token, nil
}

func (m *mockTokenStore) DeleteToken(host string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, host)
	return nil
}

func (m *mockTokenStore) hasToken(host string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.tokens[host]
	return exists
}

// fakeAPI is an httptest-backed stand-in for the remote Expenzeus API
type fakeAPI struct {
	validToken string
	email      string
	password   string
	signInHook func() // runs before answering sign-in, for timing tests
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/api/auth/signIn", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if f.signInHook != nil {
			f.signInHook()
		}
		var req client.SignInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Email != f.email || req.Password != f.password {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"Invalid credentials"}`)
			return
		}
		json.NewEncoder(w).Encode(client.SignInResponse{AccessToken: f.validToken})
	})

	mux.HandleFunc("/v1/api/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+f.validToken {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"Unauthorized"}`)
			return
		}
		fmt.Fprint(w, `{"sub":1,"name":"Ana","username":"ana@x.com"}`)
	})

	mux.HandleFunc("/v1/api/expenses", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+f.validToken {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"Unauthorized"}`)
			return
		}
		fmt.Fprint(w, `[]`)
	})

	return mux
}

func newTestManager(t *testing.T, api *fakeAPI) (*session.Manager, *client.Client, *mockTokenStore) {
	t.Helper()

	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	tokens := newMockTokenStore()
	c := client.New(server.URL+"/v1/api", testHost)
	c.SetTokenStore(tokens)

	return session.NewManager(c, tokens, testHost, zerolog.Nop()), c, tokens
}

// No stored token resolves to an unauthenticated session, and the guard
// sends a protected route to login.
func TestBootstrap_NoToken(t *testing.T) {
	m, _, _ := newTestManager(t, &fakeAPI{validToken: "tok"})

	assert.True(t, m.Loading())
	assert.Equal(t, session.StateBootstrapping, m.State())

	m.Bootstrap(context.Background())

	assert.False(t, m.Loading())
	assert.Equal(t, session.StateUnauthenticated, m.State())
	assert.Nil(t, m.CurrentUser())

	target, redirect := routeguard.Evaluate(m.State(), routeguard.RouteDashboard)
	assert.True(t, redirect)
	assert.Equal(t, routeguard.RouteLogin, target)
}

// A stored valid token resolves to an authenticated session with the
// profile fields mapped onto the user.
func TestBootstrap_ValidToken(t *testing.T) {
	m, _, tokens := newTestManager(t, &fakeAPI{validToken: "tok"})
	require.NoError(t, tokens.SaveToken(testHost, "tok"))

	m.Bootstrap(context.Background())

	assert.False(t, m.Loading())
	require.Equal(t, session.StateAuthenticated, m.State())

	user := m.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, "ana@x.com", user.Email)
}

// A stored token whose profile fetch fails ends unauthenticated with the
// token removed.
func TestBootstrap_ExpiredToken(t *testing.T) {
	m, _, tokens := newTestManager(t, &fakeAPI{validToken: "tok"})
	require.NoError(t, tokens.SaveToken(testHost, "stale-tok"))

	m.Bootstrap(context.Background())

	assert.False(t, m.Loading())
	assert.Equal(t, session.StateUnauthenticated, m.State())
	assert.False(t, tokens.hasToken(testHost), "stale token must be removed")
}

func TestBootstrap_BrokenStoreTreatedAsSignedOut(t *testing.T) {
	m, _, tokens := newTestManager(t, &fakeAPI{validToken: "tok"})
	tokens.loadErr = errors.New("keyring locked")

	m.Bootstrap(context.Background())

	assert.False(t, m.Loading())
	assert.Equal(t, session.StateUnauthenticated, m.State())
}

// Bootstrap is a single settling pass; running it again does not change an
// already consistent state.
func TestBootstrap_Idempotent(t *testing.T) {
	m, _, tokens := newTestManager(t, &fakeAPI{validToken: "tok"})
	require.NoError(t, tokens.SaveToken(testHost, "tok"))

	m.Bootstrap(context.Background())
	require.Equal(t, session.StateAuthenticated, m.State())

	m.Bootstrap(context.Background())
	assert.Equal(t, session.StateAuthenticated, m.State())
	assert.False(t, m.Loading())
}

func TestSignIn_Success(t *testing.T) {
	m, _, tokens := newTestManager(t, &fakeAPI{validToken: "tok", email: "ana@x.com", password: "secret"})
	m.Bootstrap(context.Background())

	err := m.SignIn(context.Background(), "ana@x.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, session.StateAuthenticated, m.State())
	assert.True(t, tokens.hasToken(testHost))

	user := m.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, "Ana", user.Name)
}

// Bad credentials surface the server message; nothing is persisted.
func TestSignIn_InvalidCredentials(t *testing.T) {
	m, _, tokens := newTestManager(t, &fakeAPI{validToken: "tok", email: "ana@x.com", password: "secret"})
	m.Bootstrap(context.Background())

	err := m.SignIn(context.Background(), "a@x.com", "bad")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())

	assert.Equal(t, session.StateUnauthenticated, m.State())
	assert.False(t, tokens.hasToken(testHost))
}

func TestSignIn_FallbackMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	tokens := newMockTokenStore()
	c := client.New(server.URL+"/v1/api", testHost)
	c.SetTokenStore(tokens)
	m := session.NewManager(c, tokens, testHost, zerolog.Nop())

	err := m.SignIn(context.Background(), "ana@x.com", "secret")
	require.Error(t, err)
	assert.Equal(t, session.FallbackSignInMessage, err.Error())
}

// Sign-out always ends unauthenticated with no persisted token, from any
// prior state, any number of times.
func TestSignOut_Idempotent(t *testing.T) {
	m, _, tokens := newTestManager(t, &fakeAPI{validToken: "tok", email: "ana@x.com", password: "secret"})
	m.Bootstrap(context.Background())
	require.NoError(t, m.SignIn(context.Background(), "ana@x.com", "secret"))

	require.NoError(t, m.SignOut(context.Background()))
	assert.Equal(t, session.StateUnauthenticated, m.State())
	assert.False(t, tokens.hasToken(testHost))
	assert.Nil(t, m.CurrentUser())

	// Already signed out
	require.NoError(t, m.SignOut(context.Background()))
	assert.Equal(t, session.StateUnauthenticated, m.State())
}

// A 401 on a later resource call expires the session through the centralized
// hook, and the guard then redirects the dashboard to login.
func TestSessionExpiry_On401(t *testing.T) {
	api := &fakeAPI{validToken: "tok", email: "ana@x.com", password: "secret"}
	m, c, tokens := newTestManager(t, api)
	m.Bootstrap(context.Background())
	require.NoError(t, m.SignIn(context.Background(), "ana@x.com", "secret"))

	// Server-side invalidation: the stored token is no longer accepted
	api.validToken = "rotated"

	_, err := c.ListExpenses(context.Background())
	require.Error(t, err)
	assert.True(t, client.IsUnauthorized(err))

	assert.Equal(t, session.StateUnauthenticated, m.State())
	assert.False(t, tokens.hasToken(testHost))

	target, redirect := routeguard.Evaluate(m.State(), routeguard.RouteDashboard)
	assert.True(t, redirect)
	assert.Equal(t, routeguard.RouteLogin, target)
}

func TestSubscribe_NotifiesTransitions(t *testing.T) {
	m, _, _ := newTestManager(t, &fakeAPI{validToken: "tok", email: "ana@x.com", password: "secret"})

	var mu sync.Mutex
	var seen []session.State
	m.Subscribe(func(s session.State) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	m.Bootstrap(context.Background())
	require.NoError(t, m.SignIn(context.Background(), "ana@x.com", "secret"))
	require.NoError(t, m.SignOut(context.Background()))
	require.NoError(t, m.SignOut(context.Background())) // no transition, no notification

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []session.State{
		session.StateUnauthenticated,
		session.StateAuthenticated,
		session.StateUnauthenticated,
	}, seen)
}

// Concurrent sign-ins are serialized by the manager; both complete and the
// session ends in a consistent authenticated state.
func TestSignIn_ConcurrentCallsSerialized(t *testing.T) {
	var inFlight, maxInFlight int
	var mu sync.Mutex

	api := &fakeAPI{validToken: "tok", email: "ana@x.com", password: "secret"}
	api.signInHook = func() {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
	}

	m, _, tokens := newTestManager(t, api)
	m.Bootstrap(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.SignIn(context.Background(), "ana@x.com", "secret"))
		}()
	}
	wg.Wait()

	mu.Lock()
	assert.Equal(t, 1, maxInFlight, "sign-ins must not overlap")
	mu.Unlock()

	assert.Equal(t, session.StateAuthenticated, m.State())
	assert.True(t, tokens.hasToken(testHost))
}
