package commands

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/expenzeus/expenzeus/internal/cli/auth"
	"github.com/expenzeus/expenzeus/internal/cli/client"
	"github.com/expenzeus/expenzeus/internal/cli/config"
	"github.com/expenzeus/expenzeus/internal/cli/session"
	"github.com/expenzeus/expenzeus/internal/mockapi"
)

// mockTokenStore is a simple in-memory token store for testing
type mockTokenStore struct {
	tokens map[string]string
}

func newMockTokenStore() *mockTokenStore {
	return &mockTokenStore{tokens: make(map[string]string)}
}

func (m *mockTokenStore) SaveToken(host, token string) error {
	m.tokens[host] = token
	return nil
}

func (m *mockTokenStore) LoadToken(host string) (string, error) {
	token, exists := m.tokens[host]
	if !exists {
		return "", auth.ErrNotAuthenticated
	}
	return token, nil
}

func (m *mockTokenStore) DeleteToken(host string) error {
	delete(m.tokens, host)
	return nil
}

// newTestDeps wires command dependencies to an in-process mock API server
func newTestDeps(t *testing.T) (*deps, *mockTokenStore, *bytes.Buffer) {
	t.Helper()

	srv, err := mockapi.New(":memory:", zerolog.Nop())
	require.NoError(t, err)

	server := httptest.NewServer(srv.Handler())
	t.Cleanup(server.Close)

	cfg := &config.Config{
		API:     config.APIConfig{BaseURL: server.URL + "/v1/api"},
		Logging: config.LoggingConfig{Level: "warn", Format: "console"},
	}

	tokens := newMockTokenStore()
	api := client.New(cfg.API.BaseURL, cfg.Host())
	api.SetTokenStore(tokens)
	api.SetHTTPClient(server.Client())

	sess := session.NewManager(api, tokens, cfg.Host(), zerolog.Nop())

	out := &bytes.Buffer{}
	return &deps{
		cfg:    cfg,
		api:    api,
		sess:   sess,
		tokens: tokens,
		out:    out,
	}, tokens, out
}

// registerTestUser creates an account through the full sign-up flow and
// leaves the session authenticated
func registerTestUser(t *testing.T, d *deps) {
	t.Helper()
	require.NoError(t, runRegister(context.Background(), d, "Ana", "ana@x.com", "Sup3r$ecret1"))
}
