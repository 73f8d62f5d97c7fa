package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/expenzeus/expenzeus/internal/cli/auth"
)

// requestTimeout bounds every API call. There is no retry and no backoff; a
// hung server surfaces as a timeout error after this long.
const requestTimeout = 10 * time.Second

// Client represents an HTTP client for the Expenzeus API
type Client struct {
	baseURL        string
	host           string
	tokens         auth.TokenStore
	httpClient     *http.Client
	onUnauthorized func()
}

// New creates a new API client. baseURL is the full API prefix
// (e.g. https://api.expenzeus.app/v1/api) and host scopes token lookups
// in the keyring.
func New(baseURL, host string) *Client {
	c := &Client{
		baseURL: baseURL,
		host:    host,
		tokens:  auth.Default,
	}
	c.httpClient = &http.Client{
		Timeout: requestTimeout,
		Transport: &bearerTransport{
			base:   http.DefaultTransport,
			tokens: func() auth.TokenStore { return c.tokens },
			host:   host,
		},
	}
	return c
}

// SetTokenStore overrides the token store (used by tests to avoid the OS keyring)
func (c *Client) SetTokenStore(tokens auth.TokenStore) {
	c.tokens = tokens
}

// SetHTTPClient sets a custom HTTP client. The bearer transport is re-applied
// on top of the client's transport so token attachment survives the override.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	httpClient.Transport = &bearerTransport{
		base:   base,
		tokens: func() auth.TokenStore { return c.tokens },
		host:   c.host,
	}
	c.httpClient = httpClient
}

// OnUnauthorized registers a handler invoked whenever an authenticated
// endpoint answers 401. The session manager registers its sign-out here so
// expired sessions are handled in one place instead of at every call site.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// bearerTransport attaches the stored access token to every outgoing request.
//
// A missing token sends the request without credentials (the sign-in and
// sign-up endpoints need that). Any other token-store failure fails the
// request: sending a silently unauthenticated request on a broken keyring
// would leak a confusing 401 instead of the real cause.
type bearerTransport struct {
	base   http.RoundTripper
	tokens func() auth.TokenStore
	host   string
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.tokens().LoadToken(t.host)
	if err != nil && !errors.Is(err, auth.ErrNotAuthenticated) {
		return nil, fmt.Errorf("failed to attach credentials: %w", err)
	}
	if token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	return t.base.RoundTrip(req)
}

// do executes a JSON request against the API. authed marks endpoints that
// require a session; a 401 on those triggers the unauthorized handler.
func (c *Client) do(ctx context.Context, method, path string, reqBody, respBody any, wantStatus int, authed bool) error {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		if resp.StatusCode == http.StatusUnauthorized && authed && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return newAPIError(resp)
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// SignInRequest represents the sign-in request body
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInResponse represents the sign-in response
type SignInResponse struct {
	AccessToken string `json:"access_token"`
}

// SignIn authenticates the user and returns an access token. The token is not
// persisted here; session.Manager owns that.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	var resp SignInResponse
	err := c.do(ctx, http.MethodPost, "/auth/signIn", SignInRequest{
		Email:    email,
		Password: password,
	}, &resp, http.StatusOK, false)
	if err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// SignUpRequest represents the registration request body
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp creates a new account. The caller signs in afterwards to obtain a token.
func (c *Client) SignUp(ctx context.Context, name, email, password string) error {
	return c.do(ctx, http.MethodPost, "/auth/signUp", SignUpRequest{
		Name:     name,
		Email:    email,
		Password: password,
	}, nil, http.StatusCreated, false)
}

// User represents the authenticated user as exposed to the rest of the CLI
type User struct {
	ID    int64
	Name  string
	Email string
}

// profileResponse is the wire shape of GET /auth/profile
type profileResponse struct {
	Sub      int64  `json:"sub"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Profile fetches the current user's profile using the stored token
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var resp profileResponse
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, &resp, http.StatusOK, true); err != nil {
		return nil, err
	}
	return &User{
		ID:    resp.Sub,
		Name:  resp.Name,
		Email: resp.Username,
	}, nil
}

// Expense represents an expense record
type Expense struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	UserID      int64   `json:"userId,omitempty"`
}

// ExpenseInput carries the writable fields of an expense
type ExpenseInput struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
}

// ListExpenses returns all expenses of the current user
func (c *Client) ListExpenses(ctx context.Context) ([]Expense, error) {
	var expenses []Expense
	if err := c.do(ctx, http.MethodGet, "/expenses", nil, &expenses, http.StatusOK, true); err != nil {
		return nil, err
	}
	return expenses, nil
}

// CreateExpense creates a new expense record
func (c *Client) CreateExpense(ctx context.Context, input ExpenseInput) (*Expense, error) {
	var expense Expense
	if err := c.do(ctx, http.MethodPost, "/expenses", input, &expense, http.StatusCreated, true); err != nil {
		return nil, err
	}
	return &expense, nil
}

// UpdateExpense updates an existing expense record
func (c *Client) UpdateExpense(ctx context.Context, id string, input ExpenseInput) (*Expense, error) {
	var expense Expense
	if err := c.do(ctx, http.MethodPatch, "/expenses/"+id, input, &expense, http.StatusOK, true); err != nil {
		return nil, err
	}
	return &expense, nil
}

// DeleteExpense deletes an expense record by ID
func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/expenses/"+id, nil, nil, http.StatusNoContent, true)
}
