package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// APIError represents a non-success response from the API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed (status %d)", e.StatusCode)
	}
	return e.Message
}

// newAPIError builds an APIError from an error response, pulling the
// human-readable message out of the body when the server provided one.
// The API returns either {"message": "..."} or {"message": ["...", ...]}.
func newAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var single struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &single); err == nil && single.Message != "" {
		apiErr.Message = single.Message
		return apiErr
	}

	var multi struct {
		Message []string `json:"message"`
	}
	if err := json.Unmarshal(body, &multi); err == nil && len(multi.Message) > 0 {
		apiErr.Message = multi.Message[0]
		return apiErr
	}

	return apiErr
}

// IsUnauthorized reports whether err is a 401 API error
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// ErrorMessage returns the server-provided message from err, or fallback when
// the server gave none (or err is not an API error at all).
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
