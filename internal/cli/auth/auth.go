package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "expenzeus-cli"
)

// ErrNotAuthenticated is returned when no token is stored for the given host.
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'expenzeus login' first")

// getKeyringKey returns a unique key for storing access tokens per API host
func getKeyringKey(host string) string {
	return fmt.Sprintf("access-token-%s", host)
}

// SaveToken persists the access token securely in the OS keychain/credential manager
func SaveToken(host, token string) error {
	key := getKeyringKey(host)
	if err := keyring.Set(service, key, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken retrieves the access token from the OS keychain/credential manager.
// A missing token is reported as ErrNotAuthenticated; any other keyring failure
// is returned as-is so callers can distinguish "absent" from "broken".
func LoadToken(host string) (string, error) {
	key := getKeyringKey(host)
	token, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotAuthenticated
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the access token from the OS keychain/credential manager
func DeleteToken(host string) error {
	key := getKeyringKey(host)
	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
