package auth

// TokenStore defines the interface for token storage operations
// This allows us to mock the keyring in tests
type TokenStore interface {
	SaveToken(host, token string) error
	LoadToken(host string) (string, error)
	DeleteToken(host string) error
}

// defaultTokenStore implements TokenStore using the OS keyring
type defaultTokenStore struct{}

var Default TokenStore = &defaultTokenStore{}

func (d *defaultTokenStore) SaveToken(host, token string) error {
	return SaveToken(host, token)
}

func (d *defaultTokenStore) LoadToken(host string) (string, error) {
	return LoadToken(host)
}

func (d *defaultTokenStore) DeleteToken(host string) error {
	return DeleteToken(host)
}
