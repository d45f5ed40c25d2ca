// Package tokenstore keeps REST access tokens in the OS credential store and
// serves them to a client as a resilient.TokenSource.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/99designs/keyring"

	resilient "github.com/egorkaBurkenya/resilient-rest"
)

// DefaultKey is the keyring item holding the access token.
const DefaultKey = "rest_access_token"

// ErrNoToken is returned when the keyring holds no token, or an empty one.
var ErrNoToken = errors.New("tokenstore: no access token stored")

// Store reads and writes one access token in a keyring. It is safe for
// concurrent use.
type Store struct {
	mu   sync.RWMutex
	ring keyring.Keyring
	key  string
}

var _ resilient.TokenSource = (*Store)(nil)

// Open opens the OS keyring under service using its native backends.
func Open(service string) (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:   service,
		PassPrefix:    service,
		WinCredPrefix: service,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.WinCredBackend,
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("tokenstore: open keyring: %w", err)
	}
	return New(ring, DefaultKey), nil
}

// New wraps an opened keyring. An empty key selects DefaultKey.
func New(ring keyring.Keyring, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{ring: ring, key: key}
}

// Save stores token, replacing any previous one.
func (s *Store) Save(token string) error {
	if token == "" {
		return ErrNoToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ring.Set(keyring.Item{Key: s.key, Data: []byte(token), Label: s.key})
}

// AccessToken returns the stored token. It is called once per dispatch, so
// a token rotated with Save is picked up by the next request.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, err := s.ring.Get(s.key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("tokenstore: read %s: %w", s.key, err)
	}
	if len(item.Data) == 0 {
		return "", ErrNoToken
	}
	return string(item.Data), nil
}

// Delete removes the stored token. Deleting a missing token is not an error.
func (s *Store) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ring.Remove(s.key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("tokenstore: remove %s: %w", s.key, err)
	}
	return nil
}
