// Package credential caches the terminal client's OAuth token in the OS
// keyring.
package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"
	"golang.org/x/oauth2"
)

const (
	serviceName = "mailtothings"
	tokenKey    = "gmail-oauth-token"
)

// ErrNoToken is returned by Load when nothing has been cached yet.
var ErrNoToken = errors.New("no cached token")

// Open returns a keyring for the current platform. The encrypted file
// backend under configDir is the fallback on headless machines.
func Open(configDir string) (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(configDir, "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt(serviceName + "-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// TokenCache stores a single OAuth token as JSON in a keyring item.
type TokenCache struct {
	ring keyring.Keyring
}

func NewTokenCache(ring keyring.Keyring) *TokenCache {
	return &TokenCache{ring: ring}
}

func (c *TokenCache) Load() (*oauth2.Token, error) {
	item, err := c.ring.Get(tokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("getting credential %q: %w", tokenKey, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(item.Data, &tok); err != nil {
		return nil, fmt.Errorf("decode cached token: %w", err)
	}
	return &tok, nil
}

func (c *TokenCache) Save(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	err = c.ring.Set(keyring.Item{
		Key:         tokenKey,
		Data:        data,
		Label:       "Mail to Things Gmail token",
		Description: "OAuth token used by the mailtothings terminal client",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", tokenKey, err)
	}
	return nil
}

// Clear removes the cached token. Clearing an empty cache is not an error.
func (c *TokenCache) Clear() error {
	err := c.ring.Remove(tokenKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", tokenKey, err)
	}
	return nil
}
