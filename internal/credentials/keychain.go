// Package credentials stores the workflow service API key in the OS
// keychain (macOS Keychain, Secret Service on Linux, Windows Credential
// Manager).
package credentials

import (
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/deploymenttheory/go-workflow-composer/internal/errors"
)

const (
	// Service is the keychain service entries are stored under
	Service = "go-workflow-composer"

	// Account is the keychain account holding the API key
	Account = "api-key"
)

// Source says where a resolved API key came from
type Source string

const (
	SourceConfig   Source = "config"
	SourceKeychain Source = "keychain"
)

// LookupAPIKey returns the stored API key, or "" when none is stored
func LookupAPIKey() (string, error) {
	key, err := keyring.Get(Service, Account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("keychain error: %w", err)
	}
	return key, nil
}

// StoreAPIKey saves key in the keychain, replacing any previous key
func StoreAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.ErrAPIKeyMissing
	}
	if err := keyring.Set(Service, Account, key); err != nil {
		return fmt.Errorf("keychain error: %w", err)
	}
	return nil
}

// DeleteAPIKey removes the stored key. Deleting a missing key is not an error.
func DeleteAPIKey() error {
	if err := keyring.Delete(Service, Account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keychain error: %w", err)
	}
	return nil
}

// ResolveAPIKey returns the configured key when set, otherwise the keychain
// entry. It fails with ErrAPIKeyMissing when neither exists. An unreachable
// keychain is reported together with the missing key.
func ResolveAPIKey(configured string) (string, Source, error) {
	if key := strings.TrimSpace(configured); key != "" {
		return key, SourceConfig, nil
	}

	key, err := LookupAPIKey()
	if err != nil {
		return "", "", fmt.Errorf("%w (%v)", errors.ErrAPIKeyMissing, err)
	}
	if key == "" {
		return "", "", fmt.Errorf("%w: set service.api_key, WORKFLOW_COMPOSER_SERVICE_API_KEY or SKYVERN_API_KEY, or run 'auth set-key'", errors.ErrAPIKeyMissing)
	}
	return key, SourceKeychain, nil
}
