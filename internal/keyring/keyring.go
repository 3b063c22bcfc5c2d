// Package keyring provides access to the system keychain for storing API keys.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "assessor"

// APIKey represents a named API key stored in the keychain.
type APIKey string

const (
	// Groq is the keychain entry for the OpenAI-compatible Groq API key.
	Groq APIKey = "groq-api-key"
	// Anthropic is the keychain entry for the Anthropic API key.
	Anthropic APIKey = "anthropic-api-key"
)

// AllAPIKeys returns all known API key types for iteration.
func AllAPIKeys() []APIKey {
	return []APIKey{Groq, Anthropic}
}

// DisplayName returns a human-readable name for the API key.
func (k APIKey) DisplayName() string {
	switch k {
	case Groq:
		return "groq"
	case Anthropic:
		return "anthropic"
	default:
		return string(k)
	}
}

// Get retrieves an API key value from the system keychain.
func Get(apiKey APIKey) (string, error) {
	value, err := keyring.Get(serviceName, string(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to get %s from keychain: %w", apiKey.DisplayName(), err)
	}

	return value, nil
}

// Set stores an API key value in the system keychain.
func Set(apiKey APIKey, value string) error {
	if err := keyring.Set(serviceName, string(apiKey), value); err != nil {
		return fmt.Errorf("failed to set %s in keychain: %w", apiKey.DisplayName(), err)
	}

	return nil
}

// Delete removes an API key from the system keychain. Missing keys are not an error.
func Delete(apiKey APIKey) error {
	err := keyring.Delete(serviceName, string(apiKey))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete %s from keychain: %w", apiKey.DisplayName(), err)
	}

	return nil
}

// IsSet checks if an API key exists in the keychain.
func IsSet(apiKey APIKey) bool {
	_, err := keyring.Get(serviceName, string(apiKey))

	return err == nil
}

// Resolve returns value when it is non-empty, otherwise the keychain entry.
// An empty string is returned when neither is available.
func Resolve(value string, apiKey APIKey) string {
	if value != "" {
		return value
	}

	secret, err := Get(apiKey)
	if err != nil {
		return ""
	}

	return secret
}

// APIKeyFromServiceName maps a service name (e.g., "groq") to an APIKey.
func APIKeyFromServiceName(name string) (APIKey, error) {
	switch name {
	case "groq":
		return Groq, nil
	case "anthropic":
		return Anthropic, nil
	default:
		return "", fmt.Errorf("unknown service: %s", name)
	}
}
