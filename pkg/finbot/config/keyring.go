// Package config – keyring.go provides secure credential storage using the
// operating system's native keyring (Linux: Secret Service/GNOME Keyring,
// macOS: Keychain, Windows: Credential Manager).
//
// Priority for resolving secrets:
//  1. Environment variable (FINBOT_API_KEY, OPENAI_API_KEY, etc.)
//  2. .env file (loaded by godotenv)
//  3. OS keyring (encrypted by the OS, requires user session)
//  4. config.yaml value (least secure — plaintext on disk)
package config

import "github.com/zalando/go-keyring"

const (
	// keyringService is the service name used in the OS keyring.
	keyringService = "finbot"

	// KeyringAPIKey is the key name for the LLM API key.
	KeyringAPIKey = "api_key"

	// KeyringGoogleSecret is the key name for the Google client secret.
	KeyringGoogleSecret = "google_client_secret"

	// KeyringWAHAKey is the key name for the WAHA API key.
	KeyringWAHAKey = "waha_api_key"

	// KeyringCronSecret is the key name for the cron endpoint secret.
	KeyringCronSecret = "cron_secret"

	// KeyringBraveKey is the key name for the Brave Search API key.
	KeyringBraveKey = "brave_api_key"
)

// StoreKeyring saves a secret to the OS keyring.
func StoreKeyring(key, value string) error {
	return keyring.Set(keyringService, key, value)
}

// GetKeyring retrieves a secret from the OS keyring.
// Returns empty string if not found.
func GetKeyring(key string) string {
	val, err := keyring.Get(keyringService, key)
	if err != nil {
		return ""
	}
	return val
}

// DeleteKeyring removes a secret from the OS keyring.
func DeleteKeyring(key string) error {
	return keyring.Delete(keyringService, key)
}

// KeyringAvailable checks if the OS keyring is accessible.
func KeyringAvailable() bool {
	// Try a write+delete cycle with a test key.
	testKey := "__finbot_test__"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return false
	}
	_ = keyring.Delete(keyringService, testKey)
	return true
}
