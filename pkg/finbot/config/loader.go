// Package config – loader.go handles loading configuration from YAML files
// with secret resolution from environment variables and .env files.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} or $VAR_NAME in config values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Z_][A-Z0-9_]*)`)

// LoadFromFile reads and parses a YAML configuration file.
// Automatically loads .env files and expands environment variables.
func LoadFromFile(path string) (*Config, error) {
	// Load .env files (silently ignore if not found).
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in YAML before parsing.
	expanded := expandEnvVars(string(data))

	cfg, err := Parse([]byte(expanded))
	if err != nil {
		return nil, err
	}

	resolveSecrets(cfg)
	checkFilePermissions(path)

	return cfg, nil
}

// Parse parses YAML bytes into a Config.
// Starts with defaults and overlays values from the YAML.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes a Config as YAML to the specified path.
// Secrets are replaced with environment variable references.
func SaveToFile(cfg *Config, path string) error {
	sanitized := *cfg
	sanitized.LLM.APIKey = sanitizeSecret(cfg.LLM.APIKey, "FINBOT_API_KEY")
	sanitized.Google.ClientSecret = sanitizeSecret(cfg.Google.ClientSecret, "FINBOT_GOOGLE_SECRET")
	sanitized.WAHA.APIKey = sanitizeSecret(cfg.WAHA.APIKey, "FINBOT_WAHA_KEY")
	sanitized.Server.CronSecret = sanitizeSecret(cfg.Server.CronSecret, "FINBOT_CRON_SECRET")

	data, err := yaml.Marshal(&sanitized)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// Write with restricted permissions (owner read/write only).
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// FindFile searches for config files in standard locations.
func FindFile() string {
	candidates := []string{
		"config.yaml",
		"config.yml",
		"finbot.yaml",
		"finbot.yml",
		"configs/config.yaml",
		"configs/finbot.yaml",
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// Validate checks that the fields required to serve are present.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" || IsEnvReference(c.LLM.APIKey) {
		return fmt.Errorf("llm.api_key is not set (run 'finbot setup' or set FINBOT_API_KEY)")
	}
	if c.Google.ClientID == "" {
		return fmt.Errorf("google.client_id is not set")
	}
	if c.Google.ClientSecret == "" || IsEnvReference(c.Google.ClientSecret) {
		return fmt.Errorf("google.client_secret is not set")
	}
	if c.WAHA.BaseURL == "" {
		return fmt.Errorf("waha.base_url is not set")
	}
	if c.Server.PublicBaseURL == "" {
		return fmt.Errorf("server.public_base_url is not set")
	}
	return nil
}

// ---------- Internal ----------

// loadEnvFiles loads .env files from standard locations.
func loadEnvFiles() {
	envFiles := []string{
		".env",
		".env.local",
	}

	for _, f := range envFiles {
		// godotenv.Load does NOT overwrite existing env vars.
		_ = godotenv.Load(f)
	}
}

// expandEnvVars replaces ${VAR} and $VAR references in a string
// with their environment variable values.
func expandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if val, ok := os.LookupEnv(varName); ok {
			return val
		}

		// Return original if env var not set (allows placeholder to remain).
		return match
	})
}

// resolveSecrets fills in config secrets from environment variables
// and the OS keyring when the config value is empty or a placeholder.
func resolveSecrets(cfg *Config) {
	resolve := func(current *string, envVars []string, keyringKey string) {
		if *current != "" && !IsEnvReference(*current) {
			return
		}
		for _, ev := range envVars {
			if v := os.Getenv(ev); v != "" {
				*current = v
				return
			}
		}
		if v := GetKeyring(keyringKey); v != "" {
			*current = v
		}
	}

	resolve(&cfg.LLM.APIKey, []string{"FINBOT_API_KEY", "OPENAI_API_KEY"}, KeyringAPIKey)
	resolve(&cfg.Google.ClientSecret, []string{"FINBOT_GOOGLE_SECRET", "GOOGLE_CLIENT_SECRET"}, KeyringGoogleSecret)
	resolve(&cfg.WAHA.APIKey, []string{"FINBOT_WAHA_KEY", "WAHA_API_KEY"}, KeyringWAHAKey)
	resolve(&cfg.Server.CronSecret, []string{"FINBOT_CRON_SECRET", "CRON_SECRET"}, KeyringCronSecret)
	resolve(&cfg.Search.BraveAPIKey, []string{"BRAVE_API_KEY"}, KeyringBraveKey)
}

// sanitizeSecret replaces a real secret with an env var reference
// for safe storage in config files.
func sanitizeSecret(value, envVar string) string {
	if value == "" || IsEnvReference(value) {
		return value
	}
	if os.Getenv(envVar) == value {
		return "${" + envVar + "}"
	}
	return value
}

// IsEnvReference checks if a string is an environment variable reference.
func IsEnvReference(s string) bool {
	return strings.HasPrefix(s, "${") || strings.HasPrefix(s, "$")
}

// checkFilePermissions warns if the config file is world-readable.
func checkFilePermissions(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	mode := info.Mode().Perm()
	if mode&0o044 != 0 {
		slog.Warn("config file has open permissions, consider restricting",
			"path", path,
			"current", fmt.Sprintf("%04o", mode),
			"recommended", "0600",
			"fix", fmt.Sprintf("chmod 600 %s", path),
		)
	}
}
