package config

import (
	"os"
	"testing"
)

func TestParseOverlaysDefaults(t *testing.T) {
	yaml := []byte(`
name: TestBot
llm:
  model: gpt-4o
  history_window: 4
waha:
  base_url: http://localhost:3000
`)
	cfg, err := Parse(yaml)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Name != "TestBot" {
		t.Errorf("Name = %q, want TestBot", cfg.Name)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("LLM.Model = %q, want gpt-4o", cfg.LLM.Model)
	}
	if cfg.LLM.HistoryWindow != 4 {
		t.Errorf("LLM.HistoryWindow = %d, want 4", cfg.LLM.HistoryWindow)
	}
	// Untouched fields keep their defaults.
	if cfg.Google.CalendarID != "primary" {
		t.Errorf("Google.CalendarID = %q, want primary", cfg.Google.CalendarID)
	}
	if cfg.Database.Path != "./data/finbot.db" {
		t.Errorf("Database.Path = %q, want default", cfg.Database.Path)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("::not yaml::\n\t- x")); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("FINBOT_TEST_VAR", "secret123")
	defer os.Unsetenv("FINBOT_TEST_VAR")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"braced", "key: ${FINBOT_TEST_VAR}", "key: secret123"},
		{"bare", "key: $FINBOT_TEST_VAR", "key: secret123"},
		{"unset stays literal", "key: ${FINBOT_UNSET_VAR}", "key: ${FINBOT_UNSET_VAR}"},
		{"no reference", "key: plain", "key: plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expandEnvVars(tt.input); got != tt.want {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for empty config")
	}

	cfg.LLM.APIKey = "sk-test"
	cfg.Google.ClientID = "cid.apps.googleusercontent.com"
	cfg.Google.ClientSecret = "csecret"
	cfg.WAHA.BaseURL = "http://localhost:3000"
	cfg.Server.PublicBaseURL = "https://fin.example.com"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	// Unresolved env reference counts as unset.
	cfg.LLM.APIKey = "${FINBOT_API_KEY}"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unresolved env reference")
	}
}

func TestIsEnvReference(t *testing.T) {
	if !IsEnvReference("${X}") || !IsEnvReference("$X") {
		t.Error("references not detected")
	}
	if IsEnvReference("sk-abc") {
		t.Error("plain value detected as reference")
	}
}
