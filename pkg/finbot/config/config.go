// Package config – config.go defines all configuration structures
// for the Fin assistant backend.
package config

// Config holds all backend configuration.
type Config struct {
	// Name is the assistant name shown in replies.
	Name string `yaml:"name"`

	// Timezone is the assistant's local timezone (e.g. "Asia/Jakarta").
	Timezone string `yaml:"timezone"`

	// Language is the preferred reply language (e.g. "id-ID").
	Language string `yaml:"language"`

	// LLM configures the language-model endpoint.
	LLM LLMConfig `yaml:"llm"`

	// Google configures the Google OAuth application and calendar access.
	Google GoogleConfig `yaml:"google"`

	// WAHA configures the WhatsApp HTTP API gateway used for sending.
	WAHA WAHAConfig `yaml:"waha"`

	// Server configures the HTTP gateway.
	Server ServerConfig `yaml:"server"`

	// Database configures local persistence.
	Database DatabaseConfig `yaml:"database"`

	// Scheduler configures the in-process periodic jobs.
	Scheduler SchedulerConfig `yaml:"scheduler"`

	// Search configures the web search tool.
	Search SearchConfig `yaml:"search"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the OpenAI-compatible chat completion endpoint.
type LLMConfig struct {
	// BaseURL is the API base (e.g. "https://api.openai.com/v1").
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates against the endpoint. Prefer ${FINBOT_API_KEY}.
	APIKey string `yaml:"api_key"`

	// Model is the chat model (e.g. "gpt-4o-mini").
	Model string `yaml:"model"`

	// MaxTokens caps the completion length. 0 uses the provider default.
	MaxTokens int `yaml:"max_tokens"`

	// Temperature for sampling. Negative means provider default.
	Temperature float64 `yaml:"temperature"`

	// HistoryWindow is the number of trailing conversation messages
	// included in each model call.
	HistoryWindow int `yaml:"history_window"`
}

// GoogleConfig configures the Google OAuth client.
type GoogleConfig struct {
	// ClientID is the OAuth client id.
	ClientID string `yaml:"client_id"`

	// ClientSecret is the OAuth client secret. Prefer ${FINBOT_GOOGLE_SECRET}.
	ClientSecret string `yaml:"client_secret"`

	// RedirectURL is the registered callback,
	// e.g. "https://fin.example.com/api/auth/google/callback".
	RedirectURL string `yaml:"redirect_url"`

	// CalendarID is the calendar queried for the user ("primary").
	CalendarID string `yaml:"calendar_id"`
}

// WAHAConfig configures the outbound WhatsApp gateway.
type WAHAConfig struct {
	// BaseURL is the WAHA instance base URL.
	BaseURL string `yaml:"base_url"`

	// APIKey is sent as X-Api-Key. Prefer ${FINBOT_WAHA_KEY}.
	APIKey string `yaml:"api_key"`

	// Session is the WAHA session name.
	Session string `yaml:"session"`

	// SendRate is max outbound messages per second.
	SendRate float64 `yaml:"send_rate"`

	// SendBurst is the rate limiter burst size.
	SendBurst int `yaml:"send_burst"`
}

// ServerConfig configures the HTTP gateway.
type ServerConfig struct {
	// Addr is the listen address (e.g. ":8080").
	Addr string `yaml:"addr"`

	// PublicBaseURL is the externally reachable base URL used when
	// composing auth short links.
	PublicBaseURL string `yaml:"public_base_url"`

	// CronSecret guards the cron trigger endpoints. Prefer ${FINBOT_CRON_SECRET}.
	CronSecret string `yaml:"cron_secret"`
}

// DatabaseConfig configures local persistence.
type DatabaseConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path"`
}

// SchedulerConfig configures the in-process job scheduler. The same jobs
// can instead be triggered externally through the cron HTTP endpoints.
type SchedulerConfig struct {
	// Enabled turns the in-process scheduler on/off.
	Enabled bool `yaml:"enabled"`

	// MorningCron is the cron expression for the morning briefing.
	MorningCron string `yaml:"morning_cron"`

	// NudgeCron is the cron expression for the hourly habit nudge.
	NudgeCron string `yaml:"nudge_cron"`

	// EveningCron is the cron expression for the evening summary.
	EveningCron string `yaml:"evening_cron"`
}

// SearchConfig configures the web search tool.
type SearchConfig struct {
	// BraveAPIKey enables the Brave Search API. When empty the tool
	// falls back to DuckDuckGo HTML scraping.
	BraveAPIKey string `yaml:"brave_api_key"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is the log level ("debug", "info", "warn", "error").
	Level string `yaml:"level"`

	// Format is the log format ("json", "text").
	Format string `yaml:"format"`
}

// Default returns the default backend configuration.
func Default() *Config {
	return &Config{
		Name:     "Fin",
		Timezone: "Asia/Jakarta",
		Language: "id-ID",
		LLM: LLMConfig{
			BaseURL:       "https://api.openai.com/v1",
			Model:         "gpt-4o-mini",
			MaxTokens:     1024,
			Temperature:   -1,
			HistoryWindow: 10,
		},
		Google: GoogleConfig{
			CalendarID: "primary",
		},
		WAHA: WAHAConfig{
			Session:   "default",
			SendRate:  1,
			SendBurst: 3,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Database: DatabaseConfig{
			Path: "./data/finbot.db",
		},
		Scheduler: SchedulerConfig{
			Enabled:     false,
			MorningCron: "0 7 * * *",
			NudgeCron:   "0 9-20 * * *",
			EveningCron: "0 20 * * *",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
