// Package commands – app.go wires the backend object graph shared by the
// serve and cron commands.
package commands

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jholhewres/finbot/pkg/finbot/agent"
	"github.com/jholhewres/finbot/pkg/finbot/calendar"
	"github.com/jholhewres/finbot/pkg/finbot/config"
	"github.com/jholhewres/finbot/pkg/finbot/habits"
	"github.com/jholhewres/finbot/pkg/finbot/jobs"
	"github.com/jholhewres/finbot/pkg/finbot/oauth"
	"github.com/jholhewres/finbot/pkg/finbot/store"
	"github.com/jholhewres/finbot/pkg/finbot/waha"
)

// backend is the fully wired application graph.
type backend struct {
	cfg          *config.Config
	logger       *slog.Logger
	db           *sql.DB
	store        *store.Store
	loc          *time.Location
	sender       *waha.Client
	handshakes   *oauth.HandshakeService
	orchestrator *agent.Orchestrator
	runner       *jobs.Runner
}

func (b *backend) Close() error {
	return b.db.Close()
}

// resolveConfig loads configuration from the --config flag or discovery.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Root().PersistentFlags().GetString("config")
	if configPath == "" {
		configPath = config.FindFile()
	}
	if configPath == "" {
		return nil, fmt.Errorf("no configuration file found; run 'finbot setup' first")
	}

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return cfg, nil
}

// newLogger builds the slog logger from config and the --verbose flag.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	level := slog.LevelInfo
	if verbose || cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}

// buildBackend wires every service from config.
func buildBackend(cfg *config.Config, logger *slog.Logger) (*backend, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, falling back to UTC", "timezone", cfg.Timezone)
		loc = time.UTC
	}

	db, err := store.OpenDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	st := store.New(db, logger)

	provider := oauth.NewGoogleProvider(
		cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL,
		oauth.WithLogger(logger))
	tokens := oauth.NewTokenManager(st, provider, logger)
	handshakes := oauth.NewHandshakeService(st, provider, cfg.Server.PublicBaseURL, logger)

	cal := calendar.NewClient(cfg.Google.CalendarID, calendar.WithLogger(logger))
	hb := habits.NewService(st, loc, logger)

	sender := waha.NewClient(cfg.WAHA.BaseURL, cfg.WAHA.APIKey, cfg.WAHA.Session,
		waha.WithRateLimit(cfg.WAHA.SendRate, cfg.WAHA.SendBurst),
		waha.WithLogger(logger))

	search := agent.NewSearchClient(cfg.Search.BraveAPIKey, logger)
	llm := agent.NewLLMClient(cfg.LLM, logger)

	registry := agent.NewRegistry(logger)
	tools := agent.NewTools(cal, tokens, handshakes, hb, st, search, loc, logger)
	tools.RegisterAll(registry)

	orch := agent.NewOrchestrator(llm, registry, st, tokens,
		cfg.Name, cfg.LLM.HistoryWindow, loc, logger)

	runner := jobs.NewRunner(st, hb, cal, tokens, sender, loc, logger)

	return &backend{
		cfg:          cfg,
		logger:       logger,
		db:           db,
		store:        st,
		loc:          loc,
		sender:       sender,
		handshakes:   handshakes,
		orchestrator: orch,
		runner:       runner,
	}, nil
}
