package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jholhewres/finbot/pkg/finbot/config"
)

// newSetupCmd creates the `finbot setup` command for interactive
// configuration.
func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactive setup wizard",
		Long: `Starts an interactive wizard to create your initial config.yaml.
Secrets are stored in the OS keyring when available; config.yaml only
carries environment-variable references, never plaintext keys.

Examples:
  finbot setup`,
		RunE: runSetup,
	}
}

func runSetup(_ *cobra.Command, _ []string) error {
	reader := bufio.NewReader(os.Stdin)
	cfg := config.Default()
	keyringOK := config.KeyringAvailable()

	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════╗")
	fmt.Println("║            finbot — Setup Wizard             ║")
	fmt.Println("╚══════════════════════════════════════════════╝")
	fmt.Println()
	if !keyringOK {
		fmt.Println("[!] OS keyring unavailable. Secrets must come from environment")
		fmt.Println("    variables or a .env file at runtime.")
		fmt.Println()
	}

	// ── Step 1: Assistant basics ──
	fmt.Printf("1. Assistant name [%s]: ", cfg.Name)
	if name := readLine(reader); name != "" {
		cfg.Name = name
	}
	fmt.Printf("2. Timezone [%s]: ", cfg.Timezone)
	if tz := readLine(reader); tz != "" {
		cfg.Timezone = tz
	}

	// ── Step 2: LLM endpoint ──
	fmt.Println()
	fmt.Println("   LLM endpoint (OpenAI-compatible):")
	fmt.Printf("3. API base URL [%s]: ", cfg.LLM.BaseURL)
	if u := readLine(reader); u != "" {
		cfg.LLM.BaseURL = u
	}
	fmt.Printf("4. Model [%s]: ", cfg.LLM.Model)
	if m := readLine(reader); m != "" {
		cfg.LLM.Model = m
	}
	promptSecret(reader, keyringOK, "5. LLM API key", config.KeyringAPIKey)
	cfg.LLM.APIKey = "${FINBOT_API_KEY}"

	// ── Step 3: WAHA gateway ──
	fmt.Println()
	fmt.Println("   WAHA (WhatsApp HTTP API) gateway:")
	for cfg.WAHA.BaseURL == "" {
		fmt.Print("6. WAHA base URL (e.g. http://localhost:3000): ")
		cfg.WAHA.BaseURL = readLine(reader)
		if cfg.WAHA.BaseURL == "" {
			fmt.Println("   [!] WAHA base URL is required; it delivers all messages.")
		}
	}
	fmt.Printf("   Session name [%s]: ", cfg.WAHA.Session)
	if s := readLine(reader); s != "" {
		cfg.WAHA.Session = s
	}
	promptSecret(reader, keyringOK, "7. WAHA API key", config.KeyringWAHAKey)
	cfg.WAHA.APIKey = "${FINBOT_WAHA_KEY}"

	// ── Step 4: Google OAuth ──
	fmt.Println()
	fmt.Println("   Google OAuth app (for Calendar access):")
	fmt.Print("8. Google client id: ")
	cfg.Google.ClientID = readLine(reader)
	promptSecret(reader, keyringOK, "9. Google client secret", config.KeyringGoogleSecret)
	cfg.Google.ClientSecret = "${FINBOT_GOOGLE_SECRET}"

	// ── Step 5: Server ──
	fmt.Println()
	fmt.Printf("10. Listen address [%s]: ", cfg.Server.Addr)
	if a := readLine(reader); a != "" {
		cfg.Server.Addr = a
	}
	for cfg.Server.PublicBaseURL == "" {
		fmt.Print("11. Public base URL (e.g. https://fin.example.com): ")
		cfg.Server.PublicBaseURL = readLine(reader)
		if cfg.Server.PublicBaseURL == "" {
			fmt.Println("    [!] Required; auth links and the OAuth callback need it.")
		}
	}
	cfg.Server.PublicBaseURL = strings.TrimRight(cfg.Server.PublicBaseURL, "/")
	cfg.Google.RedirectURL = cfg.Server.PublicBaseURL + "/api/auth/google/callback"
	fmt.Printf("    OAuth redirect URL set to %s\n", cfg.Google.RedirectURL)
	fmt.Println("    Register this exact URL in the Google Cloud console.")

	promptSecret(reader, keyringOK, "12. Cron endpoint secret", config.KeyringCronSecret)
	cfg.Server.CronSecret = "${FINBOT_CRON_SECRET}"

	// ── Step 6: Scheduler ──
	fmt.Println()
	fmt.Print("13. Run jobs in-process? (y/n) [n]: ")
	if strings.ToLower(readLine(reader)) == "y" {
		cfg.Scheduler.Enabled = true
	}

	// ── Summary ──
	fmt.Println()
	fmt.Println("─────────────────────────────────────────────")
	fmt.Println("  Configuration summary:")
	fmt.Println("─────────────────────────────────────────────")
	fmt.Printf("  Name:       %s\n", cfg.Name)
	fmt.Printf("  Timezone:   %s\n", cfg.Timezone)
	fmt.Printf("  Model:      %s @ %s\n", cfg.LLM.Model, cfg.LLM.BaseURL)
	fmt.Printf("  WAHA:       %s (session %s)\n", cfg.WAHA.BaseURL, cfg.WAHA.Session)
	fmt.Printf("  Public URL: %s\n", cfg.Server.PublicBaseURL)
	fmt.Printf("  Scheduler:  %v\n", cfg.Scheduler.Enabled)
	if keyringOK {
		fmt.Println("  Secrets:    **** (OS keyring)")
	} else {
		fmt.Println("  Secrets:    set FINBOT_* environment variables before serving")
	}
	fmt.Println("─────────────────────────────────────────────")
	fmt.Println()

	target := "config.yaml"
	fmt.Printf("Save to %s? (y/n) [y]: ", target)
	if strings.ToLower(readLine(reader)) == "n" {
		fmt.Println("Setup cancelled.")
		return nil
	}
	if _, err := os.Stat(target); err == nil {
		fmt.Printf("File %s already exists. Overwrite? (y/n) [n]: ", target)
		if strings.ToLower(readLine(reader)) != "y" {
			fmt.Println("Setup cancelled. Existing file kept.")
			return nil
		}
	}

	if err := config.SaveToFile(cfg, target); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Println("config.yaml created (permissions 600, no plaintext secrets).")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Point your WAHA webhook at " + cfg.Server.PublicBaseURL + "/webhook")
	fmt.Println("  2. Run: finbot serve")
	fmt.Println()
	return nil
}

// promptSecret reads a secret with hidden input and stores it in the OS
// keyring. Falls back to visible input when stdin is not a terminal.
func promptSecret(reader *bufio.Reader, keyringOK bool, label, keyringKey string) {
	value, err := config.ReadPassword(label + " (hidden, Enter to skip): ")
	if err != nil {
		fmt.Print(label + " (or press Enter to skip): ")
		value = readLine(reader)
	}
	if value == "" {
		fmt.Println("   Skipped. Provide it via environment variable at runtime.")
		return
	}
	if !keyringOK {
		fmt.Println("   [!] Keyring unavailable; set the corresponding FINBOT_* variable instead.")
		return
	}
	if err := config.StoreKeyring(keyringKey, value); err != nil {
		fmt.Printf("   [!] Keyring store failed: %v\n", err)
		return
	}
	fmt.Println("   Stored in OS keyring.")
}

// readLine reads a single line from the reader, trimming whitespace.
func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
