package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// newCronCmd creates the `finbot cron` command group for running the
// periodic jobs from a system crontab instead of the HTTP endpoints.
func newCronCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cron",
		Short: "Run periodic jobs from an external cron",
	}
	cmd.AddCommand(newCronRunCmd())
	return cmd
}

func newCronRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the job matching an hour slot",
		Long: `Dispatch the periodic job for an hour slot: UTC hour 0 sends the
morning briefing, 13 the evening summary, and 1-12 the hourly nudge.
Without --hour the current UTC hour is used.

Examples:
  finbot cron run
  finbot cron run --hour 0`,
		RunE: runCronRun,
	}
	cmd.Flags().Int("hour", -1, "UTC hour slot to dispatch (default: current hour)")
	return cmd
}

func runCronRun(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	app, err := buildBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	hour, _ := cmd.Flags().GetInt("hour")
	if hour < 0 || hour > 23 {
		hour = time.Now().UTC().Hour()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	logger.Info("running cron job", "utc_hour", hour)
	return app.runner.RunByHour(ctx, hour)
}
