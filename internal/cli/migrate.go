package cli

import (
	"context"

	"github.com/spf13/cobra"

	"teacher-assistant-bot/internal/config"
	"teacher-assistant-bot/internal/telemetry"
)

// NewMigrateCmd applies database migrations and seeds the starter questions.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations and seed sample questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := telemetry.NewLogger(cfg.Log)

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	b.Close()
	log.Info().Msg("migrate_done")
	return nil
}
