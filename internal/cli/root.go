package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	port       string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:   "teacher-assistant-bot",
		Short: "Telegram assistant for teachers: materials, attendance, quizzes and announcements",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), configPath, port)
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&port, "port", "", "HTTP port for /healthz and /ws (overrides config)")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to optional YAML config")
	cmd.AddCommand(NewStartCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	return cmd
}
