package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quizmaster/internal/config"
	"quizmaster/internal/logging"
)

// options are shared by all subcommands; cfg is filled before any of them runs.
type options struct {
	configPath string
	port       string
	cfg        config.Config
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          "quizmaster",
		Short:        "Timed multiple-choice quiz platform",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("load config %s: %w", opts.configPath, err)
			}
			if opts.port != "" {
				cfg.Server.Port = opts.port
			}
			logging.Init(cfg.Log.Level, cfg.Log.Pretty)
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", configPath, "path to YAML config")
	cmd.PersistentFlags().StringVar(&opts.port, "port", "", "port to listen on (overrides config and PORT)")
	cmd.AddCommand(newStartCmd(opts), newMigrateCmd(opts))
	return cmd
}
