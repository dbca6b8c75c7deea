package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/argusia/argus/internal/config"
	"github.com/argusia/argus/internal/utils"
)

// options are the flags shared by every sub-command.
type options struct {
	configPath string
	logLevel   string

	cfg *config.AppConfig
}

// RootCommand creates the argus command and its sub-commands.
func RootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "argus",
		Short:         "Argus predatory comment detection toolkit",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "./configs/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return opts.initialize()
	}

	rootCmd.AddCommand(
		generateCommand(opts),
		analyzeCommand(opts),
		hashKeyCommand(opts),
	)

	return rootCmd
}

// initialize loads the configuration the same way the server does. A missing
// config file is not an error; defaults and environment variables apply.
func (o *options) initialize() error {
	_ = godotenv.Load()

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}

	utils.InitLogger(cfg)
	o.cfg = cfg
	return nil
}
