package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"serialsync/internal/config"
	"serialsync/internal/logger"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	outputFlag   *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag, outputFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		outputFlag:   outputFlag,
	}
}

// ensureConfig loads the configuration once. Without --config the defaults apply.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg := config.Default()

		if path := strings.TrimSpace(*c.configFlag); path != "" {
			loaded, err := config.LoadConfig(path)
			if err != nil {
				c.configErr = err

				return
			}

			cfg = loaded
		}

		if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
			cfg.Logging.Level = level
		}

		if output := strings.TrimSpace(*c.outputFlag); output != "" {
			cfg.Output.BasePath = output
		}

		if err := cfg.Validate(); err != nil {
			c.configErr = fmt.Errorf("invalid configuration: %w", err)

			return
		}

		c.config = cfg
	})

	return c.config, c.configErr
}

// newLogger opens the run log. The caller closes it.
func (c *commandContext) newLogger() (*logger.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	return logger.NewFileLogger(cfg.Logging.Level, cfg.Logging.File)
}

func newRootCommand() *cobra.Command {
	var configFlag, logLevelFlag, outputFlag string

	ctx := newCommandContext(&configFlag, &logLevelFlag, &outputFlag)

	rootCmd := &cobra.Command{
		Use:           "serialsync",
		Short:         "Keep a local copy of a serialized publication in sync",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()

			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "", "Base directory for publication folders")

	rootCmd.AddCommand(newSyncCommand(ctx))
	rootCmd.AddCommand(newScanCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))

	return rootCmd
}
