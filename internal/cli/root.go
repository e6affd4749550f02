package cli

import (
	"context"
	"fmt"

	"atscore/internal/config"
	"atscore/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

// skipConfigAnnotation marks commands that run without loading configuration
const skipConfigAnnotation = "atscore/skip-config"

// NewRootCmd builds the atscore command tree
func NewRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "atscore",
		Short: "Score resumes the way applicant tracking systems read them",
		Long: `atscore analyzes a resume for ATS compliance, keyword match against a job
description, impact of achievement statements and formatting quality, and
turns the results into a 0-100 score with prioritized improvement suggestions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipConfigAnnotation] == "true" {
				return nil
			}
			return loadContext(cmd, configFile)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default: ./config.yaml, $HOME/.atscore/config.yaml, /etc/atscore/config.yaml)")

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newStructureCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the CLI with ctx, cancelled on shutdown signals by the caller
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// loadContext loads configuration and Vault secrets, builds the logger and
// attaches both to the command context for all subcommands
func loadContext(cmd *cobra.Command, configFile string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}

	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return err
	}

	logger.Debug("Configuration loaded",
		"command", cmd.Name(),
		"similarity", cfg.Scoring.Similarity,
		"feedback_mode", cfg.Feedback.Mode)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	cmd.SetContext(ctx)
	return nil
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg, nil
	}
	return nil, errors.NewInternalError("CONFIG_MISSING", "configuration not found in command context", nil)
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	return errors.NewNopLogger()
}
