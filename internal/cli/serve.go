package cli

import (
	"context"
	"fmt"
	"time"

	"atscore/internal/common"
	"atscore/internal/config"
	"atscore/internal/observability"
	"atscore/internal/server"

	"github.com/spf13/cobra"
)

type serveOptions struct {
	Host     string
	Port     string
	TLSMode  string
	CertFile string
	KeyFile  string
	CAFile   string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API for resume analysis",
		Long: `Start an HTTP server that provides REST API endpoints for resume analysis.

Available endpoints:
- POST /analyze: Score resume text (JSON)
- POST /analyze/file: Score an uploaded resume document (multipart)
- POST /structure: Structure resume text
- GET /health: Health check including model availability
- GET /stats: Breaker, cache, weights and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			applyServeOverrides(cmd, cfg, opts)
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&opts.Port, "port", "p", "", "Port to listen on (default from config)")
	cmd.Flags().StringVar(&opts.Host, "host", "", "Host to bind to (default from config)")
	cmd.Flags().StringVar(&opts.TLSMode, "tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	cmd.Flags().StringVar(&opts.CertFile, "cert-file", "", "Server certificate file (PEM, overrides config)")
	cmd.Flags().StringVar(&opts.KeyFile, "key-file", "", "Server private key file (PEM, overrides config)")
	cmd.Flags().StringVar(&opts.CAFile, "ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")

	return cmd
}

// applyServeOverrides copies explicitly set flags over the loaded config
func applyServeOverrides(cmd *cobra.Command, cfg *config.Config, opts serveOptions) {
	overrides := []struct {
		flag  string
		value string
		dst   *string
	}{
		{"host", opts.Host, &cfg.Server.Host},
		{"port", opts.Port, &cfg.Server.Port},
		{"tls-mode", opts.TLSMode, &cfg.Server.TLS.Mode},
		{"cert-file", opts.CertFile, &cfg.Server.TLS.CertFile},
		{"key-file", opts.KeyFile, &cfg.Server.TLS.KeyFile},
		{"ca-file", opts.CAFile, &cfg.Server.TLS.CAFile},
	}
	for _, o := range overrides {
		if cmd.Flags().Changed(o.flag) {
			*o.dst = o.value
		}
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := getLoggerFromContext(ctx)

	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := om.Shutdown(shutdownCtx); err != nil {
			logger.LogError(err, "Failed to shutdown observability")
		}
	}()

	var rec common.Recorder
	if m := om.Metrics(); m != nil {
		rec = m
	}

	pipeline, err := common.BuildPipeline(ctx, cfg, logger, rec)
	if err != nil {
		return err
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			logger.LogError(err, "Failed to release pipeline resources")
		}
	}()
	pipeline.WatchWeights(cfg)

	srv, err := server.NewServer(server.NewServerConfig(cfg, Version), pipeline, om, logger)
	if err != nil {
		return err
	}

	logger.Info("Starting atscore server",
		"version", Version,
		"similarity", cfg.Scoring.Similarity,
		"feedback_mode", cfg.Feedback.Mode,
		"cache", pipeline.Analyzer.CacheBackend())
	return srv.Start(ctx)
}
