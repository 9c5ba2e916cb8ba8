package cli

import (
	"context"
	"fmt"
	"time"

	"dreamforge/internal/config"
	"dreamforge/internal/jobs"
	"dreamforge/internal/server"
	"dreamforge/internal/store"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	shutdownTimeout    = 10 * time.Second
	rulesDebounceDelay = 500 * time.Millisecond
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the DreamForge HTTP API",
	Long: `Start the HTTP server that exposes the career coaching API.

Public endpoints:
- POST /api/auth/register, POST /api/auth/signin
- GET /health, GET /stats

Every other /api route requires "Authorization: Bearer <token>" from sign-in.

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server
- Use --cert-file and --key-file for TLS certificates`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")

	// Bind flags to viper config keys
	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
	bindFlag("server.tls.mode", "tls-mode")
	bindFlag("server.tls.certfile", "cert-file")
	bindFlag("server.tls.keyfile", "key-file")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	applyServeFlags(cmd, cfg)

	// Validate TLS configuration after applying overrides
	tempConfig := &config.Config{Server: cfg.Server}
	if err := tempConfig.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	app, err := newApplication(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer app.Close()

	if cfg.Jobs.RulesFile != "" {
		watcher := jobs.NewRulesWatcher(app.rules, rulesDebounceDelay, logger)
		if err := watcher.Start(); err != nil {
			logger.Warn("Rules watcher disabled", "file", cfg.Jobs.RulesFile, "error", err)
		} else {
			defer func() { _ = watcher.Stop() }()
		}
	}

	warmer := jobs.NewWarmer(cfg.Jobs, app.searcher, logger)
	if err := warmer.Start(ctx); err != nil {
		return err
	}
	defer warmer.Stop()

	deps := server.Dependencies{
		Career:     app.career,
		Sessions:   app.tokens,
		Provider:   app.ai,
		PingDB:     func(ctx context.Context) error { return store.Ping(ctx, app.db) },
		Jobs:       app.searcher,
		RateLimits: app.om,
		Middleware: app.om.HTTPMiddleware(),
	}

	return server.NewServer(cfg, server.ServerConfigFrom(cfg, Version), deps, logger).Start(ctx)
}

// applyServeFlags copies explicitly set flags over the loaded config.
// Config is unmarshalled before cobra parses flags, so the viper bindings alone arrive too late.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	override := func(name string, dst *string) {
		if flags.Changed(name) {
			if v, err := flags.GetString(name); err == nil {
				*dst = v
			}
		}
	}
	override("port", &cfg.Server.Port)
	override("host", &cfg.Server.Host)
	override("tls-mode", &cfg.Server.TLS.Mode)
	override("cert-file", &cfg.Server.TLS.CertFile)
	override("key-file", &cfg.Server.TLS.KeyFile)
}
