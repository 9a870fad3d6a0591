package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/strategic-matchmaker/internal/server"
	"github.com/jonathan/strategic-matchmaker/internal/server/ratelimit"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes match computation, match listing and profile endpoints.

Without database.url (or DATABASE_URL) profiles and matches live in memory and are lost on exit.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd, appOptions{requireAuth: true, store: storeAuto})
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg.Server
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	tokens := server.NewJWTService(&a.cfg.Auth)
	srv, err := server.New(server.Config{
		Addr:            cfg.Addr,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimit: ratelimit.Settings{
			RequestsPerMinute:      cfg.RateLimit.RequestsPerMinute,
			Burst:                  cfg.RateLimit.Burst,
			MatchRequestsPerMinute: cfg.RateLimit.MatchRequestsPerMinute,
			MatchBurst:             cfg.RateLimit.MatchBurst,
		},
	}, server.Dependencies{
		Matches:  a.service,
		Profiles: a.store,
		Tokens:   tokens.AsTokenValidator(),
		Health:   a.health,
		Logger:   a.logger,
		Metrics:  a.metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	a.logger.Info("matchmaker starting",
		zap.String("version", version),
		zap.Bool("database", a.db != nil),
	)
	return srv.Run(ctx)
}
