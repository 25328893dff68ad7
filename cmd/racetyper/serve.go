package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/racetyper/internal/config"
	"github.com/verte-zerg/racetyper/internal/model"
	"github.com/verte-zerg/racetyper/internal/server"
)

var (
	serveAddr     string
	servePath     string
	serveSegments int
	serveOrigins  []string
	serveNoLimit  bool
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the typing WebSocket server",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", config.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&servePath, "path", config.DefaultPath, "WebSocket endpoint path")
	cmd.Flags().IntVar(&serveSegments, "segments", config.DefaultSegments, "segments per text")
	cmd.Flags().StringSliceVar(&serveOrigins, "allowed-origin", nil, "allowed Origin header (repeatable; default all)")
	cmd.Flags().BoolVar(&serveNoLimit, "no-rate-limit", false, "disable per-connection rate limiting")
	return cmd
}

func resolveServerConfig(cmd *cobra.Command) (model.ServerConfig, error) {
	cfg := config.DefaultServerConfig()
	if err := fileCfg.Apply(&cfg); err != nil {
		return model.ServerConfig{}, errors.Wrap(err, "apply config failed")
	}
	if cmd.Flags().Changed("addr") {
		cfg.Addr = serveAddr
	}
	if cmd.Flags().Changed("path") {
		cfg.Path = servePath
	}
	if cmd.Flags().Changed("segments") {
		cfg.Session.Segments = serveSegments
	}
	if cmd.Flags().Changed("allowed-origin") {
		cfg.AllowedOrigins = serveOrigins
	}
	if serveNoLimit {
		cfg.RateLimit.Enabled = false
	}
	if err := config.Validate(cfg); err != nil {
		return model.ServerConfig{}, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveServerConfig(cmd)
	if err != nil {
		return err
	}

	st, closeStore, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithFields(logrus.Fields{
		"segments":        cfg.Session.Segments,
		"heartbeat":       cfg.HeartbeatInterval.String(),
		"client_timeout":  cfg.ClientTimeout.String(),
		"rate_limit":      cfg.RateLimit.Enabled,
		"allowed_origins": cfg.AllowedOrigins,
	}).Info("starting server")

	srv := server.New(cfg, st, st, logger)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "run server failed")
	}
	logger.Info("server stopped")
	return nil
}
