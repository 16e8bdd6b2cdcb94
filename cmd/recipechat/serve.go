package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaharia-lab/recipechat/config"
	"github.com/shaharia-lab/recipechat/observability"
	"github.com/shaharia-lab/recipechat/server"
	"github.com/spf13/cobra"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cfg)
		},
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer observability.Sync(logger)

	if cfg.LLM.Tracing {
		shutdown := installTracerProvider()
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.WithErr(err).Warn("Failed to shut down tracer provider")
			}
		}()
	}

	provider, closeProvider, err := newProvider(ctx, cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("failed to create %s provider: %w", cfg.LLM.Provider, err)
	}
	defer func() {
		if err := closeProvider(); err != nil {
			logger.WithErr(err).Warn("Failed to close completion provider")
		}
	}()

	store, err := newStore(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("failed to open %s conversation store: %w", cfg.Store.Driver, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.WithErr(err).Warn("Failed to close conversation store")
		}
	}()

	service, err := newChatService(cfg.LLM, provider, store)
	if err != nil {
		return err
	}

	srv, err := server.New(service, server.Options{
		Addr:            cfg.Server.Addr,
		StaticDir:       cfg.Server.StaticDir,
		CookieName:      cfg.Server.CookieName,
		CookieMaxAge:    cfg.Server.CookieMaxAge,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RateLimit:       cfg.Server.RateLimit,
		RateBurst:       cfg.Server.RateBurst,
	}, logger)
	if err != nil {
		return err
	}

	logger.WithFields(map[string]interface{}{
		"provider": cfg.LLM.Provider,
		"model":    cfg.LLM.Model,
		"store":    cfg.Store.Driver,
	}).Info("Starting recipechat")

	return srv.Run(ctx)
}
