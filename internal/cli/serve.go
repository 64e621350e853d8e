// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/campus-chat/internal/config"
	"github.com/jeranaias/campus-chat/internal/server"
)

const (
	// configReloadDebounce coalesces editor write bursts.
	configReloadDebounce = 500 * time.Millisecond

	shutdownTimeout = 15 * time.Second
)

// HandleServe runs the HTTP API until SIGINT or SIGTERM. Edits to the
// webhook URL in the config file take effect without a restart.
func HandleServe(app *App, args Args) error {
	cfg := app.Config.Server
	if addr := args.Parser.Flag("addr"); addr != "" {
		cfg.Addr = addr
	}

	srv := server.New(cfg, server.Deps{
		Assistant:     app.Client,
		Conversations: app.Conversations,
		Tracker:       app.Tracker,
		Questions:     app.Questions,
		Intake:        app.Intake,
		Logger:        app.Log,
	})

	if app.ConfigPath != "" {
		if _, err := os.Stat(app.ConfigPath); err == nil {
			w, err := config.NewWatcher(app.ConfigPath, configReloadDebounce, app.Log, func(c *config.Config) {
				if c.Webhook.URL != app.Client.Endpoint() {
					app.Client.SetEndpoint(c.Webhook.URL)
					app.Log.Info().Msg("webhook_endpoint_updated")
				}
			})
			if err != nil {
				app.Log.Warn().Err(err).Msg("config_watch_disabled")
			} else {
				defer w.Close()
			}
		}
	}

	if app.Client.Endpoint() == "" {
		app.Log.Warn().Msg("webhook_url_not_configured")
	}
	app.notice("%s http://%s", SuccessStyle.Render("Serving on"), cfg.Addr)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errCh:
		if err != nil {
			return NewCommandError("serve", "", "server stopped", err)
		}
		return nil
	case sig := <-sigChan:
		app.Log.Info().Str("signal", sig.String()).Msg("shutdown_requested")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
