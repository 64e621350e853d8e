// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/jeranaias/campus-chat/internal/attach"
	"github.com/jeranaias/campus-chat/internal/config"
	"github.com/jeranaias/campus-chat/internal/logging"
	"github.com/jeranaias/campus-chat/internal/questions"
	"github.com/jeranaias/campus-chat/internal/storage"
	"github.com/jeranaias/campus-chat/internal/study"
	"github.com/jeranaias/campus-chat/internal/webhook"
)

// =============================================================================
// APP
// =============================================================================

// App holds the components a command runs against.
type App struct {
	Config     *config.Config
	ConfigPath string
	Log        zerolog.Logger

	Store         storage.Store
	Conversations *storage.ConversationRepo
	Studies       *storage.StudyRepo
	Tracker       *study.Tracker
	Client        *webhook.Client
	Intake        *attach.Intake
	Questions     *questions.Generator

	In  io.Reader
	Out io.Writer
	Err io.Writer

	JSON  bool
	Quiet bool

	// interactive reports whether In is a terminal. Defaults to IsTTY.
	interactive func() bool
}

// NewApp loads configuration and opens storage. Outside of serve, logging
// is raised to warn unless --verbose so log lines do not interleave with
// command output.
func NewApp(cmd Command, args Args) (*App, error) {
	cfg, path, err := loadConfig(args.ConfigPath)
	if err != nil {
		return nil, err
	}

	opts := logging.FromConfig(cfg.Log)
	switch {
	case args.Verbose:
		opts.Level = "debug"
	case cmd != CmdServe && logging.ParseLevel(opts.Level) < zerolog.WarnLevel:
		opts.Level = "warn"
	}
	log := logging.New(opts)

	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data directory: %w", err)
	}
	store, err := storage.Open(cfg.Storage.Backend, dataDir)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}

	app := newApp(cfg, store, log)
	app.ConfigPath = path
	app.JSON = args.JSON
	app.Quiet = args.Quiet
	return app, nil
}

// newApp wires components over an open store.
func newApp(cfg *config.Config, store storage.Store, log zerolog.Logger) *App {
	studies := storage.NewStudyRepo(store)
	return &App{
		Config:        cfg,
		Log:           log,
		Store:         store,
		Conversations: storage.NewConversationRepo(store),
		Studies:       studies,
		Tracker:       study.NewTracker(studies, study.WithLogger(log)),
		Client:        webhook.NewClient(cfg.Webhook.URL, webhook.WithTimeout(cfg.Webhook.Timeout())),
		Intake:        attach.New(cfg.Attachments.MaxBytes),
		Questions:     questions.NewGenerator(),
		In:            os.Stdin,
		Out:           os.Stdout,
		Err:           os.Stderr,
		interactive:   IsTTY,
	}
}

// Close releases the store.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

// respond prints data as a JSON envelope under --json, or runs text.
func (a *App) respond(command string, data any, text func(w io.Writer)) error {
	if a.JSON {
		return NewJSONResponse(command, data).Write(a.Out)
	}
	text(a.Out)
	return nil
}

// notice prints a status line unless --quiet or --json.
func (a *App) notice(format string, args ...any) {
	if a.Quiet || a.JSON {
		return
	}
	fmt.Fprintf(a.Out, format+"\n", args...)
}

// loadConfig returns the config and the path it came from, or the default
// TOML path when no file was given.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.LoadFromPath(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}

	cfg, err := config.Load()
	if cfg == nil {
		return nil, "", err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v (using defaults)\n", WarningStyle.Render("Warning:"), err)
	}
	defaultPath, _ := config.ConfigPathTOML()
	return cfg, defaultPath, nil
}
