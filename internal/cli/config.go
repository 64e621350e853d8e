// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/jeranaias/campus-chat/internal/config"
)

const configUsage = "campuschat config [show|list|get <key>|set <key> <value>|path|reset [--yes]]"

// =============================================================================
// CONFIG COMMAND
// =============================================================================

// HandleConfig inspects or changes the configuration file.
func HandleConfig(app *App, args Args) error {
	p := args.Parser
	switch sub := strings.ToLower(args.Subcommand); sub {
	case "", "show":
		return handleConfigShow(app)
	case "list", "keys":
		return handleConfigList(app)
	case "get":
		return handleConfigGet(app, p.Positional(1))
	case "set":
		return handleConfigSet(app, p.Positional(1), strings.Join(p.PositionalFrom(2), " "))
	case "path":
		return app.respond("config path", map[string]string{"path": app.ConfigPath}, func(w io.Writer) {
			fmt.Fprintln(w, app.ConfigPath)
		})
	case "reset":
		return handleConfigReset(app, p.BoolFlag("yes", "y"))
	default:
		return Usagef(configUsage, "unknown config action %q", sub)
	}
}

func handleConfigShow(app *App) error {
	if app.JSON {
		var data any
		if err := json.Unmarshal([]byte(app.Config.String()), &data); err != nil {
			return err
		}
		return NewJSONResponse("config show", data).Write(app.Out)
	}
	fmt.Fprintln(app.Out, TitleStyle.Render("Configuration"))
	fmt.Fprintln(app.Out, DimStyle.Render(app.ConfigPath))
	for _, key := range config.GetAllKeys() {
		v, err := app.Config.Get(key)
		if err != nil {
			continue
		}
		fmt.Fprintln(app.Out, RenderKeyValue(key, maskIfSecret(key, formatConfigValue(v))))
	}
	return nil
}

func handleConfigList(app *App) error {
	keys := config.GetAllKeys()
	return app.respond("config list", keys, func(w io.Writer) {
		for _, k := range keys {
			fmt.Fprintln(w, k)
		}
	})
}

func handleConfigGet(app *App, key string) error {
	if key == "" {
		return Usagef("campuschat config get <key>", "no config key provided")
	}
	key = normalizeConfigKey(key)
	v, err := app.Config.Get(key)
	if err != nil {
		return NewCommandError("config", "get", "unknown key "+key, err)
	}
	return app.respond("config get", map[string]any{"key": key, "value": v}, func(w io.Writer) {
		fmt.Fprintln(w, maskIfSecret(key, formatConfigValue(v)))
	})
}

func handleConfigSet(app *App, key, value string) error {
	if key == "" {
		return Usagef("campuschat config set <key> <value>", "no config key provided")
	}
	key = normalizeConfigKey(key)

	cfg := app.Config.Clone()
	if err := cfg.Set(key, value); err != nil {
		return NewCommandError("config", "set", "cannot set "+key, err)
	}
	if err := cfg.Validate(); err != nil {
		return NewCommandError("config", "set", "invalid configuration value", err)
	}
	if err := saveConfig(cfg, app.ConfigPath); err != nil {
		return NewCommandError("config", "set", "cannot save config", err)
	}
	app.Config = cfg

	return app.respond("config set", map[string]any{"key": key, "value": value}, func(w io.Writer) {
		fmt.Fprintf(w, "%s %s = %s\n", SuccessStyle.Render("[OK]"), key, maskIfSecret(key, value))
	})
}

func handleConfigReset(app *App, yes bool) error {
	ok, err := app.RequireConfirmation(yes, "reset "+app.ConfigPath+" to defaults")
	if err != nil {
		return err
	}
	if !ok {
		app.notice("Cancelled.")
		return nil
	}
	cfg := config.Default()
	if err := saveConfig(cfg, app.ConfigPath); err != nil {
		return NewCommandError("config", "reset", "cannot save config", err)
	}
	app.Config = cfg
	return app.respond("config reset", map[string]string{"path": app.ConfigPath}, func(w io.Writer) {
		fmt.Fprintf(w, "%s configuration reset to defaults\n", SuccessStyle.Render("[OK]"))
	})
}

// saveConfig writes cfg to path in the format its extension names.
func saveConfig(cfg *config.Config, path string) error {
	if path == "" {
		return config.Save(cfg)
	}
	if strings.HasSuffix(path, ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}

// normalizeConfigKey accepts "Webhook.URL" and "webhook_url" style keys.
func normalizeConfigKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if strings.Contains(key, ".") {
		return key
	}
	for _, k := range config.GetAllKeys() {
		if strings.Replace(k, ".", "_", 1) == key {
			return k
		}
	}
	return key
}

func formatConfigValue(v any) string {
	switch val := v.(type) {
	case []string:
		return strings.Join(val, ",")
	case string:
		if val == "" {
			return "(not set)"
		}
		return val
	default:
		return fmt.Sprint(val)
	}
}

// maskIfSecret hides the query string of the webhook URL, which may carry
// a token.
func maskIfSecret(key, value string) string {
	if key != "webhook.url" {
		return value
	}
	u, err := url.Parse(value)
	if err != nil || u.RawQuery == "" {
		return value
	}
	u.RawQuery = "REDACTED"
	return u.String()
}
