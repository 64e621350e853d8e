// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and manages the campus-chat configuration.
//
// TOML and JSON files are supported, with defaults, environment variable
// overrides and validation.
//
// # Configuration Precedence
//
//   - Environment variables (CAMPUSCHAT_*)
//   - ~/.campuschat/config.toml
//   - ~/.campuschat/config.json
//   - Built-in defaults
//
// CAMPUSCHAT_HOME replaces ~/.campuschat.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := webhook.NewClient(cfg.Webhook.URL, webhook.WithTimeout(cfg.Webhook.Timeout()))
//
// While serving, a Watcher reloads the file and pushes webhook changes to
// the running client.
package config
