// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the campuschat commands.
//
// # Key Types
//
//   - Command: the top-level commands
//   - Args: global flags plus an ArgParser over the command's own arguments
//   - App: configuration, storage, tracker and webhook client shared by commands
//   - ChatSession: the interactive chat REPL on top of session.Manager
//
// # Usage
//
//	cmd, args, err := cli.Parse(os.Args[1:])
//	app, err := cli.NewApp(cmd, args)
//	defer app.Close()
//	switch cmd {
//	case cli.CmdChat:
//	    err = cli.HandleChat(app, args)
//	// ...
//	}
//
// Every command honours --json, printing a JSONResponse envelope instead of
// styled text. Styles follow NO_COLOR and FORCE_COLOR.
package cli
