// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// campuschat is a terminal and HTTP front end for a campus academic
// assistant reached through a chat webhook.
package main

import (
	"os"

	"github.com/jeranaias/campus-chat/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	cmd, args, err := cli.Parse(argv)
	if err != nil {
		cli.DisplayError(os.Stderr, "", err, args.JSON)
		return cli.ExitCode(err)
	}

	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return cli.ExitSuccess
	case cli.CmdVersion:
		if args.JSON {
			cli.NewJSONResponse("version", map[string]string{
				"version":   Version,
				"gitCommit": GitCommit,
				"buildDate": BuildDate,
			}).Write(os.Stdout)
		} else {
			cli.PrintVersion(os.Stdout)
		}
		return cli.ExitSuccess
	}

	app, err := cli.NewApp(cmd, args)
	if err != nil {
		cli.DisplayError(os.Stderr, cmd.String(), err, args.JSON)
		return cli.ExitCode(err)
	}
	defer app.Close()

	switch cmd {
	case cli.CmdChat:
		err = cli.HandleChat(app, args)
	case cli.CmdServe:
		err = cli.HandleServe(app, args)
	case cli.CmdExport:
		err = cli.HandleExport(app, args)
	case cli.CmdStudy:
		err = cli.HandleStudy(app, args)
	case cli.CmdQuestions:
		err = cli.HandleQuestions(app, args)
	case cli.CmdVideos:
		err = cli.HandleVideos(app, args)
	case cli.CmdCourses:
		err = cli.HandleCourses(app, args)
	case cli.CmdConfig:
		err = cli.HandleConfig(app, args)
	}

	if err != nil {
		out := app.Err
		if args.JSON {
			out = app.Out
		}
		cli.DisplayError(out, cmd.String(), err, args.JSON)
	}
	return cli.ExitCode(err)
}
