// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information, overridden at build time with -ldflags.
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command is the top-level command to execute.
type Command int

const (
	CmdChat Command = iota
	CmdServe
	CmdExport
	CmdStudy
	CmdQuestions
	CmdVideos
	CmdCourses
	CmdConfig
	CmdVersion
	CmdHelp
)

var commandNames = map[string]Command{
	"chat":      CmdChat,
	"serve":     CmdServe,
	"server":    CmdServe,
	"export":    CmdExport,
	"study":     CmdStudy,
	"questions": CmdQuestions,
	"videos":    CmdVideos,
	"courses":   CmdCourses,
	"config":    CmdConfig,
	"version":   CmdVersion,
	"help":      CmdHelp,
}

// String returns the command's name.
func (c Command) String() string {
	for name, cmd := range commandNames {
		if cmd == c && name != "server" {
			return name
		}
	}
	return "unknown"
}

// boolFlagNames never take a value.
var boolFlagNames = []string{
	"verbose", "v", "quiet", "q", "json", "help", "h", "version",
	"resume", "open", "speak", "no-markdown", "yes", "y",
}

// Args holds parsed arguments.
type Args struct {
	// Global flags
	Verbose    bool
	Quiet      bool
	JSON       bool
	ConfigPath string

	// Subcommand is the first argument after the command, e.g. "start".
	Subcommand string

	// Raw holds the arguments after the command name.
	Raw []string

	// Parser gives commands access to their own flags.
	Parser *ArgParser
}

const usageText = `campuschat - academic chat assistant for the terminal

Usage:
  campuschat [command] [flags]

Commands:
  chat                       Interactive chat (default)
    --course <id|code>         Tag messages with a course
    --session <id>             Continue a specific session
    --resume                   Continue the most recent session
    --speak                    Read replies aloud when a voice engine exists
    --no-markdown              Print replies without markdown rendering
  serve                      Run the HTTP API for the browser UI
    --addr <host:port>         Listen address (default from config)
  export                     Export conversations and study history
    --format <json|text|markdown>
    --session <id>             Export one session (default: all)
    --out <dir>                Output directory (default: .)
    --open                     Open the file afterwards
  study start [course]       Start a study session
  study end                  End the active study session
  study status               Show the active session and statistics
  study list                 List ended sessions
  questions [--count N]      Suggest follow-up questions for a session
    --session <id>             Session to draw topics from (default: latest)
  videos <text>              List video links found in text
  courses                    List the course catalog
  config [get|set|list|path|reset]
                             Inspect or change configuration
  version                    Show version information
  help                       Show this help

Global flags:
  --config <path>            Use a specific config file
  --json                     Print machine-readable output
  -q, --quiet                Suppress non-essential output
  -v, --verbose              Enable debug logging

Examples:
  campuschat chat --course "CS 101"
  campuschat study start math201
  campuschat export --format markdown --out ~/Documents
  campuschat config set webhook.url https://example.edu/webhook/chat
`

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// PrintVersion writes version and build information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "campuschat %s\n", Version)
	fmt.Fprintf(w, "  commit:  %s\n", GitCommit)
	fmt.Fprintf(w, "  built:   %s\n", BuildDate)
	fmt.Fprintf(w, "  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse resolves the command and global flags from argv (without the
// program name). No arguments means chat.
func Parse(argv []string) (Command, Args, error) {
	p := NewArgParser(argv, boolFlagNames...)

	args := Args{
		Verbose:    p.BoolFlag("verbose", "v"),
		Quiet:      p.BoolFlag("quiet", "q"),
		JSON:       p.BoolFlag("json"),
		ConfigPath: p.Flag("config"),
	}

	if p.BoolFlag("help", "h") && p.PositionalCount() == 0 {
		return CmdHelp, args, nil
	}
	if p.BoolFlag("version") {
		return CmdVersion, args, nil
	}

	cmd := CmdChat
	var rest []string
	if name := p.Positional(0); name != "" {
		c, ok := commandNames[strings.ToLower(name)]
		if !ok {
			if s := SuggestCommand(name); s != "" {
				return CmdHelp, args, Usagef("campuschat help", "unknown command %q (did you mean %q?)", name, s)
			}
			return CmdHelp, args, Usagef("campuschat help", "unknown command %q", name)
		}
		cmd = c
		rest = dropFirst(argv, name)
	}

	args.Raw = rest
	args.Parser = NewArgParser(rest, boolFlagNames...)
	args.Subcommand = args.Parser.Subcommand()
	return cmd, args, nil
}

// dropFirst removes the first occurrence of name from argv.
func dropFirst(argv []string, name string) []string {
	out := make([]string, 0, len(argv))
	dropped := false
	for _, a := range argv {
		if !dropped && a == name {
			dropped = true
			continue
		}
		out = append(out, a)
	}
	return out
}
