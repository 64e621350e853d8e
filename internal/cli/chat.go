// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/campus-chat/internal/attach"
	"github.com/jeranaias/campus-chat/internal/config"
	"github.com/jeranaias/campus-chat/internal/export"
	"github.com/jeranaias/campus-chat/internal/links"
	"github.com/jeranaias/campus-chat/internal/model"
	"github.com/jeranaias/campus-chat/internal/questions"
	"github.com/jeranaias/campus-chat/internal/session"
	"github.com/jeranaias/campus-chat/internal/speech"
	"github.com/jeranaias/campus-chat/internal/study"
	"github.com/jeranaias/campus-chat/internal/webhook"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides line editing and persistent input history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor whose history lives in the config
// directory.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeSlashCommand)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	c := &ChatCLI{line: line, historyFile: filepath.Join(dir, "chat_history")}
	c.LoadHistory()
	return c
}

// LoadHistory reads the history file if it exists.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput prompts for one line and records it in the history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes the history file, owner-only.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves the history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

var slashCommands = []string{
	"/help", "/clear", "/course", "/study", "/questions", "/videos",
	"/export", "/attach", "/send", "/history", "/status", "/quit",
}

func completeSlashCommand(line string) []string {
	if !strings.HasPrefix(line, "/") {
		return nil
	}
	var out []string
	for _, c := range slashCommands {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// CHAT SESSION
// =============================================================================

// ChatSession is the state of one interactive chat.
type ChatSession struct {
	app      *App
	manager  *session.Manager
	renderer *replyRenderer
	synth    speech.Synthesizer
	speak    bool

	// course tags outgoing messages; nil for none.
	course *model.Course

	// pending attachments go out with the next message.
	pending []model.Attachment

	out io.Writer
	err io.Writer

	mu     sync.Mutex
	cancel context.CancelFunc
}

// ChatOptions select the conversation and presentation of a chat.
type ChatOptions struct {
	SessionID string
	Resume    bool
	Course    string
	Speak     bool
	Markdown  bool
}

// NewChatSession builds a chat over app. The assistant is usually
// app.Client; synth may be speech.Unsupported{}.
func NewChatSession(app *App, assistant session.Assistant, synth speech.Synthesizer, opts ChatOptions) (*ChatSession, error) {
	id := opts.SessionID
	if id == "" && opts.Resume {
		latest, err := latestSessionID(app)
		if err != nil {
			return nil, err
		}
		id = latest
	}

	courseKey := opts.Course
	if courseKey == "" {
		courseKey = app.Config.UI.DefaultCourse
	}
	var course *model.Course
	if courseKey != "" {
		c, ok := model.LookupCourse(courseKey)
		if !ok {
			return nil, &NotFoundError{Kind: "course", Name: courseKey}
		}
		course = &c
	}

	log := app.Log
	m := session.NewManager(session.Config{
		SessionID:  id,
		Assistant:  assistant,
		Repository: app.Conversations,
		Logger:     &log,
	})
	if id != "" {
		m.Load()
	}
	if synth == nil {
		synth = speech.Unsupported{}
	}

	return &ChatSession{
		app:      app,
		manager:  m,
		renderer: newReplyRenderer(opts.Markdown),
		synth:    synth,
		speak:    opts.Speak && synth.IsSupported(),
		course:   course,
		out:      app.Out,
		err:      app.Err,
	}, nil
}

// latestSessionID returns the most recently created persisted session, or
// "" when there is none.
func latestSessionID(app *App) (string, error) {
	convs, err := app.Conversations.List()
	if err != nil {
		return "", fmt.Errorf("list conversations: %w", err)
	}
	if len(convs) == 0 {
		return "", nil
	}
	return convs[len(convs)-1].ID, nil
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat runs the interactive chat until /quit, Ctrl+C at the prompt
// or EOF.
func HandleChat(app *App, args Args) error {
	p := args.Parser
	synth, _ := speech.Detect()
	opts := ChatOptions{
		SessionID: p.Flag("session"),
		Resume:    p.BoolFlag("resume"),
		Course:    p.Flag("course"),
		Speak:     p.BoolFlag("speak") || app.Config.UI.SpeakReplies,
		Markdown:  app.Config.UI.RenderMarkdown && !p.BoolFlag("no-markdown") && IsStdoutTTY(),
	}
	cs, err := NewChatSession(app, app.Client, synth, opts)
	if err != nil {
		return err
	}
	defer cs.synth.Stop()

	if !app.Quiet {
		cs.printWelcome()
	}

	input := NewChatCLI()
	defer input.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if cs.cancelInFlight() {
				fmt.Fprintln(cs.err, "\n"+WarningStyle.Render("[Cancelled]"))
			}
		}
	}()

	for {
		line, err := input.ReadInput(promptStyle.Render("you> "))
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D, or a closed terminal.
			fmt.Fprintln(cs.out)
			cs.printExitSummary()
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			cs.printExitSummary()
			return nil
		}

		if strings.HasPrefix(line, "/") {
			keepGoing, err := cs.handleSlashCommand(line)
			if err != nil {
				fmt.Fprintf(cs.err, "%s %v\n", ErrorStyle.Render("[Error]"), err)
			}
			if !keepGoing {
				cs.printExitSummary()
				return nil
			}
			continue
		}

		if err := cs.send(line); err != nil {
			fmt.Fprintf(cs.err, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		}
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// send delivers content with any pending attachments and prints the reply.
func (cs *ChatSession) send(content string) error {
	ctx, cancel := context.WithCancel(context.Background())
	cs.mu.Lock()
	cs.cancel = cancel
	cs.mu.Unlock()
	defer func() {
		cs.mu.Lock()
		cs.cancel = nil
		cs.mu.Unlock()
		cancel()
	}()

	cs.synth.Stop()
	if !cs.app.Quiet {
		fmt.Fprintln(cs.out, DimStyle.Render("Thinking..."))
	}

	start := time.Now()
	reply, err := cs.manager.SendMessage(ctx, content, cs.pending, cs.course)
	switch {
	case errors.Is(err, session.ErrEmptyMessage):
		return nil
	case err != nil:
		return err
	}
	cs.pending = nil
	cs.app.Tracker.RecordMessage()

	fmt.Fprintln(cs.out)
	cs.renderer.printMessage(cs.out, reply)
	if !cs.app.Quiet {
		fmt.Fprintln(cs.out, DimStyle.Render(session.FormatDuration(time.Since(start))))
	}
	fmt.Fprintln(cs.out)

	if cs.speak && reply.Content != webhook.NotFoundNotice {
		go func(text string) {
			if err := cs.synth.Speak(context.Background(), text, speech.DefaultOptions()); err != nil {
				cs.app.Log.Debug().Err(err).Msg("speak_failed")
			}
		}(reply.Content)
	}
	return nil
}

// cancelInFlight cancels the running request and reports whether there was
// one.
func (cs *ChatSession) cancelInFlight() bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.cancel == nil {
		return false
	}
	cs.cancel()
	cs.cancel = nil
	return true
}

// lastReply returns the newest assistant message.
func (cs *ChatSession) lastReply() (model.Message, bool) {
	msgs := cs.manager.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if !msgs[i].IsUser() && !msgs[i].Pending {
			return msgs[i], true
		}
	}
	return model.Message{}, false
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand runs one /command. It returns false to end the chat.
func (cs *ChatSession) handleSlashCommand(line string) (bool, error) {
	fields := strings.Fields(line)
	cmd, rest := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "/quit", "/exit", "/q":
		return false, nil

	case "/help", "/?":
		cs.printHelp()

	case "/clear":
		cs.manager.Clear()
		cs.pending = nil
		fmt.Fprintln(cs.out, SuccessStyle.Render("Conversation cleared."))

	case "/course":
		return true, cs.setCourse(rest)

	case "/study":
		return true, cs.studyCommand(rest)

	case "/questions":
		count := questions.DefaultCount
		if len(rest) > 0 {
			n, err := strconv.Atoi(rest[0])
			if err != nil || n <= 0 {
				return true, Usagef("/questions [count]", "count must be a positive integer")
			}
			count = n
		}
		for i, q := range cs.app.Questions.Generate(cs.manager.Messages(), count) {
			fmt.Fprintf(cs.out, "  %d. %s\n", i+1, q)
		}

	case "/videos":
		reply, ok := cs.lastReply()
		if !ok || len(links.ExtractVideoReferences(reply.Content)) == 0 {
			fmt.Fprintln(cs.out, DimStyle.Render("No videos in the last reply."))
			break
		}
		printVideoLinks(cs.out, reply.Content)

	case "/export":
		return true, cs.exportCommand(rest)

	case "/attach":
		return true, cs.attachFiles(rest)

	case "/send":
		if len(cs.pending) == 0 {
			return true, errors.New("nothing attached; use /attach <path>")
		}
		return true, cs.send(strings.Join(rest, " "))

	case "/history":
		msgs := cs.manager.Messages()
		if len(msgs) == 0 {
			fmt.Fprintln(cs.out, DimStyle.Render("No messages yet."))
		}
		for _, m := range msgs {
			cs.renderer.printMessage(cs.out, m)
			fmt.Fprintln(cs.out)
		}

	case "/status":
		cs.printStatus()

	default:
		return true, Usagef("/help", "unknown command %s", cmd)
	}
	return true, nil
}

func (cs *ChatSession) setCourse(rest []string) error {
	if len(rest) == 0 {
		if cs.course == nil {
			fmt.Fprintln(cs.out, "No course selected.")
		} else {
			fmt.Fprintf(cs.out, "Course: %s\n", cs.course.Label())
		}
		return nil
	}
	key := strings.Join(rest, " ")
	if strings.EqualFold(key, "none") {
		cs.course = nil
		fmt.Fprintln(cs.out, "Course cleared.")
		return nil
	}
	c, ok := model.LookupCourse(key)
	if !ok {
		return &NotFoundError{Kind: "course", Name: key}
	}
	cs.course = &c
	fmt.Fprintf(cs.out, "Course: %s\n", RenderCourseTag(c.Code, c.Color)+" "+c.Name)
	return nil
}

func (cs *ChatSession) studyCommand(rest []string) error {
	sub := "status"
	if len(rest) > 0 {
		sub = strings.ToLower(rest[0])
	}
	t := cs.app.Tracker
	switch sub {
	case "start":
		course := cs.course
		if len(rest) > 1 {
			c, ok := model.LookupCourse(strings.Join(rest[1:], " "))
			if !ok {
				return &NotFoundError{Kind: "course", Name: strings.Join(rest[1:], " ")}
			}
			course = &c
		}
		s, err := t.Start(course)
		fmt.Fprintf(cs.out, "%s %s\n", SuccessStyle.Render("Study session started:"), s.CourseName())
		return err
	case "end", "stop":
		s, err := t.End()
		if errors.Is(err, study.ErrNoActiveSession) {
			return err
		}
		fmt.Fprintf(cs.out, "%s %s (%s, %d messages)\n",
			SuccessStyle.Render("Study session ended:"), s.CourseName(),
			study.FormatDuration(s.Seconds()), s.MessageCount)
		return err
	case "status":
		printStudyStatus(cs.out, t)
		return nil
	default:
		return Usagef("/study [start [course]|end|status]", "unknown study action %q", sub)
	}
}

func (cs *ChatSession) exportCommand(rest []string) error {
	format := export.FormatMarkdown
	if len(rest) > 0 {
		f, err := export.ParseFormat(rest[0])
		if err != nil {
			return err
		}
		format = f
	}
	path, _, err := exportMessages(cs.app, cs.manager.Messages(), format, export.DefaultOptions())
	if err != nil {
		return err
	}
	fmt.Fprintf(cs.out, "%s %s\n", SuccessStyle.Render("Exported to"), path)
	return nil
}

func (cs *ChatSession) attachFiles(paths []string) error {
	if len(paths) == 0 {
		return Usagef("/attach <path> [path...]", "no files given")
	}
	accepted, rejected := cs.app.Intake.Collect(paths)
	for _, r := range rejected {
		fmt.Fprintf(cs.err, "%s %s: %s\n", WarningStyle.Render("Skipped"), r.Name, r.Reason)
	}
	cs.pending = append(cs.pending, accepted...)
	for _, a := range accepted {
		fmt.Fprintf(cs.out, "📎 %s %s\n", a.Name, DimStyle.Render("("+attach.FormatSize(a.Size)+")"))
	}
	if len(cs.pending) > 0 {
		fmt.Fprintf(cs.out, "%d file(s) will be sent with your next message (or /send).\n", len(cs.pending))
	}
	return nil
}

// =============================================================================
// DISPLAY
// =============================================================================

func (cs *ChatSession) printWelcome() {
	fmt.Fprintln(cs.out, TitleStyle.Render("Campus Chat"))
	fmt.Fprintln(cs.out, DimStyle.Render("Ask about your courses. Type /help for commands, /quit to leave."))
	if cs.app.Client.Endpoint() == "" {
		fmt.Fprintln(cs.out, WarningStyle.Render("No webhook URL configured; set one with: campuschat config set webhook.url <url>"))
	}
	if cs.course != nil {
		fmt.Fprintf(cs.out, "Course: %s %s\n", RenderCourseTag(cs.course.Code, cs.course.Color), cs.course.Name)
	}
	if n := len(cs.manager.Messages()); n > 0 {
		fmt.Fprintf(cs.out, "Resumed session %s with %d messages.\n", cs.manager.SessionID(), n)
	}
	fmt.Fprintln(cs.out, RenderSeparator())
}

func (cs *ChatSession) printHelp() {
	fmt.Fprintln(cs.out, SectionStyle.Render("Commands"))
	for _, row := range [][2]string{
		{"/course [id|code|none]", "Show or change the course tag"},
		{"/study start [course]", "Start a study session"},
		{"/study end", "End the study session"},
		{"/study status", "Show study time"},
		{"/questions [n]", "Suggest follow-up questions"},
		{"/videos", "List videos in the last reply"},
		{"/attach <paths>", "Attach files to the next message"},
		{"/send [text]", "Send attached files"},
		{"/export [format]", "Export the conversation (markdown, text, json)"},
		{"/history", "Show the conversation"},
		{"/status", "Show session details"},
		{"/clear", "Clear the conversation"},
		{"/quit", "Leave the chat"},
	} {
		fmt.Fprintf(cs.out, "  %s %s\n", commandStyle.Render(fmt.Sprintf("%-24s", row[0])), row[1])
	}
}

func (cs *ChatSession) printStatus() {
	st := cs.manager.GetStatus()
	fmt.Fprintln(cs.out, RenderKeyValue("Session", st.SessionID))
	fmt.Fprintln(cs.out, RenderKeyValue("Messages", strconv.Itoa(st.MessageCount)))
	fmt.Fprintln(cs.out, RenderKeyValue("Duration", session.FormatDuration(st.Duration)))
	course := "None"
	if cs.course != nil {
		course = cs.course.Label()
	}
	fmt.Fprintln(cs.out, RenderKeyValue("Course", course))
	endpoint := cs.app.Client.Endpoint()
	if endpoint == "" {
		endpoint = "(not configured)"
	}
	fmt.Fprintln(cs.out, RenderKeyValue("Webhook", endpoint))
	voice := "off"
	if cs.speak {
		voice = "on"
	}
	fmt.Fprintln(cs.out, RenderKeyValue("Speak replies", voice))
}

func (cs *ChatSession) printExitSummary() {
	if cs.app.Quiet {
		return
	}
	st := cs.manager.GetStatus()
	fmt.Fprintf(cs.out, "%s %d messages in %s. Session %s\n",
		DimStyle.Render("Goodbye."), st.MessageCount, session.FormatDuration(st.Duration), st.SessionID)
}
