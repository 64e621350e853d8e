// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeranaias/campus-chat/internal/export"
	"github.com/jeranaias/campus-chat/internal/links"
	"github.com/jeranaias/campus-chat/internal/model"
	"github.com/jeranaias/campus-chat/internal/questions"
	"github.com/jeranaias/campus-chat/internal/storage"
	"github.com/jeranaias/campus-chat/internal/study"
	"github.com/jeranaias/campus-chat/internal/util"
)

// =============================================================================
// EXPORT COMMAND
// =============================================================================

// ExportResult describes a written export file.
type ExportResult struct {
	Path     string `json:"path"`
	Format   string `json:"format"`
	Messages int    `json:"messages"`
	Sessions int    `json:"studySessions"`
}

// HandleExport writes the export document for one session, or for every
// stored conversation when --session is not given.
//
//	campuschat export [--format json|text|markdown] [--session id] [--out dir] [--open]
func HandleExport(app *App, args Args) error {
	p := args.Parser
	format, err := export.ParseFormat(p.FlagOrDefault("format", string(export.FormatJSON)))
	if err != nil {
		return Usagef("campuschat export --format json|text|markdown", "%s", err)
	}

	var messages []model.Message
	if id := p.Flag("session"); id != "" {
		conv, err := app.Conversations.Load(id)
		if errors.Is(err, storage.ErrNotFound) {
			return &NotFoundError{Kind: "session", Name: id}
		}
		if err != nil {
			return NewCommandError("export", "", "cannot load session", err)
		}
		messages = conv.Messages
	}

	opts := export.DefaultOptions()
	opts.OutputDir = p.FlagOrDefault("out", ".")
	opts.OpenAfterExport = p.BoolFlag("open")

	path, rec, err := exportMessages(app, messages, format, opts)
	if err != nil {
		return NewCommandError("export", "", "cannot write export", err)
	}

	res := ExportResult{
		Path:     path,
		Format:   string(format),
		Messages: rec.Conversations.TotalMessages,
		Sessions: len(rec.StudySessions.Sessions),
	}
	return app.respond("export", res, func(w io.Writer) {
		fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("Exported to"), path)
		if !app.Quiet {
			fmt.Fprintf(w, "%s\n", DimStyle.Render(fmt.Sprintf("%d messages, %d study sessions", res.Messages, res.Sessions)))
		}
	})
}

// exportMessages writes messages with the study history. An empty message
// list exports every stored conversation.
func exportMessages(app *App, messages []model.Message, format export.Format, opts *export.Options) (string, *export.Record, error) {
	if len(messages) == 0 {
		all, err := app.Conversations.AllMessages()
		if err != nil {
			app.Log.Warn().Err(err).Msg("export_history_load_failed")
		}
		messages = all
	}
	exporter, err := export.New(format, opts)
	if err != nil {
		return "", nil, err
	}
	rec := export.Build(messages, app.Tracker.Sessions(), time.Now())
	path, err := export.ExportToFile(rec, exporter, opts)
	if err != nil {
		return path, rec, err
	}
	app.Log.Info().
		Str("path", path).
		Str("format", string(format)).
		Int("messages", rec.Conversations.TotalMessages).
		Msg("export_written")
	return path, rec, nil
}

// =============================================================================
// STUDY COMMAND
// =============================================================================

// StudyReport is the --json payload of study status and list.
type StudyReport struct {
	Active         *model.StudySession  `json:"active,omitempty"`
	ElapsedSeconds int64                `json:"elapsedSeconds"`
	Stats          study.Stats          `json:"stats"`
	Sessions       []model.StudySession `json:"sessions,omitempty"`
}

// HandleStudy manages study sessions.
//
//	campuschat study start [course] | end | status | list
func HandleStudy(app *App, args Args) error {
	t := app.Tracker
	switch sub := strings.ToLower(args.Subcommand); sub {
	case "start":
		var course *model.Course
		if key := strings.Join(args.Parser.PositionalFrom(1), " "); key != "" {
			c, ok := model.LookupCourse(key)
			if !ok {
				return &NotFoundError{Kind: "course", Name: key}
			}
			course = &c
		}
		_, hadActive := t.Active()
		s, err := t.Start(course)
		if err != nil {
			app.Log.Warn().Err(err).Msg("study_previous_save_failed")
		}
		return app.respond("study start", s, func(w io.Writer) {
			if hadActive {
				fmt.Fprintln(w, DimStyle.Render("Previous study session ended."))
			}
			fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("Study session started:"), s.CourseName())
		})

	case "end", "stop":
		s, err := t.End()
		if errors.Is(err, study.ErrNoActiveSession) {
			return NewCommandError("study", "end", "no active study session", nil)
		}
		if err != nil {
			app.Log.Warn().Err(err).Msg("study_save_failed")
		}
		return app.respond("study end", s, func(w io.Writer) {
			fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("Study session ended:"), s.CourseName())
			fmt.Fprintln(w, RenderKeyValue("Duration", study.FormatDuration(s.Seconds())))
			fmt.Fprintln(w, RenderKeyValue("Messages", fmt.Sprint(s.MessageCount)))
		})

	case "", "status":
		return app.respond("study status", studyReport(t, false), func(w io.Writer) {
			printStudyStatus(w, t)
		})

	case "list", "history":
		rep := studyReport(t, true)
		return app.respond("study list", rep, func(w io.Writer) {
			if len(rep.Sessions) == 0 {
				fmt.Fprintln(w, DimStyle.Render("No study sessions yet."))
				return
			}
			for _, s := range rep.Sessions {
				fmt.Fprintf(w, "%s  %-10s %-8s %3d messages\n",
					s.StartTime.Local().Format("2006-01-02 15:04"),
					courseCode(s.Course), study.FormatDuration(s.Seconds()), s.MessageCount)
			}
		})

	default:
		return Usagef("campuschat study start [course]|end|status|list", "unknown study action %q", sub)
	}
}

func studyReport(t *study.Tracker, withSessions bool) StudyReport {
	rep := StudyReport{
		ElapsedSeconds: int64(t.Elapsed() / time.Second),
		Stats:          t.Stats(),
	}
	if active, ok := t.Active(); ok {
		rep.Active = &active
	}
	if withSessions {
		rep.Sessions = t.Sessions()
	}
	return rep
}

// printStudyStatus writes the active session and the aggregate statistics.
func printStudyStatus(w io.Writer, t *study.Tracker) {
	if active, ok := t.Active(); ok {
		fmt.Fprintf(w, "%s %s, %s elapsed, %d messages\n",
			SuccessStyle.Render("Studying:"), active.CourseName(),
			study.FormatDuration(int64(t.Elapsed()/time.Second)), active.MessageCount)
	} else {
		fmt.Fprintln(w, DimStyle.Render("No active study session."))
	}

	st := t.Stats()
	fmt.Fprintln(w, SectionStyle.Render("Statistics"))
	fmt.Fprintln(w, RenderKeyValue("Sessions", fmt.Sprint(st.TotalSessions)))
	fmt.Fprintln(w, RenderKeyValue("Total time", study.FormatDuration(st.TotalTime)))
	fmt.Fprintln(w, RenderKeyValue("Average session", study.FormatDuration(st.AverageSessionTime)))
	fmt.Fprintln(w, RenderKeyValue("Today", study.FormatDuration(st.TodayTime)))
	fmt.Fprintln(w, RenderKeyValue("This week", study.FormatDuration(st.WeekTime)))
	fmt.Fprintln(w, RenderKeyValue("Most studied", st.MostStudiedCourse))
}

func courseCode(c *model.Course) string {
	if c == nil {
		return study.NoCourse
	}
	return c.Code
}

// =============================================================================
// QUESTIONS COMMAND
// =============================================================================

// HandleQuestions prints follow-up suggestions drawn from a session's
// history, the most recent one unless --session is given.
func HandleQuestions(app *App, args Args) error {
	p := args.Parser
	count, err := p.FlagInt("count", questions.DefaultCount)
	if err != nil {
		return Usagef("campuschat questions [--count N] [--session id]", "%s", err)
	}

	id := p.Flag("session")
	if id == "" {
		if id, err = latestSessionID(app); err != nil {
			return err
		}
	}
	var history []model.Message
	if id != "" {
		conv, err := app.Conversations.Load(id)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return &NotFoundError{Kind: "session", Name: id}
		case err != nil:
			return NewCommandError("questions", "", "cannot load session", err)
		}
		history = conv.Messages
	}

	qs := app.Questions.Generate(history, count)
	return app.respond("questions", qs, func(w io.Writer) {
		for i, q := range qs {
			fmt.Fprintf(w, "%d. %s\n", i+1, q)
		}
	})
}

// =============================================================================
// VIDEOS COMMAND
// =============================================================================

// HandleVideos lists the video links in the given text, or in stdin when
// the text is "-".
func HandleVideos(app *App, args Args) error {
	text := strings.Join(args.Parser.PositionalFrom(0), " ")
	if text == "-" {
		data, err := io.ReadAll(app.In)
		if err != nil {
			return NewCommandError("videos", "", "cannot read stdin", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return Usagef("campuschat videos <text>|-", "no text given")
	}

	refs := links.ExtractVideoReferences(text)
	if refs == nil {
		refs = []links.VideoReference{}
	}
	return app.respond("videos", refs, func(w io.Writer) {
		if len(refs) == 0 {
			fmt.Fprintln(w, DimStyle.Render("No video links found."))
			return
		}
		for _, r := range refs {
			fmt.Fprintf(w, "%s  %s\n", r.ID, r.URL)
		}
	})
}

// =============================================================================
// COURSES COMMAND
// =============================================================================

// HandleCourses prints the course catalog.
func HandleCourses(app *App, args Args) error {
	courses := model.Courses()
	return app.respond("courses", courses, func(w io.Writer) {
		for _, c := range courses {
			tag := "[" + c.Code + "]"
			fmt.Fprintf(w, "%s%s %s %s %s\n",
				RenderCourseTag(c.Code, c.Color),
				strings.Repeat(" ", max(0, 11-util.StringWidth(tag))),
				util.PadRight(c.ID, 8),
				util.PadRight(c.Name, 34),
				DimStyle.Render(fmt.Sprintf("%d cr, %s", c.Credits, c.Professor)))
		}
	})
}
