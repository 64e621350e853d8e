// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/campus-chat/internal/attach"
	"github.com/jeranaias/campus-chat/internal/links"
	"github.com/jeranaias/campus-chat/internal/model"
)

// =============================================================================
// MARKDOWN
// =============================================================================

// replyRenderer prints assistant replies, rendering markdown when enabled.
type replyRenderer struct {
	markdown bool

	once     sync.Once
	renderer *glamour.TermRenderer
}

func newReplyRenderer(markdown bool) *replyRenderer {
	return &replyRenderer{markdown: markdown}
}

// render returns content as terminal markdown, or unchanged when rendering
// is off or fails.
func (r *replyRenderer) render(content string) string {
	if !r.markdown {
		return content
	}
	r.once.Do(func() {
		tr, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(replyWidth()),
		)
		if err == nil {
			r.renderer = tr
		}
	})
	if r.renderer == nil {
		return content
	}
	out, err := r.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n") + "\n"
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// printMessage writes one transcript entry.
func (r *replyRenderer) printMessage(w io.Writer, m model.Message) {
	label := assistantLabelStyle.Render(m.Sender.DisplayName())
	if m.IsUser() {
		label = userLabelStyle.Render(m.Sender.DisplayName())
	}
	header := label + " " + DimStyle.Render(m.Timestamp.Local().Format("3:04 PM"))
	if m.Course != nil {
		header += " " + RenderCourseTag(m.Course.Code, m.Course.Color)
	}
	fmt.Fprintln(w, header)

	if m.IsUser() {
		fmt.Fprintln(w, m.Content)
	} else {
		fmt.Fprint(w, r.render(m.Content))
	}
	for _, a := range m.Attachments {
		fmt.Fprintf(w, "  📎 %s %s\n", a.Name, DimStyle.Render("("+attach.FormatSize(a.Size)+")"))
	}
	if !m.IsUser() {
		printVideoLinks(w, m.Content)
	}
}

// printVideoLinks lists the videos a reply links to.
func printVideoLinks(w io.Writer, content string) {
	refs := links.ExtractVideoReferences(content)
	if len(refs) == 0 {
		return
	}
	fmt.Fprintln(w, DimStyle.Render("Videos:"))
	for _, ref := range refs {
		fmt.Fprintf(w, "  ▶ %s %s\n", ref.URL, DimStyle.Render(ref.ThumbnailURL))
	}
}
