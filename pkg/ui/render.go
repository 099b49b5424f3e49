package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"

	"github.com/mwoudstra/winnow/pkg/debug"
	"github.com/mwoudstra/winnow/pkg/model"
	"github.com/mwoudstra/winnow/pkg/scroll"
)

// RowRenderer is the templating collaborator the scroller calls through
// its Populate/Reset hooks. Every rendered row is padded or clipped to
// exactly the estimated height for its state, so cumulative height sums in
// the scroller always match the rendered content.
type RowRenderer struct {
	theme           Theme
	width           int
	collapsedHeight int
	expandedHeight  int
	markdown        *glamour.TermRenderer
	selectedIndex   int
}

// NewRowRenderer builds a renderer for the given row geometry.
func NewRowRenderer(theme Theme, width, collapsedHeight, expandedHeight int) *RowRenderer {
	r := &RowRenderer{
		theme:           theme,
		width:           width,
		collapsedHeight: collapsedHeight,
		expandedHeight:  expandedHeight,
		selectedIndex:   -1,
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		debug.Warn("ui: glamour renderer unavailable: %v", err)
	} else {
		r.markdown = md
	}
	return r
}

// SetWidth updates the render width after a terminal resize.
func (r *RowRenderer) SetWidth(width int) {
	if width == r.width {
		return
	}
	r.width = width
	if md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	); err == nil {
		r.markdown = md
	}
}

// SetSelected marks the record index rendered with the selection style.
func (r *RowRenderer) SetSelected(index int) {
	r.selectedIndex = index
}

// Reset clears transient visual state on a pooled slot before rebinding.
func (r *RowRenderer) Reset(slot *scroll.Slot) {
	slot.Content = ""
}

// Populate writes a record into a pooled slot. Returns false when the
// record cannot be rendered; the scroller skips it and continues.
func (r *RowRenderer) Populate(slot *scroll.Slot, rec model.Report) bool {
	if err := rec.Validate(); err != nil {
		debug.Warn("ui: unrenderable record: %v", err)
		return false
	}
	if slot.Expanded {
		slot.Content = r.renderExpanded(slot, rec)
	} else {
		slot.Content = r.renderCollapsed(slot, rec)
	}
	return true
}

func (r *RowRenderer) renderCollapsed(slot *scroll.Slot, rec model.Report) string {
	lines := make([]string, 0, r.collapsedHeight)

	cursor := "  "
	titleStyle := r.theme.Title
	if slot.Index == r.selectedIndex {
		cursor = r.theme.Selected.Render("> ")
		titleStyle = r.theme.Selected
	}
	title := truncate(rec.Title, r.width-4)
	lines = append(lines, cursor+r.severityBadge(rec.Severity)+" "+titleStyle.Render(title))

	meta := fmt.Sprintf("%s  %s/%s  %s  %s",
		rec.ID, rec.Category, rec.Region,
		r.resolvedBadge(rec.Resolved),
		formatTimeRel(rec.CreatedAt))
	lines = append(lines, "    "+r.theme.Meta.Render(truncate(meta, r.width-6)))

	return padToHeight(lines, r.collapsedHeight)
}

func (r *RowRenderer) renderExpanded(slot *scroll.Slot, rec model.Report) string {
	lines := strings.Split(r.renderCollapsed(slot, rec), "\n")

	body := strings.TrimSpace(rec.Body)
	if body == "" {
		body = "*no details*"
	}
	rendered := body
	if r.markdown != nil {
		if out, err := r.markdown.Render(body); err == nil {
			rendered = out
		}
	}
	for _, line := range strings.Split(strings.Trim(rendered, "\n"), "\n") {
		lines = append(lines, "    "+line)
	}
	if rec.Reporter != "" {
		lines = append(lines, "    "+r.theme.Muted.Render("reported by "+rec.Reporter))
	}

	return padToHeight(lines, r.expandedHeight)
}

func (r *RowRenderer) severityBadge(severity string) string {
	switch severity {
	case model.SeverityCritical:
		return r.theme.Critical.Render("!!")
	case model.SeverityWarning:
		return r.theme.Warning.Render(" !")
	default:
		return r.theme.Muted.Render(" ·")
	}
}

func (r *RowRenderer) resolvedBadge(resolved bool) string {
	if resolved {
		return r.theme.Resolved.Render("resolved")
	}
	return "open"
}

// padToHeight pads or clips rendered lines to exactly height lines.
func padToHeight(lines []string, height int) string {
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// truncate shortens s to the given display width, ellipsizing. Uses
// runewidth so wide characters count correctly.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// formatTimeRel renders a timestamp relative to now ("3h ago").
func formatTimeRel(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
