package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/forge/internal/app"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/ui/style"
)

// printer renders reports for humans. Colors follow the NO_COLOR convention.
type printer struct {
	w     io.Writer
	r     *lipgloss.Renderer
	bold  lipgloss.Style
	muted lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := style.NewRenderer(w)
	return &printer{
		w:     w,
		r:     r,
		bold:  r.NewStyle().Bold(true),
		muted: r.NewStyle().Foreground(style.Slate),
	}
}

// icon returns the styled status icon.
func (p *printer) icon(s domain.BuildStatus) string {
	icon, color := style.ForStatus(s)
	return p.r.NewStyle().Foreground(color).Render(icon)
}

func (p *printer) setHeader(rec *domain.BuildConfigSetRecord) string {
	var b strings.Builder
	b.WriteString(p.icon(rec.Status))
	b.WriteString(" build set ")
	b.WriteString(p.bold.Render(rec.ID.String()))
	if rec.GroupName != "" {
		b.WriteString(" (" + rec.GroupName + ")")
	}
	b.WriteString(": " + string(rec.Status))
	return b.String()
}

// setReport prints a build set and one line per member.
func (p *printer) setReport(r *app.SetReport) {
	_, _ = fmt.Fprintln(p.w, p.setHeader(r.Set))

	idWidth, statusWidth := 0, 0
	for _, m := range r.Members {
		idWidth = max(idWidth, len(m.ConfigurationID))
		statusWidth = max(statusWidth, len(m.Status))
	}
	for _, m := range r.Members {
		origin := p.muted.Render("reused")
		if m.TaskID != "" {
			origin = p.muted.Render("task " + m.TaskID.String())
		}
		_, _ = fmt.Fprintf(p.w, "  %s %-*s  %-*s  %s\n",
			p.icon(m.Status), idWidth, m.ConfigurationID, statusWidth, m.Status, origin)
	}
}

// openSets prints one line per unfinished build set.
func (p *printer) openSets(sets []*domain.BuildConfigSetRecord) {
	if len(sets) == 0 {
		_, _ = fmt.Fprintln(p.w, p.muted.Render("no open build sets"))
		return
	}
	for _, rec := range sets {
		started := p.muted.Render("started " + rec.StartTime.UTC().Format(time.RFC3339))
		_, _ = fmt.Fprintf(p.w, "%s  %s\n", p.setHeader(rec), started)
	}
}

// dependencies prints the dependency relations of a configuration.
func (p *printer) dependencies(r *app.DependencyReport) {
	_, _ = fmt.Fprintln(p.w, p.bold.Render(r.Configuration.ID.String()))
	rows := []struct {
		label string
		ids   []domain.ConfigurationID
	}{
		{"direct", r.Direct},
		{"indirect", r.Indirect},
		{"all", r.All},
		{"dependents", r.Dependents},
	}
	for _, row := range rows {
		_, _ = fmt.Fprintf(p.w, "  %-11s %s\n", row.label+":", p.idList(row.ids))
	}
}

func (p *printer) idList(ids []domain.ConfigurationID) string {
	if len(ids) == 0 {
		return p.muted.Render("-")
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}
