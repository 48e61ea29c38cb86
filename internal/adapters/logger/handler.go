package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/ui/style"
)

// Attribute keys rendered as build statuses.
var statusKeys = map[string]bool{"status": true, "from": true, "to": true}

// Attribute keys rendered as identifiers.
var idKeys = map[string]bool{
	"task_id":       true,
	"build_set_id":  true,
	"configuration": true,
	"revision":      true,
}

// PrettyHandler is a slog.Handler writing one coloured line per record. Build statuses
// are shown with their icon and colour, a from/to pair collapses into one transition, and
// task, set and configuration ids are highlighted.
type PrettyHandler struct {
	out   *termenv.Output
	level slog.Leveler
	attrs []slog.Attr
	group string
}

// NewPrettyHandler creates a new PrettyHandler writing to the provided writer.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	level := slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level.Level()
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(level)

	return &PrettyHandler{
		out:   style.NewOutput(w),
		level: levelVar,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and outputs the log record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var msg string
	var color lipgloss.Color

	switch r.Level {
	case slog.LevelWarn:
		msg, color = style.Warning+" "+r.Message, style.Yellow
	case slog.LevelError:
		msg, color = style.Cross+" "+r.Message, style.Red
	default:
		msg, color = r.Message, style.Slate
	}

	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(attr slog.Attr) bool {
		attrs = append(attrs, attr)
		return true
	})

	parts := make([]string, 0, len(attrs)+1)
	parts = append(parts, h.paint(msg, color))
	for i := 0; i < len(attrs); i++ {
		if from, to, ok := transition(attrs, i); ok {
			parts = append(parts, h.paint(string(from), style.Slate)+" "+style.Arrow+" "+h.status(to))
			i++
			continue
		}
		parts = append(parts, h.formatAttr(attrs[i]))
	}

	_, err := h.out.WriteString(strings.Join(parts, " ") + "\n")
	return err
}

// transition reports whether attrs[i] and attrs[i+1] are a from/to status pair.
func transition(attrs []slog.Attr, i int) (domain.BuildStatus, domain.BuildStatus, bool) {
	if i+1 >= len(attrs) || attrs[i].Key != "from" || attrs[i+1].Key != "to" {
		return "", "", false
	}
	from, to := attrs[i].Value.String(), attrs[i+1].Value.String()
	if !style.IsStatus(from) || !style.IsStatus(to) {
		return "", "", false
	}
	return domain.BuildStatus(from), domain.BuildStatus(to), true
}

// formatAttr formats a single attribute. If a group is set, the key is prefixed with the
// group name.
func (h *PrettyHandler) formatAttr(attr slog.Attr) string {
	key := attr.Key
	if h.group != "" {
		key = h.group + "." + key
	}
	value := attr.Value.String()

	switch {
	case statusKeys[attr.Key] && style.IsStatus(value):
		return h.paint(key+"=", style.Slate) + h.status(domain.BuildStatus(value))
	case idKeys[attr.Key]:
		return h.paint(key+"=", style.Slate) + h.paint(value, style.Iris)
	default:
		return h.paint(key+"="+value, style.Slate)
	}
}

func (h *PrettyHandler) status(s domain.BuildStatus) string {
	icon, color := style.ForStatus(s)
	return h.paint(icon+" "+string(s), color)
}

func (h *PrettyHandler) paint(s string, color lipgloss.Color) string {
	return h.out.String(s).Foreground(termenv.RGBColor(string(color))).String()
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &PrettyHandler{
		out:   h.out,
		level: h.level,
		attrs: newAttrs,
		group: h.group,
	}
}

// WithGroup returns a new Handler with the given group name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	return &PrettyHandler{
		out:   h.out,
		level: h.level,
		attrs: h.attrs,
		group: name,
	}
}
