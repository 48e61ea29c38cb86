// Package style holds the colours, icons and terminal setup shared by the log handler and
// the CLI reports.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/forge/internal/core/domain"
)

// Brand Colors.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Tilde   = "~"
	Dot     = "●"
	Circle  = "○"
	Arrow   = "→"
)

// ForStatus returns the icon and colour a build status is shown with. Successful and
// reused builds are green, cancellations yellow, every other terminal status red. Running
// tasks use the brand colour and waiting ones are muted.
func ForStatus(s domain.BuildStatus) (string, lipgloss.Color) {
	switch {
	case s.IsSuccessful():
		return Check, Green
	case s == domain.StatusCancelled:
		return Tilde, Yellow
	case s.IsTerminal():
		return Cross, Red
	case s == domain.StatusBuilding:
		return Dot, Iris
	default:
		return Circle, Slate
	}
}

// IsStatus reports whether s names a build status.
func IsStatus(s string) bool {
	for _, status := range domain.AllStatuses {
		if string(status) == s {
			return true
		}
	}
	return false
}
