package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/lexiquest/lexiquest/internal/ui/theme"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label   string
	Percent float64
	// Counter, when set, replaces the percentage, e.g. "4/11".
	Counter string
	Width   int
}

// TurnProgress returns a bar for done out of total turns.
func TurnProgress(label string, done, total, width int) ProgressBar {
	p := 0.0
	if total > 0 {
		p = float64(done) / float64(total)
	}
	return ProgressBar{
		Label:   label,
		Percent: p,
		Counter: fmt.Sprintf("%d/%d", done, total),
		Width:   width,
	}
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string
	if p.Label != "" {
		result += lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  "
	}

	suffix := p.Counter
	if suffix == "" {
		suffix = fmt.Sprintf("%d%%", int(p.Percent*100))
	}
	suffix = "  " + suffix

	barWidth := max(p.Width-lipgloss.Width(result)-lipgloss.Width(suffix), 4)
	filled := min(max(int(float64(barWidth)*p.Percent), 0), barWidth)

	result += lipgloss.NewStyle().Background(theme.Secondary).Render(strings.Repeat(" ", filled))
	result += lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled))
	result += lipgloss.NewStyle().Foreground(theme.TextDim).Render(suffix)
	return result
}
