package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/ui/theme"
)

const arcadeTitleFull = `█   █▀▀ █ █ █ █▀▀█ █ █ █▀▀ █▀▀ ▀█▀
█   █▀▀  █  █ █  █ █ █ █▀▀ ▀▀█  █
█▄▄ █▄▄ █ █ █ ▀▀█▄ █▄█ █▄▄ ▄▄█  █`

const arcadeTitleCompact = "L · E · X · I · Q · U · E · S · T"

// renderTitle returns the styled title block or compact fallback.
func renderTitle(cw int, compact bool) string {
	style := lipgloss.NewStyle().
		Foreground(theme.ArcadeYellow).
		Bold(true)

	art := arcadeTitleFull
	if compact {
		art = arcadeTitleCompact
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(style.Render(art))
}

// renderStatsBar shows the reading level, sessions played and the
// difficulty meter in a bordered box matching content width.
func renderStatsBar(d activity.Difficulty, played int, cw int, compact bool) string {
	levelStyle := lipgloss.NewStyle().Foreground(theme.ArcadeYellow).Bold(true)
	playedStyle := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	meterStyle := lipgloss.NewStyle().Foreground(theme.ArcadeCyan)

	var stats string
	if compact {
		stats = fmt.Sprintf("%s %s",
			levelStyle.Render("★"+d.Label()),
			playedStyle.Render(fmt.Sprintf("▶%d", played)),
		)
	} else {
		stats = fmt.Sprintf("%s  %s  %s",
			levelStyle.Render("★ "+strings.ToUpper(d.Label())),
			playedStyle.Render(fmt.Sprintf("▶ %d PLAYED", played)),
			meterStyle.Render(meter(d, 10)),
		)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.ArcadeCyan).
		Width(cw - 2).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(stats)
}

// meter draws the difficulty as a bar of n cells.
func meter(d activity.Difficulty, n int) string {
	filled := min(max(int(d.Fraction()*float64(n)+0.5), 0), n)
	return strings.Repeat("▰", filled) + strings.Repeat("▱", n-filled)
}

// renderOfflineBanner warns that results cannot be sent.
func renderOfflineBanner(cw int) string {
	return lipgloss.NewStyle().
		Foreground(theme.Accent).
		Width(cw).
		Align(lipgloss.Center).
		Render("⚠ No scoring service set. Results can be saved but not sent (see lexiquest --help)")
}

// renderMascotBox renders the mascot centered in a box matching content width.
func renderMascotBox(variant MascotVariant, cw int) string {
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(RenderMascot(variant))
}
