package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/lexiquest/lexiquest/internal/ui/theme"
)

// TileState is how a single tile is drawn.
type TileState int

const (
	TileNormal TileState = iota
	TileUsed             // already placed or matched; cannot be chosen
	TileRevealed
	TileWrong
)

// Tiles is a grid of selectable word or card tiles moved over with the
// arrow keys. It is used for the jumble word row and the memory board.
type Tiles struct {
	Labels  []string
	States  []TileState
	Columns int
	Cursor  int
}

// NewTiles lays labels out in rows of columns tiles. columns <= 0 puts
// every tile on one row.
func NewTiles(labels []string, columns int) Tiles {
	if columns <= 0 {
		columns = max(len(labels), 1)
	}
	return Tiles{
		Labels:  labels,
		States:  make([]TileState, len(labels)),
		Columns: columns,
	}
}

// Update moves the cursor. It returns the index chosen with enter or
// space, or -1.
func (t Tiles) Update(msg tea.Msg) (Tiles, int) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(t.Labels) == 0 {
		return t, -1
	}

	switch kmsg.String() {
	case "left", "h":
		if t.Cursor > 0 {
			t.Cursor--
		}
	case "right", "l":
		if t.Cursor < len(t.Labels)-1 {
			t.Cursor++
		}
	case "up", "k":
		if t.Cursor-t.Columns >= 0 {
			t.Cursor -= t.Columns
		}
	case "down", "j":
		if t.Cursor+t.Columns < len(t.Labels) {
			t.Cursor += t.Columns
		}
	case "enter", "space", " ":
		if t.States[t.Cursor] != TileUsed {
			return t, t.Cursor
		}
	}
	return t, -1
}

// View renders the grid. Each tile is padded to the widest label.
func (t Tiles) View() string {
	w := 0
	for _, l := range t.Labels {
		w = max(w, lipgloss.Width(l))
	}

	var rows []string
	for start := 0; start < len(t.Labels); start += t.Columns {
		end := min(start+t.Columns, len(t.Labels))
		var cells []string
		for i := start; i < end; i++ {
			cells = append(cells, t.tile(i, w))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(rows, "\n")
}

func (t Tiles) tile(i, w int) string {
	style := lipgloss.NewStyle().
		Width(w+2).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Foreground(theme.Text)

	switch t.States[i] {
	case TileUsed:
		style = style.Foreground(theme.TextDim)
	case TileRevealed:
		style = style.Foreground(theme.ArcadeYellow).Bold(true)
	case TileWrong:
		style = style.Foreground(theme.Error).BorderForeground(theme.Error)
	}
	if i == t.Cursor {
		style = style.BorderForeground(theme.ArcadeYellow)
	}
	return style.Render(t.Labels[i])
}
