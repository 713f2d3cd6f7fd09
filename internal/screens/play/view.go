package play

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/ui/components"
	"github.com/lexiquest/lexiquest/internal/ui/layout"
	"github.com/lexiquest/lexiquest/internal/ui/theme"
)

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.errMsg != "" {
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	}
	if s.confirmQuit {
		return []layout.KeyHint{
			{Key: "Y", Description: "Stop playing"},
			{Key: "N", Description: "Keep going"},
		}
	}
	switch s.sub {
	case activity.WordJumble:
		return []layout.KeyHint{
			{Key: "←→ Enter", Description: "Pick word"},
			{Key: "Bksp", Description: "Undo"},
			{Key: "C", Description: "Check"},
			{Key: "S", Description: "Skip"},
			{Key: "Esc", Description: "Quit"},
		}
	case activity.MemoryMatch:
		return []layout.KeyHint{
			{Key: "Arrows", Description: "Move"},
			{Key: "Enter", Description: "Flip"},
			{Key: "Esc", Description: "Quit"},
		}
	case activity.SpellingBee:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Check"},
			{Key: "Ctrl+R", Description: "Hear again"},
			{Key: "Ctrl+S", Description: "Skip"},
			{Key: "Esc", Description: "Quit"},
		}
	case activity.ListeningTest:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Next"},
			{Key: "Ctrl+R", Description: "Hear again"},
			{Key: "Esc", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "Ctrl+R", Description: "Record"},
		{Key: "Enter", Description: "Next"},
		{Key: "Esc", Description: "Quit"},
	}
}

func (s *Screen) View(width, height int) string {
	center := func(str string) string { return layout.Centered(width, str) }

	if s.errMsg != "" {
		return "\n\n" + center(lipgloss.NewStyle().Foreground(theme.Error).Render("Something went wrong: "+s.errMsg)) +
			"\n\n" + center(theme.Hint.Render("Press any key to go back."))
	}
	if !s.started {
		return "\n\n" + center(theme.Hint.Render("Getting your "+strings.ToLower(s.sub.DisplayName())+" ready..."))
	}
	if s.confirmQuit {
		return "\n\n" + center(components.ArcadeCard("Stop this "+strings.ToLower(s.sub.DisplayName())+"?\n\nYour progress will not be saved.\n\n[Y] Stop    [N] Keep going", 44))
	}

	sess := s.ctrl.Session()
	if sess == nil {
		return ""
	}

	var sections []string
	cw := components.ContentWidth(width)

	label := "Turn"
	if s.sub.Kind() == activity.KindTest {
		label = "Item"
	}
	sections = append(sections, center(components.TurnProgress(label, len(sess.Turns), sess.TurnLimit, cw).View()))
	if s.sub.Kind() == activity.KindGame {
		sections = append(sections, center(lipgloss.NewStyle().Foreground(theme.ArcadeYellow).Bold(true).
			Render(fmt.Sprintf("Score %d   Level %d", sess.Score, sess.Level()))))
	}

	switch s.sub {
	case activity.WordJumble:
		sections = append(sections, s.jumbleView(center))
	case activity.MemoryMatch:
		sections = append(sections, center(theme.Body.Render("Match each word with its picture.")), center(s.tiles.View()))
	case activity.SpellingBee:
		sections = append(sections, s.listenView(center, "Listen to the word, then spell it."))
	case activity.ListeningTest:
		sections = append(sections, s.listenView(center, "Listen to the sentence, then type what you heard."))
	default:
		sections = append(sections, s.readView(center))
	}

	if s.feedback != "" {
		style := theme.Incorrect
		if s.feedbackOK {
			style = theme.Correct
		}
		sections = append(sections, center(style.Render(s.feedback)))
	}
	if s.notice != "" {
		sections = append(sections, center(theme.Hint.Render(s.notice)))
	}

	return "\n" + strings.Join(sections, "\n\n")
}

func (s *Screen) jumbleView(center func(string) string) string {
	j := s.ctrl.Jumble()
	if j == nil {
		return ""
	}
	answer := strings.Join(j.Selected(), " ")
	if answer == "" {
		answer = strings.TrimSpace(strings.Repeat("_ ", len(j.Words())))
	}
	return center(theme.Body.Render("Put the words in the right order:")) + "\n\n" +
		center(theme.Prompt.Render(answer)) + "\n\n" +
		center(s.tiles.View())
}

func (s *Screen) listenView(center func(string) string, instruction string) string {
	out := center(theme.Body.Render(instruction))
	if r := s.ctrl.Runner(); r != nil && !r.CanSpeak() {
		// Without a voice the prompt has to be read instead.
		out += "\n\n" + center(theme.Prompt.Render(s.ctrl.Current().Text))
		out += "\n" + center(theme.Hint.Render("(spoken prompts are off)"))
	} else if r != nil && r.Playing() {
		out += "\n\n" + center(theme.Hint.Render("Speaking..."))
	}
	return out + "\n\n" + center(s.input.View())
}

func (s *Screen) readView(center func(string) string) string {
	out := center(theme.Body.Render("Read this sentence out loud:")) + "\n\n" +
		center(theme.Prompt.Render(s.ctrl.Current().Text))
	if s.ctrl.Recording() {
		out += "\n\n" + center(lipgloss.NewStyle().Foreground(theme.Error).Bold(true).Render("● Recording"))
	}
	return out + "\n\n" + center(s.input.View())
}
