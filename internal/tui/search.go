package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type searchModel struct {
	input  textinput.Model
	cursor int
}

func newSearchModel() searchModel {
	input := textinput.New()
	input.Placeholder = "Chats durchsuchen"
	input.CharLimit = 120
	input.Width = 40
	return searchModel{input: input}
}

func (s *searchModel) open() {
	s.input.SetValue("")
	s.cursor = 0
	s.input.Focus()
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := &m.search
	results := m.deps.Chats.Filter(s.input.Value())

	switch {
	case msg.String() == "esc":
		m.overlay = overlayNone
		return m, nil

	// plain letters stay typeable, only the arrow keys move the cursor
	case msg.String() == "up":
		if s.cursor > 0 {
			s.cursor--
		}
		return m, nil

	case msg.String() == "down":
		if s.cursor < len(results)-1 {
			s.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Send):
		if s.cursor < len(results) {
			m.overlay = overlayNone
			return m.openChat(results[s.cursor].ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	if s.cursor >= len(m.deps.Chats.Filter(s.input.Value())) {
		s.cursor = 0
	}
	return m, cmd
}

func (m *Model) renderSearch() string {
	s := &m.search
	results := m.deps.Chats.Filter(s.input.Value())

	rows := []string{
		m.styles.OverlayTitle.Render("Chats suchen"),
		"",
		m.styles.InputBoxFocused.Render(s.input.View()),
		"",
	}
	if len(results) == 0 {
		rows = append(rows, m.styles.SidebarFaint.Render("Keine Treffer."))
	}
	const maxShown = 8
	for i, c := range results {
		if i >= maxShown {
			rows = append(rows, m.styles.SidebarFaint.Render("…"))
			break
		}
		title := c.Title
		if title == "" {
			title = "Neuer Chat"
		}
		title = truncate(title, 40)
		if i == s.cursor {
			rows = append(rows, m.styles.SidebarCursor.Render("> "+title))
		} else {
			rows = append(rows, m.styles.SidebarItem.Render("  "+title))
		}
	}
	rows = append(rows, "", m.styles.HelpBar.Render("enter öffnen · esc schließen"))

	return m.styles.Overlay.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
