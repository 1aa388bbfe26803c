package tui

import (
	"context"
	"log"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type confirmModel struct {
	chatID string
	title  string
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.overlay = overlayNone
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		id := m.confirm.chatID
		m.overlay = overlayNone
		return m, m.deleteChatCmd(id)
	}
	return m, nil
}

func (m *Model) deleteChatCmd(id string) tea.Cmd {
	wasActive := id == m.deps.Chat.ChatID()
	if wasActive {
		// deleting the open chat drops back to the start screen
		m.deps.Chat.Reset()
		if err := m.deps.State.ClearActiveChat(); err != nil {
			log.Printf("clear active chat: %v", err)
		}
		m.renderThreadContent()
	}
	return func() tea.Msg {
		err := m.deps.Chats.Remove(context.Background(), id)
		return chatsRefreshedMsg{err: err}
	}
}

func (m *Model) renderConfirm() string {
	title := truncate(m.confirm.title, 40)
	if title == "" {
		title = "Neuer Chat"
	}
	rows := []string{
		m.styles.OverlayTitle.Render("Diesen Chat wirklich löschen?"),
		"",
		m.styles.SidebarItem.Render(title),
		"",
		m.styles.HelpBar.Render("enter löschen · esc abbrechen"),
	}
	return m.styles.Overlay.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
