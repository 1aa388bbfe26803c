package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) renderSidebar() string {
	w := m.sidebarTotalWidth()
	height := m.height
	if height < 3 {
		height = 3
	}

	if m.collapsed {
		id := m.deps.State.Identity()
		initials := id.Initials()
		body := lipgloss.JoinVertical(lipgloss.Center,
			m.styles.AppTitle.Render("UA"),
			"",
			m.styles.Avatar.Render(initials),
		)
		return m.styles.Sidebar.Width(w).Height(height).Render(body)
	}

	var lines []string
	lines = append(lines, m.styles.AppTitle.Render(" UNIAGENT"))
	lines = append(lines, m.styles.SidebarHeader.Render(" Chats"))

	chats := m.deps.Chats.Chats()
	if len(chats) == 0 {
		lines = append(lines, m.styles.SidebarFaint.Render(" Keine Chats vorhanden."))
	}
	for i, c := range chats {
		title := c.Title
		if title == "" {
			title = "Neuer Chat"
		}
		title = truncate(title, w-4)

		style := m.styles.SidebarItem
		prefix := "  "
		if c.ID == m.deps.Chat.ChatID() {
			style = m.styles.SidebarActive
		}
		if m.focus == focusSidebar && i == m.cursor {
			style = m.styles.SidebarCursor
			prefix = "> "
		}
		lines = append(lines, style.Render(prefix+title))
	}

	list := lipgloss.JoinVertical(lipgloss.Left, lines...)
	footer := m.renderFooter(w)
	gap := height - lipgloss.Height(list) - lipgloss.Height(footer)
	if gap < 0 {
		gap = 0
	}
	body := list
	for i := 0; i < gap; i++ {
		body += "\n"
	}
	body += footer

	return m.styles.Sidebar.Width(w).Height(height).Render(body)
}

func (m *Model) renderFooter(w int) string {
	id := m.deps.State.Identity()
	name := truncate(id.FullName(), w-6)
	return fmt.Sprintf("%s %s",
		m.styles.Avatar.Render(id.Initials()),
		m.styles.SidebarItem.Render(name))
}

func truncate(s string, max int) string {
	if max < 1 {
		max = 1
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
