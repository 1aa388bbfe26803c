package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/uniagent/uniagent-tui/internal/session"
)

// renderThread lays the conversation out like the web chat: user
// messages as green bubbles on the right, bot messages as gray bubbles
// on the left, and the animated dots while a reply is pending.
func renderThread(msgs []session.Message, loading bool, spinnerView string, width int, st styles) string {
	if width < 10 {
		width = 10
	}
	bubbleMax := width * 2 / 3
	if bubbleMax < 8 {
		bubbleMax = 8
	}

	var rows []string
	if len(msgs) == 0 && !loading {
		rows = append(rows, "",
			lipgloss.PlaceHorizontal(width, lipgloss.Center,
				st.AppTitle.Render("Wie kann ich dir helfen?")),
			lipgloss.PlaceHorizontal(width, lipgloss.Center,
				st.SidebarFaint.Render("Stelle eine Frage rund um dein Studium.")))
	}

	for _, msg := range msgs {
		var bubble string
		var align lipgloss.Position
		if msg.Sender == session.SenderUser {
			bubble = st.UserBubble.MaxWidth(bubbleMax).Width(min(bubbleMax, lipgloss.Width(msg.Text)+2)).Render(msg.Text)
			align = lipgloss.Right
		} else {
			bubble = st.BotBubble.MaxWidth(bubbleMax).Width(min(bubbleMax, lipgloss.Width(msg.Text)+2)).Render(msg.Text)
			align = lipgloss.Left
		}
		rows = append(rows, lipgloss.PlaceHorizontal(width, align, bubble), "")
	}

	if loading {
		rows = append(rows, lipgloss.PlaceHorizontal(width, lipgloss.Left,
			st.BotBubble.Render(spinnerView)), "")
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
