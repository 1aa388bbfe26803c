package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type ticket struct {
	ID      string
	Subject string
	Body    string
	Answer  string
}

type supportTab int

const (
	tabOpen supportTab = iota
	tabAnswered
)

// supportModel is the staff-facing ticket inbox. The tickets are local
// demo data, the view exists to exercise the workflow: pick an open
// ticket, answer it, see it move to the answered tab.
type supportModel struct {
	tab      supportTab
	cursor   int
	open     []ticket
	answered []ticket
	reply    textinput.Model
	replying bool
	flash    string
}

func newSupportModel() supportModel {
	reply := textinput.New()
	reply.Placeholder = "Antwort schreiben"
	reply.CharLimit = 1000
	reply.Width = 50

	return supportModel{
		open: []ticket{
			{
				ID:      "T-1",
				Subject: "Chatbot beantwortet Frage zur Rückmeldung nicht",
				Body:    "Ich habe nach der Rückmeldefrist gefragt, aber keine Antwort bekommen.",
			},
			{
				ID:      "T-2",
				Subject: "Login funktioniert nach Passwortänderung nicht",
				Body:    "Nach dem Zurücksetzen meines Passworts komme ich nicht mehr in den Chat.",
			},
		},
		reply: reply,
	}
}

func (m *Model) updateSupport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := &m.support

	if s.replying {
		switch msg.String() {
		case "esc":
			s.replying = false
			s.reply.Blur()
			return m, nil
		case "enter":
			text := s.reply.Value()
			if text == "" {
				return m, nil
			}
			t := s.open[s.cursor]
			t.Answer = text
			s.open = append(s.open[:s.cursor], s.open[s.cursor+1:]...)
			s.answered = append(s.answered, t)
			if s.cursor >= len(s.open) && s.cursor > 0 {
				s.cursor--
			}
			s.replying = false
			s.reply.SetValue("")
			s.reply.Blur()
			s.flash = fmt.Sprintf("Ticket %s beantwortet.", t.ID)
			return m, nil
		}
		var cmd tea.Cmd
		s.reply, cmd = s.reply.Update(msg)
		return m, cmd
	}

	s.flash = ""
	switch msg.String() {
	case "esc", "ctrl+t":
		m.view = viewChat
		return m, nil
	case "tab", "left", "right":
		if s.tab == tabOpen {
			s.tab = tabAnswered
		} else {
			s.tab = tabOpen
		}
		s.cursor = 0
		return m, nil
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
		return m, nil
	case "down", "j":
		if s.cursor < len(s.current())-1 {
			s.cursor++
		}
		return m, nil
	case "enter":
		if s.tab == tabOpen && s.cursor < len(s.open) {
			s.replying = true
			s.reply.Focus()
		}
		return m, nil
	}
	return m, nil
}

func (s *supportModel) current() []ticket {
	if s.tab == tabAnswered {
		return s.answered
	}
	return s.open
}

func (m *Model) renderSupport() string {
	s := &m.support

	openTab := m.styles.TabInactive.Render(fmt.Sprintf("Offen (%d)", len(s.open)))
	doneTab := m.styles.TabInactive.Render(fmt.Sprintf("Beantwortet (%d)", len(s.answered)))
	if s.tab == tabOpen {
		openTab = m.styles.TabActive.Render(fmt.Sprintf("Offen (%d)", len(s.open)))
	} else {
		doneTab = m.styles.TabActive.Render(fmt.Sprintf("Beantwortet (%d)", len(s.answered)))
	}

	rows := []string{
		m.styles.AppTitle.Render("Support-Tickets"),
		"",
		openTab + "   " + doneTab,
		"",
	}

	tickets := s.current()
	if len(tickets) == 0 {
		rows = append(rows, m.styles.SidebarFaint.Render("Keine Tickets."))
	}
	for i, t := range tickets {
		marker := "  "
		style := m.styles.TicketOpen
		if s.tab == tabAnswered {
			style = m.styles.TicketDone
		}
		if i == s.cursor {
			marker = "> "
		}
		rows = append(rows, style.Render(marker+t.ID+"  "+t.Subject))
		rows = append(rows, m.styles.SidebarFaint.Render("    "+t.Body))
		if t.Answer != "" {
			rows = append(rows, m.styles.SidebarItem.Render("    Antwort: "+t.Answer))
		}
		rows = append(rows, "")
	}

	if s.replying {
		rows = append(rows, m.styles.InputBoxFocused.Render(s.reply.View()))
	}
	if s.flash != "" {
		rows = append(rows, m.styles.Flash.Render(s.flash))
	}
	rows = append(rows, "", m.styles.HelpBar.Render("enter beantworten · tab Reiter · esc zurück"))

	body := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(body)
}
