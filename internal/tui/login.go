package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type loginModel struct {
	email    textinput.Model
	password textinput.Model
	focused  int
	busy     bool
	errText  string
}

func newLoginModel() loginModel {
	email := textinput.New()
	email.Placeholder = "E-Mail"
	email.CharLimit = 255
	email.Width = 40
	email.Focus()

	password := textinput.New()
	password.Placeholder = "Passwort"
	password.CharLimit = 255
	password.Width = 40
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return loginModel{email: email, password: password}
}

func (l *loginModel) reset() {
	l.email.SetValue("")
	l.password.SetValue("")
	l.focused = 0
	l.busy = false
	l.errText = ""
	l.email.Focus()
	l.password.Blur()
}

func (l *loginModel) fail(err error) {
	l.busy = false
	l.errText = err.Error()
}

func (m *Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	l := &m.login
	if l.busy {
		return m, nil
	}

	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		if l.focused == 0 {
			l.focused = 1
			l.email.Blur()
			l.password.Focus()
		} else {
			l.focused = 0
			l.password.Blur()
			l.email.Focus()
		}
		return m, nil

	case "enter":
		email := strings.TrimSpace(l.email.Value())
		password := l.password.Value()
		if email == "" || password == "" {
			l.errText = "Bitte E-Mail und Passwort eingeben."
			return m, nil
		}
		l.busy = true
		l.errText = ""
		return m, m.loginCmd(email, password)
	}

	var cmd tea.Cmd
	if l.focused == 0 {
		l.email, cmd = l.email.Update(msg)
	} else {
		l.password, cmd = l.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) renderLogin() string {
	l := &m.login

	rows := []string{
		m.styles.AppTitle.Render("UNIAGENT"),
		m.styles.SidebarFaint.Render("Anmeldung"),
		"",
		m.styles.InputBox.Render(l.email.View()),
		m.styles.InputBox.Render(l.password.View()),
	}
	if l.busy {
		rows = append(rows, "", m.styles.Loading.Render("Anmeldung läuft..."))
	}
	if l.errText != "" {
		rows = append(rows, "", m.styles.AlertText.Render(l.errText))
	}
	rows = append(rows, "", m.styles.HelpBar.Render("enter anmelden · tab Feld wechseln · ctrl+c beenden"))

	box := m.styles.Overlay.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return m.placeOverlay(box)
}
