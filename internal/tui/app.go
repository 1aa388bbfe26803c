// Package tui renders the UNIAGENT client: a sidebar with the chat
// list, the message thread with its composer, a login form, search and
// delete overlays, and the support-ticket inbox. All orchestration
// lives in the session/chatlist/localstate packages; this package only
// presents their state and translates key presses into their calls.
package tui

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/uniagent/uniagent-tui/internal/backend"
	"github.com/uniagent/uniagent-tui/internal/chatlist"
	"github.com/uniagent/uniagent-tui/internal/config"
	"github.com/uniagent/uniagent-tui/internal/localstate"
	"github.com/uniagent/uniagent-tui/internal/session"
)

type view int

const (
	viewLogin view = iota
	viewChat
	viewSupport
)

type overlay int

const (
	overlayNone overlay = iota
	overlaySearch
	overlayConfirmDelete
	overlayAlert
)

type focusRegion int

const (
	focusInput focusRegion = iota
	focusSidebar
)

const (
	sidebarWidth          = 28
	sidebarCollapsedWidth = 6
)

// ChatsChangedMsg is the process-wide "chats changed" broadcast: the
// session controller raises it after every completed exchange, and the
// model answers with a full sidebar refresh.
type ChatsChangedMsg struct{}

// ChatListUpdatedMsg tells the model the cached list was replaced, so
// the sidebar repaints. Unlike ChatsChangedMsg it must not trigger
// another refresh, the refresh is what raised it.
type ChatListUpdatedMsg struct{}

type chatsRefreshedMsg struct{ err error }

type historyLoadedMsg struct {
	chatID string
	err    error
}

type exchangeDoneMsg struct {
	text string
	err  error
}

type loginDoneMsg struct {
	res *backend.LoginResult
	err error
}

// Deps is everything the model presents.
type Deps struct {
	Config  config.Config
	State   *localstate.Store
	Backend *backend.Client
	Chats   *chatlist.Store
	Chat    *session.Controller
}

type Model struct {
	deps   Deps
	keys   keyMap
	styles styles

	view    view
	overlay overlay
	focus   focusRegion
	width   int
	height  int

	input     textinput.Model
	thread    viewport.Model
	spin      spinner.Model
	collapsed bool
	cursor    int

	login   loginModel
	search  searchModel
	confirm confirmModel
	support supportModel

	// set synchronously on submit, cleared on exchangeDoneMsg; the
	// controller's own loading flag only flips once the Send goroutine
	// runs, so the tick chain keys off this instead
	sending bool

	alert        string
	pendingInput string
}

func NewModel(deps Deps) *Model {
	st := defaultStyles()

	input := textinput.New()
	input.Placeholder = "UNIAGENT fragen"
	input.CharLimit = 2000
	input.Focus()

	sp := spinner.New()
	// the SPA's three bouncing dots
	sp.Spinner = spinner.Spinner{
		Frames: []string{"●∙∙", "∙●∙", "∙∙●"},
		FPS:    time.Second / 3,
	}
	sp.Style = st.Loading

	m := &Model{
		deps:    deps,
		keys:    defaultKeyMap(),
		styles:  st,
		view:    viewChat,
		input:   input,
		thread:  viewport.New(0, 0),
		spin:    sp,
		login:   newLoginModel(),
		search:  newSearchModel(),
		support: newSupportModel(),
	}
	if deps.State.Token() == "" {
		m.view = viewLogin
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.refreshChatsCmd()}
	// resume the chat that was active before the last shutdown
	if id := m.deps.State.ActiveChat(); id != "" && m.view == viewChat {
		cmds = append(cmds, m.openChatCmd(id))
	}
	return tea.Batch(cmds...)
}

// ---- commands -------------------------------------------------------

func (m *Model) refreshChatsCmd() tea.Cmd {
	return func() tea.Msg {
		err := m.deps.Chats.Refresh(context.Background())
		return chatsRefreshedMsg{err: err}
	}
}

func (m *Model) openChatCmd(id string) tea.Cmd {
	return func() tea.Msg {
		err := m.deps.Chat.Open(context.Background(), id)
		return historyLoadedMsg{chatID: id, err: err}
	}
}

func (m *Model) sendCmd(text string) tea.Cmd {
	return func() tea.Msg {
		err := m.deps.Chat.Send(context.Background(), text)
		return exchangeDoneMsg{text: text, err: err}
	}
}

func (m *Model) loginCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.deps.Backend.Login(context.Background(), email, password)
		return loginDoneMsg{res: res, err: err}
	}
}

// ---- update ---------------------------------------------------------

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resizeThread()
		m.renderThreadContent()
		return m, nil

	case tea.FocusMsg:
		// the SPA refreshes the list whenever the tab regains focus
		return m, m.refreshChatsCmd()

	case ChatsChangedMsg:
		return m, m.refreshChatsCmd()

	case ChatListUpdatedMsg:
		m.clampCursor()
		return m, nil

	case chatsRefreshedMsg:
		m.clampCursor()
		return m, nil

	case historyLoadedMsg:
		m.renderThreadContent()
		m.thread.GotoBottom()
		return m, nil

	case exchangeDoneMsg:
		return m.handleExchangeDone(msg)

	case loginDoneMsg:
		return m.handleLoginDone(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if !m.sending && !m.deps.Chat.Loading() {
			return m, nil
		}
		m.renderThreadContent()
		m.thread.GotoBottom()
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	// overlays swallow all input while open
	switch m.overlay {
	case overlayAlert:
		m.overlay = overlayNone
		m.alert = ""
		if m.pendingInput != "" {
			m.input.SetValue(m.pendingInput)
			m.input.CursorEnd()
			m.pendingInput = ""
		}
		return m, nil
	case overlaySearch:
		return m.updateSearch(msg)
	case overlayConfirmDelete:
		return m.updateConfirm(msg)
	}

	switch m.view {
	case viewLogin:
		return m.updateLogin(msg)
	case viewSupport:
		return m.updateSupport(msg)
	default:
		return m.updateChat(msg)
	}
}

func (m *Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NewChat):
		m.deps.Chat.Reset()
		if err := m.deps.State.ClearActiveChat(); err != nil {
			log.Printf("clear active chat: %v", err)
		}
		m.renderThreadContent()
		m.focus = focusInput
		m.input.Focus()
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.overlay = overlaySearch
		m.search.open()
		return m, nil

	case key.Matches(msg, m.keys.ToggleSidebar):
		m.collapsed = !m.collapsed
		m.resizeThread()
		m.renderThreadContent()
		return m, nil

	case key.Matches(msg, m.keys.Support):
		m.view = viewSupport
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		return m.logout()

	case key.Matches(msg, m.keys.FocusSwitch):
		if m.focus == focusInput {
			m.focus = focusSidebar
			m.input.Blur()
		} else {
			m.focus = focusInput
			m.input.Focus()
		}
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.updateSidebar(msg)
	}

	if key.Matches(msg, m.keys.Send) {
		return m.submitInput()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) submitInput() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	// the send affordance stays disabled while an exchange runs
	if strings.TrimSpace(text) == "" || m.deps.Chat.Loading() {
		return m, nil
	}
	m.input.SetValue("")
	m.sending = true
	m.renderThreadContent()
	return m, tea.Batch(m.spin.Tick, m.sendCmd(text))
}

func (m *Model) handleExchangeDone(msg exchangeDoneMsg) (tea.Model, tea.Cmd) {
	m.sending = false
	if msg.err != nil {
		// aborted before the webhook: restore the input so nothing is lost
		m.pendingInput = msg.text
		m.alert = ""
		if errors.Is(msg.err, session.ErrNoToken) {
			m.alert = "Login-Token fehlt. Bitte einmal neu einloggen."
		} else if !errors.Is(msg.err, session.ErrBusy) {
			m.alert = "Neuer Chat konnte nicht erstellt werden."
		}
		if m.alert != "" {
			m.overlay = overlayAlert
		} else {
			// a silent rejection: only restore if the user has not
			// typed anything new in the meantime
			if m.input.Value() == "" {
				m.input.SetValue(m.pendingInput)
				m.input.CursorEnd()
			}
			m.pendingInput = ""
		}
		m.renderThreadContent()
		return m, nil
	}

	if id := m.deps.Chat.ChatID(); id != "" {
		if err := m.deps.State.SetActiveChat(id); err != nil {
			log.Printf("set active chat: %v", err)
		}
	}
	m.renderThreadContent()
	m.thread.GotoBottom()
	return m, nil
}

func (m *Model) handleLoginDone(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.login.fail(msg.err)
		return m, nil
	}
	if err := m.deps.State.SaveIdentity(&localstate.Identity{
		FirstName: msg.res.FirstName,
		LastName:  msg.res.LastName,
		Email:     msg.res.Email,
		Token:     msg.res.Token,
	}); err != nil {
		m.login.fail(err)
		return m, nil
	}
	m.login.reset()
	m.view = viewChat
	m.focus = focusInput
	m.input.Focus()
	return m, m.refreshChatsCmd()
}

func (m *Model) logout() (tea.Model, tea.Cmd) {
	if err := m.deps.State.ClearIdentity(); err != nil {
		log.Printf("clear identity: %v", err)
	}
	if err := m.deps.State.ClearActiveChat(); err != nil {
		log.Printf("clear active chat: %v", err)
	}
	m.deps.Chat.Reset()
	m.view = viewLogin
	m.login.reset()
	m.renderThreadContent()
	// resets the cached list to empty now that the token is gone
	return m, m.refreshChatsCmd()
}

func (m *Model) updateSidebar(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	chats := m.deps.Chats.Chats()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(chats)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Delete):
		if m.cursor < len(chats) {
			m.confirm = confirmModel{chatID: chats[m.cursor].ID, title: chats[m.cursor].Title}
			m.overlay = overlayConfirmDelete
		}
	case key.Matches(msg, m.keys.Send):
		if m.cursor < len(chats) {
			return m.openChat(chats[m.cursor].ID)
		}
	}
	return m, nil
}

func (m *Model) openChat(id string) (tea.Model, tea.Cmd) {
	if m.deps.Chat.Loading() {
		return m, nil
	}
	if err := m.deps.State.SetActiveChat(id); err != nil {
		log.Printf("set active chat: %v", err)
	}
	m.focus = focusInput
	m.input.Focus()
	return m, m.openChatCmd(id)
}

func (m *Model) clampCursor() {
	if n := len(m.deps.Chats.Chats()); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// ---- view -----------------------------------------------------------

func (m *Model) View() string {
	if m.width == 0 {
		return ""
	}

	var screen string
	switch m.view {
	case viewLogin:
		screen = m.renderLogin()
	case viewSupport:
		screen = m.renderSupport()
	default:
		screen = m.renderChatScreen()
	}

	switch m.overlay {
	case overlaySearch:
		return m.placeOverlay(m.renderSearch())
	case overlayConfirmDelete:
		return m.placeOverlay(m.renderConfirm())
	case overlayAlert:
		return m.placeOverlay(m.renderAlert())
	}
	return screen
}

func (m *Model) renderChatScreen() string {
	main := m.renderMain()
	side := m.renderSidebar()
	return lipgloss.JoinHorizontal(lipgloss.Top, side, main)
}

func (m *Model) renderMain() string {
	inputStyle := m.styles.InputBox
	if m.focus == focusInput {
		inputStyle = m.styles.InputBoxFocused
	}
	m.input.Width = m.mainWidth() - 6
	inputBox := inputStyle.Width(m.mainWidth() - 2).Render(m.input.View())

	help := m.styles.HelpBar.Render(
		"enter senden · tab Seitenleiste · ctrl+n neuer Chat · ctrl+f suchen · ctrl+t Support · ctrl+o abmelden")

	return lipgloss.JoinVertical(lipgloss.Left, m.thread.View(), inputBox, help)
}

func (m *Model) placeOverlay(box string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) renderAlert() string {
	return m.styles.Overlay.Render(
		m.styles.AlertText.Render(m.alert) + "\n\n" +
			m.styles.HelpBar.Render("Taste drücken zum Schließen"))
}

func (m *Model) sidebarTotalWidth() int {
	if m.collapsed {
		return sidebarCollapsedWidth
	}
	return sidebarWidth
}

func (m *Model) mainWidth() int {
	w := m.width - m.sidebarTotalWidth()
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) resizeThread() {
	m.thread.Width = m.mainWidth()
	h := m.height - 4 // input box and help bar
	if h < 3 {
		h = 3
	}
	m.thread.Height = h
}

func (m *Model) renderThreadContent() {
	m.thread.SetContent(renderThread(
		m.deps.Chat.Messages(),
		m.sending || m.deps.Chat.Loading(),
		m.spin.View(),
		m.mainWidth(),
		m.styles,
	))
}
