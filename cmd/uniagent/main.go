package main

import (
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/uniagent/uniagent-tui/internal/backend"
	"github.com/uniagent/uniagent-tui/internal/chatlist"
	"github.com/uniagent/uniagent-tui/internal/config"
	"github.com/uniagent/uniagent-tui/internal/localstate"
	"github.com/uniagent/uniagent-tui/internal/session"
	"github.com/uniagent/uniagent-tui/internal/tui"
	"github.com/uniagent/uniagent-tui/internal/webhook"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	// the terminal owns stdout, so logs go to a file
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		log.Fatalf("open log file: %v", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	state, err := localstate.Open(cfg.StateDBPath)
	if err != nil {
		log.Fatalf("open local state: %v", err)
	}

	api := backend.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, state.Token)
	bot := webhook.NewClient(cfg.WebhookURL, cfg.WebhookTimeout)

	// p.Send exists only after the program is constructed, so the
	// store and controller broadcast through this indirection
	var send func(tea.Msg)

	chats := chatlist.NewStore(api, state.Token)
	chats.OnChanged(func() {
		if send != nil {
			send(tui.ChatListUpdatedMsg{})
		}
	})

	ctrl := session.NewController(api, bot, state.Token, func() {
		if send != nil {
			send(tui.ChatsChangedMsg{})
		}
	})

	m := tui.NewModel(tui.Deps{
		Config:  cfg,
		State:   state,
		Backend: api,
		Chats:   chats,
		Chat:    ctrl,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithReportFocus())
	send = p.Send

	log.Printf("uniagent started api=%s webhook=%q", cfg.APIBaseURL, cfg.WebhookURL)

	if _, err := p.Run(); err != nil {
		log.Fatalf("run: %v", err)
	}
}
