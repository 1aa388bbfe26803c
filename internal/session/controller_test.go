package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/uniagent/uniagent-tui/internal/backend"
	"github.com/uniagent/uniagent-tui/internal/webhook"
)

type savedMessage struct {
	ChatID  string
	Sender  string
	Content string
}

// fakeServices fakes the backend and the webhook in one process and
// counts every request so tests can assert the exact call sequence.
type fakeServices struct {
	mu sync.Mutex

	createStatus   int
	saveUserStatus int
	historyBody    string

	webhookStatus int
	webhookBody   string
	webhookEnter  chan struct{}
	webhookBlock  chan struct{}

	creates     int
	createTitle string
	saves       []savedMessage
	webhooks    int
	webhookReqs []map[string]string
}

func (f *fakeServices) backendHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/chats":
			f.creates++
			var req map[string]string
			_ = json.NewDecoder(r.Body).Decode(&req)
			f.createTitle = req["title"]
			if f.createStatus != 0 {
				w.WriteHeader(f.createStatus)
				return
			}
			fmt.Fprintf(w, `{"id":"chat-%d"}`, f.creates)

		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/messages"):
			var req map[string]string
			_ = json.NewDecoder(r.Body).Decode(&req)
			chatID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/chats/"), "/messages")
			f.saves = append(f.saves, savedMessage{ChatID: chatID, Sender: req["sender"], Content: req["content"]})
			if req["sender"] == SenderUser && f.saveUserStatus != 0 {
				w.WriteHeader(f.saveUserStatus)
			}

		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/messages"):
			fmt.Fprint(w, f.historyBody)

		default:
			t.Errorf("unexpected backend request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func (f *fakeServices) webhookHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.webhookEnter != nil {
			f.webhookEnter <- struct{}{}
			<-f.webhookBlock
		}

		f.mu.Lock()
		f.webhooks++
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.webhookReqs = append(f.webhookReqs, req)
		status, body := f.webhookStatus, f.webhookBody
		f.mu.Unlock()

		if status != 0 {
			w.WriteHeader(status)
			return
		}
		if body == "" {
			body = `{"output":"Antwort vom Bot"}`
		}
		fmt.Fprint(w, body)
	})
}

func newTestController(t *testing.T, f *fakeServices, token string) (*Controller, *int) {
	t.Helper()
	bsrv := httptest.NewServer(f.backendHandler(t))
	t.Cleanup(bsrv.Close)
	wsrv := httptest.NewServer(f.webhookHandler(t))
	t.Cleanup(wsrv.Close)

	tokenFn := func() string { return token }
	broadcasts := 0
	c := NewController(
		backend.NewClient(bsrv.URL, time.Second, tokenFn),
		webhook.NewClient(wsrv.URL, time.Second),
		tokenFn,
		func() { broadcasts++ },
	)
	return c, &broadcasts
}

func TestSendFirstMessage(t *testing.T) {
	f := &fakeServices{}
	c, broadcasts := newTestController(t, f, "tok")

	if err := c.Send(context.Background(), "Wann ist die Rückmeldefrist?"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if f.creates != 1 {
		t.Fatalf("expected 1 create, got %d", f.creates)
	}
	if f.createTitle != "Wann ist die Rückmeldefrist?" {
		t.Fatalf("unexpected title: %q", f.createTitle)
	}
	if f.webhooks != 1 {
		t.Fatalf("expected 1 webhook call, got %d", f.webhooks)
	}
	if len(f.saves) != 2 {
		t.Fatalf("expected user+bot saved, got %d saves", len(f.saves))
	}
	if f.saves[0].Sender != SenderUser || f.saves[0].Content != "Wann ist die Rückmeldefrist?" {
		t.Fatalf("unexpected first save: %+v", f.saves[0])
	}
	if f.saves[1].Sender != SenderBot || f.saves[1].Content != "Antwort vom Bot" {
		t.Fatalf("unexpected second save: %+v", f.saves[1])
	}
	if *broadcasts != 1 {
		t.Fatalf("expected exactly 1 broadcast, got %d", *broadcasts)
	}

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 bubbles, got %d", len(msgs))
	}
	if msgs[0].Sender != SenderUser || msgs[1].Sender != SenderBot {
		t.Fatalf("unexpected bubble order: %s, %s", msgs[0].Sender, msgs[1].Sender)
	}
	if c.State() != StateActive {
		t.Fatalf("expected active state, got %v", c.State())
	}
	if c.Loading() {
		t.Fatalf("expected loading cleared")
	}

	// correlation token travels with the webhook request
	if f.webhookReqs[0]["sessionId"] != c.SessionID() {
		t.Fatalf("webhook sessionId %q != controller %q", f.webhookReqs[0]["sessionId"], c.SessionID())
	}
	if f.webhookReqs[0]["chatInput"] != "Wann ist die Rückmeldefrist?" {
		t.Fatalf("unexpected chatInput: %q", f.webhookReqs[0]["chatInput"])
	}
}

func TestSecondMessageReusesChat(t *testing.T) {
	f := &fakeServices{}
	c, broadcasts := newTestController(t, f, "tok")

	if err := c.Send(context.Background(), "erste Frage"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := c.Send(context.Background(), "zweite Frage"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if f.creates != 1 {
		t.Fatalf("expected exactly 1 create across two sends, got %d", f.creates)
	}
	if len(c.Messages()) != 4 {
		t.Fatalf("expected 4 bubbles, got %d", len(c.Messages()))
	}
	if *broadcasts != 2 {
		t.Fatalf("expected 2 broadcasts, got %d", *broadcasts)
	}
	for _, s := range f.saves {
		if s.ChatID != "chat-1" {
			t.Fatalf("message saved to wrong chat: %+v", s)
		}
	}
}

func TestEnsureChatIdempotent(t *testing.T) {
	f := &fakeServices{}
	c, _ := newTestController(t, f, "tok")

	id1, err := c.EnsureChat(context.Background(), "Hallo")
	if err != nil {
		t.Fatalf("ensure chat: %v", err)
	}
	id2, err := c.EnsureChat(context.Background(), "egal")
	if err != nil {
		t.Fatalf("ensure chat: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("ids differ: %q vs %q", id1, id2)
	}
	if f.creates != 1 {
		t.Fatalf("expected 1 create request, got %d", f.creates)
	}
}

func TestWebhookFailureSynthesizesReply(t *testing.T) {
	f := &fakeServices{webhookStatus: http.StatusInternalServerError}
	c, broadcasts := newTestController(t, f, "tok")

	if err := c.Send(context.Background(), "Hilfe"); err != nil {
		t.Fatalf("send: %v", err)
	}

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 bubbles, got %d", len(msgs))
	}
	if msgs[1].Text != webhook.ErrorText {
		t.Fatalf("unexpected bot text: %q", msgs[1].Text)
	}
	// the apology is persisted as a bot message too
	if len(f.saves) != 2 || f.saves[1].Sender != SenderBot || f.saves[1].Content != webhook.ErrorText {
		t.Fatalf("unexpected saves: %+v", f.saves)
	}
	if *broadcasts != 1 {
		t.Fatalf("expected broadcast despite webhook failure, got %d", *broadcasts)
	}
}

func TestEmptyExtractionFallsBack(t *testing.T) {
	f := &fakeServices{webhookBody: `{}`}
	c, _ := newTestController(t, f, "tok")

	if err := c.Send(context.Background(), "Hallo"); err != nil {
		t.Fatalf("send: %v", err)
	}
	msgs := c.Messages()
	if msgs[1].Text != webhook.NoAnswerText {
		t.Fatalf("unexpected bot text: %q", msgs[1].Text)
	}
}

func TestNoTokenAborts(t *testing.T) {
	f := &fakeServices{}
	c, broadcasts := newTestController(t, f, "")

	err := c.Send(context.Background(), "Hallo")
	if err != ErrNoToken {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if len(c.Messages()) != 0 {
		t.Fatalf("expected thread untouched, got %d messages", len(c.Messages()))
	}
	if f.creates != 0 || f.webhooks != 0 || len(f.saves) != 0 {
		t.Fatalf("expected no network calls, got creates=%d webhooks=%d saves=%d", f.creates, f.webhooks, len(f.saves))
	}
	if *broadcasts != 0 {
		t.Fatalf("expected no broadcast, got %d", *broadcasts)
	}
	if c.State() != StateNoChat {
		t.Fatalf("expected no-chat state, got %v", c.State())
	}
	if c.Loading() {
		t.Fatalf("expected loading cleared after abort")
	}
}

func TestCreateFailureRollsBack(t *testing.T) {
	f := &fakeServices{createStatus: http.StatusInternalServerError}
	c, broadcasts := newTestController(t, f, "tok")

	if err := c.Send(context.Background(), "Hallo"); err == nil {
		t.Fatalf("expected create failure")
	}
	if len(c.Messages()) != 0 {
		t.Fatalf("expected optimistic bubble rolled back, got %d messages", len(c.Messages()))
	}
	if f.webhooks != 0 {
		t.Fatalf("expected no webhook call after failed create")
	}
	if *broadcasts != 0 {
		t.Fatalf("expected no broadcast after failed create")
	}
	if c.State() != StateNoChat {
		t.Fatalf("expected state back to no-chat, got %v", c.State())
	}
}

func TestUserSaveFailureDoesNotBlockWebhook(t *testing.T) {
	f := &fakeServices{saveUserStatus: http.StatusBadGateway}
	c, broadcasts := newTestController(t, f, "tok")

	if err := c.Send(context.Background(), "Hallo"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if f.webhooks != 1 {
		t.Fatalf("expected webhook call despite failed user save")
	}
	if len(c.Messages()) != 2 {
		t.Fatalf("expected full exchange, got %d messages", len(c.Messages()))
	}
	if *broadcasts != 1 {
		t.Fatalf("expected 1 broadcast, got %d", *broadcasts)
	}
}

func TestOnlyOneSendInFlight(t *testing.T) {
	f := &fakeServices{
		webhookEnter: make(chan struct{}),
		webhookBlock: make(chan struct{}),
	}
	c, _ := newTestController(t, f, "tok")

	done := make(chan error, 1)
	go func() { done <- c.Send(context.Background(), "lange Frage") }()

	<-f.webhookEnter
	if !c.Loading() {
		t.Fatalf("expected loading while webhook call is in flight")
	}
	if err := c.Send(context.Background(), "Zwischenruf"); err != ErrBusy {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	close(f.webhookBlock)

	if err := <-done; err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(c.Messages()) != 2 {
		t.Fatalf("expected only the first exchange, got %d messages", len(c.Messages()))
	}
}

func TestOpenLoadsHistory(t *testing.T) {
	f := &fakeServices{historyBody: `[
		{"sender":"user","content":"Frage","createdAt":"2024-01-01T10:00:00Z"},
		{"sender":"bot","content":"Antwort","createdAt":"2024-01-01T10:00:05Z"}
	]`}
	c, _ := newTestController(t, f, "tok")

	oldSession := c.SessionID()
	if err := c.Open(context.Background(), "chat-7"); err != nil {
		t.Fatalf("open: %v", err)
	}

	if c.State() != StateActive || c.ChatID() != "chat-7" {
		t.Fatalf("unexpected state: %v %q", c.State(), c.ChatID())
	}
	msgs := c.Messages()
	if len(msgs) != 2 || msgs[0].Text != "Frage" || msgs[1].Text != "Antwort" {
		t.Fatalf("unexpected history: %+v", msgs)
	}
	if c.SessionID() == oldSession {
		t.Fatalf("expected fresh correlation token after open")
	}

	// sending in an opened chat must not create another chat
	if err := c.Send(context.Background(), "Nachfrage"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if f.creates != 0 {
		t.Fatalf("expected no create for existing chat, got %d", f.creates)
	}
	if got := f.saves[0].ChatID; got != "chat-7" {
		t.Fatalf("saved to wrong chat: %q", got)
	}
}

func TestResetStartsFreshSession(t *testing.T) {
	f := &fakeServices{}
	c, _ := newTestController(t, f, "tok")

	if err := c.Send(context.Background(), "Hallo"); err != nil {
		t.Fatalf("send: %v", err)
	}
	oldSession := c.SessionID()

	c.Reset()
	if c.State() != StateNoChat || c.ChatID() != "" || len(c.Messages()) != 0 {
		t.Fatalf("expected clean session after reset")
	}
	if c.SessionID() == oldSession {
		t.Fatalf("expected fresh correlation token after reset")
	}

	// next send creates a second chat
	if err := c.Send(context.Background(), "Neues Thema"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if f.creates != 2 {
		t.Fatalf("expected a second create after reset, got %d", f.creates)
	}
}

func TestChatTitle(t *testing.T) {
	if got := chatTitle("  Hallo  "); got != "Hallo" {
		t.Fatalf("unexpected title: %q", got)
	}
	if got := chatTitle("   "); got != "Neuer Chat" {
		t.Fatalf("unexpected default title: %q", got)
	}
	long := strings.Repeat("ä", 80)
	if got := chatTitle(long); len([]rune(got)) != 60 {
		t.Fatalf("expected 60-rune cap, got %d runes", len([]rune(got)))
	}
}
