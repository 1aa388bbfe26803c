// Package session drives one compose session against the backend and
// the reply webhook: create the chat on first use, keep the in-memory
// thread, and run the fixed send sequence for every user message.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/uniagent/uniagent-tui/internal/backend"
	"github.com/uniagent/uniagent-tui/internal/webhook"
)

// State of the compose session. A chat id is obtained exactly once per
// session; once Active, every further message reuses it.
type State int

const (
	StateNoChat State = iota
	StateCreating
	StateActive
)

func (s State) String() string {
	switch s {
	case StateNoChat:
		return "no-chat"
	case StateCreating:
		return "creating"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

var (
	// ErrNoToken means no usable access token is stored; the attempt is
	// aborted before any network call and the input must be preserved.
	ErrNoToken = errors.New("session: no access token")
	// ErrBusy means a send is already in flight for this thread.
	ErrBusy = errors.New("session: send already in flight")
)

const (
	SenderUser = "user"
	SenderBot  = "bot"

	defaultTitle = "Neuer Chat"
	maxTitleLen  = 60
)

// Message is one bubble of the in-memory thread.
type Message struct {
	ID        string
	Sender    string
	Text      string
	CreatedAt time.Time
}

func newMessage(sender, text string) Message {
	return Message{
		ID:        ulid.Make().String(),
		Sender:    sender,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

type Controller struct {
	backend    *backend.Client
	webhook    *webhook.Client
	token      func() string
	onExchange func()

	mu        sync.Mutex
	state     State
	chatID    string
	sessionID string
	messages  []Message
	loading   bool
}

// NewController wires a compose session. token is consulted before the
// first message of a session; onExchange is the "chats changed"
// broadcast, invoked exactly once per completed exchange (may be nil).
func NewController(b *backend.Client, w *webhook.Client, token func() string, onExchange func()) *Controller {
	if token == nil {
		token = func() string { return "" }
	}
	return &Controller{
		backend:    b,
		webhook:    w,
		token:      token,
		onExchange: onExchange,
		state:      StateNoChat,
		sessionID:  uuid.NewString(),
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) ChatID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chatID
}

// SessionID is the webhook correlation token. It keys the workflow's
// conversation memory and stays stable for the life of the compose
// session.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Messages returns a copy of the thread in display order.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// Reset starts a fresh compose session: no chat, empty thread, new
// correlation token.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateNoChat
	c.chatID = ""
	c.sessionID = uuid.NewString()
	c.messages = nil
	c.loading = false
}

// Open switches the session to an existing chat and replaces the thread
// with its server-side history. A history fetch failure leaves the
// thread empty (logged, not surfaced), matching the read-path policy.
func (c *Controller) Open(ctx context.Context, chatID string) error {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = StateActive
	c.chatID = chatID
	c.sessionID = uuid.NewString()
	c.messages = nil
	c.mu.Unlock()

	history, err := c.backend.ListMessages(ctx, chatID)
	if err != nil {
		log.Printf("session: load history for %s: %v", chatID, err)
		return err
	}

	msgs := make([]Message, 0, len(history))
	for _, m := range history {
		msg := newMessage(m.Sender, m.Text)
		if m.CreatedAt != nil {
			msg.CreatedAt = *m.CreatedAt
		}
		msgs = append(msgs, msg)
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})

	c.mu.Lock()
	// only install if the session still shows this chat
	if c.chatID == chatID {
		c.messages = msgs
	}
	c.mu.Unlock()
	return nil
}

// EnsureChat returns the session's chat id, creating the chat
// server-side on first call. Subsequent calls within the same session
// return the cached id without touching the network.
func (c *Controller) EnsureChat(ctx context.Context, firstMessage string) (string, error) {
	c.mu.Lock()
	if c.chatID != "" {
		id := c.chatID
		c.mu.Unlock()
		return id, nil
	}
	c.state = StateCreating
	c.mu.Unlock()

	if c.token() == "" {
		c.mu.Lock()
		c.state = StateNoChat
		c.mu.Unlock()
		return "", ErrNoToken
	}

	id, err := c.backend.CreateChat(ctx, chatTitle(firstMessage))
	if err != nil {
		c.mu.Lock()
		c.state = StateNoChat
		c.mu.Unlock()
		return "", fmt.Errorf("create chat: %w", err)
	}

	c.mu.Lock()
	c.chatID = id
	c.state = StateActive
	c.mu.Unlock()
	return id, nil
}

// Send runs one exchange:
//
//  1. append the user message to the thread (optimistic),
//  2. persist it (fire and forget, logged on failure),
//  3. ask the webhook,
//  4. on webhook failure synthesize the technical-error reply,
//  5. on empty extraction substitute the no-answer reply,
//  6. append the bot message and persist it,
//  7. broadcast "chats changed" once.
//
// A missing token or a failed chat creation aborts before the webhook
// and rolls the optimistic user message back so the caller can restore
// the input text without duplicating the bubble.
func (c *Controller) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return ErrBusy
	}
	c.loading = true
	userMsg := newMessage(SenderUser, text)
	c.messages = append(c.messages, userMsg)
	c.mu.Unlock()

	chatID, err := c.EnsureChat(ctx, text)
	if err != nil {
		c.mu.Lock()
		c.dropMessage(userMsg.ID)
		c.loading = false
		c.mu.Unlock()
		return err
	}

	if err := c.backend.SaveMessage(ctx, chatID, SenderUser, text); err != nil {
		log.Printf("session: save user message: %v", err)
	}

	botText := webhook.ErrorText
	raw, err := c.webhook.Ask(ctx, text, c.SessionID())
	if err != nil {
		log.Printf("session: webhook: %v", err)
	} else if s, ok := webhook.ExtractText(raw); ok && s != "" {
		botText = s
	} else {
		botText = webhook.NoAnswerText
	}

	c.mu.Lock()
	c.messages = append(c.messages, newMessage(SenderBot, botText))
	c.loading = false
	c.mu.Unlock()

	if err := c.backend.SaveMessage(ctx, chatID, SenderBot, botText); err != nil {
		log.Printf("session: save bot message: %v", err)
	}

	if c.onExchange != nil {
		c.onExchange()
	}
	return nil
}

// dropMessage removes a message by id; callers hold c.mu.
func (c *Controller) dropMessage(id string) {
	for i, m := range c.messages {
		if m.ID == id {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			return
		}
	}
}

// chatTitle derives the server-side chat title from the first message:
// trimmed and capped, defaulting to "Neuer Chat".
func chatTitle(firstMessage string) string {
	t := strings.TrimSpace(firstMessage)
	if t == "" {
		return defaultTitle
	}
	if r := []rune(t); len(r) > maxTitleLen {
		t = string(r[:maxTitleLen])
	}
	return t
}
