// Package backend is the HTTP client for the externally owned UNIAGENT
// REST backend. It owns no business rules: every call is a single
// attempt, and response shapes are decoded tolerantly because the
// backend's exact serialization is observed, not contracted.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StatusError is returned for any non-2xx backend response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: status %d", e.Status)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      func() string
}

// NewClient builds a client for the backend at baseURL. token is called
// per request; when it returns "" the request goes out unauthenticated
// and the backend answers 401.
func NewClient(baseURL string, timeout time.Duration, token func() string) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		token:      token,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if t := c.token(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Status: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Token     string `json:"token"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Login authenticates against the backend and returns the identity to
// store. A 2xx response without a token is still a failed login (the
// backend reports soft failures through the success flag).
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	raw, err := c.do(ctx, http.MethodPost, "/api/auth/login", loginReq{Email: email, Password: password})
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			var body loginResp
			if json.Unmarshal([]byte(se.Body), &body) == nil && body.Message != "" {
				return nil, fmt.Errorf("login: %s", body.Message)
			}
		}
		return nil, err
	}

	var body loginResp
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("login: decode response: %w", err)
	}
	if !body.Success || body.Token == "" {
		if body.Message != "" {
			return nil, fmt.Errorf("login: %s", body.Message)
		}
		return nil, errors.New("login: no token in response")
	}
	return &LoginResult{
		Token:     body.Token,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     body.Email,
	}, nil
}

// ListChats fetches the chat list. Records without an id are dropped;
// everything else is normalized into ChatSummary. Order is whatever the
// backend sent, callers sort.
func (c *Client) ListChats(ctx context.Context) ([]ChatSummary, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/chats", nil)
	if err != nil {
		return nil, err
	}

	var dtos []chatDTO
	if err := json.Unmarshal(raw, &dtos); err != nil {
		return nil, fmt.Errorf("list chats: decode response: %w", err)
	}

	chats := make([]ChatSummary, 0, len(dtos))
	for _, d := range dtos {
		id := d.id()
		if id == "" {
			continue
		}
		chats = append(chats, ChatSummary{
			ID:        id,
			Title:     d.Title,
			CreatedAt: parseTime(d.CreatedAt, d.CreatedAtSnake),
			UpdatedAt: parseTime(d.UpdatedAt, d.UpdatedAtSnake),
		})
	}
	return chats, nil
}

type createChatReq struct {
	Title string `json:"title"`
}

// CreateChat creates a chat container and returns its id.
func (c *Client) CreateChat(ctx context.Context, title string) (string, error) {
	raw, err := c.do(ctx, http.MethodPost, "/api/chats", createChatReq{Title: title})
	if err != nil {
		return "", err
	}

	var d chatDTO
	// Some deployments answer with plain text on success; tolerate that
	// only as a failure to find an id.
	_ = json.Unmarshal(raw, &d)
	id := d.id()
	if id == "" {
		return "", errors.New("create chat: response has no id/chatId")
	}
	return id, nil
}

// DeleteChat removes a chat and its messages.
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/chats/"+url.PathEscape(chatID), nil)
	return err
}

// ListMessages loads a chat's history. Records without a sender or text
// are dropped.
func (c *Client) ListMessages(ctx context.Context, chatID string) ([]Message, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/chats/"+url.PathEscape(chatID)+"/messages", nil)
	if err != nil {
		return nil, err
	}

	var dtos []messageDTO
	if err := json.Unmarshal(raw, &dtos); err != nil {
		return nil, fmt.Errorf("list messages: decode response: %w", err)
	}

	msgs := make([]Message, 0, len(dtos))
	for _, d := range dtos {
		if d.sender() == "" || d.text() == "" {
			continue
		}
		msgs = append(msgs, Message{
			Sender:    d.sender(),
			Text:      d.text(),
			CreatedAt: parseTime(d.CreatedAt, d.CreatedAtSnake),
		})
	}
	return msgs, nil
}

type saveMessageReq struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

// SaveMessage persists one side of an exchange. Only the status matters
// to callers; the response body is ignored.
func (c *Client) SaveMessage(ctx context.Context, chatID, sender, text string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/chats/"+url.PathEscape(chatID)+"/messages",
		saveMessageReq{Sender: sender, Content: text})
	return err
}
