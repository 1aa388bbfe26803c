// Package webhook talks to the external n8n workflow that generates
// bot replies, and decodes its loosely shaped responses.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fallback strings shown in the thread. The wording is part of the
// product surface, do not rephrase.
const (
	// NoAnswerText replaces a reply the decoder could not extract.
	NoAnswerText = "Entschuldigung, ich konnte nicht helfen."
	// ErrorText replaces the reply when the webhook call itself fails.
	ErrorText = "Technischer Fehler beim Bot. Bitte später erneut versuchen."
)

type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type askReq struct {
	ChatInput string `json:"chatInput"`
	SessionID string `json:"sessionId"`
}

// Ask posts the raw user text and the per-session correlation token to
// the workflow and returns the raw response body. The sessionId keys
// the workflow's conversation memory, so multi-turn context only works
// while the token stays stable.
func (c *Client) Ask(ctx context.Context, chatInput, sessionID string) ([]byte, error) {
	if c.url == "" {
		return nil, errors.New("webhook: no url configured")
	}

	b, err := json.Marshal(askReq{ChatInput: chatInput, SessionID: sessionID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

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
		return nil, fmt.Errorf("webhook: status %d: %s", resp.StatusCode, raw)
	}
	return raw, nil
}
