package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAskPostsCorrelationToken(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		fmt.Fprint(w, `{"output":"Antwort"}`)
	}))
	defer srv.Close()

	raw, err := NewClient(srv.URL, time.Second).Ask(context.Background(), "Wann ist die Rückmeldefrist?", "sess-1")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if got["chatInput"] != "Wann ist die Rückmeldefrist?" || got["sessionId"] != "sess-1" {
		t.Fatalf("unexpected request body: %+v", got)
	}
	if s, ok := ExtractText(raw); !ok || s != "Antwort" {
		t.Fatalf("unexpected reply: %q, %v", s, ok)
	}
}

func TestAskNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, time.Second).Ask(context.Background(), "hi", "s"); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestAskNoURLConfigured(t *testing.T) {
	if _, err := NewClient("", time.Second).Ask(context.Background(), "hi", "s"); err == nil {
		t.Fatalf("expected error without url")
	}
}
