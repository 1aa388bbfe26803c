// Package chatlist caches the signed-in user's chat list for the
// sidebar. The cache is read-mostly: every mutation anywhere in the
// client ends in a full Refresh against the backend, which is the
// single source of truth for ordering and titles.
package chatlist

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/uniagent/uniagent-tui/internal/backend"
)

type Store struct {
	client *backend.Client
	token  func() string

	mu        sync.Mutex
	chats     []backend.ChatSummary
	listeners []func()
}

// NewStore builds a store over the backend client. token gates
// Refresh: without one the list is simply empty.
func NewStore(client *backend.Client, token func() string) *Store {
	if token == nil {
		token = func() string { return "" }
	}
	return &Store{client: client, token: token}
}

// OnChanged registers fn to run after every replacement of the cached
// list. Callbacks run on the goroutine that caused the change and must
// not call back into the store.
func (s *Store) OnChanged(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Chats returns a copy of the cached list, newest activity first.
func (s *Store) Chats() []backend.ChatSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]backend.ChatSummary(nil), s.chats...)
}

// Refresh replaces the cache from the backend. Without a token, or on
// any fetch failure, the cache resets to empty; failures are logged and
// returned but never retried here.
func (s *Store) Refresh(ctx context.Context) error {
	if s.token() == "" {
		s.replace(nil)
		return nil
	}

	chats, err := s.client.ListChats(ctx)
	if err != nil {
		log.Printf("chatlist: refresh: %v", err)
		s.replace(nil)
		return err
	}

	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].ActivityTime().After(chats[j].ActivityTime())
	})
	s.replace(chats)
	return nil
}

// Remove deletes the chat optimistically: it leaves the cache first and
// the backend second. On delete failure the removed entry is not put
// back; the cache re-syncs from the backend instead.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	kept := s.chats[:0:0]
	for _, c := range s.chats {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.chats = kept
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}

	if err := s.client.DeleteChat(ctx, id); err != nil {
		log.Printf("chatlist: delete %s: %v", id, err)
		if rerr := s.Refresh(ctx); rerr != nil {
			log.Printf("chatlist: reconcile after failed delete: %v", rerr)
		}
		return err
	}
	return nil
}

// Filter returns the cached entries whose title contains q,
// case-insensitively. An empty query matches everything. Purely local,
// no backend round-trip.
func (s *Store) Filter(q string) []backend.ChatSummary {
	q = strings.ToLower(strings.TrimSpace(q))
	all := s.Chats()
	if q == "" {
		return all
	}
	matched := all[:0:0]
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Title), q) {
			matched = append(matched, c)
		}
	}
	return matched
}

func (s *Store) replace(chats []backend.ChatSummary) {
	s.mu.Lock()
	s.chats = chats
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}
