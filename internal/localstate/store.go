// Package localstate persists the signed-in identity and the active chat
// id in a small sqlite file. Reads are best-effort: a missing or broken
// record yields the zero answer instead of an error, so callers treat
// "no identity" and "unreadable identity" the same way.
package localstate

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the state database at path and runs
// the schema migration.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		return nil, err
	}
	return NewStore(db)
}

// NewStore wraps an already-open gorm handle (tests use an in-memory one).
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Identity{}, &SessionState{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Identity returns the stored identity, or nil when none is stored or
// the record cannot be read.
func (s *Store) Identity() *Identity {
	var id Identity
	if err := s.db.First(&id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("localstate: read identity: %v", err)
		}
		return nil
	}
	return &id
}

// Token returns the stored bearer token, or "" when there is none or it
// has expired. An expired token is as good as no token: the backend
// would reject it anyway, and callers surface that as a login prompt
// instead of a failed request.
func (s *Store) Token() string {
	id := s.Identity()
	if id == nil || id.Token == "" {
		return ""
	}
	if tokenExpired(id.Token) {
		log.Printf("localstate: stored token is expired")
		return ""
	}
	return id.Token
}

// AuthHeader returns the Authorization header for the stored token, or
// an empty header set when no usable token exists.
func (s *Store) AuthHeader() http.Header {
	h := http.Header{}
	if t := s.Token(); t != "" {
		h.Set("Authorization", "Bearer "+t)
	}
	return h
}

// SaveIdentity replaces the stored identity with id.
func (s *Store) SaveIdentity(id *Identity) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&Identity{}).Error; err != nil {
			return err
		}
		id.ID = 0
		return tx.Create(id).Error
	})
}

// ClearIdentity removes the stored identity (logout).
func (s *Store) ClearIdentity() error {
	return s.db.Where("1 = 1").Delete(&Identity{}).Error
}

// ActiveChat returns the remembered active chat id, or "".
func (s *Store) ActiveChat() string {
	var st SessionState
	if err := s.db.First(&st, "id = ?", 1).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("localstate: read session state: %v", err)
		}
		return ""
	}
	return st.ActiveChatID
}

// SetActiveChat remembers id as the active chat.
func (s *Store) SetActiveChat(id string) error {
	st := SessionState{ID: 1, ActiveChatID: id, UpdatedAt: time.Now()}
	return s.db.Save(&st).Error
}

// ClearActiveChat forgets the active chat id.
func (s *Store) ClearActiveChat() error {
	return s.SetActiveChat("")
}

// tokenExpired reports whether token carries an exp claim in the past.
// The signature is not checked (the client has no key material); a token
// that does not parse at all is kept and left for the backend to judge.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
