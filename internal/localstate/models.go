package localstate

import (
	"strings"
	"time"
)

// Identity is the signed-in user record, the terminal equivalent of the
// browser's stored "uniagentUser". At most one row exists at a time.
type Identity struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	FirstName string    `gorm:"type:varchar(128)" json:"firstName"`
	LastName  string    `gorm:"type:varchar(128)" json:"lastName"`
	Email     string    `gorm:"type:varchar(255)" json:"email"`
	Token     string    `gorm:"type:text" json:"token"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (Identity) TableName() string { return "identity" }

// FullName joins the non-empty name parts, falling back to "Benutzer".
func (i *Identity) FullName() string {
	if i == nil {
		return "Benutzer"
	}
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(i.FirstName); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(i.LastName); s != "" {
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return "Benutzer"
	}
	return strings.Join(parts, " ")
}

// Initials returns the uppercased first letters of the name parts,
// falling back to "ME".
func (i *Identity) Initials() string {
	if i == nil {
		return "ME"
	}
	var b strings.Builder
	if s := strings.TrimSpace(i.FirstName); s != "" {
		b.WriteString(string([]rune(s)[:1]))
	}
	if s := strings.TrimSpace(i.LastName); s != "" {
		b.WriteString(string([]rune(s)[:1]))
	}
	if b.Len() == 0 {
		return "ME"
	}
	return strings.ToUpper(b.String())
}

// SessionState mirrors the active chat id so a restarted client resumes
// where it left off, like the SPA's per-tab storage surviving a reload.
// Single row, id fixed to 1.
type SessionState struct {
	ID           uint64 `gorm:"primaryKey"`
	ActiveChatID string `gorm:"type:varchar(64)"`
	UpdatedAt    time.Time
}

func (SessionState) TableName() string { return "session_state" }
