package backend

import "time"

// ChatSummary is one sidebar entry. The id is the backend's opaque chat
// id and the only correlation key between the displayed thread and the
// server-persisted messages.
type ChatSummary struct {
	ID        string
	Title     string
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// ActivityTime is the timestamp the sidebar sorts by: last update,
// falling back to creation, falling back to the epoch.
func (c ChatSummary) ActivityTime() time.Time {
	if c.UpdatedAt != nil {
		return *c.UpdatedAt
	}
	if c.CreatedAt != nil {
		return *c.CreatedAt
	}
	return time.Unix(0, 0)
}

// Message is one side of an exchange as the backend stores it.
type Message struct {
	Sender    string
	Text      string
	CreatedAt *time.Time
}

// LoginResult is the subset of the login response the client keeps.
type LoginResult struct {
	Token     string
	FirstName string
	LastName  string
	Email     string
}

// chatDTO tolerates both field spellings the backend has been observed
// to emit. CamelCase wins when both are present.
type chatDTO struct {
	ID        string `json:"id"`
	ChatID    string `json:"chatId"`
	Title     string `json:"title"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`

	CreatedAtSnake string `json:"created_at"`
	UpdatedAtSnake string `json:"updated_at"`
}

func (d chatDTO) id() string {
	if d.ID != "" {
		return d.ID
	}
	return d.ChatID
}

type messageDTO struct {
	Sender    string `json:"sender"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`

	CreatedAtSnake string `json:"created_at"`
}

func (d messageDTO) sender() string {
	if d.Sender != "" {
		return d.Sender
	}
	return d.Role
}

func (d messageDTO) text() string {
	if d.Content != "" {
		return d.Content
	}
	return d.Text
}

// timeFormats are tried in order when parsing backend timestamps. The
// Spring backend serializes them as strings without a fixed format
// promise, so unparseable values simply become nil.
var timeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(camel, snake string) *time.Time {
	s := camel
	if s == "" {
		s = snake
	}
	if s == "" {
		return nil
	}
	for _, layout := range timeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
