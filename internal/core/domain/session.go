package domain

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultSessionCapacity bounds per-session history to 10 turns (5 exchanges).
const DefaultSessionCapacity = 10

// Turn is one message within a session's history. Turns are append-only and
// never edited after creation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
