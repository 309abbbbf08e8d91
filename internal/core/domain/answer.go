package domain

import "time"

// AnswerContract is the structured payload required from the generation step.
type AnswerContract struct {
	Answer    string   `json:"answer"`
	Topic     string   `json:"topic"`
	Sentiment string   `json:"sentiment"`
	Language  string   `json:"language"`
	Actions   []string `json:"actions"`
}

const fallbackAnswerText = "Sorry, I could not generate a proper answer right now. Please try rephrasing your question."

// FallbackAnswerContract is returned whenever the generation collaborator
// errors or produces unparseable output. It is deterministic so that a
// degraded response is still a complete one.
func FallbackAnswerContract() AnswerContract {
	return AnswerContract{
		Answer:    fallbackAnswerText,
		Topic:     "Error",
		Sentiment: "Neutral",
		Language:  "Unknown",
		Actions:   []string{},
	}
}

// IsFallback reports whether the contract is the deterministic fallback.
func (c AnswerContract) IsFallback() bool {
	return c.Answer == fallbackAnswerText && c.Topic == "Error"
}

const (
	SourceTypeText  = "text"
	SourceTypeVoice = "voice"
)

// AssistantResponse is the orchestrator's end-to-end result for one query.
type AssistantResponse struct {
	SessionID    string         `json:"session_id"`
	Answer       AnswerContract `json:"answer"`
	Sources      []RetrievalHit `json:"sources"`
	FallbackUsed bool           `json:"fallback_used"`
	NoContext    bool           `json:"no_context"`
}

// Exchange is one finished question/answer pair handed to the persistence
// collaborator. The engine does not depend on its durability.
type Exchange struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	TeacherID  string    `json:"teacher_id"`
	Query      string    `json:"query"`
	Answer     string    `json:"answer"`
	Topic      string    `json:"topic"`
	Sentiment  string    `json:"sentiment"`
	Language   string    `json:"language"`
	SourceType string    `json:"source_type"`
	CreatedAt  time.Time `json:"created_at"`
}
