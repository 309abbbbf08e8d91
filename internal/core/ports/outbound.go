package ports

import (
	"context"
	"io"

	"github.com/daxmodi1/ShikshaMitra/internal/core/domain"
)

// SessionMemory holds bounded per-session conversation history. Absence of a
// session is never an error: History returns an empty slice and Append creates
// the session lazily.
type SessionMemory interface {
	History(sessionID string) []domain.Turn
	Append(sessionID, role, content string)
	// AppendExchange records a user turn and the answering assistant turn as
	// one unit, so concurrent requests on the same session can never
	// interleave their pairs.
	AppendExchange(sessionID, userContent, answerContent string)
	Clear(sessionID string)
}

// LexicalIndex ranks the full corpus by term overlap. Rebuild replaces the
// whole index atomically; concurrent searches see either the old or the new
// index, never a partial one.
type LexicalIndex interface {
	Search(query string, limit int) []domain.SourceDocument
	Rebuild(docs []domain.SourceDocument)
	Size() int
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex is the external embedding/index collaborator. All returns the
// corpus snapshot used to rebuild the lexical index after ingestion.
type VectorIndex interface {
	Add(ctx context.Context, doc *domain.Document, chunks []string, vectors [][]float32) (int, error)
	Search(ctx context.Context, queryVector []float32, limit int) ([]domain.SourceDocument, error)
	All(ctx context.Context) ([]domain.SourceDocument, error)
}

// Generator is the external generation collaborator. Complete returns a raw
// text payload expected, but not guaranteed, to encode the answer contract.
type Generator interface {
	Complete(ctx context.Context, systemContext string, turns []domain.Turn, userQuery string) (string, error)
}

// Transcriber converts an audio payload to text, empty string on failure.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// ExchangeStore receives finished exchanges for storage and analytics. The
// engine does not depend on its durability guarantees.
type ExchangeStore interface {
	SaveExchange(ctx context.Context, exchange domain.Exchange) error
	AnalyticsForCRP(ctx context.Context, crpID string) (*domain.CRPAnalytics, error)
}

// TeacherDirectory resolves teacher profiles for prompt context.
type TeacherDirectory interface {
	GetProfile(ctx context.Context, teacherID string) (*domain.TeacherProfile, error)
}

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion and index lifecycle events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
	PublishIndexUpdated(ctx context.Context, documentID string) error
	SubscribeIndexUpdated(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Chunker splits extracted text into ingestible chunks.
type Chunker interface {
	Split(text string) []string
}
