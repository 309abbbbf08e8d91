package ports

import (
	"context"
	"io"

	"github.com/daxmodi1/ShikshaMitra/internal/core/domain"
)

// AssistantService is the inbound contract for answering teacher queries.
type AssistantService interface {
	AnswerText(ctx context.Context, sessionID, teacherID, query, sourceType string) (*domain.AssistantResponse, error)
	AnswerVoice(ctx context.Context, sessionID, teacherID string, audio []byte, filename string) (*domain.AssistantResponse, error)
	ResetSession(ctx context.Context, sessionID string) error
}

// DocumentIngestor is the inbound contract for curriculum upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}
