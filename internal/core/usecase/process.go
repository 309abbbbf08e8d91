package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/daxmodi1/ShikshaMitra/internal/core/domain"
	"github.com/daxmodi1/ShikshaMitra/internal/core/ports"
)

// ProcessDocumentUseCase turns an uploaded curriculum source into indexed
// chunks, then announces the index change so every lexical index can rebuild.
type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	vector    ports.VectorIndex
	queue     ports.MessageQueue

	// OnIndexed, when set, observes how many chunks each document produced.
	OnIndexed func(documentID string, chunks int)
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	vector ports.VectorIndex,
	queue ports.MessageQueue,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:      repo,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		vector:    vector,
		queue:     queue,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	if err := uc.processPipeline(ctx, documentID); err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	if err := uc.queue.PublishIndexUpdated(ctx, documentID); err != nil {
		return fmt.Errorf("publish index update: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}

	chunks := uc.chunker.Split(text)
	if len(chunks) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}

	vectors, err := uc.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}

	inserted, err := uc.vector.Add(ctx, doc, chunks, vectors)
	if err != nil {
		return fmt.Errorf("index chunks in vector db: %w", err)
	}
	if inserted != len(chunks) {
		return fmt.Errorf("vector index inserted %d of %d chunks", inserted, len(chunks))
	}

	if uc.OnIndexed != nil {
		uc.OnIndexed(documentID, inserted)
	}
	return nil
}
