package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/daxmodi1/ShikshaMitra/internal/core/domain"
)

type extractorFake struct {
	text string
	err  error
}

func (f *extractorFake) Extract(context.Context, *domain.Document) (string, error) {
	return f.text, f.err
}

type chunkerFake struct{ size int }

func (f *chunkerFake) Split(text string) []string {
	if f.size <= 0 {
		f.size = 40
	}
	var chunks []string
	for len(text) > f.size {
		chunks = append(chunks, text[:f.size])
		text = text[f.size:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

type countingVectorIndex struct {
	inserted int
	addErr   error
	short    bool
}

func (f *countingVectorIndex) Add(_ context.Context, _ *domain.Document, chunks []string, _ [][]float32) (int, error) {
	if f.addErr != nil {
		return 0, f.addErr
	}
	n := len(chunks)
	if f.short {
		n--
	}
	f.inserted += n
	return n, nil
}

func (f *countingVectorIndex) Search(context.Context, []float32, int) ([]domain.SourceDocument, error) {
	return nil, nil
}

func (f *countingVectorIndex) All(context.Context) ([]domain.SourceDocument, error) {
	return nil, nil
}

func seedDocument(repo *documentRepoFake) *domain.Document {
	doc := &domain.Document{
		ID:          "doc-1",
		Filename:    "ncert.pdf",
		StoragePath: "doc-1_ncert.pdf",
		Status:      domain.StatusUploaded,
	}
	repo.byID[doc.ID] = doc
	return doc
}

func TestProcessByIDHappyPath(t *testing.T) {
	repo := newDocumentRepoFake()
	seedDocument(repo)
	vector := &countingVectorIndex{}
	queue := &messageQueueFake{}
	uc := NewProcessDocumentUseCase(repo, &extractorFake{text: strings.Repeat("counting with pebbles. ", 10)}, &chunkerFake{}, &embedderFake{}, vector, queue)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if repo.byID["doc-1"].Status != domain.StatusReady {
		t.Fatalf("expected ready status, got %q", repo.byID["doc-1"].Status)
	}
	if vector.inserted == 0 {
		t.Fatalf("expected chunks indexed")
	}
	if len(queue.indexed) != 1 || queue.indexed[0] != "doc-1" {
		t.Fatalf("index update event not published, got %v", queue.indexed)
	}
}

func TestProcessByIDEmptyTextFails(t *testing.T) {
	repo := newDocumentRepoFake()
	seedDocument(repo)
	uc := NewProcessDocumentUseCase(repo, &extractorFake{text: ""}, &chunkerFake{}, &embedderFake{}, &countingVectorIndex{}, &messageQueueFake{})

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if repo.byID["doc-1"].Status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %q", repo.byID["doc-1"].Status)
	}
	if repo.byID["doc-1"].Error == "" {
		t.Fatalf("expected failure reason recorded")
	}
}

func TestProcessByIDUnknownDocument(t *testing.T) {
	repo := newDocumentRepoFake()
	uc := NewProcessDocumentUseCase(repo, &extractorFake{}, &chunkerFake{}, &embedderFake{}, &countingVectorIndex{}, &messageQueueFake{})

	err := uc.ProcessByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestProcessByIDEmbedFailureMarksFailed(t *testing.T) {
	repo := newDocumentRepoFake()
	seedDocument(repo)
	uc := NewProcessDocumentUseCase(repo, &extractorFake{text: "counting"}, &chunkerFake{}, &embedderFake{err: errors.New("model offline")}, &countingVectorIndex{}, &messageQueueFake{})

	if err := uc.ProcessByID(context.Background(), "doc-1"); err == nil {
		t.Fatalf("expected embed error")
	}
	if repo.byID["doc-1"].Status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %q", repo.byID["doc-1"].Status)
	}
}

func TestProcessByIDPartialInsertFails(t *testing.T) {
	repo := newDocumentRepoFake()
	seedDocument(repo)
	vector := &countingVectorIndex{short: true}
	uc := NewProcessDocumentUseCase(repo, &extractorFake{text: strings.Repeat("x", 100)}, &chunkerFake{}, &embedderFake{}, vector, &messageQueueFake{})

	if err := uc.ProcessByID(context.Background(), "doc-1"); err == nil {
		t.Fatalf("expected partial insert error")
	}
	if repo.byID["doc-1"].Status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %q", repo.byID["doc-1"].Status)
	}
}
