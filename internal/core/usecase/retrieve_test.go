package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/daxmodi1/ShikshaMitra/internal/core/domain"
)

type lexicalIndexFake struct {
	corpus  []domain.SourceDocument
	queries []string
}

func (f *lexicalIndexFake) Search(query string, limit int) []domain.SourceDocument {
	f.queries = append(f.queries, query)
	out := make([]domain.SourceDocument, 0, limit)
	for _, doc := range f.corpus {
		if containsAnyToken(doc.Text, query) {
			out = append(out, doc)
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

func (f *lexicalIndexFake) Rebuild(docs []domain.SourceDocument) { f.corpus = docs }
func (f *lexicalIndexFake) Size() int                            { return len(f.corpus) }

func containsAnyToken(text, query string) bool {
	text = strings.ToLower(text)
	for _, token := range strings.Fields(strings.ToLower(query)) {
		if strings.Contains(text, token) {
			return true
		}
	}
	return false
}

type embedderFake struct {
	calls int
	err   error
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

type vectorIndexFake struct {
	results []domain.SourceDocument
	perCall [][]domain.SourceDocument
	err     error
	calls   int
}

func (f *vectorIndexFake) Add(context.Context, *domain.Document, []string, [][]float32) (int, error) {
	return 0, errors.New("not implemented")
}

func (f *vectorIndexFake) Search(context.Context, []float32, int) ([]domain.SourceDocument, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.perCall) > 0 {
		out := f.perCall[0]
		f.perCall = f.perCall[1:]
		return out, nil
	}
	return f.results, nil
}

func (f *vectorIndexFake) All(context.Context) ([]domain.SourceDocument, error) {
	return f.results, nil
}

func TestHybridRetrieverDirectMatch(t *testing.T) {
	lexical := &lexicalIndexFake{corpus: docs(
		"Use pebbles to teach counting. (Grade 1 Math)",
		"Use Think-Pair-Share. (Pedagogy)",
	)}
	vector := &vectorIndexFake{results: docs("Use pebbles to teach counting. (Grade 1 Math)")}
	retriever := NewHybridRetriever(lexical, &embedderFake{}, vector)

	result, err := retriever.Retrieve(context.Background(), "counting method")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if result.FallbackUsed {
		t.Fatalf("direct match must not be flagged as fallback")
	}
	if len(result.Hits) == 0 || result.Hits[0].Text != "Use pebbles to teach counting. (Grade 1 Math)" {
		t.Fatalf("unexpected hits: %+v", result.Hits)
	}
}

func TestHybridRetrieverKeywordFallback(t *testing.T) {
	// The full query scores nothing anywhere; the second keyword retry
	// pulls a semantic neighbour back in.
	lexical := &lexicalIndexFake{corpus: docs("pebbles help with tally drills")}
	vector := &vectorIndexFake{perCall: [][]domain.SourceDocument{
		nil,
		nil,
		docs("pebbles help with tally drills"),
	}}
	retriever := NewHybridRetriever(lexical, &embedderFake{}, vector)

	result, err := retriever.Retrieve(context.Background(), "xyzzy counting")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(result.Hits) != 1 || result.Hits[0].Text != "pebbles help with tally drills" {
		t.Fatalf("expected fallback hit, got %+v", result.Hits)
	}
	if !result.FallbackUsed {
		t.Fatalf("expected fallback flag on keyword retry")
	}
	if got := lexical.queries; len(got) != 3 || got[1] != "xyzzy" || got[2] != "counting" {
		t.Fatalf("expected keyword retries in query order, got %v", got)
	}
}

func TestHybridRetrieverEmptyCorpusSkipsFallback(t *testing.T) {
	lexical := &lexicalIndexFake{}
	embedder := &embedderFake{}
	retriever := NewHybridRetriever(lexical, embedder, &vectorIndexFake{})

	result, err := retriever.Retrieve(context.Background(), "counting methods for children")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(result.Hits) != 0 || result.FallbackUsed {
		t.Fatalf("expected empty result, got %+v", result)
	}
	if embedder.calls != 1 {
		t.Fatalf("expected a single fusion pass on empty corpus, embedder called %d times", embedder.calls)
	}
}

func TestHybridRetrieverNoLongTokensSkipsFallback(t *testing.T) {
	lexical := &lexicalIndexFake{corpus: docs("something entirely unrelated")}
	embedder := &embedderFake{}
	retriever := NewHybridRetriever(lexical, embedder, &vectorIndexFake{})

	result, err := retriever.Retrieve(context.Background(), "a an it")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(result.Hits) != 0 {
		t.Fatalf("expected empty result, got %+v", result.Hits)
	}
	if embedder.calls != 1 {
		t.Fatalf("expected no keyword retries, embedder called %d times", embedder.calls)
	}
}

func TestHybridRetrieverSemanticFailureDegrades(t *testing.T) {
	lexical := &lexicalIndexFake{corpus: docs("counting with pebbles")}
	vector := &vectorIndexFake{err: errors.New("index down")}
	retriever := NewHybridRetriever(lexical, &embedderFake{}, vector)

	result, err := retriever.Retrieve(context.Background(), "counting")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(result.Hits) != 1 {
		t.Fatalf("expected lexical-only hit, got %+v", result.Hits)
	}
}

func TestHybridRetrieverCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	retriever := NewHybridRetriever(&lexicalIndexFake{}, &embedderFake{}, &vectorIndexFake{})
	if _, err := retriever.Retrieve(ctx, "counting"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestIndexRefresherRebuildsFromSnapshot(t *testing.T) {
	lexical := &lexicalIndexFake{}
	vector := &vectorIndexFake{results: docs("a", "b")}
	refresher := NewIndexRefresher(lexical, vector)

	if err := refresher.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if lexical.Size() != 2 {
		t.Fatalf("expected rebuilt corpus of 2, got %d", lexical.Size())
	}
}
