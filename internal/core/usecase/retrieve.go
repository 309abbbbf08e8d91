package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/daxmodi1/ShikshaMitra/internal/core/domain"
	"github.com/daxmodi1/ShikshaMitra/internal/core/ports"
)

const (
	defaultLexicalK  = 3
	defaultSemanticK = 3
)

// HybridRetriever fuses lexical and semantic search into one ranked result
// set, retrying with single keywords when the full query scores nothing.
type HybridRetriever struct {
	lexical   ports.LexicalIndex
	embedder  ports.Embedder
	vector    ports.VectorIndex
	lexicalK  int
	semanticK int
}

func NewHybridRetriever(lexical ports.LexicalIndex, embedder ports.Embedder, vector ports.VectorIndex) *HybridRetriever {
	return &HybridRetriever{
		lexical:   lexical,
		embedder:  embedder,
		vector:    vector,
		lexicalK:  defaultLexicalK,
		semanticK: defaultSemanticK,
	}
}

// SetLimits overrides the per-arm candidate counts. Zero or negative values
// keep the defaults.
func (r *HybridRetriever) SetLimits(lexicalK, semanticK int) {
	if lexicalK > 0 {
		r.lexicalK = lexicalK
	}
	if semanticK > 0 {
		r.semanticK = semanticK
	}
}

// Retrieve runs the full fusion procedure. Collaborator failures degrade to an
// empty channel rather than failing the request; the only returned error is
// context cancellation, so a cancelled request never reaches the record step.
func (r *HybridRetriever) Retrieve(ctx context.Context, query string) (domain.RetrievalResult, error) {
	hits, err := r.fuseOnce(ctx, query)
	if err != nil {
		return domain.RetrievalResult{}, err
	}
	if len(hits) > 0 {
		return domain.RetrievalResult{Hits: hits}, nil
	}

	if r.lexical.Size() == 0 {
		return domain.RetrievalResult{}, nil
	}

	for _, keyword := range fallbackKeywords(query) {
		hits, err = r.fuseOnce(ctx, keyword)
		if err != nil {
			return domain.RetrievalResult{}, err
		}
		if len(hits) > 0 {
			return domain.RetrievalResult{Hits: hits, FallbackUsed: true}, nil
		}
	}
	return domain.RetrievalResult{}, nil
}

func (r *HybridRetriever) fuseOnce(ctx context.Context, query string) ([]domain.RetrievalHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lexicalDocs := r.lexical.Search(query, r.lexicalK)

	var semanticDocs []domain.SourceDocument
	queryVector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("embed_query_failed", "error", err)
	} else {
		semanticDocs, err = r.vector.Search(ctx, queryVector, r.semanticK)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("semantic_search_failed", "error", err)
			semanticDocs = nil
		}
	}

	return fuseRankedLists(lexicalDocs, semanticDocs), nil
}

// IndexRefresher rebuilds the lexical index from the vector collaborator's
// corpus snapshot. Ingestion is single-writer, so rebuilds never race each
// other; readers swap atomically inside the index.
type IndexRefresher struct {
	lexical ports.LexicalIndex
	vector  ports.VectorIndex
}

func NewIndexRefresher(lexical ports.LexicalIndex, vector ports.VectorIndex) *IndexRefresher {
	return &IndexRefresher{lexical: lexical, vector: vector}
}

func (r *IndexRefresher) Refresh(ctx context.Context) error {
	docs, err := r.vector.All(ctx)
	if err != nil {
		return fmt.Errorf("load corpus snapshot: %w", err)
	}
	r.lexical.Rebuild(docs)
	return nil
}
