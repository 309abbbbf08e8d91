package usecase

import (
	"sort"
	"strings"

	"github.com/daxmodi1/ShikshaMitra/internal/core/domain"
)

const (
	// Reciprocal-rank constant. 60 is the conventional value; nothing in the
	// corpus is sensitive to it as long as it stays fixed.
	fusionRRFC = 60

	lexicalWeight  = 0.5
	semanticWeight = 0.5
)

type fusedCandidate struct {
	doc    domain.SourceDocument
	origin domain.RetrieverOrigin
	score  float64
}

// fuseRankedLists merges the two retrievers' outputs with weighted
// reciprocal-rank fusion. Documents are identified by text; ties keep
// first-encounter order, the lexical list scanned before the semantic one,
// so output is deterministic for fixed inputs.
func fuseRankedLists(lexical, semantic []domain.SourceDocument) []domain.RetrievalHit {
	acc := make(map[string]*fusedCandidate, len(lexical)+len(semantic))
	order := make([]string, 0, len(lexical)+len(semantic))

	addList := func(docs []domain.SourceDocument, weight float64, origin domain.RetrieverOrigin) {
		for rank, doc := range docs {
			candidate, seen := acc[doc.Text]
			if !seen {
				candidate = &fusedCandidate{doc: doc, origin: origin}
				acc[doc.Text] = candidate
				order = append(order, doc.Text)
			}
			candidate.score += weight / float64(rank+1+fusionRRFC)
			candidate.doc = preferRicherDocument(candidate.doc, doc)
		}
	}

	addList(lexical, lexicalWeight, domain.OriginLexical)
	addList(semantic, semanticWeight, domain.OriginSemantic)

	keys := make([]string, len(order))
	copy(keys, order)
	sort.SliceStable(keys, func(i, j int) bool {
		return acc[keys[i]].score > acc[keys[j]].score
	})

	out := make([]domain.RetrievalHit, 0, len(keys))
	for i, key := range keys {
		candidate := acc[key]
		out = append(out, domain.RetrievalHit{
			Text:     candidate.doc.Text,
			Metadata: candidate.doc.Metadata,
			Rank:     i + 1,
			Origin:   candidate.origin,
			Score:    candidate.score,
		})
	}
	return out
}

func preferRicherDocument(current, candidate domain.SourceDocument) domain.SourceDocument {
	if current.ID == "" && candidate.ID != "" {
		current.ID = candidate.ID
	}
	if len(current.Metadata) == 0 && len(candidate.Metadata) > 0 {
		current.Metadata = candidate.Metadata
	}
	return current
}

// fallbackKeywords extracts the candidate queries for the keyword retry:
// tokens longer than 3 characters, original query order.
func fallbackKeywords(query string) []string {
	fields := strings.Fields(query)
	out := make([]string, 0, len(fields))
	for _, token := range fields {
		if len([]rune(token)) > 3 {
			out = append(out, token)
		}
	}
	return out
}
