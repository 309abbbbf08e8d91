package domain

// RetrieverOrigin identifies which retrieval channel produced a hit.
type RetrieverOrigin string

const (
	OriginLexical  RetrieverOrigin = "lexical"
	OriginSemantic RetrieverOrigin = "semantic"
)

// SourceDocument is a transient copy of an indexed curriculum document.
// The index collaborators own the canonical copy.
type SourceDocument struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// RetrievalHit is produced per query and never persisted.
type RetrievalHit struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Rank     int               `json:"rank"`
	Origin   RetrieverOrigin   `json:"origin"`
	Score    float64           `json:"score"`
}

// RetrievalResult carries the fused hits plus whether the keyword fallback
// produced them. Fallback hits are anchored to a single query keyword and
// callers must treat them as lower confidence than a direct match.
type RetrievalResult struct {
	Hits         []RetrievalHit `json:"hits"`
	FallbackUsed bool           `json:"fallback_used"`
}
