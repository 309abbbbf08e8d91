package lexical

import (
	"math"
	"sort"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/daxmodi1/ShikshaMitra/internal/core/domain"
)

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// Index is an in-process BM25 index over the curriculum corpus. Rebuild swaps
// the whole snapshot atomically; searches running during a rebuild see either
// the old or the new snapshot.
type Index struct {
	snapshot atomic.Pointer[indexSnapshot]
}

type indexSnapshot struct {
	docs      []domain.SourceDocument
	termFreqs []map[string]int
	docLens   []int
	avgDocLen float64
	docFreq   map[string]int
}

func NewIndex() *Index {
	idx := &Index{}
	idx.snapshot.Store(buildSnapshot(nil))
	return idx
}

// Rebuild replaces the index with a fresh snapshot of the corpus.
func (idx *Index) Rebuild(docs []domain.SourceDocument) {
	idx.snapshot.Store(buildSnapshot(docs))
}

// Size reports the number of indexed documents.
func (idx *Index) Size() int {
	return len(idx.snapshot.Load().docs)
}

// Search ranks the corpus by BM25 score against the query and returns up to
// limit matches, best first. Documents that share no term with the query are
// excluded.
func (idx *Index) Search(query string, limit int) []domain.SourceDocument {
	snap := idx.snapshot.Load()
	if len(snap.docs) == 0 || limit <= 0 {
		return nil
	}

	queryTokens := tokenizeAlphaNum(query)
	if len(queryTokens) == 0 {
		return nil
	}

	type scored struct {
		pos   int
		score float64
	}
	candidates := make([]scored, 0, len(snap.docs))
	for pos := range snap.docs {
		score := snap.scoreBM25(pos, queryTokens)
		if score > 0 {
			candidates = append(candidates, scored{pos: pos, score: score})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]domain.SourceDocument, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, snap.docs[c.pos])
	}
	return out
}

func buildSnapshot(docs []domain.SourceDocument) *indexSnapshot {
	snap := &indexSnapshot{
		docs:      docs,
		termFreqs: make([]map[string]int, len(docs)),
		docLens:   make([]int, len(docs)),
		docFreq:   make(map[string]int, 256),
	}

	totalLen := 0
	for pos, doc := range docs {
		tokens := tokenizeAlphaNum(doc.Text)
		tf := make(map[string]int, len(tokens))
		for _, token := range tokens {
			tf[token]++
		}
		snap.termFreqs[pos] = tf
		snap.docLens[pos] = len(tokens)
		totalLen += len(tokens)
		for token := range tf {
			snap.docFreq[token]++
		}
	}
	if len(docs) > 0 {
		snap.avgDocLen = float64(totalLen) / float64(len(docs))
	}
	return snap
}

func (snap *indexSnapshot) scoreBM25(pos int, queryTokens []string) float64 {
	tf := snap.termFreqs[pos]
	docLen := float64(snap.docLens[pos])
	total := float64(len(snap.docs))

	score := 0.0
	for _, token := range queryTokens {
		freq := float64(tf[token])
		if freq == 0 {
			continue
		}
		df := float64(snap.docFreq[token])
		idf := math.Log(1.0 + (total-df+0.5)/(df+0.5))
		norm := 1.0 - bm25B + bm25B*docLen/snap.avgDocLen
		score += idf * (freq * (bm25K1 + 1.0)) / (freq + bm25K1*norm)
	}
	return score
}

func tokenizeAlphaNum(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		// Marks keep Devanagari matras attached so Hindi text tokenizes too.
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
