package config

import "testing"

func TestLoadRetrievalDefaults(t *testing.T) {
	t.Setenv("RETRIEVAL_LEXICAL_K", "")
	t.Setenv("RETRIEVAL_SEMANTIC_K", "")
	t.Setenv("SESSION_CAPACITY", "")

	cfg := Load()
	if cfg.RetrievalLexicalK != 3 {
		t.Fatalf("expected default lexical k 3, got %d", cfg.RetrievalLexicalK)
	}
	if cfg.RetrievalSemanticK != 3 {
		t.Fatalf("expected default semantic k 3, got %d", cfg.RetrievalSemanticK)
	}
	if cfg.SessionCapacity != 10 {
		t.Fatalf("expected default session capacity 10, got %d", cfg.SessionCapacity)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("RETRIEVAL_LEXICAL_K", "5")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("NATS_INDEX_SUBJECT", "custom.indexed")

	cfg := Load()
	if cfg.RetrievalLexicalK != 5 {
		t.Fatalf("expected lexical k override, got %d", cfg.RetrievalLexicalK)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit override, got %v", cfg.RateLimitRPS)
	}
	if cfg.NATSIndexSubject != "custom.indexed" {
		t.Fatalf("expected index subject override, got %q", cfg.NATSIndexSubject)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "not-a-number")
	t.Setenv("RATE_LIMIT_RPS", "nope")

	cfg := Load()
	if cfg.ChunkSize != 900 {
		t.Fatalf("expected fallback chunk size, got %d", cfg.ChunkSize)
	}
	if cfg.RateLimitRPS != 10 {
		t.Fatalf("expected fallback rps, got %v", cfg.RateLimitRPS)
	}
}
