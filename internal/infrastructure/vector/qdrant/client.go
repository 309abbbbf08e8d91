package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/daxmodi1/ShikshaMitra/internal/core/domain"
)

const scrollPageSize = 256

// Client talks to a qdrant instance over its HTTP API. It implements the
// vector index port: chunk upserts, similarity search and full-corpus scroll.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Add upserts the document's chunks with their vectors and returns the number
// of points written.
func (c *Client) Add(ctx context.Context, doc *domain.Document, chunks []string, vectors [][]float32) (int, error) {
	if len(chunks) == 0 || len(vectors) == 0 {
		return 0, nil
	}
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("chunks/vectors mismatch")
	}

	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return 0, err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(chunks))
	for i := range chunks {
		points = append(points, point{
			ID:     uuid.NewString(),
			Vector: vectors[i],
			Payload: map[string]any{
				"doc_id":      doc.ID,
				"filename":    doc.Filename,
				"source":      doc.Source,
				"chunk_index": i,
				"text":        chunks[i],
			},
		})
	}

	body, err := json.Marshal(map[string]any{"points": points})
	if err != nil {
		return 0, fmt.Errorf("marshal upsert body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("qdrant upsert request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("qdrant upsert status: %s", resp.Status)
	}
	return len(points), nil
}

// Search runs a cosine similarity search and maps payloads back to source
// documents, best match first.
func (c *Client) Search(ctx context.Context, queryVector []float32, limit int) ([]domain.SourceDocument, error) {
	body, err := json.Marshal(map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant search status: %s", resp.Status)
	}

	var searchResp struct {
		Result []struct {
			ID      any            `json:"id"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.SourceDocument, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, payloadToSourceDocument(r.ID, r.Payload))
	}
	return out, nil
}

// All scrolls the full collection and returns every stored chunk as a source
// document. Used to rebuild the lexical index after ingestion.
func (c *Client) All(ctx context.Context) ([]domain.SourceDocument, error) {
	var out []domain.SourceDocument
	var offset any

	for {
		reqBody := map[string]any{
			"limit":        scrollPageSize,
			"with_payload": true,
		}
		if offset != nil {
			reqBody["offset"] = offset
		}
		body, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("marshal scroll body: %w", err)
		}

		url := fmt.Sprintf("%s/collections/%s/points/scroll", c.baseURL, c.collection)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create scroll request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("qdrant scroll request: %w", err)
		}

		if resp.StatusCode == http.StatusNotFound {
			// Collection not created yet: an empty corpus, not an error.
			resp.Body.Close()
			return nil, nil
		}
		if resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("qdrant scroll status: %s", resp.Status)
		}

		var scrollResp struct {
			Result struct {
				Points []struct {
					ID      any            `json:"id"`
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		err = json.NewDecoder(resp.Body).Decode(&scrollResp)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode scroll response: %w", err)
		}

		for _, p := range scrollResp.Result.Points {
			out = append(out, payloadToSourceDocument(p.ID, p.Payload))
		}
		if scrollResp.Result.NextPageOffset == nil {
			return out, nil
		}
		offset = scrollResp.Result.NextPageOffset
	}
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	body, err := json.Marshal(map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	})
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection request: %w", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 if already exists (depends on version/config).
	if resp.StatusCode == http.StatusConflict {
		c.markCollectionEnsured(vectorSize)
		return nil
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return fmt.Errorf("qdrant ensure collection status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("qdrant ensure collection status: %s", resp.Status)
	}
	c.markCollectionEnsured(vectorSize)
	return nil
}

func (c *Client) markCollectionEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}

func payloadToSourceDocument(id any, payload map[string]any) domain.SourceDocument {
	return domain.SourceDocument{
		ID:   fmt.Sprintf("%v", id),
		Text: getStringPayload(payload, "text"),
		Metadata: map[string]string{
			"doc_id":      getStringPayload(payload, "doc_id"),
			"filename":    getStringPayload(payload, "filename"),
			"source":      getStringPayload(payload, "source"),
			"chunk_index": getStringPayload(payload, "chunk_index"),
		},
	}
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
