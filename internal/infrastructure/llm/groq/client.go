package groq

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/daxmodi1/ShikshaMitra/internal/core/domain"
	"github.com/daxmodi1/ShikshaMitra/internal/infrastructure/resilience"
)

// Client talks to the Groq OpenAI-compatible API: chat completions for
// answers, embeddings for indexing and Whisper for voice transcription.
type Client struct {
	baseURL      string
	apiKey       string
	genModel     string
	embedModel   string
	whisperModel string
	httpClient   *http.Client
	executor     *resilience.Executor
}

type Options struct {
	BaseURL      string
	APIKey       string
	GenModel     string
	EmbedModel   string
	WhisperModel string
	Executor     *resilience.Executor
}

func New(options Options) *Client {
	return &Client{
		baseURL:      strings.TrimRight(options.BaseURL, "/"),
		apiKey:       options.APIKey,
		genModel:     options.GenModel,
		embedModel:   options.EmbedModel,
		whisperModel: options.WhisperModel,
		httpClient:   &http.Client{Timeout: 120 * time.Second},
		executor:     options.Executor,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator implements the generation port over chat completions. The model
// is asked for a JSON object; the caller validates the contract.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Complete(ctx context.Context, systemContext string, turns []domain.Turn, userQuery string) (string, error) {
	messages := make([]chatMessage, 0, len(turns)+2)
	messages = append(messages, chatMessage{Role: "system", Content: systemContext})
	for _, turn := range turns {
		messages = append(messages, chatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, chatMessage{Role: domain.RoleUser, Content: userQuery})

	request := map[string]any{
		"model":           g.client.genModel,
		"messages":        messages,
		"temperature":     0.2,
		"response_format": map[string]string{"type": "json_object"},
	}

	var response struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	err := g.client.execute(ctx, "groq.chat", func(ctx context.Context) error {
		return g.client.postJSON(ctx, "/chat/completions", request, &response, "chat completion")
	})
	if err != nil {
		return "", wrapTemporaryIfNeeded("chat completion", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// Embedder implements the embedding port.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	err := e.client.execute(ctx, "groq.embed", func(ctx context.Context) error {
		return e.client.postJSON(ctx, "/embeddings", request, &response, "embed")
	})
	if err != nil {
		return nil, wrapTemporaryIfNeeded("embed", err)
	}
	if len(response.Data) != len(texts) {
		return nil, fmt.Errorf("embed returned %d vectors for %d inputs", len(response.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, item := range response.Data {
		if item.Index < 0 || item.Index >= len(out) {
			return nil, fmt.Errorf("embed returned out-of-range index %d", item.Index)
		}
		out[item.Index] = item.Embedding
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

// Transcriber implements the transcription port over the Whisper endpoint.
type Transcriber struct {
	client *Client
}

func NewTranscriber(client *Client) *Transcriber {
	return &Transcriber{client: client}
}

func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("empty audio payload")
	}
	if filename == "" {
		filename = "audio.wav"
	}

	var response struct {
		Text string `json:"text"`
	}
	err := t.client.execute(ctx, "groq.transcribe", func(ctx context.Context) error {
		return t.client.postMultipart(ctx, "/audio/transcriptions", audio, filename, &response)
	})
	if err != nil {
		return "", wrapTemporaryIfNeeded("transcribe", err)
	}
	return strings.TrimSpace(response.Text), nil
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.executor == nil {
		return fn(ctx)
	}
	return c.executor.Execute(ctx, operation, fn, classifyGroqError)
}
