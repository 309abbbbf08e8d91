package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/daxmodi1/ShikshaMitra/internal/core/domain"
	"github.com/daxmodi1/ShikshaMitra/internal/core/ports"
)

// AssistantUseCase composes rewrite, hybrid retrieval, generation, contract
// validation and session memory into the end-to-end answer operation.
type AssistantUseCase struct {
	retriever   *HybridRetriever
	generator   ports.Generator
	transcriber ports.Transcriber
	memory      ports.SessionMemory
	exchanges   ports.ExchangeStore
	teachers    ports.TeacherDirectory
}

func NewAssistantUseCase(
	retriever *HybridRetriever,
	generator ports.Generator,
	transcriber ports.Transcriber,
	memory ports.SessionMemory,
	exchanges ports.ExchangeStore,
	teachers ports.TeacherDirectory,
) *AssistantUseCase {
	return &AssistantUseCase{
		retriever:   retriever,
		generator:   generator,
		transcriber: transcriber,
		memory:      memory,
		exchanges:   exchanges,
		teachers:    teachers,
	}
}

func (uc *AssistantUseCase) AnswerText(ctx context.Context, sessionID, teacherID, query, sourceType string) (*domain.AssistantResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer query", fmt.Errorf("query is required"))
	}
	if sessionID = strings.TrimSpace(sessionID); sessionID == "" {
		sessionID = uuid.NewString()
	}
	if sourceType == "" {
		sourceType = domain.SourceTypeText
	}

	history := uc.memory.History(sessionID)
	retrievalQuery := rewriteRetrievalQuery(query, history)

	retrieval, err := uc.retriever.Retrieve(ctx, retrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("hybrid retrieval: %w", err)
	}

	profile := uc.lookupProfile(ctx, teacherID)
	systemContext := buildSystemContext(renderContextBlock(retrieval.Hits), profile, history)

	raw, genErr := uc.generator.Complete(ctx, systemContext, history, query)
	if ctx.Err() != nil {
		// Cancelled before the record step: leave memory untouched.
		return nil, ctx.Err()
	}

	contract := domain.FallbackAnswerContract()
	if genErr != nil {
		slog.Warn("generation_failed", "session_id", sessionID, "error", genErr)
	} else if parsed, parseErr := parseAnswerContract(raw); parseErr != nil {
		slog.Warn("answer_contract_invalid", "session_id", sessionID, "error", parseErr)
	} else {
		contract = parsed
	}

	// Record only after generation completed (or fell back), so a crash
	// mid-pipeline never stores a half-formed exchange.
	uc.memory.AppendExchange(sessionID, query, contract.Answer)

	uc.saveExchange(ctx, sessionID, teacherID, query, sourceType, contract)

	return &domain.AssistantResponse{
		SessionID:    sessionID,
		Answer:       contract,
		Sources:      retrieval.Hits,
		FallbackUsed: retrieval.FallbackUsed,
		NoContext:    len(retrieval.Hits) == 0,
	}, nil
}

func (uc *AssistantUseCase) AnswerVoice(ctx context.Context, sessionID, teacherID string, audio []byte, filename string) (*domain.AssistantResponse, error) {
	if len(audio) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer voice", fmt.Errorf("audio payload is empty"))
	}

	text, err := uc.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTranscription, "transcribe audio", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrTranscription, "transcribe audio", fmt.Errorf("empty transcript"))
	}

	return uc.AnswerText(ctx, sessionID, teacherID, text, domain.SourceTypeVoice)
}

// ResetSession starts a new conversation for the session id without
// destroying the session identity.
func (uc *AssistantUseCase) ResetSession(_ context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "reset session", fmt.Errorf("session id is required"))
	}
	uc.memory.Clear(sessionID)
	return nil
}

func (uc *AssistantUseCase) lookupProfile(ctx context.Context, teacherID string) *domain.TeacherProfile {
	if uc.teachers == nil || strings.TrimSpace(teacherID) == "" {
		return nil
	}
	profile, err := uc.teachers.GetProfile(ctx, teacherID)
	if err != nil {
		slog.Warn("teacher_profile_lookup_failed", "teacher_id", teacherID, "error", err)
		return nil
	}
	return profile
}

func (uc *AssistantUseCase) saveExchange(ctx context.Context, sessionID, teacherID, query, sourceType string, contract domain.AnswerContract) {
	if uc.exchanges == nil {
		return
	}
	exchange := domain.Exchange{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		TeacherID:  teacherID,
		Query:      query,
		Answer:     contract.Answer,
		Topic:      contract.Topic,
		Sentiment:  contract.Sentiment,
		Language:   contract.Language,
		SourceType: sourceType,
		CreatedAt:  time.Now().UTC(),
	}
	if err := uc.exchanges.SaveExchange(ctx, exchange); err != nil {
		slog.Warn("save_exchange_failed", "session_id", sessionID, "error", err)
	}
}
