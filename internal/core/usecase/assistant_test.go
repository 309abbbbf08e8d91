package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/daxmodi1/ShikshaMitra/internal/core/domain"
)

type generatorFake struct {
	raw       string
	err       error
	gotSystem string
	gotTurns  []domain.Turn
	gotQuery  string
	onCall    func()
}

func (f *generatorFake) Complete(_ context.Context, systemContext string, turns []domain.Turn, userQuery string) (string, error) {
	f.gotSystem = systemContext
	f.gotTurns = turns
	f.gotQuery = userQuery
	if f.onCall != nil {
		f.onCall()
	}
	return f.raw, f.err
}

type transcriberFake struct {
	text string
	err  error
}

func (f *transcriberFake) Transcribe(context.Context, []byte, string) (string, error) {
	return f.text, f.err
}

type memoryFake struct {
	mu      sync.Mutex
	turns   map[string][]domain.Turn
	cleared []string
}

func newMemoryFake() *memoryFake {
	return &memoryFake{turns: map[string][]domain.Turn{}}
}

func (f *memoryFake) History(sessionID string) []domain.Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Turn(nil), f.turns[sessionID]...)
}

func (f *memoryFake) Append(sessionID, role, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns[sessionID] = append(f.turns[sessionID], domain.Turn{Role: role, Content: content})
}

func (f *memoryFake) AppendExchange(sessionID, userContent, answerContent string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns[sessionID] = append(f.turns[sessionID],
		domain.Turn{Role: domain.RoleUser, Content: userContent},
		domain.Turn{Role: domain.RoleAssistant, Content: answerContent},
	)
}

func (f *memoryFake) Clear(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.turns, sessionID)
	f.cleared = append(f.cleared, sessionID)
}

type exchangeStoreFake struct {
	saved []domain.Exchange
	err   error
}

func (f *exchangeStoreFake) SaveExchange(_ context.Context, exchange domain.Exchange) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, exchange)
	return nil
}

func (f *exchangeStoreFake) AnalyticsForCRP(context.Context, string) (*domain.CRPAnalytics, error) {
	return nil, errors.New("not implemented")
}

type teacherDirectoryFake struct {
	profile *domain.TeacherProfile
	err     error
}

func (f *teacherDirectoryFake) GetProfile(context.Context, string) (*domain.TeacherProfile, error) {
	return f.profile, f.err
}

func newTestAssistant(gen *generatorFake, trans *transcriberFake, mem *memoryFake, store *exchangeStoreFake, teachers *teacherDirectoryFake) *AssistantUseCase {
	lexical := &lexicalIndexFake{corpus: docs("Use pebbles to teach counting.")}
	vector := &vectorIndexFake{results: docs("Use pebbles to teach counting.")}
	retriever := NewHybridRetriever(lexical, &embedderFake{}, vector)
	return NewAssistantUseCase(retriever, gen, trans, mem, store, teachers)
}

func TestAnswerTextHappyPath(t *testing.T) {
	gen := &generatorFake{raw: `{"answer":"Try pebbles.","topic":"Math","sentiment":"Positive","language":"English"}`}
	mem := newMemoryFake()
	store := &exchangeStoreFake{}
	teachers := &teacherDirectoryFake{profile: &domain.TeacherProfile{Name: "Asha", Grade: "3", Subject: "Math"}}
	uc := newTestAssistant(gen, &transcriberFake{}, mem, store, teachers)

	resp, err := uc.AnswerText(context.Background(), "s1", "t1", "how to teach counting", "")
	if err != nil {
		t.Fatalf("AnswerText() error = %v", err)
	}
	if resp.Answer.Answer != "Try pebbles." || resp.Answer.Topic != "Math" {
		t.Fatalf("unexpected contract: %+v", resp.Answer)
	}
	if resp.Answer.Actions == nil {
		t.Fatalf("actions must be an empty slice, not nil")
	}
	if resp.NoContext {
		t.Fatalf("context was retrieved, NoContext must be false")
	}
	if !strings.Contains(gen.gotSystem, "Asha") {
		t.Fatalf("teacher profile missing from system context:\n%s", gen.gotSystem)
	}
	if !strings.Contains(gen.gotSystem, "Use pebbles to teach counting.") {
		t.Fatalf("retrieved context missing from system context:\n%s", gen.gotSystem)
	}

	turns := mem.History("s1")
	if len(turns) != 2 {
		t.Fatalf("expected user+assistant turns recorded, got %+v", turns)
	}
	if turns[0].Role != domain.RoleUser || turns[0].Content != "how to teach counting" {
		t.Fatalf("unexpected user turn: %+v", turns[0])
	}
	if turns[1].Role != domain.RoleAssistant || turns[1].Content != "Try pebbles." {
		t.Fatalf("unexpected assistant turn: %+v", turns[1])
	}

	if len(store.saved) != 1 {
		t.Fatalf("expected one exchange saved, got %d", len(store.saved))
	}
	saved := store.saved[0]
	if saved.SessionID != "s1" || saved.TeacherID != "t1" || saved.SourceType != domain.SourceTypeText {
		t.Fatalf("unexpected exchange: %+v", saved)
	}
}

func TestAnswerTextEmptyQuery(t *testing.T) {
	uc := newTestAssistant(&generatorFake{}, &transcriberFake{}, newMemoryFake(), &exchangeStoreFake{}, &teacherDirectoryFake{})

	if _, err := uc.AnswerText(context.Background(), "s1", "", "   ", ""); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAnswerTextGeneratesSessionID(t *testing.T) {
	gen := &generatorFake{raw: `{"answer":"ok","topic":"t","sentiment":"s","language":"l"}`}
	mem := newMemoryFake()
	uc := newTestAssistant(gen, &transcriberFake{}, mem, &exchangeStoreFake{}, &teacherDirectoryFake{})

	resp, err := uc.AnswerText(context.Background(), "  ", "", "teach fractions", "")
	if err != nil {
		t.Fatalf("AnswerText() error = %v", err)
	}
	if strings.TrimSpace(resp.SessionID) == "" {
		t.Fatalf("expected a generated session id")
	}
	if len(mem.History(resp.SessionID)) != 2 {
		t.Fatalf("turns must be recorded under the generated session id")
	}
}

func TestAnswerTextMalformedOutputFallsBack(t *testing.T) {
	gen := &generatorFake{raw: "I cannot answer in JSON, sorry."}
	mem := newMemoryFake()
	store := &exchangeStoreFake{}
	uc := newTestAssistant(gen, &transcriberFake{}, mem, store, &teacherDirectoryFake{})

	resp, err := uc.AnswerText(context.Background(), "s1", "t1", "teach fractions", "")
	if err != nil {
		t.Fatalf("AnswerText() error = %v", err)
	}
	fallback := domain.FallbackAnswerContract()
	if resp.Answer.Answer != fallback.Answer || resp.Answer.Topic != fallback.Topic {
		t.Fatalf("expected fallback contract, got %+v", resp.Answer)
	}

	// The fallback exchange is still recorded, in order.
	turns := mem.History("s1")
	if len(turns) != 2 || turns[1].Content != fallback.Answer {
		t.Fatalf("fallback turn not recorded: %+v", turns)
	}
	if len(store.saved) != 1 || store.saved[0].Topic != fallback.Topic {
		t.Fatalf("fallback exchange not saved: %+v", store.saved)
	}
}

func TestAnswerTextGeneratorErrorFallsBack(t *testing.T) {
	gen := &generatorFake{err: errors.New("upstream 503")}
	mem := newMemoryFake()
	uc := newTestAssistant(gen, &transcriberFake{}, mem, &exchangeStoreFake{}, &teacherDirectoryFake{})

	resp, err := uc.AnswerText(context.Background(), "s1", "", "teach fractions", "")
	if err != nil {
		t.Fatalf("generation failure must not fail the request, got %v", err)
	}
	fallback := domain.FallbackAnswerContract()
	if resp.Answer.Answer != fallback.Answer || resp.Answer.Language != fallback.Language {
		t.Fatalf("expected fallback contract, got %+v", resp.Answer)
	}
}

func TestAnswerTextCancelledBeforeRecord(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := &generatorFake{raw: `{"answer":"ok","topic":"t","sentiment":"s","language":"l"}`, onCall: cancel}
	mem := newMemoryFake()
	store := &exchangeStoreFake{}
	uc := newTestAssistant(gen, &transcriberFake{}, mem, store, &teacherDirectoryFake{})

	if _, err := uc.AnswerText(ctx, "s1", "", "teach fractions", ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(mem.History("s1")) != 0 {
		t.Fatalf("cancelled pipeline must not touch memory, got %+v", mem.History("s1"))
	}
	if len(store.saved) != 0 {
		t.Fatalf("cancelled pipeline must not save exchanges")
	}
}

func TestAnswerTextRewritesShortFollowUp(t *testing.T) {
	gen := &generatorFake{raw: `{"answer":"ok","topic":"t","sentiment":"s","language":"l"}`}
	mem := newMemoryFake()
	mem.Append("s1", domain.RoleUser, "classroom discipline tips")
	mem.Append("s1", domain.RoleAssistant, "Set clear routines.")
	lexical := &lexicalIndexFake{corpus: docs("Routines reduce disruption.")}
	retriever := NewHybridRetriever(lexical, &embedderFake{}, &vectorIndexFake{})
	uc := NewAssistantUseCase(retriever, gen, &transcriberFake{}, mem, &exchangeStoreFake{}, &teacherDirectoryFake{})

	if _, err := uc.AnswerText(context.Background(), "s1", "", "give examples", ""); err != nil {
		t.Fatalf("AnswerText() error = %v", err)
	}
	if len(lexical.queries) == 0 || lexical.queries[0] != "classroom discipline tips give examples" {
		t.Fatalf("retrieval must see the rewritten query, got %v", lexical.queries)
	}
	if gen.gotQuery != "give examples" {
		t.Fatalf("generator must see the original query, got %q", gen.gotQuery)
	}
}

func TestAnswerVoiceTranscribesThenAnswers(t *testing.T) {
	gen := &generatorFake{raw: `{"answer":"ok","topic":"t","sentiment":"s","language":"l"}`}
	mem := newMemoryFake()
	store := &exchangeStoreFake{}
	uc := newTestAssistant(gen, &transcriberFake{text: "how to teach counting"}, mem, store, &teacherDirectoryFake{})

	resp, err := uc.AnswerVoice(context.Background(), "s1", "t1", []byte("audio-bytes"), "q.wav")
	if err != nil {
		t.Fatalf("AnswerVoice() error = %v", err)
	}
	if resp.Answer.Answer != "ok" {
		t.Fatalf("unexpected contract: %+v", resp.Answer)
	}
	if turns := mem.History("s1"); len(turns) == 0 || turns[0].Content != "how to teach counting" {
		t.Fatalf("transcript must be recorded as the user turn, got %+v", turns)
	}
	if len(store.saved) != 1 || store.saved[0].SourceType != domain.SourceTypeVoice {
		t.Fatalf("voice exchange not tagged, got %+v", store.saved)
	}
}

func TestAnswerVoiceRejectsEmptyAudio(t *testing.T) {
	uc := newTestAssistant(&generatorFake{}, &transcriberFake{}, newMemoryFake(), &exchangeStoreFake{}, &teacherDirectoryFake{})

	if _, err := uc.AnswerVoice(context.Background(), "s1", "", nil, "q.wav"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAnswerVoiceEmptyTranscript(t *testing.T) {
	uc := newTestAssistant(&generatorFake{}, &transcriberFake{text: "   "}, newMemoryFake(), &exchangeStoreFake{}, &teacherDirectoryFake{})

	if _, err := uc.AnswerVoice(context.Background(), "s1", "", []byte("audio"), "q.wav"); !domain.IsKind(err, domain.ErrTranscription) {
		t.Fatalf("expected ErrTranscription, got %v", err)
	}
}

func TestResetSession(t *testing.T) {
	mem := newMemoryFake()
	mem.Append("s1", domain.RoleUser, "hello")
	uc := newTestAssistant(&generatorFake{}, &transcriberFake{}, mem, &exchangeStoreFake{}, &teacherDirectoryFake{})

	if err := uc.ResetSession(context.Background(), "s1"); err != nil {
		t.Fatalf("ResetSession() error = %v", err)
	}
	if len(mem.History("s1")) != 0 {
		t.Fatalf("history must be empty after reset")
	}
	if err := uc.ResetSession(context.Background(), " "); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank session id, got %v", err)
	}
}

type staticLexicalIndex struct{ corpus []domain.SourceDocument }

func (f staticLexicalIndex) Search(string, int) []domain.SourceDocument { return f.corpus }
func (f staticLexicalIndex) Rebuild([]domain.SourceDocument)            {}
func (f staticLexicalIndex) Size() int                                  { return len(f.corpus) }

type staticVectorIndex struct{ results []domain.SourceDocument }

func (f staticVectorIndex) Add(context.Context, *domain.Document, []string, [][]float32) (int, error) {
	return 0, errors.New("not implemented")
}

func (f staticVectorIndex) Search(context.Context, []float32, int) ([]domain.SourceDocument, error) {
	return f.results, nil
}

func (f staticVectorIndex) All(context.Context) ([]domain.SourceDocument, error) {
	return f.results, nil
}

type staticEmbedder struct{}

func (staticEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func (staticEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

// barrierGenerator parks every caller until all expected requests are inside
// the generation step, forcing their record steps to race.
type barrierGenerator struct {
	arrived chan struct{}
	release chan struct{}
	raw     string
}

func (g *barrierGenerator) Complete(context.Context, string, []domain.Turn, string) (string, error) {
	g.arrived <- struct{}{}
	<-g.release
	return g.raw, nil
}

func TestAnswerTextConcurrentSameSessionKeepsExchangePairs(t *testing.T) {
	const workers = 4

	gen := &barrierGenerator{
		arrived: make(chan struct{}, workers),
		release: make(chan struct{}),
		raw:     `{"answer":"Try pebbles.","topic":"Math","sentiment":"Neutral","language":"English"}`,
	}
	mem := newMemoryFake()
	corpus := docs("Use pebbles to teach counting.")
	retriever := NewHybridRetriever(staticLexicalIndex{corpus: corpus}, staticEmbedder{}, staticVectorIndex{results: corpus})
	uc := NewAssistantUseCase(retriever, gen, &transcriberFake{}, mem, &exchangeStoreFake{}, &teacherDirectoryFake{})

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := uc.AnswerText(context.Background(), "s1", "", "how to teach counting", ""); err != nil {
				t.Errorf("AnswerText() error = %v", err)
			}
		}()
	}
	for i := 0; i < workers; i++ {
		<-gen.arrived
	}
	close(gen.release)
	wg.Wait()

	turns := mem.History("s1")
	if len(turns) != 2*workers {
		t.Fatalf("expected %d turns, got %d", 2*workers, len(turns))
	}
	for i, turn := range turns {
		want := domain.RoleUser
		if i%2 == 1 {
			want = domain.RoleAssistant
		}
		if turn.Role != want {
			t.Fatalf("exchange pairs interleaved at turn %d: %+v", i, turns)
		}
	}
}
