package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/agentkb/answer-engine/internal/core/domain"
	"github.com/agentkb/answer-engine/internal/infrastructure/cache"
)

type embedderFake struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *embedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type pairSearcherFake struct {
	mu         sync.Mutex
	calls      int
	candidates []domain.CuratedCandidate
	err        error
}

func (f *pairSearcherFake) MatchPairs(context.Context, string, []float32, float64, int) ([]domain.CuratedCandidate, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

type chunkSearcherFake struct {
	candidates []domain.ChunkCandidate
	err        error
}

func (f *chunkSearcherFake) MatchChunks(context.Context, string, []float32, float64, int) ([]domain.ChunkCandidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

type rerankScorerFake struct {
	scores map[string]float64
	err    error
}

func (f *rerankScorerFake) Relevance(_ context.Context, _, excerpt string) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.scores[excerpt], nil
}

type settingsFake struct {
	message string
	err     error
}

func (f *settingsFake) FallbackMessage(context.Context, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.message, nil
}

type auditSinkFake struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	err     error
}

func (f *auditSinkFake) PublishQueryAudited(_ context.Context, entry domain.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *auditSinkFake) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type classifierFake struct {
	precise bool
	panics  bool
}

func (f *classifierFake) Classify(string) domain.Classification {
	if f.panics {
		panic("classifier exploded")
	}
	return domain.Classification{Intent: domain.IntentGeneral, PreciseExtraction: f.precise}
}

type expanderFake struct{}

func (expanderFake) Expand(text string) []string { return []string{text} }

type retrieveFixture struct {
	embedder *embedderFake
	pairs    *pairSearcherFake
	chunks   *chunkSearcherFake
	scorer   *rerankScorerFake
	settings *settingsFake
	audit    *auditSinkFake
	cls      *classifierFake
	uc       *RetrieveUseCase
}

func newRetrieveFixture() *retrieveFixture {
	return newRetrieveFixtureWith(&pairSearcherFake{}, &chunkSearcherFake{}, nil)
}

func newRetrieveFixtureWith(pairs *pairSearcherFake, chunks *chunkSearcherFake, scorer *rerankScorerFake) *retrieveFixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &retrieveFixture{
		embedder: &embedderFake{},
		pairs:    pairs,
		chunks:   chunks,
		scorer:   scorer,
		settings: &settingsFake{message: "Sorry, ask us directly."},
		audit:    &auditSinkFake{},
		cls:      &classifierFake{},
	}

	matcher := NewCuratedMatcher(f.embedder, f.pairs, logger)
	hybrid := NewHybridSearcher(f.embedder, f.chunks, expanderFake{}, logger)
	var reranker *Reranker
	if scorer != nil {
		reranker = NewReranker(scorer, logger)
	} else {
		reranker = NewReranker(nil, logger)
	}
	f.uc = NewRetrieveUseCase(
		cache.New(0, 0), matcher, hybrid, reranker, f.cls, f.settings, f.audit, logger,
	)
	return f
}

func TestRetrieveCuratedExactMatch(t *testing.T) {
	f := newRetrieveFixtureWith(&pairSearcherFake{
		candidates: []domain.CuratedCandidate{
			{ID: "qa-1", Question: "What are your hours?", Answer: "We are open 9 to 5.", Similarity: 0.93, Priority: 8},
		},
	}, &chunkSearcherFake{}, nil)

	result := f.uc.Retrieve(context.Background(), "tenant-1", "what are your hours")
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Source != domain.SourceQAExact {
		t.Fatalf("expected qa_exact, got %s", result.Source)
	}
	if result.ConfidencePercent != 95 {
		t.Fatalf("expected confidence 95, got %d", result.ConfidencePercent)
	}
	if result.Answer != "We are open 9 to 5." {
		t.Fatalf("unexpected answer %q", result.Answer)
	}
	if result.MatchedQuestion != "What are your hours?" {
		t.Fatalf("unexpected matched question %q", result.MatchedQuestion)
	}
	if f.audit.count() != 1 {
		t.Fatalf("expected 1 audit entry, got %d", f.audit.count())
	}
}

func TestRetrieveCuratedSemanticMatch(t *testing.T) {
	f := newRetrieveFixtureWith(&pairSearcherFake{
		candidates: []domain.CuratedCandidate{
			{ID: "qa-1", Answer: "Call us for pricing.", Similarity: 0.81},
		},
	}, &chunkSearcherFake{}, nil)

	result := f.uc.Retrieve(context.Background(), "tenant-1", "how much does it cost")
	if result.Source != domain.SourceQASemantic {
		t.Fatalf("expected qa_semantic, got %s", result.Source)
	}
	if result.ConfidencePercent != 75 {
		t.Fatalf("expected confidence 75, got %d", result.ConfidencePercent)
	}
}

func TestRetrieveVectorSearchSuccess(t *testing.T) {
	chunkText := "Our premium detailing package costs 250 dollars and includes full interior cleaning."
	f := newRetrieveFixtureWith(&pairSearcherFake{}, &chunkSearcherFake{
		candidates: []domain.ChunkCandidate{
			{ID: "c-1", Text: chunkText, SourceRef: "https://example.com/pricing", Similarity: 0.82},
			{ID: "c-2", Text: "unrelated text about careers", Similarity: 0.30},
		},
	}, nil)

	result := f.uc.Retrieve(context.Background(), "tenant-1", "premium detailing package cost")
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Source != domain.SourceVector {
		t.Fatalf("expected vector_search, got %s", result.Source)
	}
	if result.ConfidencePercent < 25 || result.ConfidencePercent > 100 {
		t.Fatalf("confidence out of range: %d", result.ConfidencePercent)
	}
	if result.Answer != chunkText {
		t.Fatalf("expected verbatim chunk, got %q", result.Answer)
	}
	if result.SourceRef != "https://example.com/pricing" {
		t.Fatalf("unexpected source ref %q", result.SourceRef)
	}
}

func TestRetrieveNoCandidatesUsesTenantFallback(t *testing.T) {
	f := newRetrieveFixture()

	result := f.uc.Retrieve(context.Background(), "tenant-1", "do you sell spaceships")
	if result.Success {
		t.Fatalf("expected failure, got %+v", result)
	}
	if result.Source != domain.SourceFallback {
		t.Fatalf("expected fallback, got %s", result.Source)
	}
	if result.Answer != "Sorry, ask us directly." {
		t.Fatalf("expected tenant fallback message, got %q", result.Answer)
	}
}

func TestRetrieveLowConfidenceForcedToFallback(t *testing.T) {
	f := newRetrieveFixtureWith(&pairSearcherFake{}, &chunkSearcherFake{
		candidates: []domain.ChunkCandidate{
			{ID: "c-1", Text: "vaguely related text with nothing in common", Similarity: 0.30},
		},
	}, nil)

	result := f.uc.Retrieve(context.Background(), "tenant-1", "quantum entanglement warranty")
	if result.Success {
		t.Fatalf("expected failure, got %+v", result)
	}
	if result.Source != domain.SourceFallback {
		t.Fatalf("expected fallback, got %s", result.Source)
	}
	if result.ConfidencePercent != 0 {
		t.Fatalf("expected confidence 0, got %d", result.ConfidencePercent)
	}
	if result.Similarity != 0.30 {
		t.Fatalf("expected underlying similarity surfaced, got %v", result.Similarity)
	}
}

func TestRetrieveRerankFailureKeepsHybridOrder(t *testing.T) {
	chunks := &chunkSearcherFake{
		candidates: []domain.ChunkCandidate{
			{ID: "c-1", Text: "first chunk about detailing services and packages offered", Similarity: 0.80},
			{ID: "c-2", Text: "second chunk about opening hours", Similarity: 0.65},
		},
	}

	broken := newRetrieveFixtureWith(&pairSearcherFake{}, chunks, &rerankScorerFake{err: errors.New("rerank down")})
	plain := newRetrieveFixtureWith(&pairSearcherFake{}, chunks, nil)

	got := broken.uc.Retrieve(context.Background(), "tenant-1", "detailing services")
	want := plain.uc.Retrieve(context.Background(), "tenant-1", "detailing services")

	if !got.Success {
		t.Fatalf("expected retrieval to succeed despite rerank failure, got %+v", got)
	}
	if got != want {
		t.Fatalf("rerank failure changed the result:\n got %+v\nwant %+v", got, want)
	}
}

func TestRetrieveCacheIdempotence(t *testing.T) {
	f := newRetrieveFixtureWith(&pairSearcherFake{
		candidates: []domain.CuratedCandidate{
			{ID: "qa-1", Answer: "We open at nine.", Similarity: 0.95},
		},
	}, &chunkSearcherFake{}, nil)

	first := f.uc.Retrieve(context.Background(), "tenant-1", "  When Do You OPEN? ")
	second := f.uc.Retrieve(context.Background(), "tenant-1", "when do you open?")

	if first != second {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
	if f.pairs.calls != 1 {
		t.Fatalf("expected exactly one underlying computation, got %d", f.pairs.calls)
	}
	if f.audit.count() != 1 {
		t.Fatalf("cache hit must not re-log, got %d audit entries", f.audit.count())
	}
}

func TestRetrievePairBackendErrorFallsThroughToHybrid(t *testing.T) {
	f := newRetrieveFixtureWith(
		&pairSearcherFake{err: errors.New("pair store down")},
		&chunkSearcherFake{candidates: []domain.ChunkCandidate{
			{ID: "c-1", Text: "we offer full detailing services for all vehicle types and sizes", Similarity: 0.85},
		}},
		nil,
	)

	result := f.uc.Retrieve(context.Background(), "tenant-1", "detailing services offered")
	if !result.Success || result.Source != domain.SourceVector {
		t.Fatalf("expected vector_search success, got %+v", result)
	}
}

func TestRetrieveFallbackLookupFailureUsesDefault(t *testing.T) {
	f := newRetrieveFixture()
	f.settings.err = errors.New("settings db down")

	result := f.uc.Retrieve(context.Background(), "tenant-1", "anything")
	if result.Answer != DefaultFallbackMessage {
		t.Fatalf("expected default fallback, got %q", result.Answer)
	}
}

func TestRetrievePanicBecomesErrorResult(t *testing.T) {
	f := newRetrieveFixtureWith(&pairSearcherFake{}, &chunkSearcherFake{
		candidates: []domain.ChunkCandidate{
			{ID: "c-1", Text: "relevant chunk text about detailing services offered here", Similarity: 0.9},
		},
	}, nil)
	f.cls.panics = true

	result := f.uc.Retrieve(context.Background(), "tenant-1", "detailing services")
	if result.Success {
		t.Fatalf("expected failure, got %+v", result)
	}
	if result.Source != domain.SourceError {
		t.Fatalf("expected error source, got %s", result.Source)
	}
	if result.Answer != DefaultFallbackMessage {
		t.Fatalf("expected default fallback, got %q", result.Answer)
	}
}

func TestRetrieveAuditFailureDoesNotAffectResult(t *testing.T) {
	f := newRetrieveFixtureWith(&pairSearcherFake{
		candidates: []domain.CuratedCandidate{
			{ID: "qa-1", Answer: "yes", Similarity: 0.99},
		},
	}, &chunkSearcherFake{}, nil)
	f.audit.err = errors.New("audit sink down")

	result := f.uc.Retrieve(context.Background(), "tenant-1", "are you open")
	if !result.Success {
		t.Fatalf("audit failure must not fail retrieval, got %+v", result)
	}
}

func TestCacheKeyNormalizesQuestion(t *testing.T) {
	a := cacheKey("t1", "  What Are Your HOURS? ")
	b := cacheKey("t1", "what are your hours?")
	if a != b {
		t.Fatalf("expected normalized keys to match: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "t1|") {
		t.Fatalf("expected tenant-scoped key, got %q", a)
	}
}
