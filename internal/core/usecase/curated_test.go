package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/agentkb/answer-engine/internal/core/domain"
)

func newMatcher(embedder *embedderFake, pairs *pairSearcherFake) *CuratedMatcher {
	return NewCuratedMatcher(embedder, pairs, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCuratedMatch(t *testing.T) {
	tests := []struct {
		name       string
		candidates []domain.CuratedCandidate
		pairErr    error
		embedErr   error
		wantFound  bool
		wantSource domain.ResultSource
		wantConf   int
	}{
		{
			name: "exact threshold",
			candidates: []domain.CuratedCandidate{
				{ID: "qa-1", Answer: "a", Similarity: 0.90},
			},
			wantFound:  true,
			wantSource: domain.SourceQAExact,
			wantConf:   95,
		},
		{
			name: "semantic band",
			candidates: []domain.CuratedCandidate{
				{ID: "qa-1", Answer: "a", Similarity: 0.89},
			},
			wantFound:  true,
			wantSource: domain.SourceQASemantic,
			wantConf:   75,
		},
		{
			name:       "no candidates",
			candidates: nil,
			wantFound:  false,
		},
		{
			name: "below floor despite backend filter",
			candidates: []domain.CuratedCandidate{
				{ID: "qa-1", Answer: "a", Similarity: 0.55},
			},
			wantFound: false,
		},
		{
			name:      "backend error treated as not found",
			pairErr:   errors.New("qdrant down"),
			wantFound: false,
		},
		{
			name:      "embed error treated as not found",
			embedErr:  errors.New("ollama down"),
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMatcher(
				&embedderFake{err: tt.embedErr},
				&pairSearcherFake{candidates: tt.candidates, err: tt.pairErr},
			)
			got := m.Match(context.Background(), "tenant-1", "question")
			if got.Found != tt.wantFound {
				t.Fatalf("Found = %v, want %v", got.Found, tt.wantFound)
			}
			if !tt.wantFound {
				return
			}
			if got.Source != tt.wantSource {
				t.Fatalf("Source = %s, want %s", got.Source, tt.wantSource)
			}
			if got.Confidence != tt.wantConf {
				t.Fatalf("Confidence = %d, want %d", got.Confidence, tt.wantConf)
			}
		})
	}
}

func TestCuratedMatchTakesFirstCandidate(t *testing.T) {
	// The store orders candidates by priority, then similarity.
	m := newMatcher(&embedderFake{}, &pairSearcherFake{candidates: []domain.CuratedCandidate{
		{ID: "qa-2", Question: "priority question", Answer: "priority answer", Similarity: 0.78, Priority: 50},
		{ID: "qa-1", Question: "closer question", Answer: "closer answer", Similarity: 0.92},
	}})

	got := m.Match(context.Background(), "tenant-1", "question")
	if !got.Found || got.Answer != "priority answer" {
		t.Fatalf("expected the store's first candidate, got %+v", got)
	}
	if got.Source != domain.SourceQASemantic {
		t.Fatalf("expected qa_semantic for similarity 0.78, got %s", got.Source)
	}
}
