package domain

// ResultSource identifies which retrieval tier produced a result.
type ResultSource string

const (
	SourceQAExact    ResultSource = "qa_exact"
	SourceQASemantic ResultSource = "qa_semantic"
	SourceVector     ResultSource = "vector_search"
	SourceFallback   ResultSource = "fallback"
	SourceError      ResultSource = "error"
)

// QueryIntent is the coarse question category used to decide whether a
// matched chunk should be narrowed to a sentence window.
type QueryIntent string

const (
	IntentFactoid    QueryIntent = "factoid"
	IntentDefinition QueryIntent = "definition"
	IntentProcedural QueryIntent = "procedural"
	IntentList       QueryIntent = "list"
	IntentBoolean    QueryIntent = "boolean"
	IntentGeneral    QueryIntent = "general"
)

// Classification is the classifier verdict for one question.
type Classification struct {
	Intent            QueryIntent
	PreciseExtraction bool
}

// CuratedMatch is the outcome of the curated-pair tiers.
type CuratedMatch struct {
	Found      bool
	Answer     string
	Question   string
	Confidence int
	Similarity float64
	Source     ResultSource
}

// CuratedCandidate is one hand-authored question/answer record returned by
// the vector backend, ordered by priority then similarity.
type CuratedCandidate struct {
	ID         string
	Question   string
	Answer     string
	Similarity float64
	Priority   int
	Keywords   []string
}

// ChunkCandidate is one document chunk returned by the vector backend.
type ChunkCandidate struct {
	ID         string
	Text       string
	SourceRef  string
	Similarity float64
	Priority   int
}

// ScoredCandidate carries a chunk through hybrid scoring and reranking.
// RerankScore stays negative until a reranker pass attaches one.
type ScoredCandidate struct {
	ID            string
	Text          string
	SourceRef     string
	SemanticScore float64
	KeywordScore  float64
	HybridScore   float64
	RerankScore   float64
	Priority      int
}

func (c ScoredCandidate) HasRerankScore() bool {
	return c.RerankScore >= 0
}

// RetrievalResult is the engine's sole output contract. Retrieve never
// fails: error conditions surface as Source == SourceError.
type RetrievalResult struct {
	Success           bool         `json:"success"`
	Answer            string       `json:"answer"`
	ConfidencePercent int          `json:"confidence"`
	Similarity        float64      `json:"similarity,omitempty"`
	SourceRef         string       `json:"source_ref,omitempty"`
	MatchedQuestion   string       `json:"matched_question,omitempty"`
	Source            ResultSource `json:"source"`
}
