// Package advisor orchestrates the advice pipeline: context ingestion,
// retrieval, ranking, prompt assembly, and the language-model call. Each
// call is stateless; conversational continuity is reconstructed per call
// from the context store.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mohammad-safakhou/fincoach/internal/memory"
	"github.com/mohammad-safakhou/fincoach/internal/prompt"
	"github.com/mohammad-safakhou/fincoach/internal/telemetry"
)

// ErrModelUnavailable signals the language-model backend is unreachable or
// erroring. Callers surface it as "advisor temporarily unavailable" rather
// than a transport error.
var ErrModelUnavailable = errors.New("advisor model unavailable")

// DefaultAdviceQueryLimit is how many candidates the advice path retrieves
// before ranking.
const DefaultAdviceQueryLimit = 15

// Generator is the language-model half of the pipeline.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// contextQuerier is the read half of the context store.
type contextQuerier interface {
	Query(ctx context.Context, userID, question string, limit int) ([]memory.Document, error)
}

// ingester fans events out into the context store.
type ingester interface {
	IngestProfile(ctx context.Context, userID, profileJSON string) (memory.IngestReport, error)
	IngestUserMessage(ctx context.Context, userID, text string) (memory.IngestReport, error)
	IngestAIResponse(ctx context.Context, userID, text string) (memory.IngestReport, error)
}

// Service is the advice pipeline facade.
type Service struct {
	store      contextQuerier
	ingestor   ingester
	assembler  *prompt.Assembler
	llm        Generator
	tele       *telemetry.Telemetry
	logger     *log.Logger
	queryLimit int
}

// NewService wires the pipeline together.
func NewService(store contextQuerier, ingestor ingester, assembler *prompt.Assembler, llm Generator, tele *telemetry.Telemetry, queryLimit int, logger *log.Logger) *Service {
	if queryLimit <= 0 {
		queryLimit = DefaultAdviceQueryLimit
	}
	if assembler == nil {
		assembler = prompt.New(0)
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[ADVISOR] ", log.LstdFlags)
	}
	return &Service{
		store:      store,
		ingestor:   ingestor,
		assembler:  assembler,
		llm:        llm,
		tele:       tele,
		logger:     logger,
		queryLimit: queryLimit,
	}
}

// Advise runs the full pipeline for one user query. profileJSON may be empty
// when the user has no financial profile yet. A context-store failure
// degrades to answering without context; a model failure is returned as
// ErrModelUnavailable with no partial advice.
func (s *Service) Advise(ctx context.Context, userID, query, profileJSON string) (string, error) {
	started := time.Now()

	if profileJSON != "" {
		s.ingestBestEffort("financial_profile", func() (memory.IngestReport, error) {
			return s.ingestor.IngestProfile(ctx, userID, profileJSON)
		})
	}
	s.ingestBestEffort("user_message", func() (memory.IngestReport, error) {
		return s.ingestor.IngestUserMessage(ctx, userID, query)
	})

	docs, err := s.store.Query(ctx, userID, query, s.queryLimit)
	if err != nil {
		// Degrade to an uncontextualized answer rather than failing the
		// whole request.
		s.logger.Printf("warn: context retrieval failed, answering without context: %v", err)
		s.tele.CountContextQuery("error")
		docs = nil
	} else {
		s.tele.CountContextQuery("ok")
	}

	rendered := s.assembler.Build(query, memory.Rank(docs))

	modelStarted := time.Now()
	advice, err := s.llm.Generate(ctx, rendered)
	s.tele.ObserveModelLatency(time.Since(modelStarted).Seconds())
	if err != nil {
		s.tele.ObserveAdvice("model_error", time.Since(started).Seconds())
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	s.ingestBestEffort("ai_response", func() (memory.IngestReport, error) {
		return s.ingestor.IngestAIResponse(ctx, userID, advice)
	})

	s.tele.ObserveAdvice("ok", time.Since(started).Seconds())
	return advice, nil
}

func (s *Service) ingestBestEffort(kind string, fn func() (memory.IngestReport, error)) {
	report, err := fn()
	if err != nil {
		s.logger.Printf("warn: %s ingestion failed: %v", kind, err)
	}
	for _, reason := range report.Skipped {
		s.logger.Printf("warn: %s derived fact skipped: %s", kind, reason)
	}
	s.tele.CountContextWrites(kind, report.Written)
}
