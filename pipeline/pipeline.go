package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/smallnest/compintel/insights"
	"github.com/smallnest/compintel/log"
	"github.com/smallnest/compintel/model"
	"github.com/smallnest/compintel/rag"
	"github.com/smallnest/compintel/scoring"
	"github.com/smallnest/compintel/scraper"
)

// Persister saves a completed analysis. Satisfied by warehouse.Writer.
type Persister interface {
	SaveCompetitor(ctx context.Context, rec *model.CompetitorRecord, scores *model.ScoreSet, in *model.InsightSet) (int64, error)
}

// Options configures an analysis run.
type Options struct {
	// DryRun skips the persistence phase.
	DryRun bool
	// SimilarityThreshold for history validation. Default 0.85.
	SimilarityThreshold float64
	Logger              log.Logger
}

// Orchestrator wires the phases together. The RAG service and the
// persister may be nil; the corresponding phases are then skipped.
type Orchestrator struct {
	source    scraper.Source
	engine    *scoring.Engine
	ragSvc    *rag.Service
	synth     *insights.Synthesizer
	persister Persister
	opts      Options
}

// NewOrchestrator creates an orchestrator over the given components.
func NewOrchestrator(source scraper.Source, engine *scoring.Engine, ragSvc *rag.Service, synth *insights.Synthesizer, persister Persister, opts Options) *Orchestrator {
	if opts.SimilarityThreshold == 0 {
		opts.SimilarityThreshold = rag.DefaultSimilarityThreshold
	}
	if opts.Logger == nil {
		opts.Logger = &log.NoOpLogger{}
	}
	return &Orchestrator{
		source:    source,
		engine:    engine,
		ragSvc:    ragSvc,
		synth:     synth,
		persister: persister,
		opts:      opts,
	}
}

// Result carries everything a run produced, including partial outputs
// from phases that ran before a non-fatal failure.
type Result struct {
	RunID        string                  `json:"run_id"`
	Record       *model.CompetitorRecord `json:"record"`
	Scores       *model.ScoreSet         `json:"scores"`
	Validation   *rag.ValidationResult   `json:"validation,omitempty"`
	Insights     *model.InsightSet       `json:"insights,omitempty"`
	CompetitorID int64                   `json:"competitor_id,omitempty"`
	Persisted    bool                    `json:"persisted"`
	Warnings     []string                `json:"warnings,omitempty"`
}

// Run analyzes one competitor URL end to end.
func (o *Orchestrator) Run(ctx context.Context, url string) (*Result, error) {
	result := &Result{RunID: uuid.NewString()}
	logger := o.opts.Logger

	logger.Info("run %s: extracting %s", result.RunID, url)
	rec, err := o.source.Extract(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}
	result.Record = rec
	logger.Info("run %s: extracted %s (%s), %d services, %d integrations",
		result.RunID, rec.Name, rec.Domain, len(rec.Servicios), len(rec.Integraciones))

	scores, err := o.engine.CalculateScores(rec)
	if err != nil {
		return nil, fmt.Errorf("scoring failed: %w", err)
	}
	result.Scores = scores
	logger.Info("run %s: scored %d/%d attributes", result.RunID, scores.ScoredCount(), len(scores.Attributes))

	o.validateAndIndex(ctx, result, rec)
	o.generateInsights(ctx, result, rec, scores)
	o.persist(ctx, result, rec, scores)

	logger.Info("run %s: completed with %d warnings", result.RunID, len(result.Warnings))
	return result, nil
}

func (o *Orchestrator) validateAndIndex(ctx context.Context, result *Result, rec *model.CompetitorRecord) {
	if o.ragSvc == nil {
		return
	}

	validation := o.ragSvc.ValidateAgainstHistory(ctx, rec.Facts(), rec.Domain, o.opts.SimilarityThreshold)
	result.Validation = validation
	for _, warning := range validation.Warnings {
		result.Warnings = append(result.Warnings, "history validation: "+warning)
	}
	if validation.Degraded {
		result.Warnings = append(result.Warnings, "history validation skipped: retrieval backend unavailable")
	}

	if err := o.ragSvc.IndexRecord(ctx, rec, rag.ContextTypeExtraction); err != nil {
		o.opts.Logger.Warn("run %s: failed to index record: %v", result.RunID, err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("indexing failed: %v", err))
	}
}

func (o *Orchestrator) generateInsights(ctx context.Context, result *Result, rec *model.CompetitorRecord, scores *model.ScoreSet) {
	if o.synth == nil {
		return
	}

	set, err := o.synth.GenerateInsights(ctx, rec, scores)
	switch {
	case err == nil:
		result.Insights = set
	case errors.Is(err, insights.ErrNoEvidence):
		result.Warnings = append(result.Warnings, "insights skipped: no scored attributes")
	case errors.Is(err, insights.ErrGenerationUnavailable):
		// Scores are intact, so ship the deterministic candidates instead.
		result.Insights = o.synth.Candidates(scores)
		result.Warnings = append(result.Warnings, fmt.Sprintf("insight narrative degraded: %v", err))
	default:
		result.Warnings = append(result.Warnings, fmt.Sprintf("insight generation failed: %v", err))
	}
}

func (o *Orchestrator) persist(ctx context.Context, result *Result, rec *model.CompetitorRecord, scores *model.ScoreSet) {
	if o.opts.DryRun {
		o.opts.Logger.Info("run %s: dry run, skipping persistence", result.RunID)
		return
	}
	if o.persister == nil {
		return
	}

	id, err := o.persister.SaveCompetitor(ctx, rec, scores, result.Insights)
	if err != nil {
		o.opts.Logger.Warn("run %s: persistence failed: %v", result.RunID, err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("persistence failed: %v", err))
		return
	}
	result.CompetitorID = id
	result.Persisted = true
}
