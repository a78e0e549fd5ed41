package insights

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/compintel/log"
	"github.com/smallnest/compintel/model"
	"github.com/smallnest/compintel/rag"
)

var (
	// ErrNoEvidence means the score set has no scored attribute on either
	// axis, so there is nothing to synthesize from. A pipeline-halting
	// condition, not a crash.
	ErrNoEvidence = errors.New("score set has no scored attributes")
	// ErrGenerationUnavailable wraps a language-model failure. Scores and
	// validation stay usable; only the narrative is withheld.
	ErrGenerationUnavailable = errors.New("insight generation unavailable")
)

const systemPrompt = "You are a competitive intelligence analyst. Rewrite the given findings as concise, factual bullet points. Keep every section, do not add findings that are not listed, and answer in the same format."

// Options configures the synthesizer's selection rules.
type Options struct {
	// MinConfidence excludes weakly evidenced attributes. Default 0.4.
	MinConfidence float64
	// StrengthThreshold is the minimum Strategy raw score for a strength.
	// Default 70.
	StrengthThreshold float64
	// OpportunityThreshold marks Strategy scores below it (or unscored
	// attributes) as market opportunities. Default 40.
	OpportunityThreshold float64
	// RiskThreshold marks Complexity scores below it as risks. Default 50.
	RiskThreshold float64
	// ContextLimit is how many historical records ground the prompt.
	// Default 3.
	ContextLimit int
	Logger       log.Logger
}

// Synthesizer derives an InsightSet from a scored competitor record.
type Synthesizer struct {
	llm     llms.Model
	rag     *rag.Service
	catalog []model.AttributeDefinition
	opts    Options
}

// NewSynthesizer creates a synthesizer. The RAG service may be nil, in
// which case prompts are not grounded in history.
func NewSynthesizer(llm llms.Model, ragService *rag.Service, catalog []model.AttributeDefinition, opts Options) *Synthesizer {
	if opts.MinConfidence == 0 {
		opts.MinConfidence = 0.4
	}
	if opts.StrengthThreshold == 0 {
		opts.StrengthThreshold = 70
	}
	if opts.OpportunityThreshold == 0 {
		opts.OpportunityThreshold = 40
	}
	if opts.RiskThreshold == 0 {
		opts.RiskThreshold = 50
	}
	if opts.ContextLimit == 0 {
		opts.ContextLimit = 3
	}
	if opts.Logger == nil {
		opts.Logger = &log.NoOpLogger{}
	}
	return &Synthesizer{
		llm:     llm,
		rag:     ragService,
		catalog: append([]model.AttributeDefinition(nil), catalog...),
		opts:    opts,
	}
}

// GenerateInsights selects the evidence-backed findings and has the
// language model phrase them. Returns ErrNoEvidence when nothing is
// scored, ErrGenerationUnavailable when the model fails.
func (s *Synthesizer) GenerateInsights(ctx context.Context, rec *model.CompetitorRecord, scores *model.ScoreSet) (*model.InsightSet, error) {
	if scores == nil || scores.ScoredCount() == 0 {
		return nil, ErrNoEvidence
	}

	candidates := s.selectCandidates(scores)

	prompt := s.buildPrompt(ctx, rec, candidates)
	response, err := s.llm.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	})
	if err != nil {
		s.opts.Logger.Warn("language model failed, withholding narrative insights: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}

	var answer string
	if len(response.Choices) > 0 {
		answer = response.Choices[0].Content
	}

	set := parseInsightSections(answer)
	if set.Empty() {
		// The model returned something unusable; the selection still
		// stands, so fall back to the deterministic phrasing.
		s.opts.Logger.Warn("unparseable model output, using deterministic insight phrasing")
		set = candidates
	}
	return set, nil
}

// Candidates returns the deterministic selection without any model call.
// Useful when the caller wants partial results after a generation failure.
func (s *Synthesizer) Candidates(scores *model.ScoreSet) *model.InsightSet {
	if scores == nil || scores.ScoredCount() == 0 {
		return nil
	}
	return s.selectCandidates(scores)
}

type rankedFinding struct {
	text string
	rank float64
}

// selectCandidates applies the category rules over the catalog.
func (s *Synthesizer) selectCandidates(scores *model.ScoreSet) *model.InsightSet {
	var strengths, opportunities, risks []rankedFinding

	for _, def := range s.catalog {
		attr := scores.Attributes[def.Code]

		switch def.Axis {
		case model.AxisStrategy:
			if attr.Scored() && attr.Confidence >= s.opts.MinConfidence && *attr.RawScore >= s.opts.StrengthThreshold {
				strengths = append(strengths, rankedFinding{
					text: fmt.Sprintf("%s is a clear strength (score %.0f, %d supporting facts)", def.Name, *attr.RawScore, len(attr.Evidence)),
					rank: *attr.RawScore,
				})
			}
			if !attr.Scored() {
				opportunities = append(opportunities, rankedFinding{
					text: fmt.Sprintf("No evidence of %s; competitors usually occupy this ground", def.Name),
					rank: 0,
				})
			} else if *attr.RawScore < s.opts.OpportunityThreshold {
				opportunities = append(opportunities, rankedFinding{
					text: fmt.Sprintf("%s is weak (score %.0f), leaving an opening", def.Name, *attr.RawScore),
					rank: *attr.RawScore,
				})
			}
		case model.AxisComplexity:
			if attr.Scored() && attr.Confidence >= s.opts.MinConfidence && *attr.RawScore < s.opts.RiskThreshold {
				risks = append(risks, rankedFinding{
					text: fmt.Sprintf("%s scores low (%.0f), a liability under scrutiny", def.Name, *attr.RawScore),
					rank: -*attr.RawScore,
				})
			}
		}
	}

	return &model.InsightSet{
		Strengths:     rankTexts(strengths),
		Opportunities: rankTexts(opportunities),
		Risks:         rankTexts(risks),
	}
}

func rankTexts(findings []rankedFinding) []string {
	sort.SliceStable(findings, func(i, j int) bool { return findings[i].rank > findings[j].rank })
	texts := make([]string, 0, len(findings))
	for _, f := range findings {
		texts = append(texts, f.text)
	}
	return texts
}

// buildPrompt renders the selection as a sectioned prompt, grounded in
// similar historical records when the RAG service is available.
func (s *Synthesizer) buildPrompt(ctx context.Context, rec *model.CompetitorRecord, candidates *model.InsightSet) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Competitor: %s (%s)\n", rec.Name, rec.Domain))
	if rec.Segmento != "" {
		sb.WriteString("Segment: " + rec.Segmento + "\n")
	}
	sb.WriteString("\nFindings to rephrase:\n")
	writeSection(&sb, "STRENGTHS", candidates.Strengths)
	writeSection(&sb, "OPPORTUNITIES", candidates.Opportunities)
	writeSection(&sb, "RISKS", candidates.Risks)

	prompt := sb.String()
	if s.rag == nil {
		return prompt
	}
	return s.rag.BuildRAGPrompt(ctx, prompt, rec.SearchText(), rag.ContextTypeExtraction, s.opts.ContextLimit)
}

func writeSection(sb *strings.Builder, name string, items []string) {
	sb.WriteString(name + ":\n")
	if len(items) == 0 {
		sb.WriteString("- none\n")
		return
	}
	for _, item := range items {
		sb.WriteString("- " + item + "\n")
	}
}

// parseInsightSections reads the model's sectioned bullet-point answer
// back into an InsightSet. Unknown lines are ignored.
func parseInsightSections(answer string) *model.InsightSet {
	set := &model.InsightSet{}
	var current *[]string

	for _, line := range strings.Split(answer, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "STRENGTHS"):
			current = &set.Strengths
		case strings.HasPrefix(upper, "OPPORTUNITIES"):
			current = &set.Opportunities
		case strings.HasPrefix(upper, "RISKS"):
			current = &set.Risks
		case strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*"):
			if current == nil {
				continue
			}
			item := strings.TrimSpace(strings.TrimLeft(line, "-* "))
			if item != "" && !strings.EqualFold(item, "none") {
				*current = append(*current, item)
			}
		}
	}
	return set
}
