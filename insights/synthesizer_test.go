package insights

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/compintel/model"
)

type mockLLM struct {
	response   string
	err        error
	lastPrompt string
}

func (m *mockLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.lastPrompt += text.Text + "\n"
			}
		}
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.response}},
	}, nil
}

func (m *mockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func scoreSetWith(attrs map[string]model.AttributeScore) *model.ScoreSet {
	full := make(map[string]model.AttributeScore, 10)
	for _, def := range model.DefaultCatalog() {
		full[def.Code] = model.AttributeScore{}
	}
	for code, attr := range attrs {
		full[code] = attr
	}
	return &model.ScoreSet{Attributes: full}
}

func testRecord() *model.CompetitorRecord {
	return &model.CompetitorRecord{Domain: "acme.com", Name: "Acme", Segmento: "Enterprise"}
}

func TestGenerateInsightsNoEvidence(t *testing.T) {
	synth := NewSynthesizer(&mockLLM{}, nil, model.DefaultCatalog(), Options{})

	_, err := synth.GenerateInsights(context.Background(), testRecord(), scoreSetWith(nil))
	assert.ErrorIs(t, err, ErrNoEvidence)

	_, err = synth.GenerateInsights(context.Background(), testRecord(), nil)
	assert.ErrorIs(t, err, ErrNoEvidence)
}

func TestGenerateInsightsModelFailure(t *testing.T) {
	llm := &mockLLM{err: errors.New("connection refused")}
	synth := NewSynthesizer(llm, nil, model.DefaultCatalog(), Options{})

	scores := scoreSetWith(map[string]model.AttributeScore{
		model.AttrPriceCompetitiveness: {RawScore: model.Float(80), Confidence: 0.9},
	})

	_, err := synth.GenerateInsights(context.Background(), testRecord(), scores)
	assert.ErrorIs(t, err, ErrGenerationUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGenerateInsightsParsesSections(t *testing.T) {
	llm := &mockLLM{response: strings.Join([]string{
		"STRENGTHS:",
		"- Pricing is aggressive and transparent",
		"OPPORTUNITIES:",
		"- none",
		"RISKS:",
		"- Support quality lags behind the segment",
	}, "\n")}
	synth := NewSynthesizer(llm, nil, model.DefaultCatalog(), Options{})

	scores := scoreSetWith(map[string]model.AttributeScore{
		model.AttrPriceCompetitiveness: {RawScore: model.Float(85), Confidence: 0.9},
		model.AttrSupportQuality:       {RawScore: model.Float(30), Confidence: 0.7},
	})

	set, err := synth.GenerateInsights(context.Background(), testRecord(), scores)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pricing is aggressive and transparent"}, set.Strengths)
	assert.Empty(t, set.Opportunities)
	assert.Equal(t, []string{"Support quality lags behind the segment"}, set.Risks)
}

func TestGenerateInsightsFallsBackOnUnparseableOutput(t *testing.T) {
	llm := &mockLLM{response: "I cannot comply with that request."}
	synth := NewSynthesizer(llm, nil, model.DefaultCatalog(), Options{})

	scores := scoreSetWith(map[string]model.AttributeScore{
		model.AttrPriceCompetitiveness: {RawScore: model.Float(85), Confidence: 0.9},
	})

	set, err := synth.GenerateInsights(context.Background(), testRecord(), scores)
	require.NoError(t, err)
	require.NotEmpty(t, set.Strengths)
	assert.Contains(t, set.Strengths[0], "Price Competitiveness")
}

func TestGenerateInsightsPromptContainsFindings(t *testing.T) {
	llm := &mockLLM{response: "STRENGTHS:\n- ok"}
	synth := NewSynthesizer(llm, nil, model.DefaultCatalog(), Options{})

	scores := scoreSetWith(map[string]model.AttributeScore{
		model.AttrPriceCompetitiveness: {RawScore: model.Float(90), Confidence: 0.9},
	})

	_, err := synth.GenerateInsights(context.Background(), testRecord(), scores)
	require.NoError(t, err)
	assert.Contains(t, llm.lastPrompt, "acme.com")
	assert.Contains(t, llm.lastPrompt, "Price Competitiveness")
	assert.Contains(t, llm.lastPrompt, "STRENGTHS:")
}

func TestCandidatesSelectionRules(t *testing.T) {
	synth := NewSynthesizer(&mockLLM{}, nil, model.DefaultCatalog(), Options{})

	scores := scoreSetWith(map[string]model.AttributeScore{
		// Strategy axis: one strength, one weak, one low-confidence high score.
		model.AttrPriceCompetitiveness:  {RawScore: model.Float(85), Confidence: 0.9},
		model.AttrBrandSentiment:        {RawScore: model.Float(20), Confidence: 0.8},
		model.AttrInnovationScore:       {RawScore: model.Float(95), Confidence: 0.2},
		// Complexity axis: one risk, one healthy.
		model.AttrSupportQuality:        {RawScore: model.Float(25), Confidence: 0.6},
		model.AttrEaseOfUse:             {RawScore: model.Float(80), Confidence: 0.8},
	})

	set := synth.Candidates(scores)
	require.NotNil(t, set)

	// Low confidence excludes the 95 from strengths.
	require.Len(t, set.Strengths, 1)
	assert.Contains(t, set.Strengths[0], "Price Competitiveness")

	// Weak and unscored Strategy attributes are opportunities. Unscored:
	// market_reach and customer_satisfaction; weak: brand_sentiment.
	assert.Len(t, set.Opportunities, 3)
	assert.Contains(t, set.Opportunities[0], "Brand Sentiment")

	require.Len(t, set.Risks, 1)
	assert.Contains(t, set.Risks[0], "Support Quality")
}

func TestCandidatesRanking(t *testing.T) {
	synth := NewSynthesizer(&mockLLM{}, nil, model.DefaultCatalog(), Options{})

	scores := scoreSetWith(map[string]model.AttributeScore{
		model.AttrPriceCompetitiveness: {RawScore: model.Float(75), Confidence: 0.9},
		model.AttrBrandSentiment:       {RawScore: model.Float(95), Confidence: 0.9},
		model.AttrSupportQuality:       {RawScore: model.Float(40), Confidence: 0.6},
		model.AttrSecurityCompliance:   {RawScore: model.Float(10), Confidence: 0.6},
	})

	set := synth.Candidates(scores)
	require.Len(t, set.Strengths, 2)
	assert.Contains(t, set.Strengths[0], "Brand Sentiment")
	assert.Contains(t, set.Strengths[1], "Price Competitiveness")

	// Lowest Complexity score ranks first among risks.
	require.Len(t, set.Risks, 2)
	assert.Contains(t, set.Risks[0], "Security")
}

func TestParseInsightSectionsVariants(t *testing.T) {
	set := parseInsightSections(strings.Join([]string{
		"strengths:",
		"* star item",
		"random narration the model added",
		"RISKS",
		"- a risk",
		"- None",
	}, "\n"))

	assert.Equal(t, []string{"star item"}, set.Strengths)
	assert.Equal(t, []string{"a risk"}, set.Risks)
	assert.Empty(t, set.Opportunities)
}
