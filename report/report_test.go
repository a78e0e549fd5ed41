package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smallnest/compintel/model"
	"github.com/smallnest/compintel/pipeline"
)

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		RunID: "run-1",
		Record: &model.CompetitorRecord{
			Domain: "acme.com",
			Name:   "Acme",
			URL:    "https://acme.com",
		},
		Scores: &model.ScoreSet{
			XScore: model.Float(72.5),
			YScore: nil,
			Attributes: map[string]model.AttributeScore{
				model.AttrPriceCompetitiveness: {RawScore: model.Float(80), Confidence: 0.9},
				model.AttrSupportQuality:       {},
			},
		},
		Insights: &model.InsightSet{
			Strengths: []string{"aggressive pricing"},
			Risks:     []string{"weak support"},
		},
		Warnings:     []string{"history validation: field \"servicios\" diverges"},
		CompetitorID: 42,
		Persisted:    true,
	}
}

func TestTerminalSummary(t *testing.T) {
	out := TerminalSummary(sampleResult())

	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "acme.com")
	assert.Contains(t, out, "72.5")
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "aggressive pricing")
	assert.Contains(t, out, "weak support")
	assert.Contains(t, out, "servicios")
	assert.Contains(t, out, "42")
}

func TestTerminalSummaryNotPersisted(t *testing.T) {
	result := sampleResult()
	result.Persisted = false
	result.Insights = nil
	result.Warnings = nil

	out := TerminalSummary(result)
	assert.Contains(t, out, "Not persisted")
	assert.NotContains(t, out, "Insights")
	assert.NotContains(t, out, "Warnings")
}

func TestMarkdownDeterministicOrder(t *testing.T) {
	result := sampleResult()
	first := Markdown(result)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Markdown(result))
	}

	// price_competitiveness sorts before support_quality.
	priceIdx := strings.Index(first, model.AttrPriceCompetitiveness)
	supportIdx := strings.Index(first, model.AttrSupportQuality)
	assert.Greater(t, supportIdx, priceIdx)
	assert.Contains(t, first, "# Competitor Analysis: Acme")
	assert.Contains(t, first, "| Strategy (X) | 72.5 |")
	assert.Contains(t, first, "| Complexity (Y) | n/a |")
}

func TestHTMLSanitized(t *testing.T) {
	result := sampleResult()
	result.Insights.Strengths = []string{`clean <script>alert("x")</script> finding`}

	page := string(HTML(result))
	assert.Contains(t, page, "<!DOCTYPE html>")
	assert.Contains(t, page, "<h1")
	assert.Contains(t, page, "Acme")
	assert.NotContains(t, page, "<script>")
}
