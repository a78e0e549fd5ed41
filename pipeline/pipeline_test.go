package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/compintel/embedding"
	"github.com/smallnest/compintel/insights"
	"github.com/smallnest/compintel/model"
	"github.com/smallnest/compintel/rag"
	"github.com/smallnest/compintel/scoring"
	"github.com/smallnest/compintel/vectorstore"
)

type fakeSource struct {
	rec *model.CompetitorRecord
	err error
}

func (f *fakeSource) Extract(ctx context.Context, rawURL string) (*model.CompetitorRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rec, nil
}

type fakePersister struct {
	id     int64
	err    error
	called bool
}

func (f *fakePersister) SaveCompetitor(ctx context.Context, rec *model.CompetitorRecord, scores *model.ScoreSet, in *model.InsightSet) (int64, error) {
	f.called = true
	if f.err != nil {
		return 0, f.err
	}
	return f.id, nil
}

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.response}}}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func richRecord() *model.CompetitorRecord {
	return &model.CompetitorRecord{
		Domain:        "acme.com",
		Name:          "Acme",
		URL:           "https://acme.com",
		Sources:       []string{"automated"},
		Servicios:     []string{"Hosting", "Analytics", "Monitoring"},
		Integraciones: []string{"Slack", "Salesforce"},
		Pricing: &model.Pricing{
			HasExplicitPricing: true,
			Products:           []model.Product{{Name: "Starter", Price: 29}},
		},
	}
}

func newOrchestrator(t *testing.T, source *fakeSource, llm *fakeLLM, persister Persister, opts Options) *Orchestrator {
	t.Helper()
	ragSvc := rag.NewService(embedding.NewLocalEmbedder(32), vectorstore.NewMemoryStore(), rag.Options{})
	synth := insights.NewSynthesizer(llm, ragSvc, model.DefaultCatalog(), insights.Options{})
	return NewOrchestrator(source, scoring.NewEngine(model.DefaultCatalog()), ragSvc, synth, persister, opts)
}

func TestRunDryRun(t *testing.T) {
	source := &fakeSource{rec: richRecord()}
	persister := &fakePersister{id: 1}
	llm := &fakeLLM{response: "STRENGTHS:\n- strong pricing"}
	orch := newOrchestrator(t, source, llm, persister, Options{DryRun: true})

	result, err := orch.Run(context.Background(), "https://acme.com")
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "acme.com", result.Record.Domain)
	require.NotNil(t, result.Scores)
	assert.Greater(t, result.Scores.ScoredCount(), 0)
	require.NotNil(t, result.Validation)
	assert.True(t, result.Validation.IsConsistent)
	require.NotNil(t, result.Insights)

	assert.False(t, persister.called)
	assert.False(t, result.Persisted)
}

func TestRunPersists(t *testing.T) {
	source := &fakeSource{rec: richRecord()}
	persister := &fakePersister{id: 42}
	llm := &fakeLLM{response: "STRENGTHS:\n- strong pricing"}
	orch := newOrchestrator(t, source, llm, persister, Options{})

	result, err := orch.Run(context.Background(), "https://acme.com")
	require.NoError(t, err)

	assert.True(t, persister.called)
	assert.True(t, result.Persisted)
	assert.Equal(t, int64(42), result.CompetitorID)
}

func TestRunExtractionFailureIsFatal(t *testing.T) {
	source := &fakeSource{err: errors.New("connection timed out")}
	orch := newOrchestrator(t, source, &fakeLLM{}, nil, Options{})

	_, err := orch.Run(context.Background(), "https://down.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extraction failed")
}

func TestRunScoringFailureIsFatal(t *testing.T) {
	source := &fakeSource{rec: &model.CompetitorRecord{Name: "NoDomain"}}
	orch := newOrchestrator(t, source, &fakeLLM{}, nil, Options{})

	_, err := orch.Run(context.Background(), "https://nodomain.example")
	require.Error(t, err)
	assert.ErrorIs(t, err, scoring.ErrMissingDomain)
}

func TestRunLLMFailureDegradesToCandidates(t *testing.T) {
	source := &fakeSource{rec: richRecord()}
	llm := &fakeLLM{err: errors.New("model endpoint down")}
	orch := newOrchestrator(t, source, llm, nil, Options{DryRun: true})

	result, err := orch.Run(context.Background(), "https://acme.com")
	require.NoError(t, err)

	// Deterministic candidates stand in for the narrative.
	require.NotNil(t, result.Insights)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[len(result.Warnings)-1], "insight narrative degraded")
}

func TestRunNoEvidenceSkipsInsights(t *testing.T) {
	source := &fakeSource{rec: &model.CompetitorRecord{Domain: "bare.com", Name: "Bare"}}
	orch := newOrchestrator(t, source, &fakeLLM{}, nil, Options{DryRun: true})

	result, err := orch.Run(context.Background(), "https://bare.com")
	require.NoError(t, err)

	assert.Nil(t, result.Insights)
	assert.Contains(t, result.Warnings, "insights skipped: no scored attributes")
}

func TestRunPersistenceFailureKeepsResults(t *testing.T) {
	source := &fakeSource{rec: richRecord()}
	persister := &fakePersister{err: errors.New("database unreachable")}
	llm := &fakeLLM{response: "STRENGTHS:\n- strong pricing"}
	orch := newOrchestrator(t, source, llm, persister, Options{})

	result, err := orch.Run(context.Background(), "https://acme.com")
	require.NoError(t, err)

	assert.False(t, result.Persisted)
	assert.NotNil(t, result.Scores)
	assert.NotNil(t, result.Insights)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[len(result.Warnings)-1], "persistence failed")
}

func TestRunIndexesRecordForLaterRuns(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	ragSvc := rag.NewService(embedding.NewLocalEmbedder(32), store, rag.Options{})
	synth := insights.NewSynthesizer(&fakeLLM{response: "STRENGTHS:\n- ok"}, ragSvc, model.DefaultCatalog(), insights.Options{})
	orch := NewOrchestrator(&fakeSource{rec: richRecord()}, scoring.NewEngine(model.DefaultCatalog()), ragSvc, synth, nil, Options{DryRun: true})

	_, err := orch.Run(context.Background(), "https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}
