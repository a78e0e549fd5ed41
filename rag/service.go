package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/smallnest/compintel/embedding"
	"github.com/smallnest/compintel/log"
	"github.com/smallnest/compintel/model"
	"github.com/smallnest/compintel/vectorstore"
)

// Context types partitioning the vector store.
const (
	ContextTypeExtraction = "extraction"
	ContextTypeInsight    = "insight"
)

// DefaultSimilarityThreshold is the inclusive lower bound used by history
// validation when the caller passes no threshold.
const DefaultSimilarityThreshold = 0.85

// summaryLimit bounds the serialized extracted-data block inside a prompt.
const summaryLimit = 200

// Options configures a Service. Zero values get sensible defaults.
type Options struct {
	// Timeout bounds every embedder and vector store call. Default 10s.
	Timeout time.Duration
	// MinListOverlap is the Jaccard overlap below which two list-valued
	// fields count as diverging. Default 0.5.
	MinListOverlap float64
	// ValidationCandidates caps how many prior records validation
	// compares against. Default 10.
	ValidationCandidates int
	Logger               log.Logger
}

// Service orchestrates retrieval from the vector store for prompt
// grounding and consistency validation. Stateless across runs; safe for
// concurrent use.
type Service struct {
	embedder       embedding.Embedder
	store          vectorstore.Store
	timeout        time.Duration
	minListOverlap float64
	candidates     int
	logger         log.Logger
}

// NewService creates a RAG service over the given embedder and store.
func NewService(embedder embedding.Embedder, store vectorstore.Store, opts Options) *Service {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MinListOverlap == 0 {
		opts.MinListOverlap = 0.5
	}
	if opts.ValidationCandidates == 0 {
		opts.ValidationCandidates = 10
	}
	if opts.Logger == nil {
		opts.Logger = &log.NoOpLogger{}
	}
	return &Service{
		embedder:       embedder,
		store:          store,
		timeout:        opts.Timeout,
		minListOverlap: opts.MinListOverlap,
		candidates:     opts.ValidationCandidates,
		logger:         opts.Logger,
	}
}

// Retrieval is the outcome of a context lookup. Degraded marks a backend
// failure; Entries is then empty and Err holds the cause. An empty
// non-degraded Retrieval means there simply was no similar history.
type Retrieval struct {
	Entries  []model.ContextEntry
	Degraded bool
	Err      error
}

// GetRelevantContext embeds the query and returns up to limit entries of
// the given context type, ordered by descending similarity. Backend
// failures degrade to an empty result.
func (s *Service) GetRelevantContext(ctx context.Context, query, contextType string, limit int) Retrieval {
	if limit <= 0 {
		return Retrieval{Entries: []model.ContextEntry{}}
	}

	matches, err := s.search(ctx, query, vectorstore.Filter{ContextType: contextType}, limit)
	if err != nil {
		s.logger.Warn("context retrieval degraded: %v", err)
		return Retrieval{Entries: []model.ContextEntry{}, Degraded: true, Err: err}
	}

	entries := make([]model.ContextEntry, 0, len(matches))
	for _, m := range matches {
		entries = append(entries, model.ContextEntry{
			Domain:        m.Record.Domain,
			Similarity:    m.Similarity,
			ExtractedData: m.Record.Data,
			ContextType:   m.Record.ContextType,
		})
	}
	return Retrieval{Entries: entries}
}

// BuildRAGPrompt augments basePrompt with up to contextLimit evidence
// blocks retrieved for the query. When retrieval yields nothing (no
// history, or degraded backend) the base prompt is returned unchanged.
func (s *Service) BuildRAGPrompt(ctx context.Context, basePrompt, query, contextType string, contextLimit int) string {
	retrieval := s.GetRelevantContext(ctx, query, contextType, contextLimit)
	if len(retrieval.Entries) == 0 {
		return basePrompt
	}

	var sb strings.Builder
	sb.WriteString(basePrompt)
	sb.WriteString("\n\nRelevant historical context:\n")
	for i, entry := range retrieval.Entries {
		sb.WriteString(fmt.Sprintf("[%d] domain: %s (similarity %.2f)\n", i+1, entry.Domain, entry.Similarity))
		sb.WriteString(summarizeData(entry.ExtractedData))
		sb.WriteString("\n")
	}
	sb.WriteString("\nUse the historical context to stay consistent with previously extracted data. Do not invent facts that contradict it.")
	return sb.String()
}

// ValidationResult reports how newly extracted data compares against
// similar prior records.
type ValidationResult struct {
	IsConsistent   bool     `json:"is_consistent"`
	SimilarDomains []string `json:"similar_domains"`
	Warnings       []string `json:"warnings"`
	// Degraded is set when the retrieval backend was unavailable and no
	// comparison could be made.
	Degraded bool `json:"degraded,omitempty"`
}

// ValidateAgainstHistory compares newData against every stored record
// whose similarity is at or above threshold (inclusive). A re-analysis is
// compared against its own prior snapshot like any other record. Any
// overlapping field diverging beyond tolerance yields one warning.
// Absence of history is not inconsistency.
func (s *Service) ValidateAgainstHistory(ctx context.Context, newData map[string]any, domain string, threshold float64) *ValidationResult {
	result := &ValidationResult{
		IsConsistent:   true,
		SimilarDomains: []string{},
		Warnings:       []string{},
	}
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	domain = model.NormalizeDomain(domain)
	query := domain + " " + summarizeData(newData)
	filter := vectorstore.Filter{ContextType: ContextTypeExtraction}

	matches, err := s.search(ctx, query, filter, s.candidates)
	if err != nil {
		s.logger.Warn("history validation degraded: %v", err)
		result.Degraded = true
		return result
	}

	for _, m := range matches {
		if m.Similarity < threshold {
			continue
		}
		result.SimilarDomains = append(result.SimilarDomains, m.Record.Domain)
		sameDomain := m.Record.Domain == domain
		result.Warnings = append(result.Warnings, s.compareFields(newData, m.Record.Domain, m.Record.Data, sameDomain)...)
	}

	result.IsConsistent = len(result.Warnings) == 0
	return result
}

// IndexRecord embeds the record's facts and upserts the snapshot so later
// runs can retrieve it. The vector store owns the persisted history.
func (s *Service) IndexRecord(ctx context.Context, rec *model.CompetitorRecord, contextType string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	vector, err := s.embedder.EmbedQuery(ctx, rec.SearchText())
	if err != nil {
		return fmt.Errorf("failed to embed record for %s: %w", rec.Domain, err)
	}

	err = s.store.Upsert(ctx, vectorstore.Record{
		ID:          contextType + ":" + rec.Domain,
		Domain:      rec.Domain,
		ContextType: contextType,
		Embedding:   vector,
		Data:        rec.Facts(),
		UpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to index record for %s: %w", rec.Domain, err)
	}
	return nil
}

// search is the shared retrieval primitive: embed, query, both bounded by
// the service timeout.
func (s *Service) search(ctx context.Context, query string, filter vectorstore.Filter, topK int) ([]vectorstore.Match, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}

	matches, err := s.store.Query(ctx, vector, filter, topK)
	if err != nil {
		return nil, fmt.Errorf("vector store query failed: %w", err)
	}
	return matches, nil
}

// compareFields checks the overlapping structured fields of two fact maps
// and returns one warning per diverging field. The name field only
// carries signal within the same domain; distinct competitors are
// expected to have distinct names.
func (s *Service) compareFields(newData map[string]any, histDomain string, histData map[string]any, sameDomain bool) []string {
	var warnings []string

	for _, field := range []string{"servicios", "integraciones"} {
		newList, newOK := stringList(newData[field])
		histList, histOK := stringList(histData[field])
		if !newOK || !histOK || len(newList) == 0 || len(histList) == 0 {
			continue
		}
		if overlap := jaccard(newList, histList); overlap < s.minListOverlap {
			warnings = append(warnings, fmt.Sprintf(
				"field %q diverges from similar record %s: %v vs %v (overlap %.2f)",
				field, histDomain, newList, histList, overlap))
		}
	}

	scalarFields := []string{"segmento"}
	if sameDomain {
		scalarFields = append(scalarFields, "name")
	}
	for _, field := range scalarFields {
		newVal, newOK := stringValue(newData[field])
		histVal, histOK := stringValue(histData[field])
		if !newOK || !histOK || newVal == "" || histVal == "" {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(newVal), strings.TrimSpace(histVal)) {
			warnings = append(warnings, fmt.Sprintf(
				"field %q diverges from similar record %s: %q vs %q",
				field, histDomain, newVal, histVal))
		}
	}

	return warnings
}

// summarizeData renders a fact map as compact JSON truncated to
// summaryLimit characters.
func summarizeData(data map[string]any) string {
	if len(data) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	summary := string(raw)
	if len(summary) > summaryLimit {
		summary = summary[:summaryLimit] + "..."
	}
	return summary
}

// stringList coerces list-shaped fact values ([]string or []any of
// strings) into a []string.
func stringList(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	default:
		return nil, false
	}
}

func stringValue(v any) (string, bool) {
	str, ok := v.(string)
	return str, ok
}

// jaccard computes case-insensitive Jaccard overlap of two label sets.
func jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, item := range a {
		setA[strings.ToLower(strings.TrimSpace(item))] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, item := range b {
		setB[strings.ToLower(strings.TrimSpace(item))] = struct{}{}
	}

	inter := 0
	for item := range setA {
		if _, ok := setB[item]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
