package model

import (
	"strings"
)

// CompetitorRecord holds the structured facts extracted for one competitor.
// Domain is the natural key and must be normalized before comparison or
// persistence.
type CompetitorRecord struct {
	Domain        string         `json:"domain"`
	Name          string         `json:"name"`
	URL           string         `json:"url,omitempty"`
	Sources       []string       `json:"sources,omitempty"`
	Servicios     []string       `json:"servicios,omitempty"`
	Integraciones []string       `json:"integraciones,omitempty"`
	Segmento      string         `json:"segmento,omitempty"`
	Pricing       *Pricing       `json:"pricing,omitempty"`
	// Extra keeps facts the extractor recognized but the schema does not
	// model explicitly, keyed by fact name.
	Extra         map[string]any `json:"extra,omitempty"`
}

// Pricing describes the pricing information found for a competitor.
type Pricing struct {
	HasExplicitPricing bool      `json:"has_explicit_pricing"`
	Products           []Product `json:"products,omitempty"`
}

// Product is a single priced offering.
type Product struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price,omitempty"`
	Currency string  `json:"currency,omitempty"`
	Period   string  `json:"period,omitempty"`
}

// NormalizeDomain trims and lowercases a domain name.
func NormalizeDomain(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}

// Normalize canonicalizes the record in place. It must run before the
// record is scored, compared or persisted.
func (r *CompetitorRecord) Normalize() {
	r.Domain = NormalizeDomain(r.Domain)
	r.Name = strings.TrimSpace(r.Name)
}

// HasExplicitPricing reports whether the record carries explicit pricing.
func (r *CompetitorRecord) HasExplicitPricing() bool {
	return r.Pricing != nil && r.Pricing.HasExplicitPricing
}

// Facts returns the record's structured facts as a generic map, the shape
// stored in the vector store and compared during history validation.
func (r *CompetitorRecord) Facts() map[string]any {
	facts := map[string]any{
		"domain": r.Domain,
		"name":   r.Name,
	}
	if len(r.Servicios) > 0 {
		facts["servicios"] = append([]string(nil), r.Servicios...)
	}
	if len(r.Integraciones) > 0 {
		facts["integraciones"] = append([]string(nil), r.Integraciones...)
	}
	if r.Segmento != "" {
		facts["segmento"] = r.Segmento
	}
	if r.Pricing != nil {
		facts["has_explicit_pricing"] = r.Pricing.HasExplicitPricing
	}
	for k, v := range r.Extra {
		if _, exists := facts[k]; !exists {
			facts[k] = v
		}
	}
	return facts
}

// SearchText renders the record as free text for embedding.
func (r *CompetitorRecord) SearchText() string {
	var sb strings.Builder
	sb.WriteString(r.Name)
	sb.WriteString(" ")
	sb.WriteString(r.Domain)
	if r.Segmento != "" {
		sb.WriteString(" segment ")
		sb.WriteString(r.Segmento)
	}
	if len(r.Servicios) > 0 {
		sb.WriteString(" services ")
		sb.WriteString(strings.Join(r.Servicios, " "))
	}
	if len(r.Integraciones) > 0 {
		sb.WriteString(" integrations ")
		sb.WriteString(strings.Join(r.Integraciones, " "))
	}
	return strings.TrimSpace(sb.String())
}

// AttributeScore is the scored outcome for one attribute of one competitor.
// A nil RawScore means there was not enough evidence to score the
// attribute; that is normal data, not a failure.
type AttributeScore struct {
	RawScore   *float64 `json:"raw_score"`
	Confidence float64  `json:"confidence"`
	Evidence   []string `json:"evidence,omitempty"`
}

// Scored reports whether the attribute has a non-nil raw score.
func (a AttributeScore) Scored() bool {
	return a.RawScore != nil
}

// ScoreSet aggregates all attribute scores for one competitor. Attributes
// always contains every catalog code; XScore and YScore are nil only when
// no attribute on the axis could be scored.
type ScoreSet struct {
	XScore     *float64                  `json:"x_score"`
	YScore     *float64                  `json:"y_score"`
	Attributes map[string]AttributeScore `json:"attributes"`
}

// ScoredCount returns the number of attributes with a non-nil raw score.
func (s *ScoreSet) ScoredCount() int {
	n := 0
	for _, attr := range s.Attributes {
		if attr.Scored() {
			n++
		}
	}
	return n
}

// ContextEntry is one retrieval hit handed back by the RAG service. It is
// transient: retrieval builds it per query and never persists it.
type ContextEntry struct {
	Domain        string         `json:"domain"`
	Similarity    float64        `json:"similarity"`
	ExtractedData map[string]any `json:"extracted_data,omitempty"`
	ContextType   string         `json:"context_type"`
}

// InsightSet holds the qualitative narrative derived from a scored
// competitor. Read-only once produced.
type InsightSet struct {
	Strengths     []string `json:"fortalezas_clave"`
	Opportunities []string `json:"oportunidades_mercado"`
	Risks         []string `json:"riesgos_debilidades"`
}

// Empty reports whether no insight category has any entry.
func (s *InsightSet) Empty() bool {
	return len(s.Strengths) == 0 && len(s.Opportunities) == 0 && len(s.Risks) == 0
}

// Float returns a pointer to v. Convenience for building score literals.
func Float(v float64) *float64 {
	return &v
}
