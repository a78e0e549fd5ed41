package scoring

import (
	"fmt"
	"strings"

	"github.com/smallnest/compintel/model"
)

// Signal keyword tables for the keyword-driven rules. Matching is
// case-insensitive substring over service and integration labels.
var (
	innovationSignals = []string{"ai", "machine learning", "ml", "automation", "analytics", "prediction", "api"}
	securitySignals   = []string{"soc 2", "soc2", "iso 27001", "gdpr", "hipaa", "sso", "2fa", "mfa", "encryption", "compliance", "audit"}
)

// DefaultRules returns the default attribute rule table. Every scoring
// constant lives here, not in the engine.
func DefaultRules() map[string]RuleFunc {
	return map[string]RuleFunc{
		model.AttrPriceCompetitiveness:    priceCompetitiveness,
		model.AttrFeatureSetCompleteness:  countRule("servicio", 40, 10, 0.5, 0.05, recordServicios),
		model.AttrIntegrationCapabilities: countRule("integracion", 30, 12, 0.45, 0.08, recordIntegraciones),
		model.AttrMarketReach:             countRule("source", 30, 15, 0.3, 0.1, recordSources),
		model.AttrInnovationScore:         keywordRule(innovationSignals, 45, 15, 0.3, 0.2),
		model.AttrSecurityCompliance:      keywordRule(securitySignals, 40, 20, 0.5, 0.15),
		model.AttrBrandSentiment:          numericFactRule(model.AttrBrandSentiment),
		model.AttrCustomerSatisfaction:    numericFactRule(model.AttrCustomerSatisfaction),
		model.AttrEaseOfUse:               numericFactRule(model.AttrEaseOfUse),
		model.AttrSupportQuality:          numericFactRule(model.AttrSupportQuality),
	}
}

func recordServicios(rec *model.CompetitorRecord) []string     { return rec.Servicios }
func recordIntegraciones(rec *model.CompetitorRecord) []string { return rec.Integraciones }
func recordSources(rec *model.CompetitorRecord) []string       { return rec.Sources }

// priceCompetitiveness scores pricing transparency: explicit pricing with
// listed products ranks higher than a bare pricing page.
func priceCompetitiveness(rec *model.CompetitorRecord) Evaluation {
	if !rec.HasExplicitPricing() {
		return Evaluation{}
	}

	products := len(rec.Pricing.Products)
	if products == 0 {
		return Evaluation{
			RawScore:   model.Float(55),
			Confidence: 0.5,
			Evidence:   []string{"pricing:explicit"},
		}
	}

	return Evaluation{
		RawScore:   model.Float(min(100, 60+8*float64(products))),
		Confidence: min(0.9, 0.6+0.1*float64(products)),
		Evidence:   []string{"pricing:explicit", fmt.Sprintf("pricing:products:%d", products)},
	}
}

// countRule scores by evidence volume: base + step per item, confidence
// growing with the item count.
func countRule(tag string, base, step, confBase, confStep float64, items func(*model.CompetitorRecord) []string) RuleFunc {
	return func(rec *model.CompetitorRecord) Evaluation {
		list := items(rec)
		if len(list) == 0 {
			return Evaluation{}
		}

		evidence := make([]string, 0, len(list))
		for _, item := range list {
			evidence = append(evidence, tag+":"+item)
		}
		n := float64(len(list))
		return Evaluation{
			RawScore:   model.Float(min(100, base+step*n)),
			Confidence: min(0.9, confBase+confStep*n),
			Evidence:   evidence,
		}
	}
}

// keywordRule scores by distinct signal keywords found among the record's
// service and integration labels.
func keywordRule(signals []string, base, step, confBase, confStep float64) RuleFunc {
	return func(rec *model.CompetitorRecord) Evaluation {
		labels := make([]string, 0, len(rec.Servicios)+len(rec.Integraciones))
		labels = append(labels, rec.Servicios...)
		labels = append(labels, rec.Integraciones...)

		var evidence []string
		for _, signal := range signals {
			for _, label := range labels {
				if containsToken(label, signal) {
					evidence = append(evidence, "signal:"+signal)
					break
				}
			}
		}
		if len(evidence) == 0 {
			return Evaluation{}
		}

		hits := float64(len(evidence))
		return Evaluation{
			RawScore:   model.Float(min(100, base+step*hits)),
			Confidence: min(0.9, confBase+confStep*hits),
			Evidence:   evidence,
		}
	}
}

// numericFactRule reads a pre-scored fact in [0,100] from the record's
// overflow bag, keyed by the attribute code. These perception attributes
// (sentiment, satisfaction, usability, support) come from upstream
// sources the scraper cannot derive itself.
func numericFactRule(code string) RuleFunc {
	return func(rec *model.CompetitorRecord) Evaluation {
		value, ok := numericFact(rec.Extra, code)
		if !ok {
			return Evaluation{}
		}
		return Evaluation{
			RawScore:   model.Float(value),
			Confidence: 0.7,
			Evidence:   []string{"fact:" + code},
		}
	}
}

func numericFact(extra map[string]any, key string) (float64, bool) {
	if extra == nil {
		return 0, false
	}
	switch v := extra[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// containsToken reports whether the label contains the signal as a whole
// word or phrase. Short signals like "ai" must not match inside words
// like "email".
func containsToken(label, signal string) bool {
	label = strings.ToLower(label)
	signal = strings.ToLower(signal)

	idx := 0
	for {
		i := strings.Index(label[idx:], signal)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(signal)
		startOK := start == 0 || !isWordChar(label[start-1])
		endOK := end == len(label) || !isWordChar(label[end])
		if startOK && endOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}
