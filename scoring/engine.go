package scoring

import (
	"errors"

	"github.com/smallnest/compintel/model"
)

// ErrMissingDomain reports a structurally invalid record. It is the only
// failure CalculateScores can return; everything else resolves to null
// scores.
var ErrMissingDomain = errors.New("competitor record has no domain")

// Evaluation is the outcome of applying one attribute rule to a record.
// A nil RawScore means the rule found no usable evidence.
type Evaluation struct {
	RawScore   *float64
	Confidence float64
	Evidence   []string
}

// RuleFunc extracts an Evaluation for one attribute from a record.
type RuleFunc func(rec *model.CompetitorRecord) Evaluation

// Engine computes ScoreSets from competitor records. It is stateless
// after construction and safe for concurrent use.
type Engine struct {
	catalog []model.AttributeDefinition
	rules   map[string]RuleFunc
}

// NewEngine creates an engine with the given catalog and the default rule
// table.
func NewEngine(catalog []model.AttributeDefinition) *Engine {
	return NewEngineWithRules(catalog, DefaultRules())
}

// NewEngineWithRules creates an engine with an explicit rule table.
// Catalog attributes without a rule always score null.
func NewEngineWithRules(catalog []model.AttributeDefinition, rules map[string]RuleFunc) *Engine {
	return &Engine{
		catalog: append([]model.AttributeDefinition(nil), catalog...),
		rules:   rules,
	}
}

// Catalog returns a copy of the engine's attribute catalog.
func (e *Engine) Catalog() []model.AttributeDefinition {
	return append([]model.AttributeDefinition(nil), e.catalog...)
}

// CalculateScores scores the record against every catalog attribute and
// aggregates the two axis scores. The returned ScoreSet always contains
// every catalog code. It is a pure function of the record.
func (e *Engine) CalculateScores(rec *model.CompetitorRecord) (*model.ScoreSet, error) {
	if rec == nil || model.NormalizeDomain(rec.Domain) == "" {
		return nil, ErrMissingDomain
	}

	set := &model.ScoreSet{
		Attributes: make(map[string]model.AttributeScore, len(e.catalog)),
	}

	for _, def := range e.catalog {
		score := model.AttributeScore{}
		if rule, ok := e.rules[def.Code]; ok {
			eval := rule(rec)
			if eval.RawScore != nil {
				score.RawScore = model.Float(clamp(*eval.RawScore, 0, 100))
				score.Confidence = clamp(eval.Confidence, 0, 1)
				score.Evidence = eval.Evidence
			}
		}
		set.Attributes[def.Code] = score
	}

	set.XScore = e.axisScore(set, model.AxisStrategy)
	set.YScore = e.axisScore(set, model.AxisComplexity)
	return set, nil
}

// axisScore computes the confidence-weighted mean over the axis. Unscored
// attributes contribute zero weight. If every scored attribute has zero
// confidence, the plain mean keeps the axis non-null per the invariant
// that only a fully unscored axis is null.
func (e *Engine) axisScore(set *model.ScoreSet, axis model.Axis) *float64 {
	var weighted, weight, plain float64
	scored := 0

	for _, def := range e.catalog {
		if def.Axis != axis {
			continue
		}
		attr := set.Attributes[def.Code]
		if !attr.Scored() {
			continue
		}
		scored++
		plain += *attr.RawScore
		weighted += *attr.RawScore * attr.Confidence
		weight += attr.Confidence
	}

	if scored == 0 {
		return nil
	}
	if weight == 0 {
		return model.Float(plain / float64(scored))
	}
	return model.Float(weighted / weight)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
