package assumption

import (
	"sync"

	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/model"
)

// Effect is the quantified consequence of one classification.
type Effect struct {
	Taxonomy          model.Taxonomy
	MinutesMultiplier *float64
	MinutesCap        *int
	LineupMultiplier  *float64
	Confidence        model.Confidence
	// Severity orders classifications of one taxonomy, higher is more
	// restrictive. Minutes and lineup effects share one level.
	Severity int
	// Label is the human name used in reasons. Defaults to the
	// classification's label.
	Label string
}

// Severity levels of the status table.
const (
	SeverityAvailable    = 1
	SeverityProbable     = 2
	SeverityQuestionable = 3
	SeverityDoubtful     = 4
	SeverityOut          = 5

	// SeverityFlat is shared by every minutes and lineup effect.
	SeverityFlat = 1
)

func defaultEffects() map[model.Classification]Effect {
	status := func(mult float64, conf model.Confidence, sev int) Effect {
		return Effect{Taxonomy: model.TaxonomyStatus, MinutesMultiplier: model.Float(mult), Confidence: conf, Severity: sev}
	}
	return map[model.Classification]Effect{
		model.Out:          status(0.0, model.ConfidenceHigh, SeverityOut),
		model.Doubtful:     status(0.25, model.ConfidenceLow, SeverityDoubtful),
		model.Questionable: status(0.85, model.ConfidenceLow, SeverityQuestionable),
		model.Probable:     status(0.95, model.ConfidenceMedium, SeverityProbable),
		model.Available:    status(1.0, model.ConfidenceHigh, SeverityAvailable),

		model.Restriction: {Taxonomy: model.TaxonomyMinutes, MinutesCap: model.Minutes(24), Confidence: model.ConfidenceMedium, Severity: SeverityFlat},
		model.Limited:     {Taxonomy: model.TaxonomyMinutes, MinutesCap: model.Minutes(28), Confidence: model.ConfidenceMedium, Severity: SeverityFlat},
		model.FullGo:      {Taxonomy: model.TaxonomyMinutes, Confidence: model.ConfidenceMedium, Severity: SeverityFlat},

		model.Starting: {Taxonomy: model.TaxonomyLineup, LineupMultiplier: model.Float(1.15), Confidence: model.ConfidenceMedium, Severity: SeverityFlat},
		model.Bench:    {Taxonomy: model.TaxonomyLineup, LineupMultiplier: model.Float(0.75), Confidence: model.ConfidenceMedium, Severity: SeverityFlat},
	}
}

// RuleBook maps classifications to effects. The tables are data: lookups
// never branch on a classification.
type RuleBook struct {
	mu      sync.RWMutex
	effects map[model.Classification]Effect
}

// NewRuleBook returns the built-in tables with overrides applied on top.
func NewRuleBook(overrides map[model.Classification]Effect) *RuleBook {
	b := &RuleBook{effects: defaultEffects()}
	for c, e := range overrides {
		b.Set(c, e)
	}
	return b
}

// Set adds the effect of c or merges e into the existing one: zero fields
// of e keep the current value, so an override of a built-in row that only
// names a multiplier keeps its taxonomy, severity and confidence. A new
// classification without a taxonomy is rejected and Set reports false.
func (b *RuleBook) Set(c model.Classification, e Effect) bool {
	if c == "" || c == model.Unknown {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if cur, ok := b.effects[c]; ok {
		e = merge(cur, e)
	}
	if e.Taxonomy == "" {
		return false
	}
	if e.Severity <= 0 {
		e.Severity = SeverityFlat
	}
	if e.Confidence == "" {
		e.Confidence = model.ConfidenceMedium
	}
	b.effects[c] = e
	return true
}

func merge(cur, e Effect) Effect {
	if e.Taxonomy == "" {
		e.Taxonomy = cur.Taxonomy
	}
	if e.MinutesMultiplier == nil {
		e.MinutesMultiplier = cur.MinutesMultiplier
	}
	if e.MinutesCap == nil {
		e.MinutesCap = cur.MinutesCap
	}
	if e.LineupMultiplier == nil {
		e.LineupMultiplier = cur.LineupMultiplier
	}
	if e.Confidence == "" {
		e.Confidence = cur.Confidence
	}
	// A row moved to another taxonomy does not inherit its old ordering.
	if e.Severity <= 0 && e.Taxonomy == cur.Taxonomy {
		e.Severity = cur.Severity
	}
	if e.Label == "" {
		e.Label = cur.Label
	}
	return e
}

// Lookup returns the effect of c.
func (b *RuleBook) Lookup(c model.Classification) (Effect, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.effects[c]
	if !ok {
		return Effect{}, false
	}
	if e.Label == "" {
		e.Label = c.Label()
	}
	return e, true
}

// Severity returns the severity of c, or 0 when c has no effect.
func (b *RuleBook) Severity(c model.Classification) int {
	e, ok := b.Lookup(c)
	if !ok {
		return 0
	}
	return e.Severity
}
