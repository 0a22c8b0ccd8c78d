// Package assumption turns resolved signals into quantified assumptions
// and arbitrates between competing ones.
package assumption

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/model"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/logger"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/metrics"
)

const (
	lockStripes    = 64
	maxReasonQuote = 100
)

// Store is the append-only assumption log the engine writes to. The store
// decides what is active; the engine only reads it back.
type Store interface {
	// Active returns the current record of one slot.
	Active(ctx context.Context, key model.AssumptionKey) (model.Assumption, bool, error)
	// ActiveForPlayer returns the current record of every slot of a player.
	ActiveForPlayer(ctx context.Context, playerID string) ([]model.Assumption, error)
	// Append adds a record. Records are never updated.
	Append(ctx context.Context, a model.Assumption) error
}

// Decision is what Apply did with a signal.
type Decision string

const (
	Created  Decision = "created"
	Replaced Decision = "replaced"
	Rejected Decision = "rejected"
	Ignored  Decision = "ignored"
)

// Outcome reports one Apply call. Assumption is the candidate record, and
// was stored only for Created and Replaced. Prior is the record it was
// weighed against, if any.
type Outcome struct {
	Decision   Decision
	Assumption model.Assumption
	Prior      *model.Assumption
}

// Stored reports whether the candidate was appended.
func (o Outcome) Stored() bool {
	return o.Decision == Created || o.Decision == Replaced
}

// Engine applies the rule book to resolved signals. Apply calls for one
// player are serialized so two near-simultaneous signals cannot both win.
type Engine struct {
	book   *RuleBook
	store  Store
	now    func() time.Time
	newID  func() string
	logger logger.Logger
	locks  [lockStripes]sync.Mutex
}

// New creates an Engine writing to store.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.book == nil {
		e.book = NewRuleBook(nil)
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("assumption")
	}
	return e
}

// RuleBook returns the engine's tables.
func (e *Engine) RuleBook() *RuleBook { return e.book }

// Build maps a signal to its candidate assumption without touching the
// store. ok is false when the classification has no effect.
func (e *Engine) Build(sig model.ResolvedSignal) (model.Assumption, bool) {
	effect, ok := e.book.Lookup(sig.Classification)
	if !ok {
		return model.Assumption{}, false
	}
	return model.Assumption{
		ID:                e.newID(),
		PlayerID:          sig.PlayerID,
		GameID:            sig.GameID,
		Kind:              effect.Taxonomy,
		Classification:    sig.Classification,
		MinutesMultiplier: copyFloat(effect.MinutesMultiplier),
		MinutesCap:        copyInt(effect.MinutesCap),
		LineupMultiplier:  copyFloat(effect.LineupMultiplier),
		Confidence:        effect.Confidence,
		Reason:            reason(effect.Label, sig),
		SourceName:        sig.SourceName,
		SourceTier:        sig.SourceTier,
		ObservedAt:        sig.ObservedAt,
		CreatedAt:         e.now().UTC(),
	}, true
}

// Apply builds the assumption for sig, weighs it against the active record
// of its slot and appends it when it wins. Only store failures are errors.
func (e *Engine) Apply(ctx context.Context, sig model.ResolvedSignal) (Outcome, error) {
	if sig.PlayerID == "" {
		return Outcome{}, ErrNoPlayer
	}
	candidate, ok := e.Build(sig)
	if !ok {
		metrics.RecordAssumption(string(Ignored))
		e.logger.Debug(ctx, "classification has no effect",
			logger.String("player_id", sig.PlayerID),
			logger.String("classification", string(sig.Classification)),
		)
		return Outcome{Decision: Ignored}, nil
	}

	mu := e.stripe(sig.PlayerID)
	mu.Lock()
	defer mu.Unlock()

	out := Outcome{Decision: Created, Assumption: candidate}
	prior, found, err := e.store.Active(ctx, candidate.Key())
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: active: %v", ErrStore, err)
	}
	if found {
		out.Prior = &prior
		if !Wins(e.claim(candidate), e.claim(prior)) {
			out.Decision = Rejected
			metrics.RecordAssumption(string(Rejected))
			e.logger.Debug(ctx, "assumption rejected",
				logger.String("player_id", candidate.PlayerID),
				logger.String("kind", string(candidate.Kind)),
				logger.String("candidate", string(candidate.Classification)),
				logger.String("active", string(prior.Classification)),
				logger.Int("candidate_tier", candidate.SourceTier),
				logger.Int("active_tier", prior.SourceTier),
			)
			return out, nil
		}
		out.Decision = Replaced
		out.Assumption.Supersedes = prior.ID
	}

	if err := e.store.Append(ctx, out.Assumption); err != nil {
		return Outcome{}, fmt.Errorf("%w: append: %v", ErrStore, err)
	}
	metrics.RecordAssumption(string(out.Decision))
	e.logger.Info(ctx, "assumption "+string(out.Decision),
		logger.String("id", out.Assumption.ID),
		logger.String("player_id", out.Assumption.PlayerID),
		logger.String("game_id", out.Assumption.GameID),
		logger.String("classification", string(out.Assumption.Classification)),
		logger.String("source", out.Assumption.SourceName),
	)
	return out, nil
}

// Active returns the current assumptions of a player, one per slot.
func (e *Engine) Active(ctx context.Context, playerID string) ([]model.Assumption, error) {
	list, err := e.store.ActiveForPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("%w: active for player: %v", ErrStore, err)
	}
	return list, nil
}

func (e *Engine) claim(a model.Assumption) Claim {
	sev := e.book.Severity(a.Classification)
	if sev == 0 {
		sev = SeverityFlat
	}
	return Claim{Severity: sev, Tier: a.SourceTier, ObservedAt: a.ObservedAt}
}

func (e *Engine) stripe(playerID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(playerID))
	return &e.locks[h.Sum32()%lockStripes]
}

// ForGame picks, per kind, the record that applies to gameID: one tied to
// the game wins over one tied to no game. Records for other games are
// dropped.
func ForGame(active []model.Assumption, gameID string) []model.Assumption {
	picked := make(map[model.Taxonomy]model.Assumption, len(active))
	var order []model.Taxonomy
	for _, a := range active {
		if a.GameID != "" && a.GameID != gameID {
			continue
		}
		cur, ok := picked[a.Kind]
		if !ok {
			order = append(order, a.Kind)
		}
		if !ok || (cur.GameID == "" && a.GameID != "") ||
			(cur.GameID == a.GameID && a.CreatedAt.After(cur.CreatedAt)) {
			picked[a.Kind] = a
		}
	}
	out := make([]model.Assumption, 0, len(order))
	for _, k := range order {
		out = append(out, picked[k])
	}
	return out
}

// reason renders "<Label> (<detail>) | Source: <source>: <evidence>".
func reason(label string, sig model.ResolvedSignal) string {
	var b strings.Builder
	b.WriteString(label)
	if sig.Detail != "" {
		b.WriteString(" (")
		b.WriteString(sig.Detail)
		b.WriteString(")")
	}
	b.WriteString(" | Source: ")
	b.WriteString(sig.SourceName)
	if ev := strings.TrimSpace(sig.Evidence); ev != "" {
		b.WriteString(": ")
		r := []rune(ev)
		if len(r) > maxReasonQuote {
			r = r[:maxReasonQuote]
		}
		b.WriteString(string(r))
	}
	return b.String()
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
