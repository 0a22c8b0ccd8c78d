// Package resolve maps raw subject names to roster players.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/adrg/strutil"
	strmetrics "github.com/adrg/strutil/metrics"

	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/model"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/logger"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/metrics"
)

// Match is a successful resolution.
type Match struct {
	Player model.Player
	Tier   model.MatchTier
	Score  float64
}

// Resolver resolves names in order: exact, alias then exact, fuzzy. It
// reads the roster and alias table but never writes them.
type Resolver struct {
	roster  *RosterCache
	aliases *AliasTable
	floor   float64
	margin  float64
	metric  strutil.StringMetric
	logger  logger.Logger

	unresolved atomic.Int64
	ambiguous  atomic.Int64
}

// New creates a Resolver over the given caches. A nil alias table gets the
// built-in nicknames.
func New(roster *RosterCache, aliases *AliasTable, opts ...Option) *Resolver {
	if roster == nil {
		roster = NewRosterCache()
	}
	if aliases == nil {
		aliases = NewAliasTable(nil)
	}
	r := &Resolver{
		roster:  roster,
		aliases: aliases,
		floor:   DefaultFuzzyFloor,
		margin:  DefaultFuzzyMargin,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metric == nil {
		lev := strmetrics.NewLevenshtein()
		lev.CaseSensitive = false
		r.metric = lev
	}
	if r.logger == nil {
		r.logger = logger.Get().Named("resolver")
	}
	return r
}

// Resolve maps raw to a player using the current roster snapshot.
func (r *Resolver) Resolve(ctx context.Context, raw string) (Match, error) {
	return r.ResolveIn(ctx, r.roster.Snapshot(), raw)
}

// ResolveIn maps raw to a player in the given roster view. Failures wrap
// ErrUnresolved or ErrAmbiguous and are counted.
func (r *Resolver) ResolveIn(ctx context.Context, roster *Roster, raw string) (Match, error) {
	m, err := r.resolve(roster, raw)
	if err != nil {
		r.fail(ctx, raw, err)
		return Match{}, err
	}
	metrics.RecordResolution(string(m.Tier))
	return m, nil
}

// ResolveSignal attaches a player to sig.
func (r *Resolver) ResolveSignal(ctx context.Context, roster *Roster, sig model.Signal) (model.ResolvedSignal, error) {
	m, err := r.ResolveIn(ctx, roster, sig.SubjectNameRaw)
	if err != nil {
		return model.ResolvedSignal{}, err
	}
	return model.ResolvedSignal{
		Signal:     sig,
		PlayerID:   m.Player.ID,
		PlayerName: m.Player.Name,
		MatchTier:  m.Tier,
		MatchScore: m.Score,
	}, nil
}

// Unresolved returns the number of names that failed to resolve, ambiguous
// ones included.
func (r *Resolver) Unresolved() int64 { return r.unresolved.Load() }

// Ambiguous returns the number of failures caused by near-tied candidates.
func (r *Resolver) Ambiguous() int64 { return r.ambiguous.Load() }

// Roster returns the cache the resolver reads.
func (r *Resolver) Roster() *RosterCache { return r.roster }

func (r *Resolver) resolve(roster *Roster, raw string) (Match, error) {
	folded := Fold(raw)
	if folded == "" {
		return Match{}, fmt.Errorf("%w: empty name", ErrUnresolved)
	}

	if players := roster.lookup(folded); len(players) > 0 {
		return pick(players, model.MatchExact, folded)
	}
	if canonical, ok := r.aliases.Lookup(raw); ok {
		name := Fold(canonical)
		if players := roster.lookup(name); len(players) > 0 {
			return pick(players, model.MatchAlias, name)
		}
	}
	return r.fuzzy(roster, raw, folded)
}

// pick returns the only player sharing a name. Namesakes cannot be told
// apart.
func pick(players []model.Player, tier model.MatchTier, folded string) (Match, error) {
	if len(players) > 1 {
		return Match{}, fmt.Errorf("%w: %d players named %q", ErrAmbiguous, len(players), folded)
	}
	return Match{Player: players[0], Tier: tier, Score: 1}, nil
}

func (r *Resolver) fuzzy(roster *Roster, raw, folded string) (Match, error) {
	best, second := -1.0, -1.0
	bestIdx := -1
	for i, candidate := range roster.folded {
		score := strutil.Similarity(folded, candidate, r.metric)
		switch {
		case score > best:
			second = best
			best, bestIdx = score, i
		case score > second:
			second = score
		}
	}

	if bestIdx < 0 || best <= r.floor {
		return Match{}, fmt.Errorf("%w: %q (best %.3f)", ErrUnresolved, raw, max(best, 0))
	}
	if second >= 0 && best-second < r.margin {
		return Match{}, fmt.Errorf("%w: %q (best %.3f, runner-up %.3f)", ErrAmbiguous, raw, best, second)
	}
	return Match{Player: roster.players[bestIdx], Tier: model.MatchFuzzy, Score: best}, nil
}

func (r *Resolver) fail(ctx context.Context, raw string, err error) {
	r.unresolved.Add(1)
	reason := "unresolved"
	if errors.Is(err, ErrAmbiguous) {
		r.ambiguous.Add(1)
		reason = "ambiguous"
	}
	metrics.RecordUnresolved(reason)
	r.logger.Debug(ctx, "name not resolved",
		logger.String("name", raw),
		logger.String("reason", reason),
		logger.Error(err),
	)
}
