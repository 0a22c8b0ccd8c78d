// Package repository holds the assumption log and the projection store.
package repository

import (
	"context"

	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/model"
)

// AssumptionStore is the append-only assumption log. The active record of
// a (player, game, kind) slot is the last one appended to it.
type AssumptionStore interface {
	// Append adds a record. Records are never updated.
	Append(ctx context.Context, a model.Assumption) error
	// Active returns the current record of one slot.
	Active(ctx context.Context, key model.AssumptionKey) (model.Assumption, bool, error)
	// ActiveForPlayer returns the current record of every slot of a player,
	// oldest first.
	ActiveForPlayer(ctx context.Context, playerID string) ([]model.Assumption, error)
	// History returns every record of a player, oldest first.
	History(ctx context.Context, playerID string) ([]model.Assumption, error)
}

// ProjectionStore keeps one immutable projection per (run, player, game).
type ProjectionStore interface {
	// SaveProjection records p. A second projection for the same run,
	// player and game returns ErrDuplicate.
	SaveProjection(ctx context.Context, p model.PlayerProjection) error
	// Projections returns a run in insertion order. Returns ErrNotFound
	// for an unknown run.
	Projections(ctx context.Context, runID string) ([]model.PlayerProjection, error)
	// TopN returns the n best projections of a run ordered by PRA desc,
	// then player id asc.
	TopN(ctx context.Context, runID string, n int) ([]model.PlayerProjection, error)
}

// Store is both stores behind one handle.
type Store interface {
	AssumptionStore
	ProjectionStore
	Close() error
}

func validAssumption(a model.Assumption) bool {
	return a.ID != "" && a.PlayerID != "" && a.Kind != ""
}

func validProjection(p model.PlayerProjection) bool {
	return p.RunID != "" && p.PlayerID != ""
}

func projectionKey(p model.PlayerProjection) [3]string {
	return [3]string{p.RunID, p.PlayerID, p.GameID}
}

// rankBefore orders a leaderboard: PRA desc, then player id asc.
func rankBefore(a, b model.PlayerProjection) bool {
	if a.PRA != b.PRA {
		return a.PRA > b.PRA
	}
	if a.PlayerID != b.PlayerID {
		return a.PlayerID < b.PlayerID
	}
	return a.GameID < b.GameID
}
