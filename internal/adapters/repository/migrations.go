package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/logger"
)

// Migration is one schema step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of schema steps. Append only.
var migrations = []Migration{
	{
		Version:     1,
		Description: "assumption log and projections",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS assumptions (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT UNIQUE NOT NULL,
    player_id TEXT NOT NULL,
    game_id TEXT NOT NULL DEFAULT '',
    kind TEXT NOT NULL,
    classification TEXT NOT NULL,
    minutes_multiplier REAL,
    minutes_cap INTEGER,
    lineup_multiplier REAL,
    confidence TEXT NOT NULL,
    reason TEXT NOT NULL,
    source_name TEXT NOT NULL,
    source_tier INTEGER NOT NULL,
    observed_at TEXT NOT NULL,
    created_at TEXT NOT NULL,
    supersedes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS projections (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    player_id TEXT NOT NULL,
    player_name TEXT NOT NULL,
    game_id TEXT NOT NULL DEFAULT '',
    minutes REAL NOT NULL,
    minutes_sd REAL NOT NULL,
    points REAL NOT NULL,
    rebounds REAL NOT NULL,
    assists REAL NOT NULL,
    pra REAL NOT NULL,
    confidence TEXT NOT NULL,
    reasons TEXT NOT NULL,
    risks TEXT NOT NULL,
    created_at TEXT NOT NULL,
    UNIQUE (run_id, player_id, game_id)
);

CREATE INDEX IF NOT EXISTS idx_assumptions_slot ON assumptions(player_id, game_id, kind, seq);
CREATE INDEX IF NOT EXISTS idx_projections_run ON projections(run_id, pra);
`)
			return err
		},
	},
}

func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}

// migrate brings the schema up to date, tracking progress in PRAGMA
// user_version.
func migrate(ctx context.Context, conn *sql.DB, log logger.Logger) error {
	var current int
	if err := conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if current >= latestVersion() {
		return nil
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		log.Info(ctx, "applying migration",
			logger.Int("version", m.Version),
			logger.String("description", m.Description),
		)

		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}
		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
		// user_version cannot be set inside the transaction; the DDL above
		// is idempotent if we stop here.
		if _, err := conn.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			return fmt.Errorf("setting version %d: %w", m.Version, err)
		}
	}
	return nil
}
