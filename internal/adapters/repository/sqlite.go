package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/model"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/logger"
)

// MemoryPath opens a private in-process database.
const MemoryPath = ":memory:"

const assumptionColumns = `id, player_id, game_id, kind, classification, minutes_multiplier,
	minutes_cap, lineup_multiplier, confidence, reason, source_name, source_tier,
	observed_at, created_at, supersedes`

const projectionColumns = `run_id, player_id, player_name, game_id, minutes, minutes_sd,
	points, rebounds, assists, pra, confidence, reasons, risks, created_at`

// SQLiteStore persists both stores in one SQLite database.
type SQLiteStore struct {
	conn   *sql.DB
	path   string
	logger logger.Logger
}

// OpenSQLite creates or opens the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	cfg := buildConfig(opts)
	memory := path == MemoryPath

	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	pragmas := []string{"PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"}
	if memory {
		// Every connection to :memory: is a separate database.
		conn.SetMaxOpenConns(1)
	} else {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if err := migrate(ctx, conn, cfg.logger); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &SQLiteStore{conn: conn, path: path, logger: cfg.logger}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Append implements AssumptionStore.
func (s *SQLiteStore) Append(ctx context.Context, a model.Assumption) error {
	if !validAssumption(a) {
		return fmt.Errorf("%w: assumption needs id, player and kind", ErrInvalid)
	}
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO assumptions (`+assumptionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.PlayerID, a.GameID, string(a.Kind), string(a.Classification),
		nullFloat(a.MinutesMultiplier), nullInt(a.MinutesCap), nullFloat(a.LineupMultiplier),
		string(a.Confidence), a.Reason, a.SourceName, a.SourceTier,
		formatTime(a.ObservedAt), formatTime(a.CreatedAt), a.Supersedes,
	)
	if err != nil {
		return fmt.Errorf("inserting assumption %s: %w", a.ID, err)
	}
	return nil
}

// Active implements AssumptionStore.
func (s *SQLiteStore) Active(ctx context.Context, key model.AssumptionKey) (model.Assumption, bool, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+assumptionColumns+` FROM assumptions
		WHERE player_id = ? AND game_id = ? AND kind = ?
		ORDER BY seq DESC LIMIT 1`,
		key.PlayerID, key.GameID, string(key.Kind),
	)
	if err != nil {
		return model.Assumption{}, false, err
	}
	defer rows.Close()
	list, err := scanAssumptions(rows)
	if err != nil || len(list) == 0 {
		return model.Assumption{}, false, err
	}
	return list[0], true, nil
}

// ActiveForPlayer implements AssumptionStore.
func (s *SQLiteStore) ActiveForPlayer(ctx context.Context, playerID string) ([]model.Assumption, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+assumptionColumns+` FROM assumptions a
		WHERE a.player_id = ? AND a.seq = (
			SELECT MAX(b.seq) FROM assumptions b
			WHERE b.player_id = a.player_id AND b.game_id = a.game_id AND b.kind = a.kind
		)
		ORDER BY a.seq`, playerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssumptions(rows)
}

// History implements AssumptionStore.
func (s *SQLiteStore) History(ctx context.Context, playerID string) ([]model.Assumption, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+assumptionColumns+` FROM assumptions WHERE player_id = ? ORDER BY seq`, playerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssumptions(rows)
}

// SaveProjection implements ProjectionStore.
func (s *SQLiteStore) SaveProjection(ctx context.Context, p model.PlayerProjection) error {
	if !validProjection(p) {
		return fmt.Errorf("%w: projection needs run and player", ErrInvalid)
	}
	reasons, err := json.Marshal(nonNil(p.Reasons))
	if err != nil {
		return err
	}
	risks, err := json.Marshal(nonNil(p.Risks))
	if err != nil {
		return err
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO projections (`+projectionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.RunID, p.PlayerID, p.PlayerName, p.GameID, p.Minutes, p.MinutesStdDev,
		p.Points, p.Rebounds, p.Assists, p.PRA, string(p.Confidence),
		string(reasons), string(risks), formatTime(p.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: run %s player %s game %s", ErrDuplicate, p.RunID, p.PlayerID, p.GameID)
		}
		return fmt.Errorf("inserting projection: %w", err)
	}
	return nil
}

// Projections implements ProjectionStore.
func (s *SQLiteStore) Projections(ctx context.Context, runID string) ([]model.PlayerProjection, error) {
	list, err := s.queryProjections(ctx,
		`SELECT `+projectionColumns+` FROM projections WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	return list, nil
}

// TopN implements ProjectionStore.
func (s *SQLiteStore) TopN(ctx context.Context, runID string, n int) ([]model.PlayerProjection, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	list, err := s.queryProjections(ctx,
		`SELECT `+projectionColumns+` FROM projections WHERE run_id = ?
		ORDER BY pra DESC, player_id ASC, game_id ASC LIMIT ?`, runID, n)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	return list, nil
}

func (s *SQLiteStore) queryProjections(ctx context.Context, query string, args ...any) ([]model.PlayerProjection, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerProjection
	for rows.Next() {
		var (
			p              model.PlayerProjection
			confidence     string
			reasons, risks string
			createdAt      string
		)
		if err := rows.Scan(&p.RunID, &p.PlayerID, &p.PlayerName, &p.GameID, &p.Minutes, &p.MinutesStdDev,
			&p.Points, &p.Rebounds, &p.Assists, &p.PRA, &confidence, &reasons, &risks, &createdAt); err != nil {
			return nil, err
		}
		p.Confidence = model.Confidence(confidence)
		if err := json.Unmarshal([]byte(reasons), &p.Reasons); err != nil {
			return nil, fmt.Errorf("decoding reasons: %w", err)
		}
		if err := json.Unmarshal([]byte(risks), &p.Risks); err != nil {
			return nil, fmt.Errorf("decoding risks: %w", err)
		}
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanAssumptions(rows *sql.Rows) ([]model.Assumption, error) {
	var out []model.Assumption
	for rows.Next() {
		var (
			a                       model.Assumption
			kind, class, confidence string
			minutesMult, lineupMult sql.NullFloat64
			minutesCap              sql.NullInt64
			observedAt, createdAt   string
		)
		if err := rows.Scan(&a.ID, &a.PlayerID, &a.GameID, &kind, &class, &minutesMult,
			&minutesCap, &lineupMult, &confidence, &a.Reason, &a.SourceName, &a.SourceTier,
			&observedAt, &createdAt, &a.Supersedes); err != nil {
			return nil, err
		}
		a.Kind = model.Taxonomy(kind)
		a.Classification = model.Classification(class)
		a.Confidence = model.Confidence(confidence)
		if minutesMult.Valid {
			a.MinutesMultiplier = model.Float(minutesMult.Float64)
		}
		if minutesCap.Valid {
			a.MinutesCap = model.Minutes(int(minutesCap.Int64))
		}
		if lineupMult.Valid {
			a.LineupMultiplier = model.Float(lineupMult.Float64)
		}
		var err error
		if a.ObservedAt, err = parseTime(observedAt); err != nil {
			return nil, err
		}
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errors.Join(ErrInvalid, fmt.Errorf("timestamp %q: %w", s, err))
	}
	return t, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
