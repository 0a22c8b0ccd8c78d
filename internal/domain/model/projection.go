package model

import "time"

// PositionCenter receives the rebounding bonus.
const PositionCenter = "C"

// StatLine holds per-game averages.
type StatLine struct {
	Minutes  float64 `json:"minutes" yaml:"minutes"`
	Points   float64 `json:"points" yaml:"points"`
	Rebounds float64 `json:"rebounds" yaml:"rebounds"`
	Assists  float64 `json:"assists" yaml:"assists"`
}

// IsZero reports whether no averages are present.
func (s StatLine) IsZero() bool {
	return s == StatLine{}
}

// ProjectionInput is everything needed to project one player for one game.
// It is built fresh for each run.
type ProjectionInput struct {
	PlayerID         string       `json:"player_id" yaml:"player_id"`
	PlayerName       string       `json:"player_name" yaml:"player_name"`
	GameID           string       `json:"game_id" yaml:"game_id"`
	Position         string       `json:"position" yaml:"position"`
	GamesPlayed      int          `json:"games_played" yaml:"games_played"`
	Season           StatLine     `json:"season" yaml:"season"`
	Recent           StatLine     `json:"recent" yaml:"recent"`
	OpponentPace     float64      `json:"opponent_pace" yaml:"opponent_pace"`
	OpponentPaceRank int          `json:"opponent_pace_rank" yaml:"opponent_pace_rank"`
	OpponentDRtg     float64      `json:"opponent_drtg" yaml:"opponent_drtg"`
	UsageRate        *float64     `json:"usage_rate,omitempty" yaml:"usage_rate,omitempty"`
	Assumptions      []Assumption `json:"-" yaml:"-"`
}

// PlayerProjection is the immutable output for one (run, player, game).
type PlayerProjection struct {
	RunID         string
	PlayerID      string
	PlayerName    string
	GameID        string
	Minutes       float64
	MinutesStdDev float64
	Points        float64
	Rebounds      float64
	Assists       float64
	PRA           float64
	Confidence    Confidence
	Reasons       []string
	Risks         []string
	CreatedAt     time.Time
}
