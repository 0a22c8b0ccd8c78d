package model

import "time"

// Confidence is the categorical trust placed in an assumption or projection.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Assumption is a quantified adjustment derived from exactly one
// classification. Records are append-only.
type Assumption struct {
	ID                string
	PlayerID          string
	GameID            string // empty when not tied to a game
	Kind              Taxonomy
	Classification    Classification
	MinutesMultiplier *float64
	MinutesCap        *int
	LineupMultiplier  *float64
	Confidence        Confidence
	Reason            string
	SourceName        string
	SourceTier        int
	ObservedAt        time.Time
	CreatedAt         time.Time
	Supersedes        string // ID of the record this one replaced
}

// AssumptionKey identifies the slot an assumption occupies. Status, minutes
// and lineup records for one player live in separate slots.
type AssumptionKey struct {
	PlayerID string
	GameID   string
	Kind     Taxonomy
}

// Key returns the slot for a.
func (a Assumption) Key() AssumptionKey {
	return AssumptionKey{PlayerID: a.PlayerID, GameID: a.GameID, Kind: a.Kind}
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Minutes returns a pointer to v.
func Minutes(v int) *int { return &v }
