package assumption

import (
	"fmt"

	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/model"
)

// Impact describes how an assumption moves a projection.
type Impact struct {
	PlayerID      string           `json:"player_id"`
	GameID        string           `json:"game_id,omitempty"`
	Kind          model.Taxonomy   `json:"kind"`
	Confidence    model.Confidence `json:"confidence"`
	Reason        string           `json:"reason"`
	MinutesImpact string           `json:"minutes_impact,omitempty"`
	MinutesCap    *int             `json:"minutes_cap,omitempty"`
	LineupImpact  string           `json:"lineup_impact,omitempty"`
}

// Summarize reports the impact of a.
func Summarize(a model.Assumption) Impact {
	imp := Impact{
		PlayerID:   a.PlayerID,
		GameID:     a.GameID,
		Kind:       a.Kind,
		Confidence: a.Confidence,
		Reason:     a.Reason,
		MinutesCap: copyInt(a.MinutesCap),
	}
	if a.MinutesMultiplier != nil {
		imp.MinutesImpact = fmt.Sprintf("%.0f%%", *a.MinutesMultiplier*100)
	}
	if a.LineupMultiplier != nil {
		imp.LineupImpact = fmt.Sprintf("%.0f%%", *a.LineupMultiplier*100)
	}
	return imp
}

// String renders the impact on one line.
func (i Impact) String() string {
	s := fmt.Sprintf("%s %s [%s]", i.PlayerID, i.Kind, i.Confidence)
	if i.MinutesImpact != "" {
		s += " minutes " + i.MinutesImpact
	}
	if i.MinutesCap != nil {
		s += fmt.Sprintf(" cap %d", *i.MinutesCap)
	}
	if i.LineupImpact != "" {
		s += " lineup " + i.LineupImpact
	}
	return s + ": " + i.Reason
}
