package model

// Player is one entry of the active roster.
type Player struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Team     string `json:"team,omitempty" yaml:"team,omitempty"`
	Position string `json:"position,omitempty" yaml:"position,omitempty"`
}
