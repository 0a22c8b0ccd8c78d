package signal

import "github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/model"

// Rule maps a phrase to a classification.
type Rule struct {
	Phrase         string
	Classification model.Classification
}

// Table is an ordered keyword table for one taxonomy. The first rule whose
// phrase occurs in the text wins, so longer phrases must precede any
// phrase they contain ("ruled out" before "out"). A rule mapping to
// model.Unknown shadows shorter phrases without producing a signal.
type Table struct {
	Taxonomy model.Taxonomy
	Rules    []Rule
}

// DefaultTables returns fresh copies of the built-in tables.
func DefaultTables() []Table {
	return []Table{
		{Taxonomy: model.TaxonomyStatus, Rules: []Rule{
			{"out of the starting lineup", model.Unknown},
			{"ruled out", model.Out},
			{"won't return", model.Out},
			{"will not return", model.Out},
			{"will not play", model.Out},
			{"won't play", model.Out},
			{"will miss", model.Out},
			{"sidelined", model.Out},
			{"inactive", model.Out},
			{"unavailable", model.Out},
			{"not expected to play", model.Doubtful},
			{"unlikely to play", model.Doubtful},
			{"doubtful", model.Doubtful},
			{"out", model.Out},
			{"game-time decision", model.Questionable},
			{"game time decision", model.Questionable},
			{"gtd", model.Questionable},
			{"questionable", model.Questionable},
			{"probable", model.Probable},
			{"likely to play", model.Probable},
			{"expected to play", model.Probable},
			{"cleared to play", model.Available},
			{"will play", model.Available},
			{"available", model.Available},
			{"active", model.Available},
		}},
		{Taxonomy: model.TaxonomyMinutes, Rules: []Rule{
			{"no minutes restriction", model.FullGo},
			{"no minutes limit", model.FullGo},
			{"no restrictions", model.FullGo},
			{"without restrictions", model.FullGo},
			{"unrestricted", model.FullGo},
			{"full go", model.FullGo},
			{"full minutes", model.FullGo},
			{"minutes restriction", model.Restriction},
			{"minute restriction", model.Restriction},
			{"minutes limit", model.Restriction},
			{"limited minutes", model.Restriction},
			{"restricted", model.Restriction},
			{"limited", model.Limited},
			{"eased back", model.Limited},
			{"cautious", model.Limited},
			{"monitored", model.Limited},
		}},
		{Taxonomy: model.TaxonomyLineup, Rules: []Rule{
			{"out of the starting lineup", model.Bench},
			{"removed from the starting lineup", model.Bench},
			{"moves to the bench", model.Bench},
			{"moves to bench", model.Bench},
			{"coming off the bench", model.Bench},
			{"coming off bench", model.Bench},
			{"come off the bench", model.Bench},
			{"bench role", model.Bench},
			{"won't start", model.Bench},
			{"will not start", model.Bench},
			{"moves into the starting lineup", model.Starting},
			{"moves into starting lineup", model.Starting},
			{"joins the starting lineup", model.Starting},
			{"joins starting lineup", model.Starting},
			{"will start", model.Starting},
			{"to start", model.Starting},
			{"starting", model.Starting},
		}},
	}
}

// injuryTerms are scanned when no parenthesized detail is present.
var injuryTerms = []string{
	"ankle", "knee", "hamstring", "back", "shoulder", "wrist", "hand",
	"foot", "calf", "quad", "hip", "groin", "achilles", "finger",
	"elbow", "neck", "head", "concussion", "illness", "covid",
}

// stopWords are capitalized tokens that never belong to a player name.
var stopWords = map[string]struct{}{
	"the": {}, "this": {}, "that": {}, "with": {}, "from": {}, "will": {}, "can": {},
	"per": {}, "sources": {}, "source": {}, "report": {}, "reports": {}, "update": {},
	"injury": {}, "breaking": {}, "nba": {}, "coach": {}, "status": {}, "lineup": {},
	"game": {}, "tonight": {}, "today": {}, "tomorrow": {}, "he": {}, "his": {}, "after": {},
	"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {}, "friday": {},
	"saturday": {}, "sunday": {}, "news": {}, "alert": {}, "official": {}, "and": {},
}

// abbreviations keep their trailing period inside the token.
var abbreviations = map[string]struct{}{
	"jr": {}, "sr": {}, "st": {}, "vs": {}, "mr": {}, "dr": {},
}
