package model

import "time"

// Taxonomy is one of the independent keyword classifications.
type Taxonomy string

const (
	TaxonomyStatus  Taxonomy = "status"
	TaxonomyMinutes Taxonomy = "minutes"
	TaxonomyLineup  Taxonomy = "lineup"
)

// Classification is the label a keyword table assigns to a signal.
type Classification string

// Status classifications, most restrictive first.
const (
	Out          Classification = "OUT"
	Doubtful     Classification = "DOUBTFUL"
	Questionable Classification = "QUESTIONABLE"
	Probable     Classification = "PROBABLE"
	Available    Classification = "AVAILABLE"
)

// Minutes classifications.
const (
	Restriction Classification = "RESTRICTION"
	Limited     Classification = "LIMITED"
	FullGo      Classification = "FULL_GO"
)

// Lineup classifications.
const (
	Starting Classification = "STARTING"
	Bench    Classification = "BENCH"
)

// Unknown never leaves the parser.
const Unknown Classification = "UNKNOWN"

// Label renders the classification for humans, e.g. "Questionable", "Full go".
func (c Classification) Label() string {
	s := []rune(string(c))
	if len(s) == 0 {
		return ""
	}
	out := make([]rune, len(s))
	for i, r := range s {
		switch {
		case r == '_':
			out[i] = ' '
		case i == 0:
			out[i] = r
		case r >= 'A' && r <= 'Z':
			out[i] = r + ('a' - 'A')
		default:
			out[i] = r
		}
	}
	return string(out)
}

// Signal is one classified extraction from a raw item.
type Signal struct {
	SubjectNameRaw string
	Taxonomy       Taxonomy
	Classification Classification
	Keyword        string // matched phrase
	Detail         string // injury detail, may be empty
	Evidence       string
	SourceName     string
	SourceTier     int
	ObservedAt     time.Time
	ItemKey        string // content key of the originating RawItem
	GameID         string
}

// MatchTier records which resolution step succeeded.
type MatchTier string

const (
	MatchExact MatchTier = "exact"
	MatchAlias MatchTier = "alias"
	MatchFuzzy MatchTier = "fuzzy"
)

// ResolvedSignal is a Signal whose subject was mapped to a roster player.
type ResolvedSignal struct {
	Signal
	PlayerID   string
	PlayerName string
	MatchTier  MatchTier
	MatchScore float64
}
