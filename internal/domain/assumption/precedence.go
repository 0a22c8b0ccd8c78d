package assumption

import "time"

// Claim is the part of an assumption precedence looks at.
type Claim struct {
	Severity   int
	Tier       int // lower is more authoritative
	ObservedAt time.Time
}

// Wins reports whether next replaces prior in the same slot:
//
//	more severe, tier no worse     -> wins
//	same severity, better tier     -> wins
//	less severe, tier no better    -> loses, status never softens on weaker news
//	anything else                  -> newer observation wins, ties keep prior
func Wins(next, prior Claim) bool {
	switch {
	case next.Severity > prior.Severity && next.Tier <= prior.Tier:
		return true
	case next.Severity == prior.Severity && next.Tier < prior.Tier:
		return true
	case next.Severity < prior.Severity && next.Tier >= prior.Tier:
		return false
	default:
		return next.ObservedAt.After(prior.ObservedAt)
	}
}
