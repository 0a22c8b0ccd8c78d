// Package model contains domain models passed between pipeline stages.
package model

import (
	"strings"
	"time"
)

// SourceKind identifies which collector produced a raw item.
type SourceKind string

const (
	KindFeed     SourceKind = "feed"
	KindSocial   SourceKind = "social"
	KindOfficial SourceKind = "official"
)

// Source tiers. Lower is more authoritative.
const (
	TierOfficial = 1
	TierInsider  = 2
	TierGeneral  = 3
)

// ValidTier reports whether t is a known reliability class.
func ValidTier(t int) bool {
	return t >= TierOfficial && t <= TierGeneral
}

// RawItem is the canonical shape of one collector payload. It is never
// mutated after the normalizer returns it.
type RawItem struct {
	SourceName  string
	SourceTier  int
	Kind        SourceKind
	PublishedAt time.Time
	URLOrID     string // content hashing input
	Title       string
	Body        string // may be empty
	GameID      string // set by official report rows only
}

// Text joins title and body for keyword scanning. The title is terminated
// so a sentence never spans the two.
func (r RawItem) Text() string {
	title := strings.TrimSpace(r.Title)
	body := strings.TrimSpace(r.Body)
	if body == "" {
		return title
	}
	if title != "" && !strings.ContainsAny(title[len(title)-1:], ".!?") {
		title += "."
	}
	return title + " " + body
}
