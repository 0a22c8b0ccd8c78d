package resolve

import "sync"

// defaultAliases maps common nicknames to roster names.
var defaultAliases = map[string]string{
	"LeBron":        "LeBron James",
	"Bron":          "LeBron James",
	"King James":    "LeBron James",
	"Giannis":       "Giannis Antetokounmpo",
	"Greek Freak":   "Giannis Antetokounmpo",
	"KD":            "Kevin Durant",
	"Steph":         "Stephen Curry",
	"Chef Curry":    "Stephen Curry",
	"Luka":          "Luka Doncic",
	"Jokic":         "Nikola Jokic",
	"Joker":         "Nikola Jokic",
	"AD":            "Anthony Davis",
	"PG":            "Paul George",
	"PG13":          "Paul George",
	"Dame":          "Damian Lillard",
	"Dame Time":     "Damian Lillard",
	"Kawhi":         "Kawhi Leonard",
	"The Klaw":      "Kawhi Leonard",
	"Embiid":        "Joel Embiid",
	"The Process":   "Joel Embiid",
	"Harden":        "James Harden",
	"The Beard":     "James Harden",
	"Kyrie":         "Kyrie Irving",
	"Uncle Drew":    "Kyrie Irving",
	"Jimmy":         "Jimmy Butler",
	"Jimmy Buckets": "Jimmy Butler",
	"Tatum":         "Jayson Tatum",
	"JT":            "Jayson Tatum",
	"Booker":        "Devin Booker",
	"Book":          "Devin Booker",
	"Zion":          "Zion Williamson",
	"Ja":            "Ja Morant",
	"Trae":          "Trae Young",
	"Ice Trae":      "Trae Young",
	"SGA":           "Shai Gilgeous-Alexander",
	"Ant":           "Anthony Edwards",
	"Ant-Man":       "Anthony Edwards",
	"Wemby":         "Victor Wembanyama",
	"Alien":         "Victor Wembanyama",
}

// AliasTable maps folded nicknames to canonical names. It is safe for
// concurrent use and may grow while the pipeline runs.
type AliasTable struct {
	mu      sync.RWMutex
	aliases map[string]string
}

// NewAliasTable creates a table seeded with the built-in nicknames plus
// extra. Entries in extra win over built-ins.
func NewAliasTable(extra map[string]string) *AliasTable {
	t := &AliasTable{aliases: make(map[string]string, len(defaultAliases)+len(extra))}
	for alias, name := range defaultAliases {
		t.Add(alias, name)
	}
	for alias, name := range extra {
		t.Add(alias, name)
	}
	return t
}

// Add registers alias for canonical. Empty values are ignored.
func (t *AliasTable) Add(alias, canonical string) {
	a := Fold(alias)
	if a == "" || Fold(canonical) == "" {
		return
	}
	t.mu.Lock()
	t.aliases[a] = canonical
	t.mu.Unlock()
}

// Lookup returns the canonical name for raw.
func (t *AliasTable) Lookup(raw string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	name, ok := t.aliases[Fold(raw)]
	return name, ok
}

// Len returns the number of aliases.
func (t *AliasTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.aliases)
}
