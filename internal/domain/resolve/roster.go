package resolve

import (
	"sync"
	"time"

	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/model"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/metrics"
)

// Roster is an immutable view of the active players. A resolution pass
// works against one Roster so a concurrent refresh never splits it.
type Roster struct {
	players   []model.Player
	folded    []string
	byName    map[string][]int
	byID      map[string]int
	refreshed time.Time
}

func newRoster(players []model.Player, at time.Time) *Roster {
	r := &Roster{
		players:   make([]model.Player, 0, len(players)),
		byName:    make(map[string][]int, len(players)),
		byID:      make(map[string]int, len(players)),
		refreshed: at,
	}
	for _, p := range players {
		f := Fold(p.Name)
		if p.ID == "" || f == "" {
			continue
		}
		if _, dup := r.byID[p.ID]; dup {
			continue
		}
		i := len(r.players)
		r.players = append(r.players, p)
		r.folded = append(r.folded, f)
		r.byName[f] = append(r.byName[f], i)
		r.byID[p.ID] = i
	}
	return r
}

// Len returns the number of players.
func (r *Roster) Len() int { return len(r.players) }

// RefreshedAt returns when the view was built.
func (r *Roster) RefreshedAt() time.Time { return r.refreshed }

// Player returns the player with the given id.
func (r *Roster) Player(id string) (model.Player, bool) {
	i, ok := r.byID[id]
	if !ok {
		return model.Player{}, false
	}
	return r.players[i], true
}

// Players returns a copy of the roster in insertion order.
func (r *Roster) Players() []model.Player {
	out := make([]model.Player, len(r.players))
	copy(out, r.players)
	return out
}

// lookup returns every player whose folded name equals folded.
func (r *Roster) lookup(folded string) []model.Player {
	idx := r.byName[folded]
	out := make([]model.Player, len(idx))
	for i, j := range idx {
		out[i] = r.players[j]
	}
	return out
}

// RosterCache owns the current Roster. Refresh is called by whoever loads
// rosters, between runs; readers take a Snapshot.
type RosterCache struct {
	mu      sync.RWMutex
	current *Roster
	now     func() time.Time
}

// NewRosterCache creates an empty cache.
func NewRosterCache() *RosterCache {
	return &RosterCache{current: newRoster(nil, time.Time{}), now: time.Now}
}

// Refresh replaces the roster. Entries without an id or name, and repeated
// ids, are dropped.
func (c *RosterCache) Refresh(players []model.Player) int {
	next := newRoster(players, c.now())
	c.mu.Lock()
	c.current = next
	c.mu.Unlock()
	metrics.UpdateRosterSize(next.Len())
	return next.Len()
}

// Snapshot returns the current read-only view.
func (c *RosterCache) Snapshot() *Roster {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}
