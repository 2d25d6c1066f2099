// Package roster tracks the players of one session: the ordered active
// list, permanent exclusions, frozen players, and slot assignments.
//
// The roster is pure state. It is only ever touched from the session's
// single writer goroutine, so it carries no locking of its own.
package roster

import (
	"errors"
	"slices"
)

var (
	ErrEnding      = errors.New("session is ending")
	ErrExcluded    = errors.New("player was eliminated this session")
	ErrPhaseLocked = errors.New("game has already started")
	ErrNotInGame   = errors.New("player is not in the game")
)

// Roster owns the membership state for one session. Insertion order of the
// active list is join order and drives slot assignment.
type Roster struct {
	active   []string
	slots    map[string]int
	excluded map[string]bool
	frozen   map[string]bool
}

func New() *Roster {
	return &Roster{
		slots:    make(map[string]int),
		excluded: make(map[string]bool),
		frozen:   make(map[string]bool),
	}
}

// Join admits a player. ending blocks all joins; a previously excluded
// player can never re-enter the same session; once the game has left the
// waiting phase the roster is locked.
func (r *Roster) Join(player string, ending, phaseLocked bool) (int, error) {
	switch {
	case ending:
		return 0, ErrEnding
	case r.excluded[player]:
		return 0, ErrExcluded
	case phaseLocked:
		return 0, ErrPhaseLocked
	}
	if slot, ok := r.slots[player]; ok && slices.Contains(r.active, player) {
		return slot, nil
	}
	if !slices.Contains(r.active, player) {
		r.active = append(r.active, player)
	}
	slot := r.nextFreeSlot()
	r.slots[player] = slot
	return slot, nil
}

// nextFreeSlot returns the lowest slot index not currently assigned, so a
// block vacated during waiting is reused by the next joiner.
func (r *Roster) nextFreeSlot() int {
	used := make(map[int]bool, len(r.slots))
	for _, s := range r.slots {
		used[s] = true
	}
	for i := 0; ; i++ {
		if !used[i] {
			return i
		}
	}
}

// Leave removes a player from the active list. When the session is past the
// waiting phase the player is excluded permanently; during waiting they may
// rejoin later. The second return reports whether the player was excluded.
func (r *Roster) Leave(player string, waiting bool) (bool, error) {
	i := slices.Index(r.active, player)
	if i < 0 {
		return false, ErrNotInGame
	}
	r.active = slices.Delete(r.active, i, i+1)
	delete(r.slots, player)
	if waiting {
		return false, nil
	}
	r.excluded[player] = true
	return true, nil
}

// Exclude eliminates a player in place: they stay off the active list and
// can never rejoin. Exclusion is monotone; there is no inverse.
func (r *Roster) Exclude(player string) {
	r.excluded[player] = true
	if i := slices.Index(r.active, player); i >= 0 {
		r.active = slices.Delete(r.active, i, i+1)
	}
	delete(r.slots, player)
}

func (r *Roster) Excluded(player string) bool { return r.excluded[player] }

func (r *Roster) Freeze(player string)   { r.frozen[player] = true }
func (r *Roster) Unfreeze(player string) { delete(r.frozen, player) }

// UnfreezeAll drops every freeze; used on a forced session end.
func (r *Roster) UnfreezeAll() { r.frozen = make(map[string]bool) }
func (r *Roster) Frozen(player string) bool { return r.frozen[player] }
func (r *Roster) Contains(p string) bool    { return slices.Contains(r.active, p) }
func (r *Roster) Slot(p string) (int, bool) { s, ok := r.slots[p]; return s, ok }
func (r *Roster) RemainingCount() int       { return len(r.active) }

// Remaining returns the active players in join order. The returned slice is
// a copy; callers may keep it across mutations.
func (r *Roster) Remaining() []string {
	return slices.Clone(r.active)
}

// Eligible returns active players who may be pulled to the danger zone:
// not the chooser, not excluded, not frozen.
func (r *Roster) Eligible(chooser string) []string {
	out := make([]string, 0, len(r.active))
	for _, p := range r.active {
		if p == chooser || r.excluded[p] || r.frozen[p] {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Voters returns active players expected to vote this round: everyone but
// the chooser and the excluded. Frozen players still vote; freezing only
// shields them from the danger zone.
func (r *Roster) Voters(chooser string) []string {
	out := make([]string, 0, len(r.active))
	for _, p := range r.active {
		if p == chooser || r.excluded[p] {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Reset clears everything for a fresh session. Frozen players persist; the
// freeze flag is an operator toggle, not game state.
func (r *Roster) Reset() {
	r.active = nil
	r.slots = make(map[string]int)
	r.excluded = make(map[string]bool)
}
