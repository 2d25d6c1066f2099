// Package ledger records one vote per player per round.
package ledger

import (
	"errors"

	"github.com/titomostafa/guessface-bot/internal/words"
)

var (
	ErrAlreadyVoted = errors.New("player already voted this round")
	ErrInvalidWord  = errors.New("word is not in the vocabulary")
	ErrNotEligible  = errors.New("player is not eligible to vote")
	ErrWrongPhase   = errors.New("voting is not open")
)

// Ledger maps voter -> normalized word for a single round. Like the roster
// it is mutated only from the session goroutine and needs no lock.
type Ledger struct {
	votes map[string]string
}

func New() *Ledger {
	return &Ledger{votes: make(map[string]string)}
}

// Cast records a vote. The first vote wins; any later vote by the same
// player is rejected and the ledger keeps the original entry.
func (l *Ledger) Cast(voter, word string) error {
	if !words.Valid(word) {
		return ErrInvalidWord
	}
	if _, ok := l.votes[voter]; ok {
		return ErrAlreadyVoted
	}
	l.votes[voter] = words.Normalize(word)
	return nil
}

// Vote returns the recorded word for a voter.
func (l *Ledger) Vote(voter string) (string, bool) {
	w, ok := l.votes[voter]
	return w, ok
}

func (l *Ledger) HasVoted(voter string) bool {
	_, ok := l.votes[voter]
	return ok
}

// VotersFor returns, preserving the order of the candidates slice, the
// candidates whose recorded vote equals word.
func (l *Ledger) VotersFor(word string, candidates []string) []string {
	w := words.Normalize(word)
	var out []string
	for _, c := range candidates {
		if l.votes[c] == w {
			out = append(out, c)
		}
	}
	return out
}

// CountFor counts votes for word among the given candidates.
func (l *Ledger) CountFor(word string, candidates []string) int {
	return len(l.VotersFor(word, candidates))
}

// AllVoted reports whether every player in eligible has a recorded vote.
// An empty eligible set counts as not complete; the caller decides what an
// empty electorate means.
func (l *Ledger) AllVoted(eligible []string) bool {
	if len(eligible) == 0 {
		return false
	}
	for _, p := range eligible {
		if !l.HasVoted(p) {
			return false
		}
	}
	return true
}

// Entries returns a copy of the voter -> word map for scoring.
func (l *Ledger) Entries() map[string]string {
	out := make(map[string]string, len(l.votes))
	for k, v := range l.votes {
		out[k] = v
	}
	return out
}

func (l *Ledger) Len() int { return len(l.votes) }

// Reset clears the ledger for a new round.
func (l *Ledger) Reset() {
	l.votes = make(map[string]string)
}
