// Package danger picks which correct voters get pulled into the danger
// zone at the end of discussion.
package danger

import "math/rand"

// Select draws the danger-zone members for a round. correctVoters must
// already be filtered to eligible players (active, not chooser, not
// excluded, not frozen) whose vote equals the secret word. When more
// players guessed right than the word's capacity allows, capacity of them
// are drawn uniformly at random without replacement; otherwise everyone who
// guessed right is pulled. Nobody who missed the word is ever padded in.
//
// rng is injected so tests control the draw.
func Select(correctVoters []string, capacity int, rng *rand.Rand) []string {
	if len(correctVoters) == 0 || capacity <= 0 {
		return nil
	}
	if len(correctVoters) <= capacity {
		out := make([]string, len(correctVoters))
		copy(out, correctVoters)
		return out
	}
	// Partial Fisher-Yates: the first capacity entries are the sample.
	pool := make([]string, len(correctVoters))
	copy(pool, correctVoters)
	for i := 0; i < capacity; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:capacity]
}
