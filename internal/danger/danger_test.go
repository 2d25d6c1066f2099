package danger

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rng(seed int64) *rand.Rand { return rand.New(rand.NewSource(seed)) }

func TestSelectPullsEveryoneUnderCapacity(t *testing.T) {
	// berlin scenario: capacity 6, only two correct voters -> both pulled,
	// nobody padded in.
	got := Select([]string{"a", "b"}, 6, rng(1))
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestSelectCapsAtCapacity(t *testing.T) {
	// paris scenario: capacity 1, four correct voters -> exactly one.
	voters := []string{"a", "b", "c", "d"}
	got := Select(voters, 1, rng(7))
	require.Len(t, got, 1)
	assert.Contains(t, voters, got[0])
}

func TestSelectNeverExceedsCapacity(t *testing.T) {
	voters := []string{"a", "b", "c", "d", "e", "f", "g"}
	for seed := int64(0); seed < 50; seed++ {
		got := Select(voters, 3, rng(seed))
		require.Len(t, got, 3, "seed %d", seed)
		seen := map[string]bool{}
		for _, p := range got {
			require.Contains(t, voters, p)
			require.False(t, seen[p], "duplicate pull at seed %d", seed)
			seen[p] = true
		}
	}
}

func TestSelectCoversAllVotersEventually(t *testing.T) {
	// with capacity 1 of 4 voters the draw is uniform; over many seeds
	// every voter should show up.
	voters := []string{"a", "b", "c", "d"}
	seen := map[string]int{}
	for seed := int64(0); seed < 200; seed++ {
		got := Select(voters, 1, rng(seed))
		seen[got[0]]++
	}
	for _, v := range voters {
		assert.Greater(t, seen[v], 0, "voter %s never drawn", v)
	}
}

func TestSelectEmptyAndDegenerate(t *testing.T) {
	assert.Nil(t, Select(nil, 5, rng(1)))
	assert.Nil(t, Select([]string{"a"}, 0, rng(1)))
}

func TestSelectDoesNotMutateInput(t *testing.T) {
	voters := []string{"a", "b", "c", "d"}
	_ = Select(voters, 2, rng(3))
	assert.Equal(t, []string{"a", "b", "c", "d"}, voters)
}
