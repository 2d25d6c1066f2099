package words

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapacityTable(t *testing.T) {
	cases := []struct {
		word string
		want int
	}{
		{"berlin", 6},
		{"reykjavik", 5},
		{"new york", 4},
		{"london", 3},
		{"moscow", 2},
		{"paris", 1},
		{"PARIS", 1},
		{"  Berlin ", 6},
		{"atlantis", DefaultCapacity},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Capacity(tc.word), "capacity of %q", tc.word)
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("moscow"))
	assert.True(t, Valid("New York"))
	assert.True(t, Valid(" LONDON "))
	assert.False(t, Valid("newyork"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("tokyo"))
}

func TestDisplayListsWholeVocabulary(t *testing.T) {
	out := Display()
	assert.Contains(t, out, "BERLIN 6")
	assert.Contains(t, out, "NEW YORK 4")
	assert.Contains(t, out, "PARIS 1")
}
