// Package words holds the fixed voting vocabulary and the danger-zone
// capacity each word carries.
package words

import (
	"strconv"
	"strings"
)

// All is the full vocabulary, in announcement order.
var All = []string{"berlin", "reykjavik", "new york", "london", "moscow", "paris"}

// DefaultCapacity applies to any word missing from the capacity table.
const DefaultCapacity = 5

var capacities = map[string]int{
	"berlin":    6,
	"reykjavik": 5,
	"new york":  4,
	"london":    3,
	"moscow":    2,
	"paris":     1,
}

// Normalize lowercases and trims a raw word so lookups and ledger keys
// always agree.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Valid reports whether raw (after normalization) is in the vocabulary.
func Valid(raw string) bool {
	w := Normalize(raw)
	for _, v := range All {
		if v == w {
			return true
		}
	}
	return false
}

// Capacity returns the danger-zone pull limit for a word.
func Capacity(raw string) int {
	if c, ok := capacities[Normalize(raw)]; ok {
		return c
	}
	return DefaultCapacity
}

// Display renders the vocabulary with capacities for announcements.
func Display() string {
	var b strings.Builder
	for i, w := range All {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.ToUpper(w))
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(Capacity(w)))
	}
	return b.String()
}
