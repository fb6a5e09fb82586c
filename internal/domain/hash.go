package domain

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// NormalizeQuestion canonicalizes question text for dedup and avoid-set
// lookups: lowercased, trimmed, inner whitespace collapsed. Every component
// that compares question texts must go through this one function.
func NormalizeQuestion(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// QuestionHash returns the stable hash of the normalized question text.
func QuestionHash(text string) string {
	h := fnv.New64a()
	h.Write([]byte(NormalizeQuestion(text)))
	return fmt.Sprintf("%016x", h.Sum64())
}
