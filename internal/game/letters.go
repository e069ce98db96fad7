package game

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/samber/lo"
)

// Letter pool generation and the formability check. The pool is fixed at
// match creation; formability verifies a word's letters are a sub-multiset
// of the pool, so a tile is never reused beyond its physical multiplicity.

// letterFrequencies weights random draws roughly by English letter
// frequency so pools stay playable.
const letterFrequencies = "EEEEEEEEEEEEAAAAAAAAAIIIIIIIIIOOOOOOOONNNNNNRRRRRRTTTTTTLLLLSSSSUUUUDDDDGGGBBCCMMPPFFHHVVWWYYKJXQZ"

const vowels = "AEIOU"

// GeneratePool draws n uppercase letters, guaranteeing at least three vowels
// so the pool always admits some words.
func GeneratePool(n int) []string {
	if n < 4 {
		n = 4
	}

	pool := make([]string, 0, n)
	for i := 0; i < 3; i++ {
		pool = append(pool, string(vowels[randIndex(len(vowels))]))
	}
	for len(pool) < n {
		pool = append(pool, string(letterFrequencies[randIndex(len(letterFrequencies))]))
	}

	// shuffle so the guaranteed vowels are not always up front
	for i := len(pool) - 1; i > 0; i-- {
		j := randIndex(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool
}

func randIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// CanForm reports whether word can be assembled from the letter pool,
// consuming each pool letter at most once.
func CanForm(word string, pool []string) bool {
	if word == "" {
		return false
	}

	available := lo.CountValues(lo.Map(pool, func(l string, _ int) string {
		return strings.ToUpper(l)
	}))

	for _, r := range strings.ToUpper(word) {
		letter := string(r)
		if available[letter] == 0 {
			return false
		}
		available[letter]--
	}
	return true
}

// Normalize uppercases and trims a submitted word.
func Normalize(word string) string {
	return strings.ToUpper(strings.TrimSpace(word))
}
