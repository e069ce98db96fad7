package game

// MinWordLength is the shortest word that scores.
const MinWordLength = 3

// scoreByLength is the fixed score table for word lengths 3 through 8.
var scoreByLength = map[int]int64{
	3: 3,
	4: 5,
	5: 8,
	6: 12,
	7: 17,
	8: 23,
}

// extraLetterScore is added per letter beyond length 8.
const extraLetterScore = 6

// Score returns the points for a word of the given length. Words shorter
// than MinWordLength score zero.
func Score(word string) int64 {
	n := len(word)
	if n < MinWordLength {
		return 0
	}
	if n <= 8 {
		return scoreByLength[n]
	}
	return scoreByLength[8] + int64(n-8)*extraLetterScore
}
