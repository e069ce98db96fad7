package dictionary

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Dictionary is a preloaded set of valid lowercase words. It is loaded once
// at startup and read-only afterwards, so lookups need no locking.
type Dictionary struct {
	words map[string]struct{}
}

// Load reads a word list file (one word per line, case-insensitive) into a
// lookup set. Lines shorter than three letters are skipped since they can
// never score.
func Load(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()

	words := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		w := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if len(w) < 3 {
			continue
		}
		words[w] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("dictionary %s is empty", path)
	}

	return &Dictionary{words: words}, nil
}

// FromWords builds a dictionary from an in-memory word list.
func FromWords(list []string) *Dictionary {
	words := make(map[string]struct{}, len(list))
	for _, w := range list {
		words[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &Dictionary{words: words}
}

// Contains reports whether the lowercased word is in the dictionary.
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.words[strings.ToLower(word)]
	return ok
}

// Size returns the number of loaded words.
func (d *Dictionary) Size() int {
	return len(d.words)
}
