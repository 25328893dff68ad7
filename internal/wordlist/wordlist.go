// Package wordlist loads word lists used to generate reference texts.
package wordlist

import (
	"bufio"
	"errors"
	"os"
	"strings"
)

// ErrEmpty is returned when a word list has no usable words.
var ErrEmpty = errors.New("word list is empty")

// Load reads one word per line and keeps the words accepted by keep.
// Lines holding whitespace and repeated words are skipped. A nil keep
// accepts every word.
func Load(path string, keep FilterFunc) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		// Best-effort close for a read-only file.
		_ = file.Close()
	}()

	var words []string
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" || strings.ContainsAny(word, " \t") {
			continue
		}
		if keep != nil && !keep(word) {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		words = append(words, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, ErrEmpty
	}
	return words, nil
}
