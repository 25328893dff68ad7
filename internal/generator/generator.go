// Package generator builds reference texts from word lists.
package generator

import (
	"errors"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/verte-zerg/racetyper/internal/model"
)

// ErrEmptyWordList is returned when there is nothing to draw words from.
var ErrEmptyWordList = errors.New("word list is empty")

// ErrInvalidWordCount is returned when a text would have no words.
var ErrInvalidWordCount = errors.New("word count must be > 0")

// Generator produces randomized reference texts.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Generator with a fixed seed.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate selects words uniformly and applies caps/punctuation rules.
func (g *Generator) Generate(words []string, count int, capsPct, punctPct float64, punctSet []rune) []string {
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		word := words[g.rnd.Intn(len(words))]
		word = applyCaps(g.rnd, word, capsPct)
		word = applyPunct(g.rnd, word, punctPct, punctSet)
		result = append(result, word)
	}
	return result
}

// Text returns one reference text of cfg.Words words joined by single spaces.
// The text always ends with a period so it reads as a sentence.
func (g *Generator) Text(words []string, cfg model.GenerateConfig) (string, error) {
	if len(words) == 0 {
		return "", ErrEmptyWordList
	}
	if cfg.Words <= 0 {
		return "", ErrInvalidWordCount
	}
	punct := []rune(strings.Map(dropSpace, cfg.PunctSet))
	picked := g.Generate(words, cfg.Words, cfg.CapsPct, cfg.PunctPct, punct)
	picked[0] = capitalize(picked[0])
	last := picked[len(picked)-1]
	if !strings.HasSuffix(last, ".") {
		picked[len(picked)-1] = strings.TrimRightFunc(last, unicode.IsPunct) + "."
	}
	return strings.Join(picked, " "), nil
}

// Texts returns cfg.Count reference texts.
func (g *Generator) Texts(words []string, cfg model.GenerateConfig) ([]string, error) {
	out := make([]string, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		text, err := g.Text(words, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, text)
	}
	return out, nil
}

func dropSpace(r rune) rune {
	if unicode.IsSpace(r) {
		return -1
	}
	return r
}

func capitalize(word string) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 {
		return word
	}
	if rnd.Float64() > capsPct {
		return word
	}
	return capitalize(word)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 {
		return word
	}
	if rnd.Float64() > punctPct {
		return word
	}
	punct := punctSet[rnd.Intn(len(punctSet))]
	return word + string(punct)
}
