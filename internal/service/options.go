package service

import (
	"math/rand"
	"sync"

	"flashquiz/internal/domain"
)

// MaxOptions is the number of answer buttons shown per question
const MaxOptions = 4

// OptionGenerator builds the shuffled answer choices of a question
type OptionGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewOptionGenerator creates a generator drawing from rng
func NewOptionGenerator(rng *rand.Rand) *OptionGenerator {
	return &OptionGenerator{rng: rng}
}

// Options returns the correct translation plus up to MaxOptions-1 distinct
// distractors taken from deck, in random order. Small decks yield fewer options.
func (g *OptionGenerator) Options(correct domain.WordRecord, deck []domain.WordRecord) []string {
	seen := map[string]struct{}{correct.Translation: {}}
	var distractors []string
	for _, w := range deck {
		if _, ok := seen[w.Translation]; ok {
			continue
		}
		seen[w.Translation] = struct{}{}
		distractors = append(distractors, w.Translation)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.rng.Shuffle(len(distractors), func(i, j int) {
		distractors[i], distractors[j] = distractors[j], distractors[i]
	})
	if len(distractors) > MaxOptions-1 {
		distractors = distractors[:MaxOptions-1]
	}

	options := append([]string{correct.Translation}, distractors...)
	g.rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	return options
}
