package markov

import (
	"errors"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DefaultMaxSteps bounds a single walk when Generator.MaxSteps is unset.
const DefaultMaxSteps = 250

const maxSuggestions = 5

// ErrNotTrained is returned when generation is requested before a corpus exists.
var ErrNotTrained = errors.New("markov: corpus not trained")

// Result is the outcome of one generation request.
type Result struct {
	Seed  string
	Text  string
	Found bool
	// Truncated is set when the walk hit the step limit before reaching an end.
	Truncated bool
	Steps     int
	// Suggestions holds nearby corpus words when the seed was not found.
	Suggestions []string
}

// Generator walks a Corpus from a seed word.
type Generator struct {
	Corpus   *Corpus
	Rand     Rand
	MaxSteps int
}

// NewGenerator returns a Generator sharing rng across every call.
func NewGenerator(c *Corpus, rng Rand) *Generator {
	return &Generator{Corpus: c, Rand: rng, MaxSteps: DefaultMaxSteps}
}

// Generate renders a chain starting at seed. An unknown seed is not an error:
// the Result comes back with Found unset.
func (g *Generator) Generate(seed string) (Result, error) {
	res := Result{Seed: seed}
	if g == nil || g.Corpus == nil {
		return res, ErrNotTrained
	}
	word, ok := g.Corpus.Lookup(seed)
	if !ok {
		res.Suggestions = g.suggest(seed)
		return res, nil
	}
	res.Found = true

	rng := g.Rand
	if rng == nil {
		rng = defaultSource
	}
	limit := g.MaxSteps
	if limit <= 0 {
		limit = DefaultMaxSteps
	}

	parts := make([]string, 0, 16)
	for word != nil && !word.IsLast() {
		if res.Steps == limit {
			res.Truncated = true
			break
		}
		parts = append(parts, word.Text()+word.SamplePunctuation(rng).String())
		res.Steps++
		word = word.SampleSuccessor(rng)
	}
	res.Text = strings.Join(parts, " ")
	return res, nil
}

func (g *Generator) suggest(seed string) []string {
	text, _ := Canonicalize(seed)
	if text == "" || IsBarePunctuation(text) {
		return nil
	}
	ranks := fuzzy.RankFindNormalizedFold(text, g.Corpus.Texts())
	sort.Stable(ranks)
	if len(ranks) > maxSuggestions {
		ranks = ranks[:maxSuggestions]
	}
	out := make([]string, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, r.Target)
	}
	return out
}

var defaultSource = NewSource(0)
