package server

import (
	"sync/atomic"

	"github.com/japaniel/reviewgen/pkg/markov"
)

// Model holds the generator for the most recently trained corpus. Until a
// corpus is published every request fails with markov.ErrNotTrained.
type Model struct {
	gen      atomic.Pointer[markov.Generator]
	rng      markov.Rand
	maxSteps int
}

// NewModel returns an untrained Model. Every published corpus shares rng.
func NewModel(rng markov.Rand, maxSteps int) *Model {
	if rng == nil {
		rng = markov.NewSource(0)
	}
	return &Model{rng: rng, maxSteps: maxSteps}
}

// Publish makes c the corpus served by Generate.
func (m *Model) Publish(c *markov.Corpus) {
	g := markov.NewGenerator(c, m.rng)
	if m.maxSteps > 0 {
		g.MaxSteps = m.maxSteps
	}
	m.gen.Store(g)
}

// Ready reports whether a corpus has been published.
func (m *Model) Ready() bool { return m.gen.Load() != nil }

// Generate renders a chain from seed using the current corpus.
func (m *Model) Generate(seed string) (markov.Result, error) {
	g := m.gen.Load()
	if g == nil {
		return markov.Result{Seed: seed}, markov.ErrNotTrained
	}
	return g.Generate(seed)
}
