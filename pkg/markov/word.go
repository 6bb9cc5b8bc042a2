package markov

import (
	"sort"
	"sync"
	"sync/atomic"
)

// LastWord is the text of the terminal sentinel. It ends every generated
// sequence and is never rendered.
const LastWord = "!last"

// punctuationSlots is the size of the punctuation sampling table.
const punctuationSlots = 100

type edge struct {
	next  *Word
	count int
}

// Word is one distinct normalized word and its transition statistics.
//
// A Word starts in the training state, where TrackUsage, TrackPunctuation and
// AddSuccessor mutate its counts. The first sampling call (or Corpus freeze)
// moves it to the normalized state: probability tables are built once and
// later mutations are ignored.
type Word struct {
	text  string
	usage int

	successors  map[string]*edge
	punctuation [len(Marks)]int
	hasPunct    bool

	normalized atomic.Bool

	succOnce  sync.Once
	succTable []*Word

	punctOnce  sync.Once
	punctTable [punctuationSlots]Punctuation
}

// NewWord builds a Word from a raw token. A trailing punctuation mark is
// stripped from the text and recorded.
func NewWord(raw string) *Word {
	text, mark := Canonicalize(raw)
	w := &Word{
		text:       text,
		usage:      1,
		successors: make(map[string]*edge),
	}
	w.TrackPunctuation(mark)
	return w
}

// Text returns the normalized word text, which is also its identity.
func (w *Word) Text() string { return w.text }

// Usage returns how many times the word was tallied during training.
func (w *Word) Usage() int { return w.usage }

// HasPunctuation reports whether any punctuation was recorded for the word.
func (w *Word) HasPunctuation() bool { return w.hasPunct }

// IsLast reports whether w is the terminal sentinel.
func (w *Word) IsLast() bool { return w.text == LastWord }

// Equal reports whether both words have the same text.
func (w *Word) Equal(other *Word) bool {
	if w == nil || other == nil {
		return w == other
	}
	return w.text == other.text
}

// Normalized reports whether the probability tables have been built.
func (w *Word) Normalized() bool { return w.normalized.Load() }

// TrackUsage tallies one more usage of the word.
func (w *Word) TrackUsage() {
	if w.Normalized() {
		return
	}
	w.usage++
}

// TrackPunctuation tallies one occurrence of mark after the word.
func (w *Word) TrackPunctuation(mark Punctuation) {
	i := markIndex(mark)
	if i < 0 || w.Normalized() {
		return
	}
	w.punctuation[i]++
	w.hasPunct = true
}

// AddSuccessor records that next followed the word once. A nil next is ignored.
func (w *Word) AddSuccessor(next *Word) {
	if next == nil || w.Normalized() {
		return
	}
	e, ok := w.successors[next.text]
	if !ok {
		e = &edge{next: next}
		w.successors[next.text] = e
	}
	e.count++
}

// Successors returns a copy of the raw successor counts keyed by word text.
func (w *Word) Successors() map[string]int {
	out := make(map[string]int, len(w.successors))
	for k, e := range w.successors {
		out[k] = e.count
	}
	return out
}

// PunctuationCounts returns the raw counts per mark.
func (w *Word) PunctuationCounts() map[Punctuation]int {
	out := make(map[Punctuation]int, len(Marks))
	for i, m := range Marks {
		out[m] = w.punctuation[i]
	}
	return out
}

// SampleSuccessor draws the next word. It returns nil for the sentinel and for
// words whose distribution is empty after pruning.
func (w *Word) SampleSuccessor(rng Rand) *Word {
	if w.IsLast() {
		return nil
	}
	table := w.successorTable()
	if len(table) == 0 {
		return nil
	}
	return table[rng.IntN(len(table))]
}

// SamplePunctuation draws the punctuation that follows the word, or NoPunctuation.
func (w *Word) SamplePunctuation(rng Rand) Punctuation {
	table := w.punctuationTable()
	if !w.hasPunct {
		return NoPunctuation
	}
	return table[rng.IntN(len(table))]
}

// normalize builds both tables. Safe to call repeatedly and concurrently.
func (w *Word) normalize() {
	w.successorTable()
	w.punctuationTable()
}

func (w *Word) successorTable() []*Word {
	w.succOnce.Do(func() {
		w.normalized.Store(true)
		w.succTable = buildSuccessorTable(w.successors)
	})
	return w.succTable
}

func (w *Word) punctuationTable() *[punctuationSlots]Punctuation {
	w.punctOnce.Do(func() {
		w.normalized.Store(true)
		w.punctTable = buildPunctuationTable(w.punctuation, w.usage)
	})
	return &w.punctTable
}

type share struct {
	word    *Word
	count   int
	percent int
}

// buildSuccessorTable converts counts to whole percentages, drops successors
// under 1%, rescales the survivors over their own total and lays each one out
// percent times in a flat table.
func buildSuccessorTable(successors map[string]*edge) []*Word {
	shares := make([]share, 0, len(successors))
	total := 0
	for _, e := range successors {
		shares = append(shares, share{word: e.next, count: e.count})
		total += e.count
	}
	if total == 0 {
		return nil
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].count != shares[j].count {
			return shares[i].count > shares[j].count
		}
		return shares[i].word.text < shares[j].word.text
	})

	kept := shares[:0]
	keptTotal := 0
	for _, s := range shares {
		s.percent = s.count * 100 / total
		if s.percent < 1 {
			continue
		}
		kept = append(kept, s)
		keptTotal += s.percent
	}
	if keptTotal == 0 {
		return nil
	}

	size := 0
	for i := range kept {
		kept[i].percent = kept[i].percent * 100 / keptTotal
		size += kept[i].percent
	}
	table := make([]*Word, 0, size)
	for _, s := range kept {
		for i := 0; i < s.percent; i++ {
			table = append(table, s.word)
		}
	}
	return table
}

// buildPunctuationTable gives every mark count*100/usage slots, filled
// contiguously in mark order. Slots left over hold NoPunctuation.
func buildPunctuationTable(counts [len(Marks)]int, usage int) [punctuationSlots]Punctuation {
	var table [punctuationSlots]Punctuation
	if usage <= 0 {
		return table
	}
	pos := 0
	for i, m := range Marks {
		if counts[i] == 0 {
			continue
		}
		n := counts[i] * punctuationSlots / usage
		if n > punctuationSlots-pos {
			n = punctuationSlots - pos
		}
		for j := 0; j < n; j++ {
			table[pos] = m
			pos++
		}
	}
	return table
}
