package markov

import "sort"

// Corpus maps normalized word text to its Word. A Corpus is produced by a
// Builder and is read-only afterwards, so it can be shared across goroutines.
type Corpus struct {
	words map[string]*Word
}

// Lookup returns the word for raw text after canonicalizing it.
// Bare punctuation and the terminal sentinel are never found.
func (c *Corpus) Lookup(raw string) (*Word, bool) {
	text, _ := Canonicalize(raw)
	if text == "" || text == LastWord || IsBarePunctuation(text) {
		return nil, false
	}
	w, ok := c.words[text]
	return w, ok
}

// Word returns the entry stored under the exact text, including the sentinel.
func (c *Corpus) Word(text string) (*Word, bool) {
	w, ok := c.words[text]
	return w, ok
}

// Len returns the number of entries, sentinel included.
func (c *Corpus) Len() int { return len(c.words) }

// Texts returns every word text except the sentinel, sorted.
func (c *Corpus) Texts() []string {
	out := make([]string, 0, len(c.words))
	for t := range c.words {
		if t == LastWord {
			continue
		}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Builder assembles a Corpus from tokenized lines. It is not safe for
// concurrent use; feed it from a single goroutine.
type Builder struct {
	words  map[string]*Word
	frozen bool
	corpus *Corpus
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{words: make(map[string]*Word)}
}

// AddLine walks tokens in word/separator pairs, linking each primary word to
// the token that follows it, or to the terminal sentinel at the end of the line.
// It returns the number of primary words accepted.
func (b *Builder) AddLine(tokens []string) int {
	if b.frozen {
		return 0
	}
	accepted := 0
	for i := 0; i < len(tokens); i += 2 {
		text, mark := Canonicalize(tokens[i])
		if text == LastWord {
			continue
		}
		word := b.register(text, text, mark)
		if word == nil {
			continue
		}
		accepted++

		nextRaw := LastWord
		if i < len(tokens)-1 {
			nextRaw = tokens[i+1]
		}
		nextText, nextMark := Canonicalize(nextRaw)
		if nextText == "" {
			continue
		}
		word.AddSuccessor(b.register(nextText, nextRaw, nextMark))
	}
	return accepted
}

// register fetches or creates the word for canonical text. Usage and
// punctuation are tallied only when the word is first created. A word is
// constructed from raw, so a follower first seen as "product." records its
// mark at construction and again in the first-registration tally.
func (b *Builder) register(text, raw string, mark Punctuation) *Word {
	if text == "" || IsBarePunctuation(text) {
		return nil
	}
	if w, ok := b.words[text]; ok {
		return w
	}
	w := NewWord(raw)
	b.words[text] = w
	w.TrackUsage()
	w.TrackPunctuation(mark)
	return w
}

// Len returns the number of words registered so far.
func (b *Builder) Len() int { return len(b.words) }

// Corpus freezes the builder and returns the finished corpus. Every word is
// normalized before returning so readers never build tables concurrently.
// Later calls return the same corpus.
func (b *Builder) Corpus() *Corpus {
	if b.frozen {
		return b.corpus
	}
	b.frozen = true
	for _, w := range b.words {
		w.normalize()
	}
	b.corpus = &Corpus{words: b.words}
	return b.corpus
}
