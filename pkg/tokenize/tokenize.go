package tokenize

import (
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Tokenizer splits the text of one review into an ordered token sequence.
type Tokenizer interface {
	Tokenize(text string) []string
}

// New returns the tokenizer for a corpus language: "en" (default) or "ja".
func New(language string) (Tokenizer, error) {
	switch strings.ToLower(language) {
	case "", "en":
		return Splitter{}, nil
	case "ja":
		return NewKagome()
	default:
		return nil, fmt.Errorf("unsupported language %q", language)
	}
}

// Splitter lower-cases text and splits it on whitespace, ';' and ':'.
// Runs of separators never produce empty tokens.
type Splitter struct{}

// Tokenize implements Tokenizer.
func (Splitter) Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	return strings.FieldsFunc(strings.ToLower(text), isSeparator)
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', ';', ':', '\t', '\n', '\r':
		return true
	}
	return false
}

// Kagome segments Japanese text with the IPA dictionary.
// Sentence punctuation is folded onto the preceding token using its ASCII
// equivalent; other symbols are dropped.
type Kagome struct {
	t *tokenizer.Tokenizer
}

// NewKagome creates a new tokenizer instance.
func NewKagome() (*Kagome, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Kagome{t: t}, nil
}

var fullWidthMarks = map[string]string{
	"。": ".", "．": ".", ".": ".",
	"、": ",", "，": ",", ",": ",",
	"！": "!", "!": "!",
	"？": "?", "?": "?",
}

// Tokenize implements Tokenizer.
func (k *Kagome) Tokenize(text string) []string {
	var out []string
	for _, token := range k.t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		surface := strings.TrimSpace(token.Surface)
		if surface == "" {
			continue
		}

		features := token.Features()
		if len(features) > 0 && features[0] == "記号" {
			mark, ok := fullWidthMarks[surface]
			if ok && len(out) > 0 {
				out[len(out)-1] += mark
			}
			continue
		}
		out = append(out, strings.ToLower(surface))
	}
	return out
}
