package markov

import "strings"

// Punctuation is one of the four marks the model tracks, or NoPunctuation.
type Punctuation byte

// NoPunctuation marks the absence of a punctuation mark.
const NoPunctuation Punctuation = 0

// Marks lists the tracked punctuation in table order.
var Marks = [...]Punctuation{'.', ',', '!', '?'}

const markChars = ".,!?"

// String returns the mark as text, or "" for NoPunctuation.
func (p Punctuation) String() string {
	if p == NoPunctuation {
		return ""
	}
	return string(rune(p))
}

// markIndex returns the position of p in Marks, or -1.
func markIndex(p Punctuation) int {
	for i, m := range Marks {
		if m == p {
			return i
		}
	}
	return -1
}

// IsMark reports whether c is one of the tracked punctuation marks.
func IsMark(c byte) bool {
	return strings.IndexByte(markChars, c) >= 0
}

// IsBarePunctuation reports whether s is a single punctuation mark on its own.
func IsBarePunctuation(s string) bool {
	return len(s) == 1 && IsMark(s[0])
}

// Canonicalize lower-cases a raw token and strips its trailing punctuation.
// The final mark is returned alongside the word. Single-character tokens are
// never stripped, so a bare "." comes back unchanged and can be rejected by
// IsBarePunctuation. Any further trailing marks ("wow!!") are trimmed so the
// word text never ends in punctuation.
func Canonicalize(raw string) (string, Punctuation) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if len(text) <= 1 || !IsMark(text[len(text)-1]) {
		return text, NoPunctuation
	}
	mark := Punctuation(text[len(text)-1])
	return strings.TrimRight(text[:len(text)-1], markChars+" \t\r\n"), mark
}
