package wordrange

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/rangetable"
)

// Class is the role a character plays in word segmentation.
type Class int

const (
	// Break always ends or starts a word.
	Break Class = iota
	// BoundaryBreak is a break only at the edge of a word. Between two
	// letters it belongs to the word, so "don't" stays whole.
	BoundaryBreak
	// Letter extends the current word. Digits and combining marks count.
	Letter
	// IncludedBreak ends the word but is kept as its last character.
	IncludedBreak
)

func (c Class) String() string {
	switch c {
	case BoundaryBreak:
		return "boundary"
	case Letter:
		return "letter"
	case IncludedBreak:
		return "included"
	}
	return "break"
}

// Classify returns the segmentation class of r.
func Classify(r rune) Class {
	switch {
	case r == '\'' || r == '’':
		return BoundaryBreak
	case r == '.':
		return IncludedBreak
	case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r):
		return Letter
	}
	return Break
}

// uncheckable covers scripts the dictionaries have no data for. Words made
// only of these characters are never flagged.
var uncheckable = rangetable.Merge(
	unicode.Han,
	unicode.Hiragana,
	unicode.Katakana,
	unicode.Hangul,
	unicode.Thai,
	unicode.Lao,
	unicode.Khmer,
	unicode.Myanmar,
)

// IsUncheckable reports whether every letter of word belongs to a script
// outside the checkable alphabet.
func IsUncheckable(word string) bool {
	letters := 0
	for _, r := range word {
		if !unicode.IsLetter(r) {
			continue
		}
		if !unicode.Is(uncheckable, r) {
			return false
		}
		letters++
	}
	return letters > 0
}

// HasLetter reports whether word contains at least one letter.
func HasLetter(word string) bool {
	for _, r := range word {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// maxEntity bounds the length of a character reference, "&" and ";"
// included.
const maxEntity = 32

// decodeAt returns the logical character starting at text[i] and the
// number of runes it occupies. A character reference such as "&amp;" or
// "&#8217;" decodes to one rune and is consumed as a unit; anything else is
// a single rune.
func decodeAt(text []rune, i int) (rune, int) {
	r := text[i]
	if r != '&' {
		return r, 1
	}
	for j := i + 1; j < len(text) && j-i < maxEntity; j++ {
		switch c := text[j]; {
		case c == ';':
			if j == i+1 {
				return r, 1
			}
			raw := string(text[i : j+1])
			dec := html.UnescapeString(raw)
			if dec == raw || utf8.RuneCountInString(dec) != 1 {
				return r, 1
			}
			d, _ := utf8.DecodeRuneInString(dec)
			return d, j + 1 - i
		case c == '&' || unicode.IsSpace(c):
			return r, 1
		}
	}
	return r, 1
}
