package wordrange

import (
	"strings"
	"unicode"
)

// Token is one word found by the Tokenizer.
type Token struct {
	Text       string // Decoded word text.
	Start      int    // Document offset of the first rune.
	End        int    // Document offset just past the last rune.
	LogicalEnd int    // End without a trailing included break.

	offsets []int // Document offset of each rune of Text.
}

// Len returns the number of document runes the token covers.
func (t Token) Len() int { return t.End - t.Start }

// RawOffset maps the index of a rune in Text back to a document offset.
// Indexes at or past the end of Text map to End.
func (t Token) RawOffset(i int) int {
	switch {
	case i < 0:
		return t.Start
	case i >= len(t.offsets):
		return t.End
	}
	return t.offsets[i]
}

// Tokenizer lazily splits text into word tokens. Only tokens starting
// before the limit are produced, but a token that starts in bounds always
// runs to its natural end.
type Tokenizer struct {
	text  []rune
	pos   int
	limit int
}

// NewTokenizer returns a tokenizer over text producing tokens that start in
// [from,limit).
func NewTokenizer(text []rune, from, limit int) *Tokenizer {
	if limit > len(text) {
		limit = len(text)
	}
	if from < 0 {
		from = 0
	}
	return &Tokenizer{text: text, pos: from, limit: limit}
}

// Pos returns the offset the next scan starts at.
func (t *Tokenizer) Pos() int { return t.pos }

// Next returns the next token, or false when no token starts before the
// limit.
func (t *Tokenizer) Next() (Token, bool) {
	i := t.pos
	for i < t.limit {
		r, w := decodeAt(t.text, i)
		if Classify(r) == Letter {
			break
		}
		i += w
	}
	if i >= t.limit {
		t.pos = t.limit
		return Token{}, false
	}

	tok := Token{Start: i}
	var sb strings.Builder
	add := func(r rune, at int) {
		sb.WriteRune(r)
		tok.offsets = append(tok.offsets, at)
	}
scan:
	for i < len(t.text) {
		r, w := decodeAt(t.text, i)
		switch Classify(r) {
		case Letter:
			add(r, i)
			i += w
		case BoundaryBreak:
			// Kept only when a letter follows.
			if i+w >= len(t.text) {
				break scan
			}
			if n, _ := decodeAt(t.text, i+w); Classify(n) != Letter {
				break scan
			}
			add(r, i)
			i += w
		case IncludedBreak:
			tok.LogicalEnd = i
			add(r, i)
			i += w
			break scan
		default:
			break scan
		}
	}
	tok.End = i
	if tok.LogicalEnd == 0 {
		tok.LogicalEnd = i
	}
	tok.Text = sb.String()
	t.pos = i
	return tok, true
}

// Words returns every token of s. It is a convenience for callers holding a
// plain string.
func Words(s string) []Token {
	text := []rune(s)
	tz := NewTokenizer(text, 0, len(text))
	var toks []Token
	for {
		tok, ok := tz.Next()
		if !ok {
			return toks
		}
		toks = append(toks, tok)
	}
}

// safeStart returns the offset of the whitespace-delimited chunk containing
// offset. Tokens never span whitespace, so tokenizing from there sees the
// same words as tokenizing from the start of the text.
func safeStart(text []rune, offset int) int {
	if offset > len(text) {
		offset = len(text)
	}
	for offset > 0 && !unicode.IsSpace(text[offset-1]) {
		offset--
	}
	return offset
}

// ExpandToWordBoundaries adjusts [start,end) so that it begins at the start
// of the first word it touches and ends at the end of the last one, trailing
// included period included. Words cut by either bound are completed, and
// leading or trailing non-word text is dropped. When no word touches the
// range it collapses to start.
func ExpandToWordBoundaries(text []rune, start, end int) (int, int) {
	if start > end {
		start, end = end, start
	}
	limit := end + 1
	tz := NewTokenizer(text, safeStart(text, start), limit)
	newStart, newEnd := -1, -1
	for {
		tok, ok := tz.Next()
		if !ok {
			break
		}
		if tok.Start > end {
			break
		}
		if tok.End < start {
			continue
		}
		if newStart < 0 {
			newStart = tok.Start
		}
		newEnd = tok.End
	}
	if newStart < 0 {
		return start, start
	}
	return newStart, newEnd
}
