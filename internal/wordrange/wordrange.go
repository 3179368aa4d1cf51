// Package wordrange splits a region of a document into the words a spell
// checker should look at.
package wordrange

import (
	"github.com/JackWReid/prosecheck/internal/document"
)

// Filter reports whether the text in [start,end) must never be checked,
// for example because it belongs to an embedded widget. Filtered words are
// treated as correct.
type Filter func(start, end int) bool

// WordRange iterates the words of a document region in order. The region is
// held through positions, so a WordRange stays valid while the document is
// edited between calls to Next.
type WordRange struct {
	doc    *document.Document
	region *document.Range
	filter Filter

	// logicalEnd is the nominal end of the current word. scan is where the
	// current word really ends, past a trailing included break. Every
	// search restarts from logicalEnd, so a word cut at the region end by
	// its period is never read as starting after the end.
	logicalEnd *document.Position
	scan       int

	current Token
	valid   bool
}

// New returns a WordRange over r, grown to whole-word boundaries.
func New(r *document.Range, filter Filter) *WordRange {
	doc := r.Document()
	start, end := ExpandToWordBoundaries(doc.Runes(), r.Start.Offset(), r.End.Offset())
	w := &WordRange{
		doc:        doc,
		region:     doc.Range(start, end),
		filter:     filter,
		logicalEnd: doc.Pos(start, document.LeftSticky),
		scan:       start,
	}
	if !r.Positioned() {
		w.region.Start.Detach()
		w.logicalEnd.Detach()
	}
	return w
}

// NewDocument returns a WordRange over the whole document.
func NewDocument(doc *document.Document, filter Filter) *WordRange {
	return New(doc.Whole(), filter)
}

// Region returns the expanded region being iterated.
func (w *WordRange) Region() *document.Range { return w.region }

// Positioned reports whether the region still refers to live content. A
// WordRange whose region was replaced wholesale is stale.
func (w *WordRange) Positioned() bool {
	return w.region.Positioned() && w.logicalEnd.Positioned()
}

// End returns the position iteration has reached: the nominal end of the
// current word, or the region end once the range is exhausted.
func (w *WordRange) End() *document.Position { return w.logicalEnd }

// HasNext reports whether another word starts before the region end.
func (w *WordRange) HasNext() bool {
	_, ok := w.peek()
	return ok
}

// Next advances to the next word. It returns false when the region is
// exhausted or stale.
func (w *WordRange) Next() bool {
	tok, ok := w.peek()
	if !ok {
		w.valid = false
		if w.Positioned() && w.logicalEnd.IsLeftOf(w.region.End) {
			w.logicalEnd.MoveTo(w.region.End)
		}
		return false
	}
	w.current = tok
	w.valid = true
	w.logicalEnd.MoveToOffset(tok.LogicalEnd)
	w.scan = tok.End
	return true
}

func (w *WordRange) peek() (Token, bool) {
	if !w.Positioned() {
		return Token{}, false
	}
	text := w.doc.Runes()
	le := w.logicalEnd.Offset()
	end := w.region.End.Offset()
	if le >= end {
		return Token{}, false
	}
	w.scan = le
	if rs := w.region.Start.Offset(); le > rs {
		// Text typed onto the last word grows it, so read that word again
		// from its start.
		w.scan = max(safeStart(text, le), rs)
	}
	tz := NewTokenizer(text, w.scan, end)
	for {
		tok, ok := tz.Next()
		if !ok {
			return Token{}, false
		}
		if tok.Start >= le || tok.LogicalEnd > le {
			return tok, true
		}
	}
}

// Current returns the word Next stopped at.
func (w *WordRange) Current() Token { return w.current }

// CurrentRange returns a range over the current word. Its ends stick to the
// word, so text typed at either edge stays outside.
func (w *WordRange) CurrentRange() *document.Range {
	return w.doc.InnerRange(w.current.Start, w.current.End)
}

// Span converts a sub-span of the current word, given in runes of its
// decoded text, into document offsets.
func (w *WordRange) Span(offset, length int) (start, end int) {
	return w.current.RawOffset(offset), w.current.RawOffset(offset + length)
}

// IsCurrentWordURLPart reports whether the current word is part of a URL
// or an e-mail address.
func (w *WordRange) IsCurrentWordURLPart() bool {
	return w.valid && isURLPart(w.doc.Runes(), w.current.Start, w.current.End)
}

// FilterApplies reports whether the caller-supplied filter rejects
// [start,end).
func (w *WordRange) FilterApplies(start, end int) bool {
	return w.filter != nil && w.filter(start, end)
}

// Checkable reports whether the current word should be sent to a speller.
// Words without letters, words written only in uncheckable scripts, URL
// fragments and filtered words are always correct.
func (w *WordRange) Checkable() bool {
	if !w.valid {
		return false
	}
	tok := w.current
	switch {
	case !HasLetter(tok.Text), IsUncheckable(tok.Text):
		return false
	case w.IsCurrentWordURLPart():
		return false
	case w.FilterApplies(tok.Start, tok.End):
		return false
	}
	return true
}
