package spans

import (
	"log/slog"
	"sort"
	"unicode"

	"github.com/JackWReid/prosecheck/internal/document"
)

// IgnoredRangeList holds the spans the user chose to ignore once, sorted by
// start. Spans are kept at the bounds of the text they cover: the start
// sticks to the right and the end to the left, so text typed at either
// edge never becomes ignored. Spans never overlap.
type IgnoredRangeList struct {
	spans []*document.Range
	log   *slog.Logger
}

// NewIgnoredRangeList returns an empty list.
func NewIgnoredRangeList(log *slog.Logger) *IgnoredRangeList {
	return &IgnoredRangeList{log: orDefault(log)}
}

// Len returns the number of ignored spans.
func (l *IgnoredRangeList) Len() int { return len(l.spans) }

// Spans returns the ignored spans in document order.
func (l *IgnoredRangeList) Spans() []*document.Range {
	return append([]*document.Range(nil), l.spans...)
}

// Reset forgets every span.
func (l *IgnoredRangeList) Reset() { l.spans = nil }

// innerBounds trims surrounding whitespace from r so that two spans over the
// same word compare equal however they were made.
func innerBounds(r *document.Range) (start, end int) {
	doc := r.Document()
	start, end = r.Start.Offset(), r.End.Offset()
	for start < end && unicode.IsSpace(doc.RuneAt(start)) {
		start++
	}
	for end > start && unicode.IsSpace(doc.RuneAt(end-1)) {
		end--
	}
	return start, end
}

// searchAfter returns the index of the first span starting after offset.
func (l *IgnoredRangeList) searchAfter(offset int) int {
	return sort.Search(len(l.spans), func(i int) bool {
		return l.spans[i].Start.Offset() > offset
	})
}

// Add records r as ignored. It returns false, leaving the list untouched,
// when r is stale, covers only whitespace, or a span already starts at the
// same place.
func (l *IgnoredRangeList) Add(r *document.Range) bool {
	if !r.Positioned() {
		return false
	}
	start, end := innerBounds(r)
	if start >= end {
		return false
	}
	i := l.searchAfter(start)
	if i > 0 && l.spans[i-1].Start.Offset() == start {
		return false
	}
	l.insertAt(i, r.Document().InnerRange(start, end))
	return true
}

func (l *IgnoredRangeList) insertAt(i int, r *document.Range) {
	l.spans = append(l.spans, nil)
	copy(l.spans[i+1:], l.spans[i:])
	l.spans[i] = r
}

func (l *IgnoredRangeList) insert(r *document.Range) {
	l.insertAt(l.searchAfter(r.Start.Offset()), r)
}

func (l *IgnoredRangeList) removeAt(i int) {
	copy(l.spans[i:], l.spans[i+1:])
	l.spans[len(l.spans)-1] = nil
	l.spans = l.spans[:len(l.spans)-1]
}

// Contains reports whether r lies inside an ignored span. A span that only
// partly overlaps r breaks the list's invariants; it is reported and
// counted as containing r.
func (l *IgnoredRangeList) Contains(r *document.Range) bool {
	if !r.Positioned() {
		return false
	}
	start, end := innerBounds(r)
	i := l.searchAfter(start) - 1
	if i >= 0 {
		c := l.spans[i]
		if ce := c.End.Offset(); start < ce {
			if end > ce {
				violation(l.log, "ignored span partly overlaps query", "span", c.String(), "query", r.String())
			}
			return true
		}
	}
	if i+1 < len(l.spans) {
		if c := l.spans[i+1]; c.Start.Offset() < end {
			violation(l.log, "ignored span partly overlaps query", "span", c.String(), "query", r.String())
			return true
		}
	}
	return false
}

// ContainsPosition reports whether p lies inside an ignored span.
func (l *IgnoredRangeList) ContainsPosition(p *document.Position) bool {
	if !p.Positioned() {
		return false
	}
	i := l.searchAfter(p.Offset()) - 1
	return i >= 0 && p.IsLeftOf(l.spans[i].End)
}

// ClearRange removes what r covers from the ignored spans: spans inside
// it are dropped, spans around it are split, and spans crossing one of its
// edges are trimmed. Spans invalidated by earlier edits are dropped on the
// way.
func (l *IgnoredRangeList) ClearRange(r *document.Range) {
	if !r.Positioned() {
		return
	}
	cs, ce := r.Start.Offset(), r.End.Offset()
	if cs > ce {
		return
	}
	i := max(l.searchAfter(cs)-1, 0)
	for i < len(l.spans) {
		c := l.spans[i]
		if c.Positioned() && c.Start.Offset() >= ce && c.Start.Offset() > cs {
			break
		}
		if !c.Positioned() || c.IsEmpty() {
			l.removeAt(i)
			continue
		}
		s, e := c.Start.Offset(), c.End.Offset()
		if cs == ce || e <= cs {
			// No shared text.
			i++
			continue
		}
		switch {
		case cs <= s && e <= ce:
			l.removeAt(i)
			continue
		case s < cs && ce < e:
			c.End.MoveToOffset(cs)
			l.insert(c.Document().InnerRange(ce, e))
		case s < cs:
			c.End.MoveToOffset(cs)
		default:
			c.Start.MoveToOffset(ce)
		}
		if c.IsEmpty() {
			l.removeAt(i)
			continue
		}
		i++
	}
}
