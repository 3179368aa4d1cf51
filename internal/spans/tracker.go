// Package spans keeps the sorted indexes of highlighted and ignored spans
// of a document.
package spans

import (
	"log/slog"
	"sort"

	"golang.org/x/text/cases"

	"github.com/JackWReid/prosecheck/internal/document"
)

// Segment is a span currently shown as misspelled.
type Segment struct {
	Start *document.Position
	End   *document.Position
	Word  string
	// Handle is the host's rendering handle for the highlight. The host
	// releases it when the segment leaves the tracker.
	Handle any
}

// Range returns the segment's span.
func (s *Segment) Range() *document.Range { return document.NewRange(s.Start, s.End) }

// Text returns the document text the segment covers now.
func (s *Segment) Text() string { return s.Range().Text() }

// phantom reports whether the segment no longer covers any text.
func (s *Segment) phantom() bool {
	return !s.Start.Positioned() || !s.End.Positioned() || !s.Start.IsLeftOf(s.End)
}

// SegmentTracker is the index of misspelled segments, sorted by start
// position with at most one segment per start.
type SegmentTracker struct {
	segs    []*Segment
	log     *slog.Logger
	release func(*Segment)
}

// NewSegmentTracker returns an empty tracker. release, if not nil, is
// called for segments the tracker prunes on its own; segments handed back
// by the Get and Clear methods are the caller's to release.
func NewSegmentTracker(log *slog.Logger, release func(*Segment)) *SegmentTracker {
	return &SegmentTracker{log: orDefault(log), release: release}
}

// Len returns the number of tracked segments.
func (t *SegmentTracker) Len() int { return len(t.segs) }

// Segments returns the tracked segments in document order.
func (t *SegmentTracker) Segments() []*Segment {
	return append([]*Segment(nil), t.segs...)
}

// searchStart returns the index of the first segment starting at or after
// offset.
func (t *SegmentTracker) searchStart(offset int) int {
	return sort.Search(len(t.segs), func(i int) bool {
		return t.segs[i].Start.Offset() >= offset
	})
}

// AddSegment tracks word over [start,end). If a segment already starts at
// start the first one is kept, nothing is added, and false is returned.
func (t *SegmentTracker) AddSegment(word string, start, end *document.Position) (*Segment, bool) {
	i := t.searchStart(start.Offset())
	if i < len(t.segs) && t.segs[i].Start.IsEqualTo(start) {
		t.log.Warn("segment already starts here, keeping the first",
			"offset", start.Offset(), "kept", t.segs[i].Word, "dropped", word)
		return t.segs[i], false
	}
	seg := &Segment{Start: start, End: end, Word: word}
	t.segs = append(t.segs, nil)
	copy(t.segs[i+1:], t.segs[i:])
	t.segs[i] = seg
	return seg, true
}

// FindSegment returns the segment containing p, or nil. A phantom segment
// met on the way is removed.
func (t *SegmentTracker) FindSegment(p *document.Position) *Segment {
	if !p.Positioned() {
		return nil
	}
	off := p.Offset()
	i := sort.Search(len(t.segs), func(i int) bool {
		return t.segs[i].Start.Offset() > off
	}) - 1
	for ; i >= 0; i-- {
		s := t.segs[i]
		if s.phantom() {
			violation(t.log, "phantom segment", "word", s.Word, "offset", s.Start.Offset())
			t.extract(i, i+1)
			if t.release != nil {
				t.release(s)
			}
			continue
		}
		if off < s.End.Offset() {
			return s
		}
		return nil
	}
	return nil
}

// GetSegmentsInRange removes and returns the segments whose start lies in
// [start,end). A collapsed range takes the segments starting exactly at it.
func (t *SegmentTracker) GetSegmentsInRange(start, end *document.Position) []*Segment {
	lo := t.searchStart(start.Offset())
	hi := lo
	if end.IsRightOf(start) {
		hi = lo + sort.Search(len(t.segs)-lo, func(i int) bool {
			return t.segs[lo+i].Start.Offset() >= end.Offset()
		})
	} else {
		for hi < len(t.segs) && t.segs[hi].Start.IsEqualTo(start) {
			hi++
		}
	}
	return t.extract(lo, hi)
}

// GetSegmentsByWord removes and returns every segment whose word matches
// word ignoring case and for which accept reports true. A nil accept takes
// every match.
func (t *SegmentTracker) GetSegmentsByWord(word string, accept func(string) bool) []*Segment {
	fold := cases.Fold()
	target := fold.String(word)
	var out []*Segment
	kept := t.segs[:0]
	for _, s := range t.segs {
		if fold.String(s.Word) == target && (accept == nil || accept(s.Word)) {
			out = append(out, s)
			continue
		}
		kept = append(kept, s)
	}
	clear(t.segs[len(kept):])
	t.segs = kept
	return out
}

// PrunePhantoms removes the segments starting in [start,end] that no longer
// cover any text and returns how many were removed. Replacing a word leaves
// its old segment collapsed just after the new text.
func (t *SegmentTracker) PrunePhantoms(start, end *document.Position) int {
	n := 0
	for i := t.searchStart(start.Offset()); i < len(t.segs) && t.segs[i].Start.Offset() <= end.Offset(); {
		s := t.segs[i]
		if !s.phantom() {
			i++
			continue
		}
		t.extract(i, i+1)
		if t.release != nil {
			t.release(s)
		}
		n++
	}
	return n
}

// ClearAll removes and returns every segment.
func (t *SegmentTracker) ClearAll() []*Segment {
	out := t.segs
	t.segs = nil
	return out
}

func (t *SegmentTracker) extract(lo, hi int) []*Segment {
	if lo >= hi {
		return nil
	}
	out := append([]*Segment(nil), t.segs[lo:hi]...)
	n := copy(t.segs[lo:], t.segs[hi:])
	clear(t.segs[lo+n:])
	t.segs = t.segs[:lo+n]
	return out
}
