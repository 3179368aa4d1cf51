package document

import "fmt"

// Range is a [Start,End) pair of positions.
type Range struct {
	Start *Position
	End   *Position
}

// NewRange builds a range from two positions of the same document.
func NewRange(start, end *Position) *Range {
	return &Range{Start: start, End: end}
}

// Document returns the document the range points into.
func (r *Range) Document() *Document { return r.Start.doc }

// Positioned reports whether both ends still refer to live content.
func (r *Range) Positioned() bool {
	return r != nil && r.Start.Positioned() && r.End.Positioned()
}

// Text returns the text covered by the range.
func (r *Range) Text() string {
	if !r.Positioned() {
		return ""
	}
	return r.Start.doc.Slice(r.Start.offset, r.End.offset)
}

// Len returns the rune length of the range, zero when inverted.
func (r *Range) Len() int {
	if n := r.End.offset - r.Start.offset; n > 0 {
		return n
	}
	return 0
}

// IsEmpty reports whether the range covers no text.
func (r *Range) IsEmpty() bool { return !r.Start.IsLeftOf(r.End) }

// Clone copies the range, keeping each end's gravity.
func (r *Range) Clone() *Range {
	return &Range{Start: r.Start.Clone(), End: r.End.Clone()}
}

// Collapse moves one end onto the other: to the start when toStart is
// true, otherwise to the end.
func (r *Range) Collapse(toStart bool) {
	if toStart {
		r.End.MoveTo(r.Start)
		return
	}
	r.Start.MoveTo(r.End)
}

// Contains reports whether o lies entirely within r.
func (r *Range) Contains(o *Range) bool {
	return !o.Start.IsLeftOf(r.Start) && !o.End.IsRightOf(r.End)
}

// ContainsPosition reports whether p lies in [Start,End).
func (r *Range) ContainsPosition(p *Position) bool {
	return !p.IsLeftOf(r.Start) && p.IsLeftOf(r.End)
}

// Intersects reports whether r and o share at least one rune.
func (r *Range) Intersects(o *Range) bool {
	return r.Start.IsLeftOf(o.End) && o.Start.IsLeftOf(r.End)
}

func (r *Range) String() string {
	if !r.Positioned() {
		return "[unpositioned)"
	}
	return fmt.Sprintf("[%d,%d)", r.Start.offset, r.End.offset)
}
