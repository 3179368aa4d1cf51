package document

import "fmt"

// Gravity decides which side a Position attaches to when text is inserted
// exactly at it. It is fixed when the Position is created.
type Gravity int

const (
	// LeftSticky stays attached to the content on its left.
	LeftSticky Gravity = iota
	// RightSticky moves with the content on its right.
	RightSticky
)

func (g Gravity) String() string {
	if g == RightSticky {
		return "right"
	}
	return "left"
}

// Position is a non-owning, order-comparable reference into a Document that
// survives edits. A Position becomes unpositioned when the document content
// it referred to is replaced wholesale, or when it is detached.
type Position struct {
	doc        *Document
	offset     int
	gravity    Gravity
	positioned bool
}

// Document returns the document the position points into.
func (p *Position) Document() *Document { return p.doc }

// Offset returns the current rune offset.
func (p *Position) Offset() int { return p.offset }

// Gravity returns the position's insertion affinity.
func (p *Position) Gravity() Gravity { return p.gravity }

// Positioned reports whether the position still refers to live content.
func (p *Position) Positioned() bool { return p != nil && p.positioned }

// Detach unpositions p. Edits no longer move it.
func (p *Position) Detach() { p.positioned = false }

// Clone returns a new position at the same place with the same gravity.
func (p *Position) Clone() *Position {
	return p.CloneWith(p.gravity)
}

// CloneWith returns a new position at the same place with gravity g.
func (p *Position) CloneWith(g Gravity) *Position {
	c := p.doc.Pos(p.offset, g)
	c.positioned = p.positioned
	return c
}

// MoveTo moves p to the place o refers to.
func (p *Position) MoveTo(o *Position) {
	p.offset = o.offset
	p.positioned = o.positioned
}

// MoveToOffset moves p to offset, clamped to the document.
func (p *Position) MoveToOffset(offset int) {
	p.offset = p.doc.clamp(offset)
}

// Compare returns -1, 0 or +1 as p is left of, equal to, or right of o.
func (p *Position) Compare(o *Position) int {
	switch {
	case p.offset < o.offset:
		return -1
	case p.offset > o.offset:
		return 1
	}
	return 0
}

// IsLeftOf reports whether p is strictly before o.
func (p *Position) IsLeftOf(o *Position) bool { return p.offset < o.offset }

// IsRightOf reports whether p is strictly after o.
func (p *Position) IsRightOf(o *Position) bool { return p.offset > o.offset }

// IsEqualTo reports whether p and o refer to the same place.
func (p *Position) IsEqualTo(o *Position) bool { return p.offset == o.offset }

func (p *Position) String() string {
	if !p.Positioned() {
		return "pos(unpositioned)"
	}
	return fmt.Sprintf("pos(%d,%s)", p.offset, p.gravity)
}
