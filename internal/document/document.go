package document

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"weak"
)

// ErrOutOfRange is returned when an edit addresses offsets outside the document.
var ErrOutOfRange = errors.New("document: offset out of range")

// Change describes a single committed edit. Range covers the inserted text
// (collapsed at the edit point for a pure deletion).
type Change struct {
	Range    *Range
	Inserted int
	Deleted  int
	Reset    bool // Whole content was replaced; every earlier Position is unpositioned.
}

// Document holds the text content as runes and keeps every live Position
// in sync with edits. Positions are tracked through weak references: the
// document never keeps a Position alive.
type Document struct {
	Filename string
	Dirty    bool

	text      []rune
	positions []weak.Pointer[Position]
	listeners []listener
	nextID    int
}

type listener struct {
	id int
	fn func(Change)
}

// New creates a document holding text.
func New(text string) *Document {
	return &Document{text: []rune(text)}
}

// Load reads a file into the document.
func (d *Document) Load(filename string) error {
	if filename != "" {
		d.Filename = filename
	}
	if d.Filename == "" {
		return nil
	}
	data, err := os.ReadFile(d.Filename)
	if err != nil {
		if os.IsNotExist(err) {
			// New file, start with an empty document.
			d.SetText("")
			d.Dirty = false
			return nil
		}
		return err
	}
	// Strip trailing newline to avoid a phantom empty line.
	d.SetText(strings.TrimSuffix(string(data), "\n"))
	d.Dirty = false
	return nil
}

// Save writes the document to the given filename (or current filename).
func (d *Document) Save(filename string) error {
	if filename != "" {
		d.Filename = filename
	}
	if d.Filename == "" {
		return nil // Caller should prompt for a name.
	}
	if err := os.WriteFile(d.Filename, []byte(string(d.text)+"\n"), 0644); err != nil {
		return err
	}
	d.Dirty = false
	return nil
}

// Len returns the rune length of the document.
func (d *Document) Len() int { return len(d.text) }

// String returns the whole document text.
func (d *Document) String() string { return string(d.text) }

// RuneAt returns the rune at offset i, or 0 when i is out of bounds.
func (d *Document) RuneAt(i int) rune {
	if i < 0 || i >= len(d.text) {
		return 0
	}
	return d.text[i]
}

// Runes returns the underlying rune slice. Callers must not modify it and
// must not hold it across edits.
func (d *Document) Runes() []rune { return d.text }

// Slice returns the text in [start,end), clamped to the document.
func (d *Document) Slice(start, end int) string {
	start, end = d.clamp(start), d.clamp(end)
	if start >= end {
		return ""
	}
	return string(d.text[start:end])
}

// Lines returns the document split into hard lines.
func (d *Document) Lines() []string {
	return strings.Split(string(d.text), "\n")
}

// LineCol converts a rune offset into a 0-based line and column.
func (d *Document) LineCol(offset int) (line, col int) {
	offset = d.clamp(offset)
	for i := 0; i < offset; i++ {
		if d.text[i] == '\n' {
			line++
			col = 0
			continue
		}
		col++
	}
	return line, col
}

// OnChange registers fn to be called after every edit. The returned func
// unregisters it.
func (d *Document) OnChange(fn func(Change)) (cancel func()) {
	d.nextID++
	id := d.nextID
	d.listeners = append(d.listeners, listener{id: id, fn: fn})
	return func() {
		for i, l := range d.listeners {
			if l.id == id {
				d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
				return
			}
		}
	}
}

// Insert inserts s at offset.
func (d *Document) Insert(offset int, s string) error {
	return d.Replace(offset, offset, s)
}

// Delete removes the runes in [start,end).
func (d *Document) Delete(start, end int) error {
	return d.Replace(start, end, "")
}

// Replace substitutes the runes in [start,end) with s as one edit.
func (d *Document) Replace(start, end int, s string) error {
	if start < 0 || end < start || end > len(d.text) {
		return fmt.Errorf("replace [%d,%d) in document of length %d: %w", start, end, len(d.text), ErrOutOfRange)
	}
	ins := []rune(s)
	if start == end && len(ins) == 0 {
		return nil
	}
	text := make([]rune, 0, len(d.text)-(end-start)+len(ins))
	text = append(text, d.text[:start]...)
	text = append(text, ins...)
	text = append(text, d.text[end:]...)
	d.text = text
	d.Dirty = true

	deleted, inserted := end-start, len(ins)
	d.remap(func(p *Position) {
		switch {
		case p.offset > end:
			p.offset -= deleted
		case p.offset > start:
			p.offset = start
		}
		if inserted == 0 {
			return
		}
		if p.offset > start || (p.offset == start && p.gravity == RightSticky) {
			p.offset += inserted
		}
	})
	d.notify(Change{
		Range:    d.Range(start, start+inserted),
		Inserted: inserted,
		Deleted:  deleted,
	})
	return nil
}

// SetText replaces the whole content. Every existing Position becomes
// unpositioned.
func (d *Document) SetText(s string) {
	d.text = []rune(s)
	d.Dirty = true
	for _, wp := range d.positions {
		if p := wp.Value(); p != nil {
			p.positioned = false
		}
	}
	d.positions = nil
	d.notify(Change{Range: d.Range(0, len(d.text)), Inserted: len(d.text), Reset: true})
}

// Pos creates a Position at offset (clamped) with the given gravity.
func (d *Document) Pos(offset int, g Gravity) *Position {
	p := &Position{doc: d, offset: d.clamp(offset), gravity: g, positioned: true}
	d.positions = append(d.positions, weak.Make(p))
	return p
}

// Range creates a range over [start,end) whose ends stick to the outside:
// text inserted at either boundary is absorbed into the range.
func (d *Document) Range(start, end int) *Range {
	return &Range{Start: d.Pos(start, LeftSticky), End: d.Pos(end, RightSticky)}
}

// InnerRange creates a range over [start,end) whose ends stick to the
// enclosed text: text inserted at either boundary stays outside.
func (d *Document) InnerRange(start, end int) *Range {
	return &Range{Start: d.Pos(start, RightSticky), End: d.Pos(end, LeftSticky)}
}

// Whole returns a range over the entire document.
func (d *Document) Whole() *Range {
	return d.Range(0, len(d.text))
}

// Tracked reports how many live positions the document is currently keeping
// in sync. Collected positions are pruned on the next edit.
func (d *Document) Tracked() int {
	n := 0
	for _, wp := range d.positions {
		if wp.Value() != nil {
			n++
		}
	}
	return n
}

func (d *Document) remap(fn func(p *Position)) {
	live := d.positions[:0]
	for _, wp := range d.positions {
		p := wp.Value()
		if p == nil {
			continue
		}
		if p.positioned {
			fn(p)
		}
		live = append(live, wp)
	}
	clear(d.positions[len(live):])
	d.positions = live
}

func (d *Document) notify(c Change) {
	for _, l := range append([]listener(nil), d.listeners...) {
		l.fn(c)
	}
}

func (d *Document) clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(d.text) {
		return len(d.text)
	}
	return offset
}
