// Package render draws a document with its misspelled segments styled for a
// terminal.
package render

import (
	"sort"
	"strings"

	"github.com/muesli/termenv"
	"github.com/rivo/uniseg"

	"github.com/JackWReid/prosecheck/internal/checker"
	"github.com/JackWReid/prosecheck/internal/document"
)

var _ checker.Highlighter = (*Painter)(nil)

// Painter is the checker's Highlighter for terminal output. It remembers
// the highlighted spans and draws them on Render.
type Painter struct {
	doc   *document.Document
	out   *termenv.Output
	spans map[int]*document.Range
	next  int
	buf   strings.Builder
}

// NewPainter returns a painter for doc writing styles for out's profile.
func NewPainter(doc *document.Document, out *termenv.Output) *Painter {
	return &Painter{doc: doc, out: out, spans: make(map[int]*document.Range)}
}

// AddSegment records a highlighted span. An empty or stale span cannot be
// shown and is refused with checker.ErrUnselectable.
func (p *Painter) AddSegment(start, end *document.Position) (any, error) {
	if !start.Positioned() || !end.Positioned() || !start.IsLeftOf(end) {
		return nil, checker.ErrUnselectable
	}
	p.next++
	p.spans[p.next] = document.NewRange(start, end)
	return p.next, nil
}

// RemoveSegment forgets a span added by AddSegment.
func (p *Painter) RemoveSegment(handle any) {
	if id, ok := handle.(int); ok {
		delete(p.spans, id)
	}
}

// Len returns the number of highlighted spans.
func (p *Painter) Len() int { return len(p.spans) }

type span struct{ start, end int }

// live returns the drawable spans sorted by start, without overlaps.
func (p *Painter) live() []span {
	var out []span
	for _, r := range p.spans {
		if r.Positioned() && !r.IsEmpty() {
			out = append(out, span{r.Start.Offset(), r.End.Offset()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].start < out[j].start })
	kept := out[:0]
	for _, s := range out {
		if len(kept) > 0 && s.start < kept[len(kept)-1].end {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

func (p *Painter) misspelled(s string) string {
	return p.out.String(s).Underline().Foreground(p.out.Color("1")).String()
}

// Render returns the document text with highlighted spans styled. Lines
// are cut to width visible runes when width is positive.
func (p *Painter) Render(width int) string {
	text := p.doc.Runes()
	spans := p.live()
	p.buf.Reset()

	var line strings.Builder
	flush := func() {
		s := line.String()
		if width > 0 {
			s = TruncateVisible(s, width)
		}
		p.buf.WriteString(s)
		line.Reset()
	}

	si := 0
	for i := 0; i < len(text); {
		if text[i] == '\n' {
			flush()
			p.buf.WriteByte('\n')
			i++
			continue
		}
		for si < len(spans) && spans[si].end <= i {
			si++
		}
		inside := si < len(spans) && spans[si].start <= i
		stop := len(text)
		if si < len(spans) {
			if inside {
				stop = spans[si].end
			} else {
				stop = spans[si].start
			}
		}
		j := i
		for j < stop && text[j] != '\n' {
			j++
		}
		if inside {
			line.WriteString(p.misspelled(string(text[i:j])))
		} else {
			line.WriteString(string(text[i:j]))
		}
		i = j
	}
	flush()
	return p.buf.String()
}

// StatusBar returns left and right padded to width in reverse video. The
// left side is cut when both do not fit.
func (p *Painter) StatusBar(width int, left, right string) string {
	leftRunes := []rune(left)
	rightRunes := []rune(right)

	if len(leftRunes)+len(rightRunes) >= width {
		maxLeft := max(width-len(rightRunes)-1, 0)
		if len(leftRunes) > maxLeft {
			leftRunes = leftRunes[:maxLeft]
		}
	}
	gap := max(width-len(leftRunes)-len(rightRunes), 0)

	bar := string(leftRunes) + strings.Repeat(" ", gap) + string(rightRunes)
	return p.out.String(bar).Reverse().String()
}

// TruncateVisible cuts s to width terminal columns, measured by grapheme
// cluster. CSI sequences are kept and take no room. A reset follows text
// that was cut so no style runs on.
func TruncateVisible(s string, width int) string {
	var b strings.Builder
	used, state := 0, -1
	for s != "" {
		if seq := leadingCSI(s); seq != "" {
			b.WriteString(seq)
			s, state = s[len(seq):], -1
			continue
		}
		cluster, rest, w, next := uniseg.FirstGraphemeClusterInString(s, state)
		if used+w > width {
			b.WriteString(termenv.CSI + termenv.ResetSeq + "m")
			break
		}
		b.WriteString(cluster)
		used += w
		s, state = rest, next
	}
	return b.String()
}

// leadingCSI returns the control sequence s starts with, up to and
// including its final byte, or "" when s does not start with one.
func leadingCSI(s string) string {
	if !strings.HasPrefix(s, termenv.CSI) {
		return ""
	}
	for i := len(termenv.CSI); i < len(s); i++ {
		if s[i] >= 0x40 && s[i] <= 0x7e {
			return s[:i+1]
		}
	}
	return s
}
