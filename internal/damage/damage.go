// Package damage collects document edits into pending damage and reports it
// for re-checking according to a commit strategy.
package damage

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/JackWReid/prosecheck/internal/document"
	"github.com/JackWReid/prosecheck/internal/wordrange"
)

// CommitStrategy decides when pending damage is reported.
type CommitStrategy int

const (
	// Word reports damage once the word being typed is finished: when a
	// rune other than a letter or digit is typed, when the selection moves
	// or on Commit.
	Word CommitStrategy = iota
	// Realtime reports every edit at once.
	Realtime
)

func (s CommitStrategy) String() string {
	if s == Realtime {
		return "realtime"
	}
	return "word"
}

// ParseStrategy parses "word" or "realtime".
func ParseStrategy(s string) (CommitStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "word":
		return Word, nil
	case "realtime":
		return Realtime, nil
	}
	return Word, fmt.Errorf("unknown commit strategy %q", s)
}

// Target receives committed damage. check is false while checking is
// switched off.
type Target interface {
	DamagedRange(r *document.Range, check bool) error
}

// Damager listens to a document's edits and reports them to a Target.
type Damager struct {
	doc      *document.Document
	target   Target
	strategy CommitStrategy
	log      *slog.Logger

	checking  bool
	pending   *document.Range
	suspended int
	cancel    func()
}

// New starts listening to doc. Call Close to stop.
func New(doc *document.Document, target Target, strategy CommitStrategy, log *slog.Logger) *Damager {
	if log == nil {
		log = slog.Default()
	}
	d := &Damager{doc: doc, target: target, strategy: strategy, log: log, checking: true}
	d.cancel = doc.OnChange(d.changed)
	return d
}

// Close stops listening to the document. Pending damage is dropped.
func (d *Damager) Close() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.pending = nil
}

// SetChecking switches checking of committed damage on or off.
func (d *Damager) SetChecking(on bool) { d.checking = on }

// Pending returns the damage not yet reported, or nil.
func (d *Damager) Pending() *document.Range { return d.pending }

// Suspend ignores edits until the returned func is called. Use it around
// edits that are checked some other way.
func (d *Damager) Suspend() (resume func()) {
	d.suspended++
	done := false
	return func() {
		if !done {
			done = true
			d.suspended--
		}
	}
}

// Commit reports pending damage.
func (d *Damager) Commit() error {
	r := d.pending
	d.pending = nil
	if r == nil || !r.Positioned() {
		return nil
	}
	return d.target.DamagedRange(r, d.checking)
}

// SelectionChanged commits pending damage under the Word strategy.
func (d *Damager) SelectionChanged() error {
	return d.Commit()
}

func (d *Damager) changed(c document.Change) {
	if d.suspended > 0 {
		return
	}
	start, end := c.Range.Start.Offset(), c.Range.End.Offset()
	if !c.Reset {
		start, end = d.adjacentWords(start, end)
	}
	switch {
	case c.Reset:
		d.pending = nil
	case d.pending != nil && d.pending.Positioned() && touches(d.pending, start, end):
		d.pending.Start.MoveToOffset(min(start, d.pending.Start.Offset()))
		d.pending.End.MoveToOffset(max(end, d.pending.End.Offset()))
	default:
		// Damage elsewhere finishes the word in progress.
		d.report(d.Commit())
	}
	if d.pending == nil {
		d.pending = d.doc.Range(start, end)
	}
	if c.Reset || d.strategy == Realtime || endsWord(c.Range.Text()) {
		d.report(d.Commit())
	}
}

// adjacentWords grows [start,end) over the words it touches, so an edit
// inside a word or joining two words damages them whole. Only an edit with
// no word left around it stays collapsed.
func (d *Damager) adjacentWords(start, end int) (int, int) {
	ws, we := wordrange.ExpandToWordBoundaries(d.doc.Runes(), start, end)
	if ws >= we {
		return start, end
	}
	return min(start, ws), max(end, we)
}

func (d *Damager) report(err error) {
	if err != nil {
		d.log.Warn("commit damage", "err", err)
	}
}

func touches(r *document.Range, start, end int) bool {
	return start <= r.End.Offset() && end >= r.Start.Offset()
}

func endsWord(inserted string) bool {
	return strings.IndexFunc(inserted, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) >= 0
}
