// Package checker runs spell checking over queued document regions a small
// batch of words at a time, keeping the misspelled segments current.
package checker

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/JackWReid/prosecheck/internal/document"
	"github.com/JackWReid/prosecheck/internal/schedule"
	"github.com/JackWReid/prosecheck/internal/spans"
	"github.com/JackWReid/prosecheck/internal/spell"
	"github.com/JackWReid/prosecheck/internal/wordrange"
)

// DefaultWordBatch is how many words one tick checks.
const DefaultWordBatch = 30

var (
	// ErrFaulted is returned by Enqueue once the checker has stopped after
	// a failure.
	ErrFaulted = errors.New("checker: faulted")
	// ErrUnselectable is the one Highlighter error that is not fatal: the
	// span cannot be shown right now. The segment is still tracked.
	ErrUnselectable = errors.New("checker: span cannot be highlighted")
)

// State is the checker's lifecycle state.
type State int

const (
	Idle State = iota
	Processing
	// Faulted is final: the queue and all segments were dropped and no
	// more work is accepted.
	Faulted
)

func (s State) String() string {
	switch s {
	case Processing:
		return "processing"
	case Faulted:
		return "faulted"
	}
	return "idle"
}

// Highlighter is the host's primitive for showing a misspelled span.
type Highlighter interface {
	AddSegment(start, end *document.Position) (handle any, err error)
	RemoveSegment(handle any)
}

// Options configures a Checker.
type Options struct {
	// WordBatch bounds the words checked per tick. Zero means
	// DefaultWordBatch.
	WordBatch int
	// Timer drives Tick while work is queued. It is enabled when work
	// arrives and disabled when the queue empties.
	Timer schedule.Timer
	// Highlighter shows segments. It may be nil.
	Highlighter Highlighter
	// Ignored reports whether a flagged span was ignored by the user.
	Ignored func(r *document.Range) bool
	// OnFault is called once when the checker faults.
	OnFault func(err error)
	Logger  *slog.Logger
}

type flagged struct {
	word string
	r    *document.Range
}

// Checker owns the queue of regions waiting to be checked and the tracker
// of misspelled segments. It is not safe for concurrent use: call it from
// the editor's loop only.
type Checker struct {
	speller spell.Speller
	opts    Options
	log     *slog.Logger
	tracker *spans.SegmentTracker

	queue  []*wordrange.WordRange
	state  State
	inTick bool
	err    error
}

// New returns an idle checker using sp.
func New(sp spell.Speller, opts Options) *Checker {
	if opts.WordBatch <= 0 {
		opts.WordBatch = DefaultWordBatch
	}
	if opts.Timer == nil {
		opts.Timer = &schedule.Manual{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	c := &Checker{speller: sp, opts: opts, log: opts.Logger}
	c.tracker = spans.NewSegmentTracker(c.log, c.release)
	return c
}

// State returns the lifecycle state.
func (c *Checker) State() State { return c.state }

// Err returns the failure that faulted the checker, if any.
func (c *Checker) Err() error { return c.err }

// Pending returns the number of queued regions.
func (c *Checker) Pending() int { return len(c.queue) }

// Segments returns the misspelled segments in document order.
func (c *Checker) Segments() []*spans.Segment { return c.tracker.Segments() }

// Enqueue queues wr for checking. The first region queued on an idle
// checker is started at once rather than on the next tick.
func (c *Checker) Enqueue(wr *wordrange.WordRange) error {
	if c.state == Faulted {
		return ErrFaulted
	}
	if !wr.Positioned() {
		return nil
	}
	c.queue = append(c.queue, wr)
	if c.state != Idle {
		return nil
	}
	c.state = Processing
	c.Tick()
	if c.state == Processing {
		c.opts.Timer.SetEnabled(true)
	}
	return nil
}

// Tick checks the next batch of words. Calls made while a tick is already
// running are ignored.
func (c *Checker) Tick() {
	if c.inTick || c.state != Processing {
		return
	}
	c.inTick = true
	defer func() { c.inTick = false }()
	if err := c.runBatch(); err != nil {
		c.fault(err)
	}
}

func (c *Checker) runBatch() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("spell check tick: %v", r)
		}
	}()

	for len(c.queue) > 0 && !c.queue[0].Positioned() {
		c.log.Debug("dropping stale check request")
		c.pop()
	}
	if len(c.queue) == 0 {
		c.idle()
		return nil
	}

	wr := c.queue[0]
	batchStart := wr.End().Clone()
	var found []flagged
	for n := 0; n < c.opts.WordBatch && wr.Next(); n++ {
		if n == 0 && wr.Current().Start < batchStart.Offset() {
			// The last word of the previous batch grew; it is read again.
			batchStart.MoveToOffset(wr.Current().Start)
		}
		if !wr.Checkable() {
			continue
		}
		if f, ok := c.checkCurrent(wr); ok {
			found = append(found, f)
		}
	}
	done := !wr.HasNext()
	if done {
		// Moves the end onto the region end.
		wr.Next()
	}

	c.ClearRange(batchStart, wr.End())
	c.tracker.PrunePhantoms(batchStart, wr.End())
	for _, f := range found {
		if err := c.add(f); err != nil {
			return err
		}
	}

	if done {
		c.pop()
	}
	if len(c.queue) == 0 {
		c.idle()
	}
	return nil
}

func (c *Checker) checkCurrent(wr *wordrange.WordRange) (flagged, bool) {
	tok := wr.Current()
	res, err := c.speller.CheckWord(tok.Text)
	if err != nil {
		c.log.Warn("check word", "word", tok.Text, "err", err)
		return flagged{}, false
	}
	if !res.Flagged() {
		return flagged{}, false
	}
	runes := []rune(tok.Text)
	off := min(max(res.Offset, 0), len(runes))
	end := min(off+max(res.Length, 0), len(runes))
	if off >= end {
		return flagged{}, false
	}
	start, stop := wr.Span(off, end-off)
	r := wr.Region().Document().InnerRange(start, stop)
	if c.opts.Ignored != nil && c.opts.Ignored(r) {
		return flagged{}, false
	}
	return flagged{word: string(runes[off:end]), r: r}, true
}

func (c *Checker) add(f flagged) error {
	seg, ok := c.tracker.AddSegment(f.word, f.r.Start, f.r.End)
	if !ok || c.opts.Highlighter == nil {
		return nil
	}
	handle, err := c.opts.Highlighter.AddSegment(seg.Start, seg.End)
	switch {
	case errors.Is(err, ErrUnselectable):
		c.log.Debug("segment not highlighted", "word", f.word, "err", err)
	case err != nil:
		return fmt.Errorf("highlight %q: %w", f.word, err)
	default:
		seg.Handle = handle
	}
	return nil
}

func (c *Checker) release(seg *spans.Segment) {
	if seg.Handle != nil && c.opts.Highlighter != nil {
		c.opts.Highlighter.RemoveSegment(seg.Handle)
	}
	seg.Handle = nil
}

func (c *Checker) releaseAll(segs []*spans.Segment) {
	for _, s := range segs {
		c.release(s)
	}
}

func (c *Checker) pop() {
	c.queue[0] = nil
	c.queue = c.queue[1:]
}

func (c *Checker) idle() {
	c.state = Idle
	c.opts.Timer.SetEnabled(false)
}

func (c *Checker) fault(err error) {
	c.state = Faulted
	c.err = err
	c.queue = nil
	c.opts.Timer.SetEnabled(false)
	c.releaseAll(c.tracker.ClearAll())
	c.log.Error("spell checking stopped", "err", err)
	if c.opts.OnFault != nil {
		c.opts.OnFault(err)
	}
}

// ClearRange removes the segments starting in [start,end).
func (c *Checker) ClearRange(start, end *document.Position) {
	c.releaseAll(c.tracker.GetSegmentsInRange(start, end))
}

// UnhighlightRange removes the segments overlapping r, including one that
// starts before it.
func (c *Checker) UnhighlightRange(r *document.Range) {
	if !r.Positioned() {
		return
	}
	start := r.Start
	if seg := c.tracker.FindSegment(r.Start); seg != nil {
		start = seg.Start
	}
	c.ClearRange(start, r.End)
}

// UnhighlightWord removes the segments for word, compared ignoring case,
// for which accept reports true.
func (c *Checker) UnhighlightWord(word string, accept func(string) bool) int {
	segs := c.tracker.GetSegmentsByWord(word, accept)
	c.releaseAll(segs)
	return len(segs)
}

// FindMisspelling returns the segment containing p, or nil.
func (c *Checker) FindMisspelling(p *document.Position) *spans.Segment {
	return c.tracker.FindSegment(p)
}

// Reset drops queued work and every segment. A faulted checker stays
// faulted.
func (c *Checker) Reset() {
	c.queue = nil
	c.releaseAll(c.tracker.ClearAll())
	if c.state != Faulted {
		c.idle()
	}
}
