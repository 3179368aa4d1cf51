// Package spelling is the session facade the editor talks to: it turns edit
// notifications into check requests and runs the ignore, add and replace
// commands of the correction menu.
package spelling

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JackWReid/prosecheck/internal/checker"
	"github.com/JackWReid/prosecheck/internal/document"
	"github.com/JackWReid/prosecheck/internal/schedule"
	"github.com/JackWReid/prosecheck/internal/spans"
	"github.com/JackWReid/prosecheck/internal/spell"
	"github.com/JackWReid/prosecheck/internal/wordrange"
)

var (
	// ErrNoSession is returned by commands issued before InitializeSession
	// or after a hard StopSession.
	ErrNoSession = errors.New("spelling: no session")
	// ErrStale is returned when a misspelling's text was removed from the
	// document.
	ErrStale = errors.New("spelling: misspelling is no longer in the document")
)

// Options configures a Manager.
type Options struct {
	WordBatch       int
	MaxSuggestions  int
	SuggestionDepth int
	// ScoreGap cuts the correction menu where the score of a suggestion
	// drops this much below the one before it.
	ScoreGap int

	Filter      wordrange.Filter
	Timer       schedule.Timer
	Highlighter checker.Highlighter
	OnFault     func(err error)
	// Suspend, if set, is called around the manager's own document edits
	// so they are not reported back as damage. It returns the resume func.
	Suspend func() (resume func())
	Logger  *slog.Logger
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		WordBatch:       checker.DefaultWordBatch,
		MaxSuggestions:  10,
		SuggestionDepth: 2,
		ScoreGap:        20,
	}
}

// MisspelledWordInfo describes a flagged word for a correction menu.
type MisspelledWordInfo struct {
	Word string
	// Range covers the flagged text. Its ends stick to the word.
	Range       *document.Range
	Status      spell.Status
	Replacement string
}

// Manager owns one spelling session over a document: the checker with its
// segments and the spans ignored once. Like the checker it runs on the
// editor's loop only.
type Manager struct {
	doc     *document.Document
	speller spell.Speller
	opts    Options
	base    *slog.Logger
	log     *slog.Logger

	id          string
	checker     *checker.Checker
	ignored     *spans.IgnoredRangeList
	unsubscribe func()
	active      bool
}

// New returns a manager for doc. No session runs until InitializeSession.
func New(doc *document.Document, sp spell.Speller, opts Options) *Manager {
	d := DefaultOptions()
	if opts.WordBatch <= 0 {
		opts.WordBatch = d.WordBatch
	}
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = d.MaxSuggestions
	}
	if opts.SuggestionDepth <= 0 {
		opts.SuggestionDepth = d.SuggestionDepth
	}
	if opts.ScoreGap <= 0 {
		opts.ScoreGap = d.ScoreGap
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{doc: doc, speller: sp, opts: opts, base: opts.Logger, log: opts.Logger}
}

// SessionID returns the current session's id, empty before the first
// session.
func (m *Manager) SessionID() string { return m.id }

// Active reports whether a session is running.
func (m *Manager) Active() bool { return m.active }

// Checker returns the session's checker, nil before the first session.
func (m *Manager) Checker() *checker.Checker { return m.checker }

// Ignored returns the spans ignored once in this session.
func (m *Manager) Ignored() *spans.IgnoredRangeList { return m.ignored }

// Segments returns the misspelled segments in document order.
func (m *Manager) Segments() []*spans.Segment {
	if m.checker == nil {
		return nil
	}
	return m.checker.Segments()
}

// InitializeSession starts a fresh session, dropping the previous one's
// segments and ignored spans.
func (m *Manager) InitializeSession() {
	if m.checker != nil {
		m.checker.Reset()
	}
	m.id = uuid.NewString()
	m.log = m.base.With("session", m.id)
	m.ignored = spans.NewIgnoredRangeList(m.log)
	m.checker = checker.New(m.speller, checker.Options{
		WordBatch:   m.opts.WordBatch,
		Timer:       m.opts.Timer,
		Highlighter: m.opts.Highlighter,
		Ignored:     m.ignored.Contains,
		OnFault:     m.opts.OnFault,
		Logger:      m.log,
	})
	if m.unsubscribe == nil {
		m.unsubscribe = m.speller.Subscribe(m.wordAccepted)
	}
	m.active = true
	m.log.Debug("spelling session started")
}

// StopSession drops queued work and every segment. A hard stop also
// forgets ignored spans and ends the session. Stopping twice is harmless.
func (m *Manager) StopSession(hard bool) {
	if m.checker != nil {
		m.checker.Reset()
	}
	if !hard {
		return
	}
	if m.ignored != nil {
		m.ignored.Reset()
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	if m.active {
		m.log.Debug("spelling session stopped")
	}
	m.active = false
}

// wordAccepted removes the highlights of a word the speller now accepts.
func (m *Manager) wordAccepted(ev spell.Event) {
	if !m.active {
		return
	}
	n := m.checker.UnhighlightWord(ev.Word, m.accepted)
	m.log.Debug("word accepted", "kind", ev.Kind, "word", ev.Word, "unhighlighted", n)
}

func (m *Manager) accepted(word string) bool {
	res, err := m.speller.CheckWord(word)
	return err == nil && !res.Flagged()
}

// HighlightSpelling queues r for checking, or the whole document when r is
// nil. A stale range is ignored. An empty range, left by a deletion, only
// clears what was tracked at that point.
func (m *Manager) HighlightSpelling(r *document.Range) error {
	if !m.active {
		return ErrNoSession
	}
	if r == nil {
		return m.checker.Enqueue(wordrange.NewDocument(m.doc, m.opts.Filter))
	}
	if !r.Positioned() {
		m.log.Debug("ignoring stale range")
		return nil
	}
	if r.IsEmpty() {
		m.clear(r.Start.Offset(), r.End.Offset())
		return nil
	}
	wr := wordrange.New(r, m.opts.Filter)
	region := wr.Region()
	// Expansion can shrink a range that starts or ends in whitespace.
	if s, rs := r.Start.Offset(), region.Start.Offset(); rs > s {
		m.clear(s, rs)
	}
	if e, re := r.End.Offset(), region.End.Offset(); re < e {
		m.clear(max(re, region.Start.Offset()), e)
	}
	return m.checker.Enqueue(wr)
}

func (m *Manager) clear(start, end int) {
	r := m.doc.Range(start, end)
	m.checker.ClearRange(r.Start, r.End)
	m.ignored.ClearRange(r)
}

// DamagedRange handles an edit over r. Ignored spans touching the edited
// words are dropped; the words are re-checked when check is true.
func (m *Manager) DamagedRange(r *document.Range, check bool) error {
	if !m.active || !r.Positioned() {
		return nil
	}
	s, e := r.Start.Offset(), r.End.Offset()
	ws, we := wordrange.ExpandToWordBoundaries(m.doc.Runes(), s, e)
	m.ignored.ClearRange(m.doc.Range(min(s, ws), max(e, we)))
	if !check {
		return nil
	}
	return m.HighlightSpelling(r)
}

// IgnoreOnce stops highlighting r for the rest of the session. Spans
// already ignored inside r are replaced by it.
func (m *Manager) IgnoreOnce(r *document.Range) error {
	if !m.active {
		return ErrNoSession
	}
	if !r.Positioned() {
		return nil
	}
	m.checker.UnhighlightRange(r)
	m.ignored.ClearRange(r)
	if !m.ignored.Add(r) {
		m.log.Debug("range not ignored", "range", r.String())
	}
	return nil
}

// IgnoreAll accepts word for the rest of the session.
func (m *Manager) IgnoreAll(word string) error {
	if !m.active {
		return ErrNoSession
	}
	m.speller.IgnoreWord(word)
	return nil
}

// AddToDictionary adds word to the user dictionary.
func (m *Manager) AddToDictionary(word string) error {
	if !m.active {
		return ErrNoSession
	}
	return m.speller.AddWord(word)
}

// FindMisspelling returns the flagged word at p, or nil.
func (m *Manager) FindMisspelling(p *document.Position) *MisspelledWordInfo {
	if !m.active {
		return nil
	}
	seg := m.checker.FindMisspelling(p)
	if seg == nil {
		return nil
	}
	info := &MisspelledWordInfo{
		Word:   seg.Word,
		Range:  m.doc.InnerRange(seg.Start.Offset(), seg.End.Offset()),
		Status: spell.Misspelled,
	}
	res, err := m.speller.CheckWord(seg.Word)
	if err != nil {
		m.log.Warn("check word", "word", seg.Word, "err", err)
		return info
	}
	if !res.Flagged() {
		m.checker.UnhighlightRange(info.Range)
		return nil
	}
	info.Status = res.Status
	info.Replacement = res.Replacement
	return info
}

// Replace puts word in place of the misspelling and checks the result.
func (m *Manager) Replace(info *MisspelledWordInfo, word string) error {
	if !m.active {
		return ErrNoSession
	}
	if !info.Range.Positioned() || info.Range.IsEmpty() {
		return ErrStale
	}
	start := info.Range.Start.Offset()
	if err := m.edit(start, info.Range.End.Offset(), word); err != nil {
		return err
	}
	m.recheck(start, start+len([]rune(word)))
	return nil
}

// recheck checks text the manager just wrote. A faulted checker has
// already reported its failure.
func (m *Manager) recheck(start, end int) {
	if err := m.HighlightSpelling(m.doc.Range(start, end)); err != nil {
		m.log.Debug("recheck after edit", "err", err)
	}
}

// ReplaceAll replaces every highlighted occurrence of word and has the
// speller replace it automatically from now on. It returns the number of
// occurrences replaced.
func (m *Manager) ReplaceAll(word, replacement string) (int, error) {
	if !m.active {
		return 0, ErrNoSession
	}
	m.speller.ReplaceAll(word, replacement)
	n := 0
	segs := m.checker.Segments()
	// From the end so earlier offsets stay put.
	for i := len(segs) - 1; i >= 0; i-- {
		seg := segs[i]
		res, err := m.speller.CheckWord(seg.Word)
		if err != nil || res.Status != spell.AutoReplace {
			continue
		}
		info := &MisspelledWordInfo{Word: seg.Word, Range: document.NewRange(seg.Start, seg.End)}
		if err := m.Replace(info, res.Replacement); err != nil {
			if errors.Is(err, ErrStale) {
				continue
			}
			return n, err
		}
		n++
	}
	return n, nil
}

func (m *Manager) edit(start, end int, s string) error {
	if m.opts.Suspend != nil {
		defer m.opts.Suspend()()
	}
	if err := m.doc.Replace(start, end, s); err != nil {
		return fmt.Errorf("replace misspelling: %w", err)
	}
	return nil
}

// NextMisspelling walks the document from p the way a spelling dialog
// does: automatic replacements are applied on the way and the first other
// flagged word is returned. It returns nil at the end of the document.
func (m *Manager) NextMisspelling(p *document.Position) (*MisspelledWordInfo, error) {
	if !m.active {
		return nil, ErrNoSession
	}
	if !p.Positioned() {
		return nil, nil
	}
	from := p.Offset()
	wr := wordrange.New(m.doc.Range(from, m.doc.Len()), m.opts.Filter)
	skipBefore := 0
	for wr.Next() {
		tok := wr.Current()
		// Expansion pulls in a word ending at from; it was already seen.
		if tok.End <= from || tok.Start < skipBefore || !wr.Checkable() {
			continue
		}
		res, err := m.speller.CheckWord(tok.Text)
		if err != nil {
			m.log.Warn("check word", "word", tok.Text, "err", err)
			continue
		}
		if !res.Flagged() {
			continue
		}
		runes := []rune(tok.Text)
		off := min(max(res.Offset, 0), len(runes))
		end := min(off+max(res.Length, 0), len(runes))
		if off >= end {
			continue
		}
		start, stop := wr.Span(off, end-off)
		r := m.doc.InnerRange(start, stop)
		if m.ignored.Contains(r) {
			continue
		}
		if res.Status == spell.AutoReplace {
			if err := m.edit(start, stop, res.Replacement); err != nil {
				return nil, err
			}
			skipBefore = start + len([]rune(res.Replacement))
			m.recheck(start, skipBefore)
			continue
		}
		return &MisspelledWordInfo{
			Word:        string(runes[off:end]),
			Range:       r,
			Status:      res.Status,
			Replacement: res.Replacement,
		}, nil
	}
	return nil, nil
}
