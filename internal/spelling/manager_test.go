package spelling

import (
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JackWReid/prosecheck/internal/checker"
	"github.com/JackWReid/prosecheck/internal/document"
	"github.com/JackWReid/prosecheck/internal/spell"
)

// fakeSpeller flags the words in bad, ignoring case. caps maps a word to
// its capitalized form and replace holds automatic replacements.
type fakeSpeller struct {
	bad         map[string]bool
	caps        map[string]string
	replace     map[string]string
	suggestions []spell.Suggestion
	subs        map[int]func(spell.Event)
	next        int
}

func newFakeSpeller(bad ...string) *fakeSpeller {
	f := &fakeSpeller{
		bad:     make(map[string]bool),
		caps:    make(map[string]string),
		replace: make(map[string]string),
		subs:    make(map[int]func(spell.Event)),
	}
	for _, w := range bad {
		f.bad[w] = true
	}
	return f
}

func (f *fakeSpeller) CheckWord(word string) (spell.Result, error) {
	if word == "boom" {
		panic("speller exploded")
	}
	w := strings.TrimSuffix(word, ".")
	n := utf8.RuneCountInString(w)
	lw := strings.ToLower(w)
	if r, ok := f.replace[lw]; ok {
		if first, _ := utf8.DecodeRuneInString(w); unicode.IsUpper(first) {
			r = strings.ToUpper(r[:1]) + r[1:]
		}
		return spell.Result{Status: spell.AutoReplace, Length: n, Replacement: r}, nil
	}
	if c, ok := f.caps[w]; ok {
		return spell.Result{Status: spell.Capitalization, Length: n, Replacement: c}, nil
	}
	if f.bad[lw] {
		return spell.Result{Status: spell.Misspelled, Length: n}, nil
	}
	return spell.Result{Status: spell.Correct, Length: n}, nil
}

func (f *fakeSpeller) Suggest(string, int, int) ([]spell.Suggestion, error) {
	return append([]spell.Suggestion(nil), f.suggestions...), nil
}

func (f *fakeSpeller) AddWord(word string) error {
	delete(f.bad, strings.ToLower(word))
	f.emit(spell.Event{Kind: spell.WordAdded, Word: word})
	return nil
}

func (f *fakeSpeller) IgnoreWord(word string) {
	delete(f.bad, strings.ToLower(word))
	f.emit(spell.Event{Kind: spell.WordIgnored, Word: word})
}

func (f *fakeSpeller) ReplaceAll(word, replacement string) {
	f.replace[strings.ToLower(word)] = replacement
}

func (f *fakeSpeller) Subscribe(fn func(spell.Event)) func() {
	f.next++
	id := f.next
	f.subs[id] = fn
	return func() { delete(f.subs, id) }
}

func (f *fakeSpeller) emit(ev spell.Event) {
	for _, fn := range f.subs {
		fn(ev)
	}
}

func newSession(t *testing.T, text string, sp *fakeSpeller, opts Options) (*Manager, *document.Document) {
	t.Helper()
	doc := document.New(text)
	m := New(doc, sp, opts)
	m.InitializeSession()
	require.NoError(t, m.HighlightSpelling(nil))
	return m, doc
}

func segmentWords(m *Manager) []string {
	var out []string
	for _, s := range m.Segments() {
		out = append(out, s.Word)
	}
	return out
}

func TestNoSession(t *testing.T) {
	doc := document.New("teh")
	m := New(doc, newFakeSpeller("teh"), Options{})

	assert.ErrorIs(t, m.HighlightSpelling(nil), ErrNoSession)
	assert.ErrorIs(t, m.IgnoreOnce(doc.Whole()), ErrNoSession)
	assert.ErrorIs(t, m.IgnoreAll("teh"), ErrNoSession)
	assert.ErrorIs(t, m.AddToDictionary("teh"), ErrNoSession)
	_, err := m.NextMisspelling(doc.Pos(0, document.LeftSticky))
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Nil(t, m.FindMisspelling(doc.Pos(0, document.LeftSticky)))
	assert.NoError(t, m.DamagedRange(doc.Whole(), true))
	assert.Empty(t, m.Segments())
}

func TestHighlightWholeDocument(t *testing.T) {
	m, _ := newSession(t, "the teh cat wrold", newFakeSpeller("teh", "wrold"), Options{})

	assert.Equal(t, []string{"teh", "wrold"}, segmentWords(m))
	assert.True(t, m.Active())
	_, err := uuid.Parse(m.SessionID())
	assert.NoError(t, err)
}

func TestSessionsGetNewIDs(t *testing.T) {
	m, _ := newSession(t, "teh", newFakeSpeller("teh"), Options{})
	first := m.SessionID()
	m.InitializeSession()
	assert.NotEqual(t, first, m.SessionID())
	assert.Empty(t, m.Segments())
}

func TestDamagedRangeRechecksEdit(t *testing.T) {
	m, doc := newSession(t, "the cat sat", newFakeSpeller("teh"), Options{})
	require.Empty(t, m.Segments())

	require.NoError(t, doc.Insert(4, "teh "))
	require.NoError(t, m.DamagedRange(doc.Range(4, 8), true))
	assert.Equal(t, []string{"teh"}, segmentWords(m))

	require.NoError(t, doc.Replace(4, 7, "the"))
	require.NoError(t, m.DamagedRange(doc.Range(4, 7), true))
	assert.Empty(t, m.Segments())
}

func TestDamagedRangeDeletion(t *testing.T) {
	m, doc := newSession(t, "the teh cat", newFakeSpeller("teh"), Options{})
	require.Len(t, m.Segments(), 1)

	require.NoError(t, doc.Delete(3, 7))
	require.NoError(t, m.DamagedRange(doc.Range(3, 3), true))
	assert.Empty(t, m.Segments())
	assert.Equal(t, "the cat", doc.String())
}

func TestDamagedRangeStaleIgnored(t *testing.T) {
	m, doc := newSession(t, "the teh cat", newFakeSpeller("teh"), Options{})
	r := doc.Range(4, 7)
	doc.SetText("new text")
	assert.NoError(t, m.DamagedRange(r, true))
	assert.NoError(t, m.HighlightSpelling(r))
}

func TestDamagedRangeUncheckedStillClearsIgnored(t *testing.T) {
	m, doc := newSession(t, "the teh cat", newFakeSpeller("teh"), Options{})
	require.NoError(t, m.IgnoreOnce(doc.Range(4, 7)))
	require.Equal(t, 1, m.Ignored().Len())
	require.Empty(t, m.Segments())

	require.NoError(t, doc.Insert(5, "e"))
	require.NoError(t, m.DamagedRange(doc.Range(5, 6), false))

	assert.Equal(t, 0, m.Ignored().Len())
	assert.Empty(t, m.Segments())
}

func TestIgnoreOnce(t *testing.T) {
	m, doc := newSession(t, "teh and teh", newFakeSpeller("teh"), Options{})
	require.Len(t, m.Segments(), 2)

	require.NoError(t, m.IgnoreOnce(doc.Range(0, 3)))
	require.NoError(t, m.IgnoreOnce(doc.Range(0, 3)))
	assert.Equal(t, 1, m.Ignored().Len())
	assert.Equal(t, []string{"teh"}, segmentWords(m))
	assert.Equal(t, 8, m.Segments()[0].Start.Offset())

	// A full recheck keeps the first occurrence ignored.
	require.NoError(t, m.HighlightSpelling(nil))
	require.Len(t, m.Segments(), 1)
	assert.Equal(t, 8, m.Segments()[0].Start.Offset())
}

func TestIgnoreOnceFromInsideWord(t *testing.T) {
	m, doc := newSession(t, "a teh b", newFakeSpeller("teh"), Options{})
	require.NoError(t, m.IgnoreOnce(doc.Range(3, 4)))
	assert.Empty(t, m.Segments())
}

func TestAcceptedWordsUnhighlight(t *testing.T) {
	sp := newFakeSpeller("teh", "wrold")
	m, _ := newSession(t, "teh wrold Teh", sp, Options{})
	require.Len(t, m.Segments(), 3)

	require.NoError(t, m.AddToDictionary("teh"))
	assert.Equal(t, []string{"wrold"}, segmentWords(m))

	require.NoError(t, m.IgnoreAll("wrold"))
	assert.Empty(t, m.Segments())
}

func TestHardStop(t *testing.T) {
	sp := newFakeSpeller("teh")
	m, doc := newSession(t, "teh teh", sp, Options{})
	require.NoError(t, m.IgnoreOnce(doc.Range(0, 3)))

	m.StopSession(true)
	m.StopSession(true)

	assert.False(t, m.Active())
	assert.Empty(t, m.Segments())
	assert.Equal(t, 0, m.Ignored().Len())
	assert.Empty(t, sp.subs)
	assert.NoError(t, sp.AddWord("teh"))
}

func TestSoftStopKeepsIgnored(t *testing.T) {
	m, doc := newSession(t, "teh teh", newFakeSpeller("teh"), Options{})
	require.NoError(t, m.IgnoreOnce(doc.Range(0, 3)))

	m.StopSession(false)
	assert.True(t, m.Active())
	assert.Empty(t, m.Segments())
	assert.Equal(t, 1, m.Ignored().Len())
}

func TestFindMisspellingAndMenu(t *testing.T) {
	sp := newFakeSpeller("wrold")
	sp.caps["london"] = "London"
	sp.suggestions = []spell.Suggestion{{Word: "world", Score: 90}, {Word: "would", Score: 80}, {Word: "word", Score: 55}, {Word: "sword", Score: 50}}
	m, doc := newSession(t, "the wrold in london", sp, Options{})

	assert.Nil(t, m.FindMisspelling(doc.Pos(1, document.LeftSticky)))

	info := m.FindMisspelling(doc.Pos(6, document.LeftSticky))
	require.NotNil(t, info)
	assert.Equal(t, "wrold", info.Word)
	assert.Equal(t, spell.Misspelled, info.Status)
	assert.Equal(t, "wrold", info.Range.Text())
	menu, err := m.CorrectionMenu(info)
	require.NoError(t, err)
	assert.Equal(t, []spell.Suggestion{{Word: "world", Score: 90}, {Word: "would", Score: 80}}, menu)

	info = m.FindMisspelling(doc.Pos(14, document.LeftSticky))
	require.NotNil(t, info)
	assert.Equal(t, spell.Capitalization, info.Status)
	menu, err = m.CorrectionMenu(info)
	require.NoError(t, err)
	assert.Equal(t, []spell.Suggestion{{Word: "London", Score: 100}}, menu)
}

func TestTruncate(t *testing.T) {
	s := func(scores ...int) []spell.Suggestion {
		var out []spell.Suggestion
		for i, sc := range scores {
			out = append(out, spell.Suggestion{Word: string(rune('a' + i)), Score: sc})
		}
		return out
	}
	tests := []struct {
		in       []spell.Suggestion
		limit    int
		expected int
		desc     string
	}{
		{nil, 10, 0, "no suggestions"},
		{s(90, 85, 80), 10, 3, "no gap"},
		{s(90, 70, 65), 10, 1, "gap of exactly 20 cuts"},
		{s(90, 71, 50), 10, 2, "gap of 19 keeps"},
		{s(99, 98, 97, 96, 95, 94, 93, 92, 91, 90, 89, 88), 10, 10, "capped at limit"},
		{s(90, 89, 88), 2, 2, "small limit"},
	}

	for _, tt := range tests {
		got := Truncate(tt.in, 20, tt.limit)
		if len(got) != tt.expected {
			t.Errorf("Truncate(%s) kept %d, expected %d", tt.desc, len(got), tt.expected)
		}
	}
}

func TestReplace(t *testing.T) {
	suspended := 0
	sp := newFakeSpeller("wrold")
	m, doc := newSession(t, "the wrold turns", sp, Options{
		Suspend: func() func() { suspended++; return func() {} },
	})
	info := m.FindMisspelling(doc.Pos(5, document.LeftSticky))
	require.NotNil(t, info)

	require.NoError(t, m.Replace(info, "world"))
	assert.Equal(t, "the world turns", doc.String())
	assert.Empty(t, m.Segments())
	assert.Equal(t, 1, suspended)

	assert.ErrorIs(t, m.Replace(info, "world"), ErrStale)
}

func TestReplaceAll(t *testing.T) {
	m, doc := newSession(t, "teh cat teh dog Teh", newFakeSpeller("teh"), Options{})
	require.Len(t, m.Segments(), 3)

	n, err := m.ReplaceAll("teh", "the")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "the cat the dog The", doc.String())
	assert.Empty(t, m.Segments())
}

func TestNextMisspelling(t *testing.T) {
	sp := newFakeSpeller("wrold")
	sp.replace["teh"] = "the"
	doc := document.New("teh quick wrold and teh end")
	m := New(doc, sp, Options{})
	m.InitializeSession()

	info, err := m.NextMisspelling(doc.Pos(0, document.LeftSticky))
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "wrold", info.Word)
	assert.Equal(t, "the quick wrold and teh end", doc.String())

	info, err = m.NextMisspelling(info.Range.End)
	require.NoError(t, err)
	assert.Nil(t, info)
	assert.Equal(t, "the quick wrold and the end", doc.String())
}

func TestNextMisspellingSkipsIgnored(t *testing.T) {
	m, doc := newSession(t, "wrold wrold", newFakeSpeller("wrold"), Options{})
	require.NoError(t, m.IgnoreOnce(doc.Range(0, 5)))

	info, err := m.NextMisspelling(doc.Pos(0, document.LeftSticky))
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, 6, info.Range.Start.Offset())
}

func TestFaultEndsCheckingUntilNewSession(t *testing.T) {
	var faults int
	sp := newFakeSpeller("teh")
	doc := document.New("teh boom teh")
	m := New(doc, sp, Options{OnFault: func(error) { faults++ }})
	m.InitializeSession()

	require.NoError(t, m.HighlightSpelling(nil))
	assert.Equal(t, checker.Faulted, m.Checker().State())
	assert.Equal(t, 1, faults)
	assert.Empty(t, m.Segments())
	assert.ErrorIs(t, m.HighlightSpelling(nil), checker.ErrFaulted)

	require.NoError(t, doc.Replace(4, 8, "and"))
	m.InitializeSession()
	require.NoError(t, m.HighlightSpelling(nil))
	assert.Equal(t, []string{"teh", "teh"}, segmentWords(m))
}

func TestFilterSkipsWords(t *testing.T) {
	filter := func(start, end int) bool { return start < 3 }
	m, _ := newSession(t, "teh teh", newFakeSpeller("teh"), Options{Filter: filter})
	require.Len(t, m.Segments(), 1)
	assert.Equal(t, 4, m.Segments()[0].Start.Offset())
}
