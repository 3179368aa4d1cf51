package wordrange

import (
	"reflect"
	"testing"

	"github.com/JackWReid/prosecheck/internal/document"
)

func texts(toks []Token) []string {
	var out []string
	for _, t := range toks {
		out = append(out, t.Text)
	}
	return out
}

func TestWords(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
		desc     string
	}{
		{"hello world", []string{"hello", "world"}, "simple words"},
		{"don't stop", []string{"don't", "stop"}, "contraction stays whole"},
		{"it’s fine", []string{"it’s", "fine"}, "typographic apostrophe"},
		{"'quoted' words", []string{"quoted", "words"}, "edge apostrophes break"},
		{"the dogs' bone", []string{"the", "dogs", "bone"}, "trailing apostrophe dropped"},
		{"Mr. Smith", []string{"Mr.", "Smith"}, "abbreviation keeps period"},
		{"the end. Next", []string{"the", "end.", "Next"}, "sentence period attaches"},
		{"the end . Next", []string{"the", "end", "Next"}, "detached period is a break"},
		{"e.g. this", []string{"e.", "g.", "this"}, "period ends each part"},
		{"hello, world!", []string{"hello", "world"}, "punctuation breaks"},
		{"café au lait", []string{"café", "au", "lait"}, "accented letter"},
		{"abc123 456", []string{"abc123", "456"}, "digits extend words"},
		{"", nil, "empty"},
		{"  ...  ", nil, "no words"},
	}
	for _, tt := range tests {
		got := texts(Words(tt.input))
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("Words(%q) = %v, expected %v (%s)", tt.input, got, tt.expected, tt.desc)
		}
	}
}

func TestWordsDecodeCharacterReferences(t *testing.T) {
	toks := Words("don&rsquo;t caf&eacute; A&amp;B")
	got := texts(toks)
	expected := []string{"don’t", "café", "A", "B"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("Words = %v, expected %v", got, expected)
	}
	// "don&rsquo;t" occupies 11 runes but decodes to 5.
	if toks[0].Start != 0 || toks[0].End != 11 {
		t.Errorf("token span = [%d,%d), expected [0,11)", toks[0].Start, toks[0].End)
	}
	if got := toks[0].RawOffset(4); got != 10 {
		t.Errorf("RawOffset(4) = %d, expected 10", got)
	}
	if got := toks[1].RawOffset(4); got != toks[1].End {
		t.Errorf("RawOffset past end = %d, expected %d", got, toks[1].End)
	}
}

func TestLogicalEnd(t *testing.T) {
	toks := Words("Mr. Smith")
	if toks[0].End != 3 || toks[0].LogicalEnd != 2 {
		t.Errorf("Mr. = End %d LogicalEnd %d, expected 3 and 2", toks[0].End, toks[0].LogicalEnd)
	}
	if toks[1].End != toks[1].LogicalEnd {
		t.Errorf("Smith LogicalEnd = %d, expected %d", toks[1].LogicalEnd, toks[1].End)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		r        rune
		expected Class
	}{
		{'a', Letter},
		{'7', Letter},
		{'é', Letter},
		{'\'', BoundaryBreak},
		{'’', BoundaryBreak},
		{'.', IncludedBreak},
		{' ', Break},
		{'-', Break},
		{'!', Break},
	}
	for _, tt := range tests {
		if got := Classify(tt.r); got != tt.expected {
			t.Errorf("Classify(%q) = %v, expected %v", tt.r, got, tt.expected)
		}
	}
}

func TestIsUncheckable(t *testing.T) {
	tests := []struct {
		word     string
		expected bool
	}{
		{"漢字", true},
		{"ひらがな", true},
		{"한국어", true},
		{"hello", false},
		{"漢字abc", false},
		{"123", false},
	}
	for _, tt := range tests {
		if got := IsUncheckable(tt.word); got != tt.expected {
			t.Errorf("IsUncheckable(%q) = %v, expected %v", tt.word, got, tt.expected)
		}
	}
}

func TestExpandToWordBoundaries(t *testing.T) {
	tests := []struct {
		text       string
		start, end int
		wantStart  int
		wantEnd    int
		desc       string
	}{
		{"hello world", 2, 3, 0, 5, "inside one word"},
		{"hello world", 3, 8, 0, 11, "across two words"},
		{"hello world", 5, 5, 0, 5, "collapsed at word end"},
		{"hello world", 6, 6, 6, 11, "collapsed at word start"},
		{"hello  world", 6, 6, 6, 6, "between spaces"},
		{"Mr. Smith", 1, 1, 0, 3, "keeps trailing period"},
		{"  hello  ", 0, 9, 2, 7, "drops surrounding space"},
		{"don't", 4, 5, 0, 5, "after apostrophe"},
	}
	for _, tt := range tests {
		s, e := ExpandToWordBoundaries([]rune(tt.text), tt.start, tt.end)
		if s != tt.wantStart || e != tt.wantEnd {
			t.Errorf("ExpandToWordBoundaries(%q, %d, %d) = [%d,%d), expected [%d,%d) (%s)",
				tt.text, tt.start, tt.end, s, e, tt.wantStart, tt.wantEnd, tt.desc)
		}
	}
}

func collect(w *WordRange) []string {
	var out []string
	for w.Next() {
		out = append(out, w.Current().Text)
	}
	return out
}

func TestWordRangeExpandsRegion(t *testing.T) {
	doc := document.New("the quick brown fox")
	w := New(doc.Range(6, 12), nil)
	if got := w.Region().Text(); got != "quick brown" {
		t.Errorf("Region() = %q, expected %q", got, "quick brown")
	}
	got := collect(w)
	expected := []string{"quick", "brown"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("words = %v, expected %v", got, expected)
	}
	if w.End().Offset() != w.Region().End.Offset() {
		t.Errorf("End() = %d after exhaustion, expected region end %d", w.End().Offset(), w.Region().End.Offset())
	}
}

func TestWordRangeHasNextDoesNotAdvance(t *testing.T) {
	doc := document.New("one two")
	w := NewDocument(doc, nil)
	if !w.HasNext() || !w.HasNext() {
		t.Fatal("HasNext should report a word without consuming it")
	}
	w.Next()
	if w.Current().Text != "one" {
		t.Errorf("Current() = %q, expected %q", w.Current().Text, "one")
	}
	w.Next()
	if w.HasNext() {
		t.Error("HasNext should be false after the last word")
	}
}

func TestWordRangePeriodAtRegionEnd(t *testing.T) {
	doc := document.New("see Mr. Smith")
	// A region ending between "Mr" and its period must still stop after
	// "Mr.", not start past its own end.
	w := NewDocument(doc, nil)
	w.region.End.MoveToOffset(6)
	got := collect(w)
	expected := []string{"see", "Mr."}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("words = %v, expected %v", got, expected)
	}
}

func TestWordRangeSurvivesEdits(t *testing.T) {
	doc := document.New("alpha beta gamma")
	w := NewDocument(doc, nil)
	w.Next()
	doc.Insert(0, "zero ")
	var got []string
	for w.Next() {
		got = append(got, w.Current().Text)
	}
	expected := []string{"beta", "gamma"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("words after edit = %v, expected %v", got, expected)
	}
}

func TestWordRangeRereadsGrownWord(t *testing.T) {
	tests := []struct {
		input    string
		at       int
		typed    string
		expected []string
		desc     string
	}{
		{"cat", 3, "alog", []string{"catalog"}, "typed onto the last word"},
		{"cat dog", 3, "s", []string{"cats", "dog"}, "typed before the next word"},
		{"end.", 4, " next", []string{"next"}, "after a trailing period"},
		{"cat", 3, " dog", []string{"dog"}, "new word after a space"},
	}

	for _, tt := range tests {
		doc := document.New(tt.input)
		w := NewDocument(doc, nil)
		w.Next()
		doc.Insert(tt.at, tt.typed)
		var got []string
		for w.Next() {
			got = append(got, w.Current().Text)
		}
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("words after typing %q into %q = %v, expected %v (%s)", tt.typed, tt.input, got, tt.expected, tt.desc)
		}
	}
}

func TestWordRangeStale(t *testing.T) {
	doc := document.New("alpha beta")
	w := NewDocument(doc, nil)
	doc.SetText("something else")
	if w.Positioned() {
		t.Error("range should be stale after SetText")
	}
	if w.Next() {
		t.Error("stale range should yield no words")
	}
}

func TestCheckable(t *testing.T) {
	tests := []struct {
		text     string
		expected []bool
		desc     string
	}{
		{"hello 123", []bool{true, false}, "numbers are skipped"},
		{"see https://example.com/page now", []bool{true, false, false, false, false, true}, "url parts"},
		{"mail bob@example.org", []bool{true, false, false, false}, "e-mail parts"},
		{"漢字 word", []bool{false, true}, "uncheckable script"},
	}
	for _, tt := range tests {
		w := NewDocument(document.New(tt.text), nil)
		var got []bool
		for w.Next() {
			got = append(got, w.Checkable())
		}
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("Checkable over %q = %v, expected %v (%s)", tt.text, got, tt.expected, tt.desc)
		}
	}
}

func TestFilter(t *testing.T) {
	doc := document.New("keep skip keep")
	w := NewDocument(doc, func(start, end int) bool { return start == 5 })
	var got []bool
	for w.Next() {
		got = append(got, w.Checkable())
	}
	expected := []bool{true, false, true}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Checkable = %v, expected %v", got, expected)
	}
}

func TestSpan(t *testing.T) {
	doc := document.New("x caf&eacute;s")
	w := NewDocument(doc, nil)
	w.Next()
	w.Next()
	start, end := w.Span(3, 1)
	if start != 5 || end != 13 {
		t.Errorf("Span(3, 1) = [%d,%d), expected [5,13)", start, end)
	}
}
