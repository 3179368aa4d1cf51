// Package spell defines the correctness oracle the highlighter consults and
// provides a dictionary-backed implementation of it.
package spell

import "errors"

// ErrEmptyWord is returned when a dictionary change is requested for an
// empty word.
var ErrEmptyWord = errors.New("spell: empty word")

// Status is the verdict for a checked word.
type Status int

const (
	Correct Status = iota
	// AutoReplace means the word should be replaced with Result.Replacement
	// without asking.
	AutoReplace
	// ConditionalReplace offers Result.Replacement as the only fix.
	ConditionalReplace
	// Capitalization means the word is known but wrongly capitalized.
	Capitalization
	Misspelled
)

func (s Status) String() string {
	switch s {
	case Correct:
		return "correct"
	case AutoReplace:
		return "auto-replace"
	case ConditionalReplace:
		return "conditional-replace"
	case Capitalization:
		return "capitalization"
	case Misspelled:
		return "misspelled"
	}
	return "unknown"
}

// Result is the outcome of checking one word. Offset and Length locate the
// flagged part of the word in runes, which may be narrower than the word
// itself, for example when a sentence period is not part of it.
type Result struct {
	Status      Status
	Offset      int
	Length      int
	Replacement string
}

// Flagged reports whether the word needs a highlight.
func (r Result) Flagged() bool { return r.Status != Correct }

// Suggestion is a candidate correction. Score runs from 0 to 100, higher is
// closer to the checked word.
type Suggestion struct {
	Word  string
	Score int
}

// EventKind tells what changed in the speller.
type EventKind int

const (
	WordAdded EventKind = iota
	WordIgnored
)

func (k EventKind) String() string {
	if k == WordIgnored {
		return "ignored"
	}
	return "added"
}

// Event reports a word that just became acceptable.
type Event struct {
	Kind EventKind
	Word string
}

// Speller is the correctness oracle used while highlighting.
type Speller interface {
	// CheckWord checks one word.
	CheckWord(word string) (Result, error)
	// Suggest returns up to limit corrections for word, best first, no
	// more than depth edits away.
	Suggest(word string, limit, depth int) ([]Suggestion, error)
	// AddWord adds word to the user dictionary.
	AddWord(word string) error
	// IgnoreWord accepts word for the rest of the session.
	IgnoreWord(word string)
	// ReplaceAll makes every later check of word report an automatic
	// replacement.
	ReplaceAll(word, replacement string)
	// Subscribe registers fn for added and ignored words. The returned func
	// unregisters it.
	Subscribe(fn func(Event)) (cancel func())
}
