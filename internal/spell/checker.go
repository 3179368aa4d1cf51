package spell

import (
	_ "embed"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/sajari/fuzzy"
)

//go:embed dictionaries/en_words.txt
var dictionaryData string

var _ Speller = (*Checker)(nil)

// DefaultAbbreviations are accepted with a trailing period.
var DefaultAbbreviations = []string{
	"approx", "co", "dept", "dr", "est", "etc", "fig", "inc", "jr", "ltd",
	"mr", "mrs", "ms", "no", "prof", "sr", "st", "vol", "vs",
}

// Options configures a Checker.
type Options struct {
	// MinWordLength skips words shorter than this many runes. Fuzzy
	// matching is poor for them and they are rarely misspelled.
	MinWordLength int
	// IgnoreUppercase skips words in all capitals, usually acronyms.
	IgnoreUppercase bool
	// IgnoreWordsWithNumbers skips words containing a digit.
	IgnoreWordsWithNumbers bool
	// Depth is the edit distance the suggestion index is built for.
	Depth int
	// UserDictionary is a file of extra words, one per line. AddWord
	// appends to it.
	UserDictionary string
	// AutoReplace maps a word to a replacement applied without asking.
	AutoReplace map[string]string
	// ConditionalReplace maps a word to the single correction offered.
	ConditionalReplace map[string]string
	// Abbreviations are accepted with a trailing period.
	Abbreviations []string

	Logger *slog.Logger
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		MinWordLength:          3,
		IgnoreUppercase:        true,
		IgnoreWordsWithNumbers: true,
		Depth:                  2,
		Abbreviations:          DefaultAbbreviations,
	}
}

// Checker is a Speller backed by the embedded English word list and an
// optional user dictionary. Known words are matched exactly; the fuzzy
// model is only used to find suggestions.
type Checker struct {
	opts   Options
	log    *slog.Logger
	metric *metrics.Levenshtein

	mu          sync.RWMutex
	model       *fuzzy.Model
	known       map[string]struct{}
	proper      map[string]string // Lower case to dictionary form.
	user        map[string]struct{}
	ignored     map[string]struct{}
	replaceAll  map[string]string
	auto        map[string]string
	conditional map[string]string
	abbrev      map[string]struct{}

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// NewChecker creates a checker loaded with the embedded dictionary and, when
// configured, the user dictionary. A missing user dictionary is not an
// error.
func NewChecker(opts Options) (*Checker, error) {
	if opts.Depth <= 0 {
		opts.Depth = 2
	}
	c := &Checker{
		opts:        opts,
		log:         opts.Logger,
		metric:      metrics.NewLevenshtein(),
		model:       fuzzy.NewModel(),
		known:       make(map[string]struct{}),
		proper:      make(map[string]string),
		user:        make(map[string]struct{}),
		ignored:     make(map[string]struct{}),
		replaceAll:  make(map[string]string),
		auto:        lowerKeys(opts.AutoReplace),
		conditional: lowerKeys(opts.ConditionalReplace),
		abbrev:      make(map[string]struct{}),
		subs:        make(map[int]func(Event)),
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	c.model.SetDepth(opts.Depth)
	// Each word is trained once, so suggestion keys must be built on the
	// first sighting.
	c.model.SetThreshold(1)

	for _, word := range parseWords(dictionaryData) {
		c.learn(word)
	}
	for _, a := range opts.Abbreviations {
		c.abbrev[normalize(strings.TrimSuffix(a, "."))] = struct{}{}
	}
	if _, err := c.loadUserDictionary(); err != nil {
		return nil, err
	}
	c.log.Debug("spell checker ready", "words", len(c.known)+len(c.proper), "user", len(c.user))
	return c, nil
}

// CheckWord checks one word. A trailing period is kept in the flagged span
// only when the word is a known abbreviation or an initial.
func (c *Checker) CheckWord(word string) (Result, error) {
	base := strings.TrimSuffix(word, ".")
	n := utf8.RuneCountInString(base)
	if base == "" {
		return Result{Status: Correct, Length: utf8.RuneCountInString(word)}, nil
	}
	if base != word && c.isAbbreviation(base) {
		return Result{Status: Correct, Length: n + 1}, nil
	}
	status, repl := c.check(base)
	return Result{Status: status, Length: n, Replacement: repl}, nil
}

func (c *Checker) check(word string) (Status, string) {
	runes := []rune(word)
	if len(runes) < c.opts.MinWordLength {
		return Correct, ""
	}
	if c.opts.IgnoreUppercase && isUpper(word) {
		return Correct, ""
	}
	if c.opts.IgnoreWordsWithNumbers && strings.IndexFunc(word, unicode.IsDigit) >= 0 {
		return Correct, ""
	}

	key := normalize(word)
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.ignored[key]; ok {
		return Correct, ""
	}
	if r, ok := c.replaceAll[key]; ok {
		return AutoReplace, matchCase(word, r)
	}
	if r, ok := c.auto[key]; ok {
		return AutoReplace, matchCase(word, r)
	}
	if r, ok := c.conditional[key]; ok {
		return ConditionalReplace, matchCase(word, r)
	}
	if c.knownLocked(key, word) {
		return Correct, ""
	}
	if p, ok := c.proper[key]; ok {
		return Capitalization, p
	}
	// Possessives of known words.
	if stem, ok := strings.CutSuffix(key, "'s"); ok && c.knownLocked(stem, strings.TrimSuffix(word, "'s")) {
		return Correct, ""
	}
	return Misspelled, ""
}

// knownLocked reports whether word, with lower-case form key, is in a
// dictionary. Proper nouns only match with their capital.
func (c *Checker) knownLocked(key, word string) bool {
	if _, ok := c.known[key]; ok {
		return true
	}
	if p, ok := c.proper[key]; ok {
		return strings.ReplaceAll(word, "’", "'") == p || isUpper(word)
	}
	return false
}

func (c *Checker) isAbbreviation(word string) bool {
	if utf8.RuneCountInString(word) == 1 {
		r, _ := utf8.DecodeRuneInString(word)
		return unicode.IsLetter(r)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.abbrev[normalize(word)]
	return ok
}

// Suggest returns up to limit corrections for word, best first. Candidates
// more than depth edits away are dropped.
func (c *Checker) Suggest(word string, limit, depth int) ([]Suggestion, error) {
	word = strings.TrimSuffix(word, ".")
	if word == "" || limit <= 0 {
		return nil, nil
	}
	key := normalize(word)

	c.mu.RLock()
	defer c.mu.RUnlock()

	if p, ok := c.proper[key]; ok && p != word {
		return []Suggestion{{Word: p, Score: 100}}, nil
	}
	// The model ranks by edit distance only; take a wider pool and rescore.
	pool := max(limit*3, 20)
	var out []Suggestion
	for _, cand := range c.model.SpellCheckSuggestions(key, pool) {
		if cand == key {
			continue
		}
		if depth > 0 && c.metric.Distance(key, cand) > depth {
			continue
		}
		score := int(math.Round(strutil.Similarity(key, cand, c.metric) * 100))
		if p, ok := c.proper[cand]; ok {
			cand = p
		} else {
			cand = matchCase(word, cand)
		}
		out = append(out, Suggestion{Word: cand, Score: score})
	}
	slices.SortStableFunc(out, func(a, b Suggestion) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return strings.Compare(a.Word, b.Word)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AddWord adds word to the dictionary and appends it to the user
// dictionary file, if one is configured.
func (c *Checker) AddWord(word string) error {
	word = strings.TrimSpace(word)
	if word == "" {
		return ErrEmptyWord
	}
	c.mu.Lock()
	c.learn(word)
	c.user[word] = struct{}{}
	path := c.opts.UserDictionary
	c.mu.Unlock()

	if path != "" {
		if err := appendWord(path, word); err != nil {
			return fmt.Errorf("add %q to user dictionary: %w", word, err)
		}
	}
	c.log.Debug("word added", "word", word)
	c.emit(Event{Kind: WordAdded, Word: word})
	return nil
}

// IgnoreWord accepts word until the checker is discarded.
func (c *Checker) IgnoreWord(word string) {
	if word == "" {
		return
	}
	c.mu.Lock()
	c.ignored[normalize(word)] = struct{}{}
	c.mu.Unlock()
	c.emit(Event{Kind: WordIgnored, Word: word})
}

// ReplaceAll makes later checks of word report an automatic replacement.
func (c *Checker) ReplaceAll(word, replacement string) {
	if word == "" {
		return
	}
	c.mu.Lock()
	c.replaceAll[normalize(word)] = replacement
	c.mu.Unlock()
}

// Subscribe registers fn for added and ignored words.
func (c *Checker) Subscribe(fn func(Event)) (cancel func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.nextSub++
	id := c.nextSub
	c.subs[id] = fn
	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Checker) emit(ev Event) {
	c.subMu.Lock()
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.subs[id])
	}
	c.subMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// learn adds a dictionary word. Must hold mu or be called before the
// checker is shared.
func (c *Checker) learn(word string) {
	key := normalize(word)
	first, _ := utf8.DecodeRuneInString(word)
	if unicode.IsUpper(first) && !isUpper(word) {
		if _, ok := c.known[key]; !ok {
			c.proper[key] = strings.ReplaceAll(word, "’", "'")
		}
	} else {
		c.known[key] = struct{}{}
		delete(c.proper, key)
	}
	c.model.TrainWord(key)
}

// ReloadUserDictionary reads the user dictionary file again and emits a
// WordAdded event for every word that was not loaded before.
func (c *Checker) ReloadUserDictionary() error {
	added, err := c.loadUserDictionary()
	if err != nil {
		return err
	}
	for _, w := range added {
		c.emit(Event{Kind: WordAdded, Word: w})
	}
	return nil
}

func (c *Checker) loadUserDictionary() ([]string, error) {
	path := c.opts.UserDictionary
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read user dictionary: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var added []string
	for _, w := range parseWords(string(data)) {
		if _, ok := c.user[w]; ok {
			continue
		}
		c.user[w] = struct{}{}
		c.learn(w)
		added = append(added, w)
	}
	return added, nil
}

func appendWord(path, word string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(word + "\n"); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// parseWords splits a word list, skipping blank lines and # comments.
func parseWords(data string) []string {
	var words []string
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words
}

// normalize lower-cases word and folds the typographic apostrophe.
func normalize(word string) string {
	return strings.ToLower(strings.ReplaceAll(word, "’", "'"))
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[normalize(k)] = v
	}
	return out
}

// isUpper reports whether every letter of word is upper case.
func isUpper(word string) bool {
	letters := 0
	for _, r := range word {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters > 0
}

// matchCase gives repl the capitalization pattern of orig.
func matchCase(orig, repl string) string {
	switch {
	case repl == "":
		return repl
	case isUpper(orig) && utf8.RuneCountInString(orig) > 1:
		return strings.ToUpper(repl)
	case startsUpper(orig):
		r, n := utf8.DecodeRuneInString(repl)
		return string(unicode.ToUpper(r)) + repl[n:]
	}
	return repl
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}
