// Command prosecheck checks the spelling of text files the way the editor
// highlights it, and walks through misspellings to fix them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	strip "github.com/grokify/html-strip-tags-go"
	"github.com/muesli/termenv"

	"github.com/JackWReid/prosecheck/internal/checker"
	"github.com/JackWReid/prosecheck/internal/config"
	"github.com/JackWReid/prosecheck/internal/document"
	"github.com/JackWReid/prosecheck/internal/logs"
	"github.com/JackWReid/prosecheck/internal/render"
	"github.com/JackWReid/prosecheck/internal/schedule"
	"github.com/JackWReid/prosecheck/internal/spell"
	"github.com/JackWReid/prosecheck/internal/spelling"
	"github.com/JackWReid/prosecheck/internal/terminal"
)

var version = "dev"

// errMisspellings makes check exit with status 1 without a message.
var errMisspellings = errors.New("misspellings found")

// CLI defines the command-line interface.
var CLI struct {
	Config     string `name:"config" short:"c" help:"Config file (.toml, .yaml)" type:"path"`
	Dictionary string `name:"dictionary" short:"d" help:"User dictionary file" type:"path"`
	LogLevel   string `name:"log-level" help:"Log level (debug, info, warn, error)"`

	Check   CheckCmd   `cmd:"" help:"Report misspelled words"`
	Fix     FixCmd     `cmd:"" help:"Fix misspellings interactively"`
	Suggest SuggestCmd `cmd:"" help:"Print corrections for words"`
	Add     AddCmd     `cmd:"" help:"Add words to the user dictionary"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// app carries what every command needs.
type app struct {
	cfg *config.Config
	log *slog.Logger
	out io.Writer

	sp *spell.Checker
}

func newApp(log *slog.Logger) (*app, func() error, error) {
	var (
		cfg *config.Config
		err error
	)
	if CLI.Config != "" {
		cfg, err = config.Load(CLI.Config)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, nil, err
	}
	if CLI.Dictionary != "" {
		cfg.Spelling.UserDictionary = CLI.Dictionary
	}
	if CLI.LogLevel != "" {
		cfg.Log.Level = CLI.LogLevel
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}
	logger, closeLog, err := logs.New(logs.ApplyEnv(cfg.LogOptions(), os.Getenv), os.Stderr)
	if err != nil {
		log.Warn("logging to stderr", "err", err)
		logger, closeLog = log, func() error { return nil }
	}
	return &app{cfg: cfg, log: logger, out: os.Stdout}, closeLog, nil
}

// speller loads the dictionaries on first use.
func (a *app) speller() (*spell.Checker, error) {
	if a.sp != nil {
		return a.sp, nil
	}
	opts := a.cfg.SpellOptions()
	opts.Logger = a.log
	sp, err := spell.NewChecker(opts)
	if err != nil {
		return nil, fmt.Errorf("load dictionaries: %w", err)
	}
	a.sp = sp
	return sp, nil
}

// session starts a spelling session over doc driven by a loop of its own.
// The returned func reports the fault that stopped checking, if any.
func (a *app) session(doc *document.Document, sp spell.Speller, hl checker.Highlighter, suspend func() func()) (*spelling.Manager, *schedule.Loop, func() error) {
	loop := schedule.NewLoop(schedule.NewTicker(a.cfg.TickInterval()))
	var fault error
	opts := a.cfg.SessionOptions()
	opts.Timer = loop.Ticker()
	opts.Highlighter = hl
	opts.Suspend = suspend
	opts.OnFault = func(err error) { fault = err }
	opts.Logger = a.log.With("file", doc.Filename)
	m := spelling.New(doc, sp, opts)
	m.InitializeSession()
	return m, loop, func() error { return fault }
}

// settle runs the loop until the checker has nothing queued.
func settle(ctx context.Context, m *spelling.Manager, loop *schedule.Loop) error {
	return loop.RunUntilIdle(ctx, func() { m.Checker().Tick() })
}

func isHTML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// loadDocument reads path into a document. HTML is reduced to its text;
// character references are left for the tokenizer.
func loadDocument(path string) (*document.Document, error) {
	if !isHTML(path) {
		doc := document.New("")
		if err := doc.Load(path); err != nil {
			return nil, err
		}
		return doc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc := document.New(strip.StripTags(string(data)))
	doc.Filename = path
	doc.Dirty = false
	return doc, nil
}

// CheckCmd reports every misspelling in the given files.
type CheckCmd struct {
	Files     []string `arg:"" help:"Files to check" type:"existingfile"`
	Highlight bool     `help:"Print the text with misspellings highlighted"`
}

func (c *CheckCmd) Run(a *app) error {
	sp, err := a.speller()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	found := 0
	for _, path := range c.Files {
		n, err := c.checkFile(ctx, a, sp, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		found += n
	}
	if found > 0 {
		return errMisspellings
	}
	return nil
}

func (c *CheckCmd) checkFile(ctx context.Context, a *app, sp *spell.Checker, path string) (int, error) {
	doc, err := loadDocument(path)
	if err != nil {
		return 0, err
	}
	painter := render.NewPainter(doc, termenv.NewOutput(os.Stdout))
	m, loop, fault := a.session(doc, sp, painter, nil)
	defer m.StopSession(true)

	loop.Post(func() {
		if err := m.HighlightSpelling(nil); err != nil {
			a.log.Error("start checking", "err", err)
		}
	})
	if err := settle(ctx, m, loop); err != nil {
		return 0, err
	}
	if err := fault(); err != nil {
		return 0, err
	}

	if c.Highlight && terminal.IsTerminal(os.Stdout) {
		fmt.Fprintln(a.out, painter.Render(terminal.Width(os.Stdout, 0)))
	}
	segs := m.Segments()
	for _, seg := range segs {
		line, col := doc.LineCol(seg.Start.Offset())
		fmt.Fprintf(a.out, "%s:%d:%d: %s", path, line+1, col+1, seg.Text())
		info := m.FindMisspelling(seg.Start)
		menu, err := m.CorrectionMenu(info)
		if err != nil {
			a.log.Warn("suggest", "word", seg.Word, "err", err)
		}
		if len(menu) > 0 {
			fmt.Fprintf(a.out, " (%s)", joinWords(menu))
		}
		fmt.Fprintln(a.out)
	}
	return len(segs), nil
}

func joinWords(menu []spell.Suggestion) string {
	words := make([]string, len(menu))
	for i, s := range menu {
		words[i] = s.Word
	}
	return strings.Join(words, ", ")
}

// SuggestCmd prints the correction menu for each word.
type SuggestCmd struct {
	Words []string `arg:"" help:"Words to look up"`
}

func (c *SuggestCmd) Run(a *app) error {
	sp, err := a.speller()
	if err != nil {
		return err
	}
	opts := a.cfg.SessionOptions()
	opts.Logger = a.log
	m := spelling.New(document.New(""), sp, opts)
	for _, word := range c.Words {
		res, err := sp.CheckWord(word)
		if err != nil {
			return err
		}
		if !res.Flagged() {
			fmt.Fprintf(a.out, "%s: correct\n", word)
			continue
		}
		menu, err := m.CorrectionMenu(&spelling.MisspelledWordInfo{
			Word:        word,
			Status:      res.Status,
			Replacement: res.Replacement,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s: %s", word, res.Status)
		for _, s := range menu {
			fmt.Fprintf(a.out, "\n  %-20s %3d", s.Word, s.Score)
		}
		fmt.Fprintln(a.out)
	}
	return nil
}

// AddCmd adds words to the user dictionary.
type AddCmd struct {
	Words []string `arg:"" help:"Words to add"`
}

func (c *AddCmd) Run(a *app) error {
	if a.cfg.Spelling.UserDictionary == "" {
		return errors.New("no user dictionary configured, use --dictionary or spelling.user_dictionary")
	}
	sp, err := a.speller()
	if err != nil {
		return err
	}
	for _, word := range c.Words {
		if err := sp.AddWord(word); err != nil {
			return err
		}
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(a *app) error {
	fmt.Fprintf(a.out, "prosecheck %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("prosecheck"),
		kong.Description("Spell checking for prose, with incremental highlighting"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	bootLog, closeBoot, err := logs.FromEnv()
	ctx.FatalIfErrorf(err)
	defer closeBoot()

	a, closeLog, err := newApp(bootLog)
	ctx.FatalIfErrorf(err)
	defer closeLog()

	err = ctx.Run(a)
	if errors.Is(err, errMisspellings) {
		closeLog()
		os.Exit(1)
	}
	ctx.FatalIfErrorf(err)
}
