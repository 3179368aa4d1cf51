package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"

	"github.com/JackWReid/prosecheck/internal/damage"
	"github.com/JackWReid/prosecheck/internal/document"
	"github.com/JackWReid/prosecheck/internal/render"
	"github.com/JackWReid/prosecheck/internal/schedule"
	"github.com/JackWReid/prosecheck/internal/spell"
	"github.com/JackWReid/prosecheck/internal/spelling"
	"github.com/JackWReid/prosecheck/internal/terminal"
)

const fixHelp = "[1-9] use  up/down enter pick  r replace  i ignore  a ignore all  d add  s skip  q quit"

// FixCmd walks through the misspellings of a file one at a time.
type FixCmd struct {
	File string `arg:"" help:"File to fix" type:"existingfile"`
}

// fixer is the interactive walk. Its methods run on the session loop.
type fixer struct {
	doc     *document.Document
	m       *spelling.Manager
	dmg     *damage.Damager
	painter *render.Painter
	out     *termenv.Output
	w       io.Writer
	width   int
	path    string
	stop    func(err error)

	info     *spelling.MisspelledWordInfo
	menu     []spell.Suggestion
	selected int
	next     int
	input    *terminal.LineInput
}

func (c *FixCmd) Run(a *app) error {
	if isHTML(c.File) {
		return fmt.Errorf("%s: HTML files can only be checked", c.File)
	}
	if !terminal.IsTerminal(os.Stdin) {
		return errors.New("fix needs a terminal")
	}
	sp, err := a.speller()
	if err != nil {
		return err
	}
	doc, err := loadDocument(c.File)
	if err != nil {
		return err
	}

	out := termenv.NewOutput(os.Stdout)
	painter := render.NewPainter(doc, out)
	var dmg *damage.Damager
	m, loop, fault := a.session(doc, sp, painter, func() func() { return dmg.Suspend() })
	defer m.StopSession(true)
	dmg = damage.New(doc, m, a.cfg.Strategy(), a.log)
	defer dmg.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Words added from another session unhighlight here too.
	if err := sp.WatchUserDictionary(ctx, loop.Post); err != nil {
		a.log.Warn("watch user dictionary", "err", err)
	}
	loop.Post(func() {
		if err := m.HighlightSpelling(nil); err != nil {
			a.log.Error("start checking", "err", err)
		}
	})

	t, err := terminal.Open(os.Stdin)
	if err != nil {
		return err
	}
	var walkErr error
	f := &fixer{
		doc:     doc,
		m:       m,
		dmg:     dmg,
		painter: painter,
		out:     out,
		w:       os.Stdout,
		width:   terminal.Width(os.Stdout, 80),
		path:    c.File,
		stop: func(err error) {
			walkErr = err
			cancel()
		},
	}
	go readKeys(ctx, t, loop, f)
	loop.Post(f.advance)
	runErr := loop.Run(ctx, func() { m.Checker().Tick() })
	t.Restore()

	if walkErr == nil && !errors.Is(runErr, context.Canceled) {
		walkErr = runErr
	}
	if walkErr == nil {
		walkErr = fault()
	}
	if walkErr != nil && !errors.Is(walkErr, terminal.ErrInterrupted) {
		return walkErr
	}
	if !doc.Dirty {
		return nil
	}
	if err := doc.Save(""); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "saved %s\n", c.File)
	return nil
}

// readKeys posts every key read from t to the loop until ctx is done.
func readKeys(ctx context.Context, t *terminal.Terminal, loop *schedule.Loop, f *fixer) {
	for ctx.Err() == nil {
		k, err := t.ReadKey()
		if err != nil {
			loop.Post(func() { f.stop(err) })
			return
		}
		loop.Post(func() { f.key(k) })
	}
}

// advance shows the next misspelling from f.next, or stops at the end of
// the document.
func (f *fixer) advance() {
	f.info = nil
	info, err := f.m.NextMisspelling(f.doc.Pos(f.next, document.LeftSticky))
	if err != nil || info == nil {
		f.stop(err)
		return
	}
	menu, err := f.m.CorrectionMenu(info)
	if err != nil {
		f.stop(err)
		return
	}
	f.info, f.menu, f.selected = info, menu, 0
	f.show()
}

// moveOn continues the walk from next once the word at start is handled.
func (f *fixer) moveOn(start, next int, err error) {
	if err != nil {
		f.stop(err)
		return
	}
	// Keep moving forward even if an edit ended up before the word.
	f.next = max(next, start+1)
	f.advance()
}

// key handles one key press.
func (f *fixer) key(k terminal.Key) {
	if f.info == nil {
		return
	}
	start, end := f.info.Range.Start.Offset(), f.info.Range.End.Offset()

	if f.input != nil {
		word, done, err := f.input.Feed(k)
		if !done {
			return
		}
		f.input = nil
		switch {
		case err != nil:
			f.stop(err)
		case word == "":
			f.show()
		default:
			f.moveOn(start, start+len([]rune(word)), f.typed(start, end, word))
		}
		return
	}

	switch k.Type {
	case terminal.KeyUp, terminal.KeyDown:
		if n := len(f.menu); n > 0 {
			step := 1
			if k.Type == terminal.KeyUp {
				step = n - 1
			}
			f.selected = (f.selected + step) % n
			f.show()
		}
		return
	case terminal.KeyEnter:
		if len(f.menu) == 0 {
			f.moveOn(start, end, nil)
			return
		}
		f.use(start, f.menu[f.selected].Word)
		return
	case terminal.KeyEscape, terminal.KeyCtrlC, terminal.KeyCtrlD:
		f.stop(nil)
		return
	case terminal.KeyRune:
	default:
		return
	}

	switch r := k.Rune; {
	case r >= '1' && r <= '9':
		if i := int(r - '1'); i < len(f.menu) {
			f.use(start, f.menu[i].Word)
		}
	case r == 'r':
		f.input = terminal.NewLineInput(f.w, "Replace with: ")
	case r == 'i':
		f.moveOn(start, end, f.m.IgnoreOnce(f.info.Range))
	case r == 'a':
		f.moveOn(start, end, f.m.IgnoreAll(f.info.Word))
	case r == 'd':
		f.moveOn(start, end, f.m.AddToDictionary(f.info.Word))
	case r == 's':
		f.moveOn(start, end, nil)
	case r == 'q':
		f.stop(nil)
	}
}

// use replaces the current misspelling with a suggestion.
func (f *fixer) use(start int, word string) {
	f.moveOn(start, start+len([]rune(word)), f.m.Replace(f.info, word))
}

// typed replaces [start,end) as the user's own edit, so the damager
// reports it for checking.
func (f *fixer) typed(start, end int, word string) error {
	if err := f.doc.Replace(start, end, word); err != nil {
		return err
	}
	return f.dmg.SelectionChanged()
}

// show prints the line holding the current misspelling with the word in
// reverse video, the correction menu and the key help.
func (f *fixer) show() {
	info := f.info
	start, end := info.Range.Start.Offset(), info.Range.End.Offset()
	lineStart, lineEnd := lineBounds(f.doc, start)
	line := f.doc.Slice(lineStart, start) +
		f.out.String(f.doc.Slice(start, end)).Reverse().String() +
		f.doc.Slice(end, lineEnd)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(render.TruncateVisible(line, f.width))
	b.WriteString("\n\n")
	if len(f.menu) == 0 {
		b.WriteString("  (no suggestions)\n")
	}
	for i, s := range f.menu {
		if i == 9 {
			break
		}
		entry := fmt.Sprintf("%d) %s", i+1, s.Word)
		if i == f.selected {
			entry = f.out.String(entry).Reverse().String()
		}
		fmt.Fprintf(&b, "  %s\n", entry)
	}
	b.WriteString(fixHelp)
	b.WriteString("\n")
	ln, col := f.doc.LineCol(start)
	b.WriteString(f.painter.StatusBar(f.width,
		fmt.Sprintf(" %s:%d:%d %s", f.path, ln+1, col+1, info.Status),
		fmt.Sprintf("%d highlighted ", f.painter.Len())))
	b.WriteString("\n")
	fmt.Fprint(f.w, rawLines(b.String()))
}

// lineBounds returns the offsets of the hard line around offset.
func lineBounds(doc *document.Document, offset int) (start, end int) {
	text := doc.Runes()
	start, end = offset, offset
	for start > 0 && text[start-1] != '\n' {
		start--
	}
	for end < len(text) && text[end] != '\n' {
		end++
	}
	return start, end
}

// rawLines converts line ends for a terminal in raw mode.
func rawLines(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}
