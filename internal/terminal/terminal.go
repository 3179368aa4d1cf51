// Package terminal reads single keys and short lines from a terminal in raw
// mode for the interactive fixer.
package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/term"
)

// ErrInterrupted is returned by LineInput when the user presses Ctrl+C.
var ErrInterrupted = errors.New("terminal: interrupted")

// Terminal holds a terminal switched to raw mode.
type Terminal struct {
	in       *os.File
	oldState *term.State
}

// Open switches in to raw mode. Output needs "\r\n" line ends until
// Restore.
func Open(in *os.File) (*Terminal, error) {
	oldState, err := term.MakeRaw(int(in.Fd()))
	if err != nil {
		return nil, fmt.Errorf("raw mode: %w", err)
	}
	return &Terminal{in: in, oldState: oldState}, nil
}

// IsTerminal reports whether f is a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the width of the terminal behind f, or fallback when it is
// not a terminal.
func Width(f *os.File, fallback int) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// Restore returns the terminal to its original state.
func (t *Terminal) Restore() {
	if t.oldState != nil {
		term.Restore(int(t.in.Fd()), t.oldState)
		t.oldState = nil
	}
}

// ReadKey reads a single key.
func (t *Terminal) ReadKey() (Key, error) {
	buf := make([]byte, 16)
	n, err := t.in.Read(buf)
	if err != nil {
		return Key{}, err
	}
	return parseKey(buf[:n]), nil
}

// LineInput collects a typed line one key at a time, echoing it to out.
type LineInput struct {
	out  io.Writer
	line []rune
}

// NewLineInput prints prompt and starts an empty line.
func NewLineInput(out io.Writer, prompt string) *LineInput {
	fmt.Fprint(out, prompt)
	return &LineInput{out: out}
}

// Feed handles one key. done is true once Enter, Escape or Ctrl+C ends the
// line: Escape gives an empty line and Ctrl+C ErrInterrupted.
func (l *LineInput) Feed(k Key) (line string, done bool, err error) {
	switch k.Type {
	case KeyEnter:
		fmt.Fprint(l.out, "\r\n")
		return string(l.line), true, nil
	case KeyEscape:
		fmt.Fprint(l.out, "\r\n")
		return "", true, nil
	case KeyCtrlC:
		fmt.Fprint(l.out, "\r\n")
		return "", true, ErrInterrupted
	case KeyBackspace:
		if len(l.line) > 0 {
			l.line = l.line[:len(l.line)-1]
			fmt.Fprint(l.out, "\b \b")
		}
	case KeyRune:
		l.line = append(l.line, k.Rune)
		fmt.Fprint(l.out, string(k.Rune))
	}
	return "", false, nil
}

// Key types.
const (
	KeyRune      = iota // Normal printable character
	KeyEscape           // Escape key (standalone)
	KeyEnter            // Enter/Return
	KeyBackspace        // Backspace/Delete-backward
	KeyCtrlC            // Ctrl+C
	KeyCtrlD            // Ctrl+D
	KeyUp               // Arrow up
	KeyDown             // Arrow down
	KeyUnknown          // Unrecognised sequence
)

type Key struct {
	Type int
	Rune rune
}

func parseKey(buf []byte) Key {
	if len(buf) == 0 {
		return Key{Type: KeyUnknown}
	}

	// Single byte.
	if len(buf) == 1 {
		b := buf[0]
		switch {
		case b == 27:
			return Key{Type: KeyEscape}
		case b == 13 || b == 10:
			return Key{Type: KeyEnter}
		case b == 127 || b == 8:
			return Key{Type: KeyBackspace}
		case b == 3: // Ctrl+C
			return Key{Type: KeyCtrlC}
		case b == 4: // Ctrl+D
			return Key{Type: KeyCtrlD}
		case b >= 32 && b < 127:
			return Key{Type: KeyRune, Rune: rune(b)}
		default:
			return Key{Type: KeyUnknown}
		}
	}

	// Escape sequences.
	if buf[0] == 27 && len(buf) >= 3 && buf[1] == '[' {
		switch buf[2] {
		case 'A':
			return Key{Type: KeyUp}
		case 'B':
			return Key{Type: KeyDown}
		}
		return Key{Type: KeyUnknown}
	}

	// Multi-byte UTF-8 character.
	if r, _ := utf8.DecodeRune(buf); r != utf8.RuneError && r >= 32 {
		return Key{Type: KeyRune, Rune: r}
	}
	return Key{Type: KeyUnknown}
}
