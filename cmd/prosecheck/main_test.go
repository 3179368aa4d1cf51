package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JackWReid/prosecheck/internal/config"
	"github.com/JackWReid/prosecheck/internal/document"
	"github.com/JackWReid/prosecheck/internal/spell"
)

func testApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &app{cfg: config.Default(), log: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), out: &out}, &out
}

func writeFile(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

func TestIsHTML(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"post.html", true},
		{"post.HTM", true},
		{"notes.md", false},
		{"html", false},
	}
	for _, tt := range tests {
		if got := isHTML(tt.path); got != tt.expected {
			t.Errorf("isHTML(%q) = %v, expected %v", tt.path, got, tt.expected)
		}
	}
}

func TestLoadDocumentStripsHTML(t *testing.T) {
	path := writeFile(t, "post.html", "<p>Fish &amp; <b>chips</b></p>")
	doc, err := loadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, "Fish &amp; chips", doc.String())
	assert.False(t, doc.Dirty)
	assert.Equal(t, path, doc.Filename)
}

func TestLoadDocumentPlain(t *testing.T) {
	path := writeFile(t, "notes.txt", "one two\n")
	doc, err := loadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, "one two", doc.String())
}

func TestLineBounds(t *testing.T) {
	doc := document.New("first line\nsecond line\nthird")
	tests := []struct {
		offset     int
		start, end int
		desc       string
	}{
		{0, 0, 10, "start of first line"},
		{4, 0, 10, "inside first line"},
		{11, 11, 22, "start of second line"},
		{25, 23, 28, "last line"},
	}
	for _, tt := range tests {
		s, e := lineBounds(doc, tt.offset)
		if s != tt.start || e != tt.end {
			t.Errorf("lineBounds(%d) = %d,%d, expected %d,%d (%s)", tt.offset, s, e, tt.start, tt.end, tt.desc)
		}
	}
}

func TestRawLines(t *testing.T) {
	assert.Equal(t, "a\r\nb\r\n", rawLines("a\nb\n"))
}

func TestJoinWords(t *testing.T) {
	menu := []spell.Suggestion{{Word: "the", Score: 90}, {Word: "then", Score: 80}}
	assert.Equal(t, "the, then", joinWords(menu))
	assert.Equal(t, "", joinWords(nil))
}

func TestCheckFileReportsPositions(t *testing.T) {
	a, out := testApp(t)
	sp, err := a.speller()
	require.NoError(t, err)
	path := writeFile(t, "post.txt", "The dog was there.\nTeh house was over there.\n")

	n, err := (&CheckCmd{}).checkFile(context.Background(), a, sp, path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, strings.HasPrefix(out.String(), path+":2:1: Teh"), out.String())
}

func TestCheckFileClean(t *testing.T) {
	a, out := testApp(t)
	sp, err := a.speller()
	require.NoError(t, err)
	path := writeFile(t, "post.txt", "The dog was in the house.")

	n, err := (&CheckCmd{}).checkFile(context.Background(), a, sp, path)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, out.String())
}

func TestCheckCmdExitStatus(t *testing.T) {
	a, _ := testApp(t)
	path := writeFile(t, "post.txt", "Teh dog.")
	assert.ErrorIs(t, (&CheckCmd{Files: []string{path}}).Run(a), errMisspellings)
}

func TestSuggestCmd(t *testing.T) {
	a, out := testApp(t)
	require.NoError(t, (&SuggestCmd{Words: []string{"house", "hosue"}}).Run(a))
	lines := strings.Split(out.String(), "\n")
	assert.Equal(t, "house: correct", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "hosue: misspelled"), lines[1])
}

func TestAddCmd(t *testing.T) {
	a, _ := testApp(t)
	assert.Error(t, (&AddCmd{Words: []string{"prosecheck"}}).Run(a))

	a, _ = testApp(t)
	dict := filepath.Join(t.TempDir(), "words.txt")
	a.cfg.Spelling.UserDictionary = dict
	require.NoError(t, (&AddCmd{Words: []string{"prosecheck"}}).Run(a))
	data, err := os.ReadFile(dict)
	require.NoError(t, err)
	assert.Contains(t, string(data), "prosecheck")
}

func TestVersionCmd(t *testing.T) {
	a, out := testApp(t)
	require.NoError(t, (&VersionCmd{}).Run(a))
	assert.Equal(t, "prosecheck dev\n", out.String())
}
