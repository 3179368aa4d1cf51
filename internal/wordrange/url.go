package wordrange

import (
	"strings"
	"unicode"
)

var urlPrefixes = []string{"http://", "https://", "ftp://", "file://", "mailto:", "www."}

// chunkAt returns the whitespace-delimited run of text around [start,end).
func chunkAt(text []rune, start, end int) string {
	s := safeStart(text, start)
	e := end
	for e < len(text) && !unicode.IsSpace(text[e]) {
		e++
	}
	return string(text[s:e])
}

// isURLPart reports whether the word at [start,end) is part of a URL or an
// e-mail address.
func isURLPart(text []rune, start, end int) bool {
	chunk := strings.ToLower(strings.TrimLeft(chunkAt(text, start, end), "(<[\"'"))
	if strings.Contains(chunk, "://") {
		return true
	}
	for _, p := range urlPrefixes {
		if strings.HasPrefix(chunk, p) {
			return true
		}
	}
	if at := strings.IndexByte(chunk, '@'); at > 0 {
		return strings.Contains(chunk[at+1:], ".")
	}
	return false
}
