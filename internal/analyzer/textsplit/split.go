// Package textsplit cuts text into paragraphs and sentences while keeping
// the character offset of each piece in the original text.
package textsplit

import (
	"strings"
	"unicode"
)

// Piece is a trimmed fragment of text and the character offset where it
// starts in the original text.
type Piece struct {
	Text  string
	Start int
}

// Paragraphs splits text on newlines. Each line is trimmed and blank lines
// are dropped; Start points at the first non-blank character of the line.
func Paragraphs(text string) []Piece {
	var (
		out []Piece
		idx int
	)

	for _, line := range strings.Split(text, "\n") {
		s, offset := trim(line)
		if s != "" {
			out = append(out, Piece{Text: s, Start: idx + offset})
		}
		idx += runeLen(line) + 1
	}
	return out
}

// Sentences splits a paragraph on periods. The periods themselves are
// dropped, each part is trimmed, and empty parts are skipped.
func Sentences(paragraph Piece) []Piece {
	if paragraph.Text == "" {
		return nil
	}

	var (
		out []Piece
		idx int
	)

	for _, part := range strings.Split(paragraph.Text, ".") {
		s, offset := trim(part)
		if s != "" {
			out = append(out, Piece{Text: s, Start: paragraph.Start + idx + offset})
		}
		idx += runeLen(part) + 1
	}
	return out
}

// FirstWord returns the first whitespace separated word of s.
func FirstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// trim strips surrounding whitespace and reports how many characters were
// removed from the left.
func trim(s string) (string, int) {
	left := strings.TrimLeftFunc(s, unicode.IsSpace)
	offset := runeLen(s) - runeLen(left)
	return strings.TrimRightFunc(left, unicode.IsSpace), offset
}

func runeLen(s string) int {
	return len([]rune(s))
}
