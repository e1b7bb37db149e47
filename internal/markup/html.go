// Package markup renders overlays for the surfaces a user reads them on:
// HTML markers for browsers, ANSI colors for terminals and a markdown details
// list. It also reads HTML back into plain text and markers.
package markup

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/colonyops/proofread/internal/core/highlight"
)

// HighlightClass is the class carried by every marker element.
const HighlightClass = "highlight"

const (
	attrModules      = "data-modules"
	attrExplanations = "data-explanations"
)

// HTML renders the overlay as escaped text with one span element per marked
// segment. Stripping the tags and unescaping yields the original text.
func HTML(o highlight.Overlay) string {
	var b strings.Builder
	for _, seg := range o.Segments {
		if !seg.Marked() {
			b.WriteString(html.EscapeString(seg.Text))
			continue
		}

		m := highlight.EncodeMarker(seg)
		fmt.Fprintf(&b, `<span class="%s" style="background-color: %s" %s="%s" %s="%s">%s</span>`,
			HighlightClass,
			html.EscapeString(m.Color),
			attrModules, html.EscapeString(m.Modules),
			attrExplanations, html.EscapeString(m.Explanations),
			html.EscapeString(m.Text),
		)
	}
	return b.String()
}

// block elements start on a new line when converted to plain text.
var block = map[string]bool{
	"address": true, "article": true, "blockquote": true, "div": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "tr": true, "ul": true,
}

// skipped elements contribute no text.
var skipped = map[string]bool{"script": true, "style": true, "head": true, "title": true}

// PlainText returns the text content of HTML input with tags removed and
// entities decoded. Block elements are separated by newlines.
func PlainText(input string) (string, error) {
	text, _, err := parse(input)
	return text, err
}

// ParseHTML reads HTML produced by HTML back into the plain text and the
// markers it carries, in document order.
func ParseHTML(input string) (string, []highlight.Marker, error) {
	return parse(input)
}

func parse(input string) (string, []highlight.Marker, error) {
	var (
		b       strings.Builder
		markers []highlight.Marker
		skip    int
		cur     *highlight.Marker
		curText strings.Builder
		depth   int // open spans inside the current marker
	)

	newline := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteString("\n")
		}
	}

	z := html.NewTokenizer(strings.NewReader(input))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != nil && err != io.EOF {
				return "", nil, fmt.Errorf("parse html: %w", err)
			}
			return b.String(), markers, nil

		case html.TextToken:
			if skip > 0 {
				continue
			}
			text := string(z.Text())
			b.WriteString(text)
			if cur != nil {
				curText.WriteString(text)
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch {
			case skipped[tok.Data]:
				if tt == html.StartTagToken {
					skip++
				}
			case tok.Data == "br":
				b.WriteString("\n")
				if cur != nil {
					curText.WriteString("\n")
				}
			case block[tok.Data]:
				newline()
			case tok.Data == "span" && tt == html.StartTagToken:
				if cur != nil {
					depth++
				} else if hasClass(tok, HighlightClass) {
					cur = markerFromTag(tok)
					curText.Reset()
				}
			}

		case html.EndTagToken:
			tok := z.Token()
			switch {
			case skipped[tok.Data]:
				if skip > 0 {
					skip--
				}
			case tok.Data == "span" && cur != nil:
				if depth > 0 {
					depth--
					continue
				}
				cur.Text = curText.String()
				markers = append(markers, *cur)
				cur = nil
			}
		}
	}
}

func hasClass(tok html.Token, class string) bool {
	for _, a := range tok.Attr {
		if a.Key == "class" && slices.Contains(strings.Fields(a.Val), class) {
			return true
		}
	}
	return false
}

func markerFromTag(tok html.Token) *highlight.Marker {
	m := &highlight.Marker{}
	for _, a := range tok.Attr {
		switch a.Key {
		case attrModules:
			m.Modules = a.Val
		case attrExplanations:
			m.Explanations = a.Val
		case "style":
			m.Color = styleValue(a.Val, "background-color")
		}
	}
	return m
}

func styleValue(style, property string) string {
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(k) == property {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
