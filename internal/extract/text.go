// Package extract turns raw opinion bodies into prompt-ready plain text.
package extract

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// blockElements end a line of visible text
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "section": true, "article": true,
	"table": true, "ul": true, "ol": true, "hr": true,
}

// PlainText returns the visible text of an opinion body. HTML input is
// parsed and flattened; anything else is only normalized.
func PlainText(body string) string {
	if !looksLikeHTML(body) {
		return normalizeLines(body)
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return normalizeLines(body)
	}

	return normalizeLines(visibleText(doc))
}

// Truncate cuts s to at most n runes. n <= 0 leaves s unchanged.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func looksLikeHTML(s string) bool {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "<") {
		return false
	}
	lower := strings.ToLower(trimmed[:min(len(trimmed), 512)])
	for _, tag := range []string{"<html", "<!doctype", "<p", "<div", "<pre", "<body", "<span", "<center", "<br"} {
		if strings.Contains(lower, tag) {
			return true
		}
	}
	return false
}

// visibleText walks the tree, skipping scripts and styles. Source line
// breaks only survive inside <pre>.
func visibleText(n *html.Node) string {
	var buf strings.Builder
	preDepth := 0

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			case "pre":
				preDepth++
				defer func() { preDepth-- }()
			}
		}

		if n.Type == html.TextNode {
			if preDepth > 0 {
				buf.WriteString(n.Data)
			} else {
				buf.WriteString(strings.ReplaceAll(n.Data, "\n", " "))
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockElements[n.Data] {
			buf.WriteString("\n")
		}
	}
	walk(n)

	return buf.String()
}

// normalizeLines collapses whitespace inside lines and drops blank lines
func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
