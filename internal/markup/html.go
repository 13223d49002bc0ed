// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markup

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

const maxDepth = 64

var (
	multiNewlinePattern = regexp.MustCompile(`\n{3,}`)
	spaceRunPattern     = regexp.MustCompile(`[ \t\r\n\f]+`)
)

// LooksLikeHTML reports whether s contains markup worth parsing.
func LooksLikeHTML(s string) bool {
	i := strings.IndexByte(s, '<')
	if i < 0 {
		return strings.Contains(s, "&") && strings.Contains(s, ";")
	}
	return i+1 < len(s) && (isLetter(s[i+1]) || s[i+1] == '/' || s[i+1] == '!')
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// ToMarkdown converts an HTML fragment to markdown. Plain text is returned
// unchanged.
func ToMarkdown(fragment string) string {
	if !LooksLikeHTML(fragment) {
		return fragment
	}

	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	w := &mdWriter{}
	w.walk(doc, 0)
	return tidy(w.sb.String())
}

// PlainText strips all markup from an HTML fragment.
func PlainText(fragment string) string {
	if !LooksLikeHTML(fragment) {
		return fragment
	}

	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	var sb strings.Builder
	var walk func(n *html.Node, depth int)
	walk = func(n *html.Node, depth int) {
		if depth > maxDepth {
			return
		}
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
		case html.ElementNode:
			switch n.Data {
			case "script", "style":
				return
			case "br", "p", "div", "li":
				sb.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, depth+1)
		}
	}
	walk(doc, 0)

	lines := strings.Split(sb.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(spaceRunPattern.ReplaceAllString(line, " "))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// mdWriter accumulates markdown while walking the node tree.
type mdWriter struct {
	sb      strings.Builder
	pre     int
	listIdx []int // 0 for <ul>, running counter for <ol>
}

func (w *mdWriter) walk(n *html.Node, depth int) {
	if depth > maxDepth {
		return
	}

	switch n.Type {
	case html.TextNode:
		w.text(n.Data)
		return
	case html.ElementNode:
		if w.open(n) {
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, depth+1)
	}

	if n.Type == html.ElementNode {
		w.close(n)
	}
}

func (w *mdWriter) text(data string) {
	if w.pre > 0 {
		w.sb.WriteString(data)
		return
	}
	collapsed := spaceRunPattern.ReplaceAllString(data, " ")
	if collapsed == " " && w.atLineStart() {
		return
	}
	w.sb.WriteString(collapsed)
}

func (w *mdWriter) atLineStart() bool {
	s := w.sb.String()
	return s == "" || strings.HasSuffix(s, "\n") || strings.HasSuffix(s, " ")
}

// open writes the prefix for an element. It returns true when the element
// was fully handled and its children must be skipped.
func (w *mdWriter) open(n *html.Node) bool {
	switch n.Data {
	case "script", "style", "noscript", "iframe", "svg":
		return true
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Data[1] - '0')
		w.sb.WriteString("\n\n" + strings.Repeat("#", level) + " ")
	case "p", "div", "section", "blockquote":
		w.sb.WriteString("\n\n")
		if n.Data == "blockquote" {
			w.sb.WriteString("> ")
		}
	case "br":
		w.sb.WriteString("  \n")
	case "hr":
		w.sb.WriteString("\n\n---\n\n")
	case "ul":
		w.listIdx = append(w.listIdx, 0)
		w.sb.WriteString("\n")
	case "ol":
		w.listIdx = append(w.listIdx, 1)
		w.sb.WriteString("\n")
	case "li":
		indent := ""
		if len(w.listIdx) > 1 {
			indent = strings.Repeat("  ", len(w.listIdx)-1)
		}
		marker := "- "
		if k := len(w.listIdx) - 1; k >= 0 && w.listIdx[k] > 0 {
			marker = strconv.Itoa(w.listIdx[k]) + ". "
			w.listIdx[k]++
		}
		w.sb.WriteString("\n" + indent + marker)
	case "pre":
		w.pre++
		w.sb.WriteString("\n\n```\n")
	case "code":
		if w.pre == 0 {
			w.sb.WriteString("`")
		}
	case "strong", "b":
		w.sb.WriteString("**")
	case "em", "i":
		w.sb.WriteString("*")
	case "a":
		w.sb.WriteString("[")
	case "img":
		if alt := attr(n, "alt"); alt != "" {
			w.sb.WriteString("[Image: " + alt + "]")
		}
		return true
	}
	return false
}

func (w *mdWriter) close(n *html.Node) {
	switch n.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6", "p", "div", "section", "blockquote":
		w.sb.WriteString("\n\n")
	case "ul", "ol":
		if len(w.listIdx) > 0 {
			w.listIdx = w.listIdx[:len(w.listIdx)-1]
		}
		w.sb.WriteString("\n\n")
	case "pre":
		w.pre--
		w.sb.WriteString("\n```\n\n")
	case "code":
		if w.pre == 0 {
			w.sb.WriteString("`")
		}
	case "strong", "b":
		w.sb.WriteString("**")
	case "em", "i":
		w.sb.WriteString("*")
	case "a":
		href := attr(n, "href")
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			w.sb.WriteString("]")
			return
		}
		w.sb.WriteString("](" + href + ")")
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// tidy trims trailing spaces outside hard breaks, strips indentation
// outside code fences and collapses blank-line runs.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	inFence := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			lines[i] = strings.TrimSpace(line)
			continue
		}
		if inFence {
			continue
		}
		hardBreak := strings.HasSuffix(line, "  ") && strings.TrimSpace(line) != ""
		trimmed := strings.TrimLeft(line, " ")
		if isListItem(trimmed) {
			trimmed = line[:len(line)-len(trimmed)] + trimmed
		}
		trimmed = strings.TrimRight(trimmed, " \t")
		if hardBreak {
			trimmed += "  "
		}
		lines[i] = trimmed
	}
	s = strings.Join(lines, "\n")
	s = multiNewlinePattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func isListItem(s string) bool {
	if strings.HasPrefix(s, "- ") {
		return true
	}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i > 0 && strings.HasPrefix(s[i:], ". ")
}
