package export

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// plainLines turns slide content into drawable lines. Markup is stripped,
// list markers become bullets and blank lines are dropped.
func plainLines(content string) []string {
	var lines []string
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(stripMarkup(raw))
		if line == "" {
			continue
		}

		for _, marker := range []string{"- ", "* ", "+ ", "• "} {
			if strings.HasPrefix(line, marker) {
				line = "• " + strings.TrimSpace(strings.TrimPrefix(line, marker))
				break
			}
		}
		line = strings.NewReplacer("**", "", "__", "", "`", "").Replace(line)
		lines = append(lines, line)
	}
	return lines
}

// stripMarkup returns the text content of an HTML fragment. Input without
// tags or entities is returned unchanged.
func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	nodes, err := html.ParseFragment(strings.NewReader(s), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return s
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
