package source

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// InnerTexts returns every text node below sel in document order,
// whitespace-only nodes included.
func InnerTexts(sel *goquery.Selection) []string {
	var texts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				texts = append(texts, c.Data)
			case html.ElementNode:
				if c.Data == "script" || c.Data == "style" {
					continue
				}
				walk(c)
			}
		}
	}

	for _, n := range sel.Nodes {
		walk(n)
	}
	return texts
}

// Lines returns the trimmed, non-empty [InnerTexts] of sel.
func Lines(sel *goquery.Selection) []string {
	var lines []string
	for _, t := range InnerTexts(sel) {
		if t = strings.TrimSpace(t); t != "" {
			lines = append(lines, t)
		}
	}
	return lines
}

// Text returns the text of sel with runs of whitespace collapsed.
func Text(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}
