package providers

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// page is a parsed HTML document with helpers for the text heuristics the
// scraping strategies rely on.
type page struct {
	root *html.Node
}

func parsePage(body []byte) (*page, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return &page{root: root}, nil
}

func skipNode(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case "script", "style", "noscript", "head":
		return true
	}
	return false
}

// Lines returns the non-empty trimmed text nodes in document order.
func (p *page) Lines() []string {
	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if skipNode(n) {
			return
		}
		if n.Type == html.TextNode {
			for _, line := range strings.Split(n.Data, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					lines = append(lines, line)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(p.root)
	return lines
}

// Text joins all visible text with single spaces.
func (p *page) Text() string {
	return strings.Join(p.Lines(), " ")
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if skipNode(n) {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// ClassTexts returns the text of every element of the given tags whose
// class attribute contains one of the keywords.
func (p *page) ClassTexts(tags []string, keywords []string) []string {
	wanted := make(map[string]bool, len(tags))
	for _, t := range tags {
		wanted[t] = true
	}
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if skipNode(n) {
			return
		}
		if n.Type == html.ElementNode && wanted[n.Data] {
			class := strings.ToLower(attr(n, "class"))
			for _, kw := range keywords {
				if class != "" && strings.Contains(class, kw) {
					out = append(out, nodeText(n))
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(p.root)
	return out
}

// TableRows returns the cell texts of every table row.
func (p *page) TableRows() [][]string {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if skipNode(n) {
			return
		}
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, nodeText(c))
				}
			}
			rows = append(rows, cells)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(p.root)
	return rows
}
