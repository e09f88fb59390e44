package normalize

import (
	"strings"

	markdown "github.com/JohannesKaufmann/html-to-markdown"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type Renderer struct {
	converter *markdown.Converter
}

func NewRenderer() *Renderer {
	return &Renderer{converter: markdown.NewConverter("", true, nil)}
}

// HTMLToMarkdown sanitizes an HTML fragment and converts it to markdown. The
// input is returned as-is when conversion fails.
func (r *Renderer) HTMLToMarkdown(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return fragment
	}
	out, err := r.converter.ConvertString(sanitizeHTML(fragment))
	if err != nil {
		return fragment
	}
	return strings.TrimSpace(out)
}

var droppedTags = map[string]struct{}{
	"embed":    {},
	"form":     {},
	"iframe":   {},
	"noscript": {},
	"object":   {},
	"script":   {},
	"style":    {},
}

func sanitizeHTML(fragment string) string {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return fragment
	}

	var b strings.Builder
	for _, n := range nodes {
		prune(n)
		if n.Type == html.CommentNode || (n.Type == html.ElementNode && dropped(n)) {
			continue
		}
		_ = html.Render(&b, n)
	}
	return b.String()
}

func prune(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode || (c.Type == html.ElementNode && dropped(c)) {
			n.RemoveChild(c)
		} else {
			prune(c)
		}
		c = next
	}
}

func dropped(n *html.Node) bool {
	_, ok := droppedTags[strings.ToLower(n.Data)]
	return ok
}
