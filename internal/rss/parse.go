package rss

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/mmcdole/gofeed"
	"github.com/odysseus0/rssfeeder/internal/model"
	"golang.org/x/net/html/charset"
)

var ErrMalformedFeed = errors.New("malformed feed")

// Channel is the raw channel as read from the document, before
// normalization.
type Channel struct {
	Description string
	Items       []model.RawItem
	Element     *Element
}

func Parse(data []byte) (*Channel, error) {
	root, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}

	ch := root.Find("channel")
	if ch == nil {
		return nil, fmt.Errorf("%w: no channel found in RSS feed%s", ErrMalformedFeed, feedTypeHint(data))
	}

	items := ch.FindAll("item")
	out := &Channel{
		Description: ch.ChildText("description"),
		Items:       make([]model.RawItem, 0, len(items)),
		Element:     ch,
	}
	for _, item := range items {
		out.Items = append(out.Items, rawItem(item))
	}
	return out, nil
}

func rawItem(item *Element) model.RawItem {
	creator := ""
	if c := item.FindLocal("creator"); c != nil {
		creator = c.Text
	}
	return model.RawItem{
		GUID:        item.ChildText("guid"),
		Title:       item.ChildText("title"),
		Description: item.ChildText("description"),
		Creator:     creator,
		PubDate:     item.ChildText("pubDate"),
	}
}

// ParseDocument reads a complete XML document into an element tree and
// returns its root.
func ParseDocument(data []byte) (*Element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root  *Element
		stack []*Element
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, fmt.Errorf("%w: junk after document element <%s>", ErrMalformedFeed, root.Name.Local)
			}
			el := &Element{Name: t.Name}
			if n := len(stack); n > 0 {
				parent := stack[n-1]
				parent.Children = append(parent.Children, el)
			} else {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				if root != nil && len(bytes.TrimSpace(t)) > 0 {
					return nil, fmt.Errorf("%w: junk after document element <%s>", ErrMalformedFeed, root.Name.Local)
				}
				continue
			}
			if cur := stack[len(stack)-1]; len(cur.Children) == 0 {
				cur.Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedFeed)
	}
	return root, nil
}

func feedTypeHint(data []byte) string {
	switch gofeed.DetectFeedType(bytes.NewReader(data)) {
	case gofeed.FeedTypeAtom:
		return " (document is an Atom feed)"
	case gofeed.FeedTypeJSON:
		return " (document is a JSON feed)"
	case gofeed.FeedTypeRSS:
		if bytes.Contains(data, []byte("purl.org/rss/1.0")) {
			return " (document is an RSS 1.0 feed)"
		}
	}
	return ""
}
