// Package opml exports the feed registry as an OPML 2.0 subscription list.
package opml

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/odysseus0/rssfeeder/internal/model"
)

type opmlDoc struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr,omitempty"`
	Head    opmlHead `xml:"head"`
	Body    opmlBody `xml:"body"`
}

type opmlHead struct {
	Title string `xml:"title,omitempty"`
}

type opmlBody struct {
	Outlines []opmlOutline `xml:"outline"`
}

type opmlOutline struct {
	Text     string        `xml:"text,attr,omitempty"`
	Title    string        `xml:"title,attr,omitempty"`
	Type     string        `xml:"type,attr,omitempty"`
	XMLURL   string        `xml:"xmlUrl,attr,omitempty"`
	Outlines []opmlOutline `xml:"outline,omitempty"`
}

// WriteOPML writes feeds as rss outlines under a single folder. Each feed URL
// is its query appended to baseURL.
func WriteOPML(w io.Writer, baseURL string, feeds []model.FeedConfig) error {
	outlines := make([]opmlOutline, 0, len(feeds))
	for _, f := range feeds {
		title := fallback(strings.TrimSpace(f.Title), f.ID)
		outlines = append(outlines, opmlOutline{
			Text:   title,
			Title:  title,
			Type:   "rss",
			XMLURL: f.URL(baseURL),
		})
	}

	doc := opmlDoc{
		Version: "2.0",
		Head: opmlHead{
			Title: "rssfeeder feeds",
		},
		Body: opmlBody{
			Outlines: []opmlOutline{{
				Text:     "Feeds",
				Title:    "Feeds",
				Outlines: outlines,
			}},
		},
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func fallback(v, fb string) string {
	if strings.TrimSpace(v) == "" {
		return fb
	}
	return v
}
