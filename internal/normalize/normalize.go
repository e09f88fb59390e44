package normalize

import (
	"github.com/odysseus0/rssfeeder/internal/model"
	"github.com/odysseus0/rssfeeder/internal/rss"
)

type Normalizer struct {
	renderer *Renderer
}

// New returns a normalizer for the given description format. Raw keeps
// descriptions byte for byte.
func New(format model.DescriptionFormat) *Normalizer {
	n := &Normalizer{}
	if format == model.DescriptionMarkdown {
		n.renderer = NewRenderer()
	}
	return n
}

func (n *Normalizer) Item(raw model.RawItem) model.NormalizedItem {
	description := raw.Description
	if n.renderer != nil {
		description = n.renderer.HTMLToMarkdown(description)
	}
	return model.NormalizedItem{
		ID:          raw.GUID,
		Title:       raw.Title,
		Description: description,
		Creator:     raw.Creator,
		PubDate:     ShiftDate(raw.PubDate),
	}
}

// Document builds the output document. Every raw item produces exactly one
// output item, in source order.
func (n *Normalizer) Document(title string, ch *rss.Channel) model.OutputDocument {
	items := make([]model.NormalizedItem, 0, len(ch.Items))
	for _, raw := range ch.Items {
		items = append(items, n.Item(raw))
	}
	return model.OutputDocument{
		Title:       title,
		Description: ch.Description,
		Items:       items,
	}
}
