package model

type DescriptionFormat string

const (
	DescriptionRaw      DescriptionFormat = "raw"
	DescriptionMarkdown DescriptionFormat = "markdown"
)

// FeedConfig describes one registered feed: where it is fetched from and
// where its normalized document is written.
type FeedConfig struct {
	ID         string `json:"id"`
	Query      string `json:"query"`
	OutputFile string `json:"output_file"`
	Title      string `json:"title"`
}

// URL joins the feed query suffix onto the base endpoint.
func (f FeedConfig) URL(base string) string {
	return base + f.Query
}

type RawItem struct {
	GUID        string
	Title       string
	Description string
	Creator     string
	PubDate     string
}

type NormalizedItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Creator     string `json:"creator"`
	PubDate     string `json:"pubDate"`
}

// OutputDocument is the persisted artifact. Items must never be nil so the
// file always carries an array.
type OutputDocument struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Items       []NormalizedItem `json:"items"`
}
