package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/odysseus0/rssfeeder/internal/model"
	"github.com/samber/lo"
)

const (
	DefaultFeedID  = "serie1"
	DefaultBaseURL = "https://dre.tretas.org/dre/rss/"
)

var (
	ErrUnknownFeed = errors.New("unknown feed")
	ErrInvalidFeed = errors.New("invalid feed definition")
)

var builtin = []model.FeedConfig{
	{ID: "serie1", Query: "?q=s%C3%A9rie:1", OutputFile: "serie1.json", Title: "DRE Série 1"},
	{ID: "serie2", Query: "?q=s%C3%A9rie:2", OutputFile: "serie2.json", Title: "DRE Série 2"},
}

type Registry struct {
	feeds map[string]model.FeedConfig
}

// New returns the built-in feeds plus extra. An extra entry with a built-in
// ID replaces it.
func New(extra ...model.FeedConfig) (*Registry, error) {
	feeds := make(map[string]model.FeedConfig, len(builtin)+len(extra))
	for _, f := range builtin {
		feeds[f.ID] = f
	}
	for _, f := range extra {
		f.ID = strings.TrimSpace(f.ID)
		if err := validate(f); err != nil {
			return nil, err
		}
		feeds[f.ID] = f
	}

	owners := make(map[string]string, len(feeds))
	for _, id := range sortedKeys(feeds) {
		out := feeds[id].OutputFile
		if other, ok := owners[out]; ok {
			return nil, fmt.Errorf("%w: feeds %q and %q share output file %q", ErrInvalidFeed, other, id, out)
		}
		owners[out] = id
	}
	return &Registry{feeds: feeds}, nil
}

func validate(f model.FeedConfig) error {
	var missing []string
	if f.ID == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(f.Query) == "" {
		missing = append(missing, "query")
	}
	if strings.TrimSpace(f.OutputFile) == "" {
		missing = append(missing, "output_file")
	}
	if strings.TrimSpace(f.Title) == "" {
		missing = append(missing, "title")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: feed %q has empty %s", ErrInvalidFeed, f.ID, strings.Join(missing, ", "))
	}
	return nil
}

// Default is the registry without any configured additions.
func Default() *Registry {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Lookup(id string) (model.FeedConfig, error) {
	if strings.TrimSpace(id) == "" {
		id = DefaultFeedID
	}
	f, ok := r.feeds[id]
	if !ok {
		return model.FeedConfig{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownFeed, id, strings.Join(r.IDs(), ", "))
	}
	return f, nil
}

func (r *Registry) IDs() []string {
	return sortedKeys(r.feeds)
}

func (r *Registry) Feeds() []model.FeedConfig {
	return lo.Map(r.IDs(), func(id string, _ int) model.FeedConfig { return r.feeds[id] })
}

func sortedKeys(m map[string]model.FeedConfig) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
