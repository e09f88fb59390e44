package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/odysseus0/rssfeeder/internal/model"
)

type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputWide  OutputFormat = "wide"
	OutputOPML  OutputFormat = "opml"
)

func parseOutputFormat(raw string) (OutputFormat, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch OutputFormat(s) {
	case OutputTable, OutputJSON, OutputWide, OutputOPML:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("%w: invalid output format %q (expected table|json|wide|opml)", errUsage, raw)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// feedRow is one line of `rssfeeder feeds`.
type feedRow struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	OutputFile string `json:"output_file"`
	Default    bool   `json:"default"`
}

func writeFeedsTable(out io.Writer, rows []feedRow, wide bool) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if wide {
		fmt.Fprintln(tw, "ID\tTITLE\tOUTPUT\tDEFAULT\tURL")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n",
				r.ID,
				fallback(r.Title, "-"),
				r.OutputFile,
				r.Default,
				r.URL,
			)
		}
	} else {
		fmt.Fprintln(tw, "ID\tTITLE\tOUTPUT\tURL")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				r.ID,
				compactText(fallback(r.Title, "-"), 30),
				r.OutputFile,
				compactText(r.URL, 56),
			)
		}
	}
	_ = tw.Flush()
}

func feedRows(feeds []model.FeedConfig, baseURL, defaultID string) []feedRow {
	rows := make([]feedRow, 0, len(feeds))
	for _, f := range feeds {
		rows = append(rows, feedRow{
			ID:         f.ID,
			Title:      f.Title,
			URL:        f.URL(baseURL),
			OutputFile: f.OutputFile,
			Default:    f.ID == defaultID,
		})
	}
	return rows
}
