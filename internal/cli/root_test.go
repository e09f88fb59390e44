package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/odysseus0/rssfeeder/internal/config"
	"github.com/odysseus0/rssfeeder/internal/model"
	"github.com/odysseus0/rssfeeder/internal/output"
)

const feedXML = `<?xml version="1.0"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/"><channel>
<title>Test Feed</title><description>desc</description>
<item>
  <guid>item-1</guid>
  <title>Entry One</title>
  <description>hello world</description>
  <dc:creator>Someone</dc:creator>
  <pubDate>Mon, 01 Jan 2024 00:00:00 GMT</pubDate>
</item>
</channel></rss>`

func testConfig(baseURL string) config.Config {
	cfg := config.Default()
	cfg.BaseURL = baseURL
	cfg.HTTPTimeout = 5 * time.Second
	cfg.Retry.InitialInterval = 0
	cfg.LogLevel = "error"
	return cfg
}

func runRoot(t *testing.T, cfg config.Config, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd(cfg)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand_WritesFeedToOutputDir(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		_, _ = w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := testConfig(srv.URL + "/dre/rss/")
	cfg.OutputDir = filepath.Join(t.TempDir(), "unused")

	stdout, stderr, err := runRoot(t, cfg, "--output-dir", dir, "serie2")
	if err != nil {
		t.Fatalf("root.Execute: %v (stderr: %s)", err, stderr)
	}
	if gotPath != "/dre/rss/?q=s%C3%A9rie:2" {
		t.Fatalf("request path = %q", gotPath)
	}

	doc, err := output.ReadDocument(filepath.Join(dir, "serie2.json"))
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	want := model.NormalizedItem{
		ID:          "item-1",
		Title:       "Entry One",
		Description: "hello world",
		Creator:     "Someone",
		PubDate:     "2024-01-12T00-00-00.000",
	}
	if doc.Title != "DRE Série 2" || doc.Description != "desc" || len(doc.Items) != 1 || doc.Items[0] != want {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if _, err := os.Stat(cfg.OutputDir); !os.IsNotExist(err) {
		t.Fatalf("expected configured output dir to be unused, stat err: %v", err)
	}
	if !strings.Contains(stdout, `"title": "Test Feed"`) {
		t.Fatalf("stdout missing channel dump: %s", stdout)
	}
}

func TestRootCommand_UnknownFeedIsConfigError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, _, err := runRoot(t, testConfig(srv.URL+"/"), "--output-dir", t.TempDir(), "serie9")
	if code := ErrorExitCode(err); code != exitConfig {
		t.Fatalf("exit code = %d, want %d (err: %v)", code, exitConfig, err)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no requests, got %d", calls.Load())
	}
}

func TestRootCommand_TooManyArgsIsUsageError(t *testing.T) {
	_, _, err := runRoot(t, testConfig("http://feeds.invalid/"), "serie1", "serie2")
	if code := ErrorExitCode(err); code != exitConfig {
		t.Fatalf("exit code = %d, want %d (err: %v)", code, exitConfig, err)
	}
}

func TestRootCommand_UnknownFlagIsUsageError(t *testing.T) {
	_, _, err := runRoot(t, testConfig("http://feeds.invalid/"), "--bogus")
	if code := ErrorExitCode(err); code != exitConfig {
		t.Fatalf("exit code = %d, want %d (err: %v)", code, exitConfig, err)
	}
}

func TestRootCommand_HTTPStatusExitCode(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	dir := t.TempDir()
	_, _, err := runRoot(t, testConfig(srv.URL+"/"), "--output-dir", dir)
	if code := ErrorExitCode(err); code != exitHTTPStatus {
		t.Fatalf("exit code = %d, want %d (err: %v)", code, exitHTTPStatus, err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 request, got %d", calls.Load())
	}
	if _, err := os.Stat(filepath.Join(dir, "serie1.json")); !os.IsNotExist(err) {
		t.Fatalf("expected no output file, stat err: %v", err)
	}
}

func TestRootCommand_MaxAttemptsFlagBoundsTimeouts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL + "/")
	cfg.HTTPTimeout = 50 * time.Millisecond
	_, _, err := runRoot(t, cfg, "--output-dir", t.TempDir(), "--max-attempts", "2")
	if code := ErrorExitCode(err); code != exitRetries {
		t.Fatalf("exit code = %d, want %d (err: %v)", code, exitRetries, err)
	}
	if !strings.Contains(err.Error(), "after 2 attempts") {
		t.Fatalf("error should carry the attempt count: %v", err)
	}
}

func TestRootCommand_MetricsFileWritten(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL + "/")
	cfg.MetricsFile = filepath.Join(t.TempDir(), "rssfeeder.prom")
	if _, stderr, err := runRoot(t, cfg, "--output-dir", t.TempDir()); err != nil {
		t.Fatalf("root.Execute: %v (stderr: %s)", err, stderr)
	}

	data, err := os.ReadFile(cfg.MetricsFile)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(data), `rssfeeder_items{feed="serie1"} 1`) {
		t.Fatalf("unexpected metrics:\n%s", data)
	}
}

func TestFeedsCommand_JSON(t *testing.T) {
	cfg := testConfig("https://example.test/rss/")
	cfg.Feeds = []model.FeedConfig{{ID: "serie3", Query: "?q=3", OutputFile: "serie3.json", Title: "Three"}}

	stdout, _, err := runRoot(t, cfg, "feeds", "-o", "json")
	if err != nil {
		t.Fatalf("feeds: %v", err)
	}

	var rows []feedRow
	if err := json.Unmarshal([]byte(stdout), &rows); err != nil {
		t.Fatalf("decode feeds output: %v\n%s", err, stdout)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 feeds, got %d", len(rows))
	}
	if rows[0].ID != "serie1" || !rows[0].Default {
		t.Fatalf("expected serie1 first and default: %+v", rows[0])
	}
	if rows[2].URL != "https://example.test/rss/?q=3" {
		t.Fatalf("unexpected url: %q", rows[2].URL)
	}
}

func TestFeedsCommand_Table(t *testing.T) {
	stdout, _, err := runRoot(t, testConfig("https://example.test/rss/"), "feeds")
	if err != nil {
		t.Fatalf("feeds: %v", err)
	}
	if !strings.HasPrefix(stdout, "ID") || !strings.Contains(stdout, "serie2.json") {
		t.Fatalf("unexpected table:\n%s", stdout)
	}
}

func TestFeedsCommand_InvalidOutputFormat(t *testing.T) {
	_, _, err := runRoot(t, testConfig("https://example.test/rss/"), "feeds", "-o", "yaml")
	if code := ErrorExitCode(err); code != exitConfig {
		t.Fatalf("exit code = %d, want %d (err: %v)", code, exitConfig, err)
	}
}

func TestFeedsCommand_OPML(t *testing.T) {
	stdout, _, err := runRoot(t, testConfig("https://example.test/rss/"), "feeds", "-o", "opml")
	if err != nil {
		t.Fatalf("feeds: %v", err)
	}
	if !strings.Contains(stdout, `xmlUrl="https://example.test/rss/?q=s%C3%A9rie:2"`) {
		t.Fatalf("unexpected opml:\n%s", stdout)
	}
}
