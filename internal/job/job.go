// Package job runs the fetch, parse, normalize and persist pipeline for one
// feed.
package job

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/odysseus0/rssfeeder/internal/fetch"
	"github.com/odysseus0/rssfeeder/internal/metrics"
	"github.com/odysseus0/rssfeeder/internal/normalize"
	"github.com/odysseus0/rssfeeder/internal/output"
	"github.com/odysseus0/rssfeeder/internal/registry"
	"github.com/odysseus0/rssfeeder/internal/rss"
	"github.com/sirupsen/logrus"
)

const (
	stageConfig = "config"
	stageFetch  = "fetch"
	stageParse  = "parse"
	stageWrite  = "write"
	stageDump   = "dump"
)

// Runner wires the pipeline components. Metrics is optional.
type Runner struct {
	Registry   *registry.Registry
	Fetcher    *fetch.Fetcher
	Normalizer *normalize.Normalizer
	Out        io.Writer
	Log        logrus.FieldLogger
	Metrics    *metrics.Recorder
	BaseURL    string
	OutputDir  string

	now func() time.Time
}

// Report summarizes one run. Fields are filled as far as the run got.
type Report struct {
	Feed       string `json:"feed"`
	URL        string `json:"url"`
	Attempts   int    `json:"attempts"`
	Items      int    `json:"items"`
	OutputPath string `json:"output_path"`
}

// Run processes feedID end to end. The output document is written before the
// diagnostic dump is printed to Out. An unknown feedID fails before any
// request is made.
func (r *Runner) Run(ctx context.Context, feedID string) (Report, error) {
	started := r.clock()
	feed, err := r.Registry.Lookup(feedID)
	if err != nil {
		r.record(Report{Feed: feedID}, stageConfig, err, started)
		return Report{Feed: feedID}, err
	}

	rep := Report{
		Feed:       feed.ID,
		URL:        feed.URL(r.BaseURL),
		OutputPath: filepath.Join(r.OutputDir, feed.OutputFile),
	}
	log := r.logger().WithFields(logrus.Fields{"feed": feed.ID, "url": rep.URL})

	stage, err := r.run(ctx, feed.Title, &rep, log)
	r.record(rep, stage, err, started)
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"stage":    stage,
			"attempts": rep.Attempts,
		}).Error("run failed")
		return rep, err
	}

	log.WithFields(logrus.Fields{
		"attempts": rep.Attempts,
		"items":    rep.Items,
		"output":   rep.OutputPath,
	}).Info("feed written")
	return rep, nil
}

func (r *Runner) run(ctx context.Context, title string, rep *Report, log logrus.FieldLogger) (string, error) {
	log.Info("fetching feed")
	res, err := r.Fetcher.Fetch(ctx, rep.URL)
	rep.Attempts = res.Attempts
	if err != nil {
		return stageFetch, err
	}

	ch, err := rss.Parse(res.Body)
	if err != nil {
		return stageParse, fmt.Errorf("parse %s (attempt %d): %w", rep.URL, rep.Attempts, err)
	}
	log.WithField("items", len(ch.Items)).Debug("feed parsed")

	doc := r.Normalizer.Document(title, ch)
	if err := output.WriteDocument(rep.OutputPath, doc); err != nil {
		return stageWrite, fmt.Errorf("write %s (attempt %d): %w", rep.OutputPath, rep.Attempts, err)
	}
	rep.Items = len(doc.Items)

	if r.Out != nil {
		if err := output.WriteTree(r.Out, output.BuildTree(ch.Element)); err != nil {
			return stageDump, fmt.Errorf("print channel (attempt %d): %w", rep.Attempts, err)
		}
	}
	return "", nil
}

func (r *Runner) record(rep Report, stage string, err error, started time.Time) {
	if r.Metrics == nil {
		return
	}
	r.Metrics.Attempts(rep.Feed, rep.Attempts)
	r.Metrics.Items(rep.Feed, rep.Items)
	if err != nil {
		r.Metrics.Failure(rep.Feed, stage)
	}
	r.Metrics.Finish(rep.Feed, err == nil, started, r.clock())
}

func (r *Runner) logger() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}

func (r *Runner) clock() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}
