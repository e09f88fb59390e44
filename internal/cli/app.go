package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/odysseus0/rssfeeder/internal/config"
	"github.com/odysseus0/rssfeeder/internal/fetch"
	"github.com/odysseus0/rssfeeder/internal/job"
	"github.com/odysseus0/rssfeeder/internal/metrics"
	"github.com/odysseus0/rssfeeder/internal/normalize"
	"github.com/odysseus0/rssfeeder/internal/registry"
	"github.com/sirupsen/logrus"
)

type App struct {
	cfg      config.Config
	log      *logrus.Logger
	registry *registry.Registry
	metrics  *metrics.Recorder
	runner   *job.Runner
}

// NewApp builds the pipeline from cfg. The diagnostic dump goes to out and
// logs go to logOut.
func NewApp(cfg config.Config, out, logOut io.Writer) (*App, error) {
	log, err := newLogger(cfg, logOut)
	if err != nil {
		return nil, err
	}
	reg, err := registry.New(cfg.Feeds...)
	if err != nil {
		return nil, err
	}

	var rec *metrics.Recorder
	if cfg.MetricsFile != "" {
		rec = metrics.New()
	}

	runner := &job.Runner{
		Registry:   reg,
		Fetcher:    fetch.NewFetcher(cfg, fetch.WithLogger(log)),
		Normalizer: normalize.New(cfg.DescriptionFormat),
		Out:        out,
		Log:        log,
		Metrics:    rec,
		BaseURL:    cfg.BaseURL,
		OutputDir:  cfg.OutputDir,
	}

	return &App{
		cfg:      cfg,
		log:      log,
		registry: reg,
		metrics:  rec,
		runner:   runner,
	}, nil
}

func (a *App) Run(ctx context.Context, feedID string) (job.Report, error) {
	rep, err := a.runner.Run(ctx, feedID)
	a.flushMetrics()
	return rep, err
}

// flushMetrics logs write failures instead of returning them.
func (a *App) flushMetrics() {
	if a.metrics == nil {
		return
	}
	if err := a.metrics.WriteFile(a.cfg.MetricsFile); err != nil {
		a.log.WithError(err).WithField("path", a.cfg.MetricsFile).Warn("failed to write metrics file")
	}
}

func newLogger(cfg config.Config, out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: log level: %v", config.ErrInvalidConfig, err)
	}

	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(level)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}
