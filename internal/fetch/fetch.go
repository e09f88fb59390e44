package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/odysseus0/rssfeeder/internal/config"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 16 << 20

var (
	ErrRetriesExhausted = errors.New("retries exhausted")
	ErrRequest          = errors.New("request failed")
)

// StatusError reports a response whose status was not 200 OK.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

// AgentPicker returns the User-Agent for one attempt.
type AgentPicker func() string

func RandomAgent(pool []string) AgentPicker {
	if len(pool) == 0 {
		pool = config.DefaultUserAgents
	}
	return func() string { return lo.Sample(pool) }
}

func FixedAgent(agent string) AgentPicker {
	return func() string { return agent }
}

type Result struct {
	Body     []byte
	Status   int
	Attempts int
}

type Fetcher struct {
	client *http.Client
	agents AgentPicker
	policy RetryPolicy
	log    logrus.FieldLogger
}

type Option func(*Fetcher)

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

func WithAgentPicker(p AgentPicker) Option {
	return func(f *Fetcher) { f.agents = p }
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(f *Fetcher) { f.policy = p }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(f *Fetcher) { f.log = l }
}

func NewFetcher(cfg config.Config, opts ...Option) *Fetcher {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.HTTPTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2: true,
		MaxIdleConns:      2,
		IdleConnTimeout:   30 * time.Second,
	}

	f := &Fetcher{
		client: &http.Client{
			Timeout:   cfg.HTTPTimeout,
			Transport: transport,
		},
		agents: RandomAgent(cfg.UserAgents),
		policy: PolicyFromConfig(cfg.Retry),
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch GETs rawURL, retrying only timeout-class failures. Attempts is set
// on the result even when an error is returned.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Result, error) {
	var res Result
	op := func() error {
		res.Attempts++
		agent := f.agents()
		log := f.log.WithFields(logrus.Fields{
			"url":     rawURL,
			"attempt": res.Attempts,
		})
		log.WithField("user_agent", agent).Debug("fetching feed")

		body, status, err := f.get(ctx, rawURL, agent)
		if err == nil {
			res.Body = body
			res.Status = status
			return nil
		}
		if IsTimeout(err) {
			log.WithError(err).Warn("fetch timed out")
			return err
		}
		log.WithError(err).Error("fetch failed")
		return backoff.Permanent(err)
	}

	err := backoff.Retry(op, f.policy.backOff(ctx))
	switch {
	case err == nil:
		return res, nil
	case ctx.Err() != nil:
		return res, fmt.Errorf("fetch %s: gave up after %d attempts: %w", rawURL, res.Attempts, ctx.Err())
	case IsTimeout(err):
		return res, fmt.Errorf("fetch %s: %w after %d attempts: %w", rawURL, ErrRetriesExhausted, res.Attempts, err)
	default:
		return res, fmt.Errorf("fetch %s (attempt %d): %w", rawURL, res.Attempts, err)
	}
}

func (f *Fetcher) get(ctx context.Context, rawURL, agent string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	req.Header.Set("User-Agent", agent)
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, resp.StatusCode, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, classify(err)
	}
	return body, resp.StatusCode, nil
}

func classify(err error) error {
	if IsTimeout(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRequest, err)
}

// IsTimeout reports whether err is a timeout-class failure: the only kind the
// fetcher retries.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
