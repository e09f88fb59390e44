package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderValues(t *testing.T) {
	r := New()
	started := time.Unix(1_700_000_000, 0)

	r.Attempts("serie1", 3)
	r.Items("serie1", 25)
	r.Finish("serie1", true, started, started.Add(1500*time.Millisecond))

	assert.Equal(t, 3.0, testutil.ToFloat64(r.attempts.WithLabelValues("serie1")))
	assert.Equal(t, 25.0, testutil.ToFloat64(r.items.WithLabelValues("serie1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.success.WithLabelValues("serie1")))
	assert.Equal(t, 1.5, testutil.ToFloat64(r.runDuration.WithLabelValues("serie1")))
	assert.Equal(t, float64(started.Unix()+1), testutil.ToFloat64(r.lastRun.WithLabelValues("serie1")))
}

func TestRecorderFailure(t *testing.T) {
	r := New()
	now := time.Now()
	r.Failure("serie2", "fetch")
	r.Finish("serie2", false, now, now)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.failures.WithLabelValues("serie2", "fetch")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.success.WithLabelValues("serie2")))
}

func TestRecorderWriteFile(t *testing.T) {
	r := New()
	r.Attempts("serie1", 2)
	r.Items("serie1", 7)

	path := filepath.Join(t.TempDir(), "rssfeeder.prom")
	require.NoError(t, r.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `rssfeeder_fetch_attempts{feed="serie1"} 2`)
	assert.Contains(t, text, `rssfeeder_items{feed="serie1"} 7`)

	n, err := testutil.GatherAndCount(r.Registry(), "rssfeeder_items")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, strings.Contains(text, "go_goroutines"), "process collectors must not be registered")
}
