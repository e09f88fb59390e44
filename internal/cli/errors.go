package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/odysseus0/rssfeeder/internal/config"
	"github.com/odysseus0/rssfeeder/internal/fetch"
	"github.com/odysseus0/rssfeeder/internal/output"
	"github.com/odysseus0/rssfeeder/internal/registry"
	"github.com/odysseus0/rssfeeder/internal/rss"
)

const (
	exitInternal    = 1
	exitConfig      = 2
	exitRetries     = 3
	exitHTTPStatus  = 4
	exitRequest     = 5
	exitMalformed   = 6
	exitPersistence = 7
)

// errUsage marks cobra argument and flag errors.
var errUsage = errors.New("usage")

type errorKind struct {
	name string
	code int
}

func classifyError(err error) errorKind {
	var statusErr *fetch.StatusError
	switch {
	case errors.Is(err, registry.ErrUnknownFeed),
		errors.Is(err, registry.ErrInvalidFeed),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, errUsage):
		return errorKind{"config", exitConfig}
	case errors.Is(err, fetch.ErrRetriesExhausted):
		return errorKind{"retries-exhausted", exitRetries}
	case errors.As(err, &statusErr):
		return errorKind{"http-status", exitHTTPStatus}
	case errors.Is(err, fetch.ErrRequest):
		return errorKind{"network", exitRequest}
	case errors.Is(err, rss.ErrMalformedFeed):
		return errorKind{"malformed-feed", exitMalformed}
	case errors.Is(err, output.ErrPersistence):
		return errorKind{"persistence", exitPersistence}
	default:
		return errorKind{"internal", exitInternal}
	}
}

func ErrorExitCode(err error) int {
	if err == nil {
		return 0
	}
	return classifyError(err).code
}

func FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error [%s]: %v", classifyError(err).name, err)
}

func PrintError(err error) {
	printError(os.Stderr, err)
}

func printError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, FormatError(err))
}
