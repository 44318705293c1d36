// Package help loads the instructions shown by the help command.
package help

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/tincture/internal/image"
	httputil "github.com/jmylchreest/tincture/internal/util/http"
)

//go:embed instructions.txt
var defaultText string

// DefaultText returns the built-in instructions.
func DefaultText() string { return defaultText }

// Status is the loader's lifecycle state.
type Status string

// Loader states.
const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Loader fetches instructions once and caches them. Failed loads are retried
// on the next Open.
type Loader struct {
	source string
	fetch  httputil.FetchOptions
	logger hclog.Logger

	mu     sync.Mutex
	status Status
	text   string
}

// NewLoader creates a loader for source, which may be an HTTP(S) URL, a file
// path, or empty for the built-in text.
func NewLoader(source string, fetch httputil.FetchOptions, logger hclog.Logger) *Loader {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Loader{
		source: source,
		fetch:  fetch,
		logger: logger,
		status: StatusIdle,
	}
}

// Status reports the current state.
func (l *Loader) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Open returns the instructions, loading them if they are not ready yet. On
// failure the returned text is a fixed message and err describes the cause.
func (l *Loader) Open(ctx context.Context) (string, error) {
	l.mu.Lock()
	if l.status == StatusReady {
		text := l.text
		l.mu.Unlock()
		return text, nil
	}
	l.status = StatusLoading
	l.mu.Unlock()

	text, err := l.load(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.logger.Warn("failed to load instructions", "source", l.source, "error", err)
		l.status = StatusError
		l.text = fmt.Sprintf("Could not load instructions from %s.", l.source)
		return l.text, err
	}
	l.status = StatusReady
	l.text = text
	return text, nil
}

func (l *Loader) load(ctx context.Context) (string, error) {
	switch {
	case l.source == "":
		return defaultText, nil
	case image.IsURL(l.source):
		data, err := httputil.Fetch(ctx, l.source, l.fetch)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(l.source) // #nosec G304 - User-specified instructions path, intended to be read
		if err != nil {
			return "", fmt.Errorf("failed to read instructions: %w", err)
		}
		return string(data), nil
	}
}
