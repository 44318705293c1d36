// Package session runs the interactive palette editor: a single event loop
// that owns the palette state and the reference image sampler.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/term"

	"github.com/jmylchreest/tincture/internal/clipboard"
	"github.com/jmylchreest/tincture/internal/config"
	"github.com/jmylchreest/tincture/internal/help"
	imgloader "github.com/jmylchreest/tincture/internal/image"
	"github.com/jmylchreest/tincture/internal/palette"
	"github.com/jmylchreest/tincture/internal/sampler"
)

// ErrQuit is returned by Exec for the quit command.
var ErrQuit = errors.New("quit")

// Prompt is printed before each command when input is a terminal.
const Prompt = "tincture> "

// Options configures a Session. Nil collaborators get defaults.
type Options struct {
	Config    config.Config
	Logger    hclog.Logger
	Loader    imgloader.Loader
	Clipboard clipboard.Clipboard
	Help      *help.Loader
	Out       io.Writer
}

type loadResult struct {
	seq  uint64
	path string
	img  image.Image
	err  error
}

// Session is not safe for concurrent use. Exec and the loop in Run must be
// driven from one goroutine; only image decoding happens elsewhere.
type Session struct {
	cfg       config.Config
	logger    hclog.Logger
	state     *palette.State
	sampler   *sampler.Sampler
	loader    imgloader.Loader
	clipboard clipboard.Clipboard
	help      *help.Loader
	out       io.Writer
	title     string

	loadSeq   uint64
	applied   uint64
	imagePath string
	results   chan loadResult
	done      chan struct{}

	watcher  *fsnotify.Watcher
	watchDir string
}

// New creates a session with the default palette and no image.
func New(opts Options) (*Session, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	loader := opts.Loader
	if loader == nil {
		loader = imgloader.NewSmartLoader(fetchOptions(opts.Config))
	}
	clip := opts.Clipboard
	if clip == nil {
		clip = clipboard.New(opts.Config.ClipboardCmd)
	}
	helpLoader := opts.Help
	if helpLoader == nil {
		helpLoader = help.NewLoader(opts.Config.HelpSource, fetchOptions(opts.Config), logger.Named("help"))
	}

	s := &Session{
		cfg:       opts.Config,
		logger:    logger,
		state:     palette.New(),
		sampler:   sampler.New(opts.Config.SamplerConfig()),
		loader:    loader,
		clipboard: clip,
		help:      helpLoader,
		out:       out,
		title:     config.TruncateTitle(opts.Config.Title),
		results:   make(chan loadResult, 8),
		done:      make(chan struct{}),
	}

	s.state.OnChange(func(snap palette.Snapshot) {
		s.logger.Debug("palette changed",
			"main", snap.Palette.Main.Hex(),
			"accent", snap.Palette.Accent.Hex(),
			"text", snap.Palette.Text.Hex(),
			"sync", snap.Params.SyncEnabled)
	})

	return s, nil
}

// State returns the palette state.
func (s *Session) State() *palette.State { return s.state }

// Sampler returns the reference image sampler.
func (s *Session) Sampler() *sampler.Sampler { return s.sampler }

// Title returns the preview title.
func (s *Session) Title() string { return s.title }

// ImagePath returns the path of the currently displayed image, if any.
func (s *Session) ImagePath() string { return s.imagePath }

// Close stops the file watcher and abandons in-flight decodes.
func (s *Session) Close() error {
	select {
	case <-s.done:
		return nil
	default:
		close(s.done)
	}
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// LoadImage starts decoding path in the background and returns the request's
// sequence number. Only the most recent request is ever displayed.
func (s *Session) LoadImage(ctx context.Context, path string) uint64 {
	s.loadSeq++
	seq := s.loadSeq
	s.logger.Debug("loading image", "path", path, "seq", seq)

	go func() {
		img, err := s.loader.Load(ctx, path)
		select {
		case s.results <- loadResult{seq: seq, path: path, img: img, err: err}:
		case <-s.done:
		}
	}()
	return seq
}

// applyLoad installs a decode result when it belongs to the latest request.
// It reports whether the result was current.
func (s *Session) applyLoad(res loadResult) bool {
	if res.seq != s.loadSeq {
		s.logger.Debug("dropping stale image load", "path", res.path, "seq", res.seq, "latest", s.loadSeq)
		return false
	}
	s.applied = res.seq
	if res.err != nil {
		s.logger.Error("failed to load image", "path", res.path, "error", res.err)
		fmt.Fprintf(s.out, "could not load %s: %v\n", res.path, res.err)
		return true
	}
	if err := s.sampler.Load(res.img); err != nil {
		s.logger.Error("failed to load image", "path", res.path, "error", err)
		fmt.Fprintf(s.out, "could not load %s: %v\n", res.path, err)
		return true
	}

	s.imagePath = res.path
	w, h := s.sampler.Size()
	vw, vh := s.sampler.ViewportSize()
	s.logger.Info("image loaded", "path", res.path, "width", w, "height", h)
	fmt.Fprintf(s.out, "loaded %s (%dx%d, viewport %dx%d)\n", filepath.Base(res.path), w, h, vw, vh)

	if s.cfg.Watch && !imgloader.IsURL(res.path) {
		if err := s.watch(res.path); err != nil {
			s.logger.Warn("failed to watch image", "path", res.path, "error", err)
		}
	}
	return true
}

// loadPending reports whether the latest load request has not been applied.
func (s *Session) loadPending() bool { return s.applied != s.loadSeq }

// WaitForLoad blocks until the latest load request has been applied.
func (s *Session) WaitForLoad(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-s.results:
			if s.applyLoad(res) {
				return nil
			}
		}
	}
}

// Run reads commands from in until EOF, quit, or ctx is cancelled. While an
// image load is pending no further commands are taken, so a command that
// follows load sees the new image. Call Close after Run to release a reader
// still blocked on in.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd())) // #nosec G115 - File descriptors fit in int
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	go s.readLines(ctx, in, lines, readErr)

	prompt := func() {
		if interactive {
			fmt.Fprint(s.out, Prompt)
		}
	}
	prompt()

	for {
		lineCh, errCh := lines, readErr
		if s.loadPending() {
			lineCh, errCh = nil, nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("failed to read commands: %w", err)
			}
			return nil

		case line := <-lineCh:
			if err := s.Exec(ctx, line); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				fmt.Fprintf(s.out, "error: %v\n", err)
			}
			prompt()

		case res := <-s.results:
			s.applyLoad(res)

		case ev, ok := <-s.watchEvents():
			if ok {
				s.handleWatchEvent(ctx, ev)
			}

		case err, ok := <-s.watchErrors():
			if ok {
				s.logger.Warn("file watcher error", "error", err)
			}
		}
	}
}

// readLines feeds lines from in to the loop. It returns once the session is
// closed or ctx is cancelled, and reports the scanner error on EOF.
func (s *Session) readLines(ctx context.Context, in io.Reader, lines chan<- string, readErr chan<- error) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
	readErr <- scanner.Err()
}
