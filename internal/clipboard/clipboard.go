// Package clipboard copies text to the system clipboard.
package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	sysclip "github.com/atotto/clipboard"
)

// ErrUnavailable is returned when the platform has no usable clipboard.
var ErrUnavailable = errors.New("no clipboard available")

// Clipboard writes text to a clipboard.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// New returns the clipboard used by the session: the override command when
// one is configured, otherwise the system clipboard.
func New(override string) Clipboard {
	if strings.TrimSpace(override) != "" {
		return NewCommand(override)
	}
	return NewSystem()
}

// System writes to the platform clipboard.
type System struct {
	writeAll    func(string) error
	unsupported bool
}

// NewSystem returns the platform clipboard.
func NewSystem() *System {
	return &System{writeAll: sysclip.WriteAll, unsupported: sysclip.Unsupported}
}

// WriteText replaces the clipboard contents with text.
func (s *System) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.unsupported {
		return ErrUnavailable
	}
	if err := s.writeAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// Command pipes text into a user-supplied helper's stdin.
type Command struct {
	// Override is a whitespace-separated command line, e.g. "wl-copy -p".
	Override string

	lookPath func(string) (string, error)
}

// NewCommand returns a clipboard backed by the override command line.
func NewCommand(override string) *Command {
	return &Command{Override: override, lookPath: exec.LookPath}
}

// Resolve returns the argv that WriteText would run.
func (c *Command) Resolve() ([]string, error) {
	lookPath := c.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	fields := strings.Fields(c.Override)
	if len(fields) == 0 {
		return nil, ErrUnavailable
	}
	if _, err := lookPath(fields[0]); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, fields[0], err)
	}
	return fields, nil
}

// WriteText runs the helper with text on stdin.
func (c *Command) WriteText(ctx context.Context, text string) error {
	argv, err := c.Resolve()
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) // #nosec G204 - Helper is chosen by the user
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("clipboard command %s failed: %w: %s", argv[0], err, msg)
		}
		return fmt.Errorf("clipboard command %s failed: %w", argv[0], err)
	}
	return nil
}
