package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tincture/internal/session"
)

func newSessionCmd(opts *globalOptions) *cobra.Command {
	var script string

	cmd := &cobra.Command{
		Use:   "session [image]",
		Short: "Start an interactive palette editing session",
		Long: `Start a line-oriented editor that keeps the palette and reference image in
memory. Type "help" for instructions or "help commands" for a command list.

Commands are read from stdin, or from --script. With --watch the reference
image is reloaded whenever it changes on disk.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.logger(cmd)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := session.New(session.Options{
				Config: opts.cfg,
				Logger: logger.Named("session"),
				Out:    cmd.OutOrStdout(),
			})
			if err != nil {
				return err
			}
			defer s.Close()

			if len(args) == 1 {
				s.LoadImage(ctx, args[0])
				if err := s.WaitForLoad(ctx); err != nil {
					return err
				}
			}

			in := cmd.InOrStdin()
			if script != "" {
				f, err := os.Open(script) // #nosec G304 - User-specified script path
				if err != nil {
					return fmt.Errorf("failed to open script: %w", err)
				}
				defer f.Close()
				in = f
			}

			if err := s.Run(ctx, in); err != nil && ctx.Err() == nil {
				return err
			}
			if ctx.Err() == context.Canceled {
				logger.Debug("session interrupted")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&script, "script", "", "Read commands from a file instead of stdin")
	return cmd
}
