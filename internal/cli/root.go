// Package cli provides the command-line interface for tincture.
package cli

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/tincture/internal/config"
	"github.com/jmylchreest/tincture/internal/version"
)

// globalOptions are shared by every subcommand.
type globalOptions struct {
	verbose bool
	quiet   bool
	cfg     config.Config
	envErr  error
}

// logger builds the command's logger on stderr so stdout stays parseable.
func (o *globalOptions) logger(cmd *cobra.Command) hclog.Logger {
	level := hclog.Info
	switch {
	case o.verbose:
		level = hclog.Debug
	case o.quiet:
		level = hclog.Error
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "tincture",
		Output: cmd.ErrOrStderr(),
		Level:  level,
	})
}

// NewRootCmd builds the command tree. Each call returns independent commands
// and flag state.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{cfg: config.Default()}
	opts.envErr = opts.cfg.ApplyEnv(nil)

	rootCmd := &cobra.Command{
		Use:   "tincture",
		Short: "A palette designer with eyedropper sampling",
		Long: `tincture designs three-colour palettes (Main, Accent, Text).

Accent and Text are derived from Main through HSL shifts while sync is on.
Colours can be eyedropped from a reference image with pan and zoom, previewed
on a mock UI, and exported as JSON.`,
		Version:      version.Short(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.envErr != nil {
				return fmt.Errorf("invalid environment configuration: %w", opts.envErr)
			}
			if err := opts.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress non-error output")
	opts.cfg.BindFlags(rootCmd.PersistentFlags())
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(
		newVersionCmd(),
		newDeriveCmd(opts),
		newSampleCmd(opts),
		newRenderCmd(opts),
		newImportCmd(opts),
		newPreviewCmd(opts),
		newSessionCmd(opts),
		newGenerateCmd(opts),
	)
	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
