package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/tincture/internal/codec"
	"github.com/jmylchreest/tincture/internal/compression"
	"github.com/jmylchreest/tincture/internal/palette"
	"github.com/jmylchreest/tincture/internal/preview"
)

// paletteFlags builds a palette state from a file plus command-line edits.
type paletteFlags struct {
	from        string
	main        string
	accent      string
	text        string
	lighten     float64
	saturate    float64
	minContrast float64
	sync        bool
	format      string
}

func (f *paletteFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.from, "palette", "p", "", "Start from a palette JSON file (.json, .gz, .xz, .bz2; - for stdin)")
	fs.StringVar(&f.main, "main", "", "Main colour as #RRGGBB")
	fs.StringVar(&f.accent, "accent", "", "Accent colour as #RRGGBB")
	fs.StringVar(&f.text, "text", "", "Text colour as #RRGGBB")
	fs.Float64Var(&f.lighten, "lighten", palette.DefaultLightnessDeltaPct, "Accent lightness delta in percent (-40 to 60)")
	fs.Float64Var(&f.saturate, "saturate", palette.DefaultSaturationDeltaPct, "Accent saturation delta in percent (-50 to 50)")
	fs.Float64Var(&f.minContrast, "min-contrast", palette.DefaultMinContrast, "Minimum Text vs Main contrast (3 to 14)")
	fs.BoolVar(&f.sync, "sync", true, "Derive Accent and Text from Main")
	fs.StringVarP(&f.format, "format", "f", "json", "Output format (json, css, text)")
}

// build applies the flags in order: file, parameters, then explicit colours.
func (f *paletteFlags) build(cmd *cobra.Command) (*palette.State, error) {
	st := palette.New()

	if f.from != "" {
		data, err := readDocument(cmd, f.from)
		if err != nil {
			return nil, err
		}
		p, err := codec.Decode(data, st.Palette())
		if err != nil {
			return nil, fmt.Errorf("failed to read palette %s: %w", f.from, err)
		}
		st.Replace(p)
	}

	var u palette.ParamsUpdate
	flags := cmd.Flags()
	if flags.Changed("lighten") {
		u.LightnessDeltaPct = palette.Float(f.lighten)
	}
	if flags.Changed("saturate") {
		u.SaturationDeltaPct = palette.Float(f.saturate)
	}
	if flags.Changed("min-contrast") {
		u.MinContrast = palette.Float(f.minContrast)
	}
	if flags.Changed("sync") {
		u.SyncEnabled = palette.Bool(f.sync)
	}
	st.SetParams(u)

	for _, edit := range []struct {
		target palette.Target
		hex    string
	}{
		{palette.TargetMain, f.main},
		{palette.TargetAccent, f.accent},
		{palette.TargetText, f.text},
	} {
		if edit.hex == "" {
			continue
		}
		if !st.SetHex(edit.target, edit.hex) {
			return nil, fmt.Errorf("invalid hex colour for %s: %q", edit.target, edit.hex)
		}
	}
	return st, nil
}

// readDocument reads a palette document from a file or, for "-", stdin.
func readDocument(cmd *cobra.Command, path string) ([]byte, error) {
	if path != "-" {
		return compression.ReadFile(path)
	}
	r, err := compression.NewReader(path, cmd.InOrStdin(), 0)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, nil
}

// writePalette prints the state in the requested format.
func writePalette(cmd *cobra.Command, st *palette.State, format, title string) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		data, err := codec.Encode(st.Palette())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	case "css":
		fmt.Fprint(out, preview.NewTheme(st.Palette()).CSS())
	case "text":
		fmt.Fprint(out, preview.Swatches(nil, st.Snapshot()))
	case "preview":
		width := preview.TerminalWidth(stdoutFile(cmd), preview.DefaultWidth, 80)
		fmt.Fprint(out, preview.Render(st.Snapshot(), preview.Options{Title: title, Width: width}))
	default:
		return fmt.Errorf("unknown format %q (valid: json, css, text, preview)", format)
	}
	return nil
}

// savePalette writes the palette JSON to path, compressed by extension.
func savePalette(st *palette.State, path string) error {
	data, err := codec.Encode(st.Palette())
	if err != nil {
		return err
	}
	return compression.WriteFile(path, append(data, '\n'))
}

func newDeriveCmd(opts *globalOptions) *cobra.Command {
	var (
		flags paletteFlags
		save  string
	)

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Build a palette and derive Accent and Text from Main",
		Long: `Build a palette from the defaults or a saved file, apply edits, and print it.

With sync on (the default), Accent is Main shifted by the saturation and
lightness deltas and Text copies Main. With --sync=false colours are kept
as given and the Text vs Main contrast is reported against --min-contrast.

Examples:
  tincture derive --main '#E63946'
  tincture derive --main '#1D3557' --lighten 30 --saturate -20 --format css
  tincture derive -p saved.json.xz --sync=false --text '#FFFFFF' --format text`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.logger(cmd).Named("derive")

			st, err := flags.build(cmd)
			if err != nil {
				return err
			}
			logger.Debug("derived palette",
				"main", st.Palette().Main.Hex(),
				"accent", st.Palette().Accent.Hex(),
				"text", st.Palette().Text.Hex())

			if save != "" {
				if err := savePalette(st, save); err != nil {
					return err
				}
				logger.Info("palette saved", "path", save)
			}
			return writePalette(cmd, st, flags.format, opts.cfg.Title)
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVarP(&save, "save", "s", "", "Also save the palette JSON to a file")
	return cmd
}

func newImportCmd(opts *globalOptions) *cobra.Command {
	var (
		format string
		sync   bool
	)

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Read palette JSON and print it normalised",
		Long: `Read a palette document (optionally compressed) and print it.

Missing or malformed fields keep the default palette's values. With --sync
the imported Main immediately re-derives Accent and Text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.logger(cmd).Named("import")

			data, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}

			st := palette.New()
			st.SetParams(palette.ParamsUpdate{SyncEnabled: palette.Bool(sync)})
			p, err := codec.Decode(data, st.Palette())
			if err != nil {
				return fmt.Errorf("failed to import %s: %w", args[0], err)
			}
			st.Replace(p)
			logger.Debug("imported palette", "source", args[0], "sync", sync)

			return writePalette(cmd, st, format, opts.cfg.Title)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (json, css, text, preview)")
	cmd.Flags().BoolVar(&sync, "sync", false, "Re-derive Accent and Text from the imported Main")
	return cmd
}

func newPreviewCmd(opts *globalOptions) *cobra.Command {
	var flags paletteFlags

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the palette on the mock dex screen",
		Long: `Render the palette on a terminal mock UI, followed by the swatch table and
the theme variables. Accepts the same palette flags as derive.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := flags.build(cmd)
			if err != nil {
				return err
			}
			opts.logger(cmd).Named("preview").Debug("rendering preview", "title", opts.cfg.Title)
			return writePalette(cmd, st, "preview", opts.cfg.Title)
		},
	}

	flags.register(cmd.Flags())
	_ = cmd.Flags().MarkHidden("format")
	return cmd
}

// stdoutFile returns the command's output when it is a file, for terminal
// size detection.
func stdoutFile(cmd *cobra.Command) *os.File {
	if f, ok := cmd.OutOrStdout().(*os.File); ok {
		return f
	}
	return nil
}
