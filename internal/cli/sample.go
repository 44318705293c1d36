package cli

import (
	"context"
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/tincture/internal/config"
	"github.com/jmylchreest/tincture/internal/image"
	"github.com/jmylchreest/tincture/internal/palette"
	"github.com/jmylchreest/tincture/internal/sampler"
	httputil "github.com/jmylchreest/tincture/internal/util/http"
)

// viewFlags position the viewport before sampling or rendering. Coordinates
// are CSS pixels and are scaled by the configured device pixel ratio.
type viewFlags struct {
	scale   float64
	anchorX float64
	anchorY float64
	panX    float64
	panY    float64
}

func (v *viewFlags) register(fs *pflag.FlagSet) {
	fs.Float64Var(&v.scale, "zoom", 1, "Zoom factor (clamped to --min-zoom and --max-zoom)")
	fs.Float64Var(&v.anchorX, "anchor-x", 0, "Viewport x the zoom is anchored at")
	fs.Float64Var(&v.anchorY, "anchor-y", 0, "Viewport y the zoom is anchored at")
	fs.Float64Var(&v.panX, "pan-x", 0, "Horizontal pan after zooming")
	fs.Float64Var(&v.panY, "pan-y", 0, "Vertical pan after zooming")
}

func (v *viewFlags) apply(s *sampler.Sampler, dpr float64) {
	if v.scale != 1 {
		s.SetScale(v.anchorX*dpr, v.anchorY*dpr, v.scale)
	}
	if v.panX != 0 || v.panY != 0 {
		s.Pan(v.panX*dpr, v.panY*dpr)
	}
}

// loadSampler decodes path (file or URL) into a new sampler.
func loadSampler(ctx context.Context, cfg config.Config, path string) (*sampler.Sampler, error) {
	if err := image.ValidateImagePath(path); err != nil {
		return nil, err
	}
	loader := image.NewSmartLoader(httputil.FetchOptions{Timeout: cfg.HTTPTimeout})
	img, err := loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	s := sampler.New(cfg.SamplerConfig())
	if err := s.Load(img); err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return s, nil
}

func newSampleCmd(opts *globalOptions) *cobra.Command {
	var (
		flags  paletteFlags
		view   viewFlags
		x, y   float64
		target string
	)

	cmd := &cobra.Command{
		Use:   "sample <image>",
		Short: "Eyedrop a colour from an image into the palette",
		Long: `Load an image into the fitted viewport, apply an optional zoom and pan, and
sample the exact source pixel under the pointer at (--x, --y). The colour
is assigned to --target and the resulting palette is printed.

Examples:
  tincture sample wallpaper.png --x 120 --y 80
  tincture sample photo.jpg --zoom 4 --anchor-x 320 --anchor-y 210 --x 320 --y 210 --target accent
  tincture sample https://example.com/art.webp --x 10 --y 10 --format css`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.logger(cmd).Named("sample")

			t, err := palette.ParseTarget(target)
			if err != nil {
				return err
			}
			st, err := flags.build(cmd)
			if err != nil {
				return err
			}

			s, err := loadSampler(cmd.Context(), opts.cfg, args[0])
			if err != nil {
				return err
			}
			view.apply(s, opts.cfg.DPR)

			ix, iy := s.CSSPointerToImageCoords(x, y, opts.cfg.DPR)
			c, ok := s.SampleAt(ix, iy)
			if !ok {
				w, h := s.Size()
				return fmt.Errorf("pointer (%g, %g) maps to pixel (%d, %d), outside the %dx%d image", x, y, ix, iy, w, h)
			}
			logger.Debug("sampled pixel", "x", ix, "y", iy, "colour", c.String(), "target", t.String())

			st.SetActiveTarget(t)
			st.ApplySample(c)
			return writePalette(cmd, st, flags.format, opts.cfg.Title)
		},
	}

	flags.register(cmd.Flags())
	view.register(cmd.Flags())
	cmd.Flags().Float64Var(&x, "x", 0, "Pointer x in viewport CSS pixels")
	cmd.Flags().Float64Var(&y, "y", 0, "Pointer y in viewport CSS pixels")
	cmd.Flags().StringVarP(&target, "target", "t", "main", "Colour to assign (main, accent, text)")
	return cmd
}

func newRenderCmd(opts *globalOptions) *cobra.Command {
	var (
		view   viewFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "render <image>",
		Short: "Write the zoomed and panned viewport as PNG",
		Long: `Render the viewport exactly as the eyedropper sees it, using nearest-neighbour
scaling so every displayed pixel is a source pixel.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.logger(cmd).Named("render")

			s, err := loadSampler(cmd.Context(), opts.cfg, args[0])
			if err != nil {
				return err
			}
			view.apply(s, opts.cfg.DPR)

			img, err := s.Render()
			if err != nil {
				return err
			}

			f, err := os.Create(output) // #nosec G304 - User-specified output path
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			if err := png.Encode(f, img); err != nil {
				f.Close()
				return fmt.Errorf("failed to encode PNG: %w", err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}

			logger.Info("viewport rendered", "path", output, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
			return nil
		},
	}

	view.register(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "viewport.png", "Output PNG path")
	return cmd
}
