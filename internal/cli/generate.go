package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tincture/internal/generate"
	"github.com/jmylchreest/tincture/internal/util/imagecache"
)

func newGenerateCmd(opts *globalOptions) *cobra.Command {
	var (
		genOpts  generate.Options
		cacheDir string
		refresh  bool
	)

	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate a reference image from a text prompt",
		Long: `Generate a reference image with Google's Gen AI image models and print its
path. Results are cached by model, aspect ratio and prompt.

The Gemini API backend requires GOOGLE_API_KEY. The Vertex AI backend uses
application default credentials.

Examples:
  tincture generate "autumn forest, warm light"
  tincture session "$(tincture generate 'neon city at night')"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.logger(cmd).Named("generate")

			genOpts.Prompt = strings.Join(args, " ")
			genOpts.Cache = imagecache.CacheOptions{CacheDir: cacheDir, AllowOverwrite: refresh}

			path, err := generate.New(logger).Generate(cmd.Context(), genOpts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&genOpts.Model, "model", "m", generate.DefaultModel, "Image model")
	cmd.Flags().StringVar(&genOpts.AspectRatio, "aspect-ratio", generate.DefaultAspectRatio, "Aspect ratio (1:1, 3:4, 4:3, 9:16, 16:9)")
	cmd.Flags().StringVar(&genOpts.Backend, "backend", generate.BackendGeminiAPI, "Backend (gemini-api, vertex-ai)")
	cmd.Flags().BoolVar(&genOpts.Literal, "literal", false, "Send the prompt without reference-image hints")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Cache directory (default: user cache dir)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Regenerate even when a cached image exists")
	return cmd
}
