// Package generate creates reference images from text prompts with Google's
// Gen AI image models and caches them on disk.
package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"google.golang.org/genai"

	"github.com/jmylchreest/tincture/internal/util/imagecache"
)

const (
	// DefaultModel is used when Options.Model is empty.
	DefaultModel = "imagen-4.0-generate-001"

	// DefaultAspectRatio suits the default 640x420 viewport.
	DefaultAspectRatio = "4:3"

	// BackendGeminiAPI authenticates with GOOGLE_API_KEY.
	BackendGeminiAPI = "gemini-api"
	// BackendVertexAI uses application default credentials.
	BackendVertexAI = "vertex-ai"

	// referenceHint steers generations towards images with clear, sampleable
	// colour regions.
	referenceHint = ", flat colour regions, clean lighting, no text, no borders"
)

// ErrMissingAPIKey is returned when the Gemini API backend has no key.
var ErrMissingAPIKey = errors.New("GOOGLE_API_KEY environment variable is required")

// Options describes one generation request.
type Options struct {
	Prompt      string
	Model       string
	AspectRatio string
	Backend     string
	// Literal sends the prompt without the reference-image hint.
	Literal bool
	Cache   imagecache.CacheOptions
}

// Backend produces encoded image bytes for a prompt.
type Backend interface {
	GenerateImage(ctx context.Context, model, prompt, aspectRatio string) ([]byte, error)
}

// Generator runs generations through a lazily created backend.
type Generator struct {
	logger     hclog.Logger
	getenv     func(string) string
	newBackend func(ctx context.Context, backend, apiKey string) (Backend, error)
}

// New creates a generator that talks to the Gen AI service.
func New(logger hclog.Logger) *Generator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Generator{
		logger:     logger,
		getenv:     os.Getenv,
		newBackend: newGenAIBackend,
	}
}

// NewWithBackend creates a generator that uses b for every request.
func NewWithBackend(logger hclog.Logger, b Backend) *Generator {
	g := New(logger)
	g.newBackend = func(context.Context, string, string) (Backend, error) { return b, nil }
	return g
}

func (o Options) withDefaults() Options {
	if o.Model == "" {
		o.Model = DefaultModel
	}
	if o.AspectRatio == "" {
		o.AspectRatio = DefaultAspectRatio
	}
	if o.Backend == "" {
		o.Backend = BackendGeminiAPI
	}
	return o
}

// prompt returns the text sent to the model.
func (o Options) prompt() string {
	if o.Literal {
		return o.Prompt
	}
	return o.Prompt + referenceHint
}

// Generate returns the path of a PNG for opts, generating it on a cache miss.
func (g *Generator) Generate(ctx context.Context, opts Options) (string, error) {
	opts = opts.withDefaults()
	if strings.TrimSpace(opts.Prompt) == "" {
		return "", fmt.Errorf("prompt is required")
	}
	if opts.Backend != BackendGeminiAPI && opts.Backend != BackendVertexAI {
		return "", fmt.Errorf("unknown backend %q (use %s or %s)", opts.Backend, BackendGeminiAPI, BackendVertexAI)
	}

	prompt := opts.prompt()
	filename := fmt.Sprintf("genai-%s.png", imagecache.Key(opts.Model, opts.AspectRatio, prompt))

	path, cached, err := imagecache.GetOrCreate(ctx, filename, opts.Cache, func(ctx context.Context) ([]byte, error) {
		apiKey := ""
		if opts.Backend == BackendGeminiAPI {
			apiKey = g.getenv("GOOGLE_API_KEY")
			if apiKey == "" {
				return nil, fmt.Errorf("%w\nGet one at: https://aistudio.google.com/api-keys", ErrMissingAPIKey)
			}
		}

		backend, err := g.newBackend(ctx, opts.Backend, apiKey)
		if err != nil {
			return nil, err
		}

		g.logger.Info("generating reference image", "model", opts.Model, "aspect", opts.AspectRatio)
		g.logger.Debug("generation prompt", "prompt", prompt)
		return backend.GenerateImage(ctx, opts.Model, prompt, opts.AspectRatio)
	})
	if err != nil {
		return "", err
	}

	if cached {
		g.logger.Debug("using cached reference image", "path", path)
	}
	return path, nil
}

type genAIBackend struct {
	client *genai.Client
}

func newGenAIBackend(ctx context.Context, backend, apiKey string) (Backend, error) {
	cfg := &genai.ClientConfig{Backend: genai.BackendGeminiAPI, APIKey: apiKey}
	if backend == BackendVertexAI {
		cfg = &genai.ClientConfig{Backend: genai.BackendVertexAI}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gen AI client: %w", err)
	}
	return &genAIBackend{client: client}, nil
}

// isGeminiModel reports whether model generates through GenerateContent
// rather than the Imagen GenerateImages endpoint.
func isGeminiModel(model string) bool {
	return strings.HasPrefix(model, "gemini-")
}

func (b *genAIBackend) GenerateImage(ctx context.Context, model, prompt, aspectRatio string) ([]byte, error) {
	if isGeminiModel(model) {
		return b.generateWithGemini(ctx, model, prompt, aspectRatio)
	}
	return b.generateWithImagen(ctx, model, prompt, aspectRatio)
}

func (b *genAIBackend) generateWithImagen(ctx context.Context, model, prompt, aspectRatio string) ([]byte, error) {
	resp, err := b.client.Models.GenerateImages(ctx, model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    aspectRatio,
		OutputMIMEType: "image/png",
	})
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.GeneratedImages) == 0 {
		return nil, fmt.Errorf("no images generated in response")
	}

	img := resp.GeneratedImages[0]
	if img.RAIFilteredReason != "" {
		return nil, fmt.Errorf("image was filtered by safety system: %s", img.RAIFilteredReason)
	}
	if img.Image == nil || len(img.Image.ImageBytes) == 0 {
		return nil, fmt.Errorf("generated image has no image data")
	}
	return img.Image.ImageBytes, nil
}

func (b *genAIBackend) generateWithGemini(ctx context.Context, model, prompt, aspectRatio string) ([]byte, error) {
	text := fmt.Sprintf("Generate an image with aspect ratio %s: %s", aspectRatio, prompt)
	resp, err := b.client.Models.GenerateContent(ctx, model, genai.Text(text), &genai.GenerateContentConfig{
		ResponseModalities: []string{"Image"},
	})
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no image data in response")
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, nil
		}
	}
	return nil, fmt.Errorf("no inline image data found in response")
}
