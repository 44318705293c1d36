// Package imagecache stores reference images on disk under deterministic
// names so repeated downloads and generations are served locally.
package imagecache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	httputil "github.com/jmylchreest/tincture/internal/util/http"
)

// CacheOptions configures image caching behavior.
type CacheOptions struct {
	// CacheDir is the directory where images will be cached.
	// If empty, defaults to the user cache dir plus tincture/images.
	CacheDir string

	// AllowOverwrite replaces an existing cached file instead of reusing it.
	AllowOverwrite bool

	// Fetch configures downloads made by DownloadAndCache.
	Fetch httputil.FetchOptions
}

// DefaultCacheDir returns the default cache directory path.
func DefaultCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine cache directory: %w", err)
		}
		return filepath.Join(home, ".cache", "tincture", "images"), nil
	}
	return filepath.Join(cacheDir, "tincture", "images"), nil
}

// Key hashes parts into a 32 character hex string. Parts are separated so
// ("ab", "c") and ("a", "bc") differ.
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return fmt.Sprintf("%x", hash[:16])
}

// URLFilename derives a cache filename from a URL, keeping its extension.
func URLFilename(url string) string {
	ext := filepath.Ext(url)
	if idx := strings.IndexByte(ext, '?'); idx != -1 {
		ext = ext[:idx]
	}
	if ext == "" || len(ext) > 5 {
		ext = ".jpg"
	}
	return Key(url) + ext
}

// Producer creates the bytes for a cache miss.
type Producer func(ctx context.Context) ([]byte, error)

// GetOrCreate returns the cached path for filename, calling produce and
// writing its result when the file is missing or overwrite is allowed.
// The second result reports whether the file came from the cache.
func GetOrCreate(ctx context.Context, filename string, opts CacheOptions, produce Producer) (string, bool, error) {
	cacheDir := opts.CacheDir
	if cacheDir == "" {
		defaultDir, err := DefaultCacheDir()
		if err != nil {
			return "", false, err
		}
		cacheDir = defaultDir
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil { // #nosec G301 - Cache directory needs standard permissions
		return "", false, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cachedPath := filepath.Join(cacheDir, filepath.Base(filename))
	if !opts.AllowOverwrite {
		if info, err := os.Stat(cachedPath); err == nil && info.Size() > 0 {
			return cachedPath, true, nil
		}
	}

	data, err := produce(ctx)
	if err != nil {
		return "", false, err
	}
	if len(data) == 0 {
		return "", false, fmt.Errorf("refusing to cache empty image %s", filename)
	}

	// Readers must never see a partially written file.
	tmp, err := os.CreateTemp(cacheDir, ".tmp-*")
	if err != nil {
		return "", false, fmt.Errorf("failed to write cached image: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", false, fmt.Errorf("failed to write cached image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", false, fmt.Errorf("failed to write cached image: %w", err)
	}
	if err := os.Rename(tmpName, cachedPath); err != nil {
		os.Remove(tmpName)
		return "", false, fmt.Errorf("failed to write cached image: %w", err)
	}

	return cachedPath, false, nil
}

// DownloadAndCache downloads a remote image and saves it to the cache directory.
// Returns the local file path where the image was saved.
func DownloadAndCache(ctx context.Context, url string, opts CacheOptions) (string, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", fmt.Errorf("invalid URL: must start with http:// or https://")
	}

	path, _, err := GetOrCreate(ctx, URLFilename(url), opts, func(ctx context.Context) ([]byte, error) {
		data, err := httputil.Fetch(ctx, url, opts.Fetch)
		if err != nil {
			return nil, fmt.Errorf("failed to download image: %w", err)
		}
		return data, nil
	})
	return path, err
}
