package analyzer

import (
	"time"

	"github.com/anime-shed/image-discovery-go/internal/config"
)

// Options is the read-only configuration shared by every pipeline run.
type Options struct {
	// Transport
	InlineMaxImageBytes int
	GroundingEnabled    bool
	ModelTimeout        time.Duration

	// Transcoding
	MaxImageLongEdge int
	MaxImagePixels   int
	JPEGQuality      int

	// Acquisition
	FetchTimeout time.Duration
}

// DefaultOptions returns default pipeline options
func DefaultOptions() Options {
	return Options{
		InlineMaxImageBytes: 15_000_000,
		GroundingEnabled:    true,
		ModelTimeout:        60 * time.Second,
		MaxImageLongEdge:    1600,
		MaxImagePixels:      DefaultMaxImagePixels,
		JPEGQuality:         90,
		FetchTimeout:        20 * time.Second,
	}
}

// OptionsFromConfig maps service configuration onto pipeline options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		InlineMaxImageBytes: cfg.Analysis.InlineMaxImageBytes,
		GroundingEnabled:    cfg.Analysis.GroundingEnabled,
		ModelTimeout:        cfg.Gemini.Timeout,
		MaxImageLongEdge:    cfg.Analysis.MaxImageLongEdge,
		MaxImagePixels:      cfg.Analysis.MaxImagePixels,
		JPEGQuality:         cfg.Analysis.JPEGQuality,
		FetchTimeout:        cfg.Analysis.FetchTimeout,
	}
}

// WithInlineThreshold sets the largest payload sent inline
func (opts Options) WithInlineThreshold(bytes int) Options {
	opts.InlineMaxImageBytes = bytes
	return opts
}

// WithTranscoding sets the long-edge bound and JPEG quality
func (opts Options) WithTranscoding(maxLongEdge, quality int) Options {
	opts.MaxImageLongEdge = maxLongEdge
	opts.JPEGQuality = quality
	return opts
}

// WithPixelBudget sets the largest decoded image, in pixels
func (opts Options) WithPixelBudget(pixels int) Options {
	opts.MaxImagePixels = pixels
	return opts
}

// WithoutGrounding disables grounded search and enables the response schema
func (opts Options) WithoutGrounding() Options {
	opts.GroundingEnabled = false
	return opts
}

// WithTimeouts sets the fetch and model call timeouts. Zero leaves a value unchanged.
func (opts Options) WithTimeouts(fetch, model time.Duration) Options {
	if fetch > 0 {
		opts.FetchTimeout = fetch
	}
	if model > 0 {
		opts.ModelTimeout = model
	}
	return opts
}
