// Package geocode resolves coordinates to human-readable places.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// ErrNoResult means the geocoder answered but knows no place at the point.
var ErrNoResult = errors.New("no place found")

// ReverseGeocoder turns a coordinate into a display address.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (string, error)
}

// Config configures a NominatimClient.
type Config struct {
	BaseURL   string
	UserAgent string
	Language  string
	Timeout   time.Duration

	// RequestsPerSecond defaults to 1, the public Nominatim usage limit.
	RequestsPerSecond float64
	// CacheSize is the number of grid cells remembered.
	CacheSize int
	// Backoff is the base delay between retries; attempt n waits n*Backoff.
	Backoff time.Duration
}

const maxAttempts = 3

// cellKey identifies a ~11m grid cell (4 decimal places).
type cellKey struct {
	lat, lon int64
}

func cellOf(lat, lon float64) cellKey {
	return cellKey{lat: int64(math.Round(lat * 1e4)), lon: int64(math.Round(lon * 1e4))}
}

// NominatimClient implements ReverseGeocoder against the Nominatim /reverse API
type NominatimClient struct {
	client    *http.Client
	baseURL   string
	userAgent string
	language  string
	limiter   *rate.Limiter
	cache     *lru.Cache[cellKey, string]
	backoff   time.Duration
}

// NewNominatimClient creates a rate-limited, caching Nominatim client
func NewNominatimClient(cfg Config) (*NominatimClient, error) {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 4096
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	cache, err := lru.New[cellKey, string](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("geocode cache: %w", err)
	}

	transport := &http.Transport{
		MaxIdleConns:           10,
		MaxIdleConnsPerHost:    2,
		IdleConnTimeout:        30 * time.Second,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 4096,
	}

	return &NominatimClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		language:  cfg.Language,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		cache:     cache,
		backoff:   cfg.Backoff,
	}, nil
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Reverse returns the display address of the point. Answers are cached per
// grid cell; misses are not cached.
func (c *NominatimClient) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	key := cellOf(lat, lon)
	if name, ok := c.cache.Get(key); ok {
		return name, nil
	}

	endpoint := c.baseURL + "/reverse?" + url.Values{
		"format":          {"jsonv2"},
		"lat":             {strconv.FormatFloat(lat, 'f', 6, 64)},
		"lon":             {strconv.FormatFloat(lon, 'f', 6, 64)},
		"accept-language": {c.language},
	}.Encode()

	body, err := c.fetch(ctx, endpoint)
	if err != nil {
		return "", err
	}

	var parsed reverseResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode reverse response: %w", err)
	}
	if parsed.Error != "" || parsed.DisplayName == "" {
		return "", ErrNoResult
	}

	c.cache.Add(key, parsed.DisplayName)
	return parsed.DisplayName, nil
}

// fetch retries transport errors and 5xx answers up to maxAttempts times.
// 4xx answers are returned immediately.
func (c *NominatimClient) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, status, err := c.do(ctx, endpoint)
		switch {
		case err != nil:
			lastErr = err
		case status == http.StatusOK:
			return body, nil
		case status >= 400 && status < 500:
			return nil, fmt.Errorf("client error: status code %d", status)
		default:
			lastErr = fmt.Errorf("server error: status code %d", status)
		}
	}

	return nil, fmt.Errorf("reverse geocode failed after %d attempts: %w", maxAttempts, lastErr)
}

func (c *NominatimClient) do(ctx context.Context, endpoint string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
