// Package vision provides an OCR engine backed by the Google Cloud Vision API.
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/vision/v1"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure Engine implements the interface.
var _ driven.OCREngine = (*Engine)(nil)

// maxAttempts bounds retries after rate limiting.
const maxAttempts = 3

// featureTextDetection requests dense text detection.
const featureTextDetection = "TEXT_DETECTION"

// ErrRateLimited indicates the API kept rejecting requests with 429.
var ErrRateLimited = errors.New("vision: rate limit exceeded")

// Config holds configuration for the Vision engine.
type Config struct {
	// APIKey authenticates with an API key.
	APIKey string

	// AccessToken authenticates with an OAuth2 bearer token.
	AccessToken string

	// Endpoint overrides the API base URL.
	Endpoint string

	// Languages are passed as language hints.
	Languages []string

	// RequestsPerSecond throttles calls. Zero disables throttling.
	RequestsPerSecond float64

	// HTTPClient replaces the default transport. Credentials are not applied to it.
	HTTPClient *http.Client
}

// Engine recognises text with TEXT_DETECTION requests.
type Engine struct {
	service   *vision.Service
	languages []string
	limiter   *RateLimiter
}

// New creates a Vision engine.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	var opts []option.ClientOption
	switch {
	case cfg.HTTPClient != nil:
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.AccessToken != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"})
		opts = append(opts, option.WithTokenSource(ts))
	default:
		return nil, fmt.Errorf("%w: vision.api_key or vision.access_token is required", domain.ErrEngineUnavailable)
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision client: %w", err)
	}

	return &Engine{
		service:   svc,
		languages: cfg.Languages,
		limiter:   NewRateLimiter(cfg.RequestsPerSecond),
	}, nil
}

// Name returns the engine name.
func (e *Engine) Name() string { return "vision" }

// Recognize sends the image to the API and returns one span per text line.
func (e *Engine) Recognize(ctx context.Context, img domain.PreparedImage) ([]domain.TextSpan, error) {
	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(img.Data)},
			Features: []*vision.Feature{{Type: featureTextDetection}},
		}},
	}
	if len(e.languages) > 0 {
		req.Requests[0].ImageContext = &vision.ImageContext{LanguageHints: e.languages}
	}

	var resp *vision.BatchAnnotateImagesResponse
	for attempt := 1; ; attempt++ {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var err error
		resp, err = e.service.Images.Annotate(req).Context(ctx).Do()
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var gerr *googleapi.Error
		if !errors.As(err, &gerr) || gerr.Code != http.StatusTooManyRequests {
			return nil, fmt.Errorf("vision annotate: %w", err)
		}
		if attempt >= maxAttempts {
			return nil, fmt.Errorf("%w after %d attempts", ErrRateLimited, attempt)
		}
		wait := retryAfter(gerr.Header)
		logger.Debug("Vision rate limited for %s, backing off", img.Path)
		e.limiter.RecordRateLimited(wait)
	}

	if len(resp.Responses) == 0 {
		return nil, nil
	}
	r := resp.Responses[0]
	if r.Error != nil && r.Error.Code != 0 {
		return nil, fmt.Errorf("vision annotate: %s (code %d)", r.Error.Message, r.Error.Code)
	}
	return linesFromAnnotation(r.FullTextAnnotation), nil
}

// Close does nothing. The HTTP client is shared.
func (e *Engine) Close() error { return nil }

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
