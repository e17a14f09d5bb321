package web2pdf

import (
	"fmt"
	"net/url"
	"time"
)

// Input contains conversion parameters from the external request handler.
type Input struct {
	URL     string // target page (required, absolute http/https)
	Quality string // "low", "medium", "high" (empty = medium)
	UserID  string // usage accounting key (optional for library use)
}

// RenderRequest is a validated, immutable unit of render work.
type RenderRequest struct {
	URL         string
	Quality     Quality
	RequestedAt time.Time
}

// NewRenderRequest validates the URL and quality tier and stamps the
// request time. Invalid input is rejected here, before any browser
// resource is touched.
func NewRenderRequest(rawURL, quality string) (RenderRequest, error) {
	q, err := ParseQuality(quality)
	if err != nil {
		return RenderRequest{}, err
	}
	if err := validateURL(rawURL); err != nil {
		return RenderRequest{}, err
	}
	return RenderRequest{URL: rawURL, Quality: q, RequestedAt: time.Now()}, nil
}

// validateURL checks that raw parses as an absolute http or https URL.
func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return nil
}
