package web2pdf

import (
	"fmt"
	"strings"
	"time"
)

// Quality selects the render resolution and time budget for a conversion.
type Quality string

// Quality tier constants.
const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// DefaultQuality is used when the caller does not specify a tier.
const DefaultQuality = QualityMedium

// RenderProfile holds the concrete viewport and navigation budget for a
// quality tier.
type RenderProfile struct {
	ViewportWidth     int
	ViewportHeight    int
	NavigationTimeout time.Duration
}

// renderProfiles maps each quality tier to its profile. Every Quality value
// has exactly one entry; ParseQuality rejects anything else before a request
// reaches the renderer.
var renderProfiles = map[Quality]RenderProfile{
	QualityLow:    {ViewportWidth: 800, ViewportHeight: 600, NavigationTimeout: 10 * time.Second},
	QualityMedium: {ViewportWidth: 1200, ViewportHeight: 800, NavigationTimeout: 15 * time.Second},
	QualityHigh:   {ViewportWidth: 1920, ViewportHeight: 1080, NavigationTimeout: 25 * time.Second},
}

// Settle delays let deferred content (images, fonts, client-rendered
// widgets) finish painting before the snapshot. A heuristic, not a
// content-readiness guarantee.
const (
	settleDelayDefault = 1500 * time.Millisecond
	settleDelayHigh    = 3 * time.Second
)

// ParseQuality validates a quality string (case-insensitive).
// Empty input defaults to medium.
func ParseQuality(s string) (Quality, error) {
	switch q := Quality(strings.ToLower(s)); q {
	case "":
		return DefaultQuality, nil
	case QualityLow, QualityMedium, QualityHigh:
		return q, nil
	default:
		return "", fmt.Errorf("%w: %q (must be low, medium, or high)", ErrInvalidQuality, s)
	}
}

// Profile returns the render profile for q.
func (q Quality) Profile() (RenderProfile, error) {
	p, ok := renderProfiles[q]
	if !ok {
		return RenderProfile{}, fmt.Errorf("%w: %q", ErrInvalidQuality, q)
	}
	return p, nil
}

// settleDelay returns the post-navigation wait for q.
func (q Quality) settleDelay() time.Duration {
	if q == QualityHigh {
		return settleDelayHigh
	}
	return settleDelayDefault
}
