package web2pdf

import (
	"errors"
	"testing"
	"time"
)

func TestParseQuality(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Quality
		wantErr bool
	}{
		{"low", "low", QualityLow, false},
		{"medium", "medium", QualityMedium, false},
		{"high", "high", QualityHigh, false},
		{"case insensitive", "HIGH", QualityHigh, false},
		{"empty defaults to medium", "", QualityMedium, false},
		{"unknown rejected", "ultra", "", true},
		{"whitespace rejected", " low", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseQuality(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidQuality) {
					t.Fatalf("ParseQuality(%q) error = %v, want ErrInvalidQuality", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseQuality(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseQuality(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestQualityProfile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		quality Quality
		width   int
		height  int
		timeout time.Duration
	}{
		{QualityLow, 800, 600, 10 * time.Second},
		{QualityMedium, 1200, 800, 15 * time.Second},
		{QualityHigh, 1920, 1080, 25 * time.Second},
	}

	for _, tt := range tests {
		t.Run(string(tt.quality), func(t *testing.T) {
			t.Parallel()

			p, err := tt.quality.Profile()
			if err != nil {
				t.Fatalf("Profile() unexpected error: %v", err)
			}
			if p.ViewportWidth != tt.width || p.ViewportHeight != tt.height {
				t.Errorf("viewport = %dx%d, want %dx%d",
					p.ViewportWidth, p.ViewportHeight, tt.width, tt.height)
			}
			if p.NavigationTimeout != tt.timeout {
				t.Errorf("timeout = %v, want %v", p.NavigationTimeout, tt.timeout)
			}
		})
	}
}

func TestQualityProfile_Unknown(t *testing.T) {
	t.Parallel()

	if _, err := Quality("ultra").Profile(); !errors.Is(err, ErrInvalidQuality) {
		t.Errorf("Profile() error = %v, want ErrInvalidQuality", err)
	}
}

func TestQualitySettleDelay(t *testing.T) {
	t.Parallel()

	if got := QualityHigh.settleDelay(); got != 3*time.Second {
		t.Errorf("high settle delay = %v, want 3s", got)
	}
	if got := QualityLow.settleDelay(); got != 1500*time.Millisecond {
		t.Errorf("low settle delay = %v, want 1.5s", got)
	}
	if got := QualityMedium.settleDelay(); got != 1500*time.Millisecond {
		t.Errorf("medium settle delay = %v, want 1.5s", got)
	}
}
