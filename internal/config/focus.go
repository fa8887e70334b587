package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"StudySanctuary/pkg/biometric"
	"StudySanctuary/pkg/focus"
)

// FocusConfig gathers the tunables of the focus and face domains.
type FocusConfig struct {
	Thresholds       focus.Thresholds
	MatchThreshold   float64
	Enrollment       biometric.EnrollmentConfig
	SummaryTTL       time.Duration
	EnrolledCacheTTL time.Duration
	TokenTTL         time.Duration
}

func DefaultFocusConfig() FocusConfig {
	return FocusConfig{
		Thresholds:       focus.DefaultThresholds(),
		MatchThreshold:   biometric.DefaultMatchThreshold,
		Enrollment:       biometric.DefaultEnrollmentConfig(),
		SummaryTTL:       24 * time.Hour,
		EnrolledCacheTTL: 10 * time.Minute,
		TokenTTL:         24 * time.Hour,
	}
}

// LoadFocusConfig reads overrides from the environment and validates them, so a bad threshold
// stops the server before it accepts traffic.
func LoadFocusConfig() (FocusConfig, error) {
	cfg := DefaultFocusConfig()

	floats := []struct {
		key string
		dst *float64
	}{
		{"FOCUS_HORIZONTAL_THRESHOLD", &cfg.Thresholds.Horizontal},
		{"FOCUS_VERTICAL_THRESHOLD", &cfg.Thresholds.Vertical},
		{"FOCUS_TILT_THRESHOLD", &cfg.Thresholds.Tilt},
		{"FOCUS_PHONE_THRESHOLD", &cfg.Thresholds.Phone},
		{"FOCUS_EXTREME_THRESHOLD", &cfg.Thresholds.Extreme},
		{"FACE_MATCH_THRESHOLD", &cfg.MatchThreshold},
	}
	for _, f := range floats {
		raw := os.Getenv(f.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return FocusConfig{}, fmt.Errorf("parse %s: %w", f.key, err)
		}
		*f.dst = v
	}

	if raw := os.Getenv("ENROLLMENT_REQUIRED_CAPTURES"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return FocusConfig{}, fmt.Errorf("ENROLLMENT_REQUIRED_CAPTURES must be a positive integer, got %q", raw)
		}
		cfg.Enrollment.Required = n
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"FOCUS_SUMMARY_TTL", &cfg.SummaryTTL},
		{"FACE_CACHE_TTL", &cfg.EnrolledCacheTTL},
		{"FACE_TOKEN_TTL", &cfg.TokenTTL},
	}
	for _, d := range durations {
		raw := os.Getenv(d.key)
		if raw == "" {
			continue
		}
		v, err := time.ParseDuration(raw)
		if err != nil || v <= 0 {
			return FocusConfig{}, fmt.Errorf("%s must be a positive duration, got %q", d.key, raw)
		}
		*d.dst = v
	}

	if _, err := focus.NewClassifier(cfg.Thresholds); err != nil {
		return FocusConfig{}, err
	}
	if _, err := biometric.NewMatcher(cfg.MatchThreshold); err != nil {
		return FocusConfig{}, err
	}

	return cfg, nil
}
