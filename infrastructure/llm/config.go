package llm

import (
	"fmt"
	"net/url"
	"time"
)

// Request parameter ranges shared by all providers.
const (
	MinTemperature = 0.0
	// MaxTemperature accommodates Gemini and OpenAI, which accept up to 2.0.
	MaxTemperature = 2.0
	MinTopP        = 0.0
	MaxTopP        = 1.0
	MinPenalty     = -2.0
	MaxPenalty     = 2.0

	// DefaultMaxTokens is used when a request does not set max_tokens.
	// Anthropic requires an explicit cap.
	DefaultMaxTokens = 2048

	MinTimeout = 1 * time.Second
	MaxTimeout = 10 * time.Minute
)

// ExtractOptionalInt returns opts[key] when it is an int accepted by
// validator, and defaultVal otherwise.
func ExtractOptionalInt(opts map[string]any, key string, defaultVal int, validator func(int) bool) int {
	val, ok := opts[key].(int)
	if !ok || (validator != nil && !validator(val)) {
		return defaultVal
	}
	return val
}

// ExtractOptionalString returns opts[key] when it is a string accepted by
// validator, and defaultVal otherwise.
func ExtractOptionalString(opts map[string]any, key string, defaultVal string, validator func(string) bool) string {
	val, ok := opts[key].(string)
	if !ok || (validator != nil && !validator(val)) {
		return defaultVal
	}
	return val
}

// ExtractOptionalFloat64 returns opts[key] when it is a float64 accepted by
// validator, and defaultVal otherwise.
func ExtractOptionalFloat64(opts map[string]any, key string, defaultVal float64, validator func(float64) bool) float64 {
	val, ok := opts[key].(float64)
	if !ok || (validator != nil && !validator(val)) {
		return defaultVal
	}
	return val
}

func IsPositiveInt(val int) bool { return val > 0 }

func IsNonEmptyString(val string) bool { return val != "" }

// IsValidTemperature reports whether val is within [0, 2].
func IsValidTemperature(val float64) bool {
	return val >= MinTemperature && val <= MaxTemperature
}

// IsValidTopP reports whether val is within [0, 1].
func IsValidTopP(val float64) bool {
	return val >= MinTopP && val <= MaxTopP
}

// ValidateBaseURL checks that baseURL is an absolute http or https URL and
// returns it normalized. An empty string is valid and means the provider
// default.
func ValidateBaseURL(baseURL string) (string, error) {
	if baseURL == "" {
		return "", nil
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL must include a host")
	}
	return parsed.String(), nil
}

// ValidateTimeout clamps timeout to [MinTimeout, MaxTimeout]. Zero or
// negative values return zero, meaning the SDK default.
func ValidateTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 0
	}
	return min(max(timeout, MinTimeout), MaxTimeout)
}

// SafeFloat32 converts a numeric option to float32, failing on values that
// do not fit.
func SafeFloat32(value any) (float32, bool) {
	switch v := value.(type) {
	case float32:
		return v, true
	case float64:
		if v > 3.4e38 || v < -3.4e38 {
			return 0, false
		}
		return float32(v), true
	case int:
		return float32(v), true
	default:
		return 0, false
	}
}

// ClampFloat64 restricts val to [lo, hi].
func ClampFloat64(val, lo, hi float64) float64 {
	return min(max(val, lo), hi)
}
