// Package screening guards the gateway's inputs: a regex-based jailbreak
// screen plus the length validation that runs in front of it.
//
// Screening is stateless and pure; the pattern set is compiled once at
// construction and never mutated, so a single Screen is safe for concurrent
// use without locking.
package screening

import (
	"unicode/utf8"

	"github.com/MaxainNN/gpt/pkg/apierr"
	"github.com/MaxainNN/gpt/pkg/observability/logging"
	"github.com/MaxainNN/gpt/pkg/observability/metrics"
)

// Screen matches input text against a fixed jailbreak pattern set.
type Screen struct {
	patterns []compiledPattern
	enabled  bool
}

// ScreenOptions configures a Screen.
type ScreenOptions struct {
	// Enabled toggles screening. A disabled screen reports every input clean.
	Enabled bool
	// Patterns overrides the built-in set. Nil means DefaultPatterns.
	Patterns []Pattern
}

// NewScreen compiles the pattern set.
func NewScreen(options ScreenOptions) (*Screen, error) {
	patterns := options.Patterns
	if patterns == nil {
		patterns = DefaultPatterns
	}
	compiled, err := compilePatterns(patterns)
	if err != nil {
		return nil, err
	}
	return &Screen{patterns: compiled, enabled: options.Enabled}, nil
}

// Evaluate checks text against every pattern, short-circuiting on the first
// match. A match is a SafetyViolation; clean input returns nil.
func (s *Screen) Evaluate(text string) error {
	if !s.enabled || text == "" {
		return nil
	}
	for _, p := range s.patterns {
		if p.re.MatchString(text) {
			logging.Warnf("Jailbreak attempt detected: family=%s input_length=%d", p.family, utf8.RuneCountInString(text))
			metrics.JailbreakDetections.Inc()
			return apierr.Safety("Potential jailbreak attempt detected. This incident has been logged.")
		}
	}
	return nil
}

// IsSuspicious reports whether text matches any pattern, without logging or
// producing an error. Used for soft checks.
func (s *Screen) IsSuspicious(text string) bool {
	if !s.enabled || text == "" {
		return false
	}
	for _, p := range s.patterns {
		if p.re.MatchString(text) {
			return true
		}
	}
	return false
}

// Validator runs the ordered input checks: length first, then the jailbreak
// screen. Blank input passes; required-field enforcement belongs to the
// request DTO layer, not here.
type Validator struct {
	screen         *Screen
	maxInputLength int
}

// NewValidator creates a Validator with the given length limit.
func NewValidator(screen *Screen, maxInputLength int) *Validator {
	return &Validator{screen: screen, maxInputLength: maxInputLength}
}

// Validate checks input length and jailbreak patterns, in that order.
// Over-length input fails with a Validation error before screening runs.
func (v *Validator) Validate(input string) error {
	if input == "" {
		return nil
	}
	if utf8.RuneCountInString(input) > v.maxInputLength {
		return apierr.Validationf("Input too long. Maximum allowed: %d characters", v.maxInputLength)
	}
	return v.screen.Evaluate(input)
}
