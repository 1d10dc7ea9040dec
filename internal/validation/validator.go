// Package validation is a small fluent config validator, grounded on
// dd0wney-graphdb's pkg/validation.ConfigValidator: collect every
// failure instead of stopping at the first, then report them all at
// once.
package validation

import (
	"fmt"
	"strings"
)

// ConfigValidator accumulates validation errors against a named
// config struct.
type ConfigValidator struct {
	name   string
	errors []error
}

func NewConfigValidator(configName string) *ConfigValidator {
	return &ConfigValidator{name: configName, errors: make([]error, 0)}
}

func (cv *ConfigValidator) Required(field, value string) *ConfigValidator {
	if value == "" {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: required field is empty", cv.name, field))
	}
	return cv
}

func (cv *ConfigValidator) Positive(field string, value int) *ConfigValidator {
	if value <= 0 {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: value %d must be positive", cv.name, field, value))
	}
	return cv
}

func (cv *ConfigValidator) PositiveUint64(field string, value uint64) *ConfigValidator {
	if value == 0 {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: value must be positive", cv.name, field))
	}
	return cv
}

func (cv *ConfigValidator) MinInt(field string, value, min int) *ConfigValidator {
	if value < min {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: value %d is below minimum %d", cv.name, field, value, min))
	}
	return cv
}

func (cv *ConfigValidator) MaxInt(field string, value, max int) *ConfigValidator {
	if value > max {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: value %d exceeds maximum %d", cv.name, field, value, max))
	}
	return cv
}

func (cv *ConfigValidator) OneOf(field, value string, allowed ...string) *ConfigValidator {
	for _, a := range allowed {
		if value == a {
			return cv
		}
	}
	cv.errors = append(cv.errors, fmt.Errorf("%s.%s: value %q must be one of %v", cv.name, field, value, allowed))
	return cv
}

// Custom applies an arbitrary validation function, wrapping any
// returned error with the field name.
func (cv *ConfigValidator) Custom(field string, fn func() error) *ConfigValidator {
	if err := fn(); err != nil {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: %w", cv.name, field, err))
	}
	return cv
}

// HasErrors reports whether any validation has failed so far.
func (cv *ConfigValidator) HasErrors() bool {
	return len(cv.errors) > 0
}

// Errors returns every accumulated validation error.
func (cv *ConfigValidator) Errors() []error {
	return cv.errors
}

// Validate returns a single combined error summarizing every failure,
// or nil if validation passed.
func (cv *ConfigValidator) Validate() error {
	if len(cv.errors) == 0 {
		return nil
	}
	if len(cv.errors) == 1 {
		return cv.errors[0]
	}
	msgs := make([]string, len(cv.errors))
	for i, err := range cv.errors {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("%s validation failed with %d errors: %s", cv.name, len(cv.errors), strings.Join(msgs, "; "))
}
