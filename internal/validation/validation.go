// Package validation holds the field format rules shared by services and handlers.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	hexColorRegex  = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)
	usernameRegex  = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)
	contentIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// DefaultMinPasswordLength is the shortest site password accepted.
const DefaultMinPasswordLength = 4

// Validator checks user supplied fields.
type Validator struct {
	minPasswordLength int
}

// New creates a Validator. A non-positive minPasswordLength falls back to
// DefaultMinPasswordLength.
func New(minPasswordLength int) *Validator {
	if minPasswordLength <= 0 {
		minPasswordLength = DefaultMinPasswordLength
	}
	return &Validator{minPasswordLength: minPasswordLength}
}

// IsValidHexColor reports whether color is #rgb or #rrggbb.
func (v *Validator) IsValidHexColor(color string) bool {
	return hexColorRegex.MatchString(color)
}

// IsValidUsername reports whether name is 3-30 letters, digits or underscores.
func (v *Validator) IsValidUsername(name string) bool {
	return usernameRegex.MatchString(name)
}

// IsValidContentID reports whether id looks like a hosted file id.
func (v *Validator) IsValidContentID(id string) bool {
	return contentIDRegex.MatchString(id)
}

// ValidateSitePassword checks the site gate password length.
func (v *Validator) ValidateSitePassword(password string) error {
	if utf8.RuneCountInString(password) < v.minPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", v.minPasswordLength)
	}
	return nil
}

// ValidateRequiredText rejects a value that is empty after trimming.
func (v *Validator) ValidateRequiredText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}
