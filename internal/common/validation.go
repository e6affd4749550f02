package common

import (
	"fmt"
	"slices"
	"strings"

	"atscore/internal/errors"
	"atscore/internal/formatters"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s', supported formats: %s",
			format, strings.Join(supportedFormats, ", ")), nil)
}

// ResolveOutputFormat returns requested, or defaultFormat when requested is
// empty, after checking it is both configured and registered
func ResolveOutputFormat(requested, defaultFormat string, supportedFormats []string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(requested))
	if format == "" {
		format = defaultFormat
	}
	if err := ValidateOutputFormat(format, supportedFormats); err != nil {
		return "", err
	}
	if !slices.Contains(formatters.GlobalRegistry.GetSupportedFormats(), format) {
		return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("no formatter registered for '%s'", format), nil)
	}
	return format, nil
}
