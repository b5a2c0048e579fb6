package domain

import (
	"errors"
	"strings"
)

const (
	minAPIKeyLength    = 10
	apiKeyPlaceholder  = "PLACEHOLDER"
	validateCredential = "validate credential"
)

// ValidateAPIKey rejects absent, placeholder, or too-short provider keys.
// The key is checked as given: the placeholder match is case-sensitive and
// surrounding whitespace counts towards the length.
func ValidateAPIKey(key string) error {
	if key == "" {
		return WrapError(ErrConfigurationMissing, validateCredential, errors.New("api key is not set"))
	}
	if strings.Contains(key, apiKeyPlaceholder) {
		return WrapError(ErrConfigurationInvalid, validateCredential, errors.New("api key is a placeholder"))
	}
	if len(key) < minAPIKeyLength {
		return WrapError(ErrConfigurationInvalid, validateCredential, errors.New("api key is too short"))
	}
	return nil
}
