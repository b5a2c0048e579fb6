package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConfigurationMissing = errors.New("configuration missing")
	ErrConfigurationInvalid = errors.New("configuration invalid")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrQuotaExceeded        = errors.New("quota exceeded")
	ErrEmptyResponse        = errors.New("empty response")
	ErrParseFailure         = errors.New("parse failure")
	ErrTransport            = errors.New("transport failure")

	ErrInvalidInput       = errors.New("invalid input")
	ErrUnsupportedFile    = errors.New("unsupported file type")
	ErrAnalysisInProgress = errors.New("analysis in progress")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrSessionNotFound    = errors.New("session not found")
	ErrTemporary          = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// Kind returns the machine-readable name of the first known kind found in err's chain.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsKind(err, ErrConfigurationMissing):
		return "configuration_missing"
	case IsKind(err, ErrConfigurationInvalid):
		return "configuration_invalid"
	case IsKind(err, ErrPermissionDenied):
		return "permission_denied"
	case IsKind(err, ErrQuotaExceeded):
		return "quota_exceeded"
	case IsKind(err, ErrEmptyResponse):
		return "empty_response"
	case IsKind(err, ErrParseFailure):
		return "parse_failure"
	case IsKind(err, ErrUnsupportedFile):
		return "unsupported_file"
	case IsKind(err, ErrInvalidInput):
		return "invalid_input"
	case IsKind(err, ErrAnalysisInProgress):
		return "analysis_in_progress"
	case IsKind(err, ErrInvalidTransition):
		return "invalid_transition"
	case IsKind(err, ErrSessionNotFound):
		return "session_not_found"
	case IsKind(err, ErrTemporary):
		return "temporary"
	case IsKind(err, ErrTransport):
		return "transport"
	default:
		return "internal"
	}
}
