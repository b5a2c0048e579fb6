// Package llm holds what every report provider shares: the auditor prompt,
// PDF handling for text-only models, and failure classification.
package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
	"github.com/kirillkom/security-plan-auditor/internal/infrastructure/resilience"
)

// MapFailure converts a provider error into the audit error taxonomy.
// statusCode is the structured HTTP status when the client library exposes
// one, or 0 to fall back to inspecting the message.
func MapFailure(operation string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	if resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrTransport, operation, err)
	}

	if statusCode == 0 {
		statusCode = statusFromMessage(err.Error())
	}
	switch statusCode {
	case http.StatusForbidden:
		return domain.WrapError(domain.ErrPermissionDenied, operation, err)
	case http.StatusTooManyRequests:
		return domain.WrapError(domain.ErrQuotaExceeded, operation, err)
	default:
		return domain.WrapError(domain.ErrTransport, operation, err)
	}
}

func statusFromMessage(msg string) int {
	switch {
	case strings.Contains(msg, "403"):
		return http.StatusForbidden
	case strings.Contains(msg, "429"):
		return http.StatusTooManyRequests
	default:
		return 0
	}
}

// Classify decides which provider failures count against the circuit
// breaker. 4xx answers, including 429 quota errors, do not: they must reach
// the user as-is rather than as an open breaker.
func Classify(statusCode func(error) int) resilience.ErrorClassifier {
	return func(err error) resilience.ErrorClassification {
		if err == nil {
			return resilience.ErrorClassification{}
		}
		if errors.Is(err, context.Canceled) {
			return resilience.ErrorClassification{RecordFailure: false}
		}
		code := 0
		if statusCode != nil {
			code = statusCode(err)
		}
		if code == 0 {
			code = statusFromMessage(err.Error())
		}
		if code >= 400 && code < 500 && code != http.StatusRequestTimeout {
			return resilience.ErrorClassification{RecordFailure: false}
		}
		return resilience.ErrorClassification{RecordFailure: true}
	}
}
