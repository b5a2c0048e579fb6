package llm

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
	"github.com/kirillkom/security-plan-auditor/internal/core/ports"
)

// UserText renders the input as the delimited plan text. Providers without
// document support get PDFs through the extractor.
func UserText(ctx context.Context, input domain.AuditInput, extractor ports.PDFTextExtractor) (string, error) {
	switch v := input.(type) {
	case domain.TextInput:
		return PlanText(v.Content), nil
	case domain.PDFInput:
		if extractor == nil {
			return "", domain.WrapError(domain.ErrUnsupportedFile, "render pdf input", fmt.Errorf("provider has no pdf extractor"))
		}
		data, err := base64.StdEncoding.DecodeString(v.Data)
		if err != nil {
			return "", domain.WrapError(domain.ErrInvalidInput, "decode pdf payload", err)
		}
		text, err := extractor.ExtractText(ctx, data)
		if err != nil {
			return "", err
		}
		return PlanText(text), nil
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "render input", fmt.Errorf("unsupported input %T", input))
	}
}
