package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
)

const defaultMaxChars = 200_000

// Extractor turns PDF bytes into plain text for providers that cannot read
// inline documents.
type Extractor struct {
	maxChars int
}

func NewExtractor(maxChars int) *Extractor {
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	return &Extractor{maxChars: maxChars}
}

func (e *Extractor) ExtractText(ctx context.Context, data []byte) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = domain.WrapError(domain.ErrInvalidInput, "extract pdf text", fmt.Errorf("malformed pdf: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "open pdf", err)
	}
	if reader.NumPage() == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "open pdf", fmt.Errorf("document has no pages"))
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract pdf text", err)
	}
	raw, err := io.ReadAll(io.LimitReader(plain, int64(e.maxChars)))
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	out := strings.TrimSpace(string(trimPartialRune(raw)))
	if out == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract pdf text", fmt.Errorf("document has no extractable text"))
	}
	return out, nil
}

// trimPartialRune drops a multi-byte sequence cut by the length limit.
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax-1 && len(b) > 0; i++ {
		r, size := utf8.DecodeLastRune(b)
		if r != utf8.RuneError || size != 1 {
			return b
		}
		b = b[:len(b)-1]
	}
	return b
}
