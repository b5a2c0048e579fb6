package domain

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

type InputKind string

const (
	InputText InputKind = "text"
	InputPDF  InputKind = "pdf"
)

const PDFMimeType = "application/pdf"

// MinTextLength is the minimum number of characters a pasted plan needs
// after trimming surrounding whitespace.
const MinTextLength = 20

// AuditInput is either a TextInput or a PDFInput. The unexported marker keeps
// the set closed.
type AuditInput interface {
	Kind() InputKind
	Size() int
	isAuditInput()
}

// TextInput carries a pasted plan.
type TextInput struct {
	Content string
}

func (TextInput) Kind() InputKind { return InputText }
func (in TextInput) Size() int    { return len(in.Content) }
func (TextInput) isAuditInput()   {}

// PDFInput carries a PDF as standard base64 without any data URI prefix.
type PDFInput struct {
	Data string
}

func (PDFInput) Kind() InputKind { return InputPDF }
func (in PDFInput) Size() int    { return len(in.Data) }
func (PDFInput) isAuditInput()   {}

// InputPayload is the wire form of an AuditInput.
type InputPayload struct {
	Type    InputKind `json:"type"`
	Content string    `json:"content"`
}

// DecodeInput converts the wire form into an AuditInput.
func DecodeInput(p InputPayload) (AuditInput, error) {
	switch InputKind(strings.ToLower(strings.TrimSpace(string(p.Type)))) {
	case InputText:
		return TextInput{Content: p.Content}, nil
	case InputPDF:
		return PDFInput{Data: p.Content}, nil
	default:
		return nil, WrapError(ErrInvalidInput, "decode input", fmt.Errorf("unknown input type %q", p.Type))
	}
}

// EncodeInput converts an AuditInput into its wire form.
func EncodeInput(in AuditInput) InputPayload {
	switch v := in.(type) {
	case TextInput:
		return InputPayload{Type: InputText, Content: v.Content}
	case PDFInput:
		return InputPayload{Type: InputPDF, Content: v.Data}
	default:
		return InputPayload{}
	}
}

// ValidateInput checks the shape of an input before any provider is
// contacted. The minimum text length is a caller rule (see intake.Draft).
func ValidateInput(in AuditInput) error {
	switch v := in.(type) {
	case TextInput:
	case PDFInput:
		if strings.TrimSpace(v.Data) == "" {
			return WrapError(ErrInvalidInput, "validate input", errors.New("pdf payload is empty"))
		}
		if _, err := base64.StdEncoding.DecodeString(v.Data); err != nil {
			return WrapError(ErrInvalidInput, "validate input", fmt.Errorf("pdf payload is not base64: %w", err))
		}
	case nil:
		return WrapError(ErrInvalidInput, "validate input", errors.New("input is required"))
	default:
		return WrapError(ErrInvalidInput, "validate input", fmt.Errorf("unsupported input %T", in))
	}
	return nil
}
