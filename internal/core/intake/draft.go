// Package intake collects a security plan as pasted text or a single PDF
// and turns it into an audit input.
package intake

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
)

// File is an attached document.
type File struct {
	Name string
	Data []byte
}

// Draft holds either text or a file, never both. The zero value is empty.
type Draft struct {
	text string
	file *File
}

// SetText replaces the text and drops any attached file.
func (d *Draft) SetText(text string) {
	d.text = text
	d.file = nil
}

// AttachFile accepts PDFs only. A rejected file leaves the draft unchanged.
func (d *Draft) AttachFile(name, mimeType string, data []byte) error {
	if err := checkPDF(mimeType, data); err != nil {
		return err
	}
	d.file = &File{Name: name, Data: data}
	d.text = ""
	return nil
}

func (d *Draft) RemoveFile() {
	d.file = nil
}

func (d *Draft) Clear() {
	d.text = ""
	d.file = nil
}

func (d *Draft) Text() string { return d.text }
func (d *Draft) File() *File  { return d.file }

// CanSubmit reports whether Build would succeed.
func (d *Draft) CanSubmit() bool {
	if d.file != nil {
		return true
	}
	return utf8.RuneCountInString(strings.TrimSpace(d.text)) >= domain.MinTextLength
}

// Build converts the draft into an audit input. Text is sent as typed,
// without trimming.
func (d *Draft) Build() (domain.AuditInput, error) {
	if !d.CanSubmit() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "build audit input",
			fmt.Errorf("need a pdf or at least %d characters of text", domain.MinTextLength))
	}
	if d.file != nil {
		return domain.PDFInput{Data: base64.StdEncoding.EncodeToString(d.file.Data)}, nil
	}
	return domain.TextInput{Content: d.text}, nil
}

// StripDataURI removes a "data:<mime>;base64," prefix if present.
func StripDataURI(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if idx := strings.Index(s, ","); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

func checkPDF(mimeType string, data []byte) error {
	declared := strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(declared, ";"); idx >= 0 {
		declared = strings.TrimSpace(declared[:idx])
	}
	if declared != domain.PDFMimeType {
		return domain.WrapError(domain.ErrUnsupportedFile, "attach file", fmt.Errorf("declared type %q", mimeType))
	}
	if len(data) == 0 {
		return nil
	}
	if detected := mimetype.Detect(data); !detected.Is(domain.PDFMimeType) {
		return domain.WrapError(domain.ErrUnsupportedFile, "attach file",
			errors.New("content is "+detected.String()))
	}
	return nil
}
