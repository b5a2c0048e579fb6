package pdftext

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
)

func buildPDF(t *testing.T, lines ...string) []byte {
	t.Helper()
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.AddPage()
	doc.SetFont("Helvetica", "", 12)
	for _, line := range lines {
		doc.Cell(0, 10, line)
		doc.Ln(10)
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("render pdf: %v", err)
	}
	return buf.Bytes()
}

func TestExtractTextReadsPages(t *testing.T) {
	data := buildPDF(t, "PLAN", "BACKUPS")
	text, err := NewExtractor(0).ExtractText(context.Background(), data)
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if !strings.Contains(text, "PLAN") || !strings.Contains(text, "BACKUPS") {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractTextRejectsNonPDF(t *testing.T) {
	_, err := NewExtractor(0).ExtractText(context.Background(), []byte("just some text"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestExtractTextHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewExtractor(0).ExtractText(ctx, buildPDF(t, "PLAN"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTrimPartialRuneAtLimit(t *testing.T) {
	text := []byte("contraseña cifrada ✓")
	for limit := 0; limit <= len(text); limit++ {
		got := trimPartialRune(text[:limit])
		if !utf8.Valid(got) {
			t.Fatalf("limit %d: invalid utf-8 %q", limit, got)
		}
		if limit-len(got) >= utf8.UTFMax {
			t.Fatalf("limit %d: trimmed too much, got %q", limit, got)
		}
	}
	if got := trimPartialRune(text); string(got) != string(text) {
		t.Fatalf("complete text changed: %q", got)
	}
}

func TestExtractTextStopsAtLimit(t *testing.T) {
	data := buildPDF(t, "PLAN DE SEGURIDAD", "BACKUPS DIARIOS")
	text, err := NewExtractor(8).ExtractText(context.Background(), data)
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if len(text) > 8 || !utf8.ValidString(text) {
		t.Fatalf("unexpected text %q", text)
	}
}
