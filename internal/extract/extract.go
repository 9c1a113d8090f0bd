// Package extract turns résumé PDF bytes into normalized plain text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// DefaultMinLength is the number of runes below which a résumé is not worth sending to a model.
const DefaultMinLength = 100

var (
	// ErrNotPDF is returned for input that does not start with a PDF header.
	ErrNotPDF = errors.New("document is not a PDF")
	// ErrNoText is returned when extraction yields only whitespace.
	ErrNoText = errors.New("document contains no extractable text")
	// ErrTooShort is returned when the extracted text is below the minimum length.
	ErrTooShort = errors.New("extracted text is too short")
)

var pdfMagic = []byte("%PDF-")

// Extractor reads PDF résumés. The zero value uses DefaultMinLength.
type Extractor struct {
	MinLength int
}

// New returns an Extractor that requires at least minLength runes of text.
func New(minLength int) *Extractor {
	return &Extractor{MinLength: minLength}
}

// Extract returns the normalized text of data. Every failure is returned as an
// error wrapping ErrNotPDF, ErrNoText or ErrTooShort, or a read error.
func (e *Extractor) Extract(data []byte) (string, error) {
	raw, err := readPDF(data)
	if err != nil {
		return "", err
	}

	text := Normalize(raw)
	if err := Check(text, e.minLength()); err != nil {
		return "", err
	}
	return text, nil
}

func (e *Extractor) minLength() int {
	if e == nil || e.MinLength <= 0 {
		return DefaultMinLength
	}
	return e.MinLength
}

// Check classifies already extracted text.
func Check(text string, minLength int) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrNoText
	}
	if n := utf8.RuneCountInString(trimmed); n < minLength {
		return fmt.Errorf("%w: %d characters, need %d", ErrTooShort, n, minLength)
	}
	return nil
}

func readPDF(data []byte) (text string, err error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfMagic) {
		return "", ErrNotPDF
	}

	// The PDF library panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(pageText)
		builder.WriteString("\n\n")
	}

	if strings.TrimSpace(builder.String()) == "" {
		return "", ErrNoText
	}
	return builder.String(), nil
}
