// Package extract provides plain text extraction from the document formats
// synopsis can summarize.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// ErrEmptyContent is returned when a document yields no text at all.
var ErrEmptyContent = errors.New("document contains no text")

// SupportedExtensions lists the extensions with a dedicated extractor.
var SupportedExtensions = []string{".txt", ".md", ".rst", ".pdf", ".docx", ".odt"}

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its whitespace-normalized text.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes extracts text from content based on ext (with leading dot).
// Unknown extensions are treated as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(ext) {
	case ".pdf":
		text, err = extractPDF(content)
	case ".docx":
		text, err = extractDOCX(content)
	case ".odt":
		text, err = extractODT(content)
	default:
		text = extractPlain(content)
	}
	if err != nil {
		return "", err
	}
	text = Normalize(text)
	if text == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}

// Supported reports whether ext has a dedicated extractor.
func Supported(ext string) bool {
	ext = strings.ToLower(ext)
	for _, s := range SupportedExtensions {
		if s == ext {
			return true
		}
	}
	return false
}

// Normalize trims text and collapses every whitespace run to a single space,
// so that hard line wraps inside sentences do not split them.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
