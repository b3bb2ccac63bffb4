package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// Converter extracts plain text from one family of file formats.
type Converter interface {
	Convert(ctx context.Context, filename string, data []byte) (string, error)
	Extensions() []string
}

// ConverterRegistry routes files to a Converter by extension.
type ConverterRegistry struct {
	byExt map[string]Converter
}

func NewConverterRegistry(converters ...Converter) *ConverterRegistry {
	registry := &ConverterRegistry{byExt: make(map[string]Converter)}
	for _, c := range converters {
		for _, ext := range c.Extensions() {
			registry.byExt[strings.ToLower(ext)] = c
		}
	}
	return registry
}

// DefaultConverterRegistry handles the text-based formats supported out
// of the box.
func DefaultConverterRegistry() *ConverterRegistry {
	return NewConverterRegistry(PlainTextConverter{})
}

// Convert extracts text from the file, or fails when no converter claims
// its extension.
func (r *ConverterRegistry) Convert(ctx context.Context, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	converter, ok := r.byExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q (supported: %s)", ErrDocumentUnsupportedType, ext, strings.Join(r.SupportedExtensions(), ", "))
	}
	return converter.Convert(ctx, filename, data)
}

// Supports reports whether files with the given extension can be converted.
func (r *ConverterRegistry) Supports(ext string) bool {
	_, ok := r.byExt[strings.ToLower(ext)]
	return ok
}

// SupportedExtensions lists the registered extensions sorted ascending.
func (r *ConverterRegistry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// PlainTextConverter passes text-based files through unchanged.
type PlainTextConverter struct{}

func (PlainTextConverter) Extensions() []string {
	return []string{".txt", ".md", ".html"}
}

func (PlainTextConverter) Convert(_ context.Context, filename string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file %q is not valid UTF-8 text", filename)
	}
	return string(data), nil
}
