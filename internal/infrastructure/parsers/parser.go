// Package parsers provides parsers for importing relationships from various formats.
package parsers

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// RawRelationship is a relationship read from an external source before
// characters are resolved and the type is canonicalized.
type RawRelationship struct {
	// Character and Related are character ids or names.
	Character string         `json:"character"`
	Type      string         `json:"type"`
	Related   string         `json:"related"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	LineNum   int            `json:"-"` // Line number in source file (set by parser)
}

// Parser defines the interface for parsing relationships from various formats.
type Parser interface {
	Parse(r io.Reader) ([]RawRelationship, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONParser{}
	case ".csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// Resolve picks the parser for format, or from the extension of filename
// when format is empty or "auto".
func Resolve(format, filename string) (Parser, error) {
	var p Parser
	if format == "" || strings.EqualFold(format, "auto") {
		p = ForFile(filename)
	} else {
		p = ForFormat(format)
	}
	if p == nil {
		if format == "" || strings.EqualFold(format, "auto") {
			return nil, fmt.Errorf("unsupported format for file: %s", filename)
		}
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return p, nil
}
