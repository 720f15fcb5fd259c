// Package ingest reads scraped product records from JSON or YAML.
package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/shelfwatch/pricesync/models"
)

// Format is an input encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// FormatFromPath guesses the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Decode reads products from r. JSON input may be a single array, a single object,
// or a stream of objects (one per line); YAML input is a sequence of records.
func Decode(r io.Reader, format Format) ([]models.Product, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if format == FormatYAML {
		if data, err = yaml.YAMLToJSON(data); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}
	return decodeJSON(data)
}

func decodeJSON(data []byte) ([]models.Product, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var products []models.Product
		if err := json.Unmarshal(trimmed, &products); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		return products, nil
	}

	var products []models.Product
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	for dec.More() {
		var p models.Product
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("parse json record %d: %w", len(products)+1, err)
		}
		products = append(products, p)
	}
	return products, nil
}
