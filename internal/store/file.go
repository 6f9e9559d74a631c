// Package store persists an index.Index and reads it back. Files are
// written as pretty-printed JSON, or YAML when the path ends in .yaml or
// .yml; both keep the document -> term -> count shape as-is.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Adithya-Monish-Kumar-K/soorch/internal/indexer/index"
)

// Format is an on-disk encoding of an index.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from the file extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Marshal encodes idx in the given format.
func Marshal(idx index.Index, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(idx)
		if err != nil {
			return nil, fmt.Errorf("encoding index as yaml: %w", err)
		}
		return data, nil
	default:
		data, err := json.MarshalIndent(idx, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding index as json: %w", err)
		}
		return append(data, '\n'), nil
	}
}

// Unmarshal decodes data written by Marshal.
func Unmarshal(data []byte, format Format) (index.Index, error) {
	idx := make(index.Index)
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &idx)
	default:
		err = json.Unmarshal(data, &idx)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s index: %w", format, err)
	}
	for docID, counts := range idx {
		if counts == nil {
			idx[docID] = index.TermCounts{}
		}
	}
	return idx, nil
}

// WriteFile writes idx to path, replacing any existing file.
func WriteFile(idx index.Index, path string) error {
	data, err := Marshal(idx, FormatFor(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing index file %s: %w", path, err)
	}
	return nil
}

// ReadFile loads an index previously written by WriteFile.
func ReadFile(path string) (index.Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index file %s: %w", path, err)
	}
	return Unmarshal(data, FormatFor(path))
}
