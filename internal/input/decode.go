// Package input decodes schedule requests from JSON or YAML documents.
package input

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/benvon/smart-schedule/internal/models"
	"github.com/benvon/smart-schedule/internal/validation"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of an input document
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension; anything but .yaml/.yml is JSON
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ErrEmptyInput is returned when no document was supplied
var ErrEmptyInput = fmt.Errorf("%w: no input provided", models.ErrInvalidInput)

// Decode parses a schedule request. Errors wrap models.ErrInvalidInput.
// YAML is converted to JSON first so both formats share one set of field names.
// Task names are trimmed and stripped of control characters.
func Decode(data []byte, format Format) (*models.ScheduleRequest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyInput
	}

	if format == FormatYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, err
		}
		data = converted
	}

	var req models.ScheduleRequest
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: malformed %s: %v", models.ErrInvalidInput, format, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after %s document", models.ErrInvalidInput, format)
	}

	for i := range req.Tasks {
		req.Tasks[i].Name = validation.SanitizeText(req.Tasks[i].Name)
	}
	return &req, nil
}

// DecodeReader reads r fully and decodes it
func DecodeReader(r io.Reader, format Format) (*models.ScheduleRequest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return Decode(data, format)
}

func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: malformed yaml: %v", models.ErrInvalidInput, err)
	}

	out, err := json.Marshal(normalizeYAML(v))
	if err != nil {
		return nil, fmt.Errorf("%w: yaml is not representable as json: %v", models.ErrInvalidInput, err)
	}
	return out, nil
}

// normalizeYAML ensures all map keys are strings so the result can be JSON-marshaled
func normalizeYAML(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case map[string]any:
		for k, v := range x {
			x[k] = normalizeYAML(v)
		}
		return x
	case []any:
		for i := range x {
			x[i] = normalizeYAML(x[i])
		}
		return x
	default:
		return in
	}
}
