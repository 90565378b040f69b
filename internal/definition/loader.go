package definition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	errors "github.com/deploymenttheory/go-workflow-composer/internal/errors"
)

// Output formats accepted by Render
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// LoadFile reads a definition file in the wire shape, as YAML or JSON
// (JSON being a subset of YAML). The document is decoded but not validated.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errors.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrFileReadError, path, err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// Parse decodes a YAML or JSON definition
func Parse(data []byte) (*Document, error) {
	var generic interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, &errors.SchemaError{Message: fmt.Sprintf("malformed definition: %v", err)}
	}
	if _, ok := generic.(map[string]interface{}); !ok {
		return nil, &errors.SchemaError{Message: "definition must be a mapping with title, description, parameters and blocks"}
	}

	raw, err := json.Marshal(generic)
	if err != nil {
		return nil, &errors.SchemaError{Message: fmt.Sprintf("definition is not representable as JSON: %v", err)}
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		var schemaErr *errors.SchemaError
		if errors.As(err, &schemaErr) {
			return nil, err
		}
		return nil, &errors.SchemaError{Message: fmt.Sprintf("malformed definition: %v", err)}
	}
	return &doc, nil
}

// Render encodes the document as indented JSON or as YAML
func Render(doc *Document, format string) ([]byte, error) {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case "", FormatJSON:
		return append(raw, '\n'), nil
	case FormatYAML, "yml":
		var generic interface{}
		if err := json.Unmarshal(raw, &generic); err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q (use json or yaml)", errors.ErrUnsupportedFormat, format)
	}
}
