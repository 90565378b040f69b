package jsonutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/deploymenttheory/go-workflow-composer/internal/errors"
	"github.com/deploymenttheory/go-workflow-composer/internal/fsutil"
)

// ReadJSONFile reads a JSON file and unmarshals its contents into T
func ReadJSONFile[T any](path string) (T, error) {
	var result T

	if !fsutil.FileExists(path) {
		return result, fmt.Errorf("%w: %s", errors.ErrFileNotFound, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return result, fmt.Errorf("%w: %s", errors.ErrFileReadError, err.Error())
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("%w: %s: %s", errors.ErrUnsupportedFormat, path, err.Error())
	}

	return result, nil
}

// WriteJSONFile writes data to a JSON file with two-space indentation.
// The parent directory must exist.
func WriteJSONFile(path string, data interface{}) error {
	if dir := filepath.Dir(path); !fsutil.DirExists(dir) {
		return fmt.Errorf("%w: %s", errors.ErrDirNotFound, dir)
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %s", errors.ErrFileWriteError, err.Error())
	}
	jsonData = append(jsonData, '\n')

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrFileWriteError, err.Error())
	}
	return nil
}
