// Package record keeps local traces of successful submissions: the JSON
// record file next to the workflow definition, and a SQLite history.
package record

import (
	"context"
	"fmt"

	"github.com/deploymenttheory/go-workflow-composer/internal/errors"
	"github.com/deploymenttheory/go-workflow-composer/internal/fsutil"
	"github.com/deploymenttheory/go-workflow-composer/internal/jsonutil"
	"github.com/deploymenttheory/go-workflow-composer/internal/logger"
)

// Record describes one workflow the service accepted
type Record struct {
	WorkflowID  string `json:"workflow_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// Recorder persists a record
type Recorder interface {
	Save(ctx context.Context, rec Record) error
}

// FileRecorder writes the most recent record to a JSON file, replacing
// any previous content
type FileRecorder struct {
	Path string
}

// Save implements Recorder
func (f FileRecorder) Save(_ context.Context, rec Record) error {
	path, err := fsutil.ExpandTilde(f.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrFileWriteError, err)
	}
	if err := fsutil.EnsureParentDir(path); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrFileWriteError, err)
	}
	return jsonutil.WriteJSONFile(path, rec)
}

// Load reads a record written by FileRecorder
func (f FileRecorder) Load() (Record, error) {
	path, err := fsutil.ExpandTilde(f.Path)
	if err != nil {
		return Record{}, err
	}
	return jsonutil.ReadJSONFile[Record](path)
}

// Persist saves rec with every recorder. Failures never fail the
// submission; they are logged and returned as warnings.
func Persist(ctx context.Context, rec Record, recorders ...Recorder) []error {
	var warnings []error
	for _, r := range recorders {
		if r == nil {
			continue
		}
		if err := r.Save(ctx, rec); err != nil {
			logger.LogWarn("failed to persist workflow record", map[string]interface{}{
				logger.FieldWorkflowID: rec.WorkflowID,
				"recorder":             fmt.Sprintf("%T", r),
				"error":                err.Error(),
			})
			warnings = append(warnings, err)
		}
	}
	return warnings
}
