package cmd

import (
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-workflow-composer/internal/definition"
	"github.com/deploymenttheory/go-workflow-composer/internal/errors"
	"github.com/deploymenttheory/go-workflow-composer/internal/logger"
	"github.com/deploymenttheory/go-workflow-composer/internal/surveys"
	"github.com/deploymenttheory/go-workflow-composer/internal/ui"
	"github.com/deploymenttheory/go-workflow-composer/internal/watch"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var watchFiles bool

	validateCmd := &cobra.Command{
		Use:   "validate [pattern...]",
		Short: "Validate workflow definition files",
		Long: `Validates workflow definition files matching the given patterns. Patterns
support ** to match across directories. Without patterns the built-in
TopSurveys workflow is validated.

With --watch the files are validated again whenever they change, until
interrupted.`,
		Example: `  go-workflow-composer validate
  go-workflow-composer validate 'workflows/**/*.yaml'
  go-workflow-composer validate --watch workflow.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := ui.NewPrinter(cmd.OutOrStdout())

			if len(args) == 0 {
				if watchFiles {
					return fmt.Errorf("%w: --watch needs at least one file pattern", errors.ErrInvalidArgument)
				}
				if _, err := surveys.Build(opts.cfg.SurveyOptions()); err != nil {
					return err
				}
				out.OK("%s is valid", surveys.Title)
				return nil
			}

			files, err := expandPatterns(args)
			if err != nil {
				return err
			}

			failed := validateFiles(out, files)
			if !watchFiles {
				if failed > 0 {
					return fmt.Errorf("%d of %d definitions failed validation", failed, len(files))
				}
				return nil
			}

			out.Line("Watching %d file(s) for changes, press Ctrl+C to stop", len(files))
			return watch.Files(cmd.Context(), files, watch.DefaultDebounce, func(changed []string) {
				validateFiles(out, changed)
			})
		},
	}

	validateCmd.Flags().BoolVarP(&watchFiles, "watch", "w", false, "validate again whenever a file changes")

	return validateCmd
}

// expandPatterns resolves glob patterns to a sorted, de-duplicated file
// list. A pattern matching nothing is an error.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, pattern := range patterns {
		if !doublestar.ValidatePathPattern(pattern) {
			return nil, fmt.Errorf("%w: invalid pattern %q", errors.ErrInvalidArgument, pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", errors.ErrInvalidArgument, pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: no files match %s", errors.ErrFileNotFound, pattern)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// validateFiles reports each file's result and returns how many failed
func validateFiles(out *ui.Printer, files []string) int {
	failed := 0
	for _, file := range files {
		errs := validateFile(file)
		if len(errs) == 0 {
			out.OK("%s", file)
			continue
		}

		failed++
		out.Error("%s", file)
		for _, err := range errs {
			out.Line("    %s: %v", errors.Kind(err), err)
		}
		logger.WithFields(map[string]interface{}{
			logger.FieldPath: file,
			"errors":         len(errs),
		}).Debug("Definition failed validation")
	}
	return failed
}

func validateFile(path string) []error {
	doc, err := definition.LoadFile(path)
	if err != nil {
		return []error{err}
	}
	return definition.ValidateDocument(doc)
}
