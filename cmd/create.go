package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-workflow-composer/internal/client"
	"github.com/deploymenttheory/go-workflow-composer/internal/config"
	"github.com/deploymenttheory/go-workflow-composer/internal/credentials"
	"github.com/deploymenttheory/go-workflow-composer/internal/definition"
	"github.com/deploymenttheory/go-workflow-composer/internal/errors"
	"github.com/deploymenttheory/go-workflow-composer/internal/logger"
	"github.com/deploymenttheory/go-workflow-composer/internal/record"
	"github.com/deploymenttheory/go-workflow-composer/internal/surveys"
	"github.com/deploymenttheory/go-workflow-composer/internal/ui"
	"github.com/deploymenttheory/go-workflow-composer/internal/urlutil"
)

func newCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		definitionFile string
		dryRun         bool
	)

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Validate the workflow and submit it to the workflow service",
		Long: `Builds the workflow, validates it locally and submits it to the workflow
service. On success the workflow ID and UI link are printed and a record is
written to record.path and the submission history.

Nothing is sent when validation fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(opts.cfg, definitionFile)
			if err != nil {
				return err
			}
			if dryRun {
				return printDryRun(cmd.OutOrStdout(), opts.cfg, doc)
			}
			return createWorkflow(cmd.Context(), cmd, opts.cfg, doc)
		},
	}

	createCmd.Flags().StringVarP(&definitionFile, "definition", "f", "", "workflow definition file (YAML or JSON) instead of the built-in workflow")
	createCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and print the request without sending it")

	return createCmd
}

// loadDocument returns the validated definition from path, or the built-in
// TopSurveys workflow when path is empty
func loadDocument(cfg *config.AppConfig, path string) (*definition.Document, error) {
	if path == "" {
		return surveys.Build(cfg.SurveyOptions())
	}

	doc, err := definition.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if errs := definition.ValidateDocument(doc); len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", path, errors.Join(errs...))
	}
	return doc, nil
}

func printDryRun(out io.Writer, cfg *config.AppConfig, doc *definition.Document) error {
	endpoint, err := urlutil.JoinURL(cfg.Service.BaseURL, client.WorkflowsPath)
	if err != nil {
		return err
	}
	body, err := definition.Render(doc, definition.FormatJSON)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "POST %s\n", endpoint)
	fmt.Fprintf(out, "%s: <redacted>\n", client.APIKeyHeader)
	fmt.Fprintf(out, "Content-Type: application/json\n\n")
	_, err = out.Write(body)
	return err
}

func createWorkflow(ctx context.Context, cmd *cobra.Command, cfg *config.AppConfig, doc *definition.Document) error {
	apiKey, source, err := credentials.ResolveAPIKey(cfg.Service.APIKey)
	if err != nil {
		return err
	}
	logger.LogDebug("API key resolved", map[string]interface{}{"source": string(source)})

	c, err := client.New(client.Config{
		BaseURL:   cfg.Service.BaseURL,
		APIKey:    apiKey,
		Timeout:   cfg.Service.Timeout,
		UserAgent: cfg.Service.UserAgent,
	})
	if err != nil {
		return err
	}

	logger.WithField(logger.FieldURL, c.Endpoint()).Debugw("Submitting workflow", logger.FieldWorkflow, doc.Title)
	result, err := c.CreateWorkflow(ctx, doc)
	if err != nil {
		return err
	}

	out := ui.NewPrinter(cmd.OutOrStdout())
	out.OK("Workflow created successfully")
	out.Field("Workflow ID", result.WorkflowID)
	out.Field("Created At", result.CreatedAt)
	if link, err := client.WorkflowURL(cfg.Service.UIURL, result.WorkflowID); err == nil {
		out.Field("Workflow URL", link)
	}

	rec := record.Record{
		WorkflowID:  result.WorkflowID,
		Title:       doc.Title,
		Description: doc.Description,
		CreatedAt:   result.CreatedAt,
	}
	written, warnings := saveRecord(ctx, cfg, rec)
	warn := ui.NewPrinter(cmd.ErrOrStderr())
	for _, w := range warnings {
		warn.Warn("%v", w)
	}
	if written {
		out.Field("Record", cfg.Record.Path)
	}
	return nil
}

// saveRecord writes rec to the record file and the submission history.
// It reports whether the record file was written, and every failure.
func saveRecord(ctx context.Context, cfg *config.AppConfig, rec record.Record) (bool, []error) {
	var (
		written  bool
		warnings []error
	)

	if cfg.Record.Path != "" {
		errs := record.Persist(ctx, rec, record.FileRecorder{Path: cfg.Record.Path})
		written = len(errs) == 0
		warnings = append(warnings, errs...)
	}

	if cfg.Record.HistoryDB != "" {
		history, err := record.OpenHistory(ctx, cfg.Record.HistoryDB)
		if err != nil {
			return written, append(warnings, fmt.Errorf("submission history not updated: %w", err))
		}
		defer history.Close()
		warnings = append(warnings, record.Persist(ctx, rec, history)...)
	}

	return written, warnings
}
