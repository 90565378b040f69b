package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-workflow-composer/internal/definition"
	"github.com/deploymenttheory/go-workflow-composer/internal/query"
)

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var (
		definitionFile string
		format         string
		expression     string
		raw            bool
	)

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Print the validated workflow document without submitting it",
		Example: `  go-workflow-composer render --format yaml
  go-workflow-composer render --query '.blocks[].label' --raw
  go-workflow-composer render --max-surveys 3 --persona-name 'Jane Doe'
  go-workflow-composer render -f workflow.yaml --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(opts.cfg, definitionFile)
			if err != nil {
				return err
			}

			var out []byte
			if expression != "" {
				results, err := query.Apply(cmd.Context(), expression, doc)
				if err != nil {
					return err
				}
				out, err = query.Marshal(results, raw)
				if err != nil {
					return err
				}
			} else {
				out, err = definition.Render(doc, format)
				if err != nil {
					return err
				}
			}

			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	renderCmd.Flags().StringVarP(&definitionFile, "definition", "f", "", "workflow definition file (YAML or JSON) instead of the built-in workflow")
	renderCmd.Flags().StringVarP(&format, "format", "o", definition.FormatJSON, "output format: json or yaml")
	renderCmd.Flags().StringVarP(&expression, "query", "q", "", "jq expression applied to the document")
	renderCmd.Flags().BoolVarP(&raw, "raw", "r", false, "print string results without quotes")

	return renderCmd
}
