package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-workflow-composer/internal/config"
	"github.com/deploymenttheory/go-workflow-composer/internal/errors"
	"github.com/deploymenttheory/go-workflow-composer/internal/logger"
	"github.com/deploymenttheory/go-workflow-composer/internal/surveys"
)

// rootOptions is the state shared by every subcommand of one invocation
type rootOptions struct {
	cfgFile string
	cfg     *config.AppConfig
}

// NewRootCommand builds the command tree. Each call returns an independent
// tree so tests can run commands side by side.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   config.AppName,
		Short: "Build, validate and submit browser automation workflows",
		Long: `go-workflow-composer assembles declarative browser automation workflows,
validates every block and placeholder locally, and submits the result to a
Skyvern-compatible workflow service.

Without --definition the built-in TopSurveys workflow is used, with its
parameter defaults taken from configuration.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initialize(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is search in standard locations)")
	addConfigFlags(rootCmd)

	rootCmd.AddCommand(
		newCreateCmd(opts),
		newRenderCmd(opts),
		newValidateCmd(opts),
		newHistoryCmd(opts),
		newAuthCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// addConfigFlags declares a persistent flag for every entry in
// config.FlagBindings. Flag defaults are informational; unset flags fall
// through to environment, config file and defaults.
func addConfigFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	persona := surveys.DefaultPersona()
	survey := surveys.DefaultOptions()

	flags.Bool("debug", false, "Enable debug logging")
	flags.String("log-format", "human", "Log format: json or human")
	flags.String("log-file", "", "Also write logs to this file")

	flags.String("base-url", "http://localhost:8000", "Workflow service base URL")
	flags.String("ui-url", "http://localhost:8080", "Workflow service UI URL, used to print the workflow link")
	flags.String("api-key", "", "Workflow service API key (default is the keychain entry)")
	flags.Duration("timeout", 30*time.Second, "Request timeout")

	flags.String("site-url", survey.SiteURL, "Survey site URL")
	flags.String("username", "", "Survey site username")
	flags.String("password", "", "Survey site password")
	flags.String("persona-name", persona.Name, "Persona name")
	flags.Int("persona-age", persona.Age, "Persona age")
	flags.String("persona-gender", persona.Gender, "Persona gender")
	flags.String("persona-income", persona.Income, "Persona income bracket")
	flags.String("education", persona.Education, "Persona education level")
	flags.String("employment", persona.Employment, "Persona employment status")
	flags.String("location", persona.Location, "Persona location")
	flags.Int("max-surveys", survey.MaxSurveysPerRun, "Maximum surveys attempted per run")
	flags.Int("survey-delay", survey.SurveyDelaySeconds, "Seconds to wait between surveys")

	flags.String("record-path", "topsurveys_workflow_info.json", "Where to write the workflow record; empty disables it")
	flags.String("history-db", "", "Submission history database (default is in the user data directory)")

	_ = flags.MarkHidden("password")
}

// initialize loads configuration and starts logging for the invoked command
func (o *rootOptions) initialize(cmd *cobra.Command) error {
	if err := config.Initialize(o.cfgFile, cmd.Flags()); err != nil {
		return err
	}
	cfg := config.Instance
	o.cfg = &cfg

	if err := logger.InitLogger(logger.LoggerConfig{
		Debug:     cfg.Debug,
		LogFormat: cfg.LogFormat,
		LogFile:   cfg.LogFile,
	}); err != nil {
		return err
	}

	logger.LogDebug("Configuration loaded", map[string]interface{}{
		"config_file": config.ConfigFile,
		"command":     cmd.CommandPath(),
	})
	return nil
}

// Execute runs the command line and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		reportError(stderr, err)
		return 1
	}
	return 0
}

// reportError prints a single failure line naming the error kind
func reportError(w io.Writer, err error) {
	if kind := errors.Kind(err); kind != "Error" {
		fmt.Fprintf(w, "Error: %s: %v\n", kind, err)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
