package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/deploymenttheory/go-workflow-composer/internal/credentials"
	"github.com/deploymenttheory/go-workflow-composer/internal/ui"
)

func newAuthCmd() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the workflow service API key in the system keychain",
	}

	authCmd.AddCommand(&cobra.Command{
		Use:   "set-key",
		Short: "Store the API key in the system keychain",
		Long: `Reads the API key and stores it in the system keychain. On a terminal the
key is read without echo; otherwise it is read from the first line of stdin.

A key set through configuration or environment takes precedence over the
stored key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := readAPIKey(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := credentials.StoreAPIKey(key); err != nil {
				return err
			}
			ui.NewPrinter(cmd.OutOrStdout()).OK("API key stored in the system keychain")
			return nil
		},
	})

	authCmd.AddCommand(&cobra.Command{
		Use:   "delete-key",
		Short: "Remove the API key from the system keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := credentials.DeleteAPIKey(); err != nil {
				return err
			}
			ui.NewPrinter(cmd.OutOrStdout()).OK("API key removed from the system keychain")
			return nil
		},
	})

	return authCmd
}

// readAPIKey prompts without echo on a terminal, otherwise reads one line
func readAPIKey(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "API key: ")
		key, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}
		return string(key), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	return strings.TrimSpace(line), nil
}
