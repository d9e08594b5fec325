// Package main implements the secretsguard CLI.
//
// secretsguard verifies that every secret referenced by a repository's GitHub
// Actions workflows is accessible to that repository. It runs as a GitHub
// Action, configured through action inputs, or locally from a terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version information, set at build time
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Getenv).ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. getenv is consulted for runner
// detection only; configuration loading reads the environment itself.
func newRootCmd(getenv func(string) string) *cobra.Command {
	var flags checkFlags

	rootCmd := &cobra.Command{
		Use:   "secretsguard",
		Short: "Check that workflow secret references are accessible",
		Long: `secretsguard checks every GitHub Actions workflow in a repository for
references to secrets that the repository cannot access.

Inside a GitHub Actions job it reads its inputs from the runner environment
(INPUT_GITHUBTOKEN, INPUT_OPTIONALSECRETS, ...) and reports missing secrets as
error annotations. Outside Actions it prints a readable report.

Examples:
  # Check the repository of the current Actions run
  secretsguard

  # Check a repository locally at a given ref
  GITHUB_TOKEN=ghp_... secretsguard --repository acme/widgets --ref main

  # Treat some secrets as optional and fail if a legacy one still exists
  secretsguard --repository acme/widgets \
    --optional-secrets SLACK_WEBHOOK,CODECOV_TOKEN \
    --forbidden-secrets LEGACY_DEPLOY_KEY`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, flags, getenv)
		},
	}

	f := rootCmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "path to a YAML config file")
	f.StringVar(&flags.repository, "repository", "", "repository to check in owner/name form")
	f.StringVar(&flags.ref, "ref", "", "branch, tag or commit to read workflows at (default branch when empty)")
	f.StringVar(&flags.output, "output", "", "report format: actions or console (auto-detected when empty)")
	f.StringVar(&flags.workflowsPath, "workflows-path", "", "directory holding workflow files")
	f.BoolVar(&flags.includeYAML, "include-yaml-extension", false, "also check .yaml workflow files")
	f.StringVar(&flags.predefined, "predefined-secrets", "", "secrets always available to workflows")
	f.StringVar(&flags.optional, "optional-secrets", "", "secrets that may be missing without failing the check")
	f.StringVar(&flags.forbidden, "forbidden-secrets", "", "secrets that must not be accessible")
	f.IntVar(&flags.concurrency, "concurrency", 0, "maximum concurrent API requests")
	f.StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	f.StringVar(&flags.logFormat, "log-format", "", "log format: console or json")

	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the secretsguard version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "secretsguard %s\n", version)
		},
	}
}
