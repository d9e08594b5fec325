package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/secretsguard/internal/actions"
	"github.com/fyrsmithlabs/secretsguard/internal/checker"
	"github.com/fyrsmithlabs/secretsguard/internal/config"
	"github.com/fyrsmithlabs/secretsguard/internal/github"
	"github.com/fyrsmithlabs/secretsguard/internal/logging"
	"github.com/fyrsmithlabs/secretsguard/internal/telemetry"
)

const (
	outputActions = "actions"
	outputConsole = "console"
)

// checkFlags holds the root command's flag values.
type checkFlags struct {
	configPath    string
	repository    string
	ref           string
	output        string
	workflowsPath string
	includeYAML   bool
	predefined    string
	optional      string
	forbidden     string
	concurrency   int
	logLevel      string
	logFormat     string
}

// overrides returns the config values of flags set on the command line.
func (f checkFlags) overrides(cmd *cobra.Command) config.Overrides {
	o := config.Overrides{}
	set := func(flag, key string, value interface{}) {
		if cmd.Flags().Changed(flag) {
			o[key] = value
		}
	}
	set("repository", "repository", f.repository)
	set("ref", "ref", f.ref)
	set("output", "output", f.output)
	set("workflows-path", "workflows_path", f.workflowsPath)
	set("include-yaml-extension", "include_yaml_extension", f.includeYAML)
	set("predefined-secrets", "predefined_secrets", f.predefined)
	set("optional-secrets", "optional_secrets", f.optional)
	set("forbidden-secrets", "forbidden_secrets", f.forbidden)
	set("concurrency", "concurrency", f.concurrency)
	set("log-level", "logging.level", f.logLevel)
	set("log-format", "logging.format", f.logFormat)
	return o
}

// runCheck loads configuration, runs the checker and turns a failed verdict
// into checker.ErrChecksFailed. Every failure is reported before returning.
func runCheck(cmd *cobra.Command, flags checkFlags, getenv func(string) string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := config.Load(flags.configPath, flags.overrides(cmd))
	if err != nil {
		newReporter(selectOutput(flags.output, getenv), out).Error(err.Error(), checker.Annotation{})
		return err
	}

	reporter := newReporter(selectOutput(cfg.Output, getenv), out)
	if r, ok := reporter.(*actions.Reporter); ok {
		r.Mask(cfg.GitHubToken.Value())
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		reporter.Error(err.Error(), checker.Annotation{})
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Debug(ctx, "configuration loaded",
		zap.String("repository", cfg.Repository),
		zap.String("ref", cfg.Ref),
		zap.String("api_url", cfg.APIURL),
		logging.Secret("github_token", cfg.GitHubToken),
	)

	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry, version), logger)
	if err != nil {
		reporter.Error(err.Error(), checker.Annotation{})
		return err
	}
	defer func() {
		if err := tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
		}
	}()

	client, err := github.NewClient(ctx, cfg.GitHubToken, cfg.APIURL)
	if err != nil {
		reporter.Error(err.Error(), checker.Annotation{})
		return err
	}
	source := github.NewSource(client, github.SourceConfig{
		RateLimit: cfg.RateLimit,
		Retry:     github.RetryConfigFrom(cfg.Retry),
	}, logger)

	chk, err := checker.New(source, reporter, logger, checker.OptionsFromConfig(cfg))
	if err != nil {
		reporter.Error(err.Error(), checker.Annotation{})
		return err
	}

	v, err := chk.Run(ctx)
	if err != nil {
		reporter.Error(err.Error(), checker.Annotation{})
		return err
	}
	if !v.Passed() {
		return checker.ErrChecksFailed
	}
	return nil
}

// selectOutput resolves the report format. Without an explicit choice the
// Actions format is used when running on an Actions runner.
func selectOutput(configured string, getenv func(string) string) string {
	if configured != "" {
		return configured
	}
	if getenv("GITHUB_ACTIONS") == "true" {
		return outputActions
	}
	return outputConsole
}

func newReporter(output string, w io.Writer) checker.Reporter {
	if output == outputActions {
		return actions.NewReporter(w)
	}
	return actions.NewConsoleReporter(w, !color.NoColor && w == io.Writer(os.Stdout))
}

func newLogger(cfg *config.Config, w io.Writer) (*logging.Logger, error) {
	level, err := logging.LevelFromString(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}

	logCfg := logging.NewDefaultConfig()
	logCfg.Level = level
	logCfg.Format = cfg.Logging.Format
	return logging.NewLogger(logCfg, w)
}
