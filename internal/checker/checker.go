// Package checker runs the secret reference checks for one repository.
//
// A run gathers the set of secrets accessible to the repository, scans every
// workflow document for secret references, classifies each reference and
// reports the results to a Reporter. All remote reads go through a Source.
package checker

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/secretsguard/internal/config"
	"github.com/fyrsmithlabs/secretsguard/internal/inventory"
	"github.com/fyrsmithlabs/secretsguard/internal/logging"
	"github.com/fyrsmithlabs/secretsguard/internal/verdict"
)

// Options is the immutable input of a run.
type Options struct {
	Owner string
	Repo  string
	// Ref selects the revision workflows are read at. Empty means the default branch.
	Ref string

	WorkflowsPath        string
	IncludeYAMLExtension bool

	Predefined []string
	Optional   []string
	Forbidden  []string

	// Concurrency bounds in-flight remote reads. Values < 1 mean 1.
	Concurrency int
}

// OptionsFromConfig derives run options from a loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Owner:                cfg.Owner(),
		Repo:                 cfg.Name(),
		Ref:                  cfg.Ref,
		WorkflowsPath:        cfg.WorkflowsPath,
		IncludeYAMLExtension: cfg.IncludeYAMLExtension,
		Predefined:           cfg.PredefinedSecrets,
		Optional:             cfg.OptionalSecrets,
		Forbidden:            cfg.ForbiddenSecrets,
		Concurrency:          cfg.Concurrency,
	}
}

// Checker executes runs. It holds no per-run state and may be reused.
type Checker struct {
	source   Source
	reporter Reporter
	logger   *logging.Logger
	opts     Options
	tracer   trace.Tracer
	metrics  *metrics
}

// New creates a Checker. A nil logger disables logging.
func New(source Source, reporter Reporter, logger *logging.Logger, opts Options) (*Checker, error) {
	if source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if reporter == nil {
		return nil, fmt.Errorf("reporter is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.WorkflowsPath == "" {
		opts.WorkflowsPath = config.DefaultWorkflowsPath
	}

	m, err := newMetrics(defaultMeter())
	if err != nil {
		return nil, err
	}

	return &Checker{
		source:   source,
		reporter: reporter,
		logger:   logger.Named("checker"),
		opts:     opts,
		tracer:   otel.Tracer(instrumentationName),
		metrics:  m,
	}, nil
}

// document is a fetched workflow file.
type document struct {
	name string
	path string
	text string
}

// Run performs one full check. It returns the verdict when every remote read
// succeeded, whether or not the checks passed. Any Source failure aborts the
// run with a *TransportError.
func (c *Checker) Run(ctx context.Context) (_ *verdict.Verdict, err error) {
	full := c.opts.Owner + "/" + c.opts.Repo
	ctx = logging.WithRepository(ctx, full)

	ctx, span := c.tracer.Start(ctx, "checker.Run", trace.WithAttributes(
		attribute.String("repository", full),
		attribute.String("ref", c.opts.Ref),
	))
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		c.metrics.duration.Record(ctx, time.Since(start).Seconds())
	}()

	c.logger.Info(ctx, "starting secret check", zap.String("ref", c.opts.Ref))

	accessible, err := c.accessibleSecrets(ctx)
	if err != nil {
		return nil, err
	}

	c.reporter.StartGroup("Accessible secrets")
	for _, name := range accessible.Names() {
		c.reporter.Info(name)
	}
	c.reporter.EndGroup()

	docs, err := c.fetchDocuments(ctx)
	if err != nil {
		return nil, err
	}

	var diags []verdict.Diagnostic
	for _, doc := range docs {
		docDiags := verdict.ClassifyDocument(doc.path, doc.text, accessible, c.opts.Optional)
		c.reportDocument(ctx, doc, docDiags)
		diags = append(diags, docDiags...)
	}
	c.metrics.documents.Add(ctx, int64(len(docs)))

	v := verdict.Aggregate(diags, c.opts.Forbidden, accessible)
	for _, name := range v.Forbidden {
		c.reporter.Error(fmt.Sprintf("Forbidden secret %s is accessible to %s", name, full), Annotation{})
	}
	c.metrics.forbidden.Add(ctx, int64(len(v.Forbidden)))

	c.reporter.Info(summary(v, len(docs)))

	span.SetAttributes(
		attribute.Int("documents", len(docs)),
		attribute.Int("references", len(v.Diagnostics)),
		attribute.Bool("passed", v.Passed()),
	)
	c.logger.Info(ctx, "secret check finished",
		zap.Int("documents", len(docs)),
		zap.Int("references", len(v.Diagnostics)),
		zap.Bool("passed", v.Passed()),
	)

	return v, nil
}

// accessibleSecrets assembles the accessible set: predefined names, visible
// organization secrets and repository secrets.
func (c *Checker) accessibleSecrets(ctx context.Context) (inventory.AccessibleSet, error) {
	repo, err := c.source.Repository(ctx, c.opts.Owner, c.opts.Repo)
	if err != nil {
		return inventory.AccessibleSet{}, transportError("get repository", err)
	}
	c.logger.Debug(ctx, "repository metadata",
		zap.Stringer("owner_kind", repo.OwnerKind),
		zap.String("visibility", string(repo.Visibility)),
	)

	var orgVisible []string
	if repo.IsOrganization() {
		c.reporter.Info("Getting organization secrets")
		orgSecrets, err := c.source.OrganizationSecrets(ctx, repo.Owner)
		if err != nil {
			return inventory.AccessibleSet{}, transportError("list organization secrets", err)
		}
		for _, s := range orgSecrets {
			if s.Scope == inventory.ScopeUnknown {
				c.logger.Warn(ctx, "organization secret has unknown visibility, treating as inaccessible",
					zap.String("secret", s.Name))
			}
		}

		lookup := func(ctx context.Context, secret string) ([]string, error) {
			return c.source.SelectedRepositories(ctx, repo.Owner, secret)
		}
		visible, err := inventory.Resolve(ctx, repo, orgSecrets, lookup, inventory.ResolveOptions{
			Concurrency: c.opts.Concurrency,
		})
		if err != nil {
			return inventory.AccessibleSet{}, transportError("resolve organization secrets", err)
		}
		orgVisible = inventory.Names(visible)
		c.logger.Debug(ctx, "resolved organization secrets",
			zap.Int("total", len(orgSecrets)),
			zap.Int("visible", len(orgVisible)),
		)
	}

	c.reporter.Info("Getting repository secrets")
	repoSecrets, err := c.source.RepositorySecrets(ctx, c.opts.Owner, c.opts.Repo)
	if err != nil {
		return inventory.AccessibleSet{}, transportError("list repository secrets", err)
	}

	return inventory.Build(c.opts.Predefined, orgVisible, repoSecrets), nil
}

// fetchDocuments lists the workflows directory and fetches every candidate
// document. Documents are returned in listing order.
func (c *Checker) fetchDocuments(ctx context.Context) ([]document, error) {
	entries, err := c.source.ListDirectory(ctx, c.opts.Owner, c.opts.Repo, c.opts.WorkflowsPath, c.opts.Ref)
	if err != nil {
		return nil, transportError("list "+c.opts.WorkflowsPath, err)
	}

	var candidates []Entry
	for _, e := range entries {
		if c.isWorkflow(e) {
			candidates = append(candidates, e)
		}
	}

	docs := make([]document, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.opts.Concurrency, 1))

	for i, e := range candidates {
		p := e.Path
		if p == "" {
			p = path.Join(c.opts.WorkflowsPath, e.Name)
		}
		g.Go(func() error {
			content, err := c.source.FileContent(gctx, c.opts.Owner, c.opts.Repo, p, c.opts.Ref)
			if err != nil {
				return transportError("get "+p, err)
			}
			text, err := DecodeContent(content)
			if err != nil {
				return transportError("decode "+p, err)
			}
			docs[i] = document{name: e.Name, path: p, text: text}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *Checker) isWorkflow(e Entry) bool {
	if e.Type != EntryFile {
		return false
	}
	if strings.HasSuffix(e.Name, ".yml") {
		return true
	}
	return c.opts.IncludeYAMLExtension && strings.HasSuffix(e.Name, ".yaml")
}

func (c *Checker) reportDocument(ctx context.Context, doc document, diags []verdict.Diagnostic) {
	ctx = logging.WithDocument(ctx, doc.path)

	c.reporter.StartGroup("Processing " + doc.name)
	defer c.reporter.EndGroup()

	// Info lines use 1-indexed columns, like error annotations.
	for _, d := range diags {
		c.metrics.references.Add(ctx, 1, metric.WithAttributes(
			attribute.String("classification", d.Classification.String()),
		))
		c.logger.Trace(ctx, "classified reference",
			zap.String("secret", d.Secret),
			zap.Stringer("classification", d.Classification),
			zap.Int("line", d.Line),
			zap.Int("column", d.Column),
		)

		switch d.Classification {
		case verdict.Configured:
			c.reporter.Info(fmt.Sprintf("%s:%d:%d: secret %s is configured", d.Path, d.Line, d.Column+1, d.Secret))
		case verdict.OptionalMissing:
			c.reporter.Info(fmt.Sprintf("%s:%d:%d: optional secret %s is not accessible", d.Path, d.Line, d.Column+1, d.Secret))
		case verdict.HardMissing:
			c.reporter.Error(
				fmt.Sprintf("Secret %s is not accessible to %s/%s", d.Secret, c.opts.Owner, c.opts.Repo),
				Annotation{File: d.Path, Line: d.Line, Column: d.Column},
			)
		}
	}

	c.logger.Debug(ctx, "processed workflow document", zap.Int("references", len(diags)))
}

func summary(v *verdict.Verdict, documents int) string {
	counts := v.Counts()
	return fmt.Sprintf("Checked %d workflow documents: %d configured, %d optional missing, %d missing, %d forbidden",
		documents,
		counts[verdict.Configured],
		counts[verdict.OptionalMissing],
		counts[verdict.HardMissing],
		len(v.Forbidden),
	)
}
