package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/secretsguard/internal/checker"
	"github.com/fyrsmithlabs/secretsguard/internal/inventory"
	"github.com/fyrsmithlabs/secretsguard/internal/logging"
)

const perPage = 100

// SourceConfig tunes a Source.
type SourceConfig struct {
	// RateLimit is the sustained request rate in requests per second.
	// Zero disables client-side limiting.
	RateLimit float64
	Retry     RetryConfig
}

// Source reads repository metadata, secrets and workflow files through the
// GitHub REST API. It is safe for concurrent use.
type Source struct {
	client  *gh.Client
	limiter *rate.Limiter
	retry   RetryConfig
	logger  *logging.Logger
}

var _ checker.Source = (*Source)(nil)

// NewSource wraps client. A nil logger disables logging.
func NewSource(client *gh.Client, cfg SourceConfig, logger *logging.Logger) *Source {
	if logger == nil {
		logger = logging.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(int(cfg.RateLimit), 1))
	}

	cfg.Retry.ApplyDefaults()
	return &Source{
		client:  client,
		limiter: limiter,
		retry:   cfg.Retry,
		logger:  logger.Named("github"),
	}
}

// call runs one API request under the rate limiter and retry policy.
func (s *Source) call(ctx context.Context, operation func() (*gh.Response, error)) error {
	_, err := withRetry(ctx, s.logger, s.retry, func() (*gh.Response, error) {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return operation()
	})
	return mapError(err)
}

// paginate collects every page of a list endpoint.
func paginate[T any](ctx context.Context, s *Source, fetch func(opts *gh.ListOptions) ([]T, *gh.Response, error)) ([]T, error) {
	var all []T
	opts := &gh.ListOptions{PerPage: perPage}
	for {
		var (
			items []T
			resp  *gh.Response
		)
		err := s.call(ctx, func() (*gh.Response, error) {
			var err error
			items, resp, err = fetch(opts)
			return resp, err
		})
		if err != nil {
			return nil, err
		}
		all = append(all, items...)

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// Repository implements checker.Source.
func (s *Source) Repository(ctx context.Context, owner, repo string) (inventory.Repository, error) {
	var r *gh.Repository
	err := s.call(ctx, func() (*gh.Response, error) {
		var (
			resp *gh.Response
			err  error
		)
		r, resp, err = s.client.Repositories.Get(ctx, owner, repo)
		return resp, err
	})
	if err != nil {
		return inventory.Repository{}, err
	}

	visibility := inventory.ParseVisibility(r.GetVisibility())
	if visibility == "" {
		// Older Enterprise Server releases omit visibility.
		visibility = inventory.VisibilityPublic
		if r.GetPrivate() {
			visibility = inventory.VisibilityPrivate
		}
	}

	fullName := r.GetFullName()
	if fullName == "" {
		fullName = owner + "/" + repo
	}

	return inventory.Repository{
		Owner:      owner,
		Name:       repo,
		FullName:   fullName,
		OwnerKind:  inventory.ParseOwnerKind(r.GetOwner().GetType()),
		Visibility: visibility,
	}, nil
}

// OrganizationSecrets implements checker.Source.
func (s *Source) OrganizationSecrets(ctx context.Context, org string) ([]inventory.OrgSecret, error) {
	secrets, err := paginate(ctx, s, func(opts *gh.ListOptions) ([]*gh.Secret, *gh.Response, error) {
		page, resp, err := s.client.Actions.ListOrgSecrets(ctx, org, opts)
		if page == nil {
			return nil, resp, err
		}
		return page.Secrets, resp, err
	})
	if err != nil {
		return nil, err
	}

	out := make([]inventory.OrgSecret, 0, len(secrets))
	for _, secret := range secrets {
		out = append(out, inventory.OrgSecret{
			Name:  secret.Name,
			Scope: inventory.ParseScope(secret.Visibility),
		})
	}
	return out, nil
}

// SelectedRepositories implements checker.Source.
func (s *Source) SelectedRepositories(ctx context.Context, org, secret string) ([]string, error) {
	repos, err := paginate(ctx, s, func(opts *gh.ListOptions) ([]*gh.Repository, *gh.Response, error) {
		page, resp, err := s.client.Actions.ListSelectedReposForOrgSecret(ctx, org, secret, opts)
		if page == nil {
			return nil, resp, err
		}
		return page.Repositories, resp, err
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(repos))
	for _, r := range repos {
		names = append(names, r.GetFullName())
	}
	return names, nil
}

// RepositorySecrets implements checker.Source.
func (s *Source) RepositorySecrets(ctx context.Context, owner, repo string) ([]string, error) {
	secrets, err := paginate(ctx, s, func(opts *gh.ListOptions) ([]*gh.Secret, *gh.Response, error) {
		page, resp, err := s.client.Actions.ListRepoSecrets(ctx, owner, repo, opts)
		if page == nil {
			return nil, resp, err
		}
		return page.Secrets, resp, err
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(secrets))
	for _, secret := range secrets {
		names = append(names, secret.Name)
	}
	return names, nil
}

// ListDirectory implements checker.Source.
func (s *Source) ListDirectory(ctx context.Context, owner, repo, path, ref string) ([]checker.Entry, error) {
	file, dir, err := s.getContents(ctx, owner, repo, path, ref)
	if err != nil {
		return nil, err
	}
	if file != nil {
		return nil, fmt.Errorf("%s is a file, not a directory", path)
	}

	entries := make([]checker.Entry, 0, len(dir))
	for _, c := range dir {
		entries = append(entries, checker.Entry{
			Name: c.GetName(),
			Path: c.GetPath(),
			Type: c.GetType(),
		})
	}
	return entries, nil
}

// FileContent implements checker.Source.
func (s *Source) FileContent(ctx context.Context, owner, repo, path, ref string) (checker.Content, error) {
	file, _, err := s.getContents(ctx, owner, repo, path, ref)
	if err != nil {
		return checker.Content{}, err
	}
	if file == nil {
		return checker.Content{}, fmt.Errorf("%s is a directory, not a file", path)
	}

	var data string
	if file.Content != nil {
		data = *file.Content
	}
	return checker.Content{Data: data, Encoding: file.GetEncoding()}, nil
}

func (s *Source) getContents(ctx context.Context, owner, repo, path, ref string) (*gh.RepositoryContent, []*gh.RepositoryContent, error) {
	var (
		file *gh.RepositoryContent
		dir  []*gh.RepositoryContent
	)
	opts := &gh.RepositoryContentGetOptions{Ref: ref}
	err := s.call(ctx, func() (*gh.Response, error) {
		var (
			resp *gh.Response
			err  error
		)
		file, dir, resp, err = s.client.Repositories.GetContents(ctx, owner, repo, path, opts)
		return resp, err
	})
	return file, dir, err
}

// mapError marks 404 responses with checker.ErrNotFound.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var errResp *gh.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", checker.ErrNotFound, err)
	}
	return err
}
