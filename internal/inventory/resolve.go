package inventory

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"
)

// SelectedLookup returns the full names of the repositories a selected-scope
// organization secret is granted to. It is a remote call.
type SelectedLookup func(ctx context.Context, secretName string) ([]string, error)

// ResolveOptions tunes Resolve.
type ResolveOptions struct {
	// Concurrency bounds in-flight selected-repository lookups. Values < 1 mean 1.
	Concurrency int
}

// Resolve returns the subset of secrets visible to repo, in input order.
//
// ScopeAll secrets are always visible. ScopePrivate secrets are visible only to
// repositories whose visibility is exactly "private"; internal repositories do
// not qualify. ScopeSelected secrets are visible when repo.FullName is in the
// secret's selected-repository list, fetched through lookup exactly once per
// selected secret. lookup is never called for other scopes. ScopeUnknown
// secrets are never visible.
//
// Lookups run concurrently. The first lookup error cancels the rest and is
// returned.
func Resolve(ctx context.Context, repo Repository, secrets []OrgSecret, lookup SelectedLookup, opts ResolveOptions) ([]OrgSecret, error) {
	visible := make([]bool, len(secrets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Concurrency, 1))

	for i, secret := range secrets {
		switch secret.Scope {
		case ScopeAll:
			visible[i] = true
		case ScopePrivate:
			visible[i] = repo.Visibility == VisibilityPrivate
		case ScopeSelected:
			g.Go(func() error {
				repos, err := lookup(gctx, secret.Name)
				if err != nil {
					return fmt.Errorf("list selected repositories for %s: %w", secret.Name, err)
				}
				visible[i] = slices.Contains(repos, repo.FullName)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]OrgSecret, 0, len(secrets))
	for i, secret := range secrets {
		if visible[i] {
			out = append(out, secret)
		}
	}
	return out, nil
}

// Names returns the names of secrets in order.
func Names(secrets []OrgSecret) []string {
	names := make([]string, len(secrets))
	for i, s := range secrets {
		names[i] = s.Name
	}
	return names
}
