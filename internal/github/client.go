// Package github implements the checker's remote Source on top of the GitHub
// REST API. Every call is rate limited client-side and retried on transient
// failures.
package github

import (
	"context"
	"fmt"
	"strings"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/fyrsmithlabs/secretsguard/internal/config"
)

// NewClient creates an authenticated GitHub client. An apiURL other than the
// public API endpoint configures the client for GitHub Enterprise Server.
func NewClient(ctx context.Context, token config.Secret, apiURL string) (*gh.Client, error) {
	if !token.IsSet() {
		return nil, fmt.Errorf("GitHub token not set")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token.Value()})
	tc := oauth2.NewClient(ctx, ts)
	client := gh.NewClient(tc)

	if isPublicAPI(apiURL) {
		return client, nil
	}

	client, err := client.WithEnterpriseURLs(apiURL, apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub API URL %q: %w", apiURL, err)
	}
	return client, nil
}

func isPublicAPI(apiURL string) bool {
	return apiURL == "" || strings.TrimSuffix(apiURL, "/") == strings.TrimSuffix(config.DefaultAPIURL, "/")
}
