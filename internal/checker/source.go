package checker

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/secretsguard/internal/inventory"
)

// Source is the remote API the checker reads from. Every method is a
// suspension point; any error is fatal to the run.
type Source interface {
	// Repository fetches repository metadata. Returns an error wrapping
	// ErrNotFound when the repository does not exist or is inaccessible.
	Repository(ctx context.Context, owner, repo string) (inventory.Repository, error)
	// OrganizationSecrets lists every organization secret, all pages.
	OrganizationSecrets(ctx context.Context, org string) ([]inventory.OrgSecret, error)
	// SelectedRepositories lists the full names of repositories a
	// selected-scope organization secret is granted to.
	SelectedRepositories(ctx context.Context, org, secret string) ([]string, error)
	// RepositorySecrets lists the names of repository secrets, all pages.
	RepositorySecrets(ctx context.Context, owner, repo string) ([]string, error)
	// ListDirectory lists a directory at ref. An empty ref means the default branch.
	ListDirectory(ctx context.Context, owner, repo, path, ref string) ([]Entry, error)
	// FileContent fetches a file at ref.
	FileContent(ctx context.Context, owner, repo, path, ref string) (Content, error)
}

// Entry types returned by ListDirectory.
const (
	EntryFile = "file"
	EntryDir  = "dir"
)

// Entry is one item of a directory listing.
type Entry struct {
	Name string
	Path string
	Type string
}

// Content is a file body as transported by the API.
type Content struct {
	Data     string
	Encoding string
}

// DecodeContent returns the text of c. Base64 content may contain line breaks, as the
// contents API wraps it at 60 columns.
func DecodeContent(c Content) (string, error) {
	switch strings.ToLower(c.Encoding) {
	case "", "utf-8", "utf8", "none":
		return c.Data, nil
	case "base64":
		raw := strings.Map(func(r rune) rune {
			if r == '\n' || r == '\r' {
				return -1
			}
			return r
		}, c.Data)
		b, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return "", fmt.Errorf("decoding base64 content: %w", err)
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("unsupported content encoding %q", c.Encoding)
	}
}
