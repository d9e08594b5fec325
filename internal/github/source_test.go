package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/secretsguard/internal/checker"
	"github.com/fyrsmithlabs/secretsguard/internal/inventory"
	"github.com/fyrsmithlabs/secretsguard/internal/logging"
)

// setup starts a test API server and returns a Source pointed at it.
func setup(t *testing.T) (*http.ServeMux, *Source, *logging.TestLogger) {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := gh.NewClient(nil)
	u, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = u

	logger := logging.NewTestLogger()
	src := NewSource(client, SourceConfig{
		Retry: RetryConfig{
			MaxRetries:        2,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        5 * time.Millisecond,
			BackoffMultiplier: 2,
		},
	}, logger.Logger)
	return mux, src, logger
}

func TestSource_Repository(t *testing.T) {
	tests := []struct {
		name string
		body string
		want inventory.Repository
	}{
		{
			name: "organization private",
			body: `{"full_name":"acme/widgets","private":true,"visibility":"private","owner":{"login":"acme","type":"Organization"}}`,
			want: inventory.Repository{Owner: "acme", Name: "widgets", FullName: "acme/widgets", OwnerKind: inventory.OwnerOrganization, Visibility: inventory.VisibilityPrivate},
		},
		{
			name: "organization internal",
			body: `{"full_name":"acme/widgets","private":true,"visibility":"internal","owner":{"login":"acme","type":"Organization"}}`,
			want: inventory.Repository{Owner: "acme", Name: "widgets", FullName: "acme/widgets", OwnerKind: inventory.OwnerOrganization, Visibility: inventory.VisibilityInternal},
		},
		{
			name: "user without visibility field",
			body: `{"full_name":"acme/widgets","private":true,"owner":{"login":"acme","type":"User"}}`,
			want: inventory.Repository{Owner: "acme", Name: "widgets", FullName: "acme/widgets", OwnerKind: inventory.OwnerUser, Visibility: inventory.VisibilityPrivate},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, src, _ := setup(t)
			mux.HandleFunc("/repos/acme/widgets", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				fmt.Fprint(w, tt.body)
			})

			got, err := src.Repository(context.Background(), "acme", "widgets")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSource_RepositoryNotFound(t *testing.T) {
	mux, src, _ := setup(t)
	var calls atomic.Int32
	mux.HandleFunc("/repos/acme/missing", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})

	_, err := src.Repository(context.Background(), "acme", "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, checker.ErrNotFound)
	assert.Equal(t, int32(1), calls.Load(), "404 is not retried")
}

func TestSource_OrganizationSecretsPaginates(t *testing.T) {
	mux, src, _ := setup(t)
	mux.HandleFunc("/orgs/acme/actions/secrets", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(`<http://%s/orgs/acme/actions/secrets?page=2&per_page=100>; rel="next"`, r.Host))
			fmt.Fprint(w, `{"total_count":3,"secrets":[{"name":"ORG_ALL","visibility":"all"},{"name":"ORG_PRIVATE","visibility":"private"}]}`)
		case "2":
			fmt.Fprint(w, `{"total_count":3,"secrets":[{"name":"ORG_SELECTED","visibility":"selected"},{"name":"ORG_NEW","visibility":"enterprise"}]}`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})

	got, err := src.OrganizationSecrets(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, []inventory.OrgSecret{
		{Name: "ORG_ALL", Scope: inventory.ScopeAll},
		{Name: "ORG_PRIVATE", Scope: inventory.ScopePrivate},
		{Name: "ORG_SELECTED", Scope: inventory.ScopeSelected},
		{Name: "ORG_NEW", Scope: inventory.ScopeUnknown},
	}, got)
}

func TestSource_SelectedRepositories(t *testing.T) {
	mux, src, _ := setup(t)
	mux.HandleFunc("/orgs/acme/actions/secrets/DEPLOY_KEY/repositories", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total_count":2,"repositories":[{"full_name":"acme/widgets"},{"full_name":"acme/gadgets"}]}`)
	})

	got, err := src.SelectedRepositories(context.Background(), "acme", "DEPLOY_KEY")
	require.NoError(t, err)
	assert.Equal(t, []string{"acme/widgets", "acme/gadgets"}, got)
}

func TestSource_RepositorySecrets(t *testing.T) {
	mux, src, _ := setup(t)
	mux.HandleFunc("/repos/acme/widgets/actions/secrets", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total_count":2,"secrets":[{"name":"NPM_TOKEN"},{"name":"SLACK_WEBHOOK"}]}`)
	})

	got, err := src.RepositorySecrets(context.Background(), "acme", "widgets")
	require.NoError(t, err)
	assert.Equal(t, []string{"NPM_TOKEN", "SLACK_WEBHOOK"}, got)
}

func TestSource_ListDirectory(t *testing.T) {
	mux, src, _ := setup(t)
	mux.HandleFunc("/repos/acme/widgets/contents/.github/workflows", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "release", r.URL.Query().Get("ref"))
		fmt.Fprint(w, `[
			{"type":"file","name":"ci.yml","path":".github/workflows/ci.yml"},
			{"type":"dir","name":"templates","path":".github/workflows/templates"}
		]`)
	})

	got, err := src.ListDirectory(context.Background(), "acme", "widgets", ".github/workflows", "release")
	require.NoError(t, err)
	assert.Equal(t, []checker.Entry{
		{Name: "ci.yml", Path: ".github/workflows/ci.yml", Type: checker.EntryFile},
		{Name: "templates", Path: ".github/workflows/templates", Type: checker.EntryDir},
	}, got)
}

func TestSource_ListDirectoryOnFile(t *testing.T) {
	mux, src, _ := setup(t)
	mux.HandleFunc("/repos/acme/widgets/contents/README.md", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"type":"file","name":"README.md","path":"README.md","encoding":"base64","content":""}`)
	})

	_, err := src.ListDirectory(context.Background(), "acme", "widgets", "README.md", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestSource_FileContent(t *testing.T) {
	text := "on: push\nenv:\n  A: ${{ secrets.NPM_TOKEN }}\n"
	encoded := base64.StdEncoding.EncodeToString([]byte(text))

	mux, src, _ := setup(t)
	mux.HandleFunc("/repos/acme/widgets/contents/.github/workflows/ci.yml", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("ref"))
		fmt.Fprintf(w, `{"type":"file","name":"ci.yml","path":".github/workflows/ci.yml","encoding":"base64","content":%q}`,
			encoded[:16]+"\n"+encoded[16:])
	})

	got, err := src.FileContent(context.Background(), "acme", "widgets", ".github/workflows/ci.yml", "")
	require.NoError(t, err)
	assert.Equal(t, "base64", got.Encoding)

	decoded, err := checker.DecodeContent(got)
	require.NoError(t, err)
	assert.Equal(t, text, decoded)
}

func TestSource_RetriesTransientErrors(t *testing.T) {
	mux, src, logger := setup(t)
	var calls atomic.Int32
	mux.HandleFunc("/repos/acme/widgets/actions/secrets", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"total_count":1,"secrets":[{"name":"NPM_TOKEN"}]}`)
	})

	got, err := src.RepositorySecrets(context.Background(), "acme", "widgets")
	require.NoError(t, err)
	assert.Equal(t, []string{"NPM_TOKEN"}, got)
	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, logger.FilterMessage("Retrying GitHub API operation").All(), 2)
	logger.AssertLogged(t, zapcore.InfoLevel, "recovered after retries")
}

func TestSource_GivesUpAfterMaxRetries(t *testing.T) {
	mux, src, _ := setup(t)
	var calls atomic.Int32
	mux.HandleFunc("/repos/acme/widgets/actions/secrets", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := src.RepositorySecrets(context.Background(), "acme", "widgets")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 2 retries")
	assert.Equal(t, int32(3), calls.Load())
	assert.NotErrorIs(t, err, checker.ErrNotFound)
}

func TestSource_CanceledContext(t *testing.T) {
	_, src, _ := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.RepositorySecrets(ctx, "acme", "widgets")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSource_RateLimit(t *testing.T) {
	client := gh.NewClient(nil)

	unlimited := NewSource(client, SourceConfig{}, nil)
	assert.Equal(t, rate.Inf, unlimited.limiter.Limit())

	limited := NewSource(client, SourceConfig{RateLimit: 5}, nil)
	assert.InDelta(t, 5.0, float64(limited.limiter.Limit()), 0.001)
	assert.Equal(t, 5, limited.limiter.Burst())

	slow := NewSource(client, SourceConfig{RateLimit: 0.5}, nil)
	assert.Equal(t, 1, slow.limiter.Burst())

	assert.Equal(t, DefaultRetryConfig(), unlimited.retry)
}
