package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingLookup records how many times each secret's selection list is fetched.
type countingLookup struct {
	mu       sync.Mutex
	selected map[string][]string
	calls    map[string]int
	err      error
}

func newCountingLookup(selected map[string][]string) *countingLookup {
	return &countingLookup{selected: selected, calls: map[string]int{}}
}

func (c *countingLookup) lookup(_ context.Context, name string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[name]++
	if c.err != nil {
		return nil, c.err
	}
	return c.selected[name], nil
}

func repoWith(v Visibility) Repository {
	return Repository{
		Owner:      "acme",
		Name:       "widgets",
		FullName:   "acme/widgets",
		OwnerKind:  OwnerOrganization,
		Visibility: v,
	}
}

func TestResolve_ScopeAll(t *testing.T) {
	secrets := []OrgSecret{{Name: "NPM_TOKEN", Scope: ScopeAll}, {Name: "EMPTY_SCOPE", Scope: ParseScope("")}}

	for _, v := range []Visibility{VisibilityPublic, VisibilityPrivate, VisibilityInternal} {
		t.Run(string(v), func(t *testing.T) {
			lookup := newCountingLookup(nil)
			got, err := Resolve(context.Background(), repoWith(v), secrets, lookup.lookup, ResolveOptions{})
			require.NoError(t, err)
			assert.Equal(t, []string{"NPM_TOKEN", "EMPTY_SCOPE"}, Names(got))
			assert.Empty(t, lookup.calls)
		})
	}
}

func TestResolve_ScopePrivate(t *testing.T) {
	secrets := []OrgSecret{{Name: "PRIVATE_ONLY", Scope: ScopePrivate}}

	tests := []struct {
		visibility Visibility
		want       []string
	}{
		{VisibilityPrivate, []string{"PRIVATE_ONLY"}},
		{VisibilityPublic, []string{}},
		// internal repositories are deliberately not treated as private
		{VisibilityInternal, []string{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.visibility), func(t *testing.T) {
			lookup := newCountingLookup(nil)
			got, err := Resolve(context.Background(), repoWith(tt.visibility), secrets, lookup.lookup, ResolveOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, Names(got))
			assert.Empty(t, lookup.calls, "lookup must not be called for private scope")
		})
	}
}

func TestResolve_ScopeSelected(t *testing.T) {
	lookup := newCountingLookup(map[string][]string{
		"GRANTED":     {"acme/other", "acme/widgets"},
		"NOT_GRANTED": {"acme/other"},
		"NOBODY":      nil,
	})
	secrets := []OrgSecret{
		{Name: "GRANTED", Scope: ScopeSelected},
		{Name: "NOT_GRANTED", Scope: ScopeSelected},
		{Name: "EVERYONE", Scope: ScopeAll},
		{Name: "NOBODY", Scope: ScopeSelected},
	}

	got, err := Resolve(context.Background(), repoWith(VisibilityPublic), secrets, lookup.lookup, ResolveOptions{Concurrency: 3})
	require.NoError(t, err)

	assert.Equal(t, []string{"GRANTED", "EVERYONE"}, Names(got))
	assert.Equal(t, map[string]int{"GRANTED": 1, "NOT_GRANTED": 1, "NOBODY": 1}, lookup.calls)
}

func TestResolve_SelectedMatchIsExact(t *testing.T) {
	lookup := newCountingLookup(map[string][]string{"S": {"ACME/WIDGETS", "acme/widgets-fork"}})
	got, err := Resolve(context.Background(), repoWith(VisibilityPrivate),
		[]OrgSecret{{Name: "S", Scope: ScopeSelected}}, lookup.lookup, ResolveOptions{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolve_UnknownScopeNeverVisible(t *testing.T) {
	lookup := newCountingLookup(nil)
	got, err := Resolve(context.Background(), repoWith(VisibilityPrivate),
		[]OrgSecret{{Name: "ODD", Scope: ParseScope("enterprise")}}, lookup.lookup, ResolveOptions{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, lookup.calls)
}

func TestResolve_LookupError(t *testing.T) {
	lookup := newCountingLookup(nil)
	lookup.err = errors.New("boom")

	_, err := Resolve(context.Background(), repoWith(VisibilityPublic),
		[]OrgSecret{{Name: "SEL", Scope: ScopeSelected}}, lookup.lookup, ResolveOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, lookup.err)
	assert.Contains(t, err.Error(), "SEL")
}

func TestResolve_Empty(t *testing.T) {
	got, err := Resolve(context.Background(), repoWith(VisibilityPublic), nil, nil, ResolveOptions{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseScope(t *testing.T) {
	tests := map[string]Scope{
		"":         ScopeAll,
		"all":      ScopeAll,
		"ALL":      ScopeAll,
		"Private":  ScopePrivate,
		"selected": ScopeSelected,
		"SELECTED": ScopeSelected,
		"internal": ScopeUnknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseScope(in), "input %q", in)
	}
	assert.Equal(t, "selected", ScopeSelected.String())
	assert.Equal(t, "unknown", ScopeUnknown.String())
}

func TestParseOwnerKind(t *testing.T) {
	assert.Equal(t, OwnerOrganization, ParseOwnerKind("Organization"))
	assert.Equal(t, OwnerUser, ParseOwnerKind("User"))
	assert.Equal(t, OwnerUser, ParseOwnerKind(""))
	assert.True(t, repoWith(VisibilityPublic).IsOrganization())
	assert.Equal(t, VisibilityPrivate, ParseVisibility(" Private "))
}
