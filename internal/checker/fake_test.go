package checker

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/fyrsmithlabs/secretsguard/internal/inventory"
)

// fakeSource serves a single in-memory repository.
type fakeSource struct {
	mu sync.Mutex

	repo        inventory.Repository
	orgSecrets  []inventory.OrgSecret
	selected    map[string][]string
	repoSecrets []string
	entries     []Entry
	files       map[string]string

	errs  map[string]error // keyed by method name
	calls map[string]int
	refs  []string
}

func newFakeSource(fullName string) *fakeSource {
	owner, name, _ := strings.Cut(fullName, "/")
	return &fakeSource{
		repo: inventory.Repository{
			Owner:      owner,
			Name:       name,
			FullName:   fullName,
			OwnerKind:  inventory.OwnerUser,
			Visibility: inventory.VisibilityPrivate,
		},
		selected: map[string][]string{},
		files:    map[string]string{},
		errs:     map[string]error{},
		calls:    map[string]int{},
	}
}

// addWorkflow adds a file entry under .github/workflows served as base64.
func (f *fakeSource) addWorkflow(name, text string) {
	p := ".github/workflows/" + name
	f.entries = append(f.entries, Entry{Name: name, Path: p, Type: EntryFile})
	f.files[p] = text
}

func (f *fakeSource) record(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	return f.errs[method]
}

func (f *fakeSource) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeSource) Repository(_ context.Context, owner, repo string) (inventory.Repository, error) {
	if err := f.record("Repository"); err != nil {
		return inventory.Repository{}, err
	}
	if owner+"/"+repo != f.repo.FullName {
		return inventory.Repository{}, fmt.Errorf("repository %s/%s: %w", owner, repo, ErrNotFound)
	}
	return f.repo, nil
}

func (f *fakeSource) OrganizationSecrets(context.Context, string) ([]inventory.OrgSecret, error) {
	if err := f.record("OrganizationSecrets"); err != nil {
		return nil, err
	}
	return f.orgSecrets, nil
}

func (f *fakeSource) SelectedRepositories(_ context.Context, _ string, secret string) ([]string, error) {
	if err := f.record("SelectedRepositories"); err != nil {
		return nil, err
	}
	return f.selected[secret], nil
}

func (f *fakeSource) RepositorySecrets(context.Context, string, string) ([]string, error) {
	if err := f.record("RepositorySecrets"); err != nil {
		return nil, err
	}
	return f.repoSecrets, nil
}

func (f *fakeSource) ListDirectory(_ context.Context, _, _, path, ref string) ([]Entry, error) {
	if err := f.record("ListDirectory"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.refs = append(f.refs, ref)
	f.mu.Unlock()
	if path != ".github/workflows" {
		return nil, fmt.Errorf("path %s: %w", path, ErrNotFound)
	}
	return f.entries, nil
}

func (f *fakeSource) FileContent(_ context.Context, _, _, path, ref string) (Content, error) {
	if err := f.record("FileContent"); err != nil {
		return Content{}, err
	}
	f.mu.Lock()
	f.refs = append(f.refs, ref)
	f.mu.Unlock()
	text, ok := f.files[path]
	if !ok {
		return Content{}, fmt.Errorf("file %s: %w", path, ErrNotFound)
	}
	return Content{Data: base64.StdEncoding.EncodeToString([]byte(text)), Encoding: "base64"}, nil
}

// event is one call made on recordingReporter.
type event struct {
	Kind string // info, error, group, endgroup
	Msg  string
	At   Annotation
}

type recordingReporter struct {
	events []event
}

func (r *recordingReporter) Info(msg string) {
	r.events = append(r.events, event{Kind: "info", Msg: msg})
}

func (r *recordingReporter) Error(msg string, at Annotation) {
	r.events = append(r.events, event{Kind: "error", Msg: msg, At: at})
}

func (r *recordingReporter) StartGroup(label string) {
	r.events = append(r.events, event{Kind: "group", Msg: label})
}

func (r *recordingReporter) EndGroup() {
	r.events = append(r.events, event{Kind: "endgroup"})
}

func (r *recordingReporter) errors() []event {
	var out []event
	for _, e := range r.events {
		if e.Kind == "error" {
			out = append(out, e)
		}
	}
	return out
}

func (r *recordingReporter) infos() []string {
	var out []string
	for _, e := range r.events {
		if e.Kind == "info" {
			out = append(out, e.Msg)
		}
	}
	return out
}

func (r *recordingReporter) groups() []string {
	var out []string
	for _, e := range r.events {
		if e.Kind == "group" {
			out = append(out, e.Msg)
		}
	}
	return out
}
