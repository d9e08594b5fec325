package inventory

import "strings"

// OwnerKind is the type of account that owns a repository.
type OwnerKind int

const (
	OwnerUser OwnerKind = iota
	OwnerOrganization
)

// ParseOwnerKind maps the API owner type ("User", "Organization") to an OwnerKind.
func ParseOwnerKind(s string) OwnerKind {
	if strings.EqualFold(s, "organization") {
		return OwnerOrganization
	}
	return OwnerUser
}

func (k OwnerKind) String() string {
	if k == OwnerOrganization {
		return "organization"
	}
	return "user"
}

// Visibility is a repository's visibility.
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityPrivate  Visibility = "private"
	VisibilityInternal Visibility = "internal"
)

// ParseVisibility normalises an API visibility string.
func ParseVisibility(s string) Visibility {
	return Visibility(strings.ToLower(strings.TrimSpace(s)))
}

// Repository describes the repository whose workflows are checked.
type Repository struct {
	Owner      string
	Name       string
	FullName   string // owner/name
	OwnerKind  OwnerKind
	Visibility Visibility
}

// IsOrganization reports whether organization secrets apply to the repository.
func (r Repository) IsOrganization() bool {
	return r.OwnerKind == OwnerOrganization
}
