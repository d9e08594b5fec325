package inventory

import "strings"

// Scope is the visibility scope of an organization secret.
type Scope int

const (
	// ScopeAll grants the secret to every repository in the organization.
	ScopeAll Scope = iota
	// ScopePrivate grants the secret to private repositories only.
	ScopePrivate
	// ScopeSelected grants the secret to an explicit repository list.
	ScopeSelected
	// ScopeUnknown is any scope value this tool does not recognise.
	// Secrets with an unknown scope are never considered visible.
	ScopeUnknown
)

// ParseScope parses an API visibility value case-insensitively.
// An empty value means ScopeAll.
func ParseScope(s string) Scope {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ScopeAll
	case "private":
		return ScopePrivate
	case "selected":
		return ScopeSelected
	default:
		return ScopeUnknown
	}
}

func (s Scope) String() string {
	switch s {
	case ScopeAll:
		return "all"
	case ScopePrivate:
		return "private"
	case ScopeSelected:
		return "selected"
	default:
		return "unknown"
	}
}

// OrgSecret is an organization-level secret as listed by the API.
// Only the name and scope are known; values are never fetched.
type OrgSecret struct {
	Name  string
	Scope Scope
}
