package inventory

import (
	"slices"
	"sort"
)

// AccessibleSet is the sorted, deduplicated set of secret names a repository's
// workflows can resolve. Names are case-sensitive. The zero value is empty.
type AccessibleSet struct {
	names []string
}

// Build merges predefined names, visible organization secrets and repository
// secrets into an AccessibleSet. Empty names are dropped.
func Build(predefined, orgVisible, repoSecrets []string) AccessibleSet {
	seen := make(map[string]struct{}, len(predefined)+len(orgVisible)+len(repoSecrets))
	names := make([]string, 0, len(seen))

	for _, src := range [][]string{predefined, orgVisible, repoSecrets} {
		for _, name := range src {
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return AccessibleSet{names: names}
}

// Has reports whether name is accessible.
func (s AccessibleSet) Has(name string) bool {
	_, found := slices.BinarySearch(s.names, name)
	return found
}

// Names returns a copy of the names in lexicographic order.
func (s AccessibleSet) Names() []string {
	return slices.Clone(s.names)
}

// Len returns the number of names in the set.
func (s AccessibleSet) Len() int {
	return len(s.names)
}
