// Package inventory computes the set of secret names a repository can
// resolve at workflow run time.
//
// Organization secrets are filtered by their visibility scope (Resolve) and
// then merged with predefined names and repository secrets into a sorted,
// deduplicated AccessibleSet (Build).
package inventory
