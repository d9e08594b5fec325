// Package verdict classifies secret references against the accessible set
// and aggregates the results of a run into a pass/fail verdict.
package verdict

import (
	"slices"

	"github.com/fyrsmithlabs/secretsguard/internal/expression"
	"github.com/fyrsmithlabs/secretsguard/internal/inventory"
)

// Classification is the outcome for a single secret reference.
type Classification int

const (
	// Configured: the secret is accessible to the repository.
	Configured Classification = iota
	// OptionalMissing: the secret is not accessible, but the reference is
	// guarded or the name is listed as optional. Informational only.
	OptionalMissing
	// HardMissing: the secret is not accessible and nothing marks it optional.
	HardMissing
)

func (c Classification) String() string {
	switch c {
	case Configured:
		return "configured"
	case OptionalMissing:
		return "optional-missing"
	case HardMissing:
		return "hard-missing"
	default:
		return "unknown"
	}
}

// Diagnostic is the classified result for one reference in one document.
type Diagnostic struct {
	Path           string
	Secret         string
	Classification Classification
	Line           int
	Column         int
}

// Classify classifies ref. An accessible name is Configured regardless of
// guards. Otherwise a guarded reference or a name in optional is
// OptionalMissing and anything else is HardMissing.
func Classify(path string, ref expression.Reference, accessible inventory.AccessibleSet, optional []string) Diagnostic {
	d := Diagnostic{
		Path:   path,
		Secret: ref.Name,
		Line:   ref.Line,
		Column: ref.Column,
	}

	switch {
	case accessible.Has(ref.Name):
		d.Classification = Configured
	case ref.Guarded || slices.Contains(optional, ref.Name):
		d.Classification = OptionalMissing
	default:
		d.Classification = HardMissing
	}
	return d
}

// ClassifyDocument scans text and classifies every reference in scan order.
func ClassifyDocument(path, text string, accessible inventory.AccessibleSet, optional []string) []Diagnostic {
	var diags []Diagnostic
	for ref := range expression.Scan(text) {
		diags = append(diags, Classify(path, ref, accessible, optional))
	}
	return diags
}
