package verdict

import (
	"github.com/fyrsmithlabs/secretsguard/internal/inventory"
)

// Verdict is the final result of a run.
type Verdict struct {
	// Diagnostics in document order, then scan order within a document.
	Diagnostics []Diagnostic
	// Forbidden lists the forbidden names found in the accessible set.
	Forbidden           []string
	HasUnknownSecrets   bool
	HasForbiddenSecrets bool
}

// Aggregate derives the verdict from every document's diagnostics and the
// forbidden check. Both conditions are always evaluated in full.
func Aggregate(diags []Diagnostic, forbidden []string, accessible inventory.AccessibleSet) *Verdict {
	v := &Verdict{Diagnostics: diags}

	for _, d := range diags {
		if d.Classification == HardMissing {
			v.HasUnknownSecrets = true
			break
		}
	}

	seen := make(map[string]struct{}, len(forbidden))
	for _, name := range forbidden {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if accessible.Has(name) {
			v.Forbidden = append(v.Forbidden, name)
		}
	}
	v.HasForbiddenSecrets = len(v.Forbidden) > 0

	return v
}

// Passed reports whether the run succeeded.
func (v *Verdict) Passed() bool {
	return !(v.HasUnknownSecrets || v.HasForbiddenSecrets)
}

// Counts returns the number of diagnostics per classification.
func (v *Verdict) Counts() map[Classification]int {
	counts := map[Classification]int{
		Configured:      0,
		OptionalMissing: 0,
		HardMissing:     0,
	}
	for _, d := range v.Diagnostics {
		counts[d.Classification]++
	}
	return counts
}
