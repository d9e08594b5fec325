package verdict

import (
	"testing"

	"github.com/fyrsmithlabs/secretsguard/internal/expression"
	"github.com/fyrsmithlabs/secretsguard/internal/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_DecisionTable(t *testing.T) {
	accessible := inventory.Build(nil, nil, []string{"TOKEN"})
	optional := []string{"SLACK_WEBHOOK"}

	tests := []struct {
		name string
		ref  expression.Reference
		want Classification
	}{
		{"accessible unguarded", expression.Reference{Name: "TOKEN"}, Configured},
		{"accessible guarded", expression.Reference{Name: "TOKEN", Guarded: true}, Configured},
		{"missing guarded", expression.Reference{Name: "MISSING", Guarded: true}, OptionalMissing},
		{"missing listed optional", expression.Reference{Name: "SLACK_WEBHOOK"}, OptionalMissing},
		{"missing unguarded", expression.Reference{Name: "MISSING"}, HardMissing},
		{"case differs", expression.Reference{Name: "token"}, HardMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Classify("ci.yml", tt.ref, accessible, optional)
			assert.Equal(t, tt.want, d.Classification)
			assert.Equal(t, tt.ref.Name, d.Secret)
			assert.Equal(t, "ci.yml", d.Path)
		})
	}
}

func TestClassify_CarriesPosition(t *testing.T) {
	d := Classify("ci.yml", expression.Reference{Name: "X", Line: 12, Column: 7}, inventory.AccessibleSet{}, nil)
	assert.Equal(t, 12, d.Line)
	assert.Equal(t, 7, d.Column)
}

func TestClassifyDocument(t *testing.T) {
	accessible := inventory.Build([]string{"GITHUB_TOKEN"}, nil, []string{"NPM_TOKEN"})
	text := "env:\n" +
		"  A: ${{ secrets.NPM_TOKEN }}\n" +
		"  B: ${{ secrets.CODECOV || '' }}\n" +
		"  C: ${{ secrets.DEPLOY_KEY }}\n"

	diags := ClassifyDocument(".github/workflows/ci.yml", text, accessible, nil)
	require.Len(t, diags, 3)

	assert.Equal(t, Diagnostic{Path: ".github/workflows/ci.yml", Secret: "NPM_TOKEN", Classification: Configured, Line: 2, Column: 8}, diags[0])
	assert.Equal(t, OptionalMissing, diags[1].Classification)
	assert.Equal(t, HardMissing, diags[2].Classification)
	assert.Equal(t, 4, diags[2].Line)
}

func TestClassifyDocument_Idempotent(t *testing.T) {
	accessible := inventory.Build(nil, nil, []string{"A"})
	text := "${{ secrets.A }}\r\n${{ !secrets.B }}\n${{ secrets.C && secrets.D }}"

	first := ClassifyDocument("w.yml", text, accessible, []string{"C"})
	second := ClassifyDocument("w.yml", text, accessible, []string{"C"})
	assert.Equal(t, first, second)
}

func TestClassification_String(t *testing.T) {
	assert.Equal(t, "configured", Configured.String())
	assert.Equal(t, "optional-missing", OptionalMissing.String())
	assert.Equal(t, "hard-missing", HardMissing.String())
	assert.Equal(t, "unknown", Classification(42).String())
}
