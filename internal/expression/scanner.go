// Package expression finds secret references inside the templated
// expressions (${{ ... }}) of workflow definition text.
//
// Scanning is regular-expression based rather than a parser for the
// expression language: a "secrets." inside a string literal within an
// expression is still reported.
package expression

import (
	"iter"
	"regexp"
	"strings"
)

var (
	// blockPattern matches one ${{ ... }} expression. Blocks may span lines and
	// do not nest, so the first closing marker ends the block.
	blockPattern = regexp.MustCompile(`(?s)\$\{\{(.*?)\}\}`)

	// referencePattern matches one reference term within a block body:
	// leading whitespace, a negation run immediately before secrets.<NAME>,
	// and an optional trailing short-circuit operator.
	referencePattern = regexp.MustCompile(`(\s*)(!*)secrets\.([A-Za-z0-9_-]+)(\s*(?:&&|\|\|))?`)
)

// Submatch indexes into referencePattern.FindAllStringSubmatchIndex results.
const (
	subSpace    = 1 * 2
	subNegation = 2 * 2
	subName     = 3 * 2
	subOperator = 4 * 2
)

// Reference is one secrets.<NAME> occurrence.
type Reference struct {
	Name string
	// Guarded is true when the reference is negated or takes part in a
	// short-circuit && / || expression, which marks its absence as expected.
	Guarded bool
	// Offset is the byte offset of the start of the reference term within the
	// scanned text. The term starts right after the preceding token of the
	// expression, so it includes whitespace and negation before secrets. When
	// that whitespace crosses a line break the term starts at the negation
	// or secrets token instead, on the line that holds it.
	Offset int
	// Line is 1-indexed, Column is 0-indexed.
	Line   int
	Column int
}

// Scan returns the references in text in source order. The sequence is a
// pure function of text and may be iterated any number of times.
func Scan(text string) iter.Seq[Reference] {
	return func(yield func(Reference) bool) {
		for _, block := range blockPattern.FindAllStringSubmatchIndex(text, -1) {
			bodyStart, bodyEnd := block[2], block[3]
			for ref := range scanBlock(text[bodyStart:bodyEnd]) {
				ref.Offset += bodyStart
				ref.Line, ref.Column = Position(text, ref.Offset)
				if !yield(ref) {
					return
				}
			}
		}
	}
}

// ScanAll collects Scan(text) into a slice.
func ScanAll(text string) []Reference {
	var refs []Reference
	for ref := range Scan(text) {
		refs = append(refs, ref)
	}
	return refs
}

// scanBlock yields references within one block body with body-relative offsets.
func scanBlock(body string) iter.Seq[Reference] {
	return func(yield func(Reference) bool) {
		for _, m := range referencePattern.FindAllStringSubmatchIndex(body, -1) {
			start := m[0]
			tokenStart := m[subName] - len("secrets.")
			if tokenStart > 0 && isIdentByte(body[tokenStart-1]) {
				// part of a longer identifier such as mysecrets.X or env.secrets.X
				continue
			}

			negated := m[subNegation+1] > m[subNegation]
			trailing := m[subOperator] >= 0
			ref := Reference{
				Name:    body[m[subName]:m[subName+1]],
				Guarded: negated || trailing || followsOperator(body[:start]),
				Offset:  start,
			}
			if strings.ContainsAny(body[m[subSpace]:m[subSpace+1]], "\r\n") {
				ref.Offset = m[subNegation]
			}
			if !yield(ref) {
				return
			}
		}
	}
}

// followsOperator reports whether prefix ends with a short-circuit operator,
// ignoring trailing whitespace.
func followsOperator(prefix string) bool {
	prefix = strings.TrimRight(prefix, " \t\r\n")
	return strings.HasSuffix(prefix, "&&") || strings.HasSuffix(prefix, "||")
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '-' || b == '.' ||
		('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}
