package checker

// Annotation locates a diagnostic. Line is 1-indexed and Column 0-indexed.
// A zero Annotation has no location.
type Annotation struct {
	File   string
	Line   int
	Column int
}

// Reporter is the diagnostics sink. Calls arrive in run order.
type Reporter interface {
	Info(msg string)
	Error(msg string, at Annotation)
	StartGroup(label string)
	EndGroup()
}
