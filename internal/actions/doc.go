// Package actions provides the diagnostics sinks for check runs.
//
// Reporter emits GitHub Actions workflow commands, so hard-missing references
// surface as file annotations on the run. ConsoleReporter prints the same
// stream in a human-readable form for local runs.
package actions
