package actions

import (
	"io"
	"strconv"

	"github.com/sethvargo/go-githubactions"

	"github.com/fyrsmithlabs/secretsguard/internal/checker"
)

// Reporter writes workflow commands for the Actions runner.
type Reporter struct {
	action *githubactions.Action
}

var _ checker.Reporter = (*Reporter)(nil)

// NewReporter creates a Reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{action: githubactions.New(githubactions.WithWriter(w))}
}

// Mask registers value so the runner hides it in all later log output.
func (r *Reporter) Mask(value string) {
	if value != "" {
		r.action.AddMask(value)
	}
}

func (r *Reporter) Info(msg string) {
	r.action.Infof("%s", msg)
}

// Error emits an error annotation. Actions columns are 1-indexed.
func (r *Reporter) Error(msg string, at checker.Annotation) {
	if at.File == "" {
		r.action.Errorf("%s", msg)
		return
	}

	fields := map[string]string{"file": at.File}
	if at.Line > 0 {
		fields["line"] = strconv.Itoa(at.Line)
		fields["col"] = strconv.Itoa(at.Column + 1)
	}
	r.action.WithFieldsMap(fields).Errorf("%s", msg)
}

func (r *Reporter) StartGroup(label string) {
	r.action.Group(label)
}

func (r *Reporter) EndGroup() {
	r.action.EndGroup()
}
