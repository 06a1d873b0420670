package harness

import (
	"fmt"
	"io"
	"strings"
	"time"
)

type Results struct {
	Tests    []TestResult
	Failures []TestResult
}

type TestResult struct {
	TestID TestID
	Errors []error
	Steps  []StepResult
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// PrintResults writes a one-line summary followed by the failed tests.
func PrintResults(w io.Writer, r Results) {
	if r.OK() {
		fmt.Fprintf(w, "All %d tests passed.\n", len(r.Tests))
		return
	}
	fmt.Fprintf(w, "%d of %d tests failed:\n", len(r.Failures), len(r.Tests))
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  %s\n", f.TestID)
		for _, err := range f.Errors {
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(w, "    %s\n", line)
			}
		}
	}
}

type TestID struct {
	Path []string
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

// StepResult describes one named step of a test. Steps are observational:
// recording them has no effect on the backend under test.
type StepResult struct {
	TestID   TestID
	Name     string
	Started  time.Time
	Duration time.Duration
	Failed   bool
	Skipped  bool
	Error    string
}
