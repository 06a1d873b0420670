package harness

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/fatih/color"
)

// ConsoleLogger prints test progress in a format close to "go test -v".
type ConsoleLogger struct {
	out     io.Writer
	verbose bool
	rerun   []string

	pass *color.Color
	fail *color.Color
	skip *color.Color
}

var _ TestLogger = (*ConsoleLogger)(nil)

// NewConsoleLogger returns a logger writing to out. When rerun is not empty,
// each failure is followed by the command line that runs only that test.
func NewConsoleLogger(out io.Writer, verbose bool, rerun ...string) *ConsoleLogger {
	return &ConsoleLogger{
		out:     out,
		verbose: verbose,
		rerun:   rerun,
		pass:    color.New(color.FgGreen),
		fail:    color.New(color.FgRed, color.Bold),
		skip:    color.New(color.FgYellow),
	}
}

func (c *ConsoleLogger) TestStarted(id TestID) {
	if c.verbose {
		fmt.Fprintf(c.out, "=== RUN   %s\n", id)
	}
}

func (c *ConsoleLogger) TestError(id TestID, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		fmt.Fprintf(c.out, "    %s\n", line)
	}
}

func (c *ConsoleLogger) StepFinished(step StepResult) {
	if !c.verbose {
		return
	}
	state := "ok"
	if step.Failed {
		state = "FAILED"
	}
	fmt.Fprintf(c.out, "    step: %s (%s, %s)\n", step.Name, state, step.Duration.Round(time.Microsecond))
}

func (c *ConsoleLogger) TestFinished(id TestID, failed bool, _ []StepResult) {
	if failed {
		c.fail.Fprintf(c.out, "--- FAIL: %s\n", id) //nolint:errcheck
		if cmd := c.rerunCommand(id); cmd != "" {
			fmt.Fprintf(c.out, "    rerun: %s\n", cmd)
		}
		return
	}
	if c.verbose {
		c.pass.Fprintf(c.out, "--- PASS: %s\n", id) //nolint:errcheck
	}
}

func (c *ConsoleLogger) TestSkipped(id TestID, reason string) {
	if !c.verbose {
		return
	}
	if reason == "" {
		c.skip.Fprintf(c.out, "--- SKIP: %s\n", id) //nolint:errcheck
	} else {
		c.skip.Fprintf(c.out, "--- SKIP: %s (%s)\n", id, reason) //nolint:errcheck
	}
}

func (c *ConsoleLogger) rerunCommand(id TestID) string {
	if len(c.rerun) == 0 {
		return ""
	}
	levels := make([]string, len(id.Path))
	for i, name := range id.Path {
		levels[i] = "^" + regexp.QuoteMeta(name) + "$"
	}

	var b commandBuilder
	b.add(c.rerun...)
	b.add("--run", strings.Join(levels, "/"))
	return b.String()
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
