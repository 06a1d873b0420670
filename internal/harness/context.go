package harness

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"
)

type environment struct {
	ctx        context.Context
	results    Results
	testLogger TestLogger
	filter     Filter
}

// T is the handle a scenario receives. It satisfies testify's TestingT so
// scenarios can use the assert and require packages directly.
type T struct {
	env        *environment
	id         TestID
	failed     bool
	skipped    bool
	skipReason string
	errors     []error
	steps      []StepResult
}

// Run executes action as the root test and returns the collected results.
func Run(
	ctx context.Context,
	filter Filter,
	testLogger TestLogger,
	action func(*T),
) Results {
	if testLogger == nil {
		testLogger = nullTestLogger{}
	}
	env := &environment{
		ctx:        ctx,
		filter:     filter,
		testLogger: testLogger,
	}
	t := &T{env: env}
	t.run(action)
	return env.results
}

func (t *T) run(action func(*T)) {
	defer func() {
		if r := recover(); r != nil {
			if t.skipped {
				return
			}
			t.failed = true
			var addError error
			if _, ok := r.(*T); ok {
				if len(t.errors) == 0 {
					addError = errors.New("test failed with no failure message")
				}
			} else {
				addError = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
			}
			if addError != nil {
				t.errors = append(t.errors, addError)
				t.env.testLogger.TestError(t.id, addError)
			}
		}
		result := TestResult{TestID: t.id, Errors: t.errors, Steps: t.steps}
		t.env.results.Tests = append(t.env.results.Tests, result)
		if t.failed {
			t.env.results.Failures = append(t.env.results.Failures, result)
		}
	}()

	action(t)
}

func (t *T) ID() TestID {
	return t.id
}

// Context is cancelled when the run is.
func (t *T) Context() context.Context {
	return t.env.ctx
}

// Run executes action as a named sub-test.
func (t *T) Run(name string, action func(*T)) {
	id := TestID{Path: append(append([]string(nil), t.id.Path...), name)}

	t.env.testLogger.TestStarted(id)
	if t.env.filter != nil && !t.env.filter(id) {
		t.env.testLogger.TestSkipped(id, "excluded by filter parameters")
		return
	}
	t1 := &T{
		id:  id,
		env: t.env,
	}
	t1.run(action)
	if t1.skipped {
		t.env.testLogger.TestSkipped(id, t1.skipReason)
		return
	}
	t.env.testLogger.TestFinished(id, t1.failed, t1.steps)
}

// Step runs action as a named step of the current test. A failure inside
// the step is recorded on it and then propagates as usual.
func (t *T) Step(name string, action func()) {
	step := StepResult{TestID: t.id, Name: name, Started: time.Now()}
	errsBefore := len(t.errors)

	defer func() {
		r := recover()
		step.Duration = time.Since(step.Started)
		switch {
		case t.skipped:
			step.Skipped = true
		case len(t.errors) > errsBefore:
			step.Failed = true
			step.Error = errors.Join(t.errors[errsBefore:]...).Error()
		case r != nil:
			step.Failed = true
			step.Error = fmt.Sprintf("panic: %v", r)
		}
		t.steps = append(t.steps, step)
		t.env.testLogger.StepFinished(step)
		if r != nil {
			panic(r)
		}
	}()

	action()
}

func (t *T) Steps() []StepResult {
	return append([]StepResult(nil), t.steps...)
}

func (t *T) Failed() bool {
	return t.failed
}

func (t *T) Errorf(format string, args ...any) {
	t.failed = true
	err := fmt.Errorf(format, args...)
	t.errors = append(t.errors, err)
	t.env.testLogger.TestError(t.id, err)
}

func (t *T) FailNow() {
	panic(t)
}

func (t *T) Helper() {}

func (t *T) Skip() {
	t.skipped = true
	panic(t)
}

func (t *T) SkipWithReason(reason string) {
	t.skipReason = reason
	t.Skip()
}
