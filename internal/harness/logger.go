package harness

type TestLogger interface {
	TestStarted(id TestID)
	TestError(id TestID, err error)
	StepFinished(step StepResult)
	TestFinished(id TestID, failed bool, steps []StepResult)
	TestSkipped(id TestID, reason string)
}

type nullTestLogger struct{}

func (n nullTestLogger) TestStarted(TestID)                      {}
func (n nullTestLogger) TestError(TestID, error)                 {}
func (n nullTestLogger) StepFinished(StepResult)                 {}
func (n nullTestLogger) TestFinished(TestID, bool, []StepResult) {}
func (n nullTestLogger) TestSkipped(TestID, string)              {}

// MultiLogger forwards every event to each logger in order.
type MultiLogger []TestLogger

func (m MultiLogger) TestStarted(id TestID) {
	for _, l := range m {
		l.TestStarted(id)
	}
}

func (m MultiLogger) TestError(id TestID, err error) {
	for _, l := range m {
		l.TestError(id, err)
	}
}

func (m MultiLogger) StepFinished(step StepResult) {
	for _, l := range m {
		l.StepFinished(step)
	}
}

func (m MultiLogger) TestFinished(id TestID, failed bool, steps []StepResult) {
	for _, l := range m {
		l.TestFinished(id, failed, steps)
	}
}

func (m MultiLogger) TestSkipped(id TestID, reason string) {
	for _, l := range m {
		l.TestSkipped(id, reason)
	}
}
