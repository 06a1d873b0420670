package report

import (
	"context"
	"errors"
	"sync"

	"github.com/artefactual-labs/petstore/internal/harness"
)

// Recorder is a harness.TestLogger that writes every finished step of a run
// to the store. Storage errors do not interrupt the run; they are collected
// and returned by Err.
type Recorder struct {
	ctx   context.Context
	store *Store
	runID string

	mu   sync.Mutex
	errs []error
}

var _ harness.TestLogger = (*Recorder)(nil)

func NewRecorder(ctx context.Context, store *Store, runID string) *Recorder {
	return &Recorder{ctx: ctx, store: store, runID: runID}
}

func (r *Recorder) RunID() string {
	return r.runID
}

func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Join(r.errs...)
}

func (r *Recorder) StepFinished(step harness.StepResult) {
	if err := r.store.RecordStep(r.ctx, r.runID, step); err != nil {
		r.mu.Lock()
		r.errs = append(r.errs, err)
		r.mu.Unlock()
	}
}

func (r *Recorder) TestStarted(harness.TestID)                              {}
func (r *Recorder) TestError(harness.TestID, error)                         {}
func (r *Recorder) TestFinished(harness.TestID, bool, []harness.StepResult) {}
func (r *Recorder) TestSkipped(harness.TestID, string)                      {}
