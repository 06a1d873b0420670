package report_test

import (
	"bytes"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/artefactual-labs/petstore/internal/report"
)

func TestExportCSV(t *testing.T) {
	t.Parallel()

	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	steps := []report.Step{
		{Test: "pets/add pet", Name: "check status code: 200", Duration: 12 * time.Millisecond, Started: started},
		{Test: "pets/get pet", Name: "check field value: name, status", Failed: true, Error: "line one\nline two", Started: started},
		{Test: "users/login", Name: "login", Skipped: true, Started: started},
	}

	var buf bytes.Buffer
	assert.NilError(t, report.ExportCSV(&buf, steps))
	assert.Equal(t, buf.String(), `Test,Step,Status,Duration Milliseconds,Started,Error
pets/add pet,check status code: 200,PASS,12,2026-01-02T03:04:05.000000000Z,
pets/get pet,"check field value: name, status",FAIL,0,2026-01-02T03:04:05.000000000Z,"line one
line two"
users/login,login,SKIP,0,2026-01-02T03:04:05.000000000Z,
`)
}

func TestExportCSVEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	assert.NilError(t, report.ExportCSV(&buf, nil))
	assert.Equal(t, buf.String(), "Test,Step,Status,Duration Milliseconds,Started,Error\n")
}
