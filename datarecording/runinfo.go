package datarecording

import (
	"os"
	"strings"
	"time"
)

// RunInfoTable holds one row per property of the program run.
const RunInfoTable = "run_info"

const runInfoTimeFormat = "2006-01-02 15:04:05.000000000"

// RunInfoEntry is a property of the program run.
type RunInfoEntry struct {
	Property string
	Value    string
}

// RunInfoRecorder writes how and when the program ran next to the trace.
type RunInfoRecorder struct {
	recorder DataRecorder
	pending  []RunInfoEntry
	started  bool
}

// NewRunInfoRecorder creates the run info table in the given recorder.
func NewRunInfoRecorder(recorder DataRecorder) *RunInfoRecorder {
	recorder.CreateTable(RunInfoTable, RunInfoEntry{})

	return &RunInfoRecorder{recorder: recorder}
}

// Start remembers the command line, the working directory and the start
// time.
func (r *RunInfoRecorder) Start() {
	r.started = true
	r.pending = append(r.pending,
		RunInfoEntry{"Start Time", time.Now().Format(runInfoTimeFormat)},
		RunInfoEntry{"Command", strings.Join(os.Args, " ")},
	)

	if wd, err := os.Getwd(); err == nil {
		r.pending = append(r.pending, RunInfoEntry{"Working Directory", wd})
	}
}

// Add stores an extra property, written out with the others at End.
func (r *RunInfoRecorder) Add(property, value string) {
	r.pending = append(r.pending, RunInfoEntry{property, value})
}

// End writes all properties with the end time. End without Start does
// nothing.
func (r *RunInfoRecorder) End() {
	if !r.started {
		return
	}

	r.pending = append(r.pending,
		RunInfoEntry{"End Time", time.Now().Format(runInfoTimeFormat)})

	for _, e := range r.pending {
		r.recorder.InsertData(RunInfoTable, e)
	}

	r.pending = nil
	r.started = false

	r.recorder.Flush()
}
