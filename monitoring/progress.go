package monitoring

import (
	"sync"
	"time"

	"github.com/sarchlab/llrf/sim"
	"github.com/sarchlab/llrf/station"
)

// A ProgressBar is a tracker of the progress
type ProgressBar struct {
	sync.Mutex `json:"-"`
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// Copy returns an unlocked copy of the bar.
func (b *ProgressBar) Copy() ProgressBar {
	b.Lock()
	defer b.Unlock()

	return ProgressBar{
		ID:        b.ID,
		Name:      b.Name,
		StartTime: b.StartTime,
		Total:     b.Total,
		Finished:  b.Finished,
	}
}

// StepProgressHook advances a progress bar on every station step.
type StepProgressHook struct {
	Bar *ProgressBar
}

// Func counts a finished step.
func (h StepProgressHook) Func(ctx sim.HookCtx) {
	if ctx.Pos == station.HookPosStep {
		h.Bar.IncrementFinished(1)
	}
}
