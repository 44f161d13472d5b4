package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

// Schedule is a recurring-scan definition. LastRun and NextRun are mutated
// only by the scheduler on dispatch, and IsActive only by an explicit toggle.
type Schedule struct {
	ID        types.ScheduleID
	Tool      types.ToolName
	Target    string
	Mode      string
	Frequency types.Frequency
	IsActive  bool
	LastRun   *time.Time
	NextRun   *time.Time
	CreatedAt time.Time
}

func (x *Schedule) Validate() error {
	if !x.Tool.IsValid() {
		return goerr.Wrap(types.ErrValidationFailed, "unknown tool", goerr.V("tool", x.Tool))
	}
	if x.Target == "" {
		return goerr.Wrap(types.ErrValidationFailed, "target is empty")
	}
	if !x.Frequency.IsValid() {
		return goerr.Wrap(types.ErrValidationFailed, "invalid frequency", goerr.V("frequency", x.Frequency))
	}
	return nil
}

// IsDue reports whether the schedule should fire at now. A schedule that has
// never run is due immediately.
func (x *Schedule) IsDue(now time.Time) bool {
	if !x.IsActive {
		return false
	}
	if x.LastRun == nil {
		return true
	}
	return now.Sub(*x.LastRun) >= x.Frequency.Interval()
}

// MarkDispatched records a fire at now. Run times advance on dispatch, not on
// job completion, so a slow job never delays the next scheduling decision.
func (x *Schedule) MarkDispatched(now time.Time) {
	last := now
	next := now.Add(x.Frequency.Interval())
	x.LastRun = &last
	x.NextRun = &next
}
