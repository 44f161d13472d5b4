package model

import (
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

// MaxRawOutputSize caps the raw output stored on a ScanJob. Output beyond
// the cap is truncated, never rejected.
const MaxRawOutputSize = 64 * 1024

// ScanJob is one concrete execution of a scan against a target. Every job is
// created queued, whether from the scheduler or a manual trigger, and is
// owned by the lifecycle manager until it reaches a terminal state.
type ScanJob struct {
	ID            types.JobID
	Tool          types.ToolName
	Target        string
	Mode          string
	Status        types.JobStatus
	StartedAt     time.Time
	EndedAt       time.Time
	RawOutput     string
	FindingsCount int
	CreatedAt     time.Time
}

func NewScanJob(tool types.ToolName, target, mode string, now time.Time) *ScanJob {
	return &ScanJob{
		ID:        types.NewJobID(),
		Tool:      tool,
		Target:    target,
		Mode:      mode,
		Status:    types.JobStatusQueued,
		CreatedAt: now,
	}
}

func (x *ScanJob) Validate() error {
	if !x.Tool.IsValid() {
		return goerr.Wrap(types.ErrValidationFailed, "unknown tool", goerr.V("tool", x.Tool))
	}
	if x.Target == "" {
		return goerr.Wrap(types.ErrValidationFailed, "target is empty")
	}
	return nil
}

// SetRawOutput stores output on the job, truncating to MaxRawOutputSize. The
// cut backs up to a rune boundary so truncation never leaves invalid UTF-8
// behind for the JSON encoder.
func (x *ScanJob) SetRawOutput(raw string) {
	if len(raw) > MaxRawOutputSize {
		cut := MaxRawOutputSize
		for cut > 0 && !utf8.RuneStart(raw[cut]) {
			cut--
		}
		raw = raw[:cut]
	}
	x.RawOutput = raw
}
