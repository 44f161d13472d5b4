package model

import (
	"time"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

// ScanNotification is emitted exactly once per terminal job transition.
// ErrorSummary is empty on success; FindingsCount is meaningful only when
// Status is completed.
type ScanNotification struct {
	JobID         types.JobID     `json:"job_id"`
	Tool          types.ToolName  `json:"tool"`
	Target        string          `json:"target"`
	Status        types.JobStatus `json:"status"`
	FindingsCount int             `json:"findings_count"`
	ErrorSummary  string          `json:"error_summary,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}
