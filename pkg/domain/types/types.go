package types

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type (
	ToolName   string
	JobID      string
	ScheduleID string
	AlertID    string
	DedupKey   string
	RequestID  string

	ToolStatus    string
	JobStatus     string
	Severity      string
	FindingStatus string
	AlertType     string
	Frequency     string

	APIToken string
	Password string
)

// Supported external tools. A Tool record is created lazily on first
// reference, so the enum is the single source of truth for valid names.
const (
	ToolNmap    ToolName = "nmap"
	ToolZAP     ToolName = "zap"
	ToolOpenVAS ToolName = "openvas"
	ToolTrivy   ToolName = "trivy"
	ToolTShark  ToolName = "tshark"
	ToolWazuh   ToolName = "wazuh"
)

// AllToolNames returns every known tool name in a stable order.
func AllToolNames() []ToolName {
	return []ToolName{ToolNmap, ToolZAP, ToolOpenVAS, ToolTrivy, ToolTShark, ToolWazuh}
}

func (x ToolName) IsValid() bool {
	switch x {
	case ToolNmap, ToolZAP, ToolOpenVAS, ToolTrivy, ToolTShark, ToolWazuh:
		return true
	}
	return false
}

const (
	ToolStatusInactive ToolStatus = "inactive"
	ToolStatusActive   ToolStatus = "active"
	ToolStatusScanning ToolStatus = "scanning"
	ToolStatusError    ToolStatus = "error"
)

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusTimedOut  JobStatus = "timed_out"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed from the status.
func (x JobStatus) IsTerminal() bool {
	switch x {
	case JobStatusCompleted, JobStatusFailed, JobStatusTimedOut, JobStatusCancelled:
		return true
	}
	return false
}

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

const (
	FindingStatusOpen          FindingStatus = "open"
	FindingStatusInProgress    FindingStatus = "in_progress"
	FindingStatusResolved      FindingStatus = "resolved"
	FindingStatusFalsePositive FindingStatus = "false_positive"
)

const (
	AlertIntrusion       AlertType = "intrusion"
	AlertMalware         AlertType = "malware"
	AlertVulnerability   AlertType = "vulnerability"
	AlertAnomaly         AlertType = "anomaly"
	AlertPolicyViolation AlertType = "policy_violation"
	AlertScanComplete    AlertType = "scan_complete"
)

const (
	FrequencyHourly  Frequency = "hourly"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Interval returns the fixed duration implied by the frequency. Weekly and
// monthly are calendar-naive fixed spans, matching the recurring-scan
// semantics of the scheduler (not calendar boundaries).
func (x Frequency) Interval() time.Duration {
	switch x {
	case FrequencyHourly:
		return time.Hour
	case FrequencyDaily:
		return 24 * time.Hour
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	case FrequencyMonthly:
		return 30 * 24 * time.Hour
	}
	return 0
}

func (x Frequency) IsValid() bool {
	return x.Interval() > 0
}

func NewJobID() JobID {
	return JobID(uuid.NewString())
}

func NewScheduleID() ScheduleID {
	return ScheduleID(uuid.NewString())
}

func NewAlertID() AlertID {
	return AlertID(uuid.NewString())
}

func NewRequestID() RequestID {
	return RequestID(uuid.NewString())
}

func (x APIToken) LogValue() slog.Value {
	return slog.StringValue("***********")
}

func (x APIToken) String() string {
	return "***********"
}

func (x Password) LogValue() slog.Value {
	return slog.StringValue("***********")
}

func (x Password) String() string {
	return "***********"
}
