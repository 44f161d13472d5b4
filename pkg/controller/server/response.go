package server

import (
	"time"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/model"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

type scanRequest struct {
	Tool   string `json:"tool"`
	Target string `json:"target"`
	Mode   string `json:"mode,omitempty"`
}

type jobResponse struct {
	ID            types.JobID     `json:"id"`
	Tool          types.ToolName  `json:"tool"`
	Target        string          `json:"target"`
	Mode          string          `json:"mode,omitempty"`
	Status        types.JobStatus `json:"status"`
	StartedAt     *time.Time      `json:"started_at,omitempty"`
	EndedAt       *time.Time      `json:"ended_at,omitempty"`
	FindingsCount int             `json:"findings_count"`
	CreatedAt     time.Time       `json:"created_at"`
}

func newJobResponse(job *model.ScanJob) *jobResponse {
	return &jobResponse{
		ID:            job.ID,
		Tool:          job.Tool,
		Target:        job.Target,
		Mode:          job.Mode,
		Status:        job.Status,
		StartedAt:     timePtr(job.StartedAt),
		EndedAt:       timePtr(job.EndedAt),
		FindingsCount: job.FindingsCount,
		CreatedAt:     job.CreatedAt,
	}
}

type scheduleRequest struct {
	Tool      string `json:"tool"`
	Target    string `json:"target"`
	Mode      string `json:"mode,omitempty"`
	Frequency string `json:"frequency"`
}

func (x *scheduleRequest) toModel(now time.Time) *model.Schedule {
	return &model.Schedule{
		ID:        types.NewScheduleID(),
		Tool:      types.ToolName(x.Tool),
		Target:    x.Target,
		Mode:      x.Mode,
		Frequency: types.Frequency(x.Frequency),
		IsActive:  true,
		CreatedAt: now,
	}
}

type scheduleResponse struct {
	ID        types.ScheduleID `json:"id"`
	Tool      types.ToolName   `json:"tool"`
	Target    string           `json:"target"`
	Mode      string           `json:"mode,omitempty"`
	Frequency types.Frequency  `json:"frequency"`
	IsActive  bool             `json:"is_active"`
	LastRun   *time.Time       `json:"last_run,omitempty"`
	NextRun   *time.Time       `json:"next_run,omitempty"`
}

func newScheduleResponse(schedule *model.Schedule) *scheduleResponse {
	return &scheduleResponse{
		ID:        schedule.ID,
		Tool:      schedule.Tool,
		Target:    schedule.Target,
		Mode:      schedule.Mode,
		Frequency: schedule.Frequency,
		IsActive:  schedule.IsActive,
		LastRun:   schedule.LastRun,
		NextRun:   schedule.NextRun,
	}
}

type toolResponse struct {
	Name         types.ToolName   `json:"name"`
	Status       types.ToolStatus `json:"status"`
	LastScanTime *time.Time       `json:"last_scan_time,omitempty"`
	ScanCount    int              `json:"scan_count"`
	LastError    string           `json:"last_error,omitempty"`
}

func newToolResponse(tool *model.Tool) *toolResponse {
	return &toolResponse{
		Name:         tool.Name,
		Status:       tool.Status,
		LastScanTime: timePtr(tool.LastScanTime),
		ScanCount:    tool.ScanCount,
		LastError:    tool.LastError,
	}
}

type findingResponse struct {
	DedupKey     types.DedupKey      `json:"dedup_key"`
	Title        string              `json:"title"`
	Description  string              `json:"description,omitempty"`
	Severity     types.Severity      `json:"severity"`
	CVSSScore    *float64            `json:"cvss_score,omitempty"`
	ExternalID   string              `json:"external_id,omitempty"`
	Asset        string              `json:"asset"`
	Port         int                 `json:"port,omitempty"`
	Service      string              `json:"service,omitempty"`
	SourceTool   types.ToolName      `json:"source_tool"`
	Status       types.FindingStatus `json:"status"`
	DiscoveredAt time.Time           `json:"discovered_at"`
	Remediation  string              `json:"remediation,omitempty"`
}

func newFindingResponse(finding *model.Finding) *findingResponse {
	return &findingResponse{
		DedupKey:     finding.DedupKey,
		Title:        finding.Title,
		Description:  finding.Description,
		Severity:     finding.Severity,
		CVSSScore:    finding.CVSSScore,
		ExternalID:   finding.ExternalID,
		Asset:        finding.Asset,
		Port:         finding.Port,
		Service:      finding.Service,
		SourceTool:   finding.SourceTool,
		Status:       finding.Status,
		DiscoveredAt: finding.DiscoveredAt,
		Remediation:  finding.Remediation,
	}
}

type alertResponse struct {
	ID           types.AlertID   `json:"id"`
	Type         types.AlertType `json:"type"`
	Severity     types.Severity  `json:"severity"`
	Message      string          `json:"message"`
	Source       string          `json:"source,omitempty"`
	SourceIP     string          `json:"source_ip,omitempty"`
	SourceTool   types.ToolName  `json:"source_tool"`
	Timestamp    time.Time       `json:"timestamp"`
	Acknowledged bool            `json:"acknowledged"`
	Details      map[string]any  `json:"details,omitempty"`
}

func newAlertResponse(alert *model.Alert) *alertResponse {
	return &alertResponse{
		ID:           alert.ID,
		Type:         alert.Type,
		Severity:     alert.Severity,
		Message:      alert.Message,
		Source:       alert.Source,
		SourceIP:     alert.SourceIP,
		SourceTool:   alert.SourceTool,
		Timestamp:    alert.Timestamp,
		Acknowledged: alert.Acknowledged,
		Details:      alert.Details,
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
