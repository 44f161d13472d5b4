package interfaces

import (
	"context"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/model"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

// Database is the entity store collaborator. Implementations must be safe for
// concurrent use; serialization of per-tool writes is the tracker's job, not
// the store's.
type Database interface {
	// Tool operations
	GetOrCreateTool(ctx context.Context, name types.ToolName) (*model.Tool, error)
	UpdateTool(ctx context.Context, tool *model.Tool) error
	ListTools(ctx context.Context) ([]*model.Tool, error)

	// ScanJob operations
	PutScanJob(ctx context.Context, job *model.ScanJob) error
	GetScanJob(ctx context.Context, id types.JobID) (*model.ScanJob, error)
	ListScanJobs(ctx context.Context) ([]*model.ScanJob, error)

	// Finding operations. CreateFindingIfNew returns true only when the
	// dedup key was not present and a row was created.
	CreateFindingIfNew(ctx context.Context, finding *model.Finding) (bool, error)
	ListFindings(ctx context.Context) ([]*model.Finding, error)
	UpdateFindingStatus(ctx context.Context, key types.DedupKey, status types.FindingStatus) error

	// Alert operations
	CreateAlert(ctx context.Context, alert *model.Alert) error
	ListAlerts(ctx context.Context) ([]*model.Alert, error)
	AcknowledgeAlert(ctx context.Context, id types.AlertID) error

	// Schedule operations
	CreateSchedule(ctx context.Context, schedule *model.Schedule) error
	GetSchedule(ctx context.Context, id types.ScheduleID) (*model.Schedule, error)
	ListActiveSchedules(ctx context.Context) ([]*model.Schedule, error)
	UpdateSchedule(ctx context.Context, schedule *model.Schedule) error

	// NetworkHost operations
	UpsertNetworkHost(ctx context.Context, host *model.NetworkHost) error
	ListNetworkHosts(ctx context.Context) ([]*model.NetworkHost, error)

	// Metrics aggregates open findings and unacknowledged alerts.
	Metrics(ctx context.Context) (*model.SecurityMetrics, error)
}
