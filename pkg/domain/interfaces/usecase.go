package interfaces

import (
	"context"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/model"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

type UseCase interface {
	ExecuteScanJob(ctx context.Context, job *model.ScanJob) error
	DispatchScan(ctx context.Context, tool types.ToolName, target, mode string) (*model.ScanJob, error)
	Tick(ctx context.Context) error
	TriggerNow(ctx context.Context, id types.ScheduleID) (*model.ScanJob, error)
	ToggleSchedule(ctx context.Context, id types.ScheduleID) (*model.Schedule, error)
	AcknowledgeAlert(ctx context.Context, id types.AlertID) error
}
