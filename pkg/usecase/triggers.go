package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/model"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
	"github.com/Salmaelayeb/sentinel-hub/pkg/utils/logging"
)

// TriggerNow dispatches a schedule's scan immediately. The schedule's own run
// times are left alone, so a manual trigger never delays or consumes the next
// regular firing.
func (x *UseCase) TriggerNow(ctx context.Context, id types.ScheduleID) (*model.ScanJob, error) {
	schedule, err := x.clients.Database().GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}

	job, err := x.DispatchScan(ctx, schedule.Tool, schedule.Target, schedule.Mode)
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("manually triggered scan",
		"scheduleID", id,
		"jobID", job.ID,
	)

	return job, nil
}

// ToggleSchedule flips the active flag and returns the updated schedule.
// Deactivation does not touch jobs already running.
func (x *UseCase) ToggleSchedule(ctx context.Context, id types.ScheduleID) (*model.Schedule, error) {
	schedule, err := x.clients.Database().GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}

	schedule.IsActive = !schedule.IsActive
	if err := x.clients.Database().UpdateSchedule(ctx, schedule); err != nil {
		return nil, goerr.Wrap(err, "failed to toggle schedule", goerr.V("id", id))
	}

	logging.From(ctx).Info("toggled schedule",
		"scheduleID", id,
		"isActive", schedule.IsActive,
	)

	return schedule, nil
}

// AcknowledgeAlert marks an alert as handled by an operator.
func (x *UseCase) AcknowledgeAlert(ctx context.Context, id types.AlertID) error {
	return x.clients.Database().AcknowledgeAlert(ctx, id)
}
