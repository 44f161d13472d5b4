package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
	"github.com/Salmaelayeb/sentinel-hub/pkg/utils/errutil"
	"github.com/Salmaelayeb/sentinel-hub/pkg/utils/logging"
)

// Tick evaluates all active schedules once and dispatches the due ones. Ticks
// never overlap: if a previous tick is still running this one returns
// immediately. Run times advance when the dispatch happens, so a schedule
// cannot fire twice for the same interval even if its job runs long.
func (x *UseCase) Tick(ctx context.Context) error {
	if !x.tickMu.TryLock() {
		logging.From(ctx).Debug("previous scheduler tick still running, skipping")
		return nil
	}
	defer x.tickMu.Unlock()

	now := logging.CtxTime(ctx)

	schedules, err := x.clients.Database().ListActiveSchedules(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list active schedules")
	}

	for _, schedule := range schedules {
		if !schedule.IsDue(now) {
			continue
		}

		schedule.MarkDispatched(now)
		if err := x.clients.Database().UpdateSchedule(ctx, schedule); err != nil {
			errutil.HandleError(ctx, "failed to record schedule dispatch", err)
			continue
		}

		job, err := x.DispatchScan(ctx, schedule.Tool, schedule.Target, schedule.Mode)
		if err != nil {
			// A conflict means the previous run for this pair is still
			// going. The interval is consumed either way.
			if errors.Is(err, types.ErrScheduleConflict) {
				logging.From(ctx).Warn("skipping scheduled scan, previous run still active",
					"scheduleID", schedule.ID,
					"tool", schedule.Tool,
					"target", schedule.Target,
				)
				continue
			}
			errutil.HandleError(ctx, "failed to dispatch scheduled scan", err)
			continue
		}

		logging.From(ctx).Info("dispatched scheduled scan",
			"scheduleID", schedule.ID,
			"jobID", job.ID,
			"tool", schedule.Tool,
			"target", schedule.Target,
		)
	}

	return nil
}

// RunScheduler ticks at the given interval until the context is cancelled.
func (x *UseCase) RunScheduler(ctx context.Context, interval time.Duration) error {
	logging.From(ctx).Info("scheduler started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.From(ctx).Info("scheduler stopped")
			return nil
		case <-ticker.C:
			if err := x.Tick(ctx); err != nil {
				errutil.HandleError(ctx, "scheduler tick failed", err)
			}
		}
	}
}
