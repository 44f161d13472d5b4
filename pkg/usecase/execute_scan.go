package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/interfaces"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/model"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
	"github.com/Salmaelayeb/sentinel-hub/pkg/normalize"
	"github.com/Salmaelayeb/sentinel-hub/pkg/utils/errutil"
	"github.com/Salmaelayeb/sentinel-hub/pkg/utils/logging"
)

// DispatchScan creates a queued job for (tool, target) and starts executing
// it in the background. If a job is already running against the same pair the
// dispatch is rejected with ErrScheduleConflict and no job is created.
func (x *UseCase) DispatchScan(ctx context.Context, tool types.ToolName, target, mode string) (*model.ScanJob, error) {
	job := model.NewScanJob(tool, target, mode, logging.CtxTime(ctx))
	if err := job.Validate(); err != nil {
		return nil, err
	}

	release, err := x.acquireSlot(tool, target, job.ID)
	if err != nil {
		return nil, err
	}

	if err := x.clients.Database().PutScanJob(ctx, job); err != nil {
		release()
		return nil, goerr.Wrap(err, "failed to persist queued job", goerr.V("jobID", job.ID))
	}

	bg := detach(ctx)
	go func() {
		defer release()
		x.runJob(bg, job)
	}()

	return job, nil
}

// ExecuteScanJob runs a job synchronously to a terminal state. The job must
// be queued; the execution slot is claimed for the duration of the run.
func (x *UseCase) ExecuteScanJob(ctx context.Context, job *model.ScanJob) error {
	if err := job.Validate(); err != nil {
		return err
	}
	if job.Status != types.JobStatusQueued {
		return goerr.Wrap(types.ErrValidationFailed, "job is not queued",
			goerr.V("jobID", job.ID), goerr.V("status", job.Status))
	}

	release, err := x.acquireSlot(job.Tool, job.Target, job.ID)
	if err != nil {
		return err
	}
	defer release()

	if err := x.clients.Database().PutScanJob(ctx, job); err != nil {
		return goerr.Wrap(err, "failed to persist queued job", goerr.V("jobID", job.ID))
	}

	x.runJob(ctx, job)
	return nil
}

// runJob drives a queued job to exactly one terminal state. The timeout clock
// starts here, when execution begins, not when the job was queued.
func (x *UseCase) runJob(ctx context.Context, job *model.ScanJob) {
	logger := logging.From(ctx).With("jobID", job.ID, "tool", job.Tool, "target", job.Target)
	ctx = logging.With(ctx, logger)

	ad, err := x.clients.Adapters().Get(job.Tool)
	if err != nil {
		x.finishJob(ctx, job, types.JobStatusFailed, err)
		return
	}

	x.markToolScanning(ctx, job.Tool)

	job.Status = types.JobStatusRunning
	job.StartedAt = logging.CtxTime(ctx)
	if err := x.clients.Database().PutScanJob(ctx, job); err != nil {
		errutil.HandleError(ctx, "failed to persist running job", err)
	}
	logger.Info("scan started")

	timeout := x.clients.Adapters().Timeout(job.Tool)
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	handle, err := ad.Start(runCtx, job.Target, job.Mode)
	if err != nil {
		x.finishJob(ctx, job, terminalStatus(ctx, runCtx, err), err)
		return
	}

	if err := x.waitForCompletion(runCtx, ad, handle); err != nil {
		status := terminalStatus(ctx, runCtx, err)
		if status == types.JobStatusTimedOut || status == types.JobStatusCancelled {
			x.stopAdapter(ctx, ad, handle)
		}
		x.finishJob(ctx, job, status, err)
		return
	}

	raw, err := ad.Collect(runCtx, handle)
	if err != nil {
		x.finishJob(ctx, job, terminalStatus(ctx, runCtx, err), err)
		return
	}
	job.SetRawOutput(string(raw))

	created := x.persistResults(ctx, job, raw)
	job.FindingsCount = created
	x.finishJob(ctx, job, types.JobStatusCompleted, nil)
}

// waitForCompletion polls the adapter until it reports done, reports failure,
// or the run context expires.
func (x *UseCase) waitForCompletion(ctx context.Context, ad interfaces.Adapter, handle *interfaces.JobHandle) error {
	ticker := time.NewTicker(x.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return goerr.Wrap(types.ErrAdapterTimeout, "scan did not finish in time",
				goerr.V("cause", ctx.Err().Error()))
		case <-ticker.C:
			result, err := ad.Poll(ctx, handle)
			if err != nil {
				return err
			}
			switch result.State {
			case interfaces.PollDone:
				return nil
			case interfaces.PollFailed:
				return goerr.Wrap(types.ErrAdapterProtocol, "scan reported failure",
					goerr.V("message", result.Message))
			}
			logging.From(ctx).Debug("scan in progress", "progress", result.Progress)
		}
	}
}

// stopAdapter asks the adapter to abandon the scan. Best effort: the job is
// already lost, a cancel failure only gets logged.
func (x *UseCase) stopAdapter(ctx context.Context, ad interfaces.Adapter, handle *interfaces.JobHandle) {
	stopCtx, cancel := context.WithTimeout(detach(ctx), 30*time.Second)
	defer cancel()

	if err := ad.Cancel(stopCtx, handle); err != nil {
		errutil.HandleError(ctx, "failed to cancel scan", err)
	}
}

// persistResults normalizes raw output and persists findings, hosts and
// alerts. It returns the number of newly created findings; re-discovered
// findings are not counted. A parse failure is not fatal to the job:
// whatever was extracted before the failure is still persisted.
func (x *UseCase) persistResults(ctx context.Context, job *model.ScanJob, raw []byte) int {
	now := logging.CtxTime(ctx)

	report, err := normalize.Normalize(job.Tool, job.Target, raw, now)
	if err != nil {
		errutil.HandleError(ctx, "failed to normalize scan output", err)
	}

	created := 0
	for _, finding := range report.Findings {
		isNew, err := x.clients.Database().CreateFindingIfNew(ctx, finding)
		if err != nil {
			errutil.HandleError(ctx, "failed to persist finding", err)
			continue
		}
		if isNew {
			created++
		}
	}

	for _, host := range report.Hosts {
		if err := x.clients.Database().UpsertNetworkHost(ctx, host); err != nil {
			errutil.HandleError(ctx, "failed to persist network host", err)
		}
	}

	for _, alert := range report.Alerts {
		if err := x.clients.Database().CreateAlert(ctx, alert); err != nil {
			errutil.HandleError(ctx, "failed to persist alert", err)
			continue
		}
		if err := x.clients.Notifier().NotifyAlert(ctx, alert); err != nil {
			errutil.HandleError(ctx, "failed to notify alert", err)
		}
	}

	return created
}

// finishJob records the terminal state, updates the tool record and emits the
// single completion notification for this job.
func (x *UseCase) finishJob(ctx context.Context, job *model.ScanJob, status types.JobStatus, cause error) {
	job.Status = status
	job.EndedAt = logging.CtxTime(ctx)

	if err := x.clients.Database().PutScanJob(ctx, job); err != nil {
		errutil.HandleError(ctx, "failed to persist terminal job", err)
	}

	x.markToolScanDone(ctx, job.Tool, cause)

	n := &model.ScanNotification{
		JobID:         job.ID,
		Tool:          job.Tool,
		Target:        job.Target,
		Status:        status,
		FindingsCount: job.FindingsCount,
		Timestamp:     job.EndedAt,
	}
	if cause != nil {
		n.ErrorSummary = cause.Error()
	}
	if err := x.clients.Notifier().NotifyScanComplete(ctx, n); err != nil {
		errutil.HandleError(ctx, "failed to notify scan completion", err)
	}

	if cause != nil {
		logging.From(ctx).Warn("scan ended", "status", status, "error", cause)
	} else {
		logging.From(ctx).Info("scan ended", "status", status, "findings", job.FindingsCount)
	}
}

// terminalStatus decides the terminal state for a failed run. Parent context
// cancellation means the operator shut us down; an expired run context means
// the tool overran its deadline.
func terminalStatus(parent, run context.Context, err error) types.JobStatus {
	if parent.Err() != nil {
		return types.JobStatusCancelled
	}
	if run.Err() != nil || errors.Is(err, types.ErrAdapterTimeout) {
		return types.JobStatusTimedOut
	}
	return types.JobStatusFailed
}
