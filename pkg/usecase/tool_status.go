package usecase

import (
	"context"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
	"github.com/Salmaelayeb/sentinel-hub/pkg/utils/errutil"
	"github.com/Salmaelayeb/sentinel-hub/pkg/utils/logging"
)

// Tool status tracking. Transitions follow the scan lifecycle: a dispatch
// moves the tool to scanning, a successful run to active, any failure to
// error. The record is created lazily on first use.

func (x *UseCase) markToolScanning(ctx context.Context, name types.ToolName) {
	x.toolMu.Lock()
	defer x.toolMu.Unlock()

	tool, err := x.clients.Database().GetOrCreateTool(ctx, name)
	if err != nil {
		errutil.HandleError(ctx, "failed to load tool record", err)
		return
	}

	tool.Status = types.ToolStatusScanning
	tool.UpdatedAt = logging.CtxTime(ctx)
	if err := x.clients.Database().UpdateTool(ctx, tool); err != nil {
		errutil.HandleError(ctx, "failed to mark tool scanning", err)
	}
}

func (x *UseCase) markToolScanDone(ctx context.Context, name types.ToolName, scanErr error) {
	x.toolMu.Lock()
	defer x.toolMu.Unlock()

	tool, err := x.clients.Database().GetOrCreateTool(ctx, name)
	if err != nil {
		errutil.HandleError(ctx, "failed to load tool record", err)
		return
	}

	now := logging.CtxTime(ctx)
	tool.UpdatedAt = now

	if scanErr != nil {
		tool.Status = types.ToolStatusError
		tool.LastError = scanErr.Error()
	} else {
		tool.Status = types.ToolStatusActive
		tool.LastError = ""
		tool.LastScanTime = now
		tool.ScanCount++
	}

	if err := x.clients.Database().UpdateTool(ctx, tool); err != nil {
		errutil.HandleError(ctx, "failed to record tool scan result", err)
	}
}
