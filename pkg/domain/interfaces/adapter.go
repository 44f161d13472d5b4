package interfaces

import (
	"context"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

// JobHandle identifies a tool-side scan session. Its content is opaque to the
// lifecycle manager; only the adapter that issued it interprets it.
type JobHandle struct {
	Tool   types.ToolName
	Target string
	Mode   string
	Ref    string
}

type PollState string

const (
	PollPending PollState = "pending"
	PollDone    PollState = "done"
	PollFailed  PollState = "failed"
)

type PollResult struct {
	State    PollState
	Progress int
	Message  string
}

// Adapter is the uniform four-operation contract every external tool plugs in
// through. The lifecycle manager drives any tool through this interface and
// never branches on tool name.
//
// Cancel is best-effort: errors are logged by the caller, never propagated.
type Adapter interface {
	Start(ctx context.Context, target, mode string) (*JobHandle, error)
	Poll(ctx context.Context, handle *JobHandle) (*PollResult, error)
	Collect(ctx context.Context, handle *JobHandle) ([]byte, error)
	Cancel(ctx context.Context, handle *JobHandle) error
}
