package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/interfaces"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
	"github.com/Salmaelayeb/sentinel-hub/pkg/infra"
	"github.com/Salmaelayeb/sentinel-hub/pkg/utils/logging"
)

// UseCase owns the scan job lifecycle: dispatch, mutual exclusion per
// (tool, target), execution against adapters, normalization and the scheduler
// tick. All state transitions of jobs and tool records go through here.
type UseCase struct {
	clients *infra.Clients

	// running holds the (tool, target) pairs with an in-flight job. A
	// dispatch against an occupied slot is rejected, not queued.
	runningMu sync.Mutex
	running   map[slotKey]types.JobID

	// toolMu serializes read-modify-write cycles on tool records.
	toolMu sync.Mutex

	// tickMu keeps scheduler ticks from overlapping. A tick that finds the
	// lock held returns immediately.
	tickMu sync.Mutex

	pollInterval time.Duration
}

type slotKey struct {
	tool   types.ToolName
	target string
}

type Option func(*UseCase)

// WithPollInterval overrides how often a running adapter is polled. Tests use
// short intervals.
func WithPollInterval(d time.Duration) Option {
	return func(x *UseCase) {
		x.pollInterval = d
	}
}

func New(clients *infra.Clients, options ...Option) *UseCase {
	uc := &UseCase{
		clients:      clients,
		running:      make(map[slotKey]types.JobID),
		pollInterval: 2 * time.Second,
	}
	for _, opt := range options {
		opt(uc)
	}
	return uc
}

// acquireSlot claims the (tool, target) execution slot. It returns a release
// function, or ErrScheduleConflict if another job holds the slot.
func (x *UseCase) acquireSlot(tool types.ToolName, target string, id types.JobID) (func(), error) {
	key := slotKey{tool: tool, target: target}

	x.runningMu.Lock()
	defer x.runningMu.Unlock()

	if holder, busy := x.running[key]; busy {
		return nil, goerr.Wrap(types.ErrScheduleConflict, "execution slot is occupied",
			goerr.V("tool", tool),
			goerr.V("target", target),
			goerr.V("runningJobID", holder),
		)
	}
	x.running[key] = id

	return func() {
		x.runningMu.Lock()
		defer x.runningMu.Unlock()
		delete(x.running, key)
	}, nil
}

// detach builds a context for background execution that survives the caller
// returning but keeps the request ID, time source and logger.
func detach(ctx context.Context) context.Context {
	dst := logging.InheritContextValues(context.Background(), ctx)
	return logging.With(dst, logging.From(ctx))
}

var _ interfaces.UseCase = (*UseCase)(nil)
